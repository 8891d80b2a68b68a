package usecase

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/officebrain/concierge/internal/core/domain"
)

const temporalEventBoost = 0.1

// fuseWeighted blends keyword and vector scores for one scope, decays old
// results toward zero with a half-life, and boosts event-typed results when
// the query asks a temporal question. Replaces the plain merge when the
// rerank flag is on.
func fuseWeighted(query string, keyword, vector []domain.NormalizedResult, tuning domain.SearchTuning, now time.Time) []domain.NormalizedResult {
	type blended struct {
		result  domain.NormalizedResult
		keyword float64
		vector  float64
	}

	acc := make(map[string]*blended, len(keyword)+len(vector))
	order := make([]string, 0, len(keyword)+len(vector))

	absorb := func(list []domain.NormalizedResult, fromKeyword bool) {
		for _, r := range list {
			b, ok := acc[r.ID]
			if !ok {
				b = &blended{result: r}
				acc[r.ID] = b
				order = append(order, r.ID)
			}
			if fromKeyword {
				b.keyword = r.NormalizedScore
			} else {
				b.vector = r.NormalizedScore
			}
		}
	}
	absorb(keyword, true)
	absorb(vector, false)

	temporal := hasTemporalInterrogative(query)

	out := make([]domain.NormalizedResult, 0, len(order))
	for _, id := range order {
		b := acc[id]
		score := tuning.KeywordWeight*b.keyword + tuning.VectorWeight*b.vector

		if !b.result.CreatedAt.IsZero() {
			ageDays := now.Sub(b.result.CreatedAt).Hours() / 24
			if ageDays > 0 {
				score *= math.Exp(-ageDays / tuning.RecencyHalfLifeDays)
			}
		}
		if temporal && b.result.Metadata["kind"] == "event" {
			score += temporalEventBoost
		}

		r := b.result
		r.NormalizedScore = score
		out = append(out, r)
	}

	sortByScoreDesc(out)
	return out
}

func hasTemporalInterrogative(query string) bool {
	for _, token := range tokenizeLower(query) {
		switch token {
		case "when", "where", "time", "schedule":
			return true
		}
	}
	return false
}

func tokenizeLower(s string) []string {
	var b strings.Builder
	tokens := make([]string, 0, 12)
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}
