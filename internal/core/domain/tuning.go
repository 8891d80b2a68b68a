package domain

import "time"

// SearchTuning carries every knob the retrieval pipeline recognizes.
// Zero values are replaced with defaults by the consuming constructors.
type SearchTuning struct {
	TotalBudget time.Duration

	KeywordSoftTimeout time.Duration
	KeywordHardTimeout time.Duration
	VectorSoftTimeout  time.Duration
	VectorHardTimeout  time.Duration

	// MinUsefulTimeout is the floor below which a backend call is not worth
	// issuing at all.
	MinUsefulTimeout time.Duration

	// BudgetFloor stops scope iteration once remaining budget drops under it.
	BudgetFloor time.Duration

	// EmbedWaitCap bounds how long a scope waits for the background
	// embedding task.
	EmbedWaitCap time.Duration

	// VectorMargin is headroom that must remain beyond the vector timeout
	// for a vector call to be attempted.
	VectorMargin time.Duration

	HighConfidence float64
	PerCallLimit   int
	MergedTopK     int

	// Keyword rank rescaling: normalized = min(1, rank*scale + offset).
	// A tuning choice, not correctness arithmetic.
	KeywordScoreScale  float64
	KeywordScoreOffset float64

	RerankEnabled       bool
	KeywordWeight       float64
	VectorWeight        float64
	RecencyHalfLifeDays float64
}

func DefaultSearchTuning() SearchTuning {
	return SearchTuning{
		TotalBudget:        3 * time.Second,
		KeywordSoftTimeout: 1200 * time.Millisecond,
		KeywordHardTimeout: 900 * time.Millisecond,
		VectorSoftTimeout:  1200 * time.Millisecond,
		VectorHardTimeout:  900 * time.Millisecond,
		MinUsefulTimeout:   100 * time.Millisecond,
		BudgetFloor:        500 * time.Millisecond,
		EmbedWaitCap:       500 * time.Millisecond,
		VectorMargin:       150 * time.Millisecond,

		HighConfidence: 0.85,
		PerCallLimit:   15,
		MergedTopK:     10,

		KeywordScoreScale:  10,
		KeywordScoreOffset: 0.3,

		RerankEnabled:       false,
		KeywordWeight:       0.6,
		VectorWeight:        0.4,
		RecencyHalfLifeDays: 30,
	}
}

// Normalized returns a copy with zero values replaced by defaults.
func (t SearchTuning) Normalized() SearchTuning {
	def := DefaultSearchTuning()
	out := t

	if out.TotalBudget <= 0 {
		out.TotalBudget = def.TotalBudget
	}
	if out.KeywordSoftTimeout <= 0 {
		out.KeywordSoftTimeout = def.KeywordSoftTimeout
	}
	if out.KeywordHardTimeout <= 0 {
		out.KeywordHardTimeout = def.KeywordHardTimeout
	}
	if out.VectorSoftTimeout <= 0 {
		out.VectorSoftTimeout = def.VectorSoftTimeout
	}
	if out.VectorHardTimeout <= 0 {
		out.VectorHardTimeout = def.VectorHardTimeout
	}
	if out.MinUsefulTimeout <= 0 {
		out.MinUsefulTimeout = def.MinUsefulTimeout
	}
	if out.BudgetFloor <= 0 {
		out.BudgetFloor = def.BudgetFloor
	}
	if out.EmbedWaitCap <= 0 {
		out.EmbedWaitCap = def.EmbedWaitCap
	}
	if out.VectorMargin <= 0 {
		out.VectorMargin = def.VectorMargin
	}
	if out.HighConfidence <= 0 || out.HighConfidence > 1 {
		out.HighConfidence = def.HighConfidence
	}
	if out.PerCallLimit <= 0 {
		out.PerCallLimit = def.PerCallLimit
	}
	if out.MergedTopK <= 0 {
		out.MergedTopK = def.MergedTopK
	}
	if out.KeywordScoreScale <= 0 {
		out.KeywordScoreScale = def.KeywordScoreScale
	}
	if out.KeywordScoreOffset < 0 {
		out.KeywordScoreOffset = def.KeywordScoreOffset
	}
	if out.KeywordWeight <= 0 {
		out.KeywordWeight = def.KeywordWeight
	}
	if out.VectorWeight <= 0 {
		out.VectorWeight = def.VectorWeight
	}
	if out.RecencyHalfLifeDays <= 0 {
		out.RecencyHalfLifeDays = def.RecencyHalfLifeDays
	}
	return out
}
