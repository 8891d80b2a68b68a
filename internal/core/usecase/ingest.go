package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/officebrain/concierge/internal/core/domain"
	"github.com/officebrain/concierge/internal/core/ports"
)

// AnnouncementIngest consumes announcement payloads from the queue and
// persists them where the announcement search tool can find them.
type AnnouncementIngest struct {
	store  ports.AnnouncementStore
	logger *slog.Logger
}

func NewAnnouncementIngest(store ports.AnnouncementStore, logger *slog.Logger) *AnnouncementIngest {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnnouncementIngest{store: store, logger: logger}
}

func (u *AnnouncementIngest) Ingest(ctx context.Context, payload []byte) error {
	var a domain.Announcement
	if err := json.Unmarshal(payload, &a); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode announcement", err)
	}
	if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Body) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate announcement", fmt.Errorf("title or body is required"))
	}
	if strings.TrimSpace(a.ScopeID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate announcement", fmt.Errorf("scope_id is required"))
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.PostedAt.IsZero() {
		a.PostedAt = time.Now().UTC()
	}

	if err := u.store.UpsertAnnouncement(ctx, a); err != nil {
		return fmt.Errorf("store announcement: %w", err)
	}
	u.logger.Info("announcement_ingested", "id", a.ID, "scope_id", a.ScopeID)
	return nil
}
