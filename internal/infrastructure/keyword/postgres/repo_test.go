package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/officebrain/concierge/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &Repository{db: db}, mock, func() { _ = db.Close() }
}

func TestSearchMapsRowsToKeywordHits(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	created := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "title", "body", "rank", "created_at"}).
		AddRow("doc-1", "Parking policy", "Guests park in lot B.", 0.071, created).
		AddRow("doc-2", "Office map", "Parking is behind the lobby.", 0.042, created)

	mock.ExpectQuery("SELECT id, title, body, ts_rank").
		WithArgs("parking", "hq", 15, 0).
		WillReturnRows(rows)

	hits, err := repo.Search(context.Background(), "parking", "hq", 15, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].ID != "doc-1" || hits[0].Rank != 0.071 {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if !hits[1].CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %v, want %v", hits[1].CreatedAt, created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchReturnsEmptyWhenNoMatches(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, title, body, ts_rank").
		WithArgs("zxqv", "hq", 15, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "body", "rank", "created_at"}))

	hits, err := repo.Search(context.Background(), "zxqv", "hq", 15, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("len(hits) = %d, want 0", len(hits))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchAnnouncementsScopesAndLimits(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	posted := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "scope_id", "title", "body", "posted_at"}).
		AddRow("ann-1", "hq", "Fire drill", "Drill at noon on Friday.", posted)

	mock.ExpectQuery("SELECT id, scope_id, title, body, posted_at").
		WithArgs("fire drill", "hq", 5).
		WillReturnRows(rows)

	announcements, err := repo.SearchAnnouncements(context.Background(), "fire drill", "hq", 5)
	if err != nil {
		t.Fatalf("SearchAnnouncements() error = %v", err)
	}
	if len(announcements) != 1 {
		t.Fatalf("len(announcements) = %d, want 1", len(announcements))
	}
	if announcements[0].ScopeID != "hq" || announcements[0].Title != "Fire drill" {
		t.Fatalf("unexpected announcement: %+v", announcements[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertAnnouncementInsertsAllColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	posted := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO announcements").
		WithArgs("ann-1", "hq", "Fire drill", "Drill at noon on Friday.", posted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertAnnouncement(context.Background(), domain.Announcement{
		ID:       "ann-1",
		ScopeID:  "hq",
		Title:    "Fire drill",
		Body:     "Drill at noon on Friday.",
		PostedAt: posted,
	})
	if err != nil {
		t.Fatalf("UpsertAnnouncement() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
