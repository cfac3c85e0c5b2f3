package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/musterd/internal/persistence"
)

type statusRepositoryStub struct {
	records   map[string]persistence.StatusRecord
	upsertErr error
	listErr   error
}

func newStatusRepositoryStub() *statusRepositoryStub {
	return &statusRepositoryStub{records: make(map[string]persistence.StatusRecord)}
}

func key(memberID, date string) string {
	return memberID + "|" + date
}

func (s *statusRepositoryStub) UpsertStatus(ctx context.Context, record persistence.StatusRecord) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.records[key(record.MemberID, record.Date)] = record
	return nil
}

func (s *statusRepositoryStub) GetStatus(ctx context.Context, memberID, date string) (persistence.StatusRecord, error) {
	record, ok := s.records[key(memberID, date)]
	if !ok {
		return persistence.StatusRecord{}, persistence.ErrNotFound
	}
	return record, nil
}

func (s *statusRepositoryStub) ListStatusesForDate(ctx context.Context, date string) ([]persistence.StatusRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []persistence.StatusRecord
	for _, record := range s.records {
		if record.Date == date {
			out = append(out, record)
		}
	}
	return out, nil
}

var testNow = func() time.Time {
	return time.Date(2024, time.January, 2, 8, 30, 0, 0, time.UTC)
}

func TestLedger_SetStatus(t *testing.T) {
	t.Parallel()

	t.Run("records a complete status immediately", func(t *testing.T) {
		t.Parallel()

		repo := newStatusRepositoryStub()
		ldg := NewLedger(repo, testNow, nil)

		record, err := ldg.SetStatus(context.Background(), "member-1", "2024-01-02", "✅", "", "")
		if err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		if record.State != persistence.StateRecorded {
			t.Fatalf("expected StateRecorded, got %s", record.State)
		}
		if record.Label != "In at Normal Time" {
			t.Fatalf("unexpected label %q", record.Label)
		}
		if record.RecordedBy != "member-1" {
			t.Fatalf("expected actor to default to the member, got %s", record.RecordedBy)
		}
	})

	t.Run("follow-up status without detail awaits detail", func(t *testing.T) {
		t.Parallel()

		repo := newStatusRepositoryStub()
		ldg := NewLedger(repo, testNow, nil)

		record, err := ldg.SetStatus(context.Background(), "member-1", "2024-01-02", "⏱️", "", "")
		if err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		if record.State != persistence.StateAwaitingDetail {
			t.Fatalf("expected StateAwaitingDetail, got %s", record.State)
		}
	})

	t.Run("follow-up status with detail is complete", func(t *testing.T) {
		t.Parallel()

		repo := newStatusRepositoryStub()
		ldg := NewLedger(repo, testNow, nil)

		record, err := ldg.SetStatus(context.Background(), "member-1", "2024-01-02", "⏱️", "  in by 10  ", "")
		if err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		if record.State != persistence.StateRecorded {
			t.Fatalf("expected StateRecorded, got %s", record.State)
		}
		if record.Detail != "in by 10" {
			t.Fatalf("expected trimmed detail, got %q", record.Detail)
		}
	})

	t.Run("second status for the day replaces the first", func(t *testing.T) {
		t.Parallel()

		repo := newStatusRepositoryStub()
		ldg := NewLedger(repo, testNow, nil)

		if _, err := ldg.SetStatus(context.Background(), "member-1", "2024-01-02", "✅", "", ""); err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		if _, err := ldg.SetStatus(context.Background(), "member-1", "2024-01-02", "🏠", "", ""); err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}

		record, err := ldg.GetStatus(context.Background(), "member-1", "2024-01-02")
		if err != nil {
			t.Fatalf("GetStatus failed: %v", err)
		}
		if record.Label != "Working from Home" {
			t.Fatalf("expected the replacement to win, got %q", record.Label)
		}
		if len(repo.records) != 1 {
			t.Fatalf("expected one record, got %d", len(repo.records))
		}
	})

	t.Run("preserves the recording actor for proxy entries", func(t *testing.T) {
		t.Parallel()

		repo := newStatusRepositoryStub()
		ldg := NewLedger(repo, testNow, nil)

		record, err := ldg.SetStatus(context.Background(), "member-1", "2024-01-02", "🤒", "", "admin-1")
		if err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		if record.RecordedBy != "admin-1" {
			t.Fatalf("expected admin-1, got %s", record.RecordedBy)
		}
	})

	t.Run("rejects emojis outside the vocabulary", func(t *testing.T) {
		t.Parallel()

		ldg := NewLedger(newStatusRepositoryStub(), testNow, nil)
		_, err := ldg.SetStatus(context.Background(), "member-1", "2024-01-02", "🎉", "", "")
		if !errors.Is(err, ErrUnknownStatus) {
			t.Fatalf("expected ErrUnknownStatus, got %v", err)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		t.Parallel()

		ldg := NewLedger(newStatusRepositoryStub(), testNow, nil)
		if _, err := ldg.SetStatus(context.Background(), "member-1", "Jan 2", "✅", "", ""); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestLedger_ListUnrecorded(t *testing.T) {
	t.Parallel()

	repo := newStatusRepositoryStub()
	ldg := NewLedger(repo, testNow, nil)

	if _, err := ldg.SetStatus(context.Background(), "member-2", "2024-01-02", "✅", "", ""); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	unrecorded, err := ldg.ListUnrecorded(context.Background(), []string{"member-1", "member-2", "member-3"}, "2024-01-02")
	if err != nil {
		t.Fatalf("ListUnrecorded failed: %v", err)
	}
	if len(unrecorded) != 2 || unrecorded[0] != "member-1" || unrecorded[1] != "member-3" {
		t.Fatalf("expected [member-1 member-3], got %v", unrecorded)
	}
}

func TestVocabulary(t *testing.T) {
	t.Parallel()

	t.Run("covers the full emoji set", func(t *testing.T) {
		t.Parallel()

		expected := []string{"✅", "⏱️", "🏠", "🗓️", "🤒", "🌴", "❓"}
		vocab := Vocabulary()
		if len(vocab) != len(expected) {
			t.Fatalf("expected %d statuses, got %d", len(expected), len(vocab))
		}
		for i, emoji := range expected {
			if vocab[i].Emoji != emoji {
				t.Fatalf("expected %s at position %d, got %s", emoji, i, vocab[i].Emoji)
			}
		}
	})

	t.Run("marks prompting statuses as requiring follow-up", func(t *testing.T) {
		t.Parallel()

		followUps := map[string]bool{"⏱️": true, "🗓️": true, "❓": true}
		for _, status := range Vocabulary() {
			if status.RequiresFollowUp() != followUps[status.Emoji] {
				t.Fatalf("unexpected follow-up flag for %s", status.Emoji)
			}
		}
	})

	t.Run("lookup misses for unknown emojis", func(t *testing.T) {
		t.Parallel()

		if _, ok := LookupStatus("🎉"); ok {
			t.Fatal("expected a miss")
		}
	})
}
