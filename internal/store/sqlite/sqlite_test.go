package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/avetrov/channelgate/internal/store"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestHookStats(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	records := []store.HookDelivery{
		{Event: "join", Channel: "presence-room1", Status: 200},
		{Event: "leave", Channel: "presence-room1", Status: 204},
		{Event: "join", Channel: "private-chat", Status: 500},
		{Event: "client_event", Channel: "private-chat", Error: "connection refused"},
	}
	for _, r := range records {
		if err := j.RecordHookDelivery(ctx, r); err != nil {
			t.Fatalf("record delivery: %v", err)
		}
	}

	stats, err := j.HookStats(ctx)
	if err != nil {
		t.Fatalf("hook stats: %v", err)
	}
	if stats.Delivered != 2 || stats.Failed != 2 {
		t.Fatalf("expected 2 delivered / 2 failed, got %+v", stats)
	}
}

func TestRecentAuthFailures(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	for i, reason := range []string{"bad signature", "expired", "unknown channel"} {
		err := j.RecordAuthFailure(ctx, store.AuthFailure{
			Channel:  "private-secret",
			SocketID: "s1",
			Status:   400 + i,
			Reason:   reason,
		})
		if err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	failures, err := j.RecentAuthFailures(ctx, 2)
	if err != nil {
		t.Fatalf("recent failures: %v", err)
	}
	if len(failures) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(failures))
	}
	if failures[0].Reason != "unknown channel" || failures[1].Reason != "expired" {
		t.Fatalf("expected newest first, got %+v", failures)
	}
	if failures[0].CreatedAt.IsZero() {
		t.Fatal("created_at must be populated")
	}
}

func TestEmptyJournalStats(t *testing.T) {
	j := newTestJournal(t)

	stats, err := j.HookStats(context.Background())
	if err != nil {
		t.Fatalf("hook stats: %v", err)
	}
	if stats.Delivered != 0 || stats.Failed != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}

	failures, err := j.RecentAuthFailures(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent failures: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %+v", failures)
	}
}
