package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "plans.db"), limit)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t, 100)
	ctx := context.Background()

	id1, err := s.Record(ctx, "a.gguf", 4096, "single", 1<<30, OutcomePlanned)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	id2, err := s.Record(ctx, "b.gguf", 2048, "", 0, OutcomeInsufficient)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Fatalf("ids must be unique and non-empty: %q %q", id1, id2)
	}

	plans, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected 2 records, got %d", len(plans))
	}
	// Newest first.
	if plans[0].Model != "b.gguf" || plans[0].Outcome != OutcomeInsufficient {
		t.Fatalf("unexpected order: %+v", plans)
	}
	if plans[1].Context != 4096 || plans[1].EstimatedBytes != 1<<30 {
		t.Fatalf("unexpected record: %+v", plans[1])
	}
}

func TestPruneKeepsLimit(t *testing.T) {
	s := openTestStore(t, 5)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		if _, err := s.Record(ctx, "m.gguf", 2048, "single", 1, OutcomePlanned); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	plans, err := s.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(plans) > 5 {
		t.Fatalf("expected at most 5 retained, got %d", len(plans))
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "plans.db")
	s, err := Open(path, 10)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.Close()
}
