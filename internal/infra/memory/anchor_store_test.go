package memory

import (
	"context"
	"testing"
	"time"
)

func TestAnchorStoreReusesStartTime(t *testing.T) {
	ctx := context.Background()
	store := NewAnchorStore()
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	first, err := store.Anchor(ctx, "quiz-1", "a@x.io", t0)
	if err != nil {
		t.Fatalf("anchor: %v", err)
	}
	second, err := store.Anchor(ctx, "quiz-1", "a@x.io", t0.Add(30*time.Second))
	if err != nil {
		t.Fatalf("anchor again: %v", err)
	}
	if !first.Equal(t0) || !second.Equal(t0) {
		t.Fatalf("expected both anchors at %v, got %v and %v", t0, first, second)
	}

	if err := store.Clear(ctx, "quiz-1", "a@x.io"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	third, _ := store.Anchor(ctx, "quiz-1", "a@x.io", t0.Add(time.Minute))
	if !third.Equal(t0.Add(time.Minute)) {
		t.Fatalf("expected fresh anchor after clear, got %v", third)
	}
}

func TestAnchorStoreKeepsStartTimeUntilCleared(t *testing.T) {
	ctx := context.Background()
	store := NewAnchorStore()
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	_, _ = store.Anchor(ctx, "quiz-1", "a@x.io", t0)
	got, err := store.Anchor(ctx, "quiz-1", "a@x.io", t0.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("anchor: %v", err)
	}
	if !got.Equal(t0) {
		t.Fatalf("expected original start %v days later, got %v", t0, got)
	}
}
