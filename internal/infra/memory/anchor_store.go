package memory

import (
	"context"
	"sync"
	"time"
)

// AnchorStore is an in-memory implementation of app.AnchorStore. Anchors live
// until cleared.
type AnchorStore struct {
	mu      sync.Mutex
	anchors map[string]time.Time
}

func NewAnchorStore() *AnchorStore {
	return &AnchorStore{
		anchors: make(map[string]time.Time),
	}
}

func (s *AnchorStore) Anchor(_ context.Context, code, email string, now time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := anchorKey(code, email)
	if startedAt, ok := s.anchors[key]; ok {
		return startedAt, nil
	}
	s.anchors[key] = now
	return now, nil
}

func (s *AnchorStore) Clear(_ context.Context, code, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.anchors, anchorKey(code, email))
	return nil
}

func anchorKey(code, email string) string {
	return code + "\x00" + email
}
