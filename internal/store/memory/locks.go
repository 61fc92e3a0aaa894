package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/efreitasn/stockmatch/internal/domain"
	"golang.org/x/sync/semaphore"
)

// lockSet hands out one exclusive, context-aware lock per key.
type lockSet struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[string]*semaphore.Weighted)}
}

func (s *lockSet) get(key string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = semaphore.NewWeighted(1)
		s.locks[key] = l
	}
	return l
}

// acquire blocks until key is held or ctx is done.
func (s *lockSet) acquire(ctx context.Context, key string) error {
	if err := s.get(key).Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrLockTimeout, key, err)
	}
	return nil
}

func (s *lockSet) release(key string) {
	s.get(key).Release(1)
}
