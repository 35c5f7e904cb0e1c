package genstore

import (
	"context"
	"sync"
	"time"
)

type genEntry struct {
	gen     uint64
	touched time.Time
}

// LocalGenStore keeps generations in process memory.
//
// Entries not bumped within the retention window are swept. A swept key reads
// as generation 0 again, which only turns matching images into misses, so the
// retention should exceed the longest image TTL.
type LocalGenStore struct {
	mu      sync.RWMutex
	entries map[string]*genEntry
	now     func() time.Time

	stop      context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

var _ GenStore = (*LocalGenStore)(nil)

// NewLocalGenStore starts a sweeper when both durations are positive.
func NewLocalGenStore(sweepEvery, retention time.Duration) *LocalGenStore {
	s := &LocalGenStore{entries: make(map[string]*genEntry), now: time.Now}
	if sweepEvery <= 0 || retention <= 0 {
		return s
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.done = make(chan struct{})
	go s.sweep(ctx, sweepEvery, retention)
	return s
}

func (s *LocalGenStore) sweep(ctx context.Context, every, retention time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Cleanup(retention)
		}
	}
}

func (s *LocalGenStore) gen(k string) uint64 {
	if e, ok := s.entries[k]; ok {
		return e.gen
	}
	return 0
}

func (s *LocalGenStore) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen(k), nil
}

func (s *LocalGenStore) SnapshotMany(_ context.Context, ks []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(ks))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range ks {
		out[k] = s.gen(k)
	}
	return out, nil
}

func (s *LocalGenStore) Bump(_ context.Context, k string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k]
	if !ok {
		e = &genEntry{}
		s.entries[k] = e
	}
	e.gen++
	e.touched = s.now()
	return e.gen, nil
}

// Len reports how many keys carry a generation.
func (s *LocalGenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Cleanup drops entries last bumped before now-retention.
func (s *LocalGenStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := s.now().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// Close stops the sweeper and waits for it. Safe to call more than once.
func (s *LocalGenStore) Close(context.Context) error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.stop()
			<-s.done
		}
	})
	return nil
}
