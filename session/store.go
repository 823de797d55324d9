package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

const (
	// DefaultTTL is how long an idle session survives before the sweep
	// removes it.
	DefaultTTL = 24 * time.Hour
	// DefaultSweepInterval is how often the in-memory janitor runs.
	DefaultSweepInterval = 10 * time.Minute
)

// Store is the only owner of session state. The scorer and coordinator never
// touch the underlying storage directly.
type Store interface {
	GetOrCreate(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, st *State) error
	RecordAction(ctx context.Context, sessionID string, rec models.ActionRecord) error
	Sweep(ctx context.Context) (int, error)
	Close() error
}

// MemoryStore keeps sessions in a mutex-guarded map and sweeps idle entries
// with a background janitor.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*State
	ttl      time.Duration

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore starts the janitor when sweepEvery > 0; pass 0 in tests
// that call Sweep directly.
func NewMemoryStore(ttl, sweepEvery time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		sessions: make(map[string]*State),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if sweepEvery > 0 {
		s.done = make(chan struct{})
		go s.janitor(sweepEvery)
	}
	return s
}

func (s *MemoryStore) janitor(every time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n, _ := s.Sweep(context.Background()); n > 0 {
				zap.L().Debug("swept idle sessions", zap.Int("count", n))
			}
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[sessionID]; ok {
		return st, nil
	}
	st := NewState(sessionID)
	s.sessions[sessionID] = st
	return st, nil
}

func (s *MemoryStore) Save(_ context.Context, st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[st.ID] = st
	return nil
}

func (s *MemoryStore) RecordAction(ctx context.Context, sessionID string, rec models.ActionRecord) error {
	st, err := s.GetOrCreate(ctx, sessionID)
	if err != nil {
		return err
	}
	st.PushAction(rec)
	st.Touch()
	return s.Save(ctx, st)
}

// Sweep removes sessions idle longer than the TTL and reports how many.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, st := range s.sessions {
		if st.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		if s.done != nil {
			<-s.done
		}
	})
	return nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
