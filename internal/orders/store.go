package orders

import (
	"context"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

const maxSweepInterval = 5 * time.Minute

type storedWorkspace struct {
	workspace *Workspace
	lastSeen  time.Time
}

// WorkspaceStore keeps one Workspace per browser and forgets the ones idle
// for longer than ttl.
type WorkspaceStore struct {
	mu         sync.Mutex
	workspaces map[string]*storedWorkspace
	ttl        time.Duration
	factory    func(id string) *Workspace
	now        func() time.Time
	logger     aqm.Logger

	stop chan struct{}
	done chan struct{}
}

// NewWorkspaceStore creates a store that builds new workspaces with factory.
func NewWorkspaceStore(ttl time.Duration, factory func(id string) *Workspace, logger aqm.Logger) *WorkspaceStore {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &WorkspaceStore{
		workspaces: make(map[string]*storedWorkspace),
		ttl:        ttl,
		factory:    factory,
		now:        time.Now,
		logger:     logger,
	}
}

// Get returns the live workspace for id and marks it as seen.
func (s *WorkspaceStore) Get(id string) (*Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.workspaces[id]
	if !ok {
		return nil, false
	}

	now := s.now()
	if now.Sub(entry.lastSeen) > s.ttl {
		delete(s.workspaces, id)
		return nil, false
	}

	entry.lastSeen = now
	return entry.workspace, true
}

// Acquire returns the workspace for id, creating one under a fresh id when
// id is unknown or expired. created reports whether a new one was made.
func (s *WorkspaceStore) Acquire(id string) (ws *Workspace, created bool) {
	if id != "" {
		if ws, ok := s.Get(id); ok {
			return ws, false
		}
	}

	newID := uuid.NewString()
	ws = s.factory(newID)

	s.mu.Lock()
	s.workspaces[newID] = &storedWorkspace{workspace: ws, lastSeen: s.now()}
	s.mu.Unlock()

	return ws, true
}

func (s *WorkspaceStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.workspaces, id)
}

func (s *WorkspaceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.workspaces)
}

// Sweep removes expired workspaces and returns how many were removed.
func (s *WorkspaceStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.workspaces {
		if now.Sub(entry.lastSeen) > s.ttl {
			delete(s.workspaces, id)
			removed++
		}
	}
	return removed
}

// Start runs the expiry janitor until Stop.
func (s *WorkspaceStore) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	interval := s.ttl
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Debug("expired workspaces removed", "count", n)
				}
			}
		}
	}()

	return nil
}

// Stop ends the janitor and waits for it to exit.
func (s *WorkspaceStore) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}

	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
