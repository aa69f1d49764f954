// README: In-memory route store for tests and single-node runs.
package route

import (
	"context"
	"sync"
	"time"

	"rutero/internal/types"
)

type MemoryStore struct {
	mu     sync.Mutex
	routes map[types.ID]*Route
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{routes: make(map[types.ID]*Route)}
}

func (s *MemoryStore) Create(_ context.Context, r *Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneRoute(r)
	s.routes[r.ID] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRoute(r), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Route, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, cloneRoute(r))
	}
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[id]
	if !ok {
		return false, ErrNotFound
	}
	if r.Status != from || r.StatusVersion != version {
		return false, nil
	}
	now := time.Now()
	r.Status = to
	r.StatusVersion++
	switch to {
	case StatusInProgress:
		if r.StartedAt == nil {
			r.StartedAt = &now
		}
	case StatusCompleted:
		if r.CompletedAt == nil {
			r.CompletedAt = &now
		}
	case StatusCancelled:
		if r.CancelledAt == nil {
			r.CancelledAt = &now
		}
	}
	return true, nil
}

func (s *MemoryStore) MarkDelivered(_ context.Context, routeID, stopID types.ID, at time.Time) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[routeID]
	if !ok {
		return 0, false, ErrNotFound
	}
	idx := -1
	for i := range r.Visits {
		if r.Visits[i].StopID == stopID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, false, ErrStopNotOnRoute
	}
	already := r.Visits[idx].Delivered
	if !already {
		t := at
		r.Visits[idx].Delivered = true
		r.Visits[idx].DeliveredAt = &t
	}
	remaining := 0
	for i := range r.Visits {
		if !r.Visits[i].Delivered {
			remaining++
		}
	}
	return remaining, already, nil
}

func cloneRoute(r *Route) *Route {
	cp := *r
	cp.Visits = make([]Visit, len(r.Visits))
	copy(cp.Visits, r.Visits)
	for i := range cp.Visits {
		if r.Visits[i].DeliveredAt != nil {
			t := *r.Visits[i].DeliveredAt
			cp.Visits[i].DeliveredAt = &t
		}
	}
	return &cp
}
