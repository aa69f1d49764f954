// README: In-memory stop store for tests and local development.
package stop

import (
	"context"
	"sort"
	"sync"

	"rutero/internal/types"
)

type MemoryStore struct {
	mu    sync.Mutex
	stops map[types.ID]*Stop
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stops: map[types.ID]*Stop{}}
}

func (m *MemoryStore) Create(_ context.Context, s *Stop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.stops[s.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Stop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stops[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) GetMany(_ context.Context, ids []types.ID) ([]*Stop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Stop, 0, len(ids))
	for _, id := range ids {
		s, ok := m.stops[id]
		if !ok {
			return nil, ErrNotFound
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) ListPending(_ context.Context) ([]*Stop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Stop
	for _, s := range m.stops {
		if s.RouteID == nil {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Claim(_ context.Context, routeID types.ID, ids []types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// all-or-nothing: verify before mutating
	for _, id := range ids {
		s, ok := m.stops[id]
		if !ok {
			return ErrNotFound
		}
		if s.RouteID != nil {
			return ErrUnavailable
		}
	}
	for _, id := range ids {
		r := routeID
		m.stops[id].RouteID = &r
	}
	return nil
}

func (m *MemoryStore) Release(_ context.Context, routeID types.ID, ids []types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		s, ok := m.stops[id]
		if !ok {
			continue
		}
		if s.RouteID != nil && *s.RouteID == routeID {
			s.RouteID = nil
		}
	}
	return nil
}
