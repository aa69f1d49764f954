// README: Stop store contract; postgres and in-memory implementations.
package stop

import (
	"context"
	"errors"

	"rutero/internal/types"
)

var (
	ErrNotFound = errors.New("stop not found")
	// ErrUnavailable means at least one requested stop is already claimed by
	// an active route. Claims are all-or-nothing.
	ErrUnavailable = errors.New("stop already assigned to an active route")
)

type Store interface {
	Create(ctx context.Context, s *Stop) error
	Get(ctx context.Context, id types.ID) (*Stop, error)
	GetMany(ctx context.Context, ids []types.ID) ([]*Stop, error)
	// ListPending returns stops not currently assigned to any active route.
	ListPending(ctx context.Context) ([]*Stop, error)

	// Claim atomically assigns every listed stop to routeID. If any stop is
	// missing or already assigned, nothing is claimed and ErrUnavailable (or
	// ErrNotFound) is returned.
	Claim(ctx context.Context, routeID types.ID, ids []types.ID) error
	// Release severs the stop->route association for the listed stops, making
	// them eligible for future route requests.
	Release(ctx context.Context, routeID types.ID, ids []types.ID) error
}
