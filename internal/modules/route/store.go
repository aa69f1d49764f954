// README: Route store contract shared by the PostgreSQL and in-memory backends.
package route

import (
	"context"
	"errors"
	"time"

	"rutero/internal/types"
)

var (
	ErrNotFound             = errors.New("route not found")
	ErrInvalidState         = errors.New("invalid state transition")
	ErrConflict             = errors.New("route state conflict")
	ErrIncompleteDeliveries = errors.New("route has undelivered stops")
	ErrStopNotOnRoute       = errors.New("stop not on route")
	ErrBadRequest           = errors.New("bad request")
)

type Store interface {
	Create(ctx context.Context, r *Route) error
	Get(ctx context.Context, id types.ID) (*Route, error)
	List(ctx context.Context) ([]*Route, error)

	// UpdateStatus performs a compare-and-swap on (status, status_version) and
	// stamps the timestamp column matching the target status. Returns false
	// when the route moved under the caller.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)

	// MarkDelivered flags one visit as delivered and reports how many visits
	// remain undelivered, both under the same lock or transaction so that
	// concurrent delivers cannot each see "not the last one". A second call
	// for the same stop is a no-op that keeps the original timestamp.
	MarkDelivered(ctx context.Context, routeID, stopID types.ID, at time.Time) (remaining int, already bool, err error)
}
