// README: Road-network contract consumed by the route planner.
package geo

import (
	"context"
	"errors"

	"rutero/internal/types"
)

var (
	// ErrServiceUnavailable covers transport failures and timeouts talking to
	// the road-network service. Callers may retry these with backoff.
	ErrServiceUnavailable = errors.New("routing service unavailable")
	// ErrBadResponse covers malformed or partial responses. Retrying without a
	// changed request will not help.
	ErrBadResponse = errors.New("routing service returned a bad response")
)

// Matrix holds pairwise travel times in seconds. Matrix[i][j] is the travel
// time from point i to point j. It is not assumed to be symmetric.
type Matrix [][]int

// Maneuver is one turn-by-turn instruction along a fixed route.
type Maneuver struct {
	Instruction     string `json:"instruction"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Geometry describes the travel path for one fixed visiting order.
type Geometry struct {
	DistanceMeters  int        `json:"distance_meters"`
	DurationSeconds int        `json:"duration_seconds"`
	Polyline        string     `json:"polyline"`
	Maneuvers       []Maneuver `json:"maneuvers"`
}

// RoadNetwork is the adapter boundary around the external routing service.
// Implementations perform no retries; retry policy belongs to the caller.
type RoadNetwork interface {
	// TimeMatrix returns the full pairwise travel-time matrix over the given
	// points, in the order given.
	TimeMatrix(ctx context.Context, points []types.Point) (Matrix, error)

	// Geometry returns distance, duration, polyline and maneuvers for the
	// given points visited in the given order.
	Geometry(ctx context.Context, points []types.Point) (Geometry, error)
}
