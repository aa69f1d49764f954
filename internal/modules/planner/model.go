// README: Planner request/response types and typed failures.
package planner

import (
	"errors"
	"time"

	"rutero/internal/geo"
	"rutero/internal/types"
)

var (
	// ErrNoStops: the candidate set is empty after excluding stops without a
	// coordinate. Rejected before any external call.
	ErrNoStops = errors.New("no routable stops in request")
	// ErrInfeasibleStop: a single stop's demand alone exceeds the vehicle
	// capacity. Rejected before solving.
	ErrInfeasibleStop = errors.New("stop exceeds vehicle capacity on its own")
	// ErrNoFeasibleRoute: no visiting order satisfies capacity and time-window
	// constraints within the search budget. Not retried automatically; the
	// caller must relax the request.
	ErrNoFeasibleRoute = errors.New("no feasible route found")
)

type Depot struct {
	ID         types.ID
	Coordinate types.Point
}

type Vehicle struct {
	ID       types.ID
	Capacity types.Capacity
}

// StopInput is one coordinate-bearing candidate stop. Callers exclude stops
// without a coordinate before building a Request.
type StopInput struct {
	ID         types.ID
	Coordinate types.Point
	Demand     types.Demand
	Window     types.TimeWindow
}

// Request is the transient input of one optimization call.
type Request struct {
	Depot        Depot
	Vehicle      Vehicle
	Stops        []StopInput
	DeliveryDate time.Time
}

// SolvedRoute is the immutable result of a successful optimization: the
// visiting order plus travel geometry for that fixed order.
type SolvedRoute struct {
	OrderedStopIDs       []types.ID
	TotalDistanceMeters  int
	TotalDurationSeconds int
	Geometry             geo.Geometry
}
