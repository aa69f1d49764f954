// README: Planner service; validates, queries the road network, solves, reports.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rutero/internal/geo"
	"rutero/internal/metrics"
	"rutero/internal/types"
)

type Service struct {
	roads      geo.RoadNetwork
	geoTimeout time.Duration
	seed       int64 // 0 means time-seeded; tests pin it
}

func NewService(roads geo.RoadNetwork, geoTimeout time.Duration) *Service {
	return &Service{roads: roads, geoTimeout: geoTimeout}
}

// Plan produces a SolvedRoute for the request or a typed failure. Input
// errors are rejected before any external call; solver failures are not
// retried here.
func (s *Service) Plan(ctx context.Context, req Request) (*SolvedRoute, error) {
	if err := validate(req); err != nil {
		recordOutcome(err)
		return nil, err
	}

	points := make([]types.Point, 0, len(req.Stops)+1)
	points = append(points, req.Depot.Coordinate)
	for _, st := range req.Stops {
		points = append(points, st.Coordinate)
	}

	matrix, err := s.timeMatrix(ctx, points)
	if err != nil {
		recordOutcome(err)
		return nil, err
	}

	windows := make([]types.TimeWindow, len(points))
	windows[0] = types.FullDay() // depot, unconstrained
	for i, st := range req.Stops {
		windows[i+1] = st.Window
	}

	metrics.SolveStops.Observe(float64(len(req.Stops)))
	started := time.Now()
	order, _, err := newSolver(matrix, windows, s.seed).solve(ctx, started.Add(solveBudget))
	metrics.SolveDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		recordOutcome(err)
		return nil, err
	}

	// Re-query geometry for the fixed depot->stops->depot sequence.
	route := make([]types.Point, 0, len(order)+2)
	route = append(route, req.Depot.Coordinate)
	orderedIDs := make([]types.ID, 0, len(order))
	for _, node := range order {
		route = append(route, req.Stops[node-1].Coordinate)
		orderedIDs = append(orderedIDs, req.Stops[node-1].ID)
	}
	route = append(route, req.Depot.Coordinate)

	g, err := s.geometry(ctx, route)
	if err != nil {
		recordOutcome(err)
		return nil, err
	}

	recordOutcome(nil)
	return &SolvedRoute{
		OrderedStopIDs:       orderedIDs,
		TotalDistanceMeters:  g.DistanceMeters,
		TotalDurationSeconds: g.DurationSeconds,
		Geometry:             g,
	}, nil
}

func validate(req Request) error {
	if len(req.Stops) == 0 {
		return ErrNoStops
	}
	cap := req.Vehicle.Capacity
	var totalWeight, totalVolume float64
	for _, st := range req.Stops {
		if st.Demand.WeightKg > cap.WeightKg || st.Demand.VolumeM3 > cap.VolumeM3 {
			return fmt.Errorf("%w: stop %s (%.2f kg, %.3f m3) vs capacity (%.2f kg, %.3f m3)",
				ErrInfeasibleStop, st.ID, st.Demand.WeightKg, st.Demand.VolumeM3, cap.WeightKg, cap.VolumeM3)
		}
		totalWeight += st.Demand.WeightKg
		totalVolume += st.Demand.VolumeM3
	}
	// One vehicle carries everything from the depot, so total demand over
	// capacity is infeasible in every visiting order.
	if totalWeight > cap.WeightKg || totalVolume > cap.VolumeM3 {
		return fmt.Errorf("%w: total demand (%.2f kg, %.3f m3) exceeds capacity (%.2f kg, %.3f m3)",
			ErrNoFeasibleRoute, totalWeight, totalVolume, cap.WeightKg, cap.VolumeM3)
	}
	return nil
}

func (s *Service) timeMatrix(ctx context.Context, points []types.Point) (geo.Matrix, error) {
	ctx, cancel := context.WithTimeout(ctx, s.geoTimeout)
	defer cancel()
	return s.roads.TimeMatrix(ctx, points)
}

func (s *Service) geometry(ctx context.Context, points []types.Point) (geo.Geometry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.geoTimeout)
	defer cancel()
	return s.roads.Geometry(ctx, points)
}

func recordOutcome(err error) {
	outcome := "solved"
	switch {
	case err == nil:
	case errors.Is(err, ErrNoFeasibleRoute):
		outcome = "no_feasible_route"
	case errors.Is(err, ErrInfeasibleStop):
		outcome = "infeasible_stop"
	case errors.Is(err, ErrNoStops):
		outcome = "bad_input"
	case errors.Is(err, geo.ErrServiceUnavailable):
		outcome = "service_unavailable"
	case errors.Is(err, geo.ErrBadResponse):
		outcome = "service_error"
	default:
		outcome = "error"
	}
	metrics.PlanOutcomes.WithLabelValues(outcome).Inc()
}
