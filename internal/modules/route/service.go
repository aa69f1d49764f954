// README: Route service: planning orchestration and lifecycle transitions.
package route

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"rutero/internal/ai"
	"rutero/internal/modules/loadplan"
	"rutero/internal/modules/planner"
	"rutero/internal/modules/stop"
	"rutero/internal/types"
)

// Planner solves one route request. Satisfied by *planner.Service.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (*planner.SolvedRoute, error)
}

type Service struct {
	store   Store
	stops   stop.Store
	planner Planner
	advisor ai.Advisor // optional, nil disables model-backed guidance
}

func NewService(store Store, stops stop.Store, pl Planner, advisor ai.Advisor) *Service {
	return &Service{store: store, stops: stops, planner: pl, advisor: advisor}
}

type PlanCommand struct {
	DepotID         types.ID
	DepotCoordinate types.Point
	VehicleID       types.ID
	Capacity        types.Capacity
	StopIDs         []types.ID
	DeliveryDate    time.Time
}

// Plan runs the whole pipeline: fetch and claim the requested stops, solve
// the visiting order, derive the load plan and guidance, persist the route.
// Claimed stops are released if any later step fails, so a failed request
// leaves no trace.
func (s *Service) Plan(ctx context.Context, cmd PlanCommand) (*Route, error) {
	if len(cmd.StopIDs) == 0 {
		return nil, planner.ErrNoStops
	}
	if cmd.Capacity.WeightKg <= 0 || cmd.Capacity.VolumeM3 <= 0 {
		return nil, ErrBadRequest
	}
	if cmd.DeliveryDate.IsZero() {
		return nil, ErrBadRequest
	}

	// A stop listed twice is one stop: keep the first occurrence. Without
	// this a duplicate would enter the solver as two nodes and the route
	// would carry two visits for one delivery.
	seen := make(map[types.ID]bool, len(cmd.StopIDs))
	ids := make([]types.ID, 0, len(cmd.StopIDs))
	for _, id := range cmd.StopIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	stops, err := s.stops.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Stops without a coordinate cannot be routed; they stay in the pending
	// pool instead of failing the whole request. Stops already on a route
	// fail it: exclusivity is checked here and again at claim time.
	var routable []*stop.Stop
	for _, st := range stops {
		if st.RouteID != nil {
			return nil, stop.ErrUnavailable
		}
		if st.Coordinate != nil {
			routable = append(routable, st)
		}
	}
	if len(routable) == 0 {
		return nil, planner.ErrNoStops
	}

	routeID := types.ID(uuid.NewString())
	claimIDs := make([]types.ID, 0, len(routable))
	for _, st := range routable {
		claimIDs = append(claimIDs, st.ID)
	}
	if err := s.stops.Claim(ctx, routeID, claimIDs); err != nil {
		return nil, err
	}
	release := func() {
		if err := s.stops.Release(context.WithoutCancel(ctx), routeID, claimIDs); err != nil {
			log.Printf("route %s: release claimed stops: %v", routeID, err)
		}
	}

	req := planner.Request{
		Depot:        planner.Depot{ID: cmd.DepotID, Coordinate: cmd.DepotCoordinate},
		Vehicle:      planner.Vehicle{ID: cmd.VehicleID, Capacity: cmd.Capacity},
		DeliveryDate: cmd.DeliveryDate,
	}
	for _, st := range routable {
		req.Stops = append(req.Stops, planner.StopInput{
			ID:         st.ID,
			Coordinate: *st.Coordinate,
			Demand:     st.Demand,
			Window:     st.EffectiveWindow(),
		})
	}

	solved, err := s.planner.Plan(ctx, req)
	if err != nil {
		release()
		return nil, err
	}

	items, err := loadplan.Build(solved.OrderedStopIDs, routable)
	if err != nil {
		release()
		return nil, err
	}

	r := s.assemble(routeID, cmd, routable, solved, items)
	r.Guidance = s.guidance(ctx, routeID, items, solved)

	if err := s.store.Create(ctx, r); err != nil {
		release()
		return nil, err
	}
	return r, nil
}

func (s *Service) assemble(id types.ID, cmd PlanCommand, stops []*stop.Stop, solved *planner.SolvedRoute, items []loadplan.Item) *Route {
	byID := make(map[types.ID]*stop.Stop, len(stops))
	for _, st := range stops {
		byID[st.ID] = st
	}

	r := &Route{
		ID:                   id,
		DepotID:              cmd.DepotID,
		VehicleID:            cmd.VehicleID,
		DeliveryDate:         cmd.DeliveryDate,
		Status:               StatusPlanned,
		StatusVersion:        0,
		TotalDistanceMeters:  solved.TotalDistanceMeters,
		TotalDurationSeconds: solved.TotalDurationSeconds,
		Geometry:             solved.Geometry,
		CreatedAt:            time.Now(),
	}
	for _, it := range items {
		st := byID[it.StopID]
		r.Visits = append(r.Visits, Visit{
			StopID:           it.StopID,
			Customer:         it.Customer,
			Coordinate:       *st.Coordinate,
			DeliveryPosition: it.DeliveryPosition,
			LoadPosition:     it.LoadPosition,
			WeightKg:         it.WeightKg,
			VolumeM3:         it.VolumeM3,
			Manifest:         it.Manifest,
		})
		r.TotalWeightKg += it.WeightKg
		r.TotalVolumeM3 += it.VolumeM3
	}
	return r
}

// guidance asks the advisor for a loading analysis and falls back to the
// rule-based plan when the advisor is absent or fails. Never blocks the
// route: guidance is advisory.
func (s *Service) guidance(ctx context.Context, routeID types.ID, items []loadplan.Item, solved *planner.SolvedRoute) *ai.LoadGuidance {
	loadItems, info := loadplan.AdvisorInput(items, solved.TotalDistanceMeters, solved.TotalDurationSeconds)
	if s.advisor != nil {
		g, err := s.advisor.AnalyzeLoad(ctx, loadItems, info)
		if err == nil {
			return g
		}
		log.Printf("route %s: load advisor failed, using rule-based guidance: %v", routeID, err)
	}
	return ai.RuleBasedGuidance(loadItems, info)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Route, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Route, error) {
	return s.store.List(ctx)
}

// Start moves a planned route to in_progress. Re-entrant: starting an
// in-progress route is a no-op and keeps the original start timestamp.
func (s *Service) Start(ctx context.Context, id types.ID) (*Route, error) {
	return s.transition(ctx, id, StatusInProgress)
}

// Complete closes an in-progress route. Every visit must already be
// delivered; otherwise ErrIncompleteDeliveries and no state change.
func (s *Service) Complete(ctx context.Context, id types.ID) (*Route, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusCompleted {
		return r, nil
	}
	if !CanTransition(r.Status, StatusCompleted) {
		return nil, ErrInvalidState
	}
	if len(r.UndeliveredStopIDs()) > 0 {
		return nil, ErrIncompleteDeliveries
	}
	return s.applyTransition(ctx, r, StatusCompleted)
}

// Cancel is allowed from planned and in_progress. Undelivered stops return
// to the pending pool; delivered stops stay attached to the route history.
// A Release failure is returned so the caller retries: retrying Cancel on an
// already-cancelled route re-attempts only the release.
func (s *Service) Cancel(ctx context.Context, id types.ID) (*Route, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusCancelled {
		if err := s.releaseUndelivered(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}
	updated, err := s.applyTransition(ctx, r, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if err := s.releaseUndelivered(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) releaseUndelivered(ctx context.Context, r *Route) error {
	undelivered := r.UndeliveredStopIDs()
	if len(undelivered) == 0 {
		return nil
	}
	if err := s.stops.Release(ctx, r.ID, undelivered); err != nil {
		log.Printf("route %s: release stops after cancel: %v", r.ID, err)
		return err
	}
	return nil
}

// Deliver marks one visit as delivered. Delivering the last undelivered
// visit of an in-progress route completes the route in the same call; the
// store computes the remaining count atomically so two concurrent last
// delivers cannot both miss the completion.
func (s *Service) Deliver(ctx context.Context, routeID, stopID types.ID) (*Route, error) {
	r, err := s.store.Get(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if r.Status.Terminal() {
		return nil, ErrInvalidState
	}

	remaining, _, err := s.store.MarkDelivered(ctx, routeID, stopID, time.Now())
	if err != nil {
		return nil, err
	}

	if remaining == 0 && r.Status == StatusInProgress {
		ok, err := s.store.UpdateStatus(ctx, routeID, StatusInProgress, StatusCompleted, r.StatusVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Someone else moved the route (a concurrent deliver or cancel).
			// The delivery itself stuck; report whatever state won.
			log.Printf("route %s: auto-complete lost the status race", routeID)
		}
	}
	return s.store.Get(ctx, routeID)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status) (*Route, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == to {
		return r, nil
	}
	if !CanTransition(r.Status, to) {
		return nil, ErrInvalidState
	}
	return s.applyTransition(ctx, r, to)
}

func (s *Service) applyTransition(ctx context.Context, r *Route, to Status) (*Route, error) {
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, to, r.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return s.store.Get(ctx, r.ID)
}
