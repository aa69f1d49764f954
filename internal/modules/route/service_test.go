package route

import (
	"context"
	"errors"
	"testing"
	"time"

	"rutero/internal/geo"
	"rutero/internal/modules/planner"
	"rutero/internal/modules/stop"
	"rutero/internal/types"
)

// stubPlanner returns the candidate stops in reverse input order, which is
// enough to exercise ordering-sensitive behaviour without a road network.
type stubPlanner struct {
	err   error
	calls int
}

func (p *stubPlanner) Plan(_ context.Context, req planner.Request) (*planner.SolvedRoute, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	ids := make([]types.ID, 0, len(req.Stops))
	for i := len(req.Stops) - 1; i >= 0; i-- {
		ids = append(ids, req.Stops[i].ID)
	}
	return &planner.SolvedRoute{
		OrderedStopIDs:       ids,
		TotalDistanceMeters:  1000 * len(ids),
		TotalDurationSeconds: 120 * len(ids),
		Geometry:             geo.Geometry{Polyline: "stub", DistanceMeters: 1000 * len(ids), DurationSeconds: 120 * len(ids)},
	}, nil
}

func newFixture(t *testing.T, n int) (*Service, stop.Store, []types.ID) {
	t.Helper()
	stops := stop.NewMemoryStore()
	ids := make([]types.ID, 0, n)
	for i := 0; i < n; i++ {
		id := types.ID(string(rune('a' + i)))
		err := stops.Create(context.Background(), &stop.Stop{
			ID:         id,
			Customer:   "customer " + string(rune('a'+i)),
			Coordinate: &types.Point{Lat: 10.0 + float64(i), Lng: -84.0},
			Demand:     types.Demand{WeightKg: 10, VolumeM3: 0.1},
		})
		if err != nil {
			t.Fatalf("seed stop: %v", err)
		}
		ids = append(ids, id)
	}
	svc := NewService(NewMemoryStore(), stops, &stubPlanner{}, nil)
	return svc, stops, ids
}

func planCmd(ids []types.ID) PlanCommand {
	return PlanCommand{
		DepotID:         "depot-1",
		DepotCoordinate: types.Point{Lat: 9.9, Lng: -84.1},
		VehicleID:       "truck-1",
		Capacity:        types.Capacity{WeightKg: 100, VolumeM3: 2},
		StopIDs:         ids,
		DeliveryDate:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlanCreatesPlannedRouteAndClaimsStops(t *testing.T) {
	svc, stops, ids := newFixture(t, 3)
	ctx := context.Background()

	r, err := svc.Plan(ctx, planCmd(ids))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if r.Status != StatusPlanned {
		t.Fatalf("status = %s, want %s", r.Status, StatusPlanned)
	}
	if len(r.Visits) != 3 {
		t.Fatalf("visits = %d, want 3", len(r.Visits))
	}
	// stub planner reverses input order
	if r.Visits[0].StopID != "c" || r.Visits[0].LoadPosition != 3 {
		t.Fatalf("first visit = %s load %d, want c load 3", r.Visits[0].StopID, r.Visits[0].LoadPosition)
	}
	if r.TotalWeightKg != 30 {
		t.Fatalf("total weight = %v, want 30", r.TotalWeightKg)
	}
	if r.Guidance == nil || r.Guidance.Summary == "" {
		t.Fatal("expected rule-based guidance on the planned route")
	}

	// claimed stops are no longer pending
	pending, err := stops.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after plan = %d, want 0", len(pending))
	}

	// a second request for the same stops is refused
	if _, err := svc.Plan(ctx, planCmd(ids)); !errors.Is(err, stop.ErrUnavailable) {
		t.Fatalf("replan err = %v, want ErrUnavailable", err)
	}
}

func TestPlanReleasesClaimsOnSolverFailure(t *testing.T) {
	svc, stops, ids := newFixture(t, 2)
	svc.planner = &stubPlanner{err: planner.ErrNoFeasibleRoute}
	ctx := context.Background()

	if _, err := svc.Plan(ctx, planCmd(ids)); !errors.Is(err, planner.ErrNoFeasibleRoute) {
		t.Fatalf("plan err = %v, want ErrNoFeasibleRoute", err)
	}
	pending, _ := stops.ListPending(ctx)
	if len(pending) != 2 {
		t.Fatalf("pending after failed plan = %d, want 2", len(pending))
	}
}

func TestPlanSkipsStopsWithoutCoordinate(t *testing.T) {
	svc, stops, ids := newFixture(t, 2)
	ctx := context.Background()
	if err := stops.Create(ctx, &stop.Stop{ID: "x", Customer: "no geocode"}); err != nil {
		t.Fatal(err)
	}

	r, err := svc.Plan(ctx, planCmd(append(ids, "x")))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(r.Visits) != 2 {
		t.Fatalf("visits = %d, want 2 (unroutable stop excluded)", len(r.Visits))
	}
	st, _ := stops.Get(ctx, "x")
	if st.RouteID != nil {
		t.Fatal("unroutable stop must not be claimed")
	}
}

func TestPlanAllStopsUnroutable(t *testing.T) {
	svc, stops, _ := newFixture(t, 0)
	ctx := context.Background()
	if err := stops.Create(ctx, &stop.Stop{ID: "x", Customer: "no geocode"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Plan(ctx, planCmd([]types.ID{"x"})); !errors.Is(err, planner.ErrNoStops) {
		t.Fatalf("err = %v, want ErrNoStops", err)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	svc, _, ids := newFixture(t, 2)
	ctx := context.Background()
	r, err := svc.Plan(ctx, planCmd(ids))
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.Start(ctx, r.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.Status != StatusInProgress || first.StartedAt == nil {
		t.Fatalf("after start: status=%s startedAt=%v", first.Status, first.StartedAt)
	}

	second, err := svc.Start(ctx, r.ID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !second.StartedAt.Equal(*first.StartedAt) {
		t.Fatal("second start must keep the original timestamp")
	}
	if second.StatusVersion != first.StatusVersion {
		t.Fatal("re-entrant start must not bump the version")
	}
}

func TestDeliverLastStopAutoCompletes(t *testing.T) {
	svc, _, ids := newFixture(t, 2)
	ctx := context.Background()
	r, _ := svc.Plan(ctx, planCmd(ids))
	if _, err := svc.Start(ctx, r.ID); err != nil {
		t.Fatal(err)
	}

	mid, err := svc.Deliver(ctx, r.ID, ids[0])
	if err != nil {
		t.Fatalf("deliver first: %v", err)
	}
	if mid.Status != StatusInProgress {
		t.Fatalf("after first deliver status = %s, want in_progress", mid.Status)
	}

	done, err := svc.Deliver(ctx, r.ID, ids[1])
	if err != nil {
		t.Fatalf("deliver last: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("after last deliver status = %s, want completed", done.Status)
	}
	if done.CompletedAt == nil {
		t.Fatal("auto-completion must stamp completed_at")
	}
}

func TestDeliverOnPlannedDoesNotComplete(t *testing.T) {
	svc, _, ids := newFixture(t, 1)
	ctx := context.Background()
	r, _ := svc.Plan(ctx, planCmd(ids))

	after, err := svc.Deliver(ctx, r.ID, ids[0])
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if after.Status != StatusPlanned {
		t.Fatalf("status = %s, want planned (auto-complete requires in_progress)", after.Status)
	}

	// explicit complete is still refused from planned
	if _, err := svc.Complete(ctx, r.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("complete from planned err = %v, want ErrInvalidState", err)
	}
}

func TestCompleteRejectsUndelivered(t *testing.T) {
	svc, _, ids := newFixture(t, 2)
	ctx := context.Background()
	r, _ := svc.Plan(ctx, planCmd(ids))
	if _, err := svc.Start(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Deliver(ctx, r.ID, ids[0]); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Complete(ctx, r.ID); !errors.Is(err, ErrIncompleteDeliveries) {
		t.Fatalf("complete err = %v, want ErrIncompleteDeliveries", err)
	}
	cur, _ := svc.Get(ctx, r.ID)
	if cur.Status != StatusInProgress {
		t.Fatalf("failed complete must not change state, got %s", cur.Status)
	}
}

func TestCancelReleasesUndeliveredStops(t *testing.T) {
	svc, stops, ids := newFixture(t, 3)
	ctx := context.Background()
	r, _ := svc.Plan(ctx, planCmd(ids))
	if _, err := svc.Start(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Deliver(ctx, r.ID, ids[1]); err != nil {
		t.Fatal(err)
	}

	cancelled, err := svc.Cancel(ctx, r.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("after cancel: status=%s cancelledAt=%v", cancelled.Status, cancelled.CancelledAt)
	}

	// undelivered stops are back in the pool, the delivered one is not
	pending, _ := stops.ListPending(ctx)
	if len(pending) != 2 {
		t.Fatalf("pending after cancel = %d, want 2", len(pending))
	}
	delivered, _ := stops.Get(ctx, ids[1])
	if delivered.RouteID == nil || *delivered.RouteID != r.ID {
		t.Fatal("delivered stop must stay attached to the cancelled route")
	}
}

func TestTerminalStatesAreSealed(t *testing.T) {
	svc, _, ids := newFixture(t, 1)
	ctx := context.Background()
	r, _ := svc.Plan(ctx, planCmd(ids))
	if _, err := svc.Cancel(ctx, r.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Start(ctx, r.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("start after cancel err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Complete(ctx, r.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("complete after cancel err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Deliver(ctx, r.ID, ids[0]); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("deliver after cancel err = %v, want ErrInvalidState", err)
	}
	// re-entrant cancel is a no-op
	if _, err := svc.Cancel(ctx, r.ID); err != nil {
		t.Fatalf("re-cancel err = %v, want nil", err)
	}
}

func TestPlanDeduplicatesStopIDs(t *testing.T) {
	svc, _, ids := newFixture(t, 2)
	ctx := context.Background()

	dup := append([]types.ID{}, ids...)
	dup = append(dup, ids[0], ids[1], ids[0])
	r, err := svc.Plan(ctx, planCmd(dup))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(r.Visits) != 2 {
		t.Fatalf("visits = %d, want 2 (duplicates collapse to one visit)", len(r.Visits))
	}
	if r.TotalWeightKg != 20 {
		t.Fatalf("total weight = %v, want 20", r.TotalWeightKg)
	}

	// the route stays completable: every visit is deliverable exactly once
	if _, err := svc.Start(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		if _, err := svc.Deliver(ctx, r.ID, id); err != nil {
			t.Fatalf("deliver %s: %v", id, err)
		}
	}
	done, _ := svc.Get(ctx, r.ID)
	if done.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", done.Status)
	}
}

// flakyReleaseStore fails the first Release calls to exercise retry paths.
type flakyReleaseStore struct {
	stop.Store
	failures int
}

func (f *flakyReleaseStore) Release(ctx context.Context, routeID types.ID, ids []types.ID) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return f.Store.Release(ctx, routeID, ids)
}

func TestCancelSurfacesReleaseFailureAndRetries(t *testing.T) {
	svc, stops, ids := newFixture(t, 2)
	flaky := &flakyReleaseStore{Store: stops, failures: 1}
	svc.stops = flaky
	ctx := context.Background()

	r, err := svc.Plan(ctx, planCmd(ids))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Cancel(ctx, r.ID); err == nil {
		t.Fatal("cancel must surface the release failure")
	}
	// the state change stuck; only the release is pending
	cur, _ := svc.Get(ctx, r.ID)
	if cur.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cur.Status)
	}

	// retrying the cancel re-attempts the release
	if _, err := svc.Cancel(ctx, r.ID); err != nil {
		t.Fatalf("retried cancel: %v", err)
	}
	pending, _ := stops.ListPending(ctx)
	if len(pending) != 2 {
		t.Fatalf("pending after retried cancel = %d, want 2", len(pending))
	}
}

func TestDeliverUnknownStop(t *testing.T) {
	svc, _, ids := newFixture(t, 1)
	ctx := context.Background()
	r, _ := svc.Plan(ctx, planCmd(ids))
	if _, err := svc.Deliver(ctx, r.ID, "ghost"); !errors.Is(err, ErrStopNotOnRoute) {
		t.Fatalf("err = %v, want ErrStopNotOnRoute", err)
	}
}
