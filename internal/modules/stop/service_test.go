package stop

import (
	"context"
	"errors"
	"testing"

	"rutero/internal/types"
)

type stubGeocoder struct {
	point *types.Point
	err   error
	calls int
}

func (g *stubGeocoder) Geocode(_ context.Context, _ string) (*types.Point, error) {
	g.calls++
	return g.point, g.err
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  CreateCommand
	}{
		{"missing customer", CreateCommand{}},
		{"negative weight", CreateCommand{Customer: "a", Demand: types.Demand{WeightKg: -1}}},
		{"inverted window", CreateCommand{Customer: "a", Window: &types.TimeWindow{Earliest: 50000, Latest: 40000}}},
		{"window past midnight", CreateCommand{Customer: "a", Window: &types.TimeWindow{Earliest: 0, Latest: types.EndOfDay + 1}}},
		{"cargo line without product", CreateCommand{Customer: "a", Cargo: []CargoLine{{Quantity: 1}}}},
		{"cargo line zero quantity", CreateCommand{Customer: "a", Cargo: []CargoLine{{Product: "x"}}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, c.cmd); !errors.Is(err, ErrBadRequest) {
				t.Fatalf("err = %v, want ErrBadRequest", err)
			}
		})
	}
}

func TestCreateDefaultsPriority(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	id, err := svc.Create(context.Background(), CreateCommand{Customer: "a"})
	if err != nil {
		t.Fatal(err)
	}
	st, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if st.Priority != PriorityMedium {
		t.Fatalf("priority = %s, want %s", st.Priority, PriorityMedium)
	}
}

func TestCreateGeocodesAddress(t *testing.T) {
	g := &stubGeocoder{point: &types.Point{Lat: 9.93, Lng: -84.08}}
	svc := NewService(NewMemoryStore(), g)
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateCommand{Customer: "a", Address: "100m north of the church"})
	if err != nil {
		t.Fatal(err)
	}
	st, _ := svc.Get(ctx, id)
	if st.Coordinate == nil || st.Coordinate.Lat != 9.93 {
		t.Fatalf("coordinate = %v, want geocoded point", st.Coordinate)
	}
	if !st.Routable() {
		t.Fatal("geocoded stop must be routable")
	}
}

func TestCreateGeocodeFailureLeavesStopUnroutable(t *testing.T) {
	g := &stubGeocoder{err: errors.New("quota exhausted")}
	svc := NewService(NewMemoryStore(), g)
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateCommand{Customer: "a", Address: "somewhere"})
	if err != nil {
		t.Fatalf("geocode failure must not fail intake: %v", err)
	}
	st, _ := svc.Get(ctx, id)
	if st.Coordinate != nil || st.Routable() {
		t.Fatal("stop without coordinate must stay unroutable")
	}
}

func TestCreateExplicitCoordinateSkipsGeocoder(t *testing.T) {
	g := &stubGeocoder{point: &types.Point{Lat: 0, Lng: 0}}
	svc := NewService(NewMemoryStore(), g)
	_, err := svc.Create(context.Background(), CreateCommand{
		Customer:   "a",
		Address:    "somewhere",
		Coordinate: &types.Point{Lat: 9.93, Lng: -84.08},
	})
	if err != nil {
		t.Fatal(err)
	}
	if g.calls != 0 {
		t.Fatalf("geocoder called %d times, want 0", g.calls)
	}
}

func TestClaimIsAllOrNothing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []types.ID{"a", "b"} {
		if err := store.Create(ctx, &Stop{ID: id, Customer: "c", Coordinate: &types.Point{Lat: 1, Lng: 1}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Claim(ctx, "r1", []types.ID{"a"}); err != nil {
		t.Fatal(err)
	}

	// b is free but a is taken: nothing may be claimed
	if err := store.Claim(ctx, "r2", []types.ID{"a", "b"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	b, _ := store.Get(ctx, "b")
	if b.RouteID != nil {
		t.Fatal("failed claim must not leave partial assignments")
	}

	// release makes a claimable again
	if err := store.Release(ctx, "r1", []types.ID{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Claim(ctx, "r2", []types.ID{"a", "b"}); err != nil {
		t.Fatalf("claim after release: %v", err)
	}
}
