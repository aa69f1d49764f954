// README: Stop service; pending-pool intake and queries.
package stop

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"rutero/internal/geo"
	"rutero/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Service struct {
	store    Store
	geocoder geo.Geocoder // optional, nil skips address resolution
}

func NewService(store Store, geocoder geo.Geocoder) *Service {
	return &Service{store: store, geocoder: geocoder}
}

type CreateCommand struct {
	Customer   string
	Address    string
	Coordinate *types.Point
	Demand     types.Demand
	Window     *types.TimeWindow
	Priority   Priority
	Cargo      []CargoLine
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.Customer == "" {
		return "", ErrBadRequest
	}
	if cmd.Demand.WeightKg < 0 || cmd.Demand.VolumeM3 < 0 {
		return "", ErrBadRequest
	}
	if cmd.Window != nil {
		if cmd.Window.Earliest < 0 || cmd.Window.Latest > types.EndOfDay || cmd.Window.Earliest > cmd.Window.Latest {
			return "", ErrBadRequest
		}
	}
	for _, line := range cmd.Cargo {
		if line.Product == "" || line.Quantity <= 0 || line.UnitWeightKg < 0 {
			return "", ErrBadRequest
		}
	}
	priority := cmd.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	coordinate := cmd.Coordinate
	if coordinate == nil && cmd.Address != "" && s.geocoder != nil {
		// Best effort: an unresolvable address leaves the stop in the pool,
		// ineligible for planning until geocoded.
		p, err := s.geocoder.Geocode(ctx, cmd.Address)
		if err != nil {
			log.Printf("stop intake: geocode %q failed: %v", cmd.Address, err)
		} else {
			coordinate = p
		}
	}

	st := &Stop{
		ID:         types.ID(uuid.NewString()),
		Customer:   cmd.Customer,
		Address:    cmd.Address,
		Coordinate: coordinate,
		Demand:     cmd.Demand,
		Window:     cmd.Window,
		Priority:   priority,
		Cargo:      cmd.Cargo,
		CreatedAt:  time.Now(),
	}
	if err := s.store.Create(ctx, st); err != nil {
		return "", err
	}
	return st.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Stop, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListPending(ctx context.Context) ([]*Stop, error) {
	return s.store.ListPending(ctx)
}
