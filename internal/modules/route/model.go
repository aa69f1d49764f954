// README: Route aggregate, status definitions and transition table.
package route

import (
	"time"

	"rutero/internal/ai"
	"rutero/internal/geo"
	"rutero/internal/modules/stop"
	"rutero/internal/types"
)

type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllowedTransitions represents the route state flow as code. Completed and
// cancelled are terminal: they have no outgoing transitions.
var AllowedTransitions = map[Status][]Status{
	StatusPlanned:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Visit is one frozen entry of the route's stop sequence, with its load plan
// slot and delivery outcome.
type Visit struct {
	StopID           types.ID         `json:"stop_id"`
	Customer         string           `json:"customer"`
	Coordinate       types.Point      `json:"coordinate"`
	DeliveryPosition int              `json:"delivery_position"`
	LoadPosition     int              `json:"load_position"`
	WeightKg         float64          `json:"weight_kg"`
	VolumeM3         float64          `json:"volume_m3"`
	Manifest         []stop.CargoLine `json:"manifest"`
	Delivered        bool             `json:"delivered"`
	DeliveredAt      *time.Time       `json:"delivered_at,omitempty"`
}

// Route is the persistent aggregate produced from an accepted SolvedRoute.
// Aggregates are computed once at solve time and frozen; lifecycle
// transitions only touch status, timestamps and delivery flags. Cancellation
// is a state, never a removal.
type Route struct {
	ID            types.ID
	DepotID       types.ID
	VehicleID     types.ID
	DeliveryDate  time.Time
	Status        Status
	StatusVersion int
	Visits        []Visit

	TotalWeightKg        float64
	TotalVolumeM3        float64
	TotalDistanceMeters  int
	TotalDurationSeconds int
	Geometry             geo.Geometry
	Guidance             *ai.LoadGuidance

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// UndeliveredStopIDs returns the stops still waiting for delivery, in
// delivery order.
func (r *Route) UndeliveredStopIDs() []types.ID {
	var out []types.ID
	for _, v := range r.Visits {
		if !v.Delivered {
			out = append(out, v.StopID)
		}
	}
	return out
}
