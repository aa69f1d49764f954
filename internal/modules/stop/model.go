// README: Stop aggregate; one deliverable order waiting in the pending pool.
package stop

import (
	"time"

	"rutero/internal/types"
)

// Priority is advisory only. It is carried for display and reporting and is
// never enforced as a routing constraint.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// CargoLine is one product line of a stop's cargo manifest.
type CargoLine struct {
	Product      string  `json:"product"`
	Quantity     int     `json:"quantity"`
	UnitWeightKg float64 `json:"unit_weight_kg"`
}

// Stop is a delivery order eligible for route planning. It exists from the
// moment an order is flagged for home delivery until it is consumed into a
// route or released back to the pool.
type Stop struct {
	ID         types.ID
	Customer   string
	Address    string
	Coordinate *types.Point // nil: ineligible until geocoded
	Demand     types.Demand
	Window     *types.TimeWindow // nil: deliverable all day
	Priority   Priority
	Cargo      []CargoLine
	RouteID    *types.ID // set while assigned to an active route
	CreatedAt  time.Time
}

// Routable reports whether the stop can enter a route request: it must carry
// a coordinate and must not already belong to an active route.
func (s *Stop) Routable() bool {
	return s.Coordinate != nil && s.RouteID == nil
}

// EffectiveWindow returns the declared window or the full-day default.
func (s *Stop) EffectiveWindow() types.TimeWindow {
	if s.Window != nil {
		return *s.Window
	}
	return types.FullDay()
}
