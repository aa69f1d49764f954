// README: LIFO load plan derived from a solved visiting order.
package loadplan

import (
	"fmt"

	"rutero/internal/ai"
	"rutero/internal/modules/stop"
	"rutero/internal/types"
)

// Item is one stop's slot in the loading plan. For a route of N stops the
// stop delivered k-th is loaded at position N+1-k: the first delivery is
// loaded last, right at the vehicle door.
type Item struct {
	StopID           types.ID         `json:"stop_id"`
	Customer         string           `json:"customer"`
	DeliveryPosition int              `json:"delivery_position"`
	LoadPosition     int              `json:"load_position"`
	WeightKg         float64          `json:"weight_kg"`
	VolumeM3         float64          `json:"volume_m3"`
	Manifest         []stop.CargoLine `json:"manifest"`
}

// Build maps the solved visiting order onto loading positions. Pure and
// deterministic: the same order and stops always produce the same plan.
func Build(orderedStopIDs []types.ID, stops []*stop.Stop) ([]Item, error) {
	byID := make(map[types.ID]*stop.Stop, len(stops))
	for _, s := range stops {
		byID[s.ID] = s
	}

	n := len(orderedStopIDs)
	items := make([]Item, 0, n)
	for i, id := range orderedStopIDs {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("load plan: stop %s not in stop set", id)
		}
		delivery := i + 1
		items = append(items, Item{
			StopID:           id,
			Customer:         s.Customer,
			DeliveryPosition: delivery,
			LoadPosition:     n + 1 - delivery,
			WeightKg:         s.Demand.WeightKg,
			VolumeM3:         s.Demand.VolumeM3,
			Manifest:         s.Cargo,
		})
	}
	return items, nil
}

// AdvisorInput converts a plan into the advisor's request shape.
func AdvisorInput(items []Item, distanceMeters, durationSeconds int) ([]ai.LoadItem, ai.RouteInfo) {
	out := make([]ai.LoadItem, 0, len(items))
	for _, it := range items {
		products := make([]ai.ProductLine, 0, len(it.Manifest))
		for _, line := range it.Manifest {
			products = append(products, ai.ProductLine{
				Name:     line.Product,
				Quantity: line.Quantity,
				WeightKg: line.UnitWeightKg,
			})
		}
		out = append(out, ai.LoadItem{
			LoadPosition:     it.LoadPosition,
			DeliveryPosition: it.DeliveryPosition,
			Customer:         it.Customer,
			WeightKg:         it.WeightKg,
			VolumeM3:         it.VolumeM3,
			Products:         products,
		})
	}
	info := ai.RouteInfo{
		DistanceKm:      float64(distanceMeters) / 1000.0,
		DurationMinutes: durationSeconds / 60,
		StopCount:       len(items),
	}
	return out, info
}
