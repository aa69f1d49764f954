// README: Common value objects shared across modules.
package types

import "fmt"

type ID string

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// String renders the point in the "lat,lng" form the road-network API expects.
func (p Point) String() string {
	return fmt.Sprintf("%.7f,%.7f", p.Lat, p.Lng)
}

// EndOfDay is the upper bound for seconds-of-day time windows.
const EndOfDay = 86400

// TimeWindow is a [Earliest, Latest] interval in seconds of day during which
// a stop may be visited. The zero value is not a valid window; use FullDay.
type TimeWindow struct {
	Earliest int
	Latest   int
}

// FullDay is the default window for stops without a declared one.
func FullDay() TimeWindow {
	return TimeWindow{Earliest: 0, Latest: EndOfDay}
}

func (w TimeWindow) Contains(secondsOfDay int) bool {
	return secondsOfDay >= w.Earliest && secondsOfDay <= w.Latest
}

// Capacity is a vehicle ceiling over the two cumulative cargo dimensions.
type Capacity struct {
	WeightKg float64
	VolumeM3 float64
}

// Demand is a stop's cargo requirement in the same units as Capacity.
type Demand struct {
	WeightKg float64
	VolumeM3 float64
}
