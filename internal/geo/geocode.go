// README: Street-address geocoding via the Google Geocoding API.
package geo

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"rutero/internal/types"
)

// Geocoder resolves a street address to a coordinate. Stops registered
// without a coordinate stay out of route planning until geocoded.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*types.Point, error)
}

// Geocode resolves the address through the Geocoding API. Returns the first
// result; ambiguity is accepted, absence is not.
func (c *Client) Geocode(ctx context.Context, address string) (*types.Point, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: empty address", ErrBadResponse)
	}
	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("%w: geocode: %v", ErrServiceUnavailable, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no geocoding result for %q", ErrBadResponse, address)
	}
	loc := results[0].Geometry.Location
	return &types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
