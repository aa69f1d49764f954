// README: RoadNetwork implementation backed by the Google Maps APIs.
package geo

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"rutero/internal/types"
)

// Client wraps the Google Maps client behind the RoadNetwork contract.
type Client struct {
	maps *maps.Client
}

// NewClient creates a Client with the given API key.
func NewClient(apiKey string) (*Client, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{maps: c}, nil
}

// TimeMatrix queries the Distance Matrix API with every point as both origin
// and destination, producing the full pairwise seconds matrix.
func (c *Client) TimeMatrix(ctx context.Context, points []types.Point) (Matrix, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrBadResponse)
	}
	addrs := make([]string, len(points))
	for i, p := range points {
		addrs[i] = p.String()
	}

	resp, err := c.maps.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      addrs,
		Destinations: addrs,
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: distance matrix: %v", ErrServiceUnavailable, err)
	}
	if len(resp.Rows) != len(points) {
		return nil, fmt.Errorf("%w: expected %d matrix rows, got %d", ErrBadResponse, len(points), len(resp.Rows))
	}

	m := make(Matrix, len(points))
	for i, row := range resp.Rows {
		if len(row.Elements) != len(points) {
			return nil, fmt.Errorf("%w: row %d has %d elements, want %d", ErrBadResponse, i, len(row.Elements), len(points))
		}
		m[i] = make([]int, len(points))
		for j, el := range row.Elements {
			if el.Status != "OK" {
				return nil, fmt.Errorf("%w: element (%d,%d) status %q", ErrBadResponse, i, j, el.Status)
			}
			m[i][j] = int(el.Duration.Seconds())
		}
	}
	return m, nil
}

// Geometry queries the Directions API for the points in the given order. The
// first and last points are origin and destination, the rest are waypoints.
func (c *Client) Geometry(ctx context.Context, points []types.Point) (Geometry, error) {
	if len(points) < 2 {
		return Geometry{}, fmt.Errorf("%w: need at least origin and destination", ErrBadResponse)
	}
	req := &maps.DirectionsRequest{
		Origin:      points[0].String(),
		Destination: points[len(points)-1].String(),
		Mode:        maps.TravelModeDriving,
	}
	for _, p := range points[1 : len(points)-1] {
		req.Waypoints = append(req.Waypoints, p.String())
	}

	routes, _, err := c.maps.Directions(ctx, req)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: directions: %v", ErrServiceUnavailable, err)
	}
	if len(routes) == 0 {
		return Geometry{}, fmt.Errorf("%w: no route returned", ErrBadResponse)
	}
	route := routes[0]
	// One leg per consecutive pair; fewer means the service dropped waypoints.
	if len(route.Legs) != len(points)-1 {
		return Geometry{}, fmt.Errorf("%w: expected %d legs, got %d", ErrBadResponse, len(points)-1, len(route.Legs))
	}

	g := Geometry{Polyline: route.OverviewPolyline.Points}
	for _, leg := range route.Legs {
		g.DistanceMeters += leg.Distance.Meters
		g.DurationSeconds += int(leg.Duration.Seconds())
		for _, step := range leg.Steps {
			g.Maneuvers = append(g.Maneuvers, Maneuver{
				Instruction:     step.HTMLInstructions,
				DistanceMeters:  step.Distance.Meters,
				DurationSeconds: int(step.Duration.Seconds()),
			})
		}
	}
	return g, nil
}
