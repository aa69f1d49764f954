package geo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"rutero/internal/types"
)

// countingNetwork records how many times the upstream matrix is hit.
type countingNetwork struct {
	matrix Matrix
	calls  int
}

func (f *countingNetwork) TimeMatrix(_ context.Context, points []types.Point) (Matrix, error) {
	f.calls++
	return f.matrix, nil
}

func (f *countingNetwork) Geometry(_ context.Context, _ []types.Point) (Geometry, error) {
	return Geometry{}, nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedNetworkHitsUpstreamOnce(t *testing.T) {
	points := []types.Point{{Lat: 4.60971, Lng: -74.08175}, {Lat: 4.62, Lng: -74.07}}
	inner := &countingNetwork{matrix: Matrix{{0, 300}, {320, 0}}}
	c := NewCachedNetwork(inner, testRedis(t), time.Hour)
	ctx := context.Background()

	first, err := c.TimeMatrix(ctx, points)
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	second, err := c.TimeMatrix(ctx, points)
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", inner.calls)
	}
	if first[0][1] != 300 || second[1][0] != 320 {
		t.Errorf("cached matrix mismatch: first=%v second=%v", first, second)
	}
}

func TestCachedNetworkKeyedByPointOrder(t *testing.T) {
	a := types.Point{Lat: 4.60971, Lng: -74.08175}
	b := types.Point{Lat: 4.62, Lng: -74.07}
	inner := &countingNetwork{matrix: Matrix{{0, 300}, {320, 0}}}
	c := NewCachedNetwork(inner, testRedis(t), time.Hour)
	ctx := context.Background()

	if _, err := c.TimeMatrix(ctx, []types.Point{a, b}); err != nil {
		t.Fatalf("lookup a,b: %v", err)
	}
	// Reversed order is a different matrix: must not reuse the cached entry.
	if _, err := c.TimeMatrix(ctx, []types.Point{b, a}); err != nil {
		t.Fatalf("lookup b,a: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("upstream calls = %d, want 2", inner.calls)
	}
}

func TestCachedNetworkRejectsTruncatedEntry(t *testing.T) {
	points := []types.Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	inner := &countingNetwork{matrix: Matrix{{0, 300}, {320, 0}}}
	rdb := testRedis(t)
	c := NewCachedNetwork(inner, rdb, time.Hour)
	ctx := context.Background()

	// Valid JSON with the right outer length but short rows: indexing
	// m[0][1] on it would blow up downstream.
	if err := rdb.Set(ctx, matrixKey(points), "[[0],[0]]", time.Hour).Err(); err != nil {
		t.Fatalf("seed truncated entry: %v", err)
	}
	m, err := c.TimeMatrix(ctx, points)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (truncated entry must be refetched)", inner.calls)
	}
	if len(m) != 2 || len(m[0]) != 2 || m[0][1] != 300 {
		t.Errorf("matrix = %v, want fresh 2x2", m)
	}
}

func TestCachedNetworkRecoversFromCorruptEntry(t *testing.T) {
	points := []types.Point{{Lat: 1, Lng: 1}}
	inner := &countingNetwork{matrix: Matrix{{0}}}
	rdb := testRedis(t)
	c := NewCachedNetwork(inner, rdb, time.Hour)
	ctx := context.Background()

	if err := rdb.Set(ctx, matrixKey(points), "not json", time.Hour).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	m, err := c.TimeMatrix(ctx, points)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(m) != 1 || inner.calls != 1 {
		t.Errorf("got matrix %v, upstream calls %d; want fresh 1x1 matrix from one call", m, inner.calls)
	}
}
