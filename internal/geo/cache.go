// README: Redis-backed cache in front of RoadNetwork.TimeMatrix.
package geo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rutero/internal/types"
)

// CachedNetwork memoizes time-matrix lookups in Redis. Matrix queries for the
// same point set are frequent when planners iterate on a stop selection, and
// the upstream API bills per element. Geometry calls pass through: they are
// made once per accepted route.
type CachedNetwork struct {
	inner RoadNetwork
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedNetwork(inner RoadNetwork, rdb *redis.Client, ttl time.Duration) *CachedNetwork {
	return &CachedNetwork{inner: inner, redis: rdb, ttl: ttl}
}

func (c *CachedNetwork) TimeMatrix(ctx context.Context, points []types.Point) (Matrix, error) {
	key := matrixKey(points)
	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var m Matrix
		if jsonErr := json.Unmarshal(raw, &m); jsonErr == nil && isSquare(m, len(points)) {
			return m, nil
		}
		// corrupt or truncated entry: drop it and fall through to the service
		c.redis.Del(ctx, key)
	}

	m, err := c.inner.TimeMatrix(ctx, points)
	if err != nil {
		return nil, err
	}
	if raw, jsonErr := json.Marshal(m); jsonErr == nil {
		if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("geo cache: set %s: %v", key, err)
		}
	}
	return m, nil
}

func (c *CachedNetwork) Geometry(ctx context.Context, points []types.Point) (Geometry, error) {
	return c.inner.Geometry(ctx, points)
}

// isSquare checks the full NxN shape; a matrix with the right outer length
// but short rows is as unusable as one with the wrong outer length.
func isSquare(m Matrix, n int) bool {
	if len(m) != n {
		return false
	}
	for _, row := range m {
		if len(row) != n {
			return false
		}
	}
	return true
}

func matrixKey(points []types.Point) string {
	var b strings.Builder
	for _, p := range points {
		b.WriteString(p.String())
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return "geo:matrix:" + hex.EncodeToString(sum[:])
}
