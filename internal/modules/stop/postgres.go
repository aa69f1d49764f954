// README: Stop store backed by PostgreSQL.
package stop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rutero/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, st *Stop) error {
	cargo, err := json.Marshal(st.Cargo)
	if err != nil {
		return fmt.Errorf("marshal cargo: %w", err)
	}
	var lat, lng *float64
	if st.Coordinate != nil {
		lat, lng = &st.Coordinate.Lat, &st.Coordinate.Lng
	}
	var earliest, latest *int
	if st.Window != nil {
		earliest, latest = &st.Window.Earliest, &st.Window.Latest
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO stops (
			id, customer, address, lat, lng,
			weight_kg, volume_m3, window_earliest, window_latest,
			priority, cargo, route_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL, $12)`,
		string(st.ID), st.Customer, st.Address, lat, lng,
		st.Demand.WeightKg, st.Demand.VolumeM3, earliest, latest,
		string(st.Priority), cargo, st.CreatedAt,
	)
	return err
}

const stopColumns = `id, customer, address, lat, lng,
		weight_kg, volume_m3, window_earliest, window_latest,
		priority, cargo, route_id, created_at`

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Stop, error) {
	row := s.db.QueryRow(ctx, `SELECT `+stopColumns+` FROM stops WHERE id = $1`, string(id))
	st, err := scanStop(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return st, err
}

func (s *PostgresStore) GetMany(ctx context.Context, ids []types.ID) ([]*Stop, error) {
	rows, err := s.db.Query(ctx, `SELECT `+stopColumns+` FROM stops WHERE id = ANY($1)`, idStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Stop, 0, len(ids))
	for rows.Next() {
		st, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) != len(ids) {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*Stop, error) {
	rows, err := s.db.Query(ctx, `SELECT `+stopColumns+` FROM stops WHERE route_id IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Stop
	for rows.Next() {
		st, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Claim is the persistence-level exclusivity check: the WHERE clause only
// matches unassigned stops, so a concurrent claim of the same stop loses.
func (s *PostgresStore) Claim(ctx context.Context, routeID types.ID, ids []types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE stops SET route_id = $1
		WHERE id = ANY($2) AND route_id IS NULL`,
		string(routeID), idStrings(ids),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return ErrUnavailable
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Release(ctx context.Context, routeID types.ID, ids []types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE stops SET route_id = NULL
		WHERE route_id = $1 AND id = ANY($2)`,
		string(routeID), idStrings(ids),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStop(row rowScanner) (*Stop, error) {
	var st Stop
	var lat, lng *float64
	var earliest, latest *int
	var priority string
	var cargo []byte
	var routeID *string

	err := row.Scan(
		&st.ID, &st.Customer, &st.Address, &lat, &lng,
		&st.Demand.WeightKg, &st.Demand.VolumeM3, &earliest, &latest,
		&priority, &cargo, &routeID, &st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		st.Coordinate = &types.Point{Lat: *lat, Lng: *lng}
	}
	if earliest != nil && latest != nil {
		st.Window = &types.TimeWindow{Earliest: *earliest, Latest: *latest}
	}
	st.Priority = Priority(priority)
	if routeID != nil {
		id := types.ID(*routeID)
		st.RouteID = &id
	}
	if len(cargo) > 0 {
		if err := json.Unmarshal(cargo, &st.Cargo); err != nil {
			return nil, fmt.Errorf("unmarshal cargo: %w", err)
		}
	}
	return &st, nil
}

func idStrings(ids []types.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
