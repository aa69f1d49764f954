// README: Route store backed by PostgreSQL (routes + route_visits tables).
package route

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rutero/internal/ai"
	"rutero/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *Route) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	maneuvers, err := json.Marshal(r.Geometry.Maneuvers)
	if err != nil {
		return fmt.Errorf("encode maneuvers: %w", err)
	}
	var guidance []byte
	if r.Guidance != nil {
		guidance, err = json.Marshal(r.Guidance)
		if err != nil {
			return fmt.Errorf("encode guidance: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO routes (
            id, depot_id, vehicle_id, delivery_date, status, status_version,
            total_weight_kg, total_volume_m3, total_distance_m, total_duration_s,
            polyline, maneuvers, guidance, created_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6,
            $7, $8, $9, $10,
            $11, $12, $13, $14
        )`,
		string(r.ID),
		string(r.DepotID),
		string(r.VehicleID),
		r.DeliveryDate,
		string(r.Status),
		r.StatusVersion,
		r.TotalWeightKg,
		r.TotalVolumeM3,
		r.TotalDistanceMeters,
		r.TotalDurationSeconds,
		r.Geometry.Polyline,
		maneuvers,
		guidance,
		r.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, v := range r.Visits {
		manifest, err := json.Marshal(v.Manifest)
		if err != nil {
			return fmt.Errorf("encode manifest: %w", err)
		}
		_, err = tx.Exec(ctx, `
            INSERT INTO route_visits (
                route_id, stop_id, customer, lat, lng,
                delivery_position, load_position, weight_kg, volume_m3,
                manifest, delivered, delivered_at
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			string(r.ID),
			string(v.StopID),
			v.Customer,
			v.Coordinate.Lat, v.Coordinate.Lng,
			v.DeliveryPosition,
			v.LoadPosition,
			v.WeightKg,
			v.VolumeM3,
			manifest,
			v.Delivered,
			v.DeliveredAt,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Route, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, depot_id, vehicle_id, delivery_date, status, status_version,
               total_weight_kg, total_volume_m3, total_distance_m, total_duration_s,
               polyline, maneuvers, guidance,
               created_at, started_at, completed_at, cancelled_at
        FROM routes
        WHERE id = $1`, string(id),
	)
	r, err := scanRoute(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadVisits(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Route, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, depot_id, vehicle_id, delivery_date, status, status_version,
               total_weight_kg, total_volume_m3, total_distance_m, total_duration_s,
               polyline, maneuvers, guidance,
               created_at, started_at, completed_at, cancelled_at
        FROM routes
        ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, r := range out {
		if err := s.loadVisits(ctx, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE routes
        SET status = $1,
            status_version = status_version + 1,
            started_at = CASE WHEN $1 = 'in_progress' THEN COALESCE(started_at, NOW()) ELSE started_at END,
            completed_at = CASE WHEN $1 = 'completed' THEN COALESCE(completed_at, NOW()) ELSE completed_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN COALESCE(cancelled_at, NOW()) ELSE cancelled_at END
        WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) MarkDelivered(ctx context.Context, routeID, stopID types.ID, at time.Time) (int, bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback(ctx)

	// Lock the route row so concurrent delivers on the same route serialize
	// and the remaining count is exact.
	var exists string
	err = tx.QueryRow(ctx, `SELECT id FROM routes WHERE id = $1 FOR UPDATE`, string(routeID)).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, err
	}

	var already bool
	err = tx.QueryRow(ctx, `
        SELECT delivered FROM route_visits
        WHERE route_id = $1 AND stop_id = $2`,
		string(routeID), string(stopID),
	).Scan(&already)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, ErrStopNotOnRoute
	}
	if err != nil {
		return 0, false, err
	}

	if !already {
		_, err = tx.Exec(ctx, `
            UPDATE route_visits
            SET delivered = TRUE, delivered_at = $3
            WHERE route_id = $1 AND stop_id = $2`,
			string(routeID), string(stopID), at,
		)
		if err != nil {
			return 0, false, err
		}
	}

	var remaining int
	err = tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM route_visits
        WHERE route_id = $1 AND NOT delivered`,
		string(routeID),
	).Scan(&remaining)
	if err != nil {
		return 0, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return remaining, already, nil
}

func (s *PostgresStore) loadVisits(ctx context.Context, r *Route) error {
	rows, err := s.db.Query(ctx, `
        SELECT stop_id, customer, lat, lng,
               delivery_position, load_position, weight_kg, volume_m3,
               manifest, delivered, delivered_at
        FROM route_visits
        WHERE route_id = $1
        ORDER BY delivery_position`,
		string(r.ID),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v Visit
		var manifest []byte
		var deliveredAt sql.NullTime
		err := rows.Scan(
			&v.StopID, &v.Customer, &v.Coordinate.Lat, &v.Coordinate.Lng,
			&v.DeliveryPosition, &v.LoadPosition, &v.WeightKg, &v.VolumeM3,
			&manifest, &v.Delivered, &deliveredAt,
		)
		if err != nil {
			return err
		}
		if len(manifest) > 0 {
			if err := json.Unmarshal(manifest, &v.Manifest); err != nil {
				return fmt.Errorf("decode manifest: %w", err)
			}
		}
		if deliveredAt.Valid {
			t := deliveredAt.Time
			v.DeliveredAt = &t
		}
		r.Visits = append(r.Visits, v)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*Route, error) {
	var r Route
	var maneuvers, guidance []byte
	var startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.DepotID, &r.VehicleID, &r.DeliveryDate, &r.Status, &r.StatusVersion,
		&r.TotalWeightKg, &r.TotalVolumeM3, &r.TotalDistanceMeters, &r.TotalDurationSeconds,
		&r.Geometry.Polyline, &maneuvers, &guidance,
		&r.CreatedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r.Geometry.DistanceMeters = r.TotalDistanceMeters
	r.Geometry.DurationSeconds = r.TotalDurationSeconds
	if len(maneuvers) > 0 {
		if err := json.Unmarshal(maneuvers, &r.Geometry.Maneuvers); err != nil {
			return nil, fmt.Errorf("decode maneuvers: %w", err)
		}
	}
	if len(guidance) > 0 {
		var g ai.LoadGuidance
		if err := json.Unmarshal(guidance, &g); err != nil {
			return nil, fmt.Errorf("decode guidance: %w", err)
		}
		r.Guidance = &g
	}
	r.StartedAt = toTimePtr(startedAt)
	r.CompletedAt = toTimePtr(completedAt)
	r.CancelledAt = toTimePtr(cancelledAt)
	return &r, nil
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
