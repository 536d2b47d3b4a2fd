package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
)

var _ database.PositionRepository = (*PositionRepo)(nil)

type PositionRepo struct {
	db *sql.DB
}

func NewPositionRepo(db *sql.DB) *PositionRepo {
	return &PositionRepo{db: db}
}

func (r *PositionRepo) Upsert(ctx context.Context, pos *domain.CourierPosition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courier_positions (courier_id, latitude, longitude, accuracy, status, last_update)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (courier_id) DO UPDATE SET
		   latitude = EXCLUDED.latitude,
		   longitude = EXCLUDED.longitude,
		   accuracy = EXCLUDED.accuracy,
		   status = EXCLUDED.status,
		   last_update = EXCLUDED.last_update`,
		pos.CourierID, pos.Latitude, pos.Longitude, pos.Accuracy, pos.Status, pos.LastUpdate,
	)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO courier_position_history (courier_id, latitude, longitude, recorded_at) VALUES ($1, $2, $3, $4)`,
		pos.CourierID, pos.Latitude, pos.Longitude, pos.LastUpdate,
	)
	return err
}

func (r *PositionRepo) TouchCourier(ctx context.Context, pos *domain.CourierPosition) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE couriers SET last_latitude = $2, last_longitude = $3, last_active = $4 WHERE id = $1`,
		pos.CourierID, pos.Latitude, pos.Longitude, pos.LastUpdate,
	)
	return err
}

func (r *PositionRepo) GetLatest(ctx context.Context, courierID string) (*domain.CourierPosition, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT courier_id, latitude, longitude, accuracy, status, last_update
		 FROM courier_positions WHERE courier_id = $1`,
		courierID,
	)

	var pos domain.CourierPosition
	if err := row.Scan(&pos.CourierID, &pos.Latitude, &pos.Longitude, &pos.Accuracy, &pos.Status, &pos.LastUpdate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &pos, nil
}

func (r *PositionRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.CourierPosition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT courier_id, latitude, longitude, recorded_at FROM courier_position_history
		 WHERE courier_id = $1 AND recorded_at >= $2 AND recorded_at <= $3 ORDER BY recorded_at ASC`,
		query.CourierID, query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.CourierPosition
	for rows.Next() {
		var pos domain.CourierPosition
		if err := rows.Scan(&pos.CourierID, &pos.Latitude, &pos.Longitude, &pos.LastUpdate); err != nil {
			return nil, err
		}
		results = append(results, pos)
	}
	return results, rows.Err()
}

func (r *PositionRepo) GetAllCouriers(ctx context.Context) ([]domain.Courier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT courier_id FROM courier_positions ORDER BY courier_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Courier
	for rows.Next() {
		var c domain.Courier
		if err := rows.Scan(&c.CourierID); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
