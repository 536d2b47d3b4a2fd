package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
)

var _ database.AlertRepository = (*AlertRepo)(nil)

type AlertRepo struct {
	db *sql.DB
}

func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

func (r *AlertRepo) Insert(ctx context.Context, alert *domain.DeliveryAlert) error {
	metadata, err := json.Marshal(alert.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO delivery_alerts
		   (package_id, courier_id, courier_name, alert_type, severity,
		    courier_latitude, courier_longitude, destination_latitude, destination_longitude,
		    distance_from_destination, title, description, action_attempted, status, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING id`,
		alert.PackageID, alert.CourierID, alert.CourierName, alert.Type, alert.Severity,
		alert.CourierLatitude, alert.CourierLongitude, alert.DestinationLatitude, alert.DestinationLongitude,
		alert.DistanceFromDestination, alert.Title, alert.Description, alert.ActionAttempted,
		alert.Status, metadata, alert.CreatedAt,
	)
	return row.Scan(&alert.ID)
}

func (r *AlertRepo) List(ctx context.Context, status domain.AlertStatus) ([]domain.DeliveryAlert, error) {
	q := `SELECT id, package_id, courier_id, courier_name, alert_type, severity,
	             courier_latitude, courier_longitude, destination_latitude, destination_longitude,
	             distance_from_destination, title, description, status, created_at
	      FROM delivery_alerts`
	args := []any{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.DeliveryAlert
	for rows.Next() {
		var a domain.DeliveryAlert
		if err := rows.Scan(&a.ID, &a.PackageID, &a.CourierID, &a.CourierName, &a.Type, &a.Severity,
			&a.CourierLatitude, &a.CourierLongitude, &a.DestinationLatitude, &a.DestinationLongitude,
			&a.DistanceFromDestination, &a.Title, &a.Description, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func (r *AlertRepo) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM delivery_alerts WHERE status = $1`,
		domain.AlertStatusPending,
	).Scan(&count)
	return count, err
}

func (r *AlertRepo) UpdateStatus(ctx context.Context, alertID string, status domain.AlertStatus, resolvedBy, notes string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE delivery_alerts SET status = $2, resolved_by = $3, resolution_notes = $4, resolved_at = $5
		 WHERE id = $1 AND status = $6`,
		alertID, status, resolvedBy, notes, time.Now().UTC(), domain.AlertStatusPending,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM delivery_alerts WHERE id = $1)`, alertID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return database.ErrNotFound
		}
		return database.ErrAlertNotPending
	}
	return nil
}
