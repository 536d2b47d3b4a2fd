package database

import (
	"context"
	"errors"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlertNotPending is returned when an operator tries to transition
	// an alert that has already left the pending state.
	ErrAlertNotPending = errors.New("alert is not pending")
)

type PositionRepository interface {
	// Upsert writes the courier's current position, keyed by courier id.
	Upsert(ctx context.Context, pos *domain.CourierPosition) error
	// TouchCourier updates the courier row's last-known-location and
	// last-active fields.
	TouchCourier(ctx context.Context, pos *domain.CourierPosition) error
	GetLatest(ctx context.Context, courierID string) (*domain.CourierPosition, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.CourierPosition, error)
	GetAllCouriers(ctx context.Context) ([]domain.Courier, error)
}

type AlertRepository interface {
	Insert(ctx context.Context, alert *domain.DeliveryAlert) error
	List(ctx context.Context, status domain.AlertStatus) ([]domain.DeliveryAlert, error)
	CountPending(ctx context.Context) (int, error)
	// UpdateStatus moves a pending alert to a terminal state. Returns
	// ErrAlertNotPending if the alert exists but already left pending,
	// ErrNotFound if it does not exist.
	UpdateStatus(ctx context.Context, alertID string, status domain.AlertStatus, resolvedBy, notes string) error
}

type PackageRepository interface {
	GetBinding(ctx context.Context, packageID string) (*domain.PackageBinding, error)
}

type PhotoRepository interface {
	CountByPackage(ctx context.Context, packageID string) (int, error)
}
