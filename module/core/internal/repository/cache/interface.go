package cache

import (
	"context"
	"errors"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
)

// ErrNotFound is returned when no live position exists for a courier,
// either because none was ever written or because the entry expired.
var ErrNotFound = errors.New("position not found")

// PositionStore holds the freshest position per courier. Entries expire so
// a courier that stopped reporting reads as unavailable, not stale.
type PositionStore interface {
	Set(ctx context.Context, pos *domain.CourierPosition) error
	Latest(ctx context.Context, courierID string) (*domain.CourierPosition, error)
	Delete(ctx context.Context, courierID string) error
}
