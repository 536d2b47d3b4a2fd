package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
)

var (
	_ database.PackageRepository = (*PackageRepo)(nil)
	_ database.PhotoRepository   = (*PackageRepo)(nil)
)

// PackageRepo reads package bindings and delivery-photo counts. Both live
// on the package side of the schema, so one repo covers them.
type PackageRepo struct {
	db *sql.DB
}

func NewPackageRepo(db *sql.DB) *PackageRepo {
	return &PackageRepo{db: db}
}

func (r *PackageRepo) GetBinding(ctx context.Context, packageID string) (*domain.PackageBinding, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, receiver_latitude, receiver_longitude, courier FROM packages WHERE id = $1`,
		packageID,
	)

	var (
		b       domain.PackageBinding
		courier sql.NullString
	)
	if err := row.Scan(&b.PackageID, &b.ReceiverLatitude, &b.ReceiverLongitude, &courier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	b.CourierName = courier.String
	return &b, nil
}

func (r *PackageRepo) CountByPackage(ctx context.Context, packageID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM delivery_photos WHERE package_id = $1`,
		packageID,
	).Scan(&count)
	return count, err
}
