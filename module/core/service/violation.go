package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
)

// ErrBindingIncomplete signals that the package row exists but has no
// courier assigned yet, so the audit retries the fetch.
var ErrBindingIncomplete = errors.New("package binding has no courier")

// ViolationConfig tunes the post-confirmation audit.
type ViolationConfig struct {
	DeliveryRadiusMeters   float64
	CriticalDistanceMeters float64
	PhotoCheckDelay        time.Duration
}

func DefaultViolationConfig() ViolationConfig {
	return ViolationConfig{
		DeliveryRadiusMeters:   100,
		CriticalDistanceMeters: 1000,
		PhotoCheckDelay:        8 * time.Second,
	}
}

// ViolationService audits a delivery confirmation after the fact: it
// rechecks the confirmation coordinates against the destination and,
// after a grace period, verifies a proof-of-delivery photo was uploaded.
// The audit is advisory and never blocks the confirmation, so every
// failure is logged and the audit moves on.
type ViolationService struct {
	packages  database.PackageRepository
	photos    database.PhotoRepository
	alerts    alertSink
	retry     RetryPolicy
	scheduler *DelayScheduler
	cfg       ViolationConfig
	log       *zap.Logger
}

func NewViolationService(
	packages database.PackageRepository,
	photos database.PhotoRepository,
	alerts alertSink,
	retry RetryPolicy,
	scheduler *DelayScheduler,
	cfg ViolationConfig,
	log *zap.Logger,
) *ViolationService {
	return &ViolationService{
		packages:  packages,
		photos:    photos,
		alerts:    alerts,
		retry:     retry,
		scheduler: scheduler,
		cfg:       cfg,
		log:       log,
	}
}

// Audit runs the full post-confirmation check for one confirmation. The
// binding fetch retries because the courier assignment may land moments
// after the confirmation does; if the binding never resolves the audit is
// abandoned, photo check included.
func (s *ViolationService) Audit(ctx context.Context, conf *domain.DeliveryConfirmation) {
	binding, err := s.fetchBinding(ctx, conf.PackageID)
	if err != nil {
		s.log.Warn("package binding unavailable, abandoning audit",
			zap.String("package_id", conf.PackageID), zap.Error(err))
		return
	}

	s.checkDistance(ctx, conf, binding)

	courierName := conf.CourierName
	if courierName == "" {
		courierName = binding.CourierName
	}
	s.schedulePhotoCheck(conf, courierName)
}

func (s *ViolationService) fetchBinding(ctx context.Context, packageID string) (*domain.PackageBinding, error) {
	var binding *domain.PackageBinding
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		b, err := s.packages.GetBinding(ctx, packageID)
		if err != nil {
			return err
		}
		if b.CourierName == "" {
			return fmt.Errorf("%w: %s", ErrBindingIncomplete, packageID)
		}
		binding = b
		return nil
	})
	return binding, err
}

func (s *ViolationService) checkDistance(ctx context.Context, conf *domain.DeliveryConfirmation, binding *domain.PackageBinding) {
	if binding.ReceiverLatitude == nil || binding.ReceiverLongitude == nil {
		s.log.Info("package has no destination coordinates, skipping distance audit",
			zap.String("package_id", conf.PackageID))
		return
	}

	distance := haversine(conf.CourierLatitude, conf.CourierLongitude,
		*binding.ReceiverLatitude, *binding.ReceiverLongitude)
	if distance <= s.cfg.DeliveryRadiusMeters {
		return
	}

	severity := domain.SeverityHigh
	if distance > s.cfg.CriticalDistanceMeters {
		severity = domain.SeverityCritical
	}
	rounded := math.Round(distance)

	alert := &domain.DeliveryAlert{
		PackageID:               conf.PackageID,
		CourierID:               conf.CourierID,
		CourierName:             binding.CourierName,
		Type:                    domain.AlertLocationViolation,
		Severity:                severity,
		CourierLatitude:         conf.CourierLatitude,
		CourierLongitude:        conf.CourierLongitude,
		DestinationLatitude:     binding.ReceiverLatitude,
		DestinationLongitude:    binding.ReceiverLongitude,
		DistanceFromDestination: &rounded,
		Title:                   fmt.Sprintf("Package confirmed delivered %.0f m from destination", rounded),
		Description: fmt.Sprintf(
			"Package %s was confirmed delivered by %s at %.6f, %.6f, which is %.0f m from the destination (limit %.0f m).",
			conf.PackageID, binding.CourierName,
			conf.CourierLatitude, conf.CourierLongitude,
			rounded, s.cfg.DeliveryRadiusMeters),
		ActionAttempted: "delivery_confirmed",
		Metadata: map[string]any{
			"distance_meters":       rounded,
			"required_range_meters": s.cfg.DeliveryRadiusMeters,
			"confirmed_at":          conf.ConfirmedAt,
		},
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		s.log.Error("location violation alert failed",
			zap.String("package_id", conf.PackageID), zap.Error(err))
	}
}

// schedulePhotoCheck defers the proof-of-delivery check so an upload that
// races the confirmation has time to land. The deferred task uses a fresh
// context: the request that triggered the audit is long gone by then.
func (s *ViolationService) schedulePhotoCheck(conf *domain.DeliveryConfirmation, courierName string) {
	packageID := conf.PackageID
	courierID := conf.CourierID
	lat, lon := conf.CourierLatitude, conf.CourierLongitude

	s.scheduler.After(s.cfg.PhotoCheckDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		count, err := s.photos.CountByPackage(ctx, packageID)
		if err != nil {
			s.log.Error("photo count failed",
				zap.String("package_id", packageID), zap.Error(err))
			return
		}
		if count > 0 {
			return
		}

		alert := &domain.DeliveryAlert{
			PackageID:        packageID,
			CourierID:        courierID,
			CourierName:      courierName,
			Type:             domain.AlertPhotoViolation,
			Severity:         domain.SeverityMedium,
			CourierLatitude:  lat,
			CourierLongitude: lon,
			Title:            "Delivery confirmed without photo",
			Description: fmt.Sprintf(
				"Package %s was confirmed delivered but no proof-of-delivery photo was uploaded.",
				packageID),
			ActionAttempted: "delivery_confirmed",
			Metadata: map[string]any{
				"photo_count": 0,
			},
		}
		if err := s.alerts.Create(ctx, alert); err != nil {
			s.log.Error("photo violation alert failed",
				zap.String("package_id", packageID), zap.Error(err))
		}
	})
}
