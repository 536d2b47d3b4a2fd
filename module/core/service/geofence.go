package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/cache"
)

const earthRadiusMeters = 6371000

// GeofenceConfig carries the proximity thresholds for the delivery gate.
type GeofenceConfig struct {
	DeliveryRadiusMeters     float64
	SuspiciousDistanceMeters float64
	CriticalDistanceMeters   float64
}

func DefaultGeofenceConfig() GeofenceConfig {
	return GeofenceConfig{
		DeliveryRadiusMeters:     100,
		SuspiciousDistanceMeters: 500,
		CriticalDistanceMeters:   1000,
	}
}

type alertSink interface {
	Create(ctx context.Context, alert *domain.DeliveryAlert) error
}

// GeofenceService gates "mark delivered" actions on courier proximity to
// the destination. It reads the courier's freshest position from the live
// store and records an alert on every deny or degraded path.
type GeofenceService struct {
	positions cache.PositionStore
	alerts    alertSink
	cfg       GeofenceConfig
	log       *zap.Logger
}

func NewGeofenceService(positions cache.PositionStore, alerts alertSink, cfg GeofenceConfig, log *zap.Logger) *GeofenceService {
	return &GeofenceService{
		positions: positions,
		alerts:    alerts,
		cfg:       cfg,
		log:       log,
	}
}

// ValidateDeliveryRequest identifies the confirmation being gated.
// Destination coordinates are nil when the receiver address was never
// geocoded.
type ValidateDeliveryRequest struct {
	PackageID      string
	CourierID      string
	CourierName    string
	DestinationLat *float64
	DestinationLon *float64
}

// ValidateDelivery decides whether the courier may mark the package
// delivered. It does not fail: internal errors degrade to the documented
// deny or fail-open paths and are logged.
func (s *GeofenceService) ValidateDelivery(ctx context.Context, req ValidateDeliveryRequest) *domain.ValidationOutcome {
	// A package whose address was never geocoded cannot be verified.
	// Blocking it would strand the delivery, so it passes with an alert.
	if req.DestinationLat == nil || req.DestinationLon == nil {
		return s.validateWithoutDestination(ctx, req)
	}

	pos, err := s.positions.Latest(ctx, req.CourierID)
	if err != nil {
		if err != cache.ErrNotFound {
			s.log.Warn("live position lookup failed",
				zap.String("courier_id", req.CourierID), zap.Error(err))
		}
		return s.denyWithoutPosition(ctx, req)
	}

	distance := haversine(pos.Latitude, pos.Longitude, *req.DestinationLat, *req.DestinationLon)
	result := domain.GeofenceResult{
		WithinRange:    distance <= s.cfg.DeliveryRadiusMeters,
		DistanceMeters: math.Round(distance),
		CourierLocation: domain.Coordinate{
			Latitude:  pos.Latitude,
			Longitude: pos.Longitude,
			Accuracy:  pos.Accuracy,
		},
		DestinationLocation: &domain.Coordinate{
			Latitude:  *req.DestinationLat,
			Longitude: *req.DestinationLon,
		},
	}

	if result.WithinRange {
		return &domain.ValidationOutcome{
			Allowed: true,
			Result:  result,
			Message: fmt.Sprintf("location verified (%.0f m from destination)", result.DistanceMeters),
		}
	}

	alertType, severity := s.classifyDistance(distance)
	rounded := result.DistanceMeters
	alert := &domain.DeliveryAlert{
		PackageID:               req.PackageID,
		CourierID:               req.CourierID,
		CourierName:             req.CourierName,
		Type:                    alertType,
		Severity:                severity,
		CourierLatitude:         pos.Latitude,
		CourierLongitude:        pos.Longitude,
		DestinationLatitude:     req.DestinationLat,
		DestinationLongitude:    req.DestinationLon,
		DistanceFromDestination: &rounded,
		Title:                   fmt.Sprintf("Delivery confirmation attempted %.0f m from destination", rounded),
		Description: fmt.Sprintf(
			"Courier %s tried to mark package %s delivered %.0f m from the destination (limit %.0f m). Courier at %.6f, %.6f; destination at %.6f, %.6f; GPS accuracy %s.",
			req.CourierName, req.PackageID, rounded, s.cfg.DeliveryRadiusMeters,
			pos.Latitude, pos.Longitude, *req.DestinationLat, *req.DestinationLon,
			formatAccuracy(pos.Accuracy),
		),
		ActionAttempted: "mark_delivered",
		Metadata: map[string]any{
			"distance_meters":       rounded,
			"required_range_meters": s.cfg.DeliveryRadiusMeters,
			"location_accuracy":     pos.Accuracy,
		},
	}

	created := s.createAlert(ctx, alert)
	return &domain.ValidationOutcome{
		Allowed:      false,
		Result:       result,
		AlertCreated: created,
		Message: fmt.Sprintf("you are %.0f m from the destination; deliveries must be confirmed within %.0f m",
			rounded, s.cfg.DeliveryRadiusMeters),
	}
}

func (s *GeofenceService) validateWithoutDestination(ctx context.Context, req ValidateDeliveryRequest) *domain.ValidationOutcome {
	result := domain.GeofenceResult{
		WithinRange:    true,
		DistanceMeters: -1,
	}

	created := false
	pos, err := s.positions.Latest(ctx, req.CourierID)
	if err == nil {
		result.CourierLocation = domain.Coordinate{
			Latitude:  pos.Latitude,
			Longitude: pos.Longitude,
			Accuracy:  pos.Accuracy,
		}
		created = s.createAlert(ctx, &domain.DeliveryAlert{
			PackageID:        req.PackageID,
			CourierID:        req.CourierID,
			CourierName:      req.CourierName,
			Type:             domain.AlertLocationUnavailable,
			Severity:         domain.SeverityMedium,
			CourierLatitude:  pos.Latitude,
			CourierLongitude: pos.Longitude,
			Title:            "Destination coordinates missing",
			Description: fmt.Sprintf(
				"Courier %s marked package %s delivered, but the receiver address has no coordinates so the delivery location could not be verified.",
				req.CourierName, req.PackageID),
			ActionAttempted: "mark_delivered",
			Metadata: map[string]any{
				"reason":           "missing_destination_coordinates",
				"courier_accuracy": pos.Accuracy,
			},
		})
	} else if err != cache.ErrNotFound {
		s.log.Warn("live position lookup failed",
			zap.String("courier_id", req.CourierID), zap.Error(err))
	}

	return &domain.ValidationOutcome{
		Allowed:      true,
		Result:       result,
		AlertCreated: created,
		Message:      "unable to verify delivery location (destination coordinates missing); the confirmation was recorded for review",
	}
}

func (s *GeofenceService) denyWithoutPosition(ctx context.Context, req ValidateDeliveryRequest) *domain.ValidationOutcome {
	created := s.createAlert(ctx, &domain.DeliveryAlert{
		PackageID:            req.PackageID,
		CourierID:            req.CourierID,
		CourierName:          req.CourierName,
		Type:                 domain.AlertLocationUnavailable,
		Severity:             domain.SeverityHigh,
		DestinationLatitude:  req.DestinationLat,
		DestinationLongitude: req.DestinationLon,
		Title:                "Courier position unavailable",
		Description: fmt.Sprintf(
			"Courier %s tried to mark package %s delivered, but no current position is available (GPS disabled, permission denied or tracking stopped).",
			req.CourierName, req.PackageID),
		ActionAttempted: "mark_delivered",
		Metadata: map[string]any{
			"reason": "location_service_unavailable",
		},
	})

	return &domain.ValidationOutcome{
		Allowed: false,
		Result: domain.GeofenceResult{
			WithinRange:    false,
			DistanceMeters: -1,
			DestinationLocation: &domain.Coordinate{
				Latitude:  *req.DestinationLat,
				Longitude: *req.DestinationLon,
			},
		},
		AlertCreated: created,
		Message:      "unable to determine your current location; check GPS settings and location permissions",
	}
}

func (s *GeofenceService) classifyDistance(distance float64) (domain.AlertType, domain.Severity) {
	switch {
	case distance > s.cfg.CriticalDistanceMeters:
		return domain.AlertSuspiciousLocation, domain.SeverityCritical
	case distance > s.cfg.SuspiciousDistanceMeters:
		return domain.AlertSuspiciousLocation, domain.SeverityHigh
	default:
		return domain.AlertDistanceViolation, domain.SeverityMedium
	}
}

func (s *GeofenceService) createAlert(ctx context.Context, alert *domain.DeliveryAlert) bool {
	if err := s.alerts.Create(ctx, alert); err != nil {
		s.log.Error("create delivery alert failed",
			zap.String("package_id", alert.PackageID),
			zap.String("alert_type", string(alert.Type)),
			zap.Error(err))
		return false
	}
	return true
}

func formatAccuracy(accuracy float64) string {
	if accuracy <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%.0f m", accuracy)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
