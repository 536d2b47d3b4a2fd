package domain

import "time"

type AlertType string

const (
	AlertDistanceViolation   AlertType = "distance_violation"
	AlertSuspiciousLocation  AlertType = "suspicious_location"
	AlertLocationViolation   AlertType = "location_violation"
	AlertPhotoViolation      AlertType = "photo_violation"
	AlertLocationUnavailable AlertType = "location_unavailable"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AlertStatus tracks the operator workflow of an alert. Alerts are always
// created pending; only an operator moves them to a terminal state.
type AlertStatus string

const (
	AlertStatusPending      AlertStatus = "pending"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusDismissed    AlertStatus = "dismissed"
)

// CanTransitionTo reports whether an operator may move an alert from s to
// next. Acknowledged, resolved and dismissed are all terminal.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	if s != AlertStatusPending {
		return false
	}
	switch next {
	case AlertStatusAcknowledged, AlertStatusResolved, AlertStatusDismissed:
		return true
	}
	return false
}

// DeliveryAlert records a detected delivery anomaly for operator review.
// Destination coordinates and distance are absent when they could not be
// determined at detection time.
type DeliveryAlert struct {
	ID                      string         `json:"id,omitempty"`
	PackageID               string         `json:"package_id"`
	CourierID               string         `json:"courier_id"`
	CourierName             string         `json:"courier_name"`
	Type                    AlertType      `json:"alert_type"`
	Severity                Severity       `json:"severity"`
	CourierLatitude         float64        `json:"courier_latitude"`
	CourierLongitude        float64        `json:"courier_longitude"`
	DestinationLatitude     *float64       `json:"destination_latitude,omitempty"`
	DestinationLongitude    *float64       `json:"destination_longitude,omitempty"`
	DistanceFromDestination *float64       `json:"distance_from_destination,omitempty"`
	Title                   string         `json:"title"`
	Description             string         `json:"description"`
	ActionAttempted         string         `json:"action_attempted,omitempty"`
	Status                  AlertStatus    `json:"status"`
	Metadata                map[string]any `json:"metadata,omitempty"`
	CreatedAt               time.Time      `json:"created_at,omitempty"`
}
