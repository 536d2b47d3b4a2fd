package domain

import "time"

// MovementStatus classifies a courier's instantaneous movement state,
// derived from the reported speed of the latest position fix.
type MovementStatus string

const (
	StatusMoving MovementStatus = "moving"
	StatusStatic MovementStatus = "static"
)

// PositionFix is a raw reading from a courier device's location sensor.
// Accuracy and Speed are optional; zero means unreported.
type PositionFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Speed     float64   `json:"speed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CourierPosition is the smoothed position persisted per courier.
type CourierPosition struct {
	CourierID  string         `json:"courier_id"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Accuracy   float64        `json:"accuracy,omitempty"`
	Status     MovementStatus `json:"status"`
	LastUpdate time.Time      `json:"last_update"`
}

type Courier struct {
	CourierID string `json:"courier_id"`
}

type HistoryQuery struct {
	CourierID string
	Start     time.Time
	End       time.Time
}
