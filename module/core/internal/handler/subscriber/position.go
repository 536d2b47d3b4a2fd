package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/metrics"
)

const topicPattern = "/couriers/+/position"

type trackerService interface {
	ProcessFix(ctx context.Context, courierID string, fix *domain.PositionFix)
	Deactivate(ctx context.Context, courierID string)
}

type positionMessage struct {
	CourierID string  `json:"courier_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
	Event     string  `json:"event,omitempty"`
}

// PositionSubscriber feeds courier position fixes from MQTT into the
// tracker. Malformed messages are logged and dropped; the stream never
// stops on a bad payload.
type PositionSubscriber struct {
	client  mqtt.Client
	tracker trackerService
	log     *zap.Logger
}

func NewPositionSubscriber(client mqtt.Client, tracker trackerService, log *zap.Logger) *PositionSubscriber {
	return &PositionSubscriber{
		client:  client,
		tracker: tracker,
		log:     log,
	}
}

func (s *PositionSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *PositionSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw positionMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		metrics.FixesRejected.Inc()
		s.log.Warn("invalid position message", zap.Error(err))
		return
	}

	if err := validatePositionMessage(&raw); err != nil {
		metrics.FixesRejected.Inc()
		s.log.Warn("position message rejected",
			zap.String("courier_id", raw.CourierID), zap.Error(err))
		return
	}

	ctx := context.Background()

	// A courier going off shift publishes a final stop event on the same
	// topic so its live position expires instead of lingering.
	if raw.Event == "stop" {
		s.tracker.Deactivate(ctx, raw.CourierID)
		return
	}

	s.tracker.ProcessFix(ctx, raw.CourierID, &domain.PositionFix{
		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,
		Accuracy:  raw.Accuracy,
		Speed:     raw.Speed,
		Timestamp: time.Unix(raw.Timestamp, 0),
	})
}

func validatePositionMessage(msg *positionMessage) error {
	if msg.CourierID == "" {
		return fmt.Errorf("courier_id: required")
	}
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Event == "stop" {
		return nil
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	if msg.Accuracy < 0 {
		return fmt.Errorf("accuracy: must not be negative")
	}
	if msg.Speed < 0 {
		return fmt.Errorf("speed: must not be negative")
	}
	return nil
}
