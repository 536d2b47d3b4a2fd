package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/publisher"
)

var _ publisher.AlertPublisher = (*AlertPublisher)(nil)

const (
	exchangeName = "delivery.events"
	queueName    = "delivery_alerts"
)

type AlertPublisher struct {
	ch *amqp.Channel
}

func NewAlertPublisher(conn *amqp.Connection) (*AlertPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &AlertPublisher{ch: ch}, nil
}

type alertMessage struct {
	ID          string           `json:"id,omitempty"`
	PackageID   string           `json:"package_id"`
	CourierID   string           `json:"courier_id"`
	CourierName string           `json:"courier_name"`
	Type        domain.AlertType `json:"alert_type"`
	Severity    domain.Severity  `json:"severity"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Latitude    float64          `json:"courier_latitude"`
	Longitude   float64          `json:"courier_longitude"`
	Distance    *float64         `json:"distance_from_destination,omitempty"`
}

func (p *AlertPublisher) PublishAlert(ctx context.Context, alert *domain.DeliveryAlert) error {
	msg := alertMessage{
		ID:          alert.ID,
		PackageID:   alert.PackageID,
		CourierID:   alert.CourierID,
		CourierName: alert.CourierName,
		Type:        alert.Type,
		Severity:    alert.Severity,
		Title:       alert.Title,
		Description: alert.Description,
		Latitude:    alert.CourierLatitude,
		Longitude:   alert.CourierLongitude,
		Distance:    alert.DistanceFromDestination,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	return p.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
