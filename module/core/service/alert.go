package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/metrics"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/publisher"
)

// ErrInvalidStatus is returned when an alert status update names a state
// the alert cannot move to.
var ErrInvalidStatus = fmt.Errorf("invalid alert status transition")

// AlertService persists delivery alerts and fans them out to the
// configured publishers. Publisher failures never fail the creation:
// the durable row is the source of truth, fan-out is best effort.
type AlertService struct {
	repo       database.AlertRepository
	publishers []publisher.AlertPublisher
	log        *zap.Logger
	now        func() time.Time
}

func NewAlertService(repo database.AlertRepository, publishers []publisher.AlertPublisher, log *zap.Logger) *AlertService {
	return &AlertService{
		repo:       repo,
		publishers: publishers,
		log:        log,
		now:        time.Now,
	}
}

func (s *AlertService) Create(ctx context.Context, alert *domain.DeliveryAlert) error {
	alert.Status = domain.AlertStatusPending
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = s.now()
	}

	if err := s.repo.Insert(ctx, alert); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	metrics.AlertsCreated.WithLabelValues(string(alert.Type), string(alert.Severity)).Inc()

	for _, pub := range s.publishers {
		if err := pub.PublishAlert(ctx, alert); err != nil {
			s.log.Error("alert fan-out failed",
				zap.String("alert_id", alert.ID),
				zap.String("alert_type", string(alert.Type)),
				zap.Error(err))
		}
	}
	return nil
}

func (s *AlertService) List(ctx context.Context, status domain.AlertStatus) ([]domain.DeliveryAlert, error) {
	return s.repo.List(ctx, status)
}

func (s *AlertService) PendingCount(ctx context.Context) (int, error) {
	return s.repo.CountPending(ctx)
}

// UpdateStatus moves a pending alert to one of its terminal states.
func (s *AlertService) UpdateStatus(ctx context.Context, alertID string, next domain.AlertStatus, resolvedBy, notes string) error {
	if !domain.AlertStatusPending.CanTransitionTo(next) {
		return fmt.Errorf("%w: pending -> %s", ErrInvalidStatus, next)
	}
	return s.repo.UpdateStatus(ctx, alertID, next, resolvedBy, notes)
}
