package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/metrics"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/cache"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
)

// TrackerConfig tunes the per-courier position pipeline.
type TrackerConfig struct {
	SmoothingAlpha       float64
	MovingSpeedThreshold float64
	MovingWriteInterval  time.Duration
	StaticWriteInterval  time.Duration
}

func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		SmoothingAlpha:       DefaultSmoothingAlpha,
		MovingSpeedThreshold: 0.5,
		MovingWriteInterval:  10 * time.Second,
		StaticWriteInterval:  60 * time.Second,
	}
}

// courierState is the per-courier pipeline state. Each courier gets its
// own smoother and write throttle so fix streams never interfere.
type courierState struct {
	smoother  *CoordinateSmoother
	lastWrite time.Time
}

// TrackerService ingests raw position fixes, smooths them, classifies
// movement and throttles the durable writes. The live store is updated on
// the same cadence as the database so the delivery gate and the map read
// the same position.
type TrackerService struct {
	repo  database.PositionRepository
	store cache.PositionStore
	cfg   TrackerConfig
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	couriers map[string]*courierState
}

func NewTrackerService(repo database.PositionRepository, store cache.PositionStore, cfg TrackerConfig, log *zap.Logger) *TrackerService {
	return &TrackerService{
		repo:     repo,
		store:    store,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		couriers: make(map[string]*courierState),
	}
}

// ProcessFix runs one raw fix through the courier's pipeline. Storage
// failures are logged and swallowed; the stream must survive a flaky
// backend, and the throttle clock only advances on a successful write so
// the next fix retries immediately.
func (s *TrackerService) ProcessFix(ctx context.Context, courierID string, fix *domain.PositionFix) {
	metrics.FixesProcessed.Inc()

	s.mu.Lock()
	state, ok := s.couriers[courierID]
	if !ok {
		state = &courierState{smoother: NewCoordinateSmoother(s.cfg.SmoothingAlpha)}
		s.couriers[courierID] = state
		metrics.TrackedCouriers.Set(float64(len(s.couriers)))
	}

	lat, lon := state.smoother.Smooth(fix.Latitude, fix.Longitude)
	status := s.classify(fix.Speed)

	interval := s.cfg.StaticWriteInterval
	if status == domain.StatusMoving {
		interval = s.cfg.MovingWriteInterval
	}
	now := s.now()
	if !state.lastWrite.IsZero() && now.Sub(state.lastWrite) < interval {
		s.mu.Unlock()
		metrics.WritesThrottled.Inc()
		return
	}
	s.mu.Unlock()

	pos := &domain.CourierPosition{
		CourierID:  courierID,
		Latitude:   lat,
		Longitude:  lon,
		Accuracy:   fix.Accuracy,
		Status:     status,
		LastUpdate: fix.Timestamp,
	}

	if err := s.repo.Upsert(ctx, pos); err != nil {
		s.log.Error("position upsert failed",
			zap.String("courier_id", courierID), zap.Error(err))
		return
	}
	if err := s.repo.TouchCourier(ctx, pos); err != nil {
		s.log.Warn("courier touch failed",
			zap.String("courier_id", courierID), zap.Error(err))
	}
	if err := s.store.Set(ctx, pos); err != nil {
		s.log.Warn("live store update failed",
			zap.String("courier_id", courierID), zap.Error(err))
	}
	metrics.PositionWrites.Inc()

	s.mu.Lock()
	if st, ok := s.couriers[courierID]; ok {
		st.lastWrite = now
	}
	s.mu.Unlock()
}

// Deactivate drops the courier's pipeline state and live position, used
// when a courier goes off shift. The next fix starts a fresh smoother.
func (s *TrackerService) Deactivate(ctx context.Context, courierID string) {
	s.mu.Lock()
	delete(s.couriers, courierID)
	metrics.TrackedCouriers.Set(float64(len(s.couriers)))
	s.mu.Unlock()

	if err := s.store.Delete(ctx, courierID); err != nil {
		s.log.Warn("live store delete failed",
			zap.String("courier_id", courierID), zap.Error(err))
	}
}

func (s *TrackerService) classify(speed float64) domain.MovementStatus {
	if speed > s.cfg.MovingSpeedThreshold {
		return domain.StatusMoving
	}
	return domain.StatusStatic
}
