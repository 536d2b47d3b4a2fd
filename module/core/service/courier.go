package service

import (
	"context"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/cache"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
)

// CourierService serves the read side of courier tracking. Latest
// positions prefer the live store and fall back to the database when the
// cache entry expired.
type CourierService struct {
	repo  database.PositionRepository
	store cache.PositionStore
}

func NewCourierService(repo database.PositionRepository, store cache.PositionStore) *CourierService {
	return &CourierService{repo: repo, store: store}
}

func (s *CourierService) GetLatest(ctx context.Context, courierID string) (*domain.CourierPosition, error) {
	if pos, err := s.store.Latest(ctx, courierID); err == nil {
		return pos, nil
	}
	return s.repo.GetLatest(ctx, courierID)
}

func (s *CourierService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.CourierPosition, error) {
	return s.repo.GetHistory(ctx, query)
}

func (s *CourierService) GetAllCouriers(ctx context.Context) ([]domain.Courier, error) {
	return s.repo.GetAllCouriers(ctx)
}
