package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/cache"
)

var _ cache.PositionStore = (*PositionStore)(nil)

const geoKeyCouriers = "geo:couriers"

type PositionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPositionStore(client *redis.Client, ttl time.Duration) *PositionStore {
	return &PositionStore{client: client, ttl: ttl}
}

func positionKey(courierID string) string {
	return "courier:position:" + courierID
}

func (s *PositionStore) Set(ctx context.Context, pos *domain.CourierPosition) error {
	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}

	if err := s.client.Set(ctx, positionKey(pos.CourierID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set position: %w", err)
	}

	// Geo index for radius queries; best effort alongside the keyed entry.
	if err := s.client.GeoAdd(ctx, geoKeyCouriers, &redis.GeoLocation{
		Name:      pos.CourierID,
		Longitude: pos.Longitude,
		Latitude:  pos.Latitude,
	}).Err(); err != nil {
		return fmt.Errorf("geo add: %w", err)
	}
	return nil
}

func (s *PositionStore) Latest(ctx context.Context, courierID string) (*domain.CourierPosition, error) {
	data, err := s.client.Get(ctx, positionKey(courierID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("get position: %w", err)
	}

	var pos domain.CourierPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, fmt.Errorf("unmarshal position: %w", err)
	}
	return &pos, nil
}

func (s *PositionStore) Delete(ctx context.Context, courierID string) error {
	if err := s.client.Del(ctx, positionKey(courierID)).Err(); err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if err := s.client.ZRem(ctx, geoKeyCouriers, courierID).Err(); err != nil {
		return fmt.Errorf("geo remove: %w", err)
	}
	return nil
}
