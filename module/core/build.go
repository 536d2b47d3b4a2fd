package core

import (
	"context"
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/huangdelun16-lgtm/ml-express-sub006/config"
	handler "github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/handler/http"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/handler/subscriber"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/handler/ws"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/cache/redis"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database/postgres"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/publisher"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/publisher/rabbitmq"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/service"
)

type Module struct {
	TrackerSvc   *service.TrackerService
	GeofenceSvc  *service.GeofenceService
	AlertSvc     *service.AlertService
	ViolationSvc *service.ViolationService
	CourierSvc   *service.CourierService

	scheduler  *service.DelayScheduler
	hub        *ws.Hub
	handlers   []routeRegistrar
	subscriber *subscriber.PositionSubscriber
}

type routeRegistrar interface {
	Register(r *gin.RouterGroup)
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *goredis.Client, cfg *config.Config, log *zap.Logger) (*Module, error) {
	positionRepo := postgres.NewPositionRepo(db)
	alertRepo := postgres.NewAlertRepo(db)
	packageRepo := postgres.NewPackageRepo(db)
	positionStore := redis.NewPositionStore(redisClient, cfg.LivePositionTTL)

	alertPub, err := rabbitmq.NewAlertPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}

	hub := ws.NewHub(log)
	alertSvc := service.NewAlertService(alertRepo, []publisher.AlertPublisher{alertPub, hub}, log)

	trackerSvc := service.NewTrackerService(positionRepo, positionStore, service.TrackerConfig{
		SmoothingAlpha:       cfg.SmoothingAlpha,
		MovingSpeedThreshold: cfg.MovingSpeedThreshold,
		MovingWriteInterval:  cfg.MovingWriteInterval,
		StaticWriteInterval:  cfg.StaticWriteInterval,
	}, log)

	geofenceSvc := service.NewGeofenceService(positionStore, alertSvc, service.GeofenceConfig{
		DeliveryRadiusMeters:     cfg.DeliveryRadiusMeters,
		SuspiciousDistanceMeters: cfg.SuspiciousDistanceMeters,
		CriticalDistanceMeters:   cfg.CriticalDistanceMeters,
	}, log)

	scheduler := service.NewDelayScheduler()
	violationSvc := service.NewViolationService(packageRepo, packageRepo, alertSvc,
		service.RetryPolicy{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
		scheduler,
		service.ViolationConfig{
			DeliveryRadiusMeters:   cfg.DeliveryRadiusMeters,
			CriticalDistanceMeters: cfg.CriticalDistanceMeters,
			PhotoCheckDelay:        cfg.PhotoCheckDelay,
		}, log)

	courierSvc := service.NewCourierService(positionRepo, positionStore)

	sub := subscriber.NewPositionSubscriber(mqttClient, trackerSvc, log)

	return &Module{
		TrackerSvc:   trackerSvc,
		GeofenceSvc:  geofenceSvc,
		AlertSvc:     alertSvc,
		ViolationSvc: violationSvc,
		CourierSvc:   courierSvc,
		scheduler:    scheduler,
		hub:          hub,
		handlers: []routeRegistrar{
			handler.NewCourierHandler(courierSvc),
			handler.NewDeliveryHandler(geofenceSvc, violationSvc, packageRepo),
			handler.NewAlertHandler(alertSvc),
		},
		subscriber: sub,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	for _, h := range m.handlers {
		h.Register(r)
	}
	r.GET("/ws/alerts", func(c *gin.Context) {
		m.hub.ServeWS(c.Writer, c.Request)
	})
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// Run drives the websocket hub until ctx is cancelled.
func (m *Module) Run(ctx context.Context) {
	m.hub.Run(ctx)
}

// Shutdown cancels the deferred photo checks still pending.
func (m *Module) Shutdown() {
	m.scheduler.Shutdown()
}
