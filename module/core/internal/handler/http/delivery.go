package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/service"
)

type geofenceValidator interface {
	ValidateDelivery(ctx context.Context, req service.ValidateDeliveryRequest) *domain.ValidationOutcome
}

type violationAuditor interface {
	Audit(ctx context.Context, conf *domain.DeliveryConfirmation)
}

type packageReader interface {
	GetBinding(ctx context.Context, packageID string) (*domain.PackageBinding, error)
}

type deliveryConfirmRequest struct {
	CourierID   string   `json:"courier_id" binding:"required"`
	CourierName string   `json:"courier_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// DeliveryHandler exposes the delivery confirmation gate. The proximity
// decision is synchronous; the post-confirmation audit runs detached so a
// slow check never holds the courier's request.
type DeliveryHandler struct {
	geofenceSvc  geofenceValidator
	violationSvc violationAuditor
	packages     packageReader
	auditTimeout time.Duration
}

func NewDeliveryHandler(geofenceSvc geofenceValidator, violationSvc violationAuditor, packages packageReader) *DeliveryHandler {
	return &DeliveryHandler{
		geofenceSvc:  geofenceSvc,
		violationSvc: violationSvc,
		packages:     packages,
		auditTimeout: 30 * time.Second,
	}
}

func (h *DeliveryHandler) Register(r *gin.RouterGroup) {
	r.POST("/packages/:package_id/delivery-confirmation", h.ConfirmDelivery)
}

func (h *DeliveryHandler) ConfirmDelivery(c *gin.Context) {
	packageID := c.Param("package_id")

	var req deliveryConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courier_id is required"})
		return
	}

	binding, err := h.packages.GetBinding(c.Request.Context(), packageID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "package not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch package"})
		return
	}

	courierName := req.CourierName
	if courierName == "" {
		courierName = binding.CourierName
	}

	outcome := h.geofenceSvc.ValidateDelivery(c.Request.Context(), service.ValidateDeliveryRequest{
		PackageID:      packageID,
		CourierID:      req.CourierID,
		CourierName:    courierName,
		DestinationLat: binding.ReceiverLatitude,
		DestinationLon: binding.ReceiverLongitude,
	})

	if !outcome.Allowed {
		c.JSON(http.StatusForbidden, gin.H{
			"allowed":       false,
			"message":       outcome.Message,
			"alert_created": outcome.AlertCreated,
			"result":        outcome.Result,
		})
		return
	}

	// The audit rechecks the coordinates the device reported at the moment
	// of confirmation; the tracked position stands in when none were sent.
	confLat := outcome.Result.CourierLocation.Latitude
	confLon := outcome.Result.CourierLocation.Longitude
	if req.Latitude != nil && req.Longitude != nil {
		confLat, confLon = *req.Latitude, *req.Longitude
	}

	conf := &domain.DeliveryConfirmation{
		PackageID:        packageID,
		CourierID:        req.CourierID,
		CourierName:      courierName,
		CourierLatitude:  confLat,
		CourierLongitude: confLon,
		ConfirmedAt:      time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.auditTimeout)
		defer cancel()
		h.violationSvc.Audit(ctx, conf)
	}()

	c.JSON(http.StatusOK, gin.H{
		"allowed":       true,
		"message":       outcome.Message,
		"alert_created": outcome.AlertCreated,
		"result":        outcome.Result,
	})
}
