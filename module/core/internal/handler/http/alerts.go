package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/service"
)

type alertService interface {
	List(ctx context.Context, status domain.AlertStatus) ([]domain.DeliveryAlert, error)
	PendingCount(ctx context.Context) (int, error)
	UpdateStatus(ctx context.Context, alertID string, next domain.AlertStatus, resolvedBy, notes string) error
}

type alertStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	ResolvedBy string `json:"resolved_by"`
	Notes      string `json:"notes"`
}

type AlertHandler struct {
	alertSvc alertService
}

func NewAlertHandler(alertSvc alertService) *AlertHandler {
	return &AlertHandler{alertSvc: alertSvc}
}

func (h *AlertHandler) Register(r *gin.RouterGroup) {
	r.GET("/alerts", h.ListAlerts)
	r.GET("/alerts/pending/count", h.PendingCount)
	r.PATCH("/alerts/:alert_id/status", h.UpdateStatus)
}

func (h *AlertHandler) ListAlerts(c *gin.Context) {
	status := domain.AlertStatus(c.Query("status"))

	alerts, err := h.alertSvc.List(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

func (h *AlertHandler) PendingCount(c *gin.Context) {
	count, err := h.alertSvc.PendingCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *AlertHandler) UpdateStatus(c *gin.Context) {
	alertID := c.Param("alert_id")

	var req alertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	err := h.alertSvc.UpdateStatus(c.Request.Context(), alertID,
		domain.AlertStatus(req.Status), req.ResolvedBy, req.Notes)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"updated": true})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
	case errors.Is(err, database.ErrAlertNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "alert already handled"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update alert"})
	}
}
