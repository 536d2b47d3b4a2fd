package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
)

type courierService interface {
	GetLatest(ctx context.Context, courierID string) (*domain.CourierPosition, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.CourierPosition, error)
	GetAllCouriers(ctx context.Context) ([]domain.Courier, error)
}

type positionResponse struct {
	CourierID  string  `json:"courier_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Accuracy   float64 `json:"accuracy,omitempty"`
	Status     string  `json:"status"`
	LastUpdate int64   `json:"last_update"`
}

type CourierHandler struct {
	courierSvc courierService
}

func NewCourierHandler(courierSvc courierService) *CourierHandler {
	return &CourierHandler{courierSvc: courierSvc}
}

func (h *CourierHandler) Register(r *gin.RouterGroup) {
	r.GET("/couriers", h.GetAllCouriers)
	r.GET("/couriers/:courier_id/position", h.GetLatestPosition)
	r.GET("/couriers/:courier_id/history", h.GetHistory)
}

func (h *CourierHandler) GetAllCouriers(c *gin.Context) {
	couriers, err := h.courierSvc.GetAllCouriers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch couriers"})
		return
	}

	c.JSON(http.StatusOK, couriers)
}

func (h *CourierHandler) GetLatestPosition(c *gin.Context) {
	courierID := c.Param("courier_id")

	pos, err := h.courierSvc.GetLatest(c.Request.Context(), courierID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "courier not found"})
		return
	}

	c.JSON(http.StatusOK, toPositionResponse(pos))
}

func (h *CourierHandler) GetHistory(c *gin.Context) {
	courierID := c.Param("courier_id")

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	query := &domain.HistoryQuery{
		CourierID: courierID,
		Start:     time.Unix(start, 0),
		End:       time.Unix(end, 0),
	}

	positions, err := h.courierSvc.GetHistory(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]positionResponse, len(positions))
	for i, pos := range positions {
		results[i] = toPositionResponse(&pos)
	}
	c.JSON(http.StatusOK, results)
}

func toPositionResponse(pos *domain.CourierPosition) positionResponse {
	return positionResponse{
		CourierID:  pos.CourierID,
		Latitude:   pos.Latitude,
		Longitude:  pos.Longitude,
		Accuracy:   pos.Accuracy,
		Status:     string(pos.Status),
		LastUpdate: pos.LastUpdate.Unix(),
	}
}
