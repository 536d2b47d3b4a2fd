package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/service"
)

type mockAlertService struct {
	listFn         func(ctx context.Context, status domain.AlertStatus) ([]domain.DeliveryAlert, error)
	pendingCountFn func(ctx context.Context) (int, error)
	updateStatusFn func(ctx context.Context, alertID string, next domain.AlertStatus, resolvedBy, notes string) error
}

func (m *mockAlertService) List(ctx context.Context, status domain.AlertStatus) ([]domain.DeliveryAlert, error) {
	return m.listFn(ctx, status)
}

func (m *mockAlertService) PendingCount(ctx context.Context) (int, error) {
	return m.pendingCountFn(ctx)
}

func (m *mockAlertService) UpdateStatus(ctx context.Context, alertID string, next domain.AlertStatus, resolvedBy, notes string) error {
	return m.updateStatusFn(ctx, alertID, next, resolvedBy, notes)
}

func setupAlertRouter(svc alertService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAlertHandler(svc)
	h.Register(r.Group(""))
	return r
}

func TestListAlerts_FilterByStatus(t *testing.T) {
	svc := &mockAlertService{
		listFn: func(_ context.Context, status domain.AlertStatus) ([]domain.DeliveryAlert, error) {
			if status != domain.AlertStatusPending {
				t.Fatalf("expected pending filter, got %s", status)
			}
			return []domain.DeliveryAlert{
				{ID: "a1", PackageID: "PKG-1", Type: domain.AlertDistanceViolation, Status: domain.AlertStatusPending},
			}, nil
		},
	}

	r := setupAlertRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/alerts?status=pending", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Alerts []domain.DeliveryAlert `json:"alerts"`
		Count  int                    `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 || len(resp.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", resp.Count)
	}
	if resp.Alerts[0].ID != "a1" {
		t.Errorf("expected a1, got %s", resp.Alerts[0].ID)
	}
}

func TestListAlerts_Error(t *testing.T) {
	svc := &mockAlertService{
		listFn: func(_ context.Context, _ domain.AlertStatus) ([]domain.DeliveryAlert, error) {
			return nil, errors.New("db error")
		},
	}

	r := setupAlertRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/alerts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestPendingCount(t *testing.T) {
	svc := &mockAlertService{
		pendingCountFn: func(_ context.Context) (int, error) { return 7, nil },
	}

	r := setupAlertRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/alerts/pending/count", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 7 {
		t.Errorf("expected 7, got %d", resp.Count)
	}
}

func patchStatus(t *testing.T, r *gin.Engine, alertID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/alerts/"+alertID+"/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateAlertStatus(t *testing.T) {
	tests := []struct {
		name     string
		svcErr   error
		wantCode int
	}{
		{"ok", nil, http.StatusOK},
		{"invalid status", service.ErrInvalidStatus, http.StatusBadRequest},
		{"not found", database.ErrNotFound, http.StatusNotFound},
		{"already handled", database.ErrAlertNotPending, http.StatusConflict},
		{"db error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAlertService{
				updateStatusFn: func(_ context.Context, alertID string, next domain.AlertStatus, resolvedBy, _ string) error {
					if alertID != "a1" {
						t.Fatalf("unexpected alertID: %s", alertID)
					}
					if next != domain.AlertStatusResolved {
						t.Fatalf("unexpected status: %s", next)
					}
					if resolvedBy != "admin" {
						t.Fatalf("unexpected resolver: %s", resolvedBy)
					}
					return tt.svcErr
				},
			}

			r := setupAlertRouter(svc)
			w := patchStatus(t, r, "a1", gin.H{"status": "resolved", "resolved_by": "admin", "notes": "verified"})
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
		})
	}
}

func TestUpdateAlertStatus_MissingBody(t *testing.T) {
	r := setupAlertRouter(&mockAlertService{})
	w := patchStatus(t, r, "a1", gin.H{"notes": "no status"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
