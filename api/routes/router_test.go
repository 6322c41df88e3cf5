package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Luksow29/classic-offset-backend/internal/notifications"
	"github.com/Luksow29/classic-offset-backend/internal/orders"
	"github.com/Luksow29/classic-offset-backend/internal/requests"
	"github.com/Luksow29/classic-offset-backend/pkg/config"
	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct{}

func (stubOrdersService) RecordStatusChange(ctx context.Context, input orders.RecordStatusChangeInput) (*models.OrderStatusLog, error) {
	return &models.OrderStatusLog{}, nil
}

func (stubOrdersService) CurrentStatus(ctx context.Context, orderID uuid.UUID) (string, error) {
	return "Pending", nil
}

func (stubOrdersService) GetOrderView(ctx context.Context, orderID uuid.UUID) (*orders.OrderView, error) {
	return &orders.OrderView{ID: orderID}, nil
}

func (stubOrdersService) ListCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]orders.OrderView, error) {
	return nil, nil
}

type stubRequestsService struct{}

func (stubRequestsService) CreateRequest(ctx context.Context, input requests.CreateRequestInput) (*requests.RequestView, error) {
	return &requests.RequestView{}, nil
}

func (stubRequestsService) SendQuote(ctx context.Context, input requests.SendQuoteInput) (*requests.RequestView, error) {
	return &requests.RequestView{}, nil
}

func (stubRequestsService) RespondToQuote(ctx context.Context, input requests.RespondInput) (*requests.RequestView, error) {
	return &requests.RequestView{}, nil
}

func (stubRequestsService) GetRequestView(ctx context.Context, requestID uuid.UUID) (*requests.RequestView, error) {
	return &requests.RequestView{ID: requestID}, nil
}

func (stubRequestsService) ListCustomerRequests(ctx context.Context, customerID uuid.UUID) ([]requests.RequestView, error) {
	return nil, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Dispatch(ctx context.Context, input notifications.DispatchInput) (*models.Notification, error) {
	return &models.Notification{}, nil
}

func (stubNotificationsService) DispatchBulk(ctx context.Context, userIDs []uuid.UUID, input notifications.DispatchInput) (notifications.BulkResult, error) {
	return notifications.BulkResult{}, nil
}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) SetPreference(ctx context.Context, input notifications.PreferenceInput) error {
	return nil
}

func newTestRouter(t *testing.T, metrics prometheus.Gatherer) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Config:        &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:            stubPinger{},
		Orders:        stubOrdersService{},
		Requests:      stubRequestsService{},
		Notifications: stubNotificationsService{},
		Metrics:       metrics,
	})
}

func TestRouterMountsDomainRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{method: http.MethodGet, path: "/orders?customerId=" + uuid.NewString(), status: http.StatusOK},
		{method: http.MethodGet, path: "/orders/" + uuid.NewString(), status: http.StatusOK},
		{method: http.MethodGet, path: "/requests/" + uuid.NewString(), status: http.StatusOK},
		{method: http.MethodGet, path: "/notifications?userId=" + uuid.NewString(), status: http.StatusOK},
		{method: http.MethodGet, path: "/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tt.status {
			t.Fatalf("%s %s: expected %d got %d (%s)", tt.method, tt.path, tt.status, resp.Code, resp.Body.String())
		}
	}
}

func TestRouterHealthzDegradedWithoutRedis(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["db"] != "ok" {
		t.Fatalf("expected db ok, got %q", envelope.Data["db"])
	}
	if envelope.Data["redis"] != "down" {
		t.Fatalf("expected redis down, got %q", envelope.Data["redis"])
	}
}

func TestRouterServesMetricsWhenGathererSet(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := newTestRouter(t, registry)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	withoutMetrics := newTestRouter(t, nil)
	resp = httptest.NewRecorder()
	withoutMetrics.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without gatherer, got %d", resp.Code)
	}
}
