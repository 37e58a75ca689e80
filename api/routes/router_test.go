package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/angelmondragon/orderflow-backend/internal/cart"
	"github.com/angelmondragon/orderflow-backend/internal/fulfillment"
	"github.com/angelmondragon/orderflow-backend/internal/history"
	"github.com/angelmondragon/orderflow-backend/internal/orders"
	"github.com/angelmondragon/orderflow-backend/internal/reviews"
	"github.com/angelmondragon/orderflow-backend/pkg/config"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
	"github.com/angelmondragon/orderflow-backend/pkg/types"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type memoryRedis struct {
	stubPinger
	data   map[string]string
	counts map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

type stubFulfillment struct {
	creates int
	create  func(userID uuid.UUID, shipping types.ShippingInfo) (*models.Order, error)
	cancel  func(userID, orderID uuid.UUID) (*models.Order, error)
}

func (s *stubFulfillment) CreateOrderFromCart(_ context.Context, userID uuid.UUID, shipping types.ShippingInfo) (*models.Order, error) {
	s.creates++
	return s.create(userID, shipping)
}

func (s *stubFulfillment) CancelOrder(_ context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.cancel(userID, orderID)
}

type stubOrders struct{}

func (stubOrders) Get(_ context.Context, _, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (stubOrders) List(_ context.Context, userID uuid.UUID, _ pagination.Params, _ orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{Orders: []orders.OrderDTO{}}, nil
}

type stubCart struct{}

func (stubCart) GetOrCreateActive(context.Context, uuid.UUID) (*models.Cart, error) {
	return nil, errors.New("not used")
}

func (stubCart) GetCart(_ context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return cart.EmptyCartDTO(userID), nil
}

func (stubCart) AddItem(context.Context, uuid.UUID, uuid.UUID, int) (*cart.CartDTO, error) {
	return nil, errors.New("not used")
}

func (stubCart) UpdateItemQuantity(context.Context, uuid.UUID, uuid.UUID, int) (*cart.CartDTO, error) {
	return nil, errors.New("not used")
}

func (stubCart) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (*cart.CartDTO, error) {
	return nil, errors.New("not used")
}

func (stubCart) ClearCart(_ context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return cart.EmptyCartDTO(userID), nil
}

type stubHistory struct{}

func (stubHistory) ListByOrder(_ context.Context, _, orderID uuid.UUID) (*history.OrderHistoryDTO, error) {
	return &history.OrderHistoryDTO{OrderID: orderID, Entries: []history.EntryDTO{}}, nil
}

type stubReviews struct {
	created []reviews.CreateReviewInput
}

func (s *stubReviews) Create(_ context.Context, userID uuid.UUID, input reviews.CreateReviewInput) (*reviews.ReviewDTO, error) {
	s.created = append(s.created, input)
	return &reviews.ReviewDTO{ID: uuid.New(), ProductID: input.ProductID, UserID: userID, Rating: input.Rating}, nil
}

func (s *stubReviews) ListByProduct(context.Context, uuid.UUID, pagination.Params) (*reviews.ReviewList, error) {
	return &reviews.ReviewList{Reviews: []reviews.ReviewDTO{}}, nil
}

func (s *stubReviews) ListByUser(context.Context, uuid.UUID, pagination.Params) (*reviews.ReviewList, error) {
	return &reviews.ReviewList{Reviews: []reviews.ReviewDTO{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Env: "test"},
		RateLimit: config.RateLimitConfig{Window: time.Minute, UserLimit: 100},
		HTTP:      config.HTTPConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.Disabled, Output: io.Discard})
}

func confirmedOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        enums.OrderStatusConfirmed,
		ItemCount:     3,
		SubtotalCents: 2997,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

func newTestRouter(t *testing.T, rdb *memoryRedis, fs *stubFulfillment) http.Handler {
	t.Helper()
	return NewRouter(testConfig(), testLogger(), stubPinger{}, rdb, Services{
		Cart:        stubCart{},
		Orders:      stubOrders{},
		Fulfillment: fs,
		History:     stubHistory{},
		Reviews:     &stubReviews{},
	})
}

const shippingBody = `{"shipping_info":{"recipient_name":"Ada","line1":"1 Main St","city":"Austin","state":"TX","postal_code":"78701"}}`

func TestHealthRoutesSkipIdentity(t *testing.T) {
	router := newTestRouter(t, newMemoryRedis(), &stubFulfillment{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Orderflow-Env") != "test" {
			t.Fatalf("%s: missing env header", path)
		}
	}
}

func TestReadyFailsWhenDependencyDown(t *testing.T) {
	rdb := newMemoryRedis()
	rdb.err = errors.New("redis down")
	router := newTestRouter(t, rdb, &stubFulfillment{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAPIRequiresUserID(t *testing.T) {
	router := newTestRouter(t, newMemoryRedis(), &stubFulfillment{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestGetCartReturnsEnvelope(t *testing.T) {
	router := newTestRouter(t, newMemoryRedis(), &stubFulfillment{})
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-Id", userID.String())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Data cart.CartDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.UserID != userID {
		t.Fatalf("expected cart for %s, got %s", userID, body.Data.UserID)
	}
}

func TestCreateOrderIsIdempotent(t *testing.T) {
	userID := uuid.New()
	order := confirmedOrder(userID)
	fs := &stubFulfillment{
		create: func(got uuid.UUID, shipping types.ShippingInfo) (*models.Order, error) {
			if got != userID {
				return nil, fmt.Errorf("unexpected user %s", got)
			}
			if shipping.RecipientName != "Ada" {
				return nil, fmt.Errorf("shipping not decoded: %+v", shipping)
			}
			return order, nil
		},
	}
	router := newTestRouter(t, newMemoryRedis(), fs)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(shippingBody))
		req.Header.Set("X-User-Id", userID.String())
		req.Header.Set("Idempotency-Key", "order-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay body differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}
	if fs.creates != 1 {
		t.Fatalf("expected one placement, got %d", fs.creates)
	}
}

func TestCreateOrderRequiresIdempotencyKey(t *testing.T) {
	fs := &stubFulfillment{}
	router := newTestRouter(t, newMemoryRedis(), fs)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(shippingBody))
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if fs.creates != 0 {
		t.Fatal("fulfillment should not run without a key")
	}
}

func TestCreateOrderMapsInsufficientStock(t *testing.T) {
	productID := uuid.New()
	fs := &stubFulfillment{
		create: func(uuid.UUID, types.ShippingInfo) (*models.Order, error) {
			shortage := &fulfillment.InsufficientStockError{ProductID: productID, Requested: 3, Available: 2}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, shortage, "insufficient stock").
				WithDetails([]map[string]any{{"product_id": productID.String(), "requested": 3, "available": 2}})
		},
	}
	router := newTestRouter(t, newMemoryRedis(), fs)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(shippingBody))
	req.Header.Set("X-User-Id", uuid.NewString())
	req.Header.Set("Idempotency-Key", "short-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Code    string           `json:"code"`
			Details []map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if len(body.Error.Details) != 1 || body.Error.Details[0]["product_id"] != productID.String() {
		t.Fatalf("unexpected details %v", body.Error.Details)
	}
}

func TestCancelOrderStateConflict(t *testing.T) {
	orderID := uuid.New()
	fs := &stubFulfillment{
		cancel: func(_, got uuid.UUID) (*models.Order, error) {
			if got != orderID {
				return nil, fmt.Errorf("unexpected order %s", got)
			}
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be cancelled")
		},
	}
	router := newTestRouter(t, newMemoryRedis(), fs)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	req.Header.Set("Idempotency-Key", "cancel-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestOrderRoutesResolveParams(t *testing.T) {
	router := newTestRouter(t, newMemoryRedis(), &stubFulfillment{})
	userID := uuid.NewString()

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/orders", http.StatusOK},
		{"/api/v1/orders/" + uuid.NewString(), http.StatusNotFound},
		{"/api/v1/orders/not-a-uuid", http.StatusBadRequest},
		{"/api/v1/orders/" + uuid.NewString() + "/history", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		req.Header.Set("X-User-Id", userID)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.path, tt.want, resp.Code)
		}
	}
}

func TestReviewRoutes(t *testing.T) {
	rs := &stubReviews{}
	router := NewRouter(testConfig(), testLogger(), stubPinger{}, newMemoryRedis(), Services{Reviews: rs})
	userID := uuid.NewString()
	productID := uuid.New()

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/v1/products/" + productID.String() + "/reviews", `{"rating":4}`, http.StatusCreated},
		{http.MethodGet, "/api/v1/products/" + productID.String() + "/reviews", "", http.StatusOK},
		{http.MethodGet, "/api/v1/reviews", "", http.StatusOK},
		{http.MethodGet, "/api/v1/products/not-a-uuid/reviews", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		req.Header.Set("X-User-Id", userID)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tt.want {
			t.Fatalf("%s %s: expected %d got %d: %s", tt.method, tt.path, tt.want, resp.Code, resp.Body.String())
		}
	}
	if len(rs.created) != 1 || rs.created[0].ProductID != productID || rs.created[0].Rating != 4 {
		t.Fatalf("unexpected created reviews %+v", rs.created)
	}
}

func TestRateLimitAppliesPerUser(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.UserLimit = 1
	router := NewRouter(cfg, testLogger(), stubPinger{}, newMemoryRedis(), Services{Cart: stubCart{}})
	userID := uuid.NewString()

	var last int
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set("X-User-Id", userID)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		last = resp.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", last)
	}
}
