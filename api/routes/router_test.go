package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/logiccrafts/connect-backend/internal/notifications"
	"github.com/logiccrafts/connect-backend/internal/orders"
	"github.com/logiccrafts/connect-backend/internal/reviews"
	pkgAuth "github.com/logiccrafts/connect-backend/pkg/auth"
	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type memoryRedis struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memoryRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (m *memoryRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryRedis) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryRedis) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct {
	orders.Service
	mu        sync.Mutex
	placed    int
	cancelled int
}

func (s *stubOrdersService) Cancel(ctx context.Context, buyerID, orderID uuid.UUID, input orders.ReasonInput) (*orders.OrderDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled++
	return &orders.OrderDTO{ID: orderID, BuyerID: buyerID, Status: enums.OrderStatusCancelled}, nil
}

type stubReviewsService struct {
	reviews.Service
	created int
}

func (s *stubReviewsService) Create(ctx context.Context, buyerID uuid.UUID, input reviews.CreateReviewInput) (*reviews.ReviewResult, error) {
	s.created++
	return &reviews.ReviewResult{}, nil
}

func (s *stubOrdersService) Place(ctx context.Context, buyerID uuid.UUID, input orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placed++
	return &orders.OrderDTO{ID: uuid.New(), BuyerID: buyerID, ArtisanID: input.ArtisanID, Status: enums.OrderStatusPlaced}, nil
}

type stubNotificationsService struct {
	listFn func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
}

func (s stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 3, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", CORSOrigins: "*"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		Orders: config.OrdersConfig{IdempotencyTTL: time.Hour},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test-routing", Level: "debug", Output: io.Discard})
}

func newTestRouter(cfg *config.Config, deps Dependencies) http.Handler {
	if deps.DB == nil {
		deps.DB = stubPinger{}
	}
	return NewRouter(cfg, testLogger(), deps)
}

func buildToken(t *testing.T, cfg *config.Config, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-LCC-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{DB: stubPinger{err: errors.New("connection refused")}})
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "database") {
		t.Fatalf("expected dependency name in body, got %s", resp.Body.String())
	}
}

func TestMetricsEndpointExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := newTestRouter(testConfig(), Dependencies{Registry: reg, HTTPMetrics: metrics.NewHTTPMetrics(reg)})

	serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "lcc_http_requests_total") {
		t.Fatalf("expected http metrics in scrape output")
	}
}

func TestPrivateRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})
	for _, path := range []string{"/api/orders", "/api/notifications", "/api/cart", "/api/auth/me"} {
		resp := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token got %d", path, resp.Code)
		}
	}
}

func TestRoleGroups(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Dependencies{})

	cases := []struct {
		name    string
		method  string
		path    string
		role    enums.UserRole
		allowed bool
	}{
		{"artisan cannot use cart", http.MethodGet, "/api/cart", enums.UserRoleArtisan, false},
		{"buyer uses cart", http.MethodGet, "/api/cart", enums.UserRoleBuyer, true},
		{"buyer cannot list own crafts", http.MethodGet, "/api/crafts/mine", enums.UserRoleBuyer, false},
		{"artisan lists own crafts", http.MethodGet, "/api/crafts/mine", enums.UserRoleArtisan, true},
		{"buyer cannot moderate", http.MethodPut, "/api/admin/crafts/" + uuid.NewString() + "/moderation", enums.UserRoleBuyer, false},
		{"admin moderates", http.MethodPut, "/api/admin/crafts/" + uuid.NewString() + "/moderation", enums.UserRoleAdmin, true},
		{"buyer cannot update status", http.MethodPut, "/api/orders/" + uuid.NewString() + "/status", enums.UserRoleBuyer, false},
		{"artisan cannot cancel", http.MethodPut, "/api/orders/" + uuid.NewString() + "/cancel", enums.UserRoleArtisan, false},
		{"artisan cannot delete review", http.MethodDelete, "/api/reviews/" + uuid.NewString(), enums.UserRoleArtisan, false},
		{"admin deletes review", http.MethodDelete, "/api/reviews/" + uuid.NewString(), enums.UserRoleAdmin, true},
		{"artisan lists orders", http.MethodGet, "/api/orders", enums.UserRoleArtisan, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
			req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), tc.role))
			req.Header.Set("Idempotency-Key", "k-1")
			resp := serve(router, req)
			if tc.allowed && resp.Code == http.StatusForbidden {
				t.Fatalf("expected role %s to pass, got 403", tc.role)
			}
			if !tc.allowed && resp.Code != http.StatusForbidden {
				t.Fatalf("expected 403 for role %s got %d", tc.role, resp.Code)
			}
		})
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/crafts", nil))
	if resp.Code == http.StatusUnauthorized || resp.Code == http.StatusForbidden {
		t.Fatalf("expected public catalog, got %d", resp.Code)
	}
}

func TestNotificationsListUsesCaller(t *testing.T) {
	cfg := testConfig()
	userID := uuid.New()
	var seen notifications.ListParams
	router := newTestRouter(cfg, Dependencies{
		Notifications: stubNotificationsService{
			listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
				seen = params
				return &notifications.ListResult{Cursor: "next"}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?unread_only=true&limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, userID, enums.UserRoleArtisan))
	resp := serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if seen.UserID != userID || !seen.UnreadOnly || seen.Limit != 5 {
		t.Fatalf("unexpected list params %+v", seen)
	}
}

func TestPlaceOrderReplaysIdempotentRequest(t *testing.T) {
	cfg := testConfig()
	store := newMemoryRedis()
	svc := &stubOrdersService{}
	router := newTestRouter(cfg, Dependencies{Redis: store, Orders: svc})
	token := buildToken(t, cfg, uuid.New(), enums.UserRoleBuyer)

	body := fmt.Sprintf(`{"artisan_id":%q,"items":[{"craft_id":%q,"quantity":1,"price":"10.00"}],"total_amount":"10.00","shipping_address":"1 Main St","buyer_phone":"555-0100"}`,
		uuid.NewString(), uuid.NewString())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "order-1")
		return serve(router, req)
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
		t.Fatalf("expected identical replay body")
	}
	if svc.placed != 1 {
		t.Fatalf("expected one placement, got %d", svc.placed)
	}
}

func TestBuyerWritesWithoutIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	ordersSvc := &stubOrdersService{}
	reviewsSvc := &stubReviewsService{}
	router := newTestRouter(cfg, Dependencies{Redis: newMemoryRedis(), Orders: ordersSvc, Reviews: reviewsSvc})
	token := buildToken(t, cfg, uuid.New(), enums.UserRoleBuyer)

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return serve(router, req)
	}

	cancel := send(http.MethodPut, "/api/orders/"+uuid.NewString()+"/cancel", `{"reason":"changed mind"}`)
	if cancel.Code != http.StatusOK {
		t.Fatalf("expected cancel 200 got %d: %s", cancel.Code, cancel.Body.String())
	}
	if ordersSvc.cancelled != 1 {
		t.Fatalf("expected cancel to reach the service, got %d calls", ordersSvc.cancelled)
	}

	review := send(http.MethodPost, "/api/reviews", fmt.Sprintf(`{"craft_id":%q,"rating":5}`, uuid.NewString()))
	if review.Code != http.StatusCreated {
		t.Fatalf("expected review 201 got %d: %s", review.Code, review.Body.String())
	}
	if reviewsSvc.created != 1 {
		t.Fatalf("expected review to reach the service, got %d calls", reviewsSvc.created)
	}
}

func TestLoginRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRateLimit = config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 1}
	router := newTestRouter(cfg, Dependencies{Redis: newMemoryRedis()})

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@example.com","password":"x"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		return serve(router, req).Code
	}

	if code := login(); code == http.StatusTooManyRequests {
		t.Fatalf("first login should not be throttled")
	}
	if code := login(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second login, got %d", code)
	}
}
