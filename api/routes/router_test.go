package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/reservations-backend/api/responses"
	"github.com/opsdesk/reservations-backend/internal/reservations"
	pkgAuth "github.com/opsdesk/reservations-backend/pkg/auth"
	"github.com/opsdesk/reservations-backend/pkg/config"
	"github.com/opsdesk/reservations-backend/pkg/enums"
	"github.com/opsdesk/reservations-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubRedis struct {
	allow bool
	calls int
}

func (s *stubRedis) Ping(context.Context) error { return nil }

func (s *stubRedis) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	s.calls++
	return s.allow, int64(s.calls), nil
}

type stubRevocations struct{}

func (stubRevocations) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type stubReservations struct {
	reservations.Service
	lastConfirm reservations.ConfirmHold
}

func (s *stubReservations) ConfirmHold(_ context.Context, cmd reservations.ConfirmHold) (reservations.Result, error) {
	s.lastConfirm = cmd
	return reservations.Result{StatusCode: http.StatusOK, Reservation: reservations.View{ID: cmd.HoldID}}, nil
}

func (s *stubReservations) CreateBooking(_ context.Context, cmd reservations.CreateBooking) (reservations.Result, error) {
	return reservations.Result{StatusCode: http.StatusCreated, Reservation: reservations.View{ID: uuid.New()}, Replayed: true}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "reservations", ExpirationMinutes: 30},
		HTTP: config.HTTPConfig{
			CORSOrigins:      []string{"http://localhost:3000"},
			RateLimitWindow:  time.Minute,
			TenantWriteLimit: 10,
		},
	}
}

func newTestRouter(t *testing.T, redis *stubRedis, svc *stubReservations) http.Handler {
	t.Helper()
	return NewRouter(testConfig(), logger.Nop(), Dependencies{
		DB:           stubPinger{},
		Redis:        redis,
		Revocations:  stubRevocations{},
		Reservations: svc,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})
}

func bearer(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		TenantID: uuid.New(),
		UserID:   uuid.New(),
		Role:     role,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, &stubRedis{allow: true}, &stubReservations{})

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, &stubRedis{allow: true}, &stubReservations{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reservations/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommandsRequireWriterRole(t *testing.T) {
	router := newTestRouter(t, &stubRedis{allow: true}, &stubReservations{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/holds/"+uuid.NewString()+"/confirm", nil)
	req.Header.Set("Authorization", bearer(t, enums.RoleViewer))
	req.Header.Set("Idempotency-Key", "k1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCommandsRequireIdempotencyKey(t *testing.T) {
	router := newTestRouter(t, &stubRedis{allow: true}, &stubReservations{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/holds/"+uuid.NewString()+"/confirm", nil)
	req.Header.Set("Authorization", bearer(t, enums.RoleOperator))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Idempotency-Key")
}

func TestConfirmHoldReachesService(t *testing.T) {
	svc := &stubReservations{}
	redis := &stubRedis{allow: true}
	router := newTestRouter(t, redis, svc)
	holdID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/holds/"+holdID.String()+"/confirm", nil)
	req.Header.Set("Authorization", bearer(t, enums.RoleOperator))
	req.Header.Set("Idempotency-Key", "  confirm-1 ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, holdID, svc.lastConfirm.HoldID)
	assert.Equal(t, "confirm-1", svc.lastConfirm.IdempotencyKey)
	assert.True(t, strings.HasPrefix(svc.lastConfirm.Actor, "user:"))
	assert.Equal(t, 1, redis.calls)
}

func TestReplayHeaderSurfaces(t *testing.T) {
	router := newTestRouter(t, &stubRedis{allow: true}, &stubReservations{})

	body := `{"resource_ids":["` + uuid.NewString() + `"],"start":"2026-03-01T10:00:00Z","end":"2026-03-01T11:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, enums.RoleAdmin))
	req.Header.Set("Idempotency-Key", "booking-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(responses.ReplayedHeader))
}

func TestCommandsAreRateLimitedPerTenant(t *testing.T) {
	router := newTestRouter(t, &stubRedis{allow: false}, &stubReservations{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/holds/"+uuid.NewString()+"/confirm", nil)
	req.Header.Set("Authorization", bearer(t, enums.RoleOperator))
	req.Header.Set("Idempotency-Key", "k1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestResourceAdminRequiresAdminRole(t *testing.T) {
	router := newTestRouter(t, &stubRedis{allow: true}, &stubReservations{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/resources", nil)
	req.Header.Set("Authorization", bearer(t, enums.RoleOperator))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, &stubRedis{allow: true}, &stubReservations{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bookings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
