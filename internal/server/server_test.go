package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/config"
	"github.com/iliyamo/parking-gate-control/internal/dispatch"
	"github.com/iliyamo/parking-gate-control/internal/handler"
	"github.com/iliyamo/parking-gate-control/internal/model"
	"github.com/iliyamo/parking-gate-control/internal/occupancy"
	"github.com/iliyamo/parking-gate-control/internal/relay"
	"github.com/iliyamo/parking-gate-control/internal/repository"
	"github.com/iliyamo/parking-gate-control/internal/router"
	"github.com/iliyamo/parking-gate-control/internal/token"
	"github.com/iliyamo/parking-gate-control/internal/utils"
)

type memUsers struct{ byID map[string]model.User }

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	u.PasswordHash = ""
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

type memVehicles struct{}

func (memVehicles) List(context.Context, string, int) ([]model.Vehicle, error) {
	return []model.Vehicle{{ID: 1, Plate: "30A-12345"}}, nil
}

type harness struct {
	srv   *Server
	users *memUsers
}

func newHarness(t *testing.T, h *relay.Handle) *harness {
	t.Helper()
	hash, err := utils.HashPassword("pw", 4)
	require.NoError(t, err)
	users := &memUsers{byID: map[string]model.User{}}
	for _, u := range []model.User{
		{ID: "u-admin", Email: "admin@example.com", Role: model.RoleAdmin},
		{ID: "u-op", Email: "op@example.com", Role: model.RoleOperator},
		{ID: "u-view", Email: "view@example.com", Role: model.RoleViewer},
	} {
		u.PasswordHash = hash
		users.byID[u.ID] = u
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Config{
		Env: "test", Port: "0", CookieName: "pc_sess", CORSOrigin: "http://localhost:3000",
		Cache: config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache"},
	}
	tokens := token.NewService("test-secret", time.Hour)
	log := zap.NewNop()
	deps := router.Deps{
		Auth:      handler.NewAuthHandler(users, tokens, handler.CookieSettings{Name: "pc_sess"}, 4, log),
		Gate:      handler.NewGateHandler(dispatch.New(h, log)),
		Occupancy: handler.NewOccupancyHandler(occupancy.NewCounter(rdb, 10), log),
		Vehicles:  handler.NewVehicleHandler(memVehicles{}, log),
		Tokens:    tokens,
		Users:     users,
	}
	return &harness{srv: New(cfg, deps, rdb, log), users: users}
}

func (h *harness) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.srv.Echo.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := h.do(http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == "pc_sess" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func redisRelay(t *testing.T) *relay.Handle {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return relay.NewHandle("redis", func(context.Context) (relay.Store, error) {
		return relay.NewRedisStore(rdb), nil
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestGateFlow(t *testing.T) {
	h := newHarness(t, redisRelay(t))

	admin := h.login(t, "admin@example.com")
	rec := h.do(http.MethodGet, "/api/auth/me", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = h.do(http.MethodPost, "/api/gate/gate_out/command", `{"action":"close"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["key"])
	cmd := body["command"].(map[string]any)
	assert.Equal(t, "admin@example.com", cmd["by"])
	assert.Equal(t, "admin", cmd["role"])
	assert.Equal(t, "close", cmd["action"])

	op := h.login(t, "op@example.com")
	first := decode(t, h.do(http.MethodPost, "/api/gate/gate_in/command", `{"action":"open"}`, op))
	second := decode(t, h.do(http.MethodPost, "/api/gate/gate_in/command", `{"action":"open"}`, op))
	assert.NotEqual(t, first["key"], second["key"])
	assert.Less(t, first["command"].(map[string]any)["ts"].(float64), second["command"].(map[string]any)["ts"].(float64))

	rec = h.do(http.MethodGet, "/api/gate/gate_in/last", "", op)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, second["key"], decode(t, rec)["key"])

	viewer := h.login(t, "view@example.com")
	rec = h.do(http.MethodPost, "/api/gate/gate_in/command", `{"action":"open"}`, viewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"ok":false,"message":"Forbidden"}`, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/gate/gate_in/last", "", viewer)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/api/gate/gate_in/command", `{"action":"open"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"ok":false,"message":"Not authenticated"}`, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/gate/gate_in/command", `{"action":"open","note":42}`, op)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodGet, "/api/gate/gate_in/last", "", op)
	assert.Equal(t, second["key"], decode(t, rec)["key"], "rejected body is not relayed")

	rec = h.do(http.MethodPost, "/api/gate/gate_in/command", `{"action":"explode"}`, op)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"ok":false,"message":"Invalid action"}`, rec.Body.String())
}

func TestDemotedUserLosesAccess(t *testing.T) {
	h := newHarness(t, redisRelay(t))
	op := h.login(t, "op@example.com")

	u := h.users.byID["u-op"]
	u.Role = model.RoleViewer
	h.users.byID["u-op"] = u
	rec := h.do(http.MethodPost, "/api/gate/gate_in/command", `{"action":"open"}`, op)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	delete(h.users.byID, "u-op")
	rec = h.do(http.MethodGet, "/api/auth/me", "", op)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"ok":false,"message":"User not found"}`, rec.Body.String())
}

func TestDegradedMode(t *testing.T) {
	h := newHarness(t, relay.Disabled())
	op := h.login(t, "op@example.com")

	rec := h.do(http.MethodPost, "/api/gate/gate_in/command", `{"action":"open"}`, op)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, dispatch.WarningUnconfigured, body["warning"])
	assert.NotContains(t, body, "key")
}

func TestOccupancyAndVehicles(t *testing.T) {
	h := newHarness(t, relay.Disabled())
	op := h.login(t, "op@example.com")
	viewer := h.login(t, "view@example.com")

	rec := h.do(http.MethodPost, "/api/occupancy/adjust", `{"delta":4}`, op)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"total":10,"occupied":4,"free":6}`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/occupancy/adjust", `{"delta":1}`, viewer).Code)
	rec = h.do(http.MethodGet, "/api/occupancy", "", viewer)
	assert.JSONEq(t, `{"ok":true,"total":10,"occupied":4,"free":6}`, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/vehicles", "", viewer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "30A-12345")
	assert.Equal(t, "HIT", h.do(http.MethodGet, "/api/vehicles", "", viewer).Header().Get("X-Cache"))
}

func TestHealthAndErrors(t *testing.T) {
	h := newHarness(t, relay.Disabled())

	rec := h.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["ok"])

	rec = h.do(http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":false`)

	rec = h.do(http.MethodPost, "/api/auth/logout", "", nil)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestCORSAllowsCredentials(t *testing.T) {
	h := newHarness(t, relay.Disabled())
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	h.srv.Echo.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
}
