package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, cfg Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Discard()
	validation.Register()

	h, err := NewHandler(cfg)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api")
	h.RegisterRoutes(api)
	api.POST("/protected", append(h.Guard(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})...)
	return r
}

func post(r http.Handler, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSession_LoginAndAccess(t *testing.T) {
	r := setupRouter(t, Config{Enabled: true, Password: "hunter2", JWTSecret: "s", SessionTTL: time.Hour})

	w := post(r, "/api/protected", `{}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, "/api/admin/session", `{"password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid password"}`, w.Body.String())

	w = post(r, "/api/admin/session", `{"password":"hunter2"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	w = post(r, "/api/protected", `{}`, resp.Token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(r, "/api/protected", `{}`, resp.Token+"x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid session"}`, w.Body.String())
}

func TestSession_DisabledWithoutPassword(t *testing.T) {
	r := setupRouter(t, Config{Enabled: true})

	w := post(r, "/api/admin/session", `{"password":"anything"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"admin panel is disabled"}`, w.Body.String())
}

func TestSession_GuardOffWhenNotEnabled(t *testing.T) {
	r := setupRouter(t, Config{Enabled: false, Password: "hunter2"})

	w := post(r, "/api/protected", `{}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSession_MissingPassword(t *testing.T) {
	r := setupRouter(t, Config{Enabled: true, Password: "hunter2"})

	w := post(r, "/api/admin/session", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Password is required"}`, w.Body.String())
}
