package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/admin"
	"github.com/SlpAus/rewards-hub-backend/internal/challenge"
	"github.com/SlpAus/rewards-hub-backend/internal/freespins"
	"github.com/SlpAus/rewards-hub-backend/internal/leaderboard"
	"github.com/SlpAus/rewards-hub-backend/internal/milestone"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/config"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/middleware"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, adminCfg admin.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Discard()
	validation.Register()

	store := kvstore.NewMemoryStore()
	adminHandler, err := admin.NewHandler(adminCfg)
	require.NoError(t, err)

	return NewRouter(config.ServerConfig{}, Handlers{
		Leaderboard: leaderboard.NewHandler(
			leaderboard.NewEntryRepository(store, nil),
			leaderboard.NewSettingsRepository(store, nil),
		),
		Milestones: milestone.NewHandler(milestone.NewRepository(store, nil)),
		Challenges: challenge.NewHandler(challenge.NewRepository(store, nil)),
		FreeSpins:  freespins.NewHandler(freespins.NewRepository(store, nil)),
		Admin:      adminHandler,
		Health:     func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "healthy"}) },
		Metrics:    middleware.NewMetrics(),
		Limiter:    middleware.NewIPRateLimiter(60, 2),
	})
}

func do(r http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_ChallengeScenario(t *testing.T) {
	r := newTestRouter(t, admin.Config{Enabled: false})

	w := do(r, http.MethodPost, "/api/challenges",
		`{"gameName":"Gates of Olympus","gameImage":"/img/goo.png","minMultiplier":"100","minBet":"0.20","prize":"50"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "unclaimed", created["claimStatus"])
	assert.NotEmpty(t, created["createdAt"])

	w = do(r, http.MethodPost, "/api/challenges/"+id+"/claim", `{"username":"alice","discordUsername":"alice#1"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/challenges", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "claimed", list[0]["claimStatus"])
	assert.Equal(t, "alice", list[0]["claimedBy"])

	w = do(r, http.MethodPost, "/api/challenges/"+id+"/claim", `{"username":"bob","discordUsername":"bob#2"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r := newTestRouter(t, admin.Config{Enabled: false})

	w := do(r, http.MethodGet, "/api/time", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	ts, err := time.Parse(time.RFC3339, body.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)

	w = do(r, http.MethodGet, "/api/leaderboard/settings", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = do(r, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rewards_hub_http_requests_total")
}

func TestRouter_AdminGuard(t *testing.T) {
	r := newTestRouter(t, admin.Config{Enabled: true, Password: "hunter2", JWTSecret: "test-secret"})

	entry := `{"rank":1,"username":"alice","wagered":"100","prize":"10"}`

	// 读取公开，写入需要令牌
	w := do(r, http.MethodGet, "/api/leaderboard/entries", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, "/api/leaderboard/entries", entry, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(r, http.MethodPost, "/api/milestones", `{"name":"Bronze","tier":1,"imageUrl":"/b.png","rewards":[]}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/admin/session", `{"password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/admin/session", `{"password":"hunter2"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	w = do(r, http.MethodPost, "/api/leaderboard/entries", entry, session.Token)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_ClaimRateLimited(t *testing.T) {
	r := newTestRouter(t, admin.Config{Enabled: false})

	w := do(r, http.MethodPost, "/api/free-spins",
		`{"code":"WEEKEND50","gameName":"Sweet Bonanza","gameProvider":"Pragmatic Play","gameImage":"/img/sb.png","spinsCount":50,"spinValue":"0.10","totalClaims":100,"expiresAt":"2999-01-01","requirements":["Sign up"]}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var offer struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &offer))

	claim := `{"username":"alice","discordUsername":"alice#1"}`
	// burst 为2
	for i := 0; i < 2; i++ {
		w = do(r, http.MethodPost, "/api/free-spins/"+offer.ID+"/claim", claim, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = do(r, http.MethodPost, "/api/free-spins/"+offer.ID+"/claim", claim, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 限流只作用在领取接口上
	w = do(r, http.MethodGet, "/api/free-spins", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
