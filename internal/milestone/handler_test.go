package milestone

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger.Discard()
	validation.Register()

	r := gin.New()
	NewHandler(NewRepository(kvstore.NewMemoryStore(), nil)).RegisterRoutes(r.Group("/api"))
	return r
}

func request(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMilestones_SortedByTier(t *testing.T) {
	r := setupRouter()

	bodies := []string{
		`{"name":"Gold 1","tier":7,"imageUrl":"https://cdn.example/gold.png","rewards":["$50 bonus","Weekly cashback"]}`,
		`{"name":"Bronze 1","tier":1,"imageUrl":"https://cdn.example/bronze.png","rewards":[]}`,
		`{"name":"Silver 1","tier":4,"imageUrl":"https://cdn.example/silver.png","rewards":["$10 bonus"]}`,
	}
	for _, b := range bodies {
		w := request(r, http.MethodPost, "/api/milestones", b)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := request(r, http.MethodGet, "/api/milestones", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []LevelMilestone
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, []int{1, 4, 7}, []int{list[0].Tier, list[1].Tier, list[2].Tier})
	assert.Equal(t, []string{"$50 bonus", "Weekly cashback"}, list[2].Rewards)
	assert.Contains(t, w.Body.String(), `"rewards":[]`)
}

func TestMilestones_RewardsRequired(t *testing.T) {
	r := setupRouter()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing rewards", `{"name":"Bronze 1","tier":1,"imageUrl":"x"}`, "Rewards is required"},
		{"missing name", `{"tier":1,"imageUrl":"x","rewards":[]}`, "Name is required"},
		{"missing image", `{"name":"Bronze 1","tier":1,"rewards":[]}`, "Image url is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(r, http.MethodPost, "/api/milestones", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, w.Body.String())
		})
	}
}

func TestMilestones_PatchRewardsOnly(t *testing.T) {
	r := setupRouter()

	w := request(r, http.MethodPost, "/api/milestones", `{"name":"Bronze 1","tier":1,"imageUrl":"x","rewards":["a"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created LevelMilestone
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = request(r, http.MethodPatch, "/api/milestones/"+created.ID, `{"rewards":["a","b"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated LevelMilestone
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))

	assert.Equal(t, []string{"a", "b"}, updated.Rewards)
	assert.Equal(t, "Bronze 1", updated.Name)
	assert.Equal(t, 1, updated.Tier)
}
