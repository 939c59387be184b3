package leaderboard

import (
	"net/http"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/httpx"
	"github.com/SlpAus/rewards-hub-backend/internal/resource"
	"github.com/gin-gonic/gin"
)

// Handler 提供排行榜条目和设置的API
type Handler struct {
	entries  *httpx.CRUD[Entry, CreateEntryRequest, UpdateEntryRequest]
	settings *SettingsRepository
}

func NewHandler(entries *resource.Repository[Entry], settings *SettingsRepository) *Handler {
	return &Handler{
		entries: &httpx.CRUD[Entry, CreateEntryRequest, UpdateEntryRequest]{
			Repo:   entries,
			Name:   "leaderboard entry",
			Plural: "leaderboard entries",
		},
		settings: settings,
	}
}

// RegisterRoutes 挂载到 /api/leaderboard 下
func (h *Handler) RegisterRoutes(r gin.IRoutes, admin ...gin.HandlerFunc) {
	h.entries.Register(r, "/entries", admin...)
	r.GET("/settings", h.GetSettings)
	r.POST("/settings", append(admin, h.UpsertSettings)...)
}

// GetSettings 返回当前设置，未配置时响应体为 null
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		httpx.StoreError(c, err, "Failed to fetch leaderboard settings")
		return
	}
	if settings == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) UpsertSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}

	settings, err := h.settings.Upsert(c.Request.Context(), req.TotalPrizePool, req.EndDate.Time)
	if err != nil {
		httpx.StoreError(c, err, "Failed to save leaderboard settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}
