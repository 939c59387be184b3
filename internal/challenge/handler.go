package challenge

import (
	"errors"
	"net/http"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/httpx"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	repo *Repository
	crud *httpx.CRUD[Challenge, CreateRequest, UpdateRequest]
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{
		repo: repo,
		crud: &httpx.CRUD[Challenge, CreateRequest, UpdateRequest]{
			Repo:   repo.Repository,
			Name:   "challenge",
			Plural: "challenges",
			Filter: func(c *gin.Context, items []Challenge) []Challenge {
				if c.Query("active") == "true" {
					return FilterOpen(items)
				}
				return items
			},
		},
	}
}

// RegisterRoutes 挂载到 /api/challenges。
// admin 保护写操作，claim 中间件(通常是限流)只挂在领取接口上。
func (h *Handler) RegisterRoutes(r gin.IRoutes, admin []gin.HandlerFunc, claim ...gin.HandlerFunc) {
	h.crud.Register(r, "/challenges", admin...)
	r.POST("/challenges/:id/claim", append(claim, h.Claim)...)
}

func (h *Handler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}

	id := c.Param("id")
	claimed, err := h.repo.Claim(c.Request.Context(), id, req.Username, req.DiscordUsername)
	switch {
	case errors.Is(err, ErrAlreadyClaimed):
		httpx.Error(c, http.StatusConflict, "Challenge has already been claimed")
		return
	case errors.Is(err, ErrInactive):
		httpx.Error(c, http.StatusConflict, "Challenge is not active")
		return
	case err != nil:
		httpx.StoreError(c, err, "Failed to claim challenge")
		return
	}

	logger.WithFields(logrus.Fields{
		"challenge": id,
		"username":  req.Username,
		"discord":   req.DiscordUsername,
	}).Info("挑战已被领取")
	c.JSON(http.StatusOK, claimed)
}
