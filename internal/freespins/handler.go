package freespins

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
	crud *httpx.CRUD[Offer, CreateRequest, UpdateRequest]
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{
		repo: repo,
		crud: &httpx.CRUD[Offer, CreateRequest, UpdateRequest]{
			Repo:   repo.Repository,
			Name:   "free spins offer",
			Plural: "free spins offers",
			Filter: func(c *gin.Context, items []Offer) []Offer {
				if c.Query("active") == "true" {
					return FilterAvailable(items, repo.Now())
				}
				return items
			},
		},
	}
}

// RegisterRoutes 挂载到 /api/free-spins
func (h *Handler) RegisterRoutes(r gin.IRoutes, admin []gin.HandlerFunc, claim ...gin.HandlerFunc) {
	h.crud.Register(r, "/free-spins", admin...)
	r.POST("/free-spins/:id/claim", append(claim, h.Claim)...)
}

func (h *Handler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}

	id := c.Param("id")
	offer, err := h.repo.Claim(c.Request.Context(), id)
	switch {
	case errors.Is(err, ErrInactive):
		httpx.Error(c, http.StatusConflict, "Offer is not active")
		return
	case errors.Is(err, ErrExpired):
		httpx.Error(c, http.StatusConflict, "Offer has expired")
		return
	case errors.Is(err, ErrExhausted):
		httpx.Error(c, http.StatusConflict, "No claims remaining")
		return
	case err != nil:
		httpx.StoreError(c, err, "Failed to claim free spins offer")
		return
	}

	logger.WithFields(logrus.Fields{
		"offer":     id,
		"username":  req.Username,
		"discord":   req.DiscordUsername,
		"remaining": offer.ClaimsRemaining,
	}).Info("免费旋转已被领取")
	c.JSON(http.StatusOK, offer)
}
