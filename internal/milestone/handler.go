package milestone

import (
	"github.com/SlpAus/rewards-hub-backend/internal/platform/httpx"
	"github.com/SlpAus/rewards-hub-backend/internal/resource"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	crud *httpx.CRUD[LevelMilestone, CreateRequest, UpdateRequest]
}

func NewHandler(repo *resource.Repository[LevelMilestone]) *Handler {
	return &Handler{
		crud: &httpx.CRUD[LevelMilestone, CreateRequest, UpdateRequest]{
			Repo:   repo,
			Name:   "milestone",
			Plural: "milestones",
		},
	}
}

// RegisterRoutes 挂载到 /api/milestones
func (h *Handler) RegisterRoutes(r gin.IRoutes, admin ...gin.HandlerFunc) {
	h.crud.Register(r, "/milestones", admin...)
}
