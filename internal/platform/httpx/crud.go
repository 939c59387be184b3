package httpx

import (
	"net/http"

	"github.com/SlpAus/rewards-hub-backend/internal/resource"
	"github.com/gin-gonic/gin"
)

// CRUD 把一个通用仓库暴露为REST路由。
// C 是创建请求体，U 是部分更新请求体(指针字段 + omitempty)。
type CRUD[T any, C any, U any] struct {
	Repo *resource.Repository[T]
	// Name/Plural 仅用于错误消息，例如 "challenge" / "challenges"
	Name   string
	Plural string
	// Filter 在返回列表前按查询参数过滤，可为nil
	Filter func(c *gin.Context, items []T) []T
	// BeforeCreate 可以在写入前补充或校验请求体，返回错误时响应400
	BeforeCreate func(req *C) error
}

// Register 注册标准的五条路由，admin 中间件只挂在写操作上
func (h *CRUD[T, C, U]) Register(r gin.IRoutes, path string, admin ...gin.HandlerFunc) {
	r.GET(path, h.List)
	r.GET(path+"/:id", h.Get)
	r.POST(path, append(admin, h.Create)...)
	r.PATCH(path+"/:id", append(admin, h.Update)...)
	r.DELETE(path+"/:id", append(admin, h.Delete)...)
}

func (h *CRUD[T, C, U]) List(c *gin.Context) {
	items, err := h.Repo.List(c.Request.Context())
	if err != nil {
		StoreError(c, err, "Failed to fetch "+h.Plural)
		return
	}
	if h.Filter != nil {
		items = h.Filter(c, items)
	}
	c.JSON(http.StatusOK, items)
}

func (h *CRUD[T, C, U]) Get(c *gin.Context) {
	item, err := h.Repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		StoreError(c, err, "Failed to fetch "+h.Name)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CRUD[T, C, U]) Create(c *gin.Context) {
	var req C
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	if h.BeforeCreate != nil {
		if err := h.BeforeCreate(&req); err != nil {
			Error(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	item, err := h.Repo.Create(c.Request.Context(), req)
	if err != nil {
		StoreError(c, err, "Failed to create "+h.Name)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CRUD[T, C, U]) Update(c *gin.Context) {
	var patch U
	if err := c.ShouldBindJSON(&patch); err != nil {
		BadRequest(c, err)
		return
	}

	item, err := h.Repo.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		StoreError(c, err, "Failed to update "+h.Name)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CRUD[T, C, U]) Delete(c *gin.Context) {
	if err := h.Repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		StoreError(c, err, "Failed to delete "+h.Name)
		return
	}
	Deleted(c)
}
