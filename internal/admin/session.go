// Package admin 管理后台的会话。
// 管理员用共享密码换取一个短期JWT，之后所有写操作都需要携带它。
package admin

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/httpx"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/SlpAus/rewards-hub-backend/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const subject = "admin"

// Config 是后台会话的配置
type Config struct {
	Enabled    bool
	Password   string
	JWTSecret  string
	SessionTTL time.Duration
}

type Handler struct {
	cfg    Config
	signer *token.Signer
}

type sessionRequest struct {
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewHandler(cfg Config) (*Handler, error) {
	signer, err := token.NewSigner(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	return &Handler{cfg: cfg, signer: signer}, nil
}

// Enabled 报告是否需要为写操作加上 RequireAdmin
func (h *Handler) Enabled() bool {
	return h.cfg.Enabled
}

// RegisterRoutes 挂载到 /api/admin
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/admin/session", h.CreateSession)
}

// CreateSession 校验管理员密码并签发会话令牌
func (h *Handler) CreateSession(c *gin.Context) {
	if h.cfg.Password == "" {
		httpx.Error(c, http.StatusServiceUnavailable, "admin panel is disabled")
		return
	}

	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.Password)) != 1 {
		logger.WithFields(logrus.Fields{"ip": c.ClientIP()}).Warn("管理员密码错误")
		httpx.Error(c, http.StatusUnauthorized, "Invalid password")
		return
	}

	raw, claims, err := h.signer.Issue(subject, h.cfg.SessionTTL)
	if err != nil {
		logger.WithError(err).Error("签发管理员会话失败")
		httpx.Error(c, http.StatusInternalServerError, "Failed to create session")
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Token: raw, ExpiresAt: claims.ExpiresAt.UTC()})
}

// RequireAdmin 要求请求携带有效的 Bearer 令牌
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			httpx.Error(c, http.StatusUnauthorized, "Authorization required")
			return
		}

		claims, err := h.signer.Validate(strings.TrimSpace(raw))
		if err != nil {
			msg := "Invalid session"
			if errors.Is(err, token.ErrExpiredToken) {
				msg = "Session expired"
			}
			httpx.Error(c, http.StatusUnauthorized, msg)
			return
		}
		if claims.Subject != subject {
			httpx.Error(c, http.StatusUnauthorized, "Invalid session")
			return
		}
		c.Next()
	}
}

// Guard 返回写操作需要挂载的中间件；未启用时为空
func (h *Handler) Guard() []gin.HandlerFunc {
	if !h.cfg.Enabled {
		return nil
	}
	return []gin.HandlerFunc{h.RequireAdmin()}
}
