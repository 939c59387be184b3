package api

import (
	"net/http"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/admin"
	"github.com/SlpAus/rewards-hub-backend/internal/challenge"
	"github.com/SlpAus/rewards-hub-backend/internal/freespins"
	"github.com/SlpAus/rewards-hub-backend/internal/leaderboard"
	"github.com/SlpAus/rewards-hub-backend/internal/milestone"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/config"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers 汇总需要挂载的各个模块
type Handlers struct {
	Leaderboard *leaderboard.Handler
	Milestones  *milestone.Handler
	Challenges  *challenge.Handler
	FreeSpins   *freespins.Handler
	Admin       *admin.Handler

	// Health 为nil时不注册 /api/health
	Health  gin.HandlerFunc
	Metrics *middleware.Metrics
	Limiter *middleware.IPRateLimiter
}

// NewRouter 创建gin引擎并挂载全局中间件
func NewRouter(cfg config.ServerConfig, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware())
	}
	r.Use(cors.New(corsConfig(cfg.Cors)))

	SetupRoutes(r, h)
	return r
}

func corsConfig(cfg config.CorsConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	// 没有配置来源时放开所有来源，但不允许携带凭证
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h Handlers) {
	var guard []gin.HandlerFunc
	if h.Admin != nil {
		guard = h.Admin.Guard()
	}
	var claim []gin.HandlerFunc
	if h.Limiter != nil {
		claim = append(claim, middleware.RateLimit(h.Limiter))
	}

	api := router.Group("/api")
	{
		api.GET("/time", GetTime)
		if h.Health != nil {
			api.GET("/health", h.Health)
		}
		if h.Admin != nil {
			h.Admin.RegisterRoutes(api)
		}

		h.Leaderboard.RegisterRoutes(api.Group("/leaderboard"), guard...)
		h.Milestones.RegisterRoutes(api, guard...)
		h.Challenges.RegisterRoutes(api, guard, claim...)
		h.FreeSpins.RegisterRoutes(api, guard, claim...)
	}

	if h.Metrics != nil {
		router.GET("/metrics", h.Metrics.Handler())
	}
}

// GetTime 返回服务器当前时间，前端用它计算倒计时
func GetTime(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)})
}
