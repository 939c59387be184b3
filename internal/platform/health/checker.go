// Package health 通过Redis的run_id检测主存储的断线和重启，并在重启后从快照恢复数据。
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/SlpAus/rewards-hub-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

// RunIDFunc 返回主存储当前实例的标识，连接失败时返回错误
type RunIDFunc func(ctx context.Context) (string, error)

// RebuildFunc 在检测到主存储重启后执行恢复
type RebuildFunc func(ctx context.Context) error

// Checker 周期性地检查主存储并维护健康状态
type Checker struct {
	status  statusManager
	runID   RunIDFunc
	rebuild RebuildFunc
}

func NewChecker(runID RunIDFunc, rebuild RebuildFunc) *Checker {
	return &Checker{runID: runID, rebuild: rebuild}
}

// Initialize 在启动时阻塞式地获取初始run_id
func (c *Checker) Initialize(ctx context.Context) error {
	id, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	c.status.setInitialRunID(id)
	logger.Infof("获取初始Redis Run ID成功: %s", id)
	return nil
}

func (c *Checker) fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.runID(ctx)
}

// State 返回当前健康状态
func (c *Checker) State() State {
	return c.status.state()
}

// Healthy 报告主存储当前是否可用且数据完整
func (c *Checker) Healthy() bool {
	return c.State() == StateHealthy
}

// PerformCheck 执行一次完整的健康检查和可能的重建
func (c *Checker) PerformCheck(ctx context.Context) {
	currentRunID, err := c.fetch(ctx)
	connected := err == nil

	if !c.status.assess(connected, currentRunID) {
		return
	}

	err = c.rebuild(ctx)
	if err != nil {
		logger.WithError(err).Error("健康检查: 从快照重建失败")
		c.status.markRebuildComplete(false, "")
		return
	}

	// 重建后再次检查run_id以确认重建期间没有再次重启
	after, err := c.fetch(ctx)
	if err != nil {
		c.status.markRebuildComplete(false, "")
		return
	}
	c.status.markRebuildComplete(true, after)
}

// Start 在后台循环执行健康检查，直到handle被取消
func (c *Checker) Start(handle *lifecycle.Handle) {
	defer handle.Close()
	logger.Info("Redis健康检查器已启动。")

	for {
		if err := handle.Sleep(checkInterval); err != nil {
			return
		}
		c.PerformCheck(handle.Ctx())
	}
}

// Handler 是 /api/health 的处理函数，非健康状态返回503
func (c *Checker) Handler(ctx *gin.Context) {
	state := c.State()
	code := http.StatusOK
	if state != StateHealthy {
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, gin.H{"status": state.String(), "runId": c.status.runID()})
}
