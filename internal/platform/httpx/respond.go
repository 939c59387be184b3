// Package httpx 集中处理API层的错误到HTTP状态码的映射。
package httpx

import (
	"errors"
	"net/http"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/validation"
	"github.com/SlpAus/rewards-hub-backend/internal/resource"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Error 写入 {"error": message}
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// BadRequest 把绑定/校验错误翻译为400
func BadRequest(c *gin.Context, err error) {
	Error(c, http.StatusBadRequest, validation.Message(err))
}

// StoreError 处理仓库返回的错误：未找到返回404，其余一律记录原因后返回通用的500消息
func StoreError(c *gin.Context, err error, message string) {
	if errors.Is(err, resource.ErrNotFound) {
		Error(c, http.StatusNotFound, "Not found")
		return
	}
	logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"id":     c.Param("id"),
	}).WithError(err).Error(message)
	Error(c, http.StatusInternalServerError, message)
}

// Deleted 是删除成功后的统一响应
func Deleted(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}
