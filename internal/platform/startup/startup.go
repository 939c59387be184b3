// Package startup 负责启动时和Redis重启后的数据准备。
package startup

import (
	"context"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/backup"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
)

// InitializeApplication 是应用首次启动时执行的总入口。
// 配置了快照数据库时，迁移表结构并在主存储为空时从快照恢复。
func InitializeApplication(ctx context.Context, snapshots *backup.Service) error {
	logger.Info("开始应用首次初始化...")

	if snapshots == nil {
		logger.Warn("未配置快照数据库，跳过数据恢复。")
		return nil
	}
	if err := snapshots.PrimeDB(); err != nil {
		return err
	}
	if _, err := snapshots.RestoreIfEmpty(ctx); err != nil {
		return err
	}

	logger.Info("应用初始化完成！")
	return nil
}

// RebuildStore 是Redis重启后由健康检查器调用的恢复入口
func RebuildStore(snapshots *backup.Service) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if snapshots == nil {
			logger.Warn("检测到Redis重启，但未配置快照数据库，无法恢复数据。")
			return nil
		}
		logger.Info("开始从快照重建主存储...")
		n, err := snapshots.RestoreIfEmpty(ctx)
		if err != nil {
			return err
		}
		logger.Infof("主存储重建完成，恢复了 %d 条记录。", n)
		return nil
	}
}
