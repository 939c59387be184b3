package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/config"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSnapshotDB 按配置打开SQLite或Postgres
func OpenSnapshotDB(cfg config.SnapshotConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("未知的快照数据库驱动: %q", cfg.Driver)
	}

	// GORM日志配置
	newLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: 0,
			LogLevel:      gormlogger.Silent,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, fmt.Errorf("连接快照数据库失败: %w", err)
	}

	logger.Infof("快照数据库(%s)连接成功！", cfg.Driver)
	return db, nil
}

// IsRetryableError 判断一次写入失败是否值得重试，目前只识别SQLite的锁冲突
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
