// Package backup 把主存储中的全部数据定期快照到关系型数据库，并在主存储丢失数据后从快照恢复。
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/database"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/metadata"
	"github.com/SlpAus/rewards-hub-backend/pkg/lifecycle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	kindRecord = "record"
	kindDoc    = "doc"

	insertBatchSize = 200
)

// ErrEmptyStore 表示主存储为空而已有的快照非空，此时拒绝用空数据覆盖快照
var ErrEmptyStore = errors.New("backup: store is empty, keeping previous snapshot")

// SnapshotRecord 是快照表中的一行：一条集合记录或一个固定路径文档
type SnapshotRecord struct {
	Kind     string `gorm:"primaryKey;type:varchar(16)"`
	Scope    string `gorm:"primaryKey;type:varchar(255)"`
	RecordID string `gorm:"primaryKey;type:varchar(64)"`
	Data     string `gorm:"type:text;not null"`
	TakenAt  time.Time
}

// Layout 列出需要快照的集合和文档路径
type Layout struct {
	Collections []string
	Docs        []string
}

// Service 负责快照和恢复
type Service struct {
	db     *gorm.DB
	store  kvstore.Store
	layout Layout
	now    func() time.Time

	// 避免调度器与停机时的最终快照并发执行
	mu sync.Mutex
}

func NewService(db *gorm.DB, store kvstore.Store, layout Layout) *Service {
	return &Service{db: db, store: store, layout: layout, now: time.Now}
}

// PrimeDB 迁移快照相关的表
func (s *Service) PrimeDB() error {
	if err := s.db.AutoMigrate(&SnapshotRecord{}); err != nil {
		return fmt.Errorf("无法迁移snapshot_records表: %w", err)
	}
	return metadata.PrimeDB(s.db)
}

// Snapshot 读取主存储的全部数据并整体替换快照表，返回写入的记录数
func (s *Service) Snapshot(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	takenAt := s.now().UTC()
	rows, err := s.collect(ctx, takenAt)
	if err != nil {
		return 0, err
	}

	if len(rows) == 0 {
		prev, err := metadata.GetSnapshotRecordCount(s.db.WithContext(ctx))
		if err != nil {
			return 0, err
		}
		if prev > 0 {
			return 0, ErrEmptyStore
		}
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	const maxRetry = 3
	const delay = 50 * time.Millisecond
	for i := 0; i < maxRetry; i++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// 快照是全量的，先清空旧数据，已删除的记录不会残留
			if err := tx.Where("1 = 1").Delete(&SnapshotRecord{}).Error; err != nil {
				return fmt.Errorf("清空旧快照失败: %w", err)
			}
			if len(rows) > 0 {
				err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
					CreateInBatches(rows, insertBatchSize).Error
				if err != nil {
					return fmt.Errorf("写入快照失败: %w", err)
				}
			}
			if err := metadata.SetLastSnapshotAt(tx, takenAt); err != nil {
				return fmt.Errorf("更新元数据 LastSnapshotAt 失败: %w", err)
			}
			if err := metadata.SetSnapshotRecordCount(tx, len(rows)); err != nil {
				return fmt.Errorf("更新元数据 SnapshotRecordCount 失败: %w", err)
			}
			return nil
		})
		if err == nil || !database.IsRetryableError(err) {
			break
		}
		time.Sleep(delay)
	}
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Service) collect(ctx context.Context, takenAt time.Time) ([]SnapshotRecord, error) {
	var rows []SnapshotRecord
	for _, collection := range s.layout.Collections {
		items, err := s.store.GetAll(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("读取集合 %s 失败: %w", collection, err)
		}
		for _, item := range items {
			data, err := json.Marshal(item.Record)
			if err != nil {
				return nil, fmt.Errorf("序列化 %s/%s 失败: %w", collection, item.ID, err)
			}
			rows = append(rows, SnapshotRecord{
				Kind:     kindRecord,
				Scope:    collection,
				RecordID: item.ID,
				Data:     string(data),
				TakenAt:  takenAt,
			})
		}
	}
	for _, path := range s.layout.Docs {
		doc, err := s.store.GetDoc(ctx, path)
		if errors.Is(err, kvstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("读取文档 %s 失败: %w", path, err)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("序列化文档 %s 失败: %w", path, err)
		}
		rows = append(rows, SnapshotRecord{
			Kind:    kindDoc,
			Scope:   path,
			Data:    string(data),
			TakenAt: takenAt,
		})
	}
	return rows, nil
}

// StoreIsEmpty 报告主存储中是否没有任何数据
func (s *Service) StoreIsEmpty(ctx context.Context) (bool, error) {
	for _, collection := range s.layout.Collections {
		items, err := s.store.GetAll(ctx, collection)
		if err != nil {
			return false, err
		}
		if len(items) > 0 {
			return false, nil
		}
	}
	for _, path := range s.layout.Docs {
		_, err := s.store.GetDoc(ctx, path)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, kvstore.ErrNotFound) {
			return false, err
		}
	}
	return true, nil
}

// RestoreIfEmpty 只在主存储为空时把最新快照写回，返回恢复的记录数。
// 主存储中已有数据时以主存储为准，不做任何修改。
func (s *Service) RestoreIfEmpty(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty, err := s.StoreIsEmpty(ctx)
	if err != nil {
		return 0, fmt.Errorf("检查主存储失败: %w", err)
	}
	if !empty {
		return 0, nil
	}

	var rows []SnapshotRecord
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("读取快照失败: %w", err)
	}

	for _, row := range rows {
		var rec kvstore.Record
		if err := json.Unmarshal([]byte(row.Data), &rec); err != nil {
			return 0, fmt.Errorf("解析快照 %s/%s 失败: %w", row.Scope, row.RecordID, err)
		}
		switch row.Kind {
		case kindRecord:
			err = s.store.Put(ctx, row.Scope, row.RecordID, rec)
		case kindDoc:
			err = s.store.MergeDoc(ctx, row.Scope, rec, nil)
		default:
			logger.Warnf("忽略未知类型的快照行: %s", row.Kind)
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("恢复 %s/%s 失败: %w", row.Scope, row.RecordID, err)
		}
	}

	if len(rows) > 0 {
		logger.Infof("已从快照恢复 %d 条记录", len(rows))
	}
	return len(rows), nil
}

// LastSnapshotAt 返回最近一次快照的时间
func (s *Service) LastSnapshotAt() (time.Time, error) {
	return metadata.GetLastSnapshotAt(s.db)
}

// StartScheduler 定期执行快照，直到graceful被取消。
// 进行中的快照使用forceful的上下文，只有强制停机时才会被中断。
// healthy 为false时跳过本轮，避免把不完整的数据写进快照。
func (s *Service) StartScheduler(graceful, forceful *lifecycle.Handle, interval time.Duration, healthy func() bool) {
	defer graceful.Close()
	defer forceful.Close()
	logger.Infof("快照调度器已启动，间隔 %v", interval)

	for {
		// 可中断的休眠，收到停机信号时立刻退出
		if err := graceful.Sleep(interval); err != nil {
			logger.Info("快照调度器: 休眠被中断，正在关闭...")
			return
		}

		if healthy != nil && !healthy() {
			logger.Warn("快照调度器: 检测到主存储不可用，跳过本次快照。")
			continue
		}

		n, err := s.Snapshot(forceful.Ctx())
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				// 停机信号导致的中断，静默处理
			case errors.Is(err, ErrEmptyStore):
				logger.Warn("快照调度器: 主存储为空，保留上一次快照。")
			default:
				logger.WithError(err).Error("快照调度器: 执行快照失败")
			}
			continue
		}
		logger.Debugf("快照调度器: 已快照 %d 条记录", n)
	}
}
