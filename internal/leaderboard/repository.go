package leaderboard

import (
	"context"
	"errors"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/SlpAus/rewards-hub-backend/internal/resource"
)

const (
	// EntriesCollection 是排行榜条目集合
	EntriesCollection = "leaderboardEntries"
	// SettingsPath 是排行榜设置所在的固定路径
	SettingsPath = "leaderboardSettings"
	// SettingsID 是设置记录对外暴露的固定ID
	SettingsID = "current"
)

// NewEntryRepository 创建按名次升序排列的排行榜条目仓库
func NewEntryRepository(store kvstore.Store, now func() time.Time) *resource.Repository[Entry] {
	return resource.NewRepository(store, resource.Options[Entry]{
		Collection: EntriesCollection,
		Less: func(a, b *Entry) bool {
			return a.Rank < b.Rank
		},
		Now: now,
	})
}

// SettingsRepository 管理固定路径上的单例设置。
// Upsert 是一次原子合并写入，并发保存不会产生多份设置。
type SettingsRepository struct {
	store kvstore.Store
	now   func() time.Time
}

func NewSettingsRepository(store kvstore.Store, now func() time.Time) *SettingsRepository {
	if now == nil {
		now = time.Now
	}
	return &SettingsRepository{store: store, now: now}
}

// Get 返回当前设置；尚未配置时返回 nil, nil
func (r *SettingsRepository) Get(ctx context.Context) (*Settings, error) {
	doc, err := r.store.GetDoc(ctx, SettingsPath)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	doc["id"] = kvstore.MustJSON(SettingsID)

	var s Settings
	if err := doc.Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert 保存设置：不存在则创建，存在则覆盖奖池和结束时间并刷新updatedAt
func (r *SettingsRepository) Upsert(ctx context.Context, totalPrizePool string, endDate time.Time) (*Settings, error) {
	now := r.now().UTC()

	partial := kvstore.Record{}
	if err := partial.Set("totalPrizePool", totalPrizePool); err != nil {
		return nil, err
	}
	if err := partial.Set("endDate", endDate.UTC()); err != nil {
		return nil, err
	}
	if err := partial.Set("updatedAt", now); err != nil {
		return nil, err
	}
	defaults := kvstore.Record{}
	if err := defaults.Set("createdAt", now); err != nil {
		return nil, err
	}

	if err := r.store.MergeDoc(ctx, SettingsPath, partial, defaults); err != nil {
		return nil, err
	}
	return r.Get(ctx)
}
