package milestone

import (
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/SlpAus/rewards-hub-backend/internal/resource"
)

// Collection 是等级里程碑集合
const Collection = "levelMilestones"

// NewRepository 创建按等级升序排列的里程碑仓库
func NewRepository(store kvstore.Store, now func() time.Time) *resource.Repository[LevelMilestone] {
	return resource.NewRepository(store, resource.Options[LevelMilestone]{
		Collection: Collection,
		Less: func(a, b *LevelMilestone) bool {
			return a.Tier < b.Tier
		},
		Defaults: func(rec kvstore.Record, _ time.Time) error {
			if raw, ok := rec["rewards"]; !ok || string(raw) == "null" {
				return rec.Set("rewards", []string{})
			}
			return nil
		},
		Now: now,
	})
}
