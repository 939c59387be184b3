package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/SlpAus/rewards-hub-backend/internal/resource"
)

// Collection 是挑战集合
const Collection = "challenges"

var (
	ErrAlreadyClaimed = errors.New("challenge already claimed")
	ErrInactive       = errors.New("challenge is not active")
)

// Repository 在通用仓库之上增加领取操作
type Repository struct {
	*resource.Repository[Challenge]
}

// NewRepository 创建按创建时间倒序排列的挑战仓库
func NewRepository(store kvstore.Store, now func() time.Time) *Repository {
	return &Repository{
		Repository: resource.NewRepository(store, resource.Options[Challenge]{
			Collection: Collection,
			Less: func(a, b *Challenge) bool {
				if a.CreatedAt.Equal(b.CreatedAt) {
					return a.ID > b.ID
				}
				return a.CreatedAt.After(b.CreatedAt)
			},
			Defaults: applyDefaults,
			Now:      now,
		}),
	}
}

func applyDefaults(rec kvstore.Record, _ time.Time) error {
	if _, ok := rec["isActive"]; !ok {
		rec["isActive"] = kvstore.MustJSON(true)
	}
	rec["claimStatus"] = kvstore.MustJSON(StatusUnclaimed)
	rec["claimedBy"] = kvstore.MustJSON(nil)
	rec["discordUsername"] = kvstore.MustJSON(nil)
	return nil
}

// Claim 把挑战标记为已领取。
// 是否已领取由存储原子地检查，并发领取只有一个会成功。
func (r *Repository) Claim(ctx context.Context, id, username, discordUsername string) (*Challenge, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Claimed() {
		return nil, ErrAlreadyClaimed
	}
	if !current.IsActive {
		return nil, ErrInactive
	}

	partial := kvstore.Record{
		"claimedBy":       kvstore.MustJSON(username),
		"claimStatus":     kvstore.MustJSON(StatusClaimed),
		"discordUsername": kvstore.MustJSON(discordUsername),
	}
	err = r.Store().UpdateUnless(ctx, Collection, id, "claimStatus", kvstore.MustJSON(StatusClaimed), partial)
	switch {
	case errors.Is(err, kvstore.ErrConflict):
		return nil, ErrAlreadyClaimed
	case errors.Is(err, kvstore.ErrNotFound):
		return nil, resource.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("领取挑战 %s 失败: %w", id, err)
	}
	return r.Get(ctx, id)
}

// FilterOpen 只保留仍可领取的挑战
func FilterOpen(items []Challenge) []Challenge {
	out := make([]Challenge, 0, len(items))
	for _, c := range items {
		if c.IsActive && !c.Claimed() {
			out = append(out, c)
		}
	}
	return out
}
