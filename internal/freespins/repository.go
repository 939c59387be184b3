package freespins

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/SlpAus/rewards-hub-backend/internal/resource"
)

// Collection 是免费旋转优惠集合
const Collection = "freeSpinsOffers"

var (
	ErrInactive  = errors.New("offer is not active")
	ErrExpired   = errors.New("offer has expired")
	ErrExhausted = errors.New("offer has no claims remaining")
)

type Repository struct {
	*resource.Repository[Offer]
}

// NewRepository 创建按创建时间倒序排列的优惠仓库
func NewRepository(store kvstore.Store, now func() time.Time) *Repository {
	return &Repository{
		Repository: resource.NewRepository(store, resource.Options[Offer]{
			Collection: Collection,
			Less: func(a, b *Offer) bool {
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
	if _, ok := rec["claimsRemaining"]; !ok {
		total, ok := rec["totalClaims"]
		if !ok {
			total = kvstore.MustJSON(0)
		}
		rec["claimsRemaining"] = total
	}
	return nil
}

// Claim 原子地扣减一次剩余领取次数
func (r *Repository) Claim(ctx context.Context, id string) (*Offer, error) {
	offer, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offer.IsActive {
		return nil, ErrInactive
	}
	if !offer.ExpiresAt.After(r.Now()) {
		return nil, ErrExpired
	}

	_, err = r.Store().Increment(ctx, Collection, id, "claimsRemaining", -1, 0)
	switch {
	case errors.Is(err, kvstore.ErrConflict):
		return nil, ErrExhausted
	case errors.Is(err, kvstore.ErrNotFound):
		return nil, resource.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("领取优惠 %s 失败: %w", id, err)
	}
	return r.Get(ctx, id)
}

// FilterAvailable 只保留当前仍可领取的优惠
func FilterAvailable(items []Offer, now time.Time) []Offer {
	out := make([]Offer, 0, len(items))
	for _, o := range items {
		if o.Available(now) {
			out = append(out, o)
		}
	}
	return out
}
