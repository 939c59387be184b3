// Package resource 提供所有实体共用的、基于键值存储的通用CRUD仓库。
// 各实体只需提供集合名、排序规则和默认字段注入器。
package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
)

// ErrNotFound 表示请求的记录不存在
var ErrNotFound = errors.New("resource not found")

// Defaults 在创建记录前注入服务端字段，例如createdAt和初始状态
type Defaults func(rec kvstore.Record, now time.Time) error

// Options 描述一个具体实体的仓库特性
type Options[T any] struct {
	Collection string
	// Less 为nil时保持存储的创建顺序
	Less     func(a, b *T) bool
	Defaults Defaults
	Now      func() time.Time
}

// Repository 是对单个集合的通用CRUD仓库
type Repository[T any] struct {
	store      kvstore.Store
	collection string
	less       func(a, b *T) bool
	defaults   Defaults
	now        func() time.Time
}

// NewRepository 创建一个通用仓库
func NewRepository[T any](store kvstore.Store, opts Options[T]) *Repository[T] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Repository[T]{
		store:      store,
		collection: opts.Collection,
		less:       opts.Less,
		defaults:   opts.Defaults,
		now:        now,
	}
}

// Collection 返回仓库对应的集合名
func (r *Repository[T]) Collection() string {
	return r.collection
}

// Store 返回底层存储，供实体仓库执行条件更新等特殊操作
func (r *Repository[T]) Store() kvstore.Store {
	return r.store
}

// Now 返回仓库使用的当前时间
func (r *Repository[T]) Now() time.Time {
	return r.now()
}

// List 读取整个集合并按实体规则排序
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	items, err := r.store.GetAll(ctx, r.collection)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := r.decode(item.ID, item.Record)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}

	if r.less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return r.less(&out[i], &out[j])
		})
	}
	return out, nil
}

// Get 按ID读取单条记录
func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	rec, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.decode(id, rec)
}

// Create 注入默认字段后写入新记录，返回包含生成ID的完整记录
func (r *Repository[T]) Create(ctx context.Context, input any) (*T, error) {
	rec, err := kvstore.Encode(input)
	if err != nil {
		return nil, err
	}
	// ID由存储生成，客户端提供的任何id都会被丢弃
	delete(rec, "id")

	now := r.now().UTC()
	if err := rec.Set("createdAt", now); err != nil {
		return nil, err
	}
	if r.defaults != nil {
		if err := r.defaults(rec, now); err != nil {
			return nil, err
		}
	}

	id, err := r.store.Create(ctx, r.collection, rec)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update 将patch浅合并到已有记录并返回更新后的记录。
// patch 可以是结构体(omitempty字段被忽略)或 kvstore.Record。
func (r *Repository[T]) Update(ctx context.Context, id string, patch any) (*T, error) {
	var rec kvstore.Record
	switch p := patch.(type) {
	case kvstore.Record:
		rec = p
	default:
		encoded, err := kvstore.Encode(patch)
		if err != nil {
			return nil, err
		}
		rec = encoded
	}
	delete(rec, "id")
	delete(rec, "createdAt")

	if err := r.store.Update(ctx, r.collection, id, rec); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete 删除记录；记录不存在时同样视为成功
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.store.Remove(ctx, r.collection, id)
}

// Decode 将存储中的原始记录还原为实体
func (r *Repository[T]) Decode(id string, rec kvstore.Record) (*T, error) {
	return r.decode(id, rec)
}

func (r *Repository[T]) decode(id string, rec kvstore.Record) (*T, error) {
	if rec == nil {
		rec = kvstore.Record{}
	}
	rec["id"] = kvstore.MustJSON(id)
	var v T
	if err := rec.Decode(&v); err != nil {
		return nil, fmt.Errorf("无法解析 %s/%s: %w", r.collection, id, err)
	}
	return &v, nil
}
