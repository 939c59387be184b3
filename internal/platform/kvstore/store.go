package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound 表示目标路径上没有记录
	ErrNotFound = errors.New("kvstore: record not found")
	// ErrConflict 表示条件更新的前置条件不成立
	ErrConflict = errors.New("kvstore: precondition failed")
)

// Record 是存储中的一条原始记录：字段名 -> JSON编码后的字段值。
// 每个字段独立编码，这样部分更新只需覆盖被修改的字段。
type Record map[string]json.RawMessage

// Item 是集合中的一条记录及其ID
type Item struct {
	ID     string
	Record Record
}

// Store 是对分层键值数据库的抽象。
// 集合(collection)由生成的ID索引；文档(doc)位于固定路径，用于单例数据。
type Store interface {
	// GetAll 按ID(即创建时间)顺序返回集合中的全部记录，集合不存在时返回空切片
	GetAll(ctx context.Context, collection string) ([]Item, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	// Create 写入一条新记录并返回生成的ID
	Create(ctx context.Context, collection string, record Record) (string, error)
	// Put 以给定ID整体写入记录，覆盖已有内容。仅用于快照恢复。
	Put(ctx context.Context, collection, id string, record Record) error
	// Update 将partial浅合并到已有记录中；记录不存在时返回ErrNotFound
	Update(ctx context.Context, collection, id string, partial Record) error
	// UpdateUnless 与Update相同，但当记录中guardField的值等于guardValue时返回ErrConflict且不做修改
	UpdateUnless(ctx context.Context, collection, id, guardField string, guardValue json.RawMessage, partial Record) error
	// Increment 原子地为整数字段加上delta，结果小于floor时返回ErrConflict。返回新值。
	Increment(ctx context.Context, collection, id, field string, delta, floor int64) (int64, error)
	// Remove 删除记录，记录不存在时不报错
	Remove(ctx context.Context, collection, id string) error

	GetDoc(ctx context.Context, path string) (Record, error)
	// MergeDoc 在一次原子写入中创建或合并固定路径上的文档。
	// defaults 中的字段只在文档尚未包含该字段时写入。
	MergeDoc(ctx context.Context, path string, partial, defaults Record) error
}

// NewID 生成一个全局唯一、按时间递增的记录ID
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("无法生成记录ID: %w", err)
	}
	return id.String(), nil
}

// Encode 将任意可JSON序列化的结构体拆分为逐字段编码的Record
func Encode(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("无法序列化记录: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("记录必须是JSON对象: %w", err)
	}
	return rec, nil
}

// Decode 将Record还原到目标结构体
func (r Record) Decode(v any) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("无法序列化记录: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("无法解析记录: %w", err)
	}
	return nil
}

// Clone 返回记录的深拷贝
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Set 编码单个字段的值
func (r Record) Set(field string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("无法序列化字段 %s: %w", field, err)
	}
	r[field] = raw
	return nil
}

// MustJSON 编码一个已知可序列化的常量值
func MustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
