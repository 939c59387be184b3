package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// MemoryStore 是进程内的Store实现，用于测试和无Redis的本地开发
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record
	docs        map[string]Record
}

// NewMemoryStore 创建一个空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Record),
		docs:        make(map[string]Record),
	}
}

func (m *MemoryStore) GetAll(ctx context.Context, collection string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.collections[collection]
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	// UUIDv7的字符串形式按字典序即按时间排序
	sort.Strings(ids)

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, Item{ID: id, Record: records[id].Clone()})
	}
	return items, nil
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) Create(ctx context.Context, collection string, record Record) (string, error) {
	if len(record) == 0 {
		return "", fmt.Errorf("不能在 %s 中创建空记录", collection)
	}
	id, err := NewID()
	if err != nil {
		return "", err
	}
	return id, m.Put(ctx, collection, id, record)
}

func (m *MemoryStore) Put(ctx context.Context, collection, id string, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, ok := m.collections[collection]
	if !ok {
		records = make(map[string]Record)
		m.collections[collection] = records
	}
	records[id] = record.Clone()
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, partial Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	merge(rec, partial)
	return nil
}

func (m *MemoryStore) UpdateUnless(ctx context.Context, collection, id, guardField string, guardValue json.RawMessage, partial Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	if current, ok := rec[guardField]; ok && bytes.Equal(current, guardValue) {
		return ErrConflict
	}
	merge(rec, partial)
	return nil
}

func (m *MemoryStore) Increment(ctx context.Context, collection, id, field string, delta, floor int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.collections[collection][id]
	if !ok {
		return 0, ErrNotFound
	}
	var current int64
	if raw, ok := rec[field]; ok {
		parsed, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("字段 %s 不是整数: %w", field, err)
		}
		current = parsed
	}
	next := current + delta
	if next < floor {
		return current, ErrConflict
	}
	rec[field] = json.RawMessage(strconv.FormatInt(next, 10))
	return next, nil
}

func (m *MemoryStore) Remove(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections[collection], id)
	return nil
}

func (m *MemoryStore) GetDoc(ctx context.Context, path string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (m *MemoryStore) MergeDoc(ctx context.Context, path string, partial, defaults Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[path]
	if !ok {
		doc = make(Record, len(partial)+len(defaults))
		m.docs[path] = doc
	}
	for k, v := range defaults {
		if _, exists := doc[k]; !exists {
			doc[k] = append(json.RawMessage(nil), v...)
		}
	}
	merge(doc, partial)
	return nil
}

func merge(dst, partial Record) {
	for k, v := range partial {
		dst[k] = append(json.RawMessage(nil), v...)
	}
}
