package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// --- Redis 键布局 ---
// 记录:   <prefix><collection>:<id>  Hash，字段 -> JSON编码的值
// 索引:   <prefix><collection>       Sorted Set，所有成员分数为0，按ID字典序(即创建顺序)排列
// 文档:   <prefix><path>             Hash，用于固定路径上的单例

var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

var updateUnlessScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
	return -1
end
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
return 1
`)

var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {0, 0}
end
local current = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local nextValue = current + tonumber(ARGV[2])
if nextValue < tonumber(ARGV[3]) then
	return {-1, current}
end
redis.call('HSET', KEYS[1], ARGV[1], string.format('%d', nextValue))
return {1, nextValue}
`)

var mergeDocScript = redis.NewScript(`
local n = tonumber(ARGV[1])
for i = 2, 2 * n, 2 do
	redis.call('HSETNX', KEYS[1], ARGV[i], ARGV[i + 1])
end
if #ARGV > 2 * n + 1 then
	redis.call('HSET', KEYS[1], unpack(ARGV, 2 * n + 2))
end
return 1
`)

// RedisStore 是基于Redis的Store实现
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore 使用已连接的客户端创建存储，prefix 会加在所有键名之前
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) indexKey(collection string) string {
	return s.prefix + collection
}

func (s *RedisStore) recordKey(collection, id string) string {
	return s.prefix + collection + ":" + id
}

func (s *RedisStore) docKey(path string) string {
	return s.prefix + path
}

func (s *RedisStore) GetAll(ctx context.Context, collection string) ([]Item, error) {
	ids, err := s.rdb.ZRange(ctx, s.indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("无法读取集合 %s 的索引: %w", collection, err)
	}
	if len(ids) == 0 {
		return []Item{}, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.recordKey(collection, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("执行Redis Pipeline失败: %w", err)
	}

	items := make([]Item, 0, len(ids))
	for i, id := range ids {
		fields, err := cmds[i].Result()
		if err != nil {
			return nil, fmt.Errorf("无法读取记录 %s/%s: %w", collection, id, err)
		}
		// 索引中残留但记录已不存在，跳过
		if len(fields) == 0 {
			continue
		}
		items = append(items, Item{ID: id, Record: fromHash(fields)})
	}
	return items, nil
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (Record, error) {
	fields, err := s.rdb.HGetAll(ctx, s.recordKey(collection, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("无法读取记录 %s/%s: %w", collection, id, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return fromHash(fields), nil
}

func (s *RedisStore) Create(ctx context.Context, collection string, record Record) (string, error) {
	if len(record) == 0 {
		return "", fmt.Errorf("不能在 %s 中创建空记录", collection)
	}
	id, err := NewID()
	if err != nil {
		return "", err
	}
	if err := s.Put(ctx, collection, id, record); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Put(ctx context.Context, collection, id string, record Record) error {
	key := s.recordKey(collection, id)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(record) > 0 {
			pipe.HSet(ctx, key, toArgs(record)...)
		}
		pipe.ZAdd(ctx, s.indexKey(collection), redis.Z{Score: 0, Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("无法写入记录 %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, partial Record) error {
	key := s.recordKey(collection, id)
	if len(partial) == 0 {
		n, err := s.rdb.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("无法检查记录 %s/%s: %w", collection, id, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}

	res, err := updateScript.Run(ctx, s.rdb, []string{key}, toArgs(partial)...).Int()
	if err != nil {
		return fmt.Errorf("无法更新记录 %s/%s: %w", collection, id, err)
	}
	if res == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) UpdateUnless(ctx context.Context, collection, id, guardField string, guardValue json.RawMessage, partial Record) error {
	if len(partial) == 0 {
		return errors.New("条件更新需要至少一个字段")
	}
	args := append([]interface{}{guardField, string(guardValue)}, toArgs(partial)...)
	res, err := updateUnlessScript.Run(ctx, s.rdb, []string{s.recordKey(collection, id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("无法条件更新记录 %s/%s: %w", collection, id, err)
	}
	switch res {
	case 0:
		return ErrNotFound
	case -1:
		return ErrConflict
	}
	return nil
}

func (s *RedisStore) Increment(ctx context.Context, collection, id, field string, delta, floor int64) (int64, error) {
	key := s.recordKey(collection, id)
	res, err := incrementScript.Run(ctx, s.rdb, []string{key}, field, delta, floor).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("无法递增 %s/%s 的字段 %s: %w", collection, id, field, err)
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("递增脚本返回了意外的结果: %v", res)
	}
	switch res[0] {
	case 0:
		return 0, ErrNotFound
	case -1:
		return res[1], ErrConflict
	}
	return res[1], nil
}

func (s *RedisStore) Remove(ctx context.Context, collection, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(collection, id))
		pipe.ZRem(ctx, s.indexKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("无法删除记录 %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *RedisStore) GetDoc(ctx context.Context, path string) (Record, error) {
	fields, err := s.rdb.HGetAll(ctx, s.docKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("无法读取文档 %s: %w", path, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return fromHash(fields), nil
}

func (s *RedisStore) MergeDoc(ctx context.Context, path string, partial, defaults Record) error {
	if len(partial) == 0 && len(defaults) == 0 {
		return nil
	}
	args := make([]interface{}, 0, 1+2*(len(partial)+len(defaults)))
	args = append(args, strconv.Itoa(len(defaults)))
	args = append(args, toArgs(defaults)...)
	args = append(args, toArgs(partial)...)
	if err := mergeDocScript.Run(ctx, s.rdb, []string{s.docKey(path)}, args...).Err(); err != nil {
		return fmt.Errorf("无法写入文档 %s: %w", path, err)
	}
	return nil
}

func toArgs(rec Record) []interface{} {
	args := make([]interface{}, 0, 2*len(rec))
	for k, v := range rec {
		args = append(args, k, string(v))
	}
	return args
}

func fromHash(fields map[string]string) Record {
	rec := make(Record, len(fields))
	for k, v := range fields {
		rec[k] = json.RawMessage(v)
	}
	return rec
}
