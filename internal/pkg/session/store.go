package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 会话字段名
const (
	FieldDiscount = "discount" // 当前已应用折扣
	FieldCheckout = "checkout" // 结算向导状态
)

// 动作锁名：同一会话同一动作同时只允许一个在途请求
const (
	LockApplying   = "applying"
	LockCollecting = "collecting"
	LockProcessing = "processing"
)

// DefaultTTL 会话状态过期时间
const DefaultTTL = 24 * time.Hour

// LockTTL 动作锁过期时间，防止崩溃后锁残留
const LockTTL = 30 * time.Second

// Store 会话状态容器
// 显式注入到各 domain，避免进程级单例
type Store struct {
	rdb *redis.Client
}

// NewStore 创建会话状态容器
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) key(sessionID, field string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, field)
}

// SetJSON 写入会话字段
func (s *Store) SetJSON(ctx context.Context, sessionID, field string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session marshal error: %w", err)
	}
	return s.rdb.Set(ctx, s.key(sessionID, field), data, DefaultTTL).Err()
}

// GetJSON 读取会话字段，第一个返回值表示是否存在
func (s *Store) GetJSON(ctx context.Context, sessionID, field string, out interface{}) (bool, error) {
	val, err := s.rdb.Get(ctx, s.key(sessionID, field)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("session get error: %w", err)
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false, fmt.Errorf("session unmarshal error: %w", err)
	}
	return true, nil
}

// Delete 删除会话字段
func (s *Store) Delete(ctx context.Context, sessionID, field string) error {
	return s.rdb.Del(ctx, s.key(sessionID, field)).Err()
}

// AcquireLock 获取动作锁，返回 false 表示该动作已有在途请求
func (s *Store) AcquireLock(ctx context.Context, sessionID, action string) (bool, error) {
	key := s.key(sessionID, "lock:"+action)
	ok, err := s.rdb.SetNX(ctx, key, 1, LockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("session lock error: %w", err)
	}
	return ok, nil
}

// ReleaseLock 释放动作锁
func (s *Store) ReleaseLock(ctx context.Context, sessionID, action string) error {
	return s.rdb.Del(ctx, s.key(sessionID, "lock:"+action)).Err()
}

// Lua 脚本：追加审计记录并截断到上限
var auditScript = redis.NewScript(`
	local key = KEYS[1]
	local entry = ARGV[1]
	local max = tonumber(ARGV[2])
	local ttl = tonumber(ARGV[3])

	redis.call("LPUSH", key, entry)
	redis.call("LTRIM", key, 0, max - 1)
	redis.call("EXPIRE", key, ttl)
	return 1
`)

// AppendAudit 追加一条审计记录到会话的有界列表
func (s *Store) AppendAudit(ctx context.Context, sessionID string, entry interface{}, max int) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit marshal error: %w", err)
	}
	key := s.key(sessionID, "audit")
	return auditScript.Run(ctx, s.rdb, []string{key}, data, max, int(DefaultTTL.Seconds())).Err()
}
