package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bsm/redislock"
)

// ErrLockNotObtained SKU 锁被其他请求持有
var ErrLockNotObtained = errors.New("sku lock not obtained")

// SKULocks 一组已持有的 SKU 锁
type SKULocks struct {
	locks []*redislock.Lock
}

// Release 释放全部锁，忽略已过期的锁
func (l *SKULocks) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	var firstErr error
	for i := len(l.locks) - 1; i >= 0; i-- {
		if err := l.locks[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) && firstErr == nil {
			firstErr = err
		}
	}
	l.locks = nil
	return firstErr
}

// ObtainSKULocks 按 SKU ID 升序获取锁；Redis 未启用时返回 nil, nil
func ObtainSKULocks(ctx context.Context, skuIDs []uint, ttl time.Duration) (*SKULocks, error) {
	if !Enabled() || redisLocker == nil || len(skuIDs) == 0 {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	ids := sortedUniqueIDs(skuIDs)
	options := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 20),
	}
	held := &SKULocks{}
	for _, id := range ids {
		lock, err := redisLocker.Obtain(ctx, buildKey(skuLockKey(id)), ttl, options)
		if err != nil {
			_ = held.Release(ctx)
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, fmt.Errorf("%w: sku %d", ErrLockNotObtained, id)
			}
			return nil, err
		}
		held.locks = append(held.locks, lock)
	}
	return held, nil
}

func skuLockKey(skuID uint) string {
	return fmt.Sprintf("lock:sku:%d", skuID)
}

func sortedUniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
