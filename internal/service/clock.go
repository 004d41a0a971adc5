package service

import "time"

// Clock 业务时间来源
type Clock interface {
	Now() time.Time
}

// SystemClock 使用系统时间（UTC）
type SystemClock struct{}

// Now 返回当前 UTC 时间
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock 固定时间，用于测试与数据回放
type FixedClock struct {
	At time.Time
}

// Now 返回固定时间
func (c FixedClock) Now() time.Time {
	return c.At
}

func resolveTimestamp(clock Clock, ts time.Time) time.Time {
	if !ts.IsZero() {
		return ts.UTC()
	}
	if clock == nil {
		return SystemClock{}.Now()
	}
	return clock.Now()
}
