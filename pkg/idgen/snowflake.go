// Package idgen 生成流水号和脚本ID
//
// 雪花ID布局：符号位 0 | 41 位毫秒时间戳 | 10 位实例号 | 12 位序列号
package idgen

import (
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	epoch        = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerBits   = 10
	sequenceBits = 12
	maxWorker    = int64(1)<<workerBits - 1
	sequenceMask = int64(1)<<sequenceBits - 1
)

type Snowflake struct {
	mu       sync.Mutex
	workerID int64
	lastMs   int64
	sequence int64
	clock    func() int64 // 毫秒时间戳，nil 时使用系统时间
}

func NewSnowflake(workerID int64) (*Snowflake, error) {
	if workerID < 0 || workerID > maxWorker {
		return nil, fmt.Errorf("workerID 必须在 0-%d 之间，当前为 %d", maxWorker, workerID)
	}
	return &Snowflake{workerID: workerID}, nil
}

func (s *Snowflake) nowMs() int64 {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now().UnixMilli()
}

// Generate 同一实例内严格递增
// 系统时钟回拨时沿用上一次的时间戳继续分配序列号，不会生成重复或更小的ID
func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.nowMs()
	if ms < s.lastMs {
		ms = s.lastMs
	}

	if ms == s.lastMs {
		s.sequence = (s.sequence + 1) & sequenceMask
		if s.sequence == 0 {
			// 本毫秒序列号用完，借用下一毫秒
			ms = s.lastMs + 1
		}
	} else {
		s.sequence = 0
	}
	s.lastMs = ms

	return (ms-epoch)<<(workerBits+sequenceBits) | s.workerID<<sequenceBits | s.sequence
}

var (
	defaultGenerator *Snowflake
	initOnce         sync.Once
)

// Init 设置进程内默认生成器的实例号，只有第一次调用生效
func Init(workerID int64) {
	initOnce.Do(func() {
		generator, err := NewSnowflake(workerID)
		if err != nil {
			log.Fatalf("初始化ID生成器失败: %v", err)
		}
		defaultGenerator = generator
	})
}

// NextID 未调用过 Init 时使用实例号 1
func NextID() int64 {
	Init(1)
	return defaultGenerator.Generate()
}

func prefixed(prefix string) string {
	return fmt.Sprintf("%s%s%d", prefix, time.Now().UTC().Format("20060102"), NextID())
}

// GenerateTransactionID 积分流水号，例如 TXN20240115123456789012345
func GenerateTransactionID() string {
	return prefixed("TXN")
}

// GenerateScriptID 脚本记录ID，例如 SCR20240115123456789012345
func GenerateScriptID() string {
	return prefixed("SCR")
}
