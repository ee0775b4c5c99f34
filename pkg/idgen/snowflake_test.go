package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnowflake_WorkerRange(t *testing.T) {
	_, err := NewSnowflake(-1)
	assert.Error(t, err)
	_, err = NewSnowflake(maxWorker + 1)
	assert.Error(t, err)

	s, err := NewSnowflake(maxWorker)
	require.NoError(t, err)
	assert.Equal(t, maxWorker, (s.Generate()>>sequenceBits)&maxWorker)
}

func TestSnowflake_Unique(t *testing.T) {
	s, err := NewSnowflake(3)
	require.NoError(t, err)

	const workers, perWorker = 8, 2000
	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, s.Generate())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestSnowflake_ClockMovesBackwards(t *testing.T) {
	ticks := []int64{epoch + 1000, epoch + 1000, epoch + 400, epoch + 999, epoch + 1001}
	i := 0
	s := &Snowflake{workerID: 1, clock: func() int64 {
		ms := ticks[i]
		i++
		return ms
	}}

	prev := s.Generate()
	for range ticks[1:] {
		next := s.Generate()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestSnowflake_SequenceExhausted(t *testing.T) {
	s := &Snowflake{workerID: 1, clock: func() int64 { return epoch + 5000 }}

	prev := s.Generate()
	for i := int64(0); i < sequenceMask+10; i++ {
		next := s.Generate()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestGeneratePrefixedIDs(t *testing.T) {
	txn := GenerateTransactionID()
	scr := GenerateScriptID()

	assert.True(t, strings.HasPrefix(txn, "TXN"), txn)
	assert.True(t, strings.HasPrefix(scr, "SCR"), scr)
	assert.NotEqual(t, GenerateTransactionID(), txn)
}
