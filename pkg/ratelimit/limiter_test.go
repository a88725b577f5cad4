package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllowsUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(3, time.Minute)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketRefillsAfterPeriod(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, tb.Allow())
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Minute)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketWaitBlocksUntilRefill(t *testing.T) {
	tb := NewTokenBucket(1, 30*time.Millisecond)
	assert.True(t, tb.Allow())

	start := time.Now()
	tb.Wait()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestTokenBucketConcurrentAllow(t *testing.T) {
	tb := NewTokenBucket(100, time.Minute)

	done := make(chan int, 10)
	for i := 0; i < 10; i++ {
		go func() {
			granted := 0
			for j := 0; j < 20; j++ {
				if tb.Allow() {
					granted++
				}
			}
			done <- granted
		}()
	}

	total := 0
	for i := 0; i < 10; i++ {
		total += <-done
	}

	// 200 requests against 100 tokens; exactly the capacity is granted.
	assert.Equal(t, 100, total)
}
