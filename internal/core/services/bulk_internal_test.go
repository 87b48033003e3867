package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/core/ports/gateways"
	"github.com/stretchr/testify/assert"
)

func TestRunBulk_IndependentFailures(t *testing.T) {
	boom := errors.New("boom")
	result := runBulk(context.Background(), 2, "cancel", "charge", []string{"1", "2", "3", "2", ""}, func(_ context.Context, id string) error {
		if id == "2" {
			return boom
		}
		return nil
	})

	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, []string{"1", "3"}, result.Succeeded)
	assert.ErrorIs(t, result.Failed["2"], boom)
	assert.Equal(t, "Failed to cancel 1 of 3 charges", result.Summary())
}

func TestRunBulk_RespectsLimit(t *testing.T) {
	var inFlight, peak int32
	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	runBulk(context.Background(), 3, "cancel", "charge", ids, func(_ context.Context, _ string) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestRunBulk_CanceledContextFailsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	result := runBulk(ctx, 0, "delete", "recurring charge", []string{"1"}, func(context.Context, string) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, result.Failed["1"], context.Canceled)
}

func TestRunBulk_DerivesItemIdempotencyKeys(t *testing.T) {
	var mu sync.Mutex
	keys := map[string]string{}
	ctx := gateways.WithIdempotencyKey(context.Background(), "batch-7")
	runBulk(ctx, 2, "cancel", "charge", []string{"1", "2"}, func(ctx context.Context, id string) error {
		key, _ := gateways.IdempotencyKey(ctx)
		mu.Lock()
		keys[id] = key
		mu.Unlock()
		return nil
	})
	assert.Equal(t, map[string]string{"1": "batch-7:1", "2": "batch-7:2"}, keys)

	runBulk(context.Background(), 1, "cancel", "charge", []string{"1"}, func(ctx context.Context, _ string) error {
		_, ok := gateways.IdempotencyKey(ctx)
		assert.False(t, ok)
		return nil
	})
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "", "b", "a"}))
	assert.Empty(t, dedupe(nil))
}
