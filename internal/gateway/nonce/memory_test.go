package nonce_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/nonce"
	"github.com/stretchr/testify/require"
)

var (
	iat = time.Unix(1704067200, 0)
	exp = time.Unix(1704070800, 0)
)

func TestMemoryCheckAndConsume(t *testing.T) {
	ctx := context.Background()
	reg := nonce.NewMemory()

	require.NoError(t, reg.CheckAndConsume(ctx, "acme", "n1", exp, time.Unix(1704067500, 0)))

	err := reg.CheckAndConsume(ctx, "acme", "n1", exp, time.Unix(1704067600, 0))
	require.ErrorIs(t, err, nonce.ErrReplayed)

	// Same nonce from another partner is a different key.
	require.NoError(t, reg.CheckAndConsume(ctx, "globex", "n1", exp, time.Unix(1704067600, 0)))
}

func TestMemoryRecordLiveUntilExp(t *testing.T) {
	ctx := context.Background()
	reg := nonce.NewMemory()

	require.NoError(t, reg.CheckAndConsume(ctx, "acme", "n1", exp, iat))

	// exp == now still blocks.
	require.ErrorIs(t, reg.CheckAndConsume(ctx, "acme", "n1", exp, exp), nonce.ErrReplayed)

	// Prune at exp keeps the record.
	removed, err := reg.Prune(ctx, exp)
	require.NoError(t, err)
	require.Equal(t, 0, removed)
	require.Equal(t, 1, reg.Len())

	// One second later it is gone.
	removed, err = reg.Prune(ctx, exp.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.Equal(t, 0, reg.Len())
}

func TestMemoryExpiredRecordCanBeReused(t *testing.T) {
	ctx := context.Background()
	reg := nonce.NewMemory()

	require.NoError(t, reg.CheckAndConsume(ctx, "acme", "n1", exp, iat))
	later := exp.Add(time.Second)
	require.NoError(t, reg.CheckAndConsume(ctx, "acme", "n1", later.Add(time.Hour), later))
}

func TestMemoryRejectsEmptyKey(t *testing.T) {
	reg := nonce.NewMemory()
	require.ErrorIs(t, reg.CheckAndConsume(context.Background(), "", "n1", exp, iat), nonce.ErrInvalid)
	require.ErrorIs(t, reg.CheckAndConsume(context.Background(), "acme", "", exp, iat), nonce.ErrInvalid)
}

func TestMemoryConcurrentConsumeHasOneWinner(t *testing.T) {
	ctx := context.Background()
	reg := nonce.NewMemory()

	const workers = 64
	var (
		wg       sync.WaitGroup
		wins     atomic.Int32
		replayed atomic.Int32
		start    = make(chan struct{})
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			switch err := reg.CheckAndConsume(ctx, "acme", "race", exp, iat); err {
			case nil:
				wins.Add(1)
			case nonce.ErrReplayed:
				replayed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	require.Equal(t, int32(workers-1), replayed.Load())
}

func TestMemoryDistinctNoncesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	reg := nonce.NewMemory()

	var wg sync.WaitGroup
	errs := make(chan error, 1000)
	for i := range 1000 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- reg.CheckAndConsume(ctx, "acme", fmt.Sprintf("n-%d", i), exp, iat)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1000, reg.Len())
}

func TestMemoryAmortizedSweep(t *testing.T) {
	ctx := context.Background()
	reg := nonce.NewMemory()

	// Fill with records that are already expired by the time the next batch
	// arrives; inserts alone must eventually drop some of them.
	for i := range 4096 {
		require.NoError(t, reg.CheckAndConsume(ctx, "acme", fmt.Sprintf("old-%d", i), iat, iat.Add(-time.Minute)))
	}
	for i := range 16384 {
		require.NoError(t, reg.CheckAndConsume(ctx, "acme", fmt.Sprintf("new-%d", i), exp, iat.Add(time.Second)))
	}
	require.Less(t, reg.Len(), 4096+16384)
}
