package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

func TestGuardMissIsHealthy(t *testing.T) {
	br := resilience.NewBreaker("redis", resilience.BreakerConfig{Threshold: 1, Cooldown: time.Hour})
	store := Guard(newMemStore(), br, time.Second)

	for i := 0; i < 3; i++ {
		_, err := store.Get(context.Background(), "docsearch:absent")
		assert.ErrorIs(t, err, redis.Nil)
	}
	assert.Equal(t, resilience.Closed, br.State())
}

func TestGuardOpensOnBackendFailure(t *testing.T) {
	inner := newMemStore()
	inner.failGet = true
	br := resilience.NewBreaker("redis", resilience.BreakerConfig{Threshold: 2, Cooldown: time.Hour})
	c := New(Guard(inner, br, time.Second), time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, ok := c.Get(ctx, "docsearch:k")
		assert.False(t, ok)
	}
	require.Equal(t, resilience.Open, br.State())

	_, err := Guard(inner, br, 0).Get(ctx, "docsearch:k")
	assert.ErrorIs(t, err, resilience.ErrOpen)

	res, hit := c.GetOrCompute(ctx, "docsearch:k", sampleResult)
	assert.False(t, hit)
	assert.Equal(t, sampleResult(), res)
	assert.Empty(t, inner.data, "writes are skipped while open")
}

func TestGuardPassesThroughValues(t *testing.T) {
	br := resilience.NewBreaker("redis", resilience.BreakerConfig{})
	c := New(Guard(newMemStore(), br, time.Second), time.Minute, nil)
	ctx := context.Background()

	c.Set(ctx, "docsearch:k", sampleResult())
	got, ok := c.Get(ctx, "docsearch:k")
	require.True(t, ok)
	assert.Equal(t, sampleResult(), got)
	require.NoError(t, c.Invalidate(ctx))
}
