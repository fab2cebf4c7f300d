package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottlePool_BlocksWhenFull(t *testing.T) {
	p := NewThrottlePool(1, 0)

	release, ok := p.Acquire(context.Background(), "a")
	require.True(t, ok)
	assert.Equal(t, 1, p.InUse())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok = p.Acquire(ctx, "b")
	assert.False(t, ok, "expected second acquire to time out")

	release()
	release() // idempotente
	assert.Equal(t, 0, p.InUse())

	release2, ok := p.Acquire(context.Background(), "b")
	require.True(t, ok, "expected slot after release")
	release2()
}

func TestThrottlePool_PerKeyCapFailsFast(t *testing.T) {
	p := NewThrottlePool(5, 1)

	release, ok := p.Acquire(context.Background(), "a")
	require.True(t, ok)
	assert.Equal(t, 1, p.Held("a"))

	// sem espera: falha mesmo com ctx sem prazo e vagas livres no total
	_, ok = p.Acquire(context.Background(), "a")
	assert.False(t, ok)

	other, ok := p.Acquire(context.Background(), "b")
	require.True(t, ok, "other keys still get slots")
	other()

	release()
	assert.Equal(t, 0, p.Held("a"))
	again, ok := p.Acquire(context.Background(), "a")
	require.True(t, ok)
	again()
}

func TestThrottlePool_TimeoutReleasesReservation(t *testing.T) {
	p := NewThrottlePool(1, 2)
	release, ok := p.Acquire(context.Background(), "a")
	require.True(t, ok)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok = p.Acquire(ctx, "b")
	assert.False(t, ok)
	assert.Equal(t, 0, p.Held("b"), "failed wait must not keep a reservation")
}
