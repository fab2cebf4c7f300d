package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rest-gateway/middleware/ratelimit/domain"
)

// fakeStore conta por chave sem janela (o reset é testado em infra).
type fakeStore struct {
	counts map[domain.Key]int
}

func newFakeStore() *fakeStore { return &fakeStore{counts: map[domain.Key]int{}} }

func (s *fakeStore) Hit(key domain.Key, now time.Time) domain.Window {
	s.counts[key]++
	return domain.Window{Count: s.counts[key], Start: now}
}

var t0 = time.Unix(1000, 0)

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{}
	dec, err := svc.Decide(context.Background(), "k", t0)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Zero(t, dec.RetryAfter)
}

func TestService_Decide_DisabledNeverCounts(t *testing.T) {
	store := newFakeStore()
	svc := Service{Store: store, Max: 1, Delay: -1, Disabled: true}
	for i := 0; i < 5; i++ {
		dec, err := svc.Decide(context.Background(), "k", t0)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
	}
	assert.Empty(t, store.counts)
}

func TestService_Decide_RejectsBeyondMax(t *testing.T) {
	svc := Service{Store: newFakeStore(), Max: 2, Delay: -1}

	for i := 1; i <= 2; i++ {
		dec, err := svc.Decide(context.Background(), "k", t0)
		require.NoError(t, err)
		assert.True(t, dec.Allowed, "request %d", i)
		assert.Equal(t, i, dec.Count)
	}

	dec, err := svc.Decide(context.Background(), "k", t0)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, domain.ReasonRateExceeded, dec.Reason)
	assert.Equal(t, 1*time.Second, dec.RetryAfter, "expected default RetryAfter")
	assert.Equal(t, 0, dec.Remaining())
}

func TestService_Decide_BlocksWithConfiguredRetryAfter(t *testing.T) {
	svc := Service{Store: newFakeStore(), Max: 1, Delay: -1, RetryAfter: 2500 * time.Millisecond}
	_, _ = svc.Decide(context.Background(), "k", t0)
	dec, err := svc.Decide(context.Background(), "k", t0)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 2500*time.Millisecond, dec.RetryAfter)
}

func TestService_Decide_RejectionDoesNotAffectOtherKeys(t *testing.T) {
	svc := Service{Store: newFakeStore(), Max: 1, Delay: -1}
	_, _ = svc.Decide(context.Background(), "a", t0)
	dec, _ := svc.Decide(context.Background(), "a", t0)
	assert.False(t, dec.Allowed)

	dec, _ = svc.Decide(context.Background(), "b", t0)
	assert.True(t, dec.Allowed)
}

func TestService_Decide_DelayModeAdmitsAfterDelay(t *testing.T) {
	svc := Service{
		Store:    newFakeStore(),
		Max:      1,
		Delay:    20 * time.Millisecond,
		Throttle: ThrottleService{Pool: &recordingPool{}},
	}
	_, _ = svc.Decide(context.Background(), "k", t0)

	start := time.Now()
	dec, err := svc.Decide(context.Background(), "k", t0)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.True(t, dec.Delayed)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestService_Decide_DelayModeThrottledWhenNoSlot(t *testing.T) {
	svc := Service{
		Store:    newFakeStore(),
		Max:      1,
		Delay:    0,
		Throttle: ThrottleService{Pool: blockingPool{}, MaxWait: 10 * time.Millisecond},
	}
	_, _ = svc.Decide(context.Background(), "k", t0)

	dec, err := svc.Decide(context.Background(), "k", t0)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, domain.ReasonThrottled, dec.Reason)
}

func TestService_Decide_DelayModeAbortsOnCancel(t *testing.T) {
	svc := Service{
		Store:    newFakeStore(),
		Max:      1,
		Delay:    time.Minute,
		Throttle: ThrottleService{Pool: &recordingPool{}},
	}
	_, _ = svc.Decide(context.Background(), "k", t0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	dec, err := svc.Decide(ctx, "k", t0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, dec.Allowed)
}

func TestService_Allow(t *testing.T) {
	svc := Service{Store: newFakeStore(), Max: 1, Delay: -1}
	assert.True(t, svc.Allow("k", t0))
	assert.False(t, svc.Allow("k", t0))
}
