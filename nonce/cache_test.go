package nonce

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceFetcher serves one account image per call, repeating the last
type sequenceFetcher struct {
	mutex  sync.Mutex
	images [][]byte
	err    error
	calls  int

	// every call from failFrom on fails
	failFrom int
}

func (f *sequenceFetcher) AccountData(ctx context.Context, pubkey string) ([]byte, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failFrom > 0 && f.calls >= f.failFrom {
		return nil, errors.New("rpc timeout")
	}
	idx := f.calls - 1
	if idx >= len(f.images) {
		idx = len(f.images) - 1
	}
	return f.images[idx], nil
}

func (f *sequenceFetcher) callCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls
}

func nonceAccount(fill byte) []byte {
	data := make([]byte, accountSize)
	for i := nonceStart; i < nonceEnd; i++ {
		data[i] = fill
	}
	// authority bytes must not leak into the nonce
	for i := 8; i < nonceStart; i++ {
		data[i] = 0xAA
	}
	return data
}

func nonceValue(fill byte) string {
	b := make([]byte, nonceEnd-nonceStart)
	for i := range b {
		b[i] = fill
	}
	return base58.Encode(b)
}

func newTestCache(f AccountFetcher) *Cache {
	c := NewCache(f, "NonceAccount111", true)
	c.retryDelay = time.Millisecond
	return c
}

func TestDisabledCache(t *testing.T) {
	c := NewCache(&sequenceFetcher{}, "", true)
	assert.False(t, c.Enabled())

	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNonceUnavailable)
	assert.Nil(t, c.Cached())
	require.NoError(t, c.Initialize(context.Background()))

	c = NewCache(&sequenceFetcher{}, "acct", false)
	assert.False(t, c.Enabled())
	c.RefreshAsync()
	require.NoError(t, c.Close())
}

func TestFirstRefreshTakesValueImmediately(t *testing.T) {
	f := &sequenceFetcher{images: [][]byte{nonceAccount(1)}}
	c := newTestCache(f)

	require.NoError(t, c.Initialize(context.Background()))
	info := c.Cached()
	require.NotNil(t, info)
	assert.Equal(t, "NonceAccount111", info.NonceAccount)
	assert.Equal(t, nonceValue(1), info.CurrentNonce)
	assert.Equal(t, 1, f.callCount())
}

func TestRefreshRetriesUntilValueChanges(t *testing.T) {
	f := &sequenceFetcher{images: [][]byte{nonceAccount(1), nonceAccount(1), nonceAccount(1), nonceAccount(2)}}
	c := newTestCache(f)

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	info, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, nonceValue(2), info.CurrentNonce)
	assert.Equal(t, 4, f.callCount(), "one initial read plus three for the change")
}

func TestRefreshGivesUpAfterAttemptLimit(t *testing.T) {
	f := &sequenceFetcher{images: [][]byte{nonceAccount(7)}}
	c := newTestCache(f)

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	info, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, nonceValue(7), info.CurrentNonce)
	assert.Equal(t, 1+defaultAttempts, f.callCount())
}

func TestRefreshKeepsValueWhenRereadFails(t *testing.T) {
	f := &sequenceFetcher{images: [][]byte{nonceAccount(4)}, failFrom: 3}
	c := newTestCache(f)

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	info, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, nonceValue(4), info.CurrentNonce)
	assert.Equal(t, nonceValue(4), c.Cached().CurrentNonce)
	assert.Equal(t, 3, f.callCount())
}

func TestRefreshLeavesCacheOnMalformedAccount(t *testing.T) {
	f := &sequenceFetcher{images: [][]byte{nonceAccount(3), make([]byte, 79)}}
	c := newTestCache(f)

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	_, err = c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNonceUnavailable)
	assert.Equal(t, nonceValue(3), c.Cached().CurrentNonce)
}

func TestRefreshMissingAccount(t *testing.T) {
	c := newTestCache(&sequenceFetcher{images: [][]byte{nil}})
	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNonceUnavailable)
	assert.Nil(t, c.Cached())

	c = newTestCache(&sequenceFetcher{err: errors.New("rpc down")})
	err = c.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrNonceUnavailable)
}

func TestCachedReturnsCopy(t *testing.T) {
	c := newTestCache(&sequenceFetcher{images: [][]byte{nonceAccount(1)}})
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	info := c.Cached()
	info.CurrentNonce = "mutated"
	assert.Equal(t, nonceValue(1), c.Cached().CurrentNonce)
}

func TestCloseCancelsAsyncRefresh(t *testing.T) {
	f := &sequenceFetcher{images: [][]byte{nonceAccount(1)}}
	c := NewCache(f, "acct", true)
	c.retryDelay = time.Hour

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	// value never changes, so the goroutine parks in its retry wait
	c.RefreshAsync()
	require.Eventually(t, func() bool { return f.callCount() >= 2 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wait out the cancelled refresh")
	}

	calls := f.callCount()
	c.RefreshAsync()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, f.callCount(), "refresh after Close is a no-op")
}
