package gateway

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_TryRegisterConflict(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	first, err := r.TryRegister("srv1", nil)
	require.NoError(t, err)

	_, err = r.TryRegister("srv1", nil)
	require.ErrorIs(t, err, ErrAlreadyConnected)

	got, ok := r.Find("srv1")
	require.True(t, ok)
	assert.Same(t, first, got, "conflict must not replace the existing record")
}

func TestRegistry_ConcurrentRegisterSameIdentity(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	const n = 64
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := r.TryRegister("srv1", nil); err == nil {
				succeeded.Add(1)
			} else if errors.Is(err, ErrAlreadyConnected) {
				conflicts.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(n-1), conflicts.Load())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	r.Remove("ghost")

	_, err := r.TryRegister("srv1", nil)
	require.NoError(t, err)
	r.Remove("srv1")
	r.Remove("srv1")

	_, ok := r.Find("srv1")
	assert.False(t, ok)

	_, err = r.TryRegister("srv1", nil)
	assert.NoError(t, err, "identity is free again after removal")
}

func TestRegistry_ReleaseIgnoresStaleRecord(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	old, err := r.TryRegister("srv1", nil)
	require.NoError(t, err)
	r.Release(old)

	fresh, err := r.TryRegister("srv1", nil)
	require.NoError(t, err)

	r.Release(old)
	got, ok := r.Find("srv1")
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestRegistry_ServersSnapshot(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	now := time.UnixMilli(1_700_000_000_000)
	r.now = func() time.Time { return now }

	b, _ := r.TryRegister("b", nil)
	_, _ = r.TryRegister("a", nil)
	b.Touch(now.Add(time.Minute))

	servers := r.Servers()
	require.Len(t, servers, 2)
	assert.Equal(t, "a", servers[0].ID)
	assert.Equal(t, "b", servers[1].ID)
	assert.Equal(t, now, servers[0].LastAlive)
	assert.Equal(t, now.Add(time.Minute), servers[1].LastAlive)
}

func TestTruncateReason(t *testing.T) {
	t.Parallel()
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, truncateReason(string(long)), 123)
	assert.Equal(t, "short", truncateReason("short"))
}
