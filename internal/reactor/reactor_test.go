package reactor_test

import (
	"testing"
	"time"

	"github.com/jroosing/msgbox/internal/reactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func socketPair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPoll_readReadiness(t *testing.T) {
	a, b := socketPair(t)

	r := reactor.New()
	idx := r.Register(a, reactor.Read, "conn-a")

	_, err := unix.Write(b, []byte("hi"))
	require.NoError(t, err)

	events, moved, err := r.Poll(time.Second)
	require.NoError(t, err)
	assert.Nil(t, moved)
	require.Len(t, events, 1)
	assert.True(t, events[0].Readable)
	assert.Equal(t, "conn-a", events[0].Data)
	assert.Equal(t, 0, idx)
}

func TestPoll_timeoutReturnsNoEvents(t *testing.T) {
	a, _ := socketPair(t)

	r := reactor.New()
	r.Register(a, reactor.Read, "conn-a")

	events, _, err := r.Poll(20 * time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUnregister_deferredSwapRemoval(t *testing.T) {
	a1, b1 := socketPair(t)
	a2, b2 := socketPair(t)
	a3, b3 := socketPair(t)
	_ = b1

	r := reactor.New()
	idx1 := r.Register(a1, reactor.Read, "first")
	idx2 := r.Register(a2, reactor.Read, "second")
	idx3 := r.Register(a3, reactor.Read, "third")
	assert.Equal(t, 3, r.Len())

	r.Unregister(idx1)
	assert.Equal(t, 3, r.Len(), "removal must be deferred to next Poll")

	_, err := unix.Write(b2, []byte("x"))
	require.NoError(t, err)
	_, err = unix.Write(b3, []byte("x"))
	require.NoError(t, err)

	events, moved, err := r.Poll(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	// idx1 (0) was removed; the last entry (idx3, originally 2) should have
	// been swapped into its place.
	require.Contains(t, moved, idx1)
	assert.Equal(t, idx3, moved[idx1])

	dataSeen := map[string]bool{}
	for _, e := range events {
		dataSeen[e.Data.(string)] = true
	}
	assert.True(t, dataSeen["second"])
	assert.True(t, dataSeen["third"])
	assert.NotContains(t, moved, idx2) // idx2 unaffected by the swap
}

func TestSetMode_switchesInterest(t *testing.T) {
	a, b := socketPair(t)

	r := reactor.New()
	idx := r.Register(a, reactor.Write, "conn")
	r.SetMode(idx, reactor.Read)

	_, err := unix.Write(b, []byte("z"))
	require.NoError(t, err)

	events, _, err := r.Poll(time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Readable)
	assert.False(t, events[0].Writable)
}
