package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeTicker_tickAndCancel(t *testing.T) {
	ticker := TimeTicker{}
	c, cancel := ticker.Tick(time.Millisecond)

	for i := 0; i < 2; i++ {
		select {
		case <-c:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for tick")
		}
	}

	cancel()
	cancel() // Check that multiple cancels are okay.

	// A stopped ticker stops delivering.
	select {
	case <-c:
		// A tick delivered before the stop may still be buffered; drain it
		// and check no further tick arrives.
		select {
		case <-c:
			t.Fatal("tick received after cancel")
		case <-time.After(50 * time.Millisecond):
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestState_strings(t *testing.T) {
	require.Equal(t, "setup", StateSetup.String())
	require.Equal(t, "waiting", StateWaiting.String())
	require.Equal(t, "forwarding", StateForwarding.String())
	require.Equal(t, "forwarded", StateForwarded.String())
	require.Equal(t, "expired", StateExpired.String())
	require.True(t, StateForwarded.Terminal())
	require.True(t, StateExpired.Terminal())
	require.False(t, StateWaiting.Terminal())
}
