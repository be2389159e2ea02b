package netstatus

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMonitorStartsDisconnected(t *testing.T) {
	m := NewMonitor(zerolog.Nop())
	require.False(t, m.Current().Connected)
}

func TestMonitorNotifiesOnlyOnChange(t *testing.T) {
	m := NewMonitor(zerolog.Nop())

	var transitions []State
	cancel := m.Subscribe(func(s State) {
		transitions = append(transitions, s)
	})
	defer cancel()

	online := State{Connected: true, Reachable: true, Transport: "wifi"}
	m.Set(online)
	m.Set(online)
	m.Set(online)

	require.Len(t, transitions, 1, "repeated identical states are suppressed")
	require.Equal(t, online, transitions[0])

	m.Set(State{Connected: true, Reachable: true, Transport: "cellular"})
	require.Len(t, transitions, 2, "a transport change is a real transition")
}

func TestMonitorReconnectHookFiresOnlyOnOfflineToOnline(t *testing.T) {
	m := NewMonitor(zerolog.Nop())

	reconnects := 0
	cancel := m.OnReconnect(func() { reconnects++ })
	defer cancel()

	m.Set(State{Connected: true, Transport: "wifi"})
	require.Equal(t, 1, reconnects)

	// Online-to-online changes must not re-trigger the hook.
	m.Set(State{Connected: true, Transport: "cellular"})
	require.Equal(t, 1, reconnects)

	m.Set(State{Connected: false})
	require.Equal(t, 1, reconnects, "going offline never fires the hook")

	m.Set(State{Connected: true, Transport: "wifi"})
	require.Equal(t, 2, reconnects)
}

func TestMonitorSubscribeCancel(t *testing.T) {
	m := NewMonitor(zerolog.Nop())

	calls := 0
	cancel := m.Subscribe(func(State) { calls++ })

	m.Set(State{Connected: true})
	require.Equal(t, 1, calls)

	cancel()
	m.Set(State{Connected: false})
	require.Equal(t, 1, calls, "a cancelled listener stays silent")
}

func TestMonitorOnReconnectCancel(t *testing.T) {
	m := NewMonitor(zerolog.Nop())

	calls := 0
	cancel := m.OnReconnect(func() { calls++ })
	cancel()

	m.Set(State{Connected: true})
	require.Zero(t, calls)
}

func TestMonitorCallbacksMayReenter(t *testing.T) {
	m := NewMonitor(zerolog.Nop())

	// Hooks run outside the monitor lock, so reading the state from inside
	// a callback must not deadlock.
	var observed State
	cancel := m.OnReconnect(func() { observed = m.Current() })
	defer cancel()

	m.Set(State{Connected: true, Transport: "wifi"})
	require.True(t, observed.Connected)
}

func TestRunProbeProbesImmediately(t *testing.T) {
	m := NewMonitor(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probed := make(chan struct{})
	go m.RunProbe(ctx, time.Hour, func(context.Context) State {
		select {
		case probed <- struct{}{}:
		default:
		}
		return State{Connected: true, Transport: "http"}
	})

	select {
	case <-probed:
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not run before the first tick")
	}

	require.Eventually(t, func() bool {
		return m.Current().Connected
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunProbeStopsOnContextCancel(t *testing.T) {
	m := NewMonitor(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunProbe(ctx, time.Millisecond, func(context.Context) State {
			return State{Connected: true}
		})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("probe loop did not exit after cancellation")
	}
}
