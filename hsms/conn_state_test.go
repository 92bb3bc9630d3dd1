package hsms

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-secsgem/logger"
)

type mockConn struct {
	single bool
}

func (c *mockConn) Open(bool) error           { return nil }
func (c *mockConn) Close() error              { return nil }
func (c *mockConn) AddSession(uint16) Session { return nil }
func (c *mockConn) GetLogger() logger.Logger  { return logger.GetLogger() }
func (c *mockConn) IsSingleSession() bool     { return c.single }
func (c *mockConn) IsGeneralSession() bool    { return !c.single }

func TestConnStateTransitions(t *testing.T) {
	require := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("Initial State", func(t *testing.T) {
		cs := NewConnStateMgr(ctx, nil)
		require.Equal(NotConnectedState, cs.State())
		require.True(cs.IsNotConnected())
	})

	t.Run("HSMS-SS", func(t *testing.T) {
		var transitions []ConnState
		cs := NewConnStateMgr(ctx, &mockConn{single: true})
		cs.AddHandler(func(_ Connection, _ ConnState, newState ConnState) { transitions = append(transitions, newState) })

		require.ErrorIs(cs.ToSelected(), ErrInvalidTransition)

		require.NoError(cs.ToNotSelected())
		require.True(cs.IsNotSelected())
		require.NoError(cs.ToNotSelected())

		require.NoError(cs.ToSelected())
		require.True(cs.IsSelected())
		require.NoError(cs.ToSelected())

		require.ErrorIs(cs.ToNotSelected(), ErrInvalidTransition)

		cs.ToNotConnected()
		require.True(cs.IsNotConnected())
		cs.ToNotConnected()

		require.Equal([]ConnState{NotSelectedState, SelectedState, NotConnectedState}, transitions)
	})

	t.Run("HSMS-GS deselect", func(t *testing.T) {
		cs := NewConnStateMgr(ctx, &mockConn{single: false})
		require.NoError(cs.ToNotSelected())
		require.NoError(cs.ToSelected())
		require.NoError(cs.ToNotSelected())
		require.Equal(NotSelectedState, cs.State())
	})

	t.Run("handler observes previous state", func(t *testing.T) {
		cs := NewConnStateMgr(ctx, nil)
		var observed []ConnState
		cs.AddHandler(func(_ Connection, prevState ConnState, _ ConnState) {
			observed = append(observed, prevState, cs.State())
		})

		require.NoError(cs.ToNotSelected())
		require.NoError(cs.ToSelected())
		cs.ToNotConnected()

		// selection handlers run before the change, disconnection handlers after it
		require.Equal([]ConnState{
			NotConnectedState, NotConnectedState,
			NotSelectedState, NotSelectedState,
			SelectedState, NotConnectedState,
		}, observed)
	})
}

func TestConnStateAsync(t *testing.T) {
	require := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs := NewConnStateMgr(ctx, nil)

	cs.ToNotSelectedAsync()
	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	require.NoError(cs.WaitState(waitCtx, NotSelectedState))

	cs.ToSelectedAsync()
	require.NoError(cs.WaitState(waitCtx, SelectedState))

	cs.ToNotConnectedAsync()
	require.NoError(cs.WaitState(waitCtx, NotConnectedState))

	// invalid asynchronous transition falls back to not-connected
	cs.ToSelectedAsync()
	time.Sleep(50 * time.Millisecond)
	require.Equal(NotConnectedState, cs.State())
}

func TestConnStateWaitState(t *testing.T) {
	require := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs := NewConnStateMgr(ctx, nil)

	shortCtx, shortCancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer shortCancel()
	require.ErrorIs(cs.WaitState(shortCtx, SelectedState), context.DeadlineExceeded)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
			defer waitCancel()
			errs[i] = cs.WaitState(waitCtx, SelectedState)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	require.NoError(cs.ToNotSelected())
	require.NoError(cs.ToSelected())
	wg.Wait()

	for _, err := range errs {
		require.NoError(err)
	}
}
