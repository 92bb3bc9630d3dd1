package hsms

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/atomic"

	"github.com/arloliu/go-secsgem/logger"
)

// ConnState represents the various stages of an HSMS connection.
type ConnState uint32

// HSMS connection states.
const (
	// NotConnectedState indicates that the TCP/IP connection is not established.
	NotConnectedState ConnState = iota
	// NotSelectedState indicates that the TCP/IP connection is established, but not yet ready for data exchange.
	NotSelectedState
	// SelectedState indicates that the HSMS connection is established and ready for data exchange.
	SelectedState
)

// IsNotConnected returns if the current state is not connected.
func (cs ConnState) IsNotConnected() bool { return cs == NotConnectedState }

// IsNotSelected returns if the current state is not selected.
func (cs ConnState) IsNotSelected() bool { return cs == NotSelectedState }

// IsSelected returns if the current state is selected.
func (cs ConnState) IsSelected() bool { return cs == SelectedState }

// String returns string representation of the current state.
func (cs ConnState) String() string {
	switch cs {
	case NotConnectedState:
		return "not-connected"
	case NotSelectedState:
		return "not-selected"
	case SelectedState:
		return "selected"
	default:
		return "unknown"
	}
}

func parseConnState(s string) ConnState {
	switch s {
	case NotSelectedState.String():
		return NotSelectedState
	case SelectedState.String():
		return SelectedState
	default:
		return NotConnectedState
	}
}

// State machine events.
const (
	eventConnect    = "connect"
	eventSelect     = "select"
	eventDeselect   = "deselect"
	eventDisconnect = "disconnect"
)

// ConnStateChangeHandler is invoked when the state of an HSMS connection changes.
//
// Note: the handler will be invoked in a blocking mode. Take care with long-running implementations.
type ConnStateChangeHandler func(conn Connection, prevState ConnState, newState ConnState)

// ConnStateMgr manages the connection state of an HSMS connection.
//
// Transitions are driven by a finite state machine with the events connect, select, deselect and
// disconnect:
//
//	not-connected --connect--> not-selected --select--> selected
//	selected --deselect--> not-selected (HSMS-GS only)
//	not-selected, selected --disconnect--> not-connected
//
// Any other transition is refused with ErrInvalidTransition. Handlers are invoked in
// registration order, while the state manager lock is held.
type ConnStateMgr struct {
	mu               sync.Mutex
	ctx              context.Context
	cond             *sync.Cond
	machine          *fsm.FSM
	state            atomic.Uint32
	conn             Connection
	logger           logger.Logger
	asyncStateChange chan ConnState
	handlers         []ConnStateChangeHandler
}

// NewConnStateMgr creates a new ConnStateMgr instance, initializing it to the NotConnectedState.
//
// The asynchronous transition worker runs until ctx is done.
func NewConnStateMgr(ctx context.Context, conn Connection, handlers ...ConnStateChangeHandler) *ConnStateMgr {
	cs := &ConnStateMgr{
		ctx:              ctx,
		conn:             conn,
		asyncStateChange: make(chan ConnState, 10),
		handlers:         make([]ConnStateChangeHandler, 0, len(handlers)),
	}
	cs.handlers = append(cs.handlers, handlers...)

	if conn != nil {
		cs.logger = conn.GetLogger()
	} else {
		cs.logger = logger.GetLogger()
	}

	cs.cond = sync.NewCond(&cs.mu)
	cs.machine = fsm.NewFSM(
		NotConnectedState.String(),
		fsm.Events{
			{Name: eventConnect, Src: []string{NotConnectedState.String()}, Dst: NotSelectedState.String()},
			{Name: eventSelect, Src: []string{NotSelectedState.String()}, Dst: SelectedState.String()},
			{Name: eventDeselect, Src: []string{SelectedState.String()}, Dst: NotSelectedState.String()},
			{
				Name: eventDisconnect,
				Src:  []string{NotSelectedState.String(), SelectedState.String()},
				Dst:  NotConnectedState.String(),
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				cs.setState(parseConnState(e.Dst))
			},
		},
	)

	go cs.asyncStateChangeTask()

	return cs
}

// State returns the current connection state.
func (cs *ConnStateMgr) State() ConnState {
	return ConnState(cs.state.Load())
}

// AddHandler adds one or more ConnStateChangeHandler functions to be invoked on state changes.
func (cs *ConnStateMgr) AddHandler(handlers ...ConnStateChangeHandler) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.handlers = append(cs.handlers, handlers...)
}

// WaitState waits for the connection state to reach the specified state or until the context is done.
// It returns nil if the desired state is reached, or the context error otherwise.
func (cs *ConnStateMgr) WaitState(ctx context.Context, state ConnState) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.State() == state {
		return nil
	}

	stopFunc := context.AfterFunc(ctx, func() {
		cs.mu.Lock()
		cs.cond.Broadcast()
		cs.mu.Unlock()
	})
	defer stopFunc()

	for cs.State() != state {
		if err := ctx.Err(); err != nil {
			cs.logger.Debug("wait connection state canceled", "cur_state", cs.State(), "desired_state", state)
			return err
		}
		cs.cond.Wait()
	}

	return nil
}

// ToNotConnected transitions the connection state to NotConnectedState.
// This transition is allowed from any state. The state changes before the handlers run.
func (cs *ConnStateMgr) ToNotConnected() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()
	if curState.IsNotConnected() {
		return
	}

	if err := cs.fire(eventDisconnect); err != nil {
		cs.logger.Error("failed to disconnect", "state", curState, "error", err)
		return
	}

	cs.invokeHandlers(curState, NotConnectedState)
}

// ToNotSelected transitions the connection state to NotSelectedState.
//
// This transition is allowed from NotConnectedState, and from SelectedState for HSMS-GS only.
// If the state is already NotSelectedState, the function is a no-op.
// The handlers run before the state changes.
func (cs *ConnStateMgr) ToNotSelected() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	var event string
	switch {
	case curState.IsNotSelected():
		return nil
	case curState.IsNotConnected():
		event = eventConnect
	case cs.conn != nil && cs.conn.IsSingleSession():
		return ErrInvalidTransition
	default:
		event = eventDeselect
	}

	if !cs.machine.Can(event) {
		return ErrInvalidTransition
	}

	cs.invokeHandlers(curState, NotSelectedState)

	return cs.fire(event)
}

// ToSelected transitions the connection state to SelectedState.
//
// This transition is only allowed from NotSelectedState. If the state is already SelectedState,
// the function is a no-op. The handlers run before the state changes.
func (cs *ConnStateMgr) ToSelected() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()
	if curState.IsSelected() {
		return nil
	}

	if !cs.machine.Can(eventSelect) {
		return ErrInvalidTransition
	}

	cs.invokeHandlers(curState, SelectedState)

	return cs.fire(eventSelect)
}

// ToNotConnectedAsync transitions connection state to NotConnectedState asynchronously.
func (cs *ConnStateMgr) ToNotConnectedAsync() {
	cs.changeStateAsync(NotConnectedState)
}

// ToNotSelectedAsync transitions connection state to NotSelectedState asynchronously.
func (cs *ConnStateMgr) ToNotSelectedAsync() {
	cs.changeStateAsync(NotSelectedState)
}

// ToSelectedAsync transitions connection state to SelectedState asynchronously.
func (cs *ConnStateMgr) ToSelectedAsync() {
	cs.changeStateAsync(SelectedState)
}

// IsNotConnected returns if the current state is not connected.
func (cs *ConnStateMgr) IsNotConnected() bool {
	return cs.State().IsNotConnected()
}

// IsNotSelected returns if the current state is not selected.
func (cs *ConnStateMgr) IsNotSelected() bool {
	return cs.State().IsNotSelected()
}

// IsSelected returns if the current state is selected.
func (cs *ConnStateMgr) IsSelected() bool {
	return cs.State().IsSelected()
}

// fire sends event to the state machine, it must be called with cs.mu held.
func (cs *ConnStateMgr) fire(event string) error {
	err := cs.machine.Event(cs.ctx, event)
	if err == nil {
		return nil
	}

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}

	var invalidEvent fsm.InvalidEventError
	if errors.As(err, &invalidEvent) {
		return ErrInvalidTransition
	}

	return err
}

// setState stores newState and wakes up WaitState callers.
func (cs *ConnStateMgr) setState(newState ConnState) {
	cs.state.Store(uint32(newState))
	cs.cond.Broadcast()
}

func (cs *ConnStateMgr) invokeHandlers(prevState ConnState, newState ConnState) {
	for _, handler := range cs.handlers {
		if handler != nil {
			handler(cs.conn, prevState, newState)
		}
	}
}

func (cs *ConnStateMgr) changeStateAsync(state ConnState) {
	if cs.State() == state {
		return
	}

	select {
	case cs.asyncStateChange <- state:
	case <-cs.ctx.Done():
	}
}

// asyncStateChangeTask applies asynchronous state changes in request order.
func (cs *ConnStateMgr) asyncStateChangeTask() {
	for {
		select {
		case <-cs.ctx.Done():
			return

		case desiredState := <-cs.asyncStateChange:
			prevState := cs.State()
			if desiredState == prevState {
				break
			}

			var err error
			switch desiredState {
			case NotConnectedState:
				cs.ToNotConnected()
			case NotSelectedState:
				err = cs.ToNotSelected()
			case SelectedState:
				err = cs.ToSelected()
			}

			if err != nil {
				cs.logger.Error("async connection state change failed",
					"prevState", prevState, "curState", cs.State(), "desiredState", desiredState,
					"error", err,
				)
				if errors.Is(err, ErrInvalidTransition) {
					cs.ToNotConnected()
				}
			}
		}
	}
}
