package hsms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"

	"github.com/arloliu/go-secsgem/logger"
)

// ErrTaskManagerStopped is returned when a task is started on a stopped TaskManager.
var ErrTaskManagerStopped = errors.New("task manager already stopped")

// TaskFunc performs one iteration of a task. It returns true to continue running the task,
// or false to stop the goroutine.
type TaskFunc func() bool

// TaskRecvFunc performs one iteration of a receive task. msgLenBuf is a 4-byte scratch buffer
// owned by the goroutine, used to read the frame length field.
type TaskRecvFunc func(msgLenBuf []byte) bool

// TaskCancelFunc is called when a goroutine managed by the TaskManager exits or is canceled.
type TaskCancelFunc func()

// TaskManager manages the goroutines of a connection.
//
// Every task observes the manager context; Stop cancels it and Wait blocks until all tasks
// have returned, after which the manager can be reused for the next connection attempt.
//
//	taskMgr := hsms.NewTaskManager(ctx, logger)
//	taskMgr.Start("myTask", func() bool {
//	    // ... task logic ...
//	    return true
//	})
//	taskMgr.Stop()
//	taskMgr.Wait()
type TaskManager struct {
	pctx    context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  logger.Logger
	count   atomic.Int32
	tickers *xsync.MapOf[string, *time.Ticker]
	mu      sync.RWMutex // protect ctx and cancel
	taskMu  sync.RWMutex // protect task creation during Wait()
}

// NewTaskManager creates a new TaskManager with ctx as the parent context.
func NewTaskManager(ctx context.Context, l logger.Logger) *TaskManager {
	mgr := &TaskManager{
		pctx:    ctx,
		logger:  l,
		tickers: xsync.NewMapOf[string, *time.Ticker](),
	}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context observed by the running tasks.
func (mgr *TaskManager) Context() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start starts a goroutine running taskFunc until it returns false or the manager is stopped.
func (mgr *TaskManager) Start(name string, taskFunc TaskFunc) error {
	return mgr.spawn(name, func(ctx context.Context) {
		mgr.runTaskLoop(ctx, name, taskFunc)
	})
}

// StartReceiver starts a receive loop. taskCancelFunc is called when the loop exits.
func (mgr *TaskManager) StartReceiver(name string, taskFunc TaskRecvFunc, taskCancelFunc TaskCancelFunc) error {
	return mgr.spawn(name, func(ctx context.Context) {
		if taskCancelFunc != nil {
			defer taskCancelFunc()
		}

		msgLenBuf := make([]byte, LengthFieldSize)
		mgr.runTaskLoop(ctx, name, func() bool {
			return taskFunc(msgLenBuf)
		})
	})
}

// StartConsumer starts a goroutine calling fn for every value received from input, in order,
// until input is closed or the manager is stopped. A panic in fn is logged and the consumer
// continues with the next value.
func StartConsumer[T any](mgr *TaskManager, name string, input <-chan T, fn func(T)) error {
	if input == nil {
		return errors.New("input channel is nil")
	}

	return mgr.spawn(name, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-input:
				if !ok {
					return
				}
				mgr.callWithRecover(name, func() { fn(v) })
			}
		}
	})
}

// StartInterval starts a goroutine that executes taskFunc every interval until it returns false.
// If runNow is true, taskFunc is executed once synchronously before the goroutine starts.
func (mgr *TaskManager) StartInterval(name string, taskFunc TaskFunc, interval time.Duration, runNow bool) (*time.Ticker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid interval: %v", interval)
	}

	ticker := time.NewTicker(interval)
	if _, loaded := mgr.tickers.LoadOrStore(name, ticker); loaded {
		ticker.Stop()
		return nil, fmt.Errorf("interval task %s already exists", name)
	}

	cleanup := func() {
		ticker.Stop()
		mgr.tickers.Compute(name, func(cur *time.Ticker, loaded bool) (*time.Ticker, bool) {
			return cur, !loaded || cur == ticker
		})
	}

	if runNow && !mgr.callWithRecoverBool(name, taskFunc) {
		cleanup()
		return ticker, nil
	}

	err := mgr.spawn(name, func(ctx context.Context) {
		defer cleanup()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !mgr.callWithRecoverBool(name, taskFunc) {
					return
				}
			}
		}
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	return ticker, nil
}

// StopInterval stops the interval task with the given name.
func (mgr *TaskManager) StopInterval(name string) error {
	ticker, ok := mgr.tickers.LoadAndDelete(name)
	if !ok {
		return fmt.Errorf("ticker %s not found", name)
	}
	ticker.Stop()

	return nil
}

// Stop signals all running goroutines to terminate.
func (mgr *TaskManager) Stop() {
	mgr.tickers.Range(func(_ string, ticker *time.Ticker) bool {
		ticker.Stop()
		return true
	})

	mgr.mu.Lock()
	mgr.cancel()
	mgr.mu.Unlock()
}

// Wait waits for all goroutines to terminate, then renews the manager context.
func (mgr *TaskManager) Wait() {
	mgr.taskMu.Lock()
	defer mgr.taskMu.Unlock()

	mgr.wg.Wait()

	mgr.mu.Lock()
	mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	mgr.mu.Unlock()
}

// TaskCount returns the number of currently running goroutines.
func (mgr *TaskManager) TaskCount() int {
	return int(mgr.count.Load())
}

func (mgr *TaskManager) spawn(name string, body func(ctx context.Context)) error {
	mgr.taskMu.RLock()
	defer mgr.taskMu.RUnlock()

	ctx := mgr.Context()
	if ctx.Err() != nil {
		return fmt.Errorf("start %s: %w", name, ErrTaskManagerStopped)
	}

	mgr.logger.Debug("start task", "name", name)
	mgr.wg.Add(1)
	mgr.count.Inc()

	go func() {
		defer func() {
			mgr.count.Dec()
			mgr.wg.Done()
			mgr.logger.Debug("task terminated", "name", name, "task_count", mgr.TaskCount())
		}()

		body(ctx)
	}()

	return nil
}

func (mgr *TaskManager) runTaskLoop(ctx context.Context, name string, taskFunc TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task loop", "name", name, "panic", r)
		}
	}()

	for ctx.Err() == nil {
		if !taskFunc() {
			return
		}
	}
}

func (mgr *TaskManager) callWithRecover(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
		}
	}()

	fn()
}

func (mgr *TaskManager) callWithRecoverBool(name string, fn func() bool) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
			result = false
		}
	}()

	return fn()
}
