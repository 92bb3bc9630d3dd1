package hsmsss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"

	"github.com/arloliu/go-secsgem/gem"
	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/internal/pool"
	"github.com/arloliu/go-secsgem/logger"
	"github.com/arloliu/go-secsgem/schema"
)

const linktestTaskName = "autoLinktestTask"

// Connection represents an HSMS-SS (Single Session) connection, implementing the hsms.Connection interface.
// It manages the communication with a remote HSMS device, handling message exchange, connection state
// transitions, and various HSMS-specific functionalities.
//
// Every data message crossing the connection is checked against the schema registry of the
// configuration: outbound messages that violate their schema are refused before they reach the
// socket, inbound ones are answered with Reject.req and, in the equipment role, a stream 9 report.
type Connection struct {
	pctx       context.Context
	cfg        *ConnectionConfig
	logger     logger.Logger
	dispatcher *schema.Dispatcher

	listener   net.Listener // listener is for passive mode only
	parked     net.Conn     // accepted during a teardown, see parkConn
	listenerMu sync.Mutex   // protects listener and parked
	conn       net.Conn
	connMu     sync.Mutex    // protects conn and tasksDone
	writeMu    sync.Mutex    // one frame at a time on the socket
	tasksDone  chan struct{} // closed when the tasks of the last connection terminated
	session    *Session      // HSMS-SS has only one session

	stateMgr *hsms.ConnStateMgr
	taskMgr  *hsms.TaskManager
	opState  hsms.AtomicOpState

	openMu           sync.Mutex // orders connection setup and reopen against Close
	shutdown         atomic.Bool
	epoch            atomic.Uint64 // incremented by Close, stale reopens compare it
	separated        atomic.Bool   // the peer ended the session, don't send separate.req
	retryDelay       atomic.Duration
	linktestFailures atomic.Int32

	replyChans *xsync.MapOf[uint32, chan hsms.HSMSMessage]
	replyErrs  *xsync.MapOf[uint32, error]

	metrics ConnectionMetrics
}

// ensure Connection implements hsms.Connection interface.
var _ hsms.Connection = &Connection{}

// NewConnection creates a new HSMS-SS Connection with the given context and configuration.
//
// The connection does nothing until a session is added with AddSession and Open is called.
func NewConnection(ctx context.Context, cfg *ConnectionConfig) (*Connection, error) {
	if cfg == nil {
		return nil, hsms.ErrConnConfigNil
	}

	c := &Connection{
		pctx:   ctx,
		cfg:    cfg,
		logger: cfg.logger,
		dispatcher: schema.NewDispatcher(cfg.registry, cfg.Role(),
			schema.WithMaxBlockSize(cfg.maxBlockSize),
		),
		taskMgr:    hsms.NewTaskManager(ctx, cfg.logger),
		replyChans: xsync.NewMapOf[uint32, chan hsms.HSMSMessage](),
		replyErrs:  xsync.NewMapOf[uint32, error](),
	}
	c.retryDelay.Store(initialRetryDelay)
	c.stateMgr = hsms.NewConnStateMgr(ctx, c, c.connStateHandler)

	return c, nil
}

// UpdateConfigOptions applies runtime options to an open connection.
//
// Options that can't be changed at runtime are refused. A change of the linktest options restarts
// the linktest task when the connection is selected.
func (c *Connection) UpdateConfigOptions(opts ...ConnOption) error {
	prevAuto, prevInterval := c.cfg.AutoLinktest(), c.cfg.LinktestInterval()

	for _, opt := range opts {
		connOpt, ok := opt.(*connOptFunc)
		if !ok {
			return errors.New("invalid ConnOption type")
		}

		if !connOpt.runtime {
			return fmt.Errorf("option %s can't be changed at runtime", connOpt.name)
		}

		if err := opt.apply(c.cfg); err != nil {
			return err
		}
	}

	linktestChanged := prevAuto != c.cfg.AutoLinktest() || prevInterval != c.cfg.LinktestInterval()
	if linktestChanged && c.stateMgr.IsSelected() {
		_ = c.taskMgr.StopInterval(linktestTaskName)
		if c.cfg.AutoLinktest() {
			c.startLinktestTask()
		}
	}

	return nil
}

// AddSession creates and adds a new Session to the connection with the specified session ID.
// For HSMS-SS, this method should only be called once, as it supports only a single session.
func (c *Connection) AddSession(sessionID uint16) hsms.Session {
	c.session = NewSession(sessionID, c)

	return c.session
}

// Session returns the session added by AddSession, or nil.
func (c *Connection) Session() *Session {
	return c.session
}

// Dispatcher returns the dispatcher checking the data messages of the connection.
func (c *Connection) Dispatcher() *schema.Dispatcher {
	return c.dispatcher
}

// GetLogger returns the logger associated with the HSMS-SS connection.
func (c *Connection) GetLogger() logger.Logger {
	return c.logger
}

// GetMetrics returns the metrics associated with the HSMS-SS connection.
func (c *Connection) GetMetrics() *ConnectionMetrics {
	return &c.metrics
}

// State returns the current HSMS connection state.
func (c *Connection) State() hsms.ConnState {
	return c.stateMgr.State()
}

// IsSingleSession returns true, indicating that this is an HSMS-SS connection.
func (c *Connection) IsSingleSession() bool { return true }

// IsGeneralSession returns false, indicating that this is not an HSMS-GS connection.
func (c *Connection) IsGeneralSession() bool { return false }

// Open establishes the HSMS-SS connection.
//
// In active mode it starts connecting to the remote; in passive mode it listens and accepts one
// connection at a time. Lost connections are re-established until Close is called.
//
// If waitOpened is true, it blocks until the connection reaches the selected state or the
// connection context is done.
func (c *Connection) Open(waitOpened bool) error {
	if c.session == nil {
		return hsms.ErrSessionNil
	}

	if !c.opState.ToOpening() {
		return fmt.Errorf("connection can't be opened in %s state", c.opState.String())
	}

	c.openMu.Lock()
	c.shutdown.Store(false)
	c.separated.Store(false)
	c.retryDelay.Store(initialRetryDelay)

	var err error
	if c.cfg.isActive {
		err = c.taskMgr.Start("connectTask", c.connectTask)
	} else {
		err = c.openPassive()
	}
	c.openMu.Unlock()

	if err != nil {
		c.opState.Set(hsms.ClosedState)
		return err
	}

	c.opState.ToOpened()

	if waitOpened {
		return c.stateMgr.WaitState(c.pctx, hsms.SelectedState)
	}

	return nil
}

// Close closes the HSMS-SS connection gracefully.
//
// A selected connection sends Separate.req first. Close terminates all running tasks, closes
// the TCP connection and the listener, and cancels the pending reply waits.
func (c *Connection) Close() error {
	if !c.opState.ToClosing() {
		return nil
	}

	c.openMu.Lock()
	c.shutdown.Store(true)
	c.epoch.Inc()
	c.openMu.Unlock()

	c.stateMgr.ToNotConnected()
	c.closeConn()

	err := c.closeListener()
	c.waitTasks(c.cfg.closeConnTimeoutValue())

	c.opState.ToClosed()
	c.logger.Debug("connection closed", "method", "Close")

	return err
}

// Linktest sends Linktest.req and waits for Linktest.rsp within T6.
func (c *Connection) Linktest() error {
	reply, err := c.sendMsg(hsms.NewLinktestReq(hsms.GenerateMsgSystemBytes()))
	if err != nil {
		return err
	}

	if reply == nil || reply.Type() != hsms.LinkTestRspType {
		return hsms.ErrInvalidRspMsg
	}

	return nil
}

// Deselect ends the selected session with Deselect.req. On success the connection is torn down
// like after a separate and re-established according to its mode.
func (c *Connection) Deselect() error {
	if !c.stateMgr.IsSelected() {
		return hsms.ErrNotSelectedState
	}

	reply, err := c.sendMsg(hsms.NewDeselectReq(c.session.ID(), hsms.GenerateMsgSystemBytes()))
	if err != nil {
		return err
	}

	ctrlMsg, ok := reply.ToControlMessage()
	if !ok || ctrlMsg.Type() != hsms.DeselectRspType {
		return hsms.ErrInvalidRspMsg
	}

	if status := ctrlMsg.Status(); status != hsms.DeselectStatusSuccess {
		return fmt.Errorf("deselect refused with status %d", status)
	}

	c.separated.Store(true)
	c.stateMgr.ToNotConnectedAsync()

	return nil
}

func (c *Connection) connStateHandler(_ hsms.Connection, prevState hsms.ConnState, curState hsms.ConnState) {
	c.logger.Debug("connection state changes", "prevState", prevState, "curState", curState, "active", c.cfg.isActive)

	switch curState {
	case hsms.NotSelectedState:
		c.onNotSelected()
	case hsms.SelectedState:
		c.onSelected()
	case hsms.NotConnectedState:
		c.onNotConnected(prevState)
	}
}

// onNotSelected starts the tasks of a new TCP connection. The data message tasks start before the
// receiver because the first frame may already be a Select.req.
func (c *Connection) onNotSelected() {
	conn := c.currentConn()
	if conn == nil {
		return
	}

	if err := c.session.startDataMsgTasks(); err != nil {
		c.logger.Error("failed to start data message tasks", "error", err)
		return
	}

	reader := &messageReader{cfg: c.cfg}
	err := c.taskMgr.StartReceiver("receiverTask",
		func(lenBuf []byte) bool { return c.receiverTask(conn, reader, lenBuf) },
		func() { c.cancelReceiverTask(conn) },
	)
	if err != nil {
		c.logger.Error("failed to start receiver task", "error", err)
		return
	}

	if err := c.taskMgr.Start("t7Task", c.t7Task); err != nil {
		c.logger.Error("failed to start T7 task", "error", err)
		return
	}

	if c.cfg.isActive {
		if err := c.taskMgr.Start("selectTask", c.selectTask); err != nil {
			c.logger.Error("failed to start select task", "error", err)
		}
	}
}

func (c *Connection) onSelected() {
	c.linktestFailures.Store(0)
	c.retryDelay.Store(initialRetryDelay)

	if c.cfg.AutoLinktest() {
		c.startLinktestTask()
	}
}

func (c *Connection) onNotConnected(prevState hsms.ConnState) {
	if prevState.IsSelected() && !c.separated.Load() {
		c.session.separateSession()
	}
	c.separated.Store(false)

	done := c.closeConn()

	if !c.shutdown.Load() {
		c.scheduleReopen(done)
	}
}

// scheduleReopen restarts the connect or accept task once the tasks of the lost connection
// terminated. It must not block: it runs under the state manager lock.
func (c *Connection) scheduleReopen(done <-chan struct{}) {
	var delay time.Duration
	if c.cfg.isActive {
		delay = c.retryDelay.Load()
	}
	epoch := c.epoch.Load()

	c.logger.Debug("schedule reopen", "delay", delay)

	go func() {
		select {
		case <-c.pctx.Done():
			return
		case <-done:
		}

		if !pool.Sleep(c.pctx.Done(), delay) {
			return
		}

		c.openMu.Lock()
		defer c.openMu.Unlock()

		if c.shutdown.Load() || c.epoch.Load() != epoch {
			return
		}

		var err error
		if c.cfg.isActive {
			err = c.taskMgr.Start("connectTask", c.connectTask)
		} else {
			err = c.taskMgr.Start("acceptTask", c.acceptTask)
		}
		if err != nil {
			c.logger.Error("failed to reopen connection", "error", err)
		}
	}()
}

// connected installs a new TCP connection and moves to the not selected state.
// It reports false when the connection was refused because the connection is closing.
// A passive connection accepted while the previous one is torn down is parked for the reopened
// accept task instead.
func (c *Connection) connected(conn net.Conn) bool {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	if c.shutdown.Load() {
		_ = conn.Close()
		return false
	}

	c.connMu.Lock()
	if c.conn != nil || c.taskMgr.Context().Err() != nil {
		c.connMu.Unlock()
		if c.cfg.isActive {
			_ = conn.Close()
		} else {
			c.parkConn(conn)
		}

		return false
	}
	c.conn = conn
	c.connMu.Unlock()

	c.logger.Info("connection established",
		"local_addr", conn.LocalAddr().String(),
		"remote_addr", conn.RemoteAddr().String(),
		"active", c.cfg.isActive,
	)

	if err := c.stateMgr.ToNotSelected(); err != nil {
		c.logger.Error("failed to enter not-selected state", "error", err)
		c.stateMgr.ToNotConnectedAsync()

		return false
	}

	return true
}

func (c *Connection) currentConn() net.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	return c.conn
}

// closeConn stops the tasks, closes the TCP connection and cancels the pending replies.
// It doesn't wait for the tasks, the returned channel is closed when they terminated.
func (c *Connection) closeConn() <-chan struct{} {
	c.taskMgr.Stop()
	if !c.cfg.isActive {
		c.wakeListener()
	}

	c.connMu.Lock()
	if c.conn != nil {
		if tcpConn, ok := c.conn.(*net.TCPConn); ok {
			_ = tcpConn.SetLinger(0)
		}
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("failed to close TCP connection", "method", "closeConn", "error", err)
		}
		c.conn = nil
	}

	done := make(chan struct{})
	prev := c.tasksDone
	c.tasksDone = done
	c.connMu.Unlock()

	c.dropAllReplyMsgs()

	go func() {
		if prev != nil {
			<-prev
		}
		c.taskMgr.Wait()
		close(done)
	}()

	return done
}

func (c *Connection) waitTasks(timeout time.Duration) {
	c.connMu.Lock()
	done := c.tasksDone
	c.connMu.Unlock()

	if done == nil {
		return
	}

	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case <-done:
		c.logger.Debug("all tasks terminated", "method", "waitTasks")
	case <-timer.C:
		c.logger.Error("wait tasks timeout", "method", "waitTasks", "timeout", timeout, "task_count", c.taskMgr.TaskCount())
	}
}

// sendMsg sends an HSMS message (data or control) and waits for a reply if the message's W-bit is set.
//
// Data messages are only sent in the selected state and must pass the dispatcher checks.
// Replies are awaited for T3 (data) or T6 (control); a wait cancelled by a disconnect returns an
// error matching both the timeout error and hsms.ErrConnClosed.
func (c *Connection) sendMsg(msg hsms.HSMSMessage) (hsms.HSMSMessage, error) {
	dataMsg, isData := msg.ToDataMessage()
	if isData {
		if !c.stateMgr.IsSelected() {
			c.logger.Warn("failed to send message, not selected state",
				hsms.MsgInfo(msg, "method", "sendMsg", "state", c.stateMgr.State())...,
			)

			return nil, hsms.ErrNotSelectedState
		}

		if _, err := c.dispatcher.Outbound(dataMsg); err != nil {
			c.metrics.incDataMsgErrCount()
			c.logger.Warn("refuse to send invalid data message",
				hsms.MsgInfo(msg, "method", "sendMsg", "error", err)...,
			)

			return nil, err
		}
	}

	if !msg.WaitBit() {
		return nil, c.writeMsg(msg)
	}

	timeout, timeoutErr := c.cfg.T6Timeout(), hsms.ErrT6Timeout
	if isData {
		timeout, timeoutErr = c.cfg.T3Timeout(), hsms.ErrT3Timeout

		c.metrics.incDataMsgInflightCount()
		defer c.metrics.decDataMsgInflightCount()
	}

	id := msg.ID()
	replyChan := make(chan hsms.HSMSMessage, 1)
	c.replyErrs.Delete(id)
	if _, loaded := c.replyChans.LoadOrStore(id, replyChan); loaded {
		return nil, fmt.Errorf("system bytes %08x already wait for a reply", id)
	}

	if err := c.writeMsg(msg); err != nil {
		c.replyChans.Delete(id)
		return nil, err
	}

	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case reply, ok := <-replyChan:
		return c.replyResult(id, reply, ok, timeoutErr)

	case <-timer.C:
		if _, ok := c.replyChans.LoadAndDelete(id); !ok {
			// the receiver owns the channel and delivers right away
			reply, ok := <-replyChan
			return c.replyResult(id, reply, ok, timeoutErr)
		}

		c.logger.Warn("reply timeout", hsms.MsgInfo(msg, "method", "sendMsg", "timeout", timeout)...)

		if isData && c.cfg.isEquip {
			c.sendErrorReport(gem.S9F9(msg.Header()))
		}

		return nil, timeoutErr
	}
}

func (c *Connection) replyResult(id uint32, reply hsms.HSMSMessage, ok bool, timeoutErr error) (hsms.HSMSMessage, error) {
	if !ok {
		if err, found := c.replyErrs.LoadAndDelete(id); found {
			return nil, err
		}

		return nil, fmt.Errorf("reply wait cancelled: %w: %w", timeoutErr, hsms.ErrConnClosed)
	}

	if ctrlMsg, isCtrl := reply.ToControlMessage(); isCtrl && ctrlMsg.Type() == hsms.RejectReqType {
		return nil, &hsms.RejectError{Reason: ctrlMsg.Header().Function}
	}

	if c.logger.Level() == logger.DebugLevel {
		c.logger.Debug("reply message received", hsms.MsgInfo(reply, "method", "sendMsg")...)
	}

	return reply, nil
}

// writeMsg writes one frame under the write lock with a T8 deadline. A failed write leaves the
// stream in an unknown state and tears the connection down.
func (c *Connection) writeMsg(msg hsms.HSMSMessage) error {
	conn := c.currentConn()
	if conn == nil {
		return hsms.ErrConnClosed
	}

	buf := msg.ToBytes()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.T8Timeout())); err != nil {
		return fmt.Errorf("%w: %w", hsms.ErrConnClosed, err)
	}

	if _, err := conn.Write(buf); err != nil {
		if c.currentConn() == conn {
			c.stateMgr.ToNotConnectedAsync()
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %w", hsms.ErrT8Timeout, err)
		}

		return fmt.Errorf("%w: %w", hsms.ErrConnClosed, err)
	}

	if msg.IsDataMessage() {
		c.metrics.incDataMsgSendCount()
	}

	if c.logger.Level() == logger.DebugLevel {
		c.logger.Debug("message sent to remote", hsms.MsgInfo(msg, "method", "writeMsg")...)
	}

	return nil
}

// isPending reports whether a sender waits for the reply with the given id.
func (c *Connection) isPending(id uint32) bool {
	_, ok := c.replyChans.Load(id)
	return ok
}

// replyToSender hands a reply to the sender waiting for it. A data reply without a waiting
// sender is answered with Reject.req.
func (c *Connection) replyToSender(msg hsms.HSMSMessage) {
	replyChan, ok := c.replyChans.LoadAndDelete(msg.ID())
	if !ok {
		if msg.IsDataMessage() {
			c.logger.Warn("reply without open transaction", hsms.MsgInfo(msg, "method", "replyToSender")...)
			c.reject(msg, hsms.RejectTransactionNotOpen)
		} else {
			c.logger.Debug("drop unexpected control message", hsms.MsgInfo(msg, "method", "replyToSender")...)
		}

		return
	}

	replyChan <- msg
}

// replyErrToSender fails the wait of the sender of message id with err.
func (c *Connection) replyErrToSender(id uint32, err error) {
	if replyChan, ok := c.replyChans.LoadAndDelete(id); ok {
		c.replyErrs.Store(id, err)
		close(replyChan)
	}
}

// dropAllReplyMsgs cancels every pending reply wait.
func (c *Connection) dropAllReplyMsgs() {
	c.replyChans.Range(func(id uint32, _ chan hsms.HSMSMessage) bool {
		if replyChan, ok := c.replyChans.LoadAndDelete(id); ok {
			close(replyChan)
		}

		return true
	})
}

func (c *Connection) reject(msg hsms.HSMSMessage, reason byte) {
	c.metrics.incDataMsgRejectCount()

	if err := c.writeMsg(hsms.NewRejectReq(msg, reason)); err != nil {
		c.logger.Debug("failed to send reject.req", hsms.MsgInfo(msg, "reason", reason, "error", err)...)
	}
}

func (c *Connection) sendErrorReport(report *gem.Message) {
	if _, err := c.session.SendSECS2Message(report); err != nil {
		c.logger.Warn("failed to send error report",
			"s", report.StreamCode(), "f", report.FunctionCode(), "error", err,
		)
	}
}

// cancelReceiverTask tears the connection down when the receiver of conn stops on its own.
func (c *Connection) cancelReceiverTask(conn net.Conn) {
	if c.currentConn() == conn {
		c.stateMgr.ToNotConnectedAsync()
	}
}

// receiverTask reads and handles one frame.
func (c *Connection) receiverTask(conn net.Conn, reader *messageReader, lenBuf []byte) bool {
	msg, err := reader.ReadMessage(conn, lenBuf)
	if err != nil {
		return c.handleReadError(err)
	}

	c.recvMsg(msg)

	return true
}

func (c *Connection) handleReadError(err error) bool {
	var unsupported *hsms.UnsupportedTypeError
	if errors.As(err, &unsupported) {
		h := unsupported.Header
		c.logger.Warn("unsupported message type received", "ptype", h.PType, "stype", h.SType, "error", err)
		c.metrics.incDataMsgRejectCount()

		rejectMsg := hsms.NewRejectReqRaw(h.SessionID, h.PType, h.SType, h.SystemBytes[:], unsupported.Reason)
		if err := c.writeMsg(rejectMsg); err != nil {
			c.logger.Debug("failed to send reject.req", "error", err)
		}

		return true
	}

	switch {
	case c.shutdown.Load() || isConnClosedError(err):
		c.logger.Debug("connection closed", "method", "receiverTask", "error", err)
	case isTimeoutError(err):
		c.metrics.incDataMsgErrCount()
		c.logger.Error("T8 timeout while reading message", "method", "receiverTask", "error", err)
	default:
		c.metrics.incDataMsgErrCount()
		c.logger.Error("malformed message received, close connection", "method", "receiverTask", "error", err)
	}

	return false
}

func (c *Connection) recvMsg(msg hsms.HSMSMessage) {
	if dataMsg, ok := msg.ToDataMessage(); ok {
		c.recvDataMsg(dataMsg)
		return
	}

	ctrlMsg, ok := msg.ToControlMessage()
	if !ok {
		return
	}

	if c.logger.Level() == logger.DebugLevel {
		c.logger.Debug("control message received", hsms.MsgInfo(ctrlMsg, "method", "recvMsg")...)
	}

	switch ctrlMsg.Type() {
	case hsms.SelectReqType:
		c.recvSelectReq(ctrlMsg)

	case hsms.SelectRspType:
		if ctrlMsg.Status() == hsms.SelectStatusSuccess && c.isPending(ctrlMsg.ID()) {
			if err := c.stateMgr.ToSelected(); err != nil {
				c.logger.Warn("failed to enter selected state", "error", err)
			}
		}
		c.replyToSender(ctrlMsg)

	case hsms.DeselectReqType:
		c.recvDeselectReq(ctrlMsg)

	case hsms.DeselectRspType, hsms.LinkTestRspType:
		c.replyToSender(ctrlMsg)

	case hsms.LinkTestReqType:
		replyMsg, _ := hsms.NewLinktestRsp(ctrlMsg)
		if err := c.writeMsg(replyMsg); err != nil {
			c.logger.Error("failed to send linktest.rsp", "error", err)
		}

	case hsms.RejectReqType:
		c.logger.Warn("reject.req received",
			hsms.MsgInfo(ctrlMsg, "reason", hsms.RejectReasonName(ctrlMsg.Header().Function))...,
		)
		c.replyToSender(ctrlMsg)

	case hsms.SeparateReqType:
		c.logger.Info("separate.req received", "state", c.stateMgr.State())
		c.separated.Store(true)
		c.stateMgr.ToNotConnectedAsync()
	}
}

func (c *Connection) recvSelectReq(msg *hsms.ControlMessage) {
	if c.stateMgr.IsSelected() {
		replyMsg, _ := hsms.NewSelectRsp(msg, hsms.SelectStatusActived)
		_ = c.writeMsg(replyMsg)

		return
	}

	var status byte = hsms.SelectStatusSuccess
	if err := c.stateMgr.ToSelected(); err != nil {
		c.logger.Warn("failed to enter selected state", "error", err)
		status = hsms.SelectStatusNotReady
	}

	replyMsg, _ := hsms.NewSelectRsp(msg, status)
	if err := c.writeMsg(replyMsg); err != nil {
		c.logger.Error("failed to send select.rsp", "error", err)
	}
}

func (c *Connection) recvDeselectReq(msg *hsms.ControlMessage) {
	if !c.stateMgr.IsSelected() {
		replyMsg, _ := hsms.NewDeselectRsp(msg, hsms.DeselectStatusNotEstablished)
		_ = c.writeMsg(replyMsg)

		return
	}

	replyMsg, _ := hsms.NewDeselectRsp(msg, hsms.DeselectStatusSuccess)
	if err := c.writeMsg(replyMsg); err != nil {
		c.logger.Error("failed to send deselect.rsp", "error", err)
	}

	c.separated.Store(true)
	c.stateMgr.ToNotConnectedAsync()
}

// recvDataMsg applies the receive policy to a data message and routes it to the session
// handlers (primary) or to the waiting sender (reply).
func (c *Connection) recvDataMsg(msg *hsms.DataMessage) {
	c.metrics.incDataMsgRecvCount()

	if !c.stateMgr.IsSelected() {
		c.logger.Warn("reject data message, not selected state",
			hsms.MsgInfo(msg, "method", "recvDataMsg", "state", c.stateMgr.State())...,
		)
		c.reject(msg, hsms.RejectNotSelected)

		return
	}

	if msg.SessionID() != c.session.ID() {
		c.logger.Warn("unrecognized device id",
			hsms.MsgInfo(msg, "method", "recvDataMsg", "expected", c.session.ID())...,
		)
		if c.cfg.isEquip {
			c.sendErrorReport(gem.S9F1(msg.Header()))
		}

		return
	}

	typed, err := c.dispatcher.FromDataMessage(msg)
	if err != nil {
		c.recvInvalidDataMsg(msg, err)
		return
	}

	if typed.IsPrimary() {
		c.session.dispatch(c.taskMgr.Context(), typed)
		return
	}

	c.replyToSender(typed)
}

func (c *Connection) recvInvalidDataMsg(msg *hsms.DataMessage, err error) {
	class := schema.Classify(err)

	var reason byte = hsms.RejectIllegalData
	if class == schema.ClassUnknown {
		reason = hsms.RejectUnknownSF
	}

	c.metrics.incDataMsgErrCount()
	c.logger.Warn("invalid data message received",
		hsms.MsgInfo(msg, "method", "recvDataMsg", "class", class.String(), "error", err)...,
	)

	c.reject(msg, reason)

	if !msg.IsPrimary() {
		c.replyErrToSender(msg.ID(), err)
	}

	if c.cfg.isEquip {
		if report := gem.ErrorReport(err, msg.Header()); report != nil {
			c.sendErrorReport(report)
		}
	}
}

func (c *Connection) t7Task() bool {
	ctx := c.taskMgr.Context()
	timeout := c.cfg.T7Timeout()

	if pool.Sleep(ctx.Done(), timeout) && c.stateMgr.IsNotSelected() {
		c.logger.Warn("T7 timeout, not selected", "timeout", timeout, "error", hsms.ErrT7Timeout)
		c.stateMgr.ToNotConnectedAsync()
	}

	return false
}

func (c *Connection) startLinktestTask() {
	_, err := c.taskMgr.StartInterval(linktestTaskName, c.linktestTask, c.cfg.LinktestInterval(), false)
	if err != nil {
		c.logger.Error("failed to start linktest task", "error", err)
	}
}

// linktestTask sends one linktest. Consecutive failures reaching the configured maximum tear
// the connection down.
func (c *Connection) linktestTask() bool {
	if !c.stateMgr.IsSelected() {
		return false
	}

	c.metrics.incLinktestSendCount()

	err := c.Linktest()
	if err == nil {
		c.metrics.incLinktestRecvCount()
		c.linktestFailures.Store(0)

		return true
	}

	if errors.Is(err, hsms.ErrConnClosed) {
		return false
	}

	c.metrics.incLinktestErrCount()

	failures := int(c.linktestFailures.Inc())
	c.logger.Warn("linktest failed", "failures", failures, "error", err)

	if failures >= c.cfg.LinktestMaxFailures() {
		c.logger.Error("close connection", "error", fmt.Errorf("%w: %w", hsms.ErrLinktestFailed, err))
		c.stateMgr.ToNotConnectedAsync()

		return false
	}

	return true
}

func isConnClosedError(err error) bool {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr) && !opErr.Timeout()
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
