package hsmsss

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/logger"
	"github.com/arloliu/go-secsgem/schema"
	"github.com/arloliu/go-secsgem/secs2"
)

const (
	testIP        = "127.0.0.1"
	testSessionID = 9527

	waitTimeout = 5 * time.Second
	waitTick    = 10 * time.Millisecond
)

func TestMain(m *testing.M) {
	var level logger.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = logger.DebugLevel
	case "warn":
		level = logger.WarnLevel
	case "error":
		level = logger.ErrorLevel
	case "fatal":
		level = logger.FatalLevel
	default:
		level = logger.InfoLevel
	}

	logger.SetLevel(level)

	os.Exit(m.Run())
}

type pairSetup struct {
	hostActive  bool
	hostOpts    []ConnOption
	eqpOpts     []ConnOption
	hostHandler MessageHandler
	eqpHandler  MessageHandler
}

func testConnOptions(isEquip bool, isActive bool) []ConnOption {
	opts := []ConnOption{
		WithT3Timeout(1 * time.Second),
		WithT6Timeout(1 * time.Second),
		WithT5Timeout(50 * time.Millisecond),
		WithConnectRemoteTimeout(500 * time.Millisecond),
		WithAcceptConnTimeout(100 * time.Millisecond),
		WithCloseConnTimeout(3 * time.Second),
		WithAutoLinktest(false),
	}

	if isEquip {
		opts = append(opts, WithEquipRole())
	} else {
		opts = append(opts, WithHostRole())
	}

	if isActive {
		opts = append(opts, WithActive())
	} else {
		opts = append(opts, WithPassive())
	}

	return opts
}

func newTestConn(t *testing.T, isEquip bool, isActive bool, port int, handler MessageHandler, opts ...ConnOption) *Connection {
	t.Helper()
	require := require.New(t)

	cfg, err := NewConnectionConfig(testIP, port, append(testConnOptions(isEquip, isActive), opts...)...)
	require.NoError(err)

	conn, err := NewConnection(context.Background(), cfg)
	require.NoError(err)

	conn.AddSession(testSessionID)
	if handler != nil {
		conn.Session().AddMessageHandler(handler)
	}

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// listenPort returns the port a passive connection listens on.
func listenPort(t *testing.T, conn *Connection) int {
	t.Helper()

	addr, ok := conn.ListenAddr().(*net.TCPAddr)
	require.True(t, ok)

	return addr.Port
}

// openTestPair opens the passive side on a free port, then connects the active side and waits
// until both sides are selected.
func openTestPair(t *testing.T, setup pairSetup) (*Connection, *Connection) {
	t.Helper()
	require := require.New(t)

	var host, eqp *Connection
	if setup.hostActive {
		eqp = newTestConn(t, true, false, 0, setup.eqpHandler, setup.eqpOpts...)
		require.NoError(eqp.Open(false))
		host = newTestConn(t, false, true, listenPort(t, eqp), setup.hostHandler, setup.hostOpts...)
		require.NoError(host.Open(false))
	} else {
		host = newTestConn(t, false, false, 0, setup.hostHandler, setup.hostOpts...)
		require.NoError(host.Open(false))
		eqp = newTestConn(t, true, true, listenPort(t, host), setup.eqpHandler, setup.eqpOpts...)
		require.NoError(eqp.Open(false))
	}

	waitState(t, host, hsms.SelectedState)
	waitState(t, eqp, hsms.SelectedState)

	return host, eqp
}

func waitState(t *testing.T, conn *Connection, state hsms.ConnState) {
	t.Helper()

	require.Eventually(t, func() bool { return conn.State() == state }, waitTimeout, waitTick,
		"connection didn't reach %s, current state %s", state, conn.State())
}

// equipmentHandler answers the host requests used by the tests.
func equipmentHandler(msg *schema.Message, session *Session) {
	var body secs2.Item
	switch msg.Key() {
	case schema.Key{Stream: 1, Function: 1}:
		body = secs2.L(secs2.A("ETCH-01"), secs2.A("1.0.0"))
	case schema.Key{Stream: 1, Function: 3}:
		body = msg.Item() // echo the SVIDs as values
	case schema.Key{Stream: 2, Function: 17}:
		body = secs2.A("2026101812000000")
	default:
		return
	}

	_ = session.Reply(msg, body)
}

// hostHandler answers S1F1 and forwards every other primary message to msgs.
func hostHandler(msgs chan<- *schema.Message) MessageHandler {
	return func(msg *schema.Message, session *Session) {
		if msg.Key() == (schema.Key{Stream: 1, Function: 1}) {
			_ = session.Reply(msg, secs2.L())
			return
		}

		select {
		case msgs <- msg:
		default:
		}
	}
}

func TestConnection_ActiveHost_PassiveEQP(t *testing.T) {
	testConnection(t, true)
}

func TestConnection_PassiveHost_ActiveEQP(t *testing.T) {
	testConnection(t, false)
}

func testConnection(t *testing.T, hostActive bool) {
	require := require.New(t)

	host, eqp := openTestPair(t, pairSetup{
		hostActive:  hostActive,
		eqpHandler:  equipmentHandler,
		hostHandler: hostHandler(make(chan *schema.Message, 1)),
	})

	// host -> equipment
	reply, err := host.Session().Send(1, 1, nil)
	require.NoError(err)
	require.Equal(schema.Key{Stream: 1, Function: 2}, reply.Key())
	mdln, err := reply.Field(0)
	require.NoError(err)
	require.Equal(`<A[7] "ETCH-01">`, mdln.ToSML())

	reply, err = host.Session().Send(2, 17, nil)
	require.NoError(err)
	require.Equal(schema.Key{Stream: 2, Function: 18}, reply.Key())
	clock, err := reply.Item().ToASCII()
	require.NoError(err)
	require.Equal("2026101812000000", clock)

	// equipment -> host
	reply, err = eqp.Session().Send(1, 1, nil)
	require.NoError(err)
	require.Equal(schema.Key{Stream: 1, Function: 2}, reply.Key())
	require.Equal(0, reply.Item().Size())

	// the raw session API goes through the same checks
	dataMsg, err := host.Session().SendDataMessage(1, 1, true, nil)
	require.NoError(err)
	require.Equal(uint8(2), dataMsg.FunctionCode())

	// a reply without open transaction is rejected by the receiver
	reply, err = eqp.Session().SendTyped(mustMessage(t, eqp, 1, 2, secs2.L(), false))
	require.NoError(err)
	require.Nil(reply)
	require.Eventually(func() bool { return host.GetMetrics().DataMsgRejectCount.Load() == 1 }, waitTimeout, waitTick)

	require.NoError(host.Linktest())
	require.NoError(eqp.Linktest())

	metrics := host.GetMetrics()
	require.Eventually(func() bool { return metrics.DataMsgSendCount.Load() == 4 }, waitTimeout, waitTick)
	require.Equal(uint64(5), metrics.DataMsgRecvCount.Load())
	require.Equal(int64(0), metrics.DataMsgInflightCount.Load())
	require.Equal(uint64(0), eqp.GetMetrics().DataMsgRejectCount.Load())
}

// mustMessage builds a message with the dispatcher of conn.
func mustMessage(t *testing.T, conn *Connection, stream, function byte, body secs2.Item, waitBit bool) *schema.Message {
	t.Helper()

	msg, err := conn.Dispatcher().NewMessage(stream, function, body,
		schema.WithSessionID(testSessionID),
		schema.WithWaitBit(waitBit),
	)
	require.NoError(t, err)

	return msg
}

func TestConnection_SendNotSelected(t *testing.T) {
	require := require.New(t)

	conn := newTestConn(t, false, true, 5000, nil)

	_, err := conn.Session().Send(1, 1, nil)
	require.ErrorIs(err, hsms.ErrNotSelectedState)

	_, err = conn.Session().SendDataMessage(1, 1, true, nil)
	require.ErrorIs(err, hsms.ErrNotSelectedState)

	require.ErrorIs(conn.Deselect(), hsms.ErrNotSelectedState)
	require.ErrorIs(conn.Linktest(), hsms.ErrConnClosed)

	// open without session
	cfg, err := NewConnectionConfig(testIP, 5000)
	require.NoError(err)
	bare, err := NewConnection(context.Background(), cfg)
	require.NoError(err)
	require.ErrorIs(bare.Open(false), hsms.ErrSessionNil)

	_, err = NewConnection(context.Background(), nil)
	require.ErrorIs(err, hsms.ErrConnConfigNil)
}

func TestConnection_ConcurrentReplies(t *testing.T) {
	require := require.New(t)

	host, _ := openTestPair(t, pairSetup{
		hostActive: true,
		eqpHandler: equipmentHandler,
		eqpOpts:    []ConnOption{WithDataMsgQueueSize(100)},
	})

	const count = 30

	var wg sync.WaitGroup
	errs := make(chan error, count)
	for i := range count {
		wg.Add(1)
		go func(svid uint32) {
			defer wg.Done()

			body := secs2.L(secs2.U4(svid), secs2.A(fmt.Sprintf("SV-%d", svid)))
			reply, err := host.Session().Send(1, 3, body)
			if err != nil {
				errs <- err
				return
			}

			if reply.Key() != (schema.Key{Stream: 1, Function: 4}) || reply.Item().ToSML() != body.ToSML() {
				errs <- fmt.Errorf("svid %d: unexpected reply %s", svid, reply.Item().ToSML())
			}
		}(uint32(i)) //nolint:gosec
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(err)
	}

	require.Equal(int64(0), host.GetMetrics().DataMsgInflightCount.Load())
}

func TestConnection_OutboundChecks(t *testing.T) {
	require := require.New(t)

	host, eqp := openTestPair(t, pairSetup{hostActive: true, eqpHandler: equipmentHandler})

	tests := []struct {
		description string
		conn        *Connection
		stream      byte
		function    byte
		waitBit     bool
		body        secs2.Item
		check       func(err error)
	}{
		{
			description: "host sends equipment-only message",
			conn:        host, stream: 6, function: 11, waitBit: true,
			body: secs2.L(secs2.U4(1), secs2.U4(100), secs2.L()),
			check: func(err error) {
				var dirErr *schema.DirectionViolationError
				require.ErrorAs(err, &dirErr)
				require.True(dirErr.Outbound)
			},
		},
		{
			description: "equipment sends host-only message",
			conn:        eqp, stream: 2, function: 41, waitBit: true,
			body: secs2.L(secs2.A("START"), secs2.L()),
			check: func(err error) {
				var dirErr *schema.DirectionViolationError
				require.ErrorAs(err, &dirErr)
			},
		},
		{
			description: "unknown stream/function",
			conn:        host, stream: 99, function: 1, waitBit: true,
			check: func(err error) {
				var unknown *schema.UnknownStreamFunctionError
				require.ErrorAs(err, &unknown)
			},
		},
		{
			description: "wait bit missing on required reply",
			conn:        host, stream: 1, function: 1, waitBit: false,
			check: func(err error) {
				require.ErrorIs(err, schema.ErrWaitBitMismatch)
			},
		},
		{
			description: "body shape mismatch",
			conn:        host, stream: 2, function: 17, waitBit: true,
			body: secs2.A("not empty"),
			check: func(err error) {
				require.Equal(schema.ClassValidation, schema.Classify(err))
			},
		},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		before := test.conn.GetMetrics().DataMsgErrCount.Load()

		_, err := test.conn.Session().SendDataMessage(test.stream, test.function, test.waitBit, test.body)
		require.Error(err)
		test.check(err)

		require.Equal(before+1, test.conn.GetMetrics().DataMsgErrCount.Load())
	}

	require.Equal(uint64(0), host.GetMetrics().DataMsgSendCount.Load())
	require.Equal(uint64(0), eqp.GetMetrics().DataMsgRecvCount.Load())
}

// looseHostRegistry knows a vendor message the equipment doesn't and declares S1F3 without body.
func looseHostRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	r := schema.NewRegistry()
	for _, s := range schema.Standard().Schemas() {
		if s.Key() == (schema.Key{Stream: 1, Function: 3}) {
			continue
		}
		require.NoError(t, r.Register(s))
	}

	r.MustRegister(
		&schema.Schema{Stream: 1, Function: 3, Name: "Status Request", ToEquipment: true, HasReply: true, ReplyRequired: true},
		&schema.Schema{Stream: 99, Function: 1, Name: "Vendor Request", ToEquipment: true, HasReply: true, ReplyRequired: true},
		&schema.Schema{Stream: 99, Function: 2, Name: "Vendor Data", ToHost: true},
	)

	return r
}

func TestConnection_InboundRejects(t *testing.T) {
	require := require.New(t)

	reports := make(chan *schema.Message, 4)
	host, eqp := openTestPair(t, pairSetup{
		hostActive:  true,
		hostOpts:    []ConnOption{WithRegistry(looseHostRegistry(t))},
		hostHandler: hostHandler(reports),
		eqpHandler:  equipmentHandler,
	})

	tests := []struct {
		description    string
		stream         byte
		function       byte
		expectedReason byte
		expectedReport byte
	}{
		{"unknown stream", 99, 1, hsms.RejectUnknownSF, 3},
		{"illegal body", 1, 3, hsms.RejectIllegalData, 7},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		msg := mustMessage(t, host, test.stream, test.function, nil, true)
		_, err := host.Session().SendTyped(msg)

		var rejectErr *hsms.RejectError
		require.ErrorAs(err, &rejectErr)
		require.Equal(test.expectedReason, rejectErr.Reason)
		require.ErrorIs(err, hsms.ErrRejected)

		select {
		case report := <-reports:
			require.Equal(uint8(9), report.StreamCode())
			require.Equal(test.expectedReport, report.FunctionCode())
			mhead, err := report.Item().ToBinary()
			require.NoError(err)
			require.Equal(msg.Header().Bytes(), mhead)
		case <-time.After(waitTimeout):
			require.Fail("stream 9 report not received")
		}
	}

	require.Equal(uint64(2), eqp.GetMetrics().DataMsgRejectCount.Load())
	require.True(eqp.State().IsSelected())
}

func TestConnection_ReplyTimeout(t *testing.T) {
	require := require.New(t)

	msgs := make(chan *schema.Message, 4)
	eqpLogger := logger.NewMockLogger().Permissive(logger.InfoLevel)
	_, eqp := openTestPair(t, pairSetup{
		hostActive:  false,
		hostHandler: hostHandler(msgs), // S6F11 is never answered
		eqpOpts:     []ConnOption{WithLogger(eqpLogger)},
	})

	body := secs2.L(secs2.U4(1), secs2.U4(100), secs2.L())
	start := time.Now()
	_, err := eqp.Session().Send(6, 11, body)
	require.ErrorIs(err, hsms.ErrT3Timeout)
	require.GreaterOrEqual(time.Since(start), time.Second)
	require.Equal(schema.ClassTimeout, schema.Classify(err))

	var functions []byte
	for range 2 {
		select {
		case msg := <-msgs:
			functions = append(functions, msg.FunctionCode())
		case <-time.After(waitTimeout):
			require.Fail("message not received")
		}
	}
	require.Equal([]byte{11, 9}, functions)
	require.Equal(int64(0), eqp.GetMetrics().DataMsgInflightCount.Load())

	eqpLogger.AssertCalled(t, "Warn", "reply timeout", mock.Anything)
	eqpLogger.AssertNotCalled(t, "Warn", "failed to send error report", mock.Anything)
}

func TestConnection_DeselectAndReconnect(t *testing.T) {
	require := require.New(t)

	host, eqp := openTestPair(t, pairSetup{hostActive: true, eqpHandler: equipmentHandler})

	var mu sync.Mutex
	var states []hsms.ConnState
	eqp.Session().AddConnStateChangeHandler(func(_ hsms.Connection, _ hsms.ConnState, cur hsms.ConnState) {
		mu.Lock()
		states = append(states, cur)
		mu.Unlock()
	})

	require.NoError(host.Deselect())

	// both sides come back on their own
	require.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(states) >= 3 && states[len(states)-1] == hsms.SelectedState
	}, waitTimeout, waitTick)
	waitState(t, host, hsms.SelectedState)

	mu.Lock()
	require.Equal([]hsms.ConnState{hsms.NotConnectedState, hsms.NotSelectedState, hsms.SelectedState}, states[:3])
	mu.Unlock()

	_, err := host.Session().Send(1, 1, nil)
	require.NoError(err)
}

func TestConnection_SeparateOnClose(t *testing.T) {
	require := require.New(t)

	host, eqp := openTestPair(t, pairSetup{hostActive: true, eqpHandler: equipmentHandler})

	require.NoError(host.Close())
	require.Equal(hsms.NotConnectedState, host.State())
	waitState(t, eqp, hsms.NotConnectedState)

	_, err := eqp.Session().Send(1, 1, nil)
	require.ErrorIs(err, hsms.ErrNotSelectedState)

	// the passive side keeps listening, the host can come back
	require.NoError(host.Open(false))
	waitState(t, host, hsms.SelectedState)
	waitState(t, eqp, hsms.SelectedState)

	_, err = host.Session().Send(1, 1, nil)
	require.NoError(err)
}

func TestConnection_CloseMultipleTimes(t *testing.T) {
	require := require.New(t)

	host, eqp := openTestPair(t, pairSetup{hostActive: false, eqpHandler: equipmentHandler})

	for range 5 {
		require.NoError(eqp.Close())
	}
	require.Equal(hsms.NotConnectedState, eqp.State())

	for range 5 {
		require.NoError(host.Close())
	}
	require.Nil(host.ListenAddr())

	require.NoError(host.Open(false))
	err := host.Open(false)
	require.Error(err)
	require.Contains(err.Error(), "can't be opened")
	require.NoError(host.Close())
}

func TestConnection_ActiveRetry(t *testing.T) {
	require := require.New(t)

	// find a port nobody listens on
	listener, err := net.Listen("tcp", net.JoinHostPort(testIP, "0"))
	require.NoError(err)
	port := listener.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert
	require.NoError(listener.Close())

	host := newTestConn(t, false, true, port, nil)
	require.NoError(host.Open(false))

	require.Eventually(func() bool { return host.GetMetrics().ConnRetryGauge.Load() >= 2 }, waitTimeout, waitTick)
	require.Equal(hsms.NotConnectedState, host.State())

	// the equipment shows up on the expected port
	eqp := newTestConn(t, true, false, port, equipmentHandler)
	require.NoError(eqp.Open(false))

	waitState(t, host, hsms.SelectedState)
	require.Equal(uint32(0), host.GetMetrics().ConnRetryGauge.Load())
}

func TestConnection_AutoLinktest(t *testing.T) {
	require := require.New(t)

	host, eqp := openTestPair(t, pairSetup{
		hostActive: true,
		hostOpts:   []ConnOption{WithAutoLinktest(true), WithLinktestInterval(50 * time.Millisecond)},
	})

	metrics := host.GetMetrics()
	require.Eventually(func() bool { return metrics.LinktestRecvCount.Load() >= 3 }, waitTimeout, waitTick)
	require.Equal(uint64(0), metrics.LinktestErrCount.Load())

	require.NoError(host.UpdateConfigOptions(WithAutoLinktest(false)))
	sent := metrics.LinktestSendCount.Load()
	time.Sleep(200 * time.Millisecond)
	require.LessOrEqual(metrics.LinktestSendCount.Load(), sent+1)

	err := host.UpdateConfigOptions(WithPassive())
	require.Error(err)
	require.True(eqp.State().IsSelected())
}

// rawPeer is a bare TCP peer speaking HSMS frames, used to drive the receive policy.
type rawPeer struct {
	t      *testing.T
	conn   net.Conn
	reader *messageReader
	lenBuf []byte
}

func dialRawPeer(t *testing.T, passive *Connection) *rawPeer {
	t.Helper()

	conn, err := net.Dial("tcp", passive.ListenAddr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &rawPeer{t: t, conn: conn, reader: newTestReader(t, 5*time.Second), lenBuf: make([]byte, 4)}
}

func (p *rawPeer) send(frame []byte) {
	_, err := p.conn.Write(frame)
	require.NoError(p.t, err)
}

func (p *rawPeer) read() hsms.HSMSMessage {
	msg, err := p.reader.ReadMessage(p.conn, p.lenBuf)
	require.NoError(p.t, err)

	return msg
}

func (p *rawPeer) readControl(msgType int, id uint32) *hsms.ControlMessage {
	msg := p.read()
	ctrlMsg, ok := msg.ToControlMessage()
	require.True(p.t, ok, "expect control message, got %s", msg)
	require.Equal(p.t, msgType, ctrlMsg.Type())
	require.Equal(p.t, id, ctrlMsg.ID())

	return ctrlMsg
}

func (p *rawPeer) readData(stream, function byte) *hsms.DataMessage {
	msg := p.read()
	dataMsg, ok := msg.ToDataMessage()
	require.True(p.t, ok, "expect data message, got %s", msg)
	require.Equal(p.t, stream, dataMsg.StreamCode())
	require.Equal(p.t, function, dataMsg.FunctionCode())

	return dataMsg
}

func newRawDataMessage(t *testing.T, stream, function byte, sessionID uint16, id byte, body secs2.Item) *hsms.DataMessage {
	t.Helper()

	msg, err := hsms.NewDataMessage(stream, function, true, sessionID, []byte{0, 0, 0, id}, body)
	require.NoError(t, err)

	return msg
}

func TestConnection_ReceivePolicy(t *testing.T) {
	require := require.New(t)

	eqp := newTestConn(t, true, false, 0, equipmentHandler)
	require.NoError(eqp.Open(false))

	peer := dialRawPeer(t, eqp)
	waitState(t, eqp, hsms.NotSelectedState)

	// data before select
	peer.send(newRawDataMessage(t, 1, 1, testSessionID, 1, nil).ToBytes())
	rejectMsg := peer.readControl(hsms.RejectReqType, 1)
	require.Equal(byte(hsms.RejectNotSelected), rejectMsg.Header().Function)

	peer.send(hsms.NewSelectReq(testSessionID, []byte{0, 0, 0, 2}).ToBytes())
	require.Equal(byte(hsms.SelectStatusSuccess), peer.readControl(hsms.SelectRspType, 2).Status())
	waitState(t, eqp, hsms.SelectedState)

	peer.send(hsms.NewSelectReq(testSessionID, []byte{0, 0, 0, 3}).ToBytes())
	require.Equal(byte(hsms.SelectStatusActived), peer.readControl(hsms.SelectRspType, 3).Status())

	// regular transaction
	peer.send(newRawDataMessage(t, 1, 1, testSessionID, 4, nil).ToBytes())
	reply := peer.readData(1, 2)
	require.Equal(uint32(4), reply.ID())

	// unknown device id is reported with S9F1, without reject
	wrongID := newRawDataMessage(t, 1, 1, 1, 5, nil)
	peer.send(wrongID.ToBytes())
	report := peer.readData(9, 1)
	mhead, err := report.Item().ToBinary()
	require.NoError(err)
	require.Equal(wrongID.Header().Bytes(), mhead)

	// unsupported presentation type
	h := hsms.Header{SessionID: 0xffff, PType: 1, SType: hsms.LinkTestReqType, SystemBytes: [4]byte{0, 0, 0, 6}}
	peer.send(frame(h.Bytes()))
	rejectMsg = peer.readControl(hsms.RejectReqType, 6)
	require.Equal(byte(hsms.RejectPTypeNotSupported), rejectMsg.Header().Function)
	require.Equal(byte(1), rejectMsg.Header().Stream)

	// unknown stream/function: reject then S9F5 (stream 1 is known)
	unknown := newRawDataMessage(t, 1, 99, testSessionID, 7, nil)
	peer.send(unknown.ToBytes())
	rejectMsg = peer.readControl(hsms.RejectReqType, 7)
	require.Equal(byte(hsms.RejectUnknownSF), rejectMsg.Header().Function)
	peer.readData(9, 5)

	// a message sent in the wrong direction is illegal data
	misdirected := newRawDataMessage(t, 6, 11, testSessionID, 8, secs2.L(secs2.U4(1), secs2.U4(2), secs2.L()))
	peer.send(misdirected.ToBytes())
	rejectMsg = peer.readControl(hsms.RejectReqType, 8)
	require.Equal(byte(hsms.RejectIllegalData), rejectMsg.Header().Function)
	peer.readData(9, 7)

	// reply without open transaction
	orphan, err := hsms.NewDataMessage(1, 2, false, testSessionID, []byte{0, 0, 0, 9}, secs2.L())
	require.NoError(err)
	peer.send(orphan.ToBytes())
	rejectMsg = peer.readControl(hsms.RejectReqType, 9)
	require.Equal(byte(hsms.RejectTransactionNotOpen), rejectMsg.Header().Function)

	peer.send(hsms.NewLinktestReq([]byte{0, 0, 0, 10}).ToBytes())
	peer.readControl(hsms.LinkTestRspType, 10)

	require.True(eqp.State().IsSelected())
	require.Equal(uint64(5), eqp.GetMetrics().DataMsgRejectCount.Load())

	// separate ends the connection
	peer.send(hsms.NewSeparateReq(testSessionID, []byte{0, 0, 0, 11}).ToBytes())
	waitState(t, eqp, hsms.NotConnectedState)

	_, err = peer.reader.ReadMessage(peer.conn, peer.lenBuf)
	require.Error(err)
}

func TestConnection_DeselectRequest(t *testing.T) {
	require := require.New(t)

	eqp := newTestConn(t, true, false, 0, equipmentHandler)
	require.NoError(eqp.Open(false))

	peer := dialRawPeer(t, eqp)

	// not selected yet
	peer.send(hsms.NewDeselectReq(testSessionID, []byte{0, 0, 0, 1}).ToBytes())
	require.Equal(byte(hsms.DeselectStatusNotEstablished), peer.readControl(hsms.DeselectRspType, 1).Status())

	peer.send(hsms.NewSelectReq(testSessionID, []byte{0, 0, 0, 2}).ToBytes())
	peer.readControl(hsms.SelectRspType, 2)
	waitState(t, eqp, hsms.SelectedState)

	peer.send(hsms.NewDeselectReq(testSessionID, []byte{0, 0, 0, 3}).ToBytes())
	require.Equal(byte(hsms.DeselectStatusSuccess), peer.readControl(hsms.DeselectRspType, 3).Status())
	waitState(t, eqp, hsms.NotConnectedState)

	// the passive side accepts the next connection
	next := dialRawPeer(t, eqp)
	next.send(hsms.NewSelectReq(testSessionID, []byte{0, 0, 0, 4}).ToBytes())
	require.Equal(byte(hsms.SelectStatusSuccess), next.readControl(hsms.SelectRspType, 4).Status())
	waitState(t, eqp, hsms.SelectedState)
}

func TestConnection_ReconnectImmediately(t *testing.T) {
	require := require.New(t)

	// a long accept timeout keeps the accept task of the closed connection blocked in Accept
	eqp := newTestConn(t, true, false, 0, equipmentHandler, WithAcceptConnTimeout(2*time.Second))
	require.NoError(eqp.Open(false))

	tests := []struct {
		description string
		end         func(peer *rawPeer, id byte)
	}{
		{
			description: "reconnect after deselect",
			end: func(peer *rawPeer, id byte) {
				peer.send(hsms.NewDeselectReq(testSessionID, []byte{0, 0, 0, id}).ToBytes())
				require.Equal(byte(hsms.DeselectStatusSuccess), peer.readControl(hsms.DeselectRspType, uint32(id)).Status())
			},
		},
		{
			description: "reconnect after separate",
			end: func(peer *rawPeer, id byte) {
				peer.send(hsms.NewSeparateReq(testSessionID, []byte{0, 0, 0, id}).ToBytes())
			},
		},
		{
			description: "reconnect after deselect again",
			end: func(peer *rawPeer, id byte) {
				peer.send(hsms.NewDeselectReq(testSessionID, []byte{0, 0, 0, id}).ToBytes())
				require.Equal(byte(hsms.DeselectStatusSuccess), peer.readControl(hsms.DeselectRspType, uint32(id)).Status())
			},
		},
	}

	peer := dialRawPeer(t, eqp)
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		id := byte(i*2 + 1)
		peer.send(hsms.NewSelectReq(testSessionID, []byte{0, 0, 0, id}).ToBytes())
		require.Equal(byte(hsms.SelectStatusSuccess), peer.readControl(hsms.SelectRspType, uint32(id)).Status())
		waitState(t, eqp, hsms.SelectedState)

		test.end(peer, id+1)
		waitState(t, eqp, hsms.NotConnectedState)

		// no pause, the next peer must not be taken by the closed connection
		peer = dialRawPeer(t, eqp)
	}

	peer.send(hsms.NewSelectReq(testSessionID, []byte{0, 0, 0, 99}).ToBytes())
	require.Equal(byte(hsms.SelectStatusSuccess), peer.readControl(hsms.SelectRspType, 99).Status())
	waitState(t, eqp, hsms.SelectedState)
}

func TestConnection_T7Timeout(t *testing.T) {
	require := require.New(t)

	eqp := newTestConn(t, true, false, 0, nil, WithT7Timeout(1*time.Second))
	require.NoError(eqp.Open(false))

	peer := dialRawPeer(t, eqp)
	waitState(t, eqp, hsms.NotSelectedState)

	// never selects
	waitState(t, eqp, hsms.NotConnectedState)

	_, err := peer.reader.ReadMessage(peer.conn, peer.lenBuf)
	require.Error(err)
}
