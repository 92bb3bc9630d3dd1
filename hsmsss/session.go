package hsmsss

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/logger"
	"github.com/arloliu/go-secsgem/schema"
	"github.com/arloliu/go-secsgem/secs2"
)

// MessageHandler is called for every received primary message that passed the schema checks.
type MessageHandler func(msg *schema.Message, session *Session)

// Session is the single session of an HSMS-SS connection, implementing the hsms.Session interface.
type Session struct {
	*hsms.BaseSession
	id       uint16
	hsmsConn *Connection
	cfg      *ConnectionConfig
	logger   logger.Logger

	mu           sync.RWMutex
	handlerChans []chan *schema.Message
	handlers     []MessageHandler
}

// ensure Session implements hsms.Session interface.
var _ hsms.Session = &Session{}

// NewSession creates the session with the given id on hsmsConn.
func NewSession(id uint16, hsmsConn *Connection) *Session {
	s := &Session{
		id:       id,
		hsmsConn: hsmsConn,
		cfg:      hsmsConn.cfg,
		logger:   hsmsConn.logger,
	}
	s.BaseSession = hsms.NewBaseSession(s.ID, s.SendMessage)

	return s
}

// ID returns the session id.
func (s *Session) ID() uint16 {
	return s.id
}

// SendMessage sends an HSMS message and waits for the reply when its W-bit is set.
func (s *Session) SendMessage(msg hsms.HSMSMessage) (hsms.HSMSMessage, error) {
	return s.hsmsConn.sendMsg(msg)
}

// SendTyped sends a message built by the connection's dispatcher and returns the typed reply,
// or nil when the message expects none.
func (s *Session) SendTyped(msg *schema.Message) (*schema.Message, error) {
	if msg == nil {
		return nil, hsms.ErrNotDataMsg
	}

	reply, err := s.hsmsConn.sendMsg(msg)
	if err != nil || reply == nil {
		return nil, err
	}

	typed, ok := reply.(*schema.Message)
	if !ok {
		return nil, hsms.ErrNotDataMsg
	}

	return typed, nil
}

// Send builds a primary message from its schema and sends it. The W-bit follows the schema.
func (s *Session) Send(stream byte, function byte, body secs2.Item) (*schema.Message, error) {
	msg, err := s.hsmsConn.dispatcher.NewMessage(stream, function, body, schema.WithSessionID(s.id))
	if err != nil {
		return nil, err
	}

	return s.SendTyped(msg)
}

// Reply sends the reply of primary with the given body.
func (s *Session) Reply(primary *schema.Message, body secs2.Item) error {
	if primary == nil {
		return hsms.ErrNotDataMsg
	}

	reply, err := s.hsmsConn.dispatcher.NewReply(primary.DataMessage, body)
	if err != nil {
		return err
	}

	_, err = s.hsmsConn.sendMsg(reply)

	return err
}

// AddConnStateChangeHandler adds handlers called on connection state changes.
func (s *Session) AddConnStateChangeHandler(handlers ...hsms.ConnStateChangeHandler) {
	s.hsmsConn.stateMgr.AddHandler(handlers...)
}

// AddMessageHandler adds handlers called for every received primary message.
//
// Each handler has its own queue and goroutine and sees messages in receive order. Handlers
// should be added before the connection is opened.
func (s *Session) AddMessageHandler(handlers ...MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, handler := range handlers {
		s.handlerChans = append(s.handlerChans, make(chan *schema.Message, s.cfg.dataMsgQueueSize))
		s.handlers = append(s.handlers, handler)
	}
}

// AddDataMessageHandler adds handlers receiving the raw data message of every primary message.
func (s *Session) AddDataMessageHandler(handlers ...hsms.DataMessageHandler) {
	for _, handler := range handlers {
		s.AddMessageHandler(func(msg *schema.Message, session *Session) {
			handler(msg.DataMessage, session)
		})
	}
}

func (s *Session) startDataMsgTasks() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, ch := range s.handlerChans {
		handler := s.handlers[i]
		name := fmt.Sprintf("dataMsgTask-%d", i+1)

		err := hsms.StartConsumer(s.hsmsConn.taskMgr, name, ch, func(msg *schema.Message) {
			handler(msg, s)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// dispatch puts msg on the queue of every handler.
func (s *Session) dispatch(ctx context.Context, msg *schema.Message) {
	s.mu.RLock()
	chans := s.handlerChans
	s.mu.RUnlock()

	if len(chans) == 0 {
		s.logger.Warn("no message handler, drop primary message", hsms.MsgInfo(msg, "method", "dispatch")...)
		return
	}

	for _, ch := range chans {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) separateSession() {
	msg := hsms.NewSeparateReq(s.id, hsms.GenerateMsgSystemBytes())
	s.logger.Debug("send separate.req", "method", "separateSession", "id", msg.ID())

	if err := s.hsmsConn.writeMsg(msg); err != nil {
		s.logger.Debug("failed to send separate.req", "method", "separateSession", "id", msg.ID(), "error", err)
	}
}

func (s *Session) selectSession() error {
	s.logger.Debug("send select.req", "method", "selectSession")

	reply, err := s.hsmsConn.sendMsg(hsms.NewSelectReq(s.id, hsms.GenerateMsgSystemBytes()))
	if err != nil {
		return err
	}

	replyMsg, ok := reply.ToControlMessage()
	if !ok || replyMsg.Type() != hsms.SelectRspType {
		return hsms.ErrInvalidRspMsg
	}

	if status := replyMsg.Status(); status != hsms.SelectStatusSuccess {
		s.logger.Warn("failed to select session", "session_id", replyMsg.SessionID(), "select_status", status)
		return fmt.Errorf("%w: status %d", hsms.ErrSelectFailed, status)
	}

	s.logger.Debug("session selected", "session_id", replyMsg.SessionID())

	return nil
}
