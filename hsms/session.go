package hsms

import (
	"github.com/arloliu/go-secsgem/secs2"
)

// Session represents an HSMS session, the addressing unit of data messages on a connection.
type Session interface {
	// ID returns the session ID.
	ID() uint16

	// SendMessage sends an HSMS message and, for a primary message with the W-bit set, waits
	// for the reply. It returns nil for messages without a reply.
	SendMessage(msg HSMSMessage) (HSMSMessage, error)

	// SendSECS2Message sends a SECS-II message as a primary data message.
	SendSECS2Message(msg secs2.SECS2Message) (*DataMessage, error)

	// SendDataMessage sends a primary data message and returns the reply if replyExpected is true.
	SendDataMessage(stream byte, function byte, replyExpected bool, dataItem secs2.Item) (*DataMessage, error)

	// ReplyDataMessage sends the reply of primaryMsg with the given body.
	ReplyDataMessage(primaryMsg *DataMessage, dataItem secs2.Item) error

	// AddConnStateChangeHandler adds handlers called on connection state changes.
	AddConnStateChangeHandler(handlers ...ConnStateChangeHandler)

	// AddDataMessageHandler adds handlers called for every received primary data message.
	AddDataMessageHandler(handlers ...DataMessageHandler)
}

// BaseSession implements the data message helpers of Session on top of two functions
// supplied by the concrete session.
type BaseSession struct {
	idFunc          func() uint16
	sendMessageFunc func(msg HSMSMessage) (HSMSMessage, error)
}

// NewBaseSession creates a BaseSession.
func NewBaseSession(idFunc func() uint16, sendMessageFunc func(msg HSMSMessage) (HSMSMessage, error)) *BaseSession {
	return &BaseSession{idFunc: idFunc, sendMessageFunc: sendMessageFunc}
}

// SendDataMessage sends a primary data message and returns the reply if replyExpected is true.
func (s *BaseSession) SendDataMessage(stream byte, function byte, replyExpected bool, dataItem secs2.Item) (*DataMessage, error) {
	if function%2 == 0 {
		return nil, ErrInvalidReqMsg
	}

	msg, err := NewDataMessage(stream, function, replyExpected, s.idFunc(), GenerateMsgSystemBytes(), dataItem)
	if err != nil {
		return nil, err
	}

	return s.sendPrimary(msg)
}

// SendSECS2Message sends a SECS-II message as a primary data message.
func (s *BaseSession) SendSECS2Message(msg secs2.SECS2Message) (*DataMessage, error) {
	return s.SendDataMessage(msg.StreamCode(), msg.FunctionCode(), msg.WaitBit(), msg.Item())
}

// ReplyDataMessage sends the reply of primaryMsg with the given body, reusing its system bytes.
func (s *BaseSession) ReplyDataMessage(primaryMsg *DataMessage, dataItem secs2.Item) error {
	if primaryMsg.FunctionCode()%2 == 0 {
		return ErrInvalidReqMsg
	}

	replyMsg, err := NewDataMessage(
		primaryMsg.StreamCode(),
		primaryMsg.FunctionCode()+1,
		false,
		primaryMsg.SessionID(),
		primaryMsg.SystemBytes(),
		dataItem,
	)
	if err != nil {
		return err
	}

	_, err = s.sendMessageFunc(replyMsg)

	return err
}

func (s *BaseSession) sendPrimary(msg *DataMessage) (*DataMessage, error) {
	replyMsg, err := s.sendMessageFunc(msg)
	if err != nil {
		return nil, err
	}

	if !msg.WaitBit() {
		return nil, nil //nolint:nilnil
	}

	if replyMsg == nil {
		return nil, ErrNotDataMsg
	}

	dataMsg, ok := replyMsg.ToDataMessage()
	if !ok {
		return nil, ErrNotDataMsg
	}

	return dataMsg, nil
}
