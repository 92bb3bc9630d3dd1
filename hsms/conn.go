package hsms

import (
	"github.com/arloliu/go-secsgem/logger"
)

// DataMessageHandler is a function type that represents a handler for processing received data messages.
//
// The handler receives the decoded data message and the session it arrived on.
type DataMessageHandler func(*DataMessage, Session)

// Connection represents an HSMS connection.
type Connection interface {
	// Open establishes the HSMS connection.
	// If waitOpened is true, it blocks until the connection reaches the selected state.
	Open(waitOpened bool) error

	// Close closes the HSMS connection and releases its resources.
	Close() error

	// AddSession creates and adds a new session to the connection with the specified session ID.
	AddSession(sessionID uint16) Session

	// GetLogger returns the logger associated with the connection.
	GetLogger() logger.Logger

	// IsSingleSession returns true if the connection is an HSMS-SS (Single Session) connection.
	IsSingleSession() bool

	// IsGeneralSession returns true if the connection is an HSMS-GS (General Session) connection.
	IsGeneralSession() bool
}
