package secs2

// SECS2Message is the common view of a SECS-II message shared by the HSMS data message,
// the typed schema message and the GEM message builders.
type SECS2Message interface {
	// StreamCode returns the stream code for the SECS-II message.
	StreamCode() uint8

	// FunctionCode returns the function code for the SECS-II message.
	FunctionCode() uint8

	// WaitBit reports whether the sender expects a reply.
	WaitBit() bool

	// Item returns the message body.
	Item() Item
}
