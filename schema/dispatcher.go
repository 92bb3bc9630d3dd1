package schema

import (
	"fmt"

	"github.com/arloliu/go-secsgem/dataitem"
	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/secs2"
)

// DefaultMaxBlockSize is the largest body of a single-block message, in bytes.
const DefaultMaxBlockSize = 32 * 1024

// Role is the role of the local entity.
type Role uint8

const (
	// RoleHost is the host side: it receives messages travelling ToHost.
	RoleHost Role = iota + 1
	// RoleEquipment is the equipment side: it receives messages travelling ToEquipment.
	RoleEquipment
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleEquipment:
		return "equipment"
	default:
		return "unknown"
	}
}

// Inbound returns the direction of messages received by r.
func (r Role) Inbound() Direction {
	if r == RoleHost {
		return ToHost
	}

	return ToEquipment
}

// Outbound returns the direction of messages sent by r.
func (r Role) Outbound() Direction {
	if r == RoleHost {
		return ToEquipment
	}

	return ToHost
}

// Dispatcher maps data messages to their schemas in both directions.
//
// A Dispatcher holds no mutable state and may be shared by any number of goroutines.
type Dispatcher struct {
	registry     *Registry
	role         Role
	maxBlockSize int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMaxBlockSize sets the largest body of a single-block message. Non-positive values
// are ignored.
func WithMaxBlockSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.maxBlockSize = size
		}
	}
}

// NewDispatcher creates a dispatcher for the local role. A nil registry uses Standard().
func NewDispatcher(registry *Registry, role Role, opts ...DispatcherOption) *Dispatcher {
	if registry == nil {
		registry = Standard()
	}

	d := &Dispatcher{registry: registry, role: role, maxBlockSize: DefaultMaxBlockSize}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Registry returns the registry of the dispatcher.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Role returns the local role.
func (d *Dispatcher) Role() Role { return d.role }

// MaxBlockSize returns the single-block size limit.
func (d *Dispatcher) MaxBlockSize() int { return d.maxBlockSize }

// Decode turns a received header and raw body into a typed message.
//
// The stream/function must be registered, the body must be well formed SECS-II, a single-block
// message must fit in one block, the message must be legal in the inbound direction, and the body
// must match the schema's shape. The W-bit is not checked on inbound messages.
func (d *Dispatcher) Decode(header hsms.Header, rawBody []byte) (*Message, error) {
	s, err := d.registry.Lookup(header.Stream, header.Function)
	if err != nil {
		return nil, err
	}

	item, err := secs2.DecodeAll(rawBody)
	if err != nil {
		return nil, err
	}

	if err := d.checkInbound(s, len(rawBody), item); err != nil {
		return nil, err
	}

	dm, err := hsms.NewDataMessageFromHeader(header, item)
	if err != nil {
		return nil, err
	}

	return newMessage(dm, s), nil
}

// FromDataMessage is like Decode for a message whose body has already been decoded.
func (d *Dispatcher) FromDataMessage(dm *hsms.DataMessage) (*Message, error) {
	if dm == nil {
		return nil, hsms.ErrNotDataMsg
	}

	s, err := d.registry.Lookup(dm.StreamCode(), dm.FunctionCode())
	if err != nil {
		return nil, err
	}

	if err := d.checkInbound(s, bodySize(dm.Item()), dm.Item()); err != nil {
		return nil, err
	}

	return newMessage(dm, s), nil
}

// MessageOption configures an outbound message built by NewMessage.
type MessageOption func(*messageOptions)

type messageOptions struct {
	waitBit     *bool
	sessionID   uint16
	systemBytes []byte
}

// WithWaitBit overrides the W-bit chosen from the schema.
func WithWaitBit(waitBit bool) MessageOption {
	return func(o *messageOptions) { o.waitBit = &waitBit }
}

// WithSessionID sets the session id of the message.
func WithSessionID(id uint16) MessageOption {
	return func(o *messageOptions) { o.sessionID = id }
}

// WithSystemBytes sets the system bytes of the message. By default new system bytes are
// generated.
func WithSystemBytes(systemBytes []byte) MessageOption {
	return func(o *messageOptions) { o.systemBytes = systemBytes }
}

// NewMessage builds and checks an outbound message.
//
// The W-bit is set when the schema has a reply unless overridden with WithWaitBit.
func (d *Dispatcher) NewMessage(stream, function byte, body secs2.Item, opts ...MessageOption) (*Message, error) {
	s, err := d.registry.Lookup(stream, function)
	if err != nil {
		return nil, err
	}

	o := messageOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	waitBit := s.IsPrimary() && s.HasReply
	if o.waitBit != nil {
		waitBit = *o.waitBit
	}

	if o.systemBytes == nil {
		o.systemBytes = hsms.GenerateMsgSystemBytes()
	}

	dm, err := hsms.NewDataMessage(stream, function, waitBit, o.sessionID, o.systemBytes, body)
	if err != nil {
		return nil, err
	}

	msg := newMessage(dm, s)
	if err := d.Check(msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// NewReply builds and checks the reply to primary, copying its session id and system bytes.
func (d *Dispatcher) NewReply(primary *hsms.DataMessage, body secs2.Item) (*Message, error) {
	if primary == nil {
		return nil, hsms.ErrNotDataMsg
	}

	if primary.FunctionCode()%2 == 0 {
		return nil, hsms.ErrInvalidReqMsg
	}

	return d.NewMessage(primary.StreamCode(), primary.FunctionCode()+1, body,
		WithSessionID(primary.SessionID()),
		WithSystemBytes(primary.SystemBytes()),
	)
}

// Encode checks msg for sending and returns its header and body bytes.
func (d *Dispatcher) Encode(msg *Message) ([]byte, []byte, error) {
	if err := d.Check(msg); err != nil {
		return nil, nil, err
	}

	return msg.Header().Bytes(), msg.Item().ToBytes(), nil
}

// Check checks an outbound typed message without serializing it.
func (d *Dispatcher) Check(msg *Message) error {
	if msg == nil {
		return hsms.ErrNotDataMsg
	}

	_, err := d.Outbound(msg.DataMessage)

	return err
}

// Outbound looks up and checks a data message about to be sent.
//
// The message must be legal in the outbound direction, a primary message's W-bit must agree with
// the schema's reply contract, the body must match the schema's shape, and a single-block
// message must fit in one block.
func (d *Dispatcher) Outbound(dm *hsms.DataMessage) (*Message, error) {
	if dm == nil {
		return nil, hsms.ErrNotDataMsg
	}

	s, err := d.registry.Lookup(dm.StreamCode(), dm.FunctionCode())
	if err != nil {
		return nil, err
	}

	dir := d.role.Outbound()
	if !s.Allows(dir) {
		return nil, &DirectionViolationError{Stream: s.Stream, Function: s.Function, Direction: dir, Outbound: true}
	}

	if s.IsPrimary() {
		if (dm.WaitBit() && !s.HasReply) || (!dm.WaitBit() && s.ReplyRequired) {
			return nil, ErrWaitBitMismatch
		}
	}

	item := dm.Item()
	if err := itemError(item); err != nil {
		return nil, err
	}

	if err := s.BodyShape().Validate(item); err != nil {
		return nil, err
	}

	if err := d.checkBlockSize(s, bodySize(item)); err != nil {
		return nil, err
	}

	return newMessage(dm, s), nil
}

func (d *Dispatcher) checkInbound(s *Schema, size int, item secs2.Item) error {
	if err := d.checkBlockSize(s, size); err != nil {
		return err
	}

	dir := d.role.Inbound()
	if !s.Allows(dir) {
		return &DirectionViolationError{Stream: s.Stream, Function: s.Function, Direction: dir}
	}

	return s.BodyShape().Validate(item)
}

func (d *Dispatcher) checkBlockSize(s *Schema, size int) error {
	if !s.MultiBlock && size > d.maxBlockSize {
		return &BlockSizeViolationError{Stream: s.Stream, Function: s.Function, Size: size, Max: d.maxBlockSize}
	}

	return nil
}

func bodySize(item secs2.Item) int {
	if item == nil || item.IsEmpty() {
		return 0
	}

	return len(item.ToBytes())
}

// itemError reports an item that was built with invalid values.
func itemError(item secs2.Item) error {
	if item == nil {
		return nil
	}

	if err := item.Error(); err != nil {
		return &BodyError{Path: rootPath, Err: fmt.Errorf("%w: %w", dataitem.ErrInvalidValue, err)}
	}

	return nil
}
