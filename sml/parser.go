package sml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/schema"
	"github.com/arloliu/go-secsgem/secs2"
)

const eof rune = -1

// Message is a data message parsed from SML text.
type Message struct {
	// Name is the optional message name written before the header, e.g. "AreYouThere:S1F1 W".
	Name     string
	Stream   byte
	Function byte
	WaitBit  bool
	// Body is secs2.NewEmptyItem() for a header-only message.
	Body secs2.Item
}

// ToDataMessage creates an HSMS data message with new system bytes.
func (m *Message) ToDataMessage(sessionID uint16) (*hsms.DataMessage, error) {
	msg, err := hsms.NewDataMessage(m.Stream, m.Function, m.WaitBit, sessionID, hsms.GenerateMsgSystemBytes(), m.Body)
	if err != nil {
		return nil, err
	}
	msg.SetName(m.Name)

	return msg, nil
}

// ParseItem parses the SML text of one item, e.g. `<L[2] <A "LOT1"> <U4 1 2>>`.
func ParseItem(text string) (secs2.Item, error) {
	p := &parser{input: text}

	p.skipComment()
	if p.peekNonSpace() == eof {
		return secs2.NewEmptyItem(), nil
	}

	item, err := p.parseItem()
	if err != nil {
		return nil, err
	}

	p.skipComment()
	if ch := p.peekNonSpace(); ch != eof {
		return nil, p.errorf("unexpected %q after item", ch)
	}

	return item, nil
}

// ParseMessage parses exactly one message, e.g. "S1F3 W <L <U4 1>>.".
func ParseMessage(text string) (*Message, error) {
	msgs, err := ParseMessages(text)
	if err != nil {
		return nil, err
	}

	if len(msgs) != 1 {
		return nil, &SyntaxError{Offset: len(text), Msg: fmt.Sprintf("expect one message, got %d", len(msgs))}
	}

	return msgs[0], nil
}

// ParseMessages parses a sequence of messages, each terminated by a dot.
//
// No message is returned when any of them fails to parse.
func ParseMessages(text string) ([]*Message, error) {
	p := &parser{input: text}
	msgs := make([]*Message, 0, 1)

	for {
		p.skipComment()
		if p.peekNonSpace() == eof {
			return msgs, nil
		}

		msg, err := p.parseMessage()
		if err != nil {
			return nil, err
		}

		msgs = append(msgs, msg)
	}
}

// ParseHSMS parses a sequence of messages into HSMS data messages with session id 0.
func ParseHSMS(text string) ([]*hsms.DataMessage, error) {
	msgs, err := ParseMessages(text)
	if err != nil {
		return nil, err
	}

	result := make([]*hsms.DataMessage, 0, len(msgs))
	for _, msg := range msgs {
		dm, err := msg.ToDataMessage(0)
		if err != nil {
			return nil, err
		}
		result = append(result, dm)
	}

	return result, nil
}

// ParseTyped parses one message and builds it with d, so that it is checked against its schema
// and the outbound direction of d. The W-bit written in the text is kept.
func ParseTyped(d *schema.Dispatcher, text string, opts ...schema.MessageOption) (*schema.Message, error) {
	msg, err := ParseMessage(text)
	if err != nil {
		return nil, err
	}

	opts = append([]schema.MessageOption{schema.WithWaitBit(msg.WaitBit)}, opts...)

	return d.NewMessage(msg.Stream, msg.Function, msg.Body, opts...)
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parseMessage() (*Message, error) {
	msg := &Message{}
	if err := p.parseHeader(msg); err != nil {
		return nil, err
	}

	p.skipComment()
	switch p.peekNonSpace() {
	case '.':
		msg.Body = secs2.NewEmptyItem()
	case '<':
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		msg.Body = item
	default:
		return nil, p.errorf("expect item or '.' after message header")
	}

	p.skipComment()
	if ch := p.next(); ch != '.' {
		return nil, p.errorf("expect '.' at the end of message, got %q", ch)
	}

	return msg, nil
}

// parseHeader parses `[name:] ['|"]SxFy['|"] [W]`.
func (p *parser) parseHeader(msg *Message) error {
	rest := p.input[p.pos:]
	end := strings.IndexAny(rest, "\n.<")
	if end < 0 {
		end = len(rest)
	}

	if idx := strings.IndexByte(rest[:end], ':'); idx > 0 {
		msg.Name = strings.TrimSpace(rest[:idx])
		p.pos += idx + 1
	}

	p.skipQuote()

	if ch := p.next(); ch != 'S' && ch != 's' {
		return p.errorf("expect stream code")
	}

	stream, err := p.nextCode()
	if err != nil {
		return err
	}
	if stream > 127 {
		return p.errorf("stream code %d out of range [0, 127]", stream)
	}

	if ch := p.next(); ch != 'F' && ch != 'f' {
		return p.errorf("expect function code")
	}

	function, err := p.nextCode()
	if err != nil {
		return err
	}

	p.skipQuote()

	msg.Stream, msg.Function = byte(stream), byte(function)

	if ch := p.peekNonSpace(); ch == 'W' || ch == 'w' {
		msg.WaitBit = true
		p.pos++
	}

	return nil
}

func (p *parser) parseItem() (secs2.Item, error) {
	if ch := p.nextNonSpace(); ch != '<' {
		return nil, p.errorf("expect '<', got %q", ch)
	}
	start := p.pos - 1

	p.skipSpace()
	token := p.nextWord()
	kind, ok := secs2.ParseKind(token)
	if !ok {
		return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("unknown item type %q", token)}
	}

	minSize, maxSize, hasSize, err := p.parseSize()
	if err != nil {
		return nil, err
	}

	p.skipComment()

	var item secs2.Item
	switch {
	case kind == secs2.ListKind:
		item, err = p.parseList()
	case kind == secs2.ASCIIKind:
		item, err = p.parseASCII()
	default:
		item, err = p.parseValues(kind)
	}
	if err != nil {
		return nil, err
	}

	if err := item.Error(); err != nil {
		return nil, &SyntaxError{Offset: start, Msg: err.Error()}
	}

	if hasSize && (item.Size() < minSize || item.Size() > maxSize) {
		return nil, &SyntaxError{
			Offset: start,
			Msg:    fmt.Sprintf("%s item has %d elements, size hint is [%d..%d]", kind, item.Size(), minSize, maxSize),
		}
	}

	return item, nil
}

func (p *parser) parseList() (secs2.Item, error) {
	children := make([]secs2.Item, 0, 4)

	for {
		p.skipComment()
		switch ch := p.peekNonSpace(); ch {
		case '<':
			item, err := p.parseItem()
			if err != nil {
				return nil, err
			}
			children = append(children, item)

		case '>':
			p.pos++
			return secs2.NewListItem(children...), nil

		case eof:
			return nil, p.errorf("unterminated list")

		default:
			return nil, p.errorf("expect child item or '>', got %q", ch)
		}
	}
}

// parseASCII parses a sequence of quoted strings and numeric character codes, e.g.
// `"line 1" 0x0A 'line "2"'`. A string ends at the first occurrence of its opening quote.
func (p *parser) parseASCII() (secs2.Item, error) {
	var sb strings.Builder

	for {
		switch ch := p.peekNonSpace(); ch {
		case '>':
			p.pos++
			return secs2.NewASCIIItem(sb.String()), nil

		case '"', '\'':
			p.pos++
			end := strings.IndexRune(p.input[p.pos:], ch)
			if end < 0 {
				return nil, p.errorf("unclosed quoted string")
			}
			sb.WriteString(p.input[p.pos : p.pos+end])
			p.pos += end + 1

		case eof:
			return nil, p.errorf("unterminated ASCII item")

		default:
			start := p.pos
			word := p.nextWord()
			code, err := strconv.ParseUint(word, 0, 8)
			if err != nil || code > 0x7f {
				return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("invalid character code %q", word)}
			}
			sb.WriteByte(byte(code))
		}
	}
}

// parseValues parses the space separated values of a scalar item up to '>'.
func (p *parser) parseValues(kind secs2.Kind) (secs2.Item, error) {
	values := make([]any, 0, 4)

	for {
		p.skipComment()
		ch := p.peekNonSpace()
		if ch == '>' {
			p.pos++
			break
		}
		if ch == eof {
			return nil, p.errorf("unterminated %s item", kind)
		}

		start := p.pos
		word := p.nextWord()
		if word == "" {
			return nil, p.errorf("unexpected %q in %s item", ch, kind)
		}

		v, err := parseValue(kind, word)
		if err != nil {
			return nil, &SyntaxError{Offset: start, Msg: err.Error()}
		}
		values = append(values, v)
	}

	return secs2.NewItemOfKind(kind, values...), nil
}

func parseValue(kind secs2.Kind, word string) (any, error) {
	switch {
	case kind == secs2.BooleanKind:
		switch strings.ToUpper(word) {
		case "T", "TRUE":
			return true, nil
		case "F", "FALSE":
			return false, nil
		}

		return nil, fmt.Errorf("expect boolean, got %q", word)

	case kind == secs2.BinaryKind:
		v, err := strconv.ParseUint(word, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid binary value %q: %w", word, numError(err))
		}

		return v, nil

	case kind.IsInt():
		v, err := strconv.ParseInt(word, 0, kind.ByteSize()*8)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", kind, word, numError(err))
		}

		return v, nil

	case kind.IsUint():
		v, err := strconv.ParseUint(word, 0, kind.ByteSize()*8)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", kind, word, numError(err))
		}

		return v, nil

	case kind.IsFloat():
		v, err := strconv.ParseFloat(word, kind.ByteSize()*8)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", kind, word, numError(err))
		}

		return v, nil
	}

	return nil, fmt.Errorf("unsupported item type %s", kind)
}

func numError(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return numErr.Err
	}

	return err
}

// parseSize parses the optional `[n]`, `[min..max]`, `[min..]` or `[..max]` size hint.
func (p *parser) parseSize() (minSize, maxSize int, ok bool, err error) {
	if p.peekNonSpace() != '[' {
		return 0, 0, false, nil
	}
	p.pos++

	end := strings.IndexByte(p.input[p.pos:], ']')
	if end < 0 {
		return 0, 0, false, p.errorf("unclosed size hint")
	}

	hint := strings.TrimSpace(p.input[p.pos : p.pos+end])
	start := p.pos
	p.pos += end + 1

	lo, hi, isRange := strings.Cut(hint, "..")
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)

	maxSize = secs2.MaxByteSize
	if lo != "" {
		if minSize, err = strconv.Atoi(lo); err != nil || minSize < 0 {
			return 0, 0, false, &SyntaxError{Offset: start, Msg: fmt.Sprintf("invalid size hint %q", hint)}
		}
	}

	switch {
	case !isRange:
		maxSize = minSize
	case hi != "":
		if maxSize, err = strconv.Atoi(hi); err != nil || maxSize < 0 {
			return 0, 0, false, &SyntaxError{Offset: start, Msg: fmt.Sprintf("invalid size hint %q", hint)}
		}
	}

	if !isRange && lo == "" {
		return 0, 0, false, &SyntaxError{Offset: start, Msg: "empty size hint"}
	}

	if minSize > maxSize {
		return 0, 0, false, &SyntaxError{Offset: start, Msg: fmt.Sprintf("size hint min %d > max %d", minSize, maxSize)}
	}

	return minSize, maxSize, true, nil
}

func (p *parser) nextCode() (int, error) {
	start := p.pos
	for p.pos < len(p.input) && isDigit(p.input[p.pos]) {
		p.pos++
	}

	if start == p.pos {
		return 0, p.errorf("expect decimal code")
	}

	code, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil || code > 255 {
		return 0, &SyntaxError{Offset: start, Msg: fmt.Sprintf("invalid code %q", p.input[start:p.pos])}
	}

	return code, nil
}

// nextWord returns the run of characters up to a space, '<', '>', '[' or a quote.
func (p *parser) nextWord() string {
	start := p.pos
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\r', '\n', '<', '>', '[', '"', '\'':
			return p.input[start:p.pos]
		}
		p.pos++
	}

	return p.input[start:p.pos]
}

func (p *parser) skipQuote() {
	if ch := p.peekNonSpace(); ch == '\'' || ch == '"' {
		p.pos++
	}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

// skipComment skips spaces and any number of // and /* */ comments.
func (p *parser) skipComment() {
	for {
		p.skipSpace()
		rest := p.input[p.pos:]

		switch {
		case strings.HasPrefix(rest, "//"):
			i := strings.IndexByte(rest, '\n')
			if i < 0 {
				p.pos = len(p.input)
				return
			}
			p.pos += i + 1

		case strings.HasPrefix(rest, "/*"):
			i := strings.Index(rest, "*/")
			if i < 0 {
				p.pos = len(p.input)
				return
			}
			p.pos += i + 2

		default:
			return
		}
	}
}

func (p *parser) peek() rune {
	if p.pos >= len(p.input) {
		return eof
	}

	return rune(p.input[p.pos])
}

func (p *parser) peekNonSpace() rune {
	p.skipSpace()
	return p.peek()
}

func (p *parser) next() rune {
	ch := p.peek()
	if ch != eof {
		p.pos++
	}

	return ch
}

func (p *parser) nextNonSpace() rune {
	p.skipSpace()
	return p.next()
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
