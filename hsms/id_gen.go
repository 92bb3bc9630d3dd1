package hsms

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	"go.uber.org/atomic"
)

// msgIDGenerator generates system bytes for outbound primary and control messages.
//
// The counter starts from a random value so that two processes talking to the same peer are
// unlikely to produce overlapping identifiers, then increments atomically.
type msgIDGenerator struct {
	id atomic.Uint32
}

func newMsgIDGenerator() *msgIDGenerator {
	inst := &msgIDGenerator{}
	var buf [4]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		return inst
	}
	inst.id.Store(binary.LittleEndian.Uint32(buf[:]))

	return inst
}

func (m *msgIDGenerator) genID() uint32 {
	return m.id.Inc()
}

var (
	genInst *msgIDGenerator
	genOnce sync.Once
)

func getMsgIDGenerator() *msgIDGenerator {
	genOnce.Do(func() {
		genInst = newMsgIDGenerator()
	})

	return genInst
}

// GenerateMsgID returns a unique message ID as a uint32.
func GenerateMsgID() uint32 {
	return getMsgIDGenerator().genID()
}

// GenerateMsgSystemBytes returns a unique 4-byte slice representing the system bytes for a message.
func GenerateMsgSystemBytes() []byte {
	return ToSystemBytes(GenerateMsgID())
}

// ToSystemBytes converts id to 4-byte slice system bytes.
func ToSystemBytes(id uint32) []byte {
	systemBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(systemBytes, id)

	return systemBytes
}
