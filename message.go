package canex

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

// SocketCAN identifier bits, same values as <linux/can.h>.
const (
	canEffFlag = 0x80000000
	canRtrFlag = 0x40000000
	canErrFlag = 0x20000000
	canEffMask = 0x1FFFFFFF
)

const (
	frameSize  = 16
	maxDataLen = 8
)

// Message is a single CAN frame: an identifier, up to 8 bytes of payload and
// the moment it was captured. Transports stamp Timestamp on reception;
// messages built for sending leave it zero. A Message is never mutated after
// dispatch.
type Message struct {
	ID        uint32
	Data      []byte
	Timestamp time.Time
}

// NewMessage builds an outbound frame. Payloads over 8 bytes are rejected
// with ErrInvalidFrameLength.
func NewMessage(id uint32, data []byte) (*Message, error) {
	if len(data) > maxDataLen {
		return nil, ErrInvalidFrameLength
	}
	b := make([]byte, len(data))
	copy(b, data)
	return &Message{ID: id, Data: b}, nil
}

func (m *Message) Length() int {
	return len(m.Data)
}

// Bitsize is the payload size in bits, the unit the bus-load aggregation
// works in. Frame-format overhead is deliberately not counted.
func (m *Message) Bitsize() int {
	return len(m.Data) * 8
}

// HexData renders the payload as space separated hex bytes.
func (m *Message) HexData() string {
	var out strings.Builder
	for i, b := range m.Data {
		if i > 0 {
			out.WriteString(" ")
		}
		fmt.Fprintf(&out, "%02X", b)
	}
	return out.String()
}

// FancyTimestamp is the capture time down to microseconds, empty when the
// message was never on the wire.
func (m *Message) FancyTimestamp() string {
	if m.Timestamp.IsZero() {
		return ""
	}
	return m.Timestamp.Format("15:04:05.000000")
}

// Age is the wall-clock time since capture, zero for unstamped messages.
func (m *Message) Age() time.Duration {
	if m.Timestamp.IsZero() {
		return 0
	}
	return time.Since(m.Timestamp)
}

// MarshalBinary encodes the frame as a 16 byte SocketCAN can_frame record:
// little-endian identifier, payload length, 3 bytes padding, 8 bytes payload
// zero-filled past the declared length.
func (m *Message) MarshalBinary() ([]byte, error) {
	if len(m.Data) > maxDataLen {
		return nil, ErrInvalidFrameLength
	}
	buf := make([]byte, frameSize)
	binary.LittleEndian.PutUint32(buf[0:4], m.ID)
	buf[4] = byte(len(m.Data))
	copy(buf[8:], m.Data)
	return buf, nil
}

// UnmarshalBinary decodes a can_frame record. The identifier is masked to the
// 29 bit extended range and the payload truncated to the declared length.
func (m *Message) UnmarshalBinary(buf []byte) error {
	if len(buf) < frameSize {
		return &FramingError{Want: frameSize, Got: len(buf)}
	}
	m.ID = binary.LittleEndian.Uint32(buf[0:4]) & canEffMask
	dlc := int(buf[4])
	if dlc > maxDataLen {
		dlc = maxDataLen
	}
	m.Data = make([]byte, dlc)
	copy(m.Data, buf[8:8+dlc])
	return nil
}

func (m *Message) String() string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("0x%03X", m.ID) + " || ")
	out.WriteString(fmt.Sprintf("%d", len(m.Data)) + " || ")
	out.WriteString(fmt.Sprintf("%-23s", m.HexData()))
	if ts := m.FancyTimestamp(); ts != "" {
		out.WriteString(" || " + ts)
	}
	return out.String()
}

var (
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgHiBlue).SprintfFunc()
)

// ColorString renders like String but with the identifier and timestamp
// highlighted for terminal output.
func (m *Message) ColorString() string {
	var out strings.Builder
	out.WriteString(green("0x%03X", m.ID) + " || ")
	out.WriteString(fmt.Sprintf("%d", len(m.Data)) + " || ")
	out.WriteString(fmt.Sprintf("%-23s", m.HexData()))
	if ts := m.FancyTimestamp(); ts != "" {
		out.WriteString(" || " + yellow("%s", ts))
	}
	return out.String()
}
