package canex

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SLCan drives a Lawicel style adapter speaking the slcan ASCII protocol
// over a serial port: 't' + 3 hex id digits + length nibble + hex payload,
// CR terminated. Only 11 bit identifiers are sent.
type SLCan struct {
	dispatcher

	mu        sync.Mutex
	port      serial.Port
	stop      chan struct{}
	connected bool
	wg        sync.WaitGroup
}

func NewSLCan(cfg *Config) *SLCan {
	return &SLCan{dispatcher: newDispatcher(cfg)}
}

func (sl *SLCan) Connect() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.connected {
		return &ConnectionError{Op: "connect", Err: ErrAlreadyConnected}
	}
	baudrate := sl.cfg.PortBaudrate
	if baudrate == 0 {
		baudrate = 115200
	}
	mode := &serial.Mode{
		BaudRate: baudrate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(sl.cfg.Port, mode)
	if err != nil {
		return &ConnectionError{Op: "connect", Err: fmt.Errorf("failed to open com port %q: %v", sl.cfg.Port, err)}
	}
	p.ResetOutputBuffer()
	p.ResetInputBuffer()
	if _, err := p.Write([]byte("O\r")); err != nil {
		p.Close()
		return &ConnectionError{Op: "connect", Err: err}
	}
	sl.port = p
	sl.stop = make(chan struct{})
	sl.connected = true
	sl.wg.Add(1)
	go sl.recvManager(p, sl.stop)
	return nil
}

func (sl *SLCan) Disconnect() error {
	sl.mu.Lock()
	if !sl.connected {
		sl.mu.Unlock()
		return &ConnectionError{Op: "disconnect", Err: ErrNotConnected}
	}
	close(sl.stop)
	sl.port.Write([]byte("C\r"))
	sl.port.Close()
	sl.connected = false
	sl.mu.Unlock()
	sl.wg.Wait()
	return nil
}

func (sl *SLCan) Connected() bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.connected
}

func (sl *SLCan) Send(m *Message) error {
	wire, err := encodeSLCan(m)
	if err != nil {
		return err
	}
	sl.mu.Lock()
	port, ok := sl.port, sl.connected
	sl.mu.Unlock()
	if !ok {
		return &TransmitError{Err: ErrNotConnected}
	}
	if _, err := port.Write(wire); err != nil {
		return &TransmitError{Err: fmt.Errorf("failed to write to com port: %w", err)}
	}
	if sl.cfg.Debug {
		sl.cfg.OnMessage(">> " + string(wire[:len(wire)-1]))
	}
	sl.countSent(m)
	return nil
}

func (sl *SLCan) recvManager(p serial.Port, stop chan struct{}) {
	defer sl.wg.Done()
	buf := make([]byte, 0, 64)
	readBuf := make([]byte, 16)
	for {
		n, err := p.Read(readBuf)
		if err != nil {
			select {
			case <-stop:
			default:
				sl.fail(fmt.Errorf("failed to read com port: %w", err))
			}
			return
		}
		if n == 0 {
			continue
		}
		buf = sl.parse(buf, readBuf[:n])
	}
}

// parse consumes CR delimited records and returns any trailing partial data.
func (sl *SLCan) parse(buf, readBuf []byte) []byte {
	for _, b := range readBuf {
		if b != '\r' {
			buf = append(buf, b)
			continue
		}
		if len(buf) == 0 {
			continue
		}
		switch buf[0] {
		case 't':
			if sl.cfg.Debug {
				sl.cfg.OnMessage("<< " + string(buf))
			}
			m, err := decodeSLCan(buf)
			if err != nil {
				sl.cfg.OnMessage(fmt.Sprintf("%v: %X", err, buf))
				buf = buf[:0]
				continue
			}
			m.Timestamp = time.Now()
			sl.dispatch(m)
		default:
			if sl.cfg.Debug {
				sl.cfg.OnMessage("unknown>> " + string(buf))
			}
		}
		buf = buf[:0]
	}
	return buf
}

func (sl *SLCan) fail(err error) {
	sl.cfg.OnMessage(fmt.Sprintf("receiver error: %v", err))
	sl.mu.Lock()
	if sl.connected {
		sl.connected = false
		sl.port.Close()
	}
	sl.mu.Unlock()
}

func encodeSLCan(m *Message) ([]byte, error) {
	if len(m.Data) > maxDataLen {
		return nil, ErrInvalidFrameLength
	}
	buf := make([]byte, 0, 6+len(m.Data)*2)
	id := m.ID & 0x7FF
	buf = append(buf, 't',
		nibbleToHex(byte(id>>8)&0xF),
		nibbleToHex(byte(id>>4)&0xF),
		nibbleToHex(byte(id)&0xF),
		nibbleToHex(byte(len(m.Data))))
	for _, d := range m.Data {
		buf = append(buf, nibbleToHex(d>>4), nibbleToHex(d&0xF))
	}
	return append(buf, '\r'), nil
}

func decodeSLCan(buf []byte) (*Message, error) {
	if len(buf) < 5 {
		return nil, fmt.Errorf("slcan frame too short")
	}
	id, err := strconv.ParseUint(string(buf[1:4]), 16, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to decode identifier: %v", err)
	}
	dlc, err := strconv.ParseUint(string(buf[4:5]), 16, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data length: %v", err)
	}
	if dlc > maxDataLen {
		return nil, fmt.Errorf("invalid data length: %d", dlc)
	}
	if len(buf) < 5+int(dlc)*2 {
		return nil, fmt.Errorf("truncated frame body")
	}
	data, err := hex.DecodeString(string(buf[5 : 5+dlc*2]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame body: %v", err)
	}
	return &Message{ID: uint32(id), Data: data}, nil
}

func nibbleToHex(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + (n - 10)
}
