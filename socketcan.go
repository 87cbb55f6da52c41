package canex

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// SocketCAN is the raw-socket transport. Connect binds a CAN_RAW socket to
// the configured interface and starts one receiver goroutine that blocks on
// 16 byte wire records, decodes them and dispatches. Disconnect closes the
// socket and waits for that goroutine, so no dispatch happens after it
// returns.
type SocketCAN struct {
	dispatcher
	dial func(name string) (io.ReadWriteCloser, error)

	mu        sync.Mutex
	conn      io.ReadWriteCloser
	stop      chan struct{}
	connected bool
	wg        sync.WaitGroup
}

func NewSocketCAN(cfg *Config) *SocketCAN {
	return &SocketCAN{
		dispatcher: newDispatcher(cfg),
		dial:       dialRaw,
	}
}

func (a *SocketCAN) Connect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connected {
		return &ConnectionError{Op: "connect", Err: ErrAlreadyConnected}
	}
	a.cfg.OnMessage("opening device " + a.cfg.Interface)
	conn, err := a.dial(a.cfg.Interface)
	if err != nil {
		return &ConnectionError{Op: "connect", Err: err}
	}
	a.conn = conn
	a.stop = make(chan struct{})
	a.connected = true
	a.wg.Add(1)
	go a.recvManager(conn, a.stop)
	return nil
}

func (a *SocketCAN) Disconnect() error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return &ConnectionError{Op: "disconnect", Err: ErrNotConnected}
	}
	a.cfg.OnMessage("closing can device")
	close(a.stop)
	a.conn.Close()
	a.connected = false
	a.mu.Unlock()
	a.wg.Wait()
	return nil
}

func (a *SocketCAN) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// Send encodes and writes one frame on the caller's goroutine. No queuing,
// no retry; oversize payloads are rejected before any I/O.
func (a *SocketCAN) Send(m *Message) error {
	buf, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	a.mu.Lock()
	conn, ok := a.conn, a.connected
	a.mu.Unlock()
	if !ok {
		return &TransmitError{Err: ErrNotConnected}
	}
	if _, err := conn.Write(buf); err != nil {
		return &TransmitError{Err: err}
	}
	a.countSent(m)
	return nil
}

func (a *SocketCAN) recvManager(conn io.ReadWriteCloser, stop chan struct{}) {
	defer a.wg.Done()
	a.cfg.OnMessage("receiver started")
	buf := make([]byte, frameSize)
	for {
		n, err := io.ReadFull(conn, buf)
		if err != nil {
			select {
			case <-stop:
				// Ordinary teardown, the socket was closed under us.
			default:
				a.fail(recvError(n, err))
			}
			a.cfg.OnMessage("receiver finished")
			return
		}
		m := new(Message)
		if err := m.UnmarshalBinary(buf); err != nil {
			a.fail(err)
			a.cfg.OnMessage("receiver finished")
			return
		}
		m.Timestamp = time.Now()
		a.dispatch(m)
	}
}

func recvError(n int, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &FramingError{Want: frameSize, Got: n}
	}
	return err
}

// fail marks the link disconnected after a fatal receiver error. The loop
// stops rather than retry; reconnecting is the caller's decision.
func (a *SocketCAN) fail(err error) {
	a.cfg.OnMessage(fmt.Sprintf("receiver error: %v", err))
	a.mu.Lock()
	if a.connected {
		a.connected = false
		a.conn.Close()
	}
	a.mu.Unlock()
}
