package canex

import (
	"sync"
	"time"
)

// Loopback is an in-process echo transport. Every sent frame comes straight
// back with a fresh timestamp through the same dispatch path the real
// transports use, which makes it interchangeable with them at the Link
// boundary for tests and demos.
type Loopback struct {
	dispatcher
	mu        sync.Mutex
	connected bool
}

func NewLoopback(cfg *Config) *Loopback {
	return &Loopback{dispatcher: newDispatcher(cfg)}
}

// Connect never fails; there is no medium to open.
func (l *Loopback) Connect() error {
	l.mu.Lock()
	l.connected = true
	l.mu.Unlock()
	return nil
}

func (l *Loopback) Disconnect() error {
	l.mu.Lock()
	l.connected = false
	l.mu.Unlock()
	return nil
}

func (l *Loopback) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Send echoes the frame back inline on the caller's goroutine.
func (l *Loopback) Send(m *Message) error {
	if len(m.Data) > maxDataLen {
		return ErrInvalidFrameLength
	}
	l.mu.Lock()
	ok := l.connected
	l.mu.Unlock()
	if !ok {
		return &TransmitError{Err: ErrNotConnected}
	}
	l.countSent(m)
	echo := &Message{
		ID:        m.ID,
		Data:      append([]byte(nil), m.Data...),
		Timestamp: time.Now(),
	}
	l.dispatch(echo)
	return nil
}
