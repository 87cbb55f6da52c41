package canex

import "sync"

// Connection is the hub external consumers talk to. It wraps exactly one
// Link, tracks an explicit connected state with observable open/close
// transitions and re-emits everything the link fans out as a single stream.
type Connection struct {
	link Link

	mu        sync.Mutex
	connected bool
	opened    []func(bool)
	closed    []func(bool)
	subs      []func(*Message)
}

func NewConnection(link Link) *Connection {
	c := &Connection{link: link}
	link.AttachRecvCallback(c.onMessage)
	return c
}

func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// OnOpened and OnClosed register observers for the two state transitions.
// Both fire on every transition, mirrored: opened observers get the new
// connected state, closed observers its negation.
func (c *Connection) OnOpened(fn func(bool)) {
	c.mu.Lock()
	c.opened = append(c.opened, fn)
	c.mu.Unlock()
}

func (c *Connection) OnClosed(fn func(bool)) {
	c.mu.Lock()
	c.closed = append(c.closed, fn)
	c.mu.Unlock()
}

// OnMessage registers a consumer of the re-emitted message stream. Like link
// callbacks, it runs on the receiving goroutine.
func (c *Connection) OnMessage(fn func(*Message)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

func (c *Connection) Open() error {
	if err := c.link.Connect(); err != nil {
		return err
	}
	c.setConnected(true)
	return nil
}

func (c *Connection) Close() error {
	if err := c.link.Disconnect(); err != nil {
		return err
	}
	c.setConnected(false)
	return nil
}

func (c *Connection) Send(m *Message) error {
	c.mu.Lock()
	ok := c.connected
	c.mu.Unlock()
	if !ok {
		return &TransmitError{Err: ErrNotConnected}
	}
	return c.link.Send(m)
}

func (c *Connection) setConnected(state bool) {
	c.mu.Lock()
	c.connected = state
	opened := append(([]func(bool))(nil), c.opened...)
	closed := append(([]func(bool))(nil), c.closed...)
	c.mu.Unlock()
	for _, fn := range opened {
		fn(state)
	}
	for _, fn := range closed {
		fn(!state)
	}
}

func (c *Connection) onMessage(m *Message) {
	c.mu.Lock()
	subs := append(([]func(*Message))(nil), c.subs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(m)
	}
}
