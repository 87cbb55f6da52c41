package canex

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

const recvQueueSize = 100

// Link is the transport contract. Connect and Disconnect manage the medium,
// Send transmits one frame on the caller's goroutine, Recv blocks for the
// next queued message and AttachRecvCallback registers a subscriber that is
// invoked synchronously on the receiving goroutine for every frame.
//
// Subscribers that share state with other goroutines must do their own
// handoff; the link provides no marshaling.
type Link interface {
	Connect() error
	Disconnect() error
	Send(*Message) error
	Recv() *Message
	AttachRecvCallback(func(*Message))
}

// Config carries transport settings. OnMessage is the logging sink; it
// defaults to the standard logger when nil.
type Config struct {
	Interface    string // socketcan device name, e.g. can0
	Port         string // serial port for slcan
	PortBaudrate int
	Debug        bool
	OnMessage    func(string)
}

func loadConfig(cfg *Config) *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.OnMessage == nil {
		cfg.OnMessage = func(msg string) {
			log.Println(msg)
		}
	}
	return cfg
}

// dispatcher implements the receive side shared by every transport: a bounded
// FIFO queue for blocking consumers plus synchronous fan-out to callback
// subscribers. The two delivery paths are independent so that a full queue
// never stalls or starves event-driven consumers.
type dispatcher struct {
	cfg   *Config
	queue chan *Message

	subMu sync.Mutex
	subs  []func(*Message)

	recvFrames uint64
	recvBytes  uint64
	sentFrames uint64
	sentBytes  uint64
	dropped    uint64
}

func newDispatcher(cfg *Config) dispatcher {
	return dispatcher{
		cfg:   loadConfig(cfg),
		queue: make(chan *Message, recvQueueSize),
	}
}

// AttachRecvCallback registers a subscriber. Callbacks run in registration
// order and must not panic; there is no way to detach.
func (d *dispatcher) AttachRecvCallback(fn func(*Message)) {
	d.subMu.Lock()
	d.subs = append(d.subs, fn)
	d.subMu.Unlock()
}

// Recv blocks until a message is queued and returns it FIFO. Messages that
// arrived while the queue was full were dropped and will never show up here.
func (d *dispatcher) Recv() *Message {
	return <-d.queue
}

// dispatch delivers one received frame: queued unless the queue is full
// (dropped silently, counted), then fanned out to all subscribers regardless
// of queue state.
func (d *dispatcher) dispatch(m *Message) {
	atomic.AddUint64(&d.recvFrames, 1)
	atomic.AddUint64(&d.recvBytes, uint64(len(m.Data)))
	select {
	case d.queue <- m:
	default:
		atomic.AddUint64(&d.dropped, 1)
	}
	d.subMu.Lock()
	subs := append(([]func(*Message))(nil), d.subs...)
	d.subMu.Unlock()
	for _, fn := range subs {
		fn(m)
	}
}

func (d *dispatcher) countSent(m *Message) {
	atomic.AddUint64(&d.sentFrames, 1)
	atomic.AddUint64(&d.sentBytes, uint64(len(m.Data)))
}

// Stats are cumulative transport counters. Dropped counts messages the
// bounded queue refused; they were still delivered to subscribers.
type Stats struct {
	RecvFrames uint64
	RecvBytes  uint64
	SentFrames uint64
	SentBytes  uint64
	Dropped    uint64
}

func (st Stats) String() string {
	return fmt.Sprintf("recv: %d frames (%d bytes) sent: %d frames (%d bytes) dropped: %d",
		st.RecvFrames, st.RecvBytes, st.SentFrames, st.SentBytes, st.Dropped)
}

func (d *dispatcher) Stats() Stats {
	return Stats{
		RecvFrames: atomic.LoadUint64(&d.recvFrames),
		RecvBytes:  atomic.LoadUint64(&d.recvBytes),
		SentFrames: atomic.LoadUint64(&d.sentFrames),
		SentBytes:  atomic.LoadUint64(&d.sentBytes),
		Dropped:    atomic.LoadUint64(&d.dropped),
	}
}
