package canex

import (
	"bytes"
	"errors"
	"testing"
)

func quietConfig() *Config {
	return &Config{OnMessage: func(string) {}}
}

func TestLoopbackEcho(t *testing.T) {
	l := NewLoopback(quietConfig())
	if err := l.Connect(); err != nil {
		t.Fatal(err)
	}
	var got []*Message
	l.AttachRecvCallback(func(m *Message) {
		got = append(got, m)
	})

	sent := &Message{ID: 0x1337, Data: []byte{1, 2, 3}}
	if err := l.Send(sent); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("dispatched %d messages, want 1", len(got))
	}
	echo := got[0]
	if echo == sent {
		t.Errorf("echo is the sent message, want a fresh copy")
	}
	if echo.ID != sent.ID || !bytes.Equal(echo.Data, sent.Data) {
		t.Errorf("echo = %v, want same id and data as %v", echo, sent)
	}
	if echo.Timestamp.IsZero() {
		t.Errorf("echo has no timestamp")
	}

	queued := l.Recv()
	if queued != echo {
		t.Errorf("Recv() returned a different message than the callback saw")
	}
}

func TestLoopbackSendNotConnected(t *testing.T) {
	l := NewLoopback(quietConfig())
	err := l.Send(&Message{ID: 0x1})
	var te *TransmitError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TransmitError", err)
	}
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("error does not wrap ErrNotConnected: %v", err)
	}
}

func TestLoopbackSendOversize(t *testing.T) {
	l := NewLoopback(quietConfig())
	if err := l.Connect(); err != nil {
		t.Fatal(err)
	}
	err := l.Send(&Message{ID: 0x1, Data: make([]byte, 9)})
	if !errors.Is(err, ErrInvalidFrameLength) {
		t.Fatalf("error = %v, want ErrInvalidFrameLength", err)
	}
	if st := l.Stats(); st.RecvFrames != 0 || st.SentFrames != 0 {
		t.Errorf("oversize frame touched the medium: %v", st)
	}
}

func TestLoopbackFanoutOrder(t *testing.T) {
	l := NewLoopback(quietConfig())
	if err := l.Connect(); err != nil {
		t.Fatal(err)
	}

	const n = 25
	var first, second []uint32
	l.AttachRecvCallback(func(m *Message) {
		first = append(first, m.ID)
	})
	l.AttachRecvCallback(func(m *Message) {
		second = append(second, m.ID)
	})

	for i := 0; i < n; i++ {
		if err := l.Send(&Message{ID: uint32(i)}); err != nil {
			t.Fatal(err)
		}
	}
	for name, got := range map[string][]uint32{"first": first, "second": second} {
		if len(got) != n {
			t.Fatalf("%s subscriber saw %d messages, want %d", name, len(got), n)
		}
		for i, id := range got {
			if id != uint32(i) {
				t.Fatalf("%s subscriber got id %d at position %d", name, id, i)
			}
		}
	}
}

func TestLoopbackQueueOverflow(t *testing.T) {
	l := NewLoopback(quietConfig())
	if err := l.Connect(); err != nil {
		t.Fatal(err)
	}

	var seen int
	l.AttachRecvCallback(func(*Message) {
		seen++
	})

	const n = recvQueueSize + 50
	for i := 0; i < n; i++ {
		if err := l.Send(&Message{ID: uint32(i)}); err != nil {
			t.Fatal(err)
		}
	}

	// Callbacks observe every message, even the ones the full queue refused.
	if seen != n {
		t.Errorf("subscriber saw %d messages, want %d", seen, n)
	}

	// The queue holds the first 100 in FIFO order; the overflow was dropped.
	for i := 0; i < recvQueueSize; i++ {
		m := l.Recv()
		if m.ID != uint32(i) {
			t.Fatalf("Recv() = id %d at position %d, want %d", m.ID, i, i)
		}
	}
	select {
	case m := <-l.queue:
		t.Fatalf("queue held more than %d messages, got extra id %d", recvQueueSize, m.ID)
	default:
	}

	if st := l.Stats(); st.Dropped != n-recvQueueSize {
		t.Errorf("Stats().Dropped = %d, want %d", st.Dropped, n-recvQueueSize)
	}
}

func TestLoopbackDisconnectStopsSends(t *testing.T) {
	l := NewLoopback(quietConfig())
	if err := l.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := l.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if err := l.Send(&Message{ID: 0x1}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send after Disconnect = %v, want ErrNotConnected", err)
	}
}
