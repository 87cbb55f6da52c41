package canex

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeSLCan(t *testing.T) {
	tests := []struct {
		name    string
		id      uint32
		data    []byte
		want    string
		wantErr error
	}{
		{name: "three byte payload", id: 0x123, data: []byte{0xAA, 0xBB, 0xCC}, want: "t1233AABBCC\r"},
		{name: "empty payload", id: 0x7FF, data: nil, want: "t7FF0\r"},
		{name: "id masked to 11 bits", id: 0xFFFF, data: nil, want: "t7FF0\r"},
		{name: "oversize payload", id: 0x1, data: make([]byte, 9), wantErr: ErrInvalidFrameLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeSLCan(&Message{ID: tt.id, Data: tt.data})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && string(got) != tt.want {
				t.Errorf("encodeSLCan() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeSLCan(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantID  uint32
		want    []byte
		wantErr bool
	}{
		{name: "three byte payload", in: "t1233AABBCC", wantID: 0x123, want: []byte{0xAA, 0xBB, 0xCC}},
		{name: "empty payload", in: "t7FF0", wantID: 0x7FF, want: []byte{}},
		{name: "too short", in: "t12", wantErr: true},
		{name: "bad identifier", in: "tZZZ0", wantErr: true},
		{name: "bad length nibble", in: "t123Z", wantErr: true},
		{name: "length over 8", in: "t123900112233445566778899", wantErr: true},
		{name: "truncated body", in: "t1234AA", wantErr: true},
		{name: "bad body hex", in: "t1231ZZ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := decodeSLCan([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if m.ID != tt.wantID {
				t.Errorf("ID = 0x%X, want 0x%X", m.ID, tt.wantID)
			}
			if !bytes.Equal(m.Data, tt.want) {
				t.Errorf("Data = %X, want %X", m.Data, tt.want)
			}
		})
	}
}

func TestSLCanRoundTrip(t *testing.T) {
	for n := 0; n <= 8; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(0x10 + i)
		}
		wire, err := encodeSLCan(&Message{ID: 0x5A5, Data: data})
		if err != nil {
			t.Fatal(err)
		}
		m, err := decodeSLCan(wire[:len(wire)-1]) // parse strips the CR
		if err != nil {
			t.Fatalf("len %d: %v", n, err)
		}
		if m.ID != 0x5A5 || !bytes.Equal(m.Data, data) {
			t.Errorf("len %d: round trip = %v", n, m)
		}
	}
}

func TestSLCanParseFragmentedInput(t *testing.T) {
	sl := NewSLCan(quietConfig())
	var got []*Message
	sl.AttachRecvCallback(func(m *Message) {
		got = append(got, m)
	})

	// Two frames and a junk record, delivered in awkward chunks.
	buf := []byte{}
	for _, chunk := range []string{"t12", "31FF\rx\rt45", "62BEEF\r"} {
		buf = sl.parse(buf, []byte(chunk))
	}
	if len(buf) != 0 {
		t.Errorf("parse left %q buffered", buf)
	}
	if len(got) != 2 {
		t.Fatalf("dispatched %d frames, want 2", len(got))
	}
	if got[0].ID != 0x123 || !bytes.Equal(got[0].Data, []byte{0xFF}) {
		t.Errorf("first frame = %v", got[0])
	}
	if got[1].ID != 0x456 || !bytes.Equal(got[1].Data, []byte{0xBE, 0xEF}) {
		t.Errorf("second frame = %v", got[1])
	}
	if got[0].Timestamp.IsZero() {
		t.Errorf("decoded frame has no timestamp")
	}
}

func TestSLCanStateErrors(t *testing.T) {
	sl := NewSLCan(quietConfig())
	var ce *ConnectionError
	if err := sl.Disconnect(); !errors.As(err, &ce) || !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Disconnect while closed = %v, want ConnectionError(ErrNotConnected)", err)
	}
	var te *TransmitError
	if err := sl.Send(&Message{ID: 0x1}); !errors.As(err, &te) {
		t.Fatalf("Send while closed = %v, want TransmitError", err)
	}
}
