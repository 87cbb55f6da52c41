package canex

// ErrorFlag marks an identifier as an error frame. Without it a message does
// not classify, whatever its condition bits say. Same value as CAN_ERR_FLAG
// in <linux/can.h>.
const ErrorFlag uint32 = canErrFlag

// BusErrorCondition is one fault condition carried by an error frame. The
// bits are independent and non-exclusive, same values as <linux/can/error.h>.
type BusErrorCondition uint32

const (
	ErrTXTimeout       BusErrorCondition = 0x01
	ErrLostArbitration BusErrorCondition = 0x02
	ErrController      BusErrorCondition = 0x04
	ErrProtocol        BusErrorCondition = 0x08
	ErrTransceiver     BusErrorCondition = 0x10
	ErrAck             BusErrorCondition = 0x20
	ErrBusOff          BusErrorCondition = 0x40
	ErrBusError        BusErrorCondition = 0x80
)

var busErrorConditions = []BusErrorCondition{
	ErrTXTimeout,
	ErrLostArbitration,
	ErrController,
	ErrProtocol,
	ErrTransceiver,
	ErrAck,
	ErrBusOff,
	ErrBusError,
}

func (c BusErrorCondition) String() string {
	switch c {
	case ErrTXTimeout:
		return "transmit timeout"
	case ErrLostArbitration:
		return "lost arbitration"
	case ErrController:
		return "controller error"
	case ErrProtocol:
		return "protocol violation"
	case ErrTransceiver:
		return "transceiver error"
	case ErrAck:
		return "no acknowledgment"
	case ErrBusOff:
		return "bus off"
	case ErrBusError:
		return "bus error"
	default:
		return "unknown"
	}
}

// ClassifyErrorFrame decodes every condition bit set in an error frame
// identifier, in bit order. Messages without ErrorFlag are refused with
// ErrNotErrorFrame. Pure function, no connection state involved.
func ClassifyErrorFrame(m *Message) ([]BusErrorCondition, error) {
	if m.ID&ErrorFlag == 0 {
		return nil, ErrNotErrorFrame
	}
	var out []BusErrorCondition
	for _, c := range busErrorConditions {
		if m.ID&uint32(c) != 0 {
			out = append(out, c)
		}
	}
	return out, nil
}
