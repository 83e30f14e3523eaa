package frame

import (
	"errors"
	"fmt"
	"strconv"
)

// Wire constants.
const (
	Preamble1 byte = 0x03
	Preamble2 byte = 0xEF
	Preamble3 byte = 0xAF

	// HeaderLength is the preamble plus the length byte.
	HeaderLength = 4
	// MinFrameLength is a frame with addressing, type and checksum but no payload.
	MinFrameLength = 8
	// MaxPayloadLength is the largest payload, an identifier.
	MaxPayloadLength = 10
	// MaxFrameLength is the largest frame a record slot can hold.
	MaxFrameLength = MinFrameLength + MaxPayloadLength
)

// Record slot layout inside a payload buffer.
const (
	slotKind   = 0
	slotLength = 1
	slotData   = 2
	slotDst    = slotData
	slotSrc    = slotData + 1
	slotType   = slotData + 2
	slotBody   = slotData + 3

	// RecordSize is the slot capacity needed for the largest frame.
	RecordSize = slotData + MaxFrameLength - HeaderLength - 1
)

// MsgType is the message type code.
type MsgType byte

// Message types.
const (
	TypeTemperature   MsgType = 1
	TypePressure      MsgType = 2
	TypeHumidity      MsgType = 3
	TypeWind          MsgType = 4
	TypeRadiation     MsgType = 5
	TypeDateTime      MsgType = 6
	TypePrecipitation MsgType = 7
	TypeIdentifier    MsgType = 8
)

var msgTypeNames = map[MsgType]string{
	TypeTemperature:   "temperature",
	TypePressure:      "pressure",
	TypeHumidity:      "humidity",
	TypeWind:          "wind",
	TypeRadiation:     "radiation",
	TypeDateTime:      "datetime",
	TypePrecipitation: "precipitation",
	TypeIdentifier:    "identifier",
}

// String implements fmt.Stringer.
func (t MsgType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

// IsKnown reports whether the type code is defined.
func (t MsgType) IsKnown() bool {
	_, ok := msgTypeNames[t]
	return ok
}

// ParseMsgType accepts a type name or its numeric code.
func ParseMsgType(s string) (MsgType, error) {
	for t, name := range msgTypeNames {
		if name == s {
			return t, nil
		}
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown message type %q", s)
	}
	return MsgType(n), nil
}

// Kind tags a record as decoded or as one of the parser errors.
type Kind byte

// Record kinds.
const (
	OK Kind = iota
	ErrPreamble1
	ErrPreamble2
	ErrPreamble3
	ErrLength
	ErrChecksum
)

var (
	// ErrBadPreamble is the cause of the three preamble kinds.
	ErrBadPreamble = errors.New("bad preamble byte")
	// ErrBadLength is the cause of ErrLength.
	ErrBadLength = errors.New("bad packet size")
	// ErrBadChecksum is the cause of ErrChecksum.
	ErrBadChecksum = errors.New("checksum error")
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case ErrPreamble1, ErrPreamble2, ErrPreamble3:
		return fmt.Sprintf("preamble%d", k.PreamblePosition())
	case ErrLength:
		return "length"
	case ErrChecksum:
		return "checksum"
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// PreamblePosition returns 1, 2 or 3 for preamble errors and 0 otherwise.
func (k Kind) PreamblePosition() int {
	if k >= ErrPreamble1 && k <= ErrPreamble3 {
		return int(k-ErrPreamble1) + 1
	}
	return 0
}

// IsFraming reports a preamble or length error.
func (k Kind) IsFraming() bool {
	return k.PreamblePosition() != 0 || k == ErrLength
}

// Err returns nil for OK and an *Error otherwise.
func (k Kind) Err() error {
	if k == OK {
		return nil
	}
	return &Error{Kind: k}
}

// Error is a parser error carried by a record.
type Error struct {
	Kind Kind
}

// Error implements error.
func (e *Error) Error() string {
	if pos := e.Kind.PreamblePosition(); pos != 0 {
		return fmt.Sprintf("%v %d", ErrBadPreamble, pos)
	}
	if err := e.Unwrap(); err != nil {
		return err.Error()
	}
	return "bad record " + e.Kind.String()
}

// Unwrap returns the sentinel for errors.Is.
func (e *Error) Unwrap() error {
	switch {
	case e.Kind.PreamblePosition() != 0:
		return ErrBadPreamble
	case e.Kind == ErrLength:
		return ErrBadLength
	case e.Kind == ErrChecksum:
		return ErrBadChecksum
	}
	return nil
}
