package payload

import (
	"fmt"

	"github.com/robotalks/wsn.go/pkg/frame"
)

// ErrUnknownType indicates a message type code with no payload layout.
type ErrUnknownType struct {
	Type frame.MsgType
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown message type: %d", byte(e.Type))
}

// ErrShortPayload indicates the payload is shorter than the layout requires.
type ErrShortPayload struct {
	Type frame.MsgType
	Want int
	Got  int
}

// Error implements error.
func (e *ErrShortPayload) Error() string {
	return fmt.Sprintf("%v payload: want %d bytes, got %d", e.Type, e.Want, e.Got)
}

// ErrBadBCD indicates a packed BCD digit above 9.
type ErrBadBCD struct {
	Type  frame.MsgType
	Value byte
}

// Error implements error.
func (e *ErrBadBCD) Error() string {
	return fmt.Sprintf("%v payload: invalid BCD byte %02x", e.Type, e.Value)
}
