package dispatch

import (
	"fmt"
	"time"

	"github.com/robotalks/wsn.go/pkg/frame"
	"github.com/robotalks/wsn.go/pkg/payload"
)

// Notice classifies a well-formed record that is not a reading for this node.
type Notice int

// Notices.
const (
	NoticeNone Notice = iota
	NoticeNotMine
	NoticeUnknownType
)

// String implements fmt.Stringer.
func (n Notice) String() string {
	switch n {
	case NoticeNone:
		return "none"
	case NoticeNotMine:
		return "not-mine"
	case NoticeUnknownType:
		return "unknown-type"
	}
	return fmt.Sprintf("notice(%d)", int(n))
}

// Event is a classified record. Record owns its payload.
type Event struct {
	Time   time.Time
	Record frame.Record
	Notice Notice
	// Value is set for readings addressed to this node.
	Value payload.Value
	// Err is the parser error, or the payload decode error of a reading.
	Err error
}

// IsReading reports whether the event carries a decoded value.
func (e *Event) IsReading() bool {
	return e.Value != nil
}

// String formats the event as a report line, without line terminator.
func (e *Event) String() string {
	switch {
	case e.Record.Kind != frame.OK:
		switch e.Record.Kind {
		case frame.ErrPreamble1, frame.ErrPreamble2, frame.ErrPreamble3:
			return fmt.Sprintf("*** ERROR: Bad Preamble Byte %d", e.Record.Kind.PreamblePosition())
		case frame.ErrLength:
			return "*** ERROR: Bad Packet Size"
		}
		return "*** ERROR: Checksum error"
	case e.Notice == NoticeNotMine:
		return "*** INFO: Not My Address"
	case e.Notice == NoticeUnknownType:
		return "*** ERROR: Unknown Message Type"
	case e.Err != nil:
		return fmt.Sprintf("*** ERROR: %v", e.Err)
	}
	return payload.Summary(e.Record.Src, e.Value)
}
