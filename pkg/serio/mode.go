package serio

import "fmt"

// Mode selects a driver.
type Mode string

// Driver modes.
const (
	ModePolled    Mode = "polled"
	ModeInterrupt Mode = "interrupt"
	ModeBlocking  Mode = "blocking"
)

// Modes lists the supported modes.
var Modes = []Mode{ModePolled, ModeInterrupt, ModeBlocking}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
