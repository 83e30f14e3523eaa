package payload

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/wsn.go/pkg/frame"
)

// Parse builds a value of type t from text arguments:
//
//	temperature DEGREES
//	pressure VALUE
//	humidity DEWPOINT PERCENT
//	wind SPEED DIRECTION        (speed with one decimal, e.g. 12.5)
//	radiation VALUE
//	datetime YYYY-MM-DD HH:MM
//	precipitation DEPTH         (two decimals, e.g. 1.25)
//	identifier NAME
func Parse(t frame.MsgType, args []string) (Value, error) {
	want := map[frame.MsgType]int{
		frame.TypeHumidity: 2,
		frame.TypeWind:     2,
		frame.TypeDateTime: 2,
	}[t]
	if want == 0 {
		want = 1
	}
	if len(args) != want {
		return nil, fmt.Errorf("%v: want %d arguments, got %d", t, want, len(args))
	}
	switch t {
	case frame.TypeTemperature:
		n, err := strconv.ParseInt(args[0], 10, 8)
		return Temperature(n), err
	case frame.TypePressure:
		n, err := strconv.ParseUint(args[0], 10, 16)
		return Pressure(n), err
	case frame.TypeHumidity:
		dew, err := strconv.ParseInt(args[0], 10, 8)
		if err != nil {
			return nil, err
		}
		hum, err := strconv.ParseUint(args[1], 10, 8)
		return Humidity{DewPoint: int8(dew), Humidity: uint8(hum)}, err
	case frame.TypeWind:
		speed, err := fixed(args[0], 1, 9999)
		if err != nil {
			return nil, err
		}
		dir, err := strconv.ParseUint(args[1], 10, 16)
		return Wind{SpeedTenths: speed, Direction: uint16(dir)}, err
	case frame.TypeRadiation:
		n, err := strconv.ParseUint(args[0], 10, 16)
		return Radiation(n), err
	case frame.TypeDateTime:
		tm, err := time.Parse("2006-01-02 15:04", args[0]+" "+args[1])
		if err != nil {
			return nil, err
		}
		return DateTime{
			Year:   uint16(tm.Year()),
			Month:  uint8(tm.Month()),
			Day:    uint8(tm.Day()),
			Hour:   uint8(tm.Hour()),
			Minute: uint8(tm.Minute()),
		}, nil
	case frame.TypePrecipitation:
		depth, err := fixed(args[0], 2, 9999)
		return Precipitation(depth), err
	case frame.TypeIdentifier:
		if len(args[0]) == 0 || len(args[0]) > frame.MaxPayloadLength {
			return nil, fmt.Errorf("identifier must be 1 to %d characters", frame.MaxPayloadLength)
		}
		return Identifier(args[0]), nil
	}
	return nil, &ErrUnknownType{Type: t}
}

// fixed parses a decimal with at most places fractional digits into an
// integer count of 10^-places units.
func fixed(s string, places int, max uint64) (uint16, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > places {
		return 0, fmt.Errorf("%q: at most %d decimal places", s, places)
	}
	frac += strings.Repeat("0", places-len(frac))
	n, err := strconv.ParseUint(whole+frac, 10, 16)
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, fmt.Errorf("%q out of range", s)
	}
	return uint16(n), nil
}
