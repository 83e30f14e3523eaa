package payload

import (
	"fmt"

	"github.com/robotalks/wsn.go/pkg/frame"
)

// Value is a decoded payload.
type Value interface {
	// Type returns the message type the value is carried by.
	Type() frame.MsgType
	// Describe returns the human readable body, without the source line.
	Describe() string
}

// Temperature in degrees.
type Temperature int8

// Type implements Value.
func (Temperature) Type() frame.MsgType { return frame.TypeTemperature }

// Describe implements Value.
func (v Temperature) Describe() string { return fmt.Sprintf("Temperature = %d", int8(v)) }

// Pressure is barometric pressure.
type Pressure uint16

// Type implements Value.
func (Pressure) Type() frame.MsgType { return frame.TypePressure }

// Describe implements Value.
func (v Pressure) Describe() string { return fmt.Sprintf("Pressure = %d", uint16(v)) }

// Humidity carries the dew point and relative humidity.
type Humidity struct {
	DewPoint int8
	Humidity uint8
}

// Type implements Value.
func (Humidity) Type() frame.MsgType { return frame.TypeHumidity }

// Describe implements Value.
func (v Humidity) Describe() string {
	return fmt.Sprintf("Dew Point = %d Humidity = %d", v.DewPoint, v.Humidity)
}

// Wind carries speed in tenths and direction in degrees.
type Wind struct {
	SpeedTenths uint16
	Direction   uint16
}

// Type implements Value.
func (Wind) Type() frame.MsgType { return frame.TypeWind }

// Describe implements Value.
func (v Wind) Describe() string {
	return fmt.Sprintf("Speed = %d.%d Wind Direction = %d", v.SpeedTenths/10, v.SpeedTenths%10, v.Direction)
}

// Radiation is solar radiation intensity.
type Radiation uint16

// Type implements Value.
func (Radiation) Type() frame.MsgType { return frame.TypeRadiation }

// Describe implements Value.
func (v Radiation) Describe() string {
	return fmt.Sprintf("Solar Radiation Intensity = %d", uint16(v))
}

// DateTime is a time stamp packed into 32 bits.
type DateTime struct {
	Year   uint16
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
}

// Date/time bit fields, LSB first.
const (
	dayShift    = 0
	dayBits     = 5
	monthShift  = 5
	monthBits   = 4
	yearShift   = 9
	yearBits    = 12
	minuteShift = 21
	minuteBits  = 6
	hourShift   = 27
	hourBits    = 5
)

func field(v uint32, shift, bits uint) uint32 {
	return (v >> shift) & (1<<bits - 1)
}

// UnpackDateTime splits the packed representation.
func UnpackDateTime(v uint32) DateTime {
	return DateTime{
		Year:   uint16(field(v, yearShift, yearBits)),
		Month:  uint8(field(v, monthShift, monthBits)),
		Day:    uint8(field(v, dayShift, dayBits)),
		Hour:   uint8(field(v, hourShift, hourBits)),
		Minute: uint8(field(v, minuteShift, minuteBits)),
	}
}

// Pack returns the packed representation. Out of range fields are truncated.
func (v DateTime) Pack() uint32 {
	pack := func(f uint32, shift, bits uint) uint32 {
		return (f & (1<<bits - 1)) << shift
	}
	return pack(uint32(v.Day), dayShift, dayBits) |
		pack(uint32(v.Month), monthShift, monthBits) |
		pack(uint32(v.Year), yearShift, yearBits) |
		pack(uint32(v.Minute), minuteShift, minuteBits) |
		pack(uint32(v.Hour), hourShift, hourBits)
}

// Type implements Value.
func (DateTime) Type() frame.MsgType { return frame.TypeDateTime }

// Describe implements Value.
func (v DateTime) Describe() string {
	return fmt.Sprintf("Time Stamp = %d/%d/%d %d:%02d", v.Month, v.Day, v.Year, v.Hour, v.Minute)
}

// Precipitation is the depth in hundredths.
type Precipitation uint16

// Type implements Value.
func (Precipitation) Type() frame.MsgType { return frame.TypePrecipitation }

// Describe implements Value.
func (v Precipitation) Describe() string {
	return fmt.Sprintf("Precipitation Depth = %d.%02d", uint16(v)/100, uint16(v)%100)
}

// Identifier is the sensor node name.
type Identifier string

// Type implements Value.
func (Identifier) Type() frame.MsgType { return frame.TypeIdentifier }

// Describe implements Value.
func (v Identifier) Describe() string { return "Node ID = " + string(v) }

var titles = map[frame.MsgType]string{
	frame.TypeTemperature:   "TEMPERATURE MESSAGE",
	frame.TypePressure:      "BAROMETRIC PRESSURE MESSAGE",
	frame.TypeHumidity:      "HUMIDITY MESSAGE",
	frame.TypeWind:          "WIND MESSAGE",
	frame.TypeRadiation:     "SOLAR RADIATION MESSAGE",
	frame.TypeDateTime:      "DATE/TIME STAMP MESSAGE",
	frame.TypePrecipitation: "PRECIPITATION MESSAGE",
	frame.TypeIdentifier:    "SENSOR ID MESSAGE",
}

// Summary formats a one-line report of v received from src.
func Summary(src byte, v Value) string {
	return fmt.Sprintf("SOURCE NODE %d: %s: %s", src, titles[v.Type()], v.Describe())
}
