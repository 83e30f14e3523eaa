package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/robotalks/wsn.go/pkg/frame"
	"github.com/robotalks/wsn.go/pkg/payload"
)

// Station is one simulated sensor node. Readings drift as a random walk
// from plausible starting values.
type Station struct {
	Addr byte
	ID   string

	temperature   float64
	pressure      float64
	dewPoint      float64
	humidity      float64
	windSpeed     float64
	windDirection float64
	radiation     float64
	precipitation float64
}

// NewStation creates a station at addr.
func NewStation(addr byte, r *rand.Rand) *Station {
	return &Station{
		Addr:          addr,
		ID:            fmt.Sprintf("STATION-%d", addr),
		temperature:   10 + r.Float64()*15,
		pressure:      1000 + r.Float64()*25,
		dewPoint:      5 + r.Float64()*5,
		humidity:      40 + r.Float64()*40,
		windSpeed:     r.Float64() * 20,
		windDirection: r.Float64() * 360,
		radiation:     r.Float64() * 800,
	}
}

func walk(r *rand.Rand, v, step, min, max float64) float64 {
	v += (r.Float64()*2 - 1) * step
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Sample advances the station and returns a reading of type t at now.
func (s *Station) Sample(r *rand.Rand, t frame.MsgType, now time.Time) payload.Value {
	switch t {
	case frame.TypeTemperature:
		s.temperature = walk(r, s.temperature, 0.5, -40, 50)
		return payload.Temperature(int8(s.temperature))
	case frame.TypePressure:
		s.pressure = walk(r, s.pressure, 0.8, 900, 1080)
		return payload.Pressure(uint16(s.pressure))
	case frame.TypeHumidity:
		s.dewPoint = walk(r, s.dewPoint, 0.3, -20, 30)
		s.humidity = walk(r, s.humidity, 1, 0, 100)
		return payload.Humidity{DewPoint: int8(s.dewPoint), Humidity: uint8(s.humidity)}
	case frame.TypeWind:
		s.windSpeed = walk(r, s.windSpeed, 1.5, 0, 99)
		s.windDirection = walk(r, s.windDirection, 10, 0, 359)
		return payload.Wind{SpeedTenths: uint16(s.windSpeed * 10), Direction: uint16(s.windDirection)}
	case frame.TypeRadiation:
		s.radiation = walk(r, s.radiation, 20, 0, 1400)
		return payload.Radiation(uint16(s.radiation))
	case frame.TypeDateTime:
		return payload.DateTime{
			Year:   uint16(now.Year()),
			Month:  uint8(now.Month()),
			Day:    uint8(now.Day()),
			Hour:   uint8(now.Hour()),
			Minute: uint8(now.Minute()),
		}
	case frame.TypePrecipitation:
		if r.Intn(4) == 0 {
			s.precipitation += r.Float64() * 0.2
		}
		if s.precipitation > 99.99 {
			s.precipitation = 0
		}
		return payload.Precipitation(uint16(s.precipitation * 100))
	}
	return payload.Identifier(s.ID)
}
