// Package sim simulates a network of weather sensor nodes producing frames.
package sim

import (
	"math/rand"
	"time"

	"github.com/robotalks/wsn.go/pkg/frame"
	"github.com/robotalks/wsn.go/pkg/payload"
)

// Sample is one generated transmission.
type Sample struct {
	Frame *frame.Frame
	Value payload.Value
	// Bytes is the wire form, including noise and corruption.
	Bytes     []byte
	Corrupted bool
}

// Generator produces frames from a set of stations in round robin.
type Generator struct {
	Dst      byte
	Stations []*Station
	// Corrupt is the probability a frame has one byte flipped.
	Corrupt float64
	// Noise is the probability of garbage bytes before a frame.
	Noise float64
	// Now returns the time stamp for date/time readings.
	Now func() time.Time

	rand *rand.Rand
	next int
	seq  int
}

var sampleTypes = []frame.MsgType{
	frame.TypeIdentifier,
	frame.TypeTemperature,
	frame.TypePressure,
	frame.TypeHumidity,
	frame.TypeWind,
	frame.TypeRadiation,
	frame.TypeDateTime,
	frame.TypePrecipitation,
}

// NewGenerator creates nodes stations addressed from 2, sending to dst.
func NewGenerator(r *rand.Rand, dst byte, nodes int) *Generator {
	g := &Generator{Dst: dst, Now: time.Now, rand: r}
	for i := 0; i < nodes; i++ {
		g.Stations = append(g.Stations, NewStation(byte(i+2), r))
	}
	return g
}

// Next generates the next transmission. Each station starts with its
// identifier and then cycles through the reading types.
func (g *Generator) Next() *Sample {
	st := g.Stations[g.next]
	t := sampleTypes[(g.seq/len(g.Stations))%len(sampleTypes)]
	g.next = (g.next + 1) % len(g.Stations)
	g.seq++

	v := st.Sample(g.rand, t, g.Now())
	s := &Sample{Frame: payload.Frame(g.Dst, st.Addr, v), Value: v}
	if g.Noise > 0 && g.rand.Float64() < g.Noise {
		for n := 1 + g.rand.Intn(3); n > 0; n-- {
			s.Bytes = append(s.Bytes, byte(g.rand.Intn(256)))
		}
	}
	data := s.Frame.MustEncode()
	if g.Corrupt > 0 && g.rand.Float64() < g.Corrupt {
		// any single flipped bit after the preamble breaks the checksum
		data[frame.HeaderLength+g.rand.Intn(len(data)-frame.HeaderLength)] ^= 1 << uint(g.rand.Intn(8))
		s.Corrupted = true
	}
	s.Bytes = append(s.Bytes, data...)
	return s
}
