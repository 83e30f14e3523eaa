package dispatch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/wsn.go/pkg/buffer"
	"github.com/robotalks/wsn.go/pkg/frame"
	"github.com/robotalks/wsn.go/pkg/payload"
)

type eventRecorder struct {
	events []*Event
}

func (r *eventRecorder) HandleEvent(ctx context.Context, e *Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) lines() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.String()
	}
	return out
}

func TestClassify(t *testing.T) {
	d := New(DefaultLocalAddress)
	testCases := []struct {
		name   string
		rec    frame.Record
		notice Notice
		line   string
	}{
		{
			name: "reading",
			rec:  frame.RecordOf(payload.Frame(1, 2, payload.Temperature(5))),
			line: "SOURCE NODE 2: TEMPERATURE MESSAGE: Temperature = 5",
		},
		{
			name:   "other node",
			rec:    frame.RecordOf(payload.Frame(9, 2, payload.Temperature(5))),
			notice: NoticeNotMine,
			line:   "*** INFO: Not My Address",
		},
		{
			name:   "unknown type",
			rec:    frame.RecordOf(&frame.Frame{Dst: 1, Src: 2, Type: 42, Payload: []byte{1}}),
			notice: NoticeUnknownType,
			line:   "*** ERROR: Unknown Message Type",
		},
		{
			name: "bad preamble",
			rec:  frame.Record{Kind: frame.ErrPreamble3},
			line: "*** ERROR: Bad Preamble Byte 3",
		},
		{
			name: "bad length",
			rec:  frame.Record{Kind: frame.ErrLength},
			line: "*** ERROR: Bad Packet Size",
		},
		{
			name: "bad checksum",
			rec:  frame.Record{Kind: frame.ErrChecksum},
			line: "*** ERROR: Checksum error",
		},
		{
			name: "short payload",
			rec:  frame.RecordOf(&frame.Frame{Dst: 1, Src: 2, Type: frame.TypeWind, Payload: []byte{1}}),
			line: "*** ERROR: wind payload: want 4 bytes, got 1",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := d.Classify(tc.rec)
			require.Equal(t, tc.notice, e.Notice)
			require.Equal(t, tc.line, e.String())
		})
	}
	assert.Equal(t, uint64(1), d.Stats.Readings.Load())
	assert.Equal(t, uint64(4), d.Stats.Errors.Load())
	assert.Equal(t, uint64(1), d.Stats.NotMine.Load())
	assert.Equal(t, uint64(1), d.Stats.Unknown.Load())
}

func TestClassifyCopiesPayload(t *testing.T) {
	slot := make([]byte, frame.RecordSize)
	var p frame.Parser
	for _, b := range payload.Frame(1, 4, payload.Identifier("ABC")).MustEncode() {
		p.Parse(b, slot)
	}
	e := New(1).Classify(frame.DecodeRecord(slot))
	for i := range slot {
		slot[i] = 0
	}
	require.Equal(t, payload.Identifier("ABC"), e.Value)
	require.Equal(t, []byte("ABC"), e.Record.Payload)
}

func TestPoll(t *testing.T) {
	var rec eventRecorder
	d := New(1, &rec)
	pair := buffer.NewPair(frame.RecordSize)
	var p frame.Parser
	src := &sliceSource{data: append(
		payload.Frame(1, 2, payload.Pressure(1001)).MustEncode(),
		payload.Frame(3, 2, payload.Pressure(1002)).MustEncode()...)}

	require.False(t, d.Poll(context.Background(), pair))
	p.Pump(src, pair)
	require.True(t, d.Poll(context.Background(), pair))
	require.True(t, d.Poll(context.Background(), pair))
	require.False(t, d.Poll(context.Background(), pair))
	require.Equal(t, []string{
		"SOURCE NODE 2: BAROMETRIC PRESSURE MESSAGE: Pressure = 1001",
		"*** INFO: Not My Address",
	}, rec.lines())
}

type sliceSource struct {
	data []byte
}

func (s *sliceSource) GetByte() (byte, bool) {
	if len(s.data) == 0 {
		return 0, false
	}
	b := s.data[0]
	s.data = s.data[1:]
	return b, true
}

func TestRun(t *testing.T) {
	var rec eventRecorder
	d := New(1, &rec)
	h := buffer.NewHandoff(buffer.NewPair(frame.RecordSize))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, h) }()

	var dec frame.Decoder
	for i := 0; i < 50; i++ {
		for _, b := range payload.Frame(1, byte(i), payload.Radiation(uint16(i))).MustEncode() {
			if dec.Parse(b, h.Pair.PutData()) {
				require.NoError(t, h.Complete(ctx))
			}
		}
	}
	deadline := time.Now().Add(5 * time.Second)
	for d.Stats.Readings.Load() < 50 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Len(t, rec.events, 50)
	for i, e := range rec.events {
		require.Equal(t, payload.Radiation(uint16(i)), e.Value)
	}
}

type fakeSink struct {
	room    int
	out     []byte
	flushes int
}

func (s *fakeSink) PutByte(b byte) bool {
	if s.room == 0 {
		return false
	}
	s.room--
	s.out = append(s.out, b)
	return true
}

func (s *fakeSink) Flush() { s.flushes++ }

func TestReplyKeepsRemainder(t *testing.T) {
	sink := &fakeSink{room: 10}
	r := NewReply(sink)
	d := New(1, r)
	d.Dispatch(context.Background(), frame.RecordOf(payload.Frame(1, 2, payload.Temperature(-3))))
	line := "SOURCE NODE 2: TEMPERATURE MESSAGE: Temperature = -3\n"
	require.Equal(t, line[:10], string(sink.out))
	require.Equal(t, len(line)-10, r.Pending())

	sink.room = 1000
	require.True(t, r.Service())
	require.Equal(t, line, string(sink.out))
	require.Zero(t, r.Pending())
	require.Equal(t, 2, sink.flushes)
}

func TestReplyBacklog(t *testing.T) {
	sink := &fakeSink{}
	r := NewReply(sink)
	r.Backlog = 64
	d := New(1, r)
	for i := 0; i < 3; i++ {
		d.Dispatch(context.Background(), frame.Record{Kind: frame.ErrChecksum})
	}
	require.Equal(t, 2*len("*** ERROR: Checksum error\n"), r.Pending())
	require.Equal(t, 1, r.Dropped())

	r.ReadingsOnly = true
	d.Dispatch(context.Background(), frame.Record{Kind: frame.ErrLength})
	require.Equal(t, 1, r.Dropped())
	require.False(t, strings.Contains(string(sink.out), "Packet Size"))
}
