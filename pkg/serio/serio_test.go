package serio

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/wsn.go/pkg/buffer"
	"github.com/robotalks/wsn.go/pkg/frame"
)

// testLine is the far end of an in-memory serial line.
type testLine struct {
	// tx writes bytes the UART receives.
	tx *io.PipeWriter
	// rx reads bytes the UART transmits.
	rx *io.PipeReader
}

type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipePort) Close() error {
	p.r.Close()
	return p.w.Close()
}

func newTestUART(ctx context.Context, t *testing.T) (*UART, *testLine) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	u := NewUART(&pipePort{r: inR, w: outW}, 8)
	go u.Run(ctx)
	t.Cleanup(func() {
		inW.Close()
		outR.Close()
	})
	return u, &testLine{tx: inW, rx: outR}
}

func testFrames(n int) []*frame.Frame {
	frames := make([]*frame.Frame, n)
	for i := range frames {
		frames[i] = &frame.Frame{Dst: 1, Src: byte(i), Type: frame.TypeTemperature, Payload: []byte{byte(i)}}
		if i%3 == 1 {
			frames[i].Type = frame.TypeIdentifier
			frames[i].Payload = []byte("STATION-42")
		}
	}
	return frames
}

// noisyStream interleaves garbage and a corrupted frame with the frames.
func noisyStream(frames []*frame.Frame) []byte {
	var out []byte
	for i, f := range frames {
		switch i % 4 {
		case 1:
			out = append(out, 0x55, 0xAA)
		case 2:
			bad := f.MustEncode()
			bad[len(bad)-1] ^= 0x5a
			out = append(out, bad...)
		}
		out = append(out, f.MustEncode()...)
	}
	return out
}

type recordCollector struct {
	valid  []frame.Record
	errors int
}

func (c *recordCollector) collect(pair *buffer.Pair) {
	if !pair.GetClosed() {
		return
	}
	c.add(frame.DecodeRecord(pair.GetData()))
	pair.OpenGet()
}

func (c *recordCollector) add(rec frame.Record) {
	if rec.Kind != frame.OK {
		c.errors++
		return
	}
	c.valid = append(c.valid, rec.Clone())
}

func (c *recordCollector) requireFrames(t *testing.T, frames []*frame.Frame) {
	require.Len(t, c.valid, len(frames))
	for i, f := range frames {
		require.Equal(t, frame.RecordOf(f), c.valid[i], "frame %d", i)
	}
	assert.NotZero(t, c.errors)
}

func sendAsync(line *testLine, data []byte) {
	go line.tx.Write(data)
}

func readAsync(line *testLine, n int) <-chan []byte {
	ch := make(chan []byte, 1)
	go func() {
		buf := make([]byte, n)
		io.ReadFull(line.rx, buf)
		ch <- buf
	}()
	return ch
}

func TestPolledDeliversEveryFrame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, line := newTestUART(ctx, t)
	d := NewPolled(u, DefaultInputSize, DefaultOutputSize)
	d.IdleFlush = time.Millisecond

	frames := testFrames(40)
	sendAsync(line, noisyStream(frames))

	var p frame.Parser
	pair := buffer.NewPair(frame.RecordSize)
	var c recordCollector
	for len(c.valid) < len(frames) {
		require.NoError(t, ctx.Err())
		d.ServiceRx()
		p.Pump(d, pair)
		c.collect(pair)
	}
	c.requireFrames(t, frames)
}

func TestPolledTransmit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, line := newTestUART(ctx, t)
	d := NewPolled(u, DefaultInputSize, DefaultOutputSize)

	msg := []byte("SOURCE NODE 2: TEMPERATURE MESSAGE\n")
	out := readAsync(line, len(msg))
	for _, b := range msg {
		for !d.PutByte(b) {
			require.NoError(t, ctx.Err())
			d.ServiceTx()
		}
	}
	d.Flush()
	for {
		d.ServiceTx()
		select {
		case got := <-out:
			require.Equal(t, msg, got)
			return
		case <-ctx.Done():
			t.Fatal(ctx.Err())
		default:
		}
	}
}

func TestPolledHoldsPartialInputWithoutIdleFlush(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, line := newTestUART(ctx, t)
	d := NewPolled(u, 8, 8)

	sendAsync(line, []byte{1, 2, 3})
	for d.In.PutLen() < 3 {
		require.NoError(t, ctx.Err())
		d.ServiceRx()
	}
	_, ok := d.GetByte()
	require.False(t, ok)

	d.IdleFlush = time.Nanosecond
	d.ServiceRx()
	b, ok := d.GetByte()
	require.True(t, ok)
	require.Equal(t, byte(1), b)
}

func TestInterruptDeliversEveryFrame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, line := newTestUART(ctx, t)
	d := NewInterrupt(u, DefaultInputSize, DefaultOutputSize)
	d.IdleFlush = time.Millisecond
	wake := make(chan struct{}, 1)
	d.Notify = func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
	go d.Run(ctx)

	frames := testFrames(40)
	sendAsync(line, noisyStream(frames))

	var p frame.Parser
	pair := buffer.NewPair(frame.RecordSize)
	var c recordCollector
	for len(c.valid) < len(frames) {
		p.Pump(d, pair)
		c.collect(pair)
		select {
		case <-wake:
		case <-time.After(time.Millisecond):
		case <-ctx.Done():
			t.Fatal(ctx.Err())
		}
	}
	c.requireFrames(t, frames)
}

func TestInterruptTransmit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, line := newTestUART(ctx, t)
	d := NewInterrupt(u, DefaultInputSize, DefaultOutputSize)
	go d.Run(ctx)

	msg := []byte("SOURCE NODE 7: SENSOR ID MESSAGE: Node ID = STATION-42\n")
	out := readAsync(line, len(msg))
	for _, b := range msg {
		for !d.PutByte(b) {
			require.NoError(t, ctx.Err())
			time.Sleep(100 * time.Microsecond)
		}
	}
	d.Flush()
	select {
	case got := <-out:
		require.Equal(t, msg, got)
	case <-ctx.Done():
		t.Fatal(ctx.Err())
	}
}

func TestBlockingDeliversEveryFrame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, line := newTestUART(ctx, t)
	d := NewBlocking(u, DefaultInputSize, DefaultOutputSize, 0)
	d.IdleFlush = time.Millisecond
	go d.Run(ctx)

	frames := testFrames(40)
	sendAsync(line, noisyStream(frames))

	h := buffer.NewHandoff(buffer.NewPair(frame.RecordSize))
	go func() {
		var p frame.Parser
		p.Run(ctx, d, h)
	}()

	var c recordCollector
	for len(c.valid) < len(frames) {
		require.NoError(t, h.Consume(ctx))
		c.add(frame.DecodeRecord(h.Pair.GetData()))
		require.NoError(t, h.Release())
	}
	c.requireFrames(t, frames)
}

func TestBlockingQuietLineWithTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	u, _ := newTestUART(ctx, t)
	d := NewBlocking(u, DefaultInputSize, DefaultOutputSize, 10*time.Millisecond)
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	select {
	case err := <-errCh:
		t.Fatalf("driver stopped on a quiet line: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestBlockingTransmit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, line := newTestUART(ctx, t)
	d := NewBlocking(u, DefaultInputSize, DefaultOutputSize, 0)
	go d.Run(ctx)

	msg := []byte("SOURCE NODE 3: WIND MESSAGE: Speed = 12.3 Wind Direction = 180\n")
	out := readAsync(line, len(msg))
	sink := d.Sink(ctx)
	for _, b := range msg {
		require.True(t, sink.PutByte(b))
	}
	sink.Flush()
	require.NoError(t, sink.Err())
	select {
	case got := <-out:
		require.Equal(t, msg, got)
	case <-ctx.Done():
		t.Fatal(ctx.Err())
	}
}

func TestUARTReceiveAfterClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, line := newTestUART(ctx, t)
	go func() {
		line.tx.Write([]byte{0x10, 0x20})
		line.tx.Close()
	}()
	for _, want := range []byte{0x10, 0x20} {
		b, err := u.ReceiveByte(ctx)
		require.NoError(t, err)
		require.Equal(t, want, b)
	}
	_, err := u.ReceiveByte(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestPortOptions(t *testing.T) {
	opts, err := PortOptions{Parity: "even"}.Normalize()
	require.NoError(t, err)
	require.Equal(t, PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "E"}, opts)
	require.Equal(t, "9600/8E1", opts.String())

	_, err = PortOptions{DataBits: 9}.Normalize()
	require.Error(t, err)
	_, err = PortOptions{StopBits: 3}.Normalize()
	require.Error(t, err)
	_, err = PortOptions{Parity: "mark"}.Normalize()
	require.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("interrupt")
	require.NoError(t, err)
	require.Equal(t, ModeInterrupt, m)
	_, err = ParseMode("dma")
	require.ErrorIs(t, err, ErrUnknownMode)
}
