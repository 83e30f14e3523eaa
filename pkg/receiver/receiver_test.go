package receiver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/wsn.go/pkg/dispatch"
	"github.com/robotalks/wsn.go/pkg/payload"
	"github.com/robotalks/wsn.go/pkg/serio"
)

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

func testValues() []payload.Value {
	return []payload.Value{
		payload.Temperature(19),
		payload.Pressure(1013),
		payload.Humidity{DewPoint: 8, Humidity: 71},
		payload.Wind{SpeedTenths: 123, Direction: 180},
		payload.Radiation(640),
		payload.DateTime{Year: 2024, Month: 5, Day: 30, Hour: 9, Minute: 41},
		payload.Precipitation(125),
		payload.Identifier("STATION-7"),
	}
}

func TestReceiverModes(t *testing.T) {
	for _, mode := range serio.Modes {
		t.Run(string(mode), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			inR, inW := io.Pipe()
			outR, outW := io.Pipe()
			defer inW.Close()
			defer outR.Close()
			u := serio.NewUART(&pipePort{r: inR, w: outW}, 8)

			events := make(chan *dispatch.Event, 64)
			d := dispatch.New(1, dispatch.HandleEventFunc(func(_ context.Context, e *dispatch.Event) {
				events <- e
			}))
			r := New(u, d, Config{Mode: mode, IdleFlush: time.Millisecond})
			r.WithReply()

			var stream []byte
			var want bytes.Buffer
			for i, v := range testValues() {
				stream = append(stream, payload.Frame(1, byte(i+2), v).MustEncode()...)
				want.WriteString(payload.Summary(byte(i+2), v) + "\n")
			}
			stream = append(stream, payload.Frame(9, 2, payload.Temperature(1)).MustEncode()...)
			want.WriteString("*** INFO: Not My Address\n")

			replyCh := make(chan []byte, 1)
			go func() {
				buf := make([]byte, want.Len())
				io.ReadFull(outR, buf)
				replyCh <- buf
			}()

			errCh := make(chan error, 1)
			go func() { errCh <- r.Run(ctx) }()
			go inW.Write(stream)

			for i, v := range testValues() {
				select {
				case e := <-events:
					require.NoError(t, e.Err)
					assert.Equal(t, v, e.Value, "record %d", i)
				case <-ctx.Done():
					t.Fatal(ctx.Err())
				}
			}
			select {
			case e := <-events:
				assert.Equal(t, dispatch.NoticeNotMine, e.Notice)
			case <-ctx.Done():
				t.Fatal(ctx.Err())
			}
			select {
			case got := <-replyCh:
				assert.Equal(t, want.String(), string(got))
			case <-ctx.Done():
				t.Fatal(ctx.Err())
			}

			assert.Equal(t, uint64(len(testValues())), d.Stats.Readings.Load())
			cancel()
			err := <-errCh
			assert.True(t, err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded), "%v", err)
		})
	}
}

func TestReceiverBlockingQuietLineWithPermitTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	defer inW.Close()
	defer outR.Close()
	go io.Copy(io.Discard, outR)

	events := make(chan *dispatch.Event, 1)
	d := dispatch.New(1, dispatch.HandleEventFunc(func(_ context.Context, e *dispatch.Event) {
		events <- e
	}))
	r := New(serio.NewUART(&pipePort{r: inR, w: outW}, 8), d, Config{
		Mode:          serio.ModeBlocking,
		IdleFlush:     time.Millisecond,
		PermitTimeout: 10 * time.Millisecond,
	})
	r.WithReply()

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	select {
	case err := <-errCh:
		t.Fatalf("receiver stopped on a quiet line: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	go inW.Write(payload.Frame(1, 4, payload.Pressure(998)).MustEncode())
	select {
	case e := <-events:
		require.NoError(t, e.Err)
		assert.Equal(t, payload.Pressure(998), e.Value)
	case <-ctx.Done():
		t.Fatal(ctx.Err())
	}

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestReceiverUnknownMode(t *testing.T) {
	inR, _ := io.Pipe()
	_, outW := io.Pipe()
	r := New(serio.NewUART(&pipePort{r: inR, w: outW}, 1), dispatch.New(1), Config{Mode: "dma"})
	err := r.Run(context.Background())
	assert.ErrorIs(t, err, serio.ErrUnknownMode)
	assert.Equal(t, "receiver/dma", r.Name())
}

func TestReceiverDefaults(t *testing.T) {
	r := New(nil, dispatch.New(1), Config{Mode: serio.ModePolled})
	assert.Equal(t, serio.DefaultInputSize, r.InputSize)
	assert.Equal(t, serio.DefaultOutputSize, r.OutputSize)
	reply := r.WithReply()
	require.Len(t, r.Dispatcher.Sinks, 1)
	assert.Same(t, reply, r.Dispatcher.Sinks[0])
}
