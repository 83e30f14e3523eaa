// Package capture stores dispatched records in a file for later replay.
//
// A capture is a sequence of payload.Reading messages, each prefixed by its
// length as a 4-byte little-endian integer.
package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/wsn.go/pkg/dispatch"
	"github.com/robotalks/wsn.go/pkg/payload"
)

// MaxRecordSize bounds a single encoded reading.
const MaxRecordSize = 1 << 16

// ErrRecordTooLarge indicates a corrupt length prefix.
var ErrRecordTooLarge = errors.New("capture record too large")

// Writer is a dispatch.Sink appending every event to a stream.
type Writer struct {
	Node string

	lock   sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	err    error
	count  int
}

// NewWriter writes to w. If w is an io.Closer, Close closes it.
func NewWriter(w io.Writer, node string) *Writer {
	cw := &Writer{Node: node, w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	return cw
}

// Create opens path for appending.
func Create(path, node string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return NewWriter(f, node), nil
}

// WriteReading appends one reading.
func (w *Writer) WriteReading(r *payload.Reading) error {
	data, err := payload.Marshal(r)
	if err != nil {
		return err
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.err != nil {
		return w.err
	}
	if err = binary.Write(w.w, binary.LittleEndian, uint32(len(data))); err == nil {
		_, err = w.w.Write(data)
	}
	if err != nil {
		w.err = err
		return err
	}
	w.count++
	return nil
}

// HandleEvent implements dispatch.Sink.
func (w *Writer) HandleEvent(ctx context.Context, e *dispatch.Event) {
	r := payload.NewReading(w.Node, e.Record, e.Time)
	r.Summary = e.String()
	if err := w.WriteReading(r); err != nil {
		glog.Errorf("capture: %v", err)
	}
}

// Count returns the number of readings written.
func (w *Writer) Count() int {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.count
}

// Flush writes buffered readings through.
func (w *Writer) Flush() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if err := w.w.Flush(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}

// Close flushes and closes the underlying stream.
func (w *Writer) Close() error {
	err := w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Name implements framework.Named.
func (w *Writer) Name() string {
	return "capture"
}

// Run implements framework.Runnable. It closes the writer when ctx is done.
func (w *Writer) Run(ctx context.Context) error {
	<-ctx.Done()
	if err := w.Close(); err != nil {
		return err
	}
	return ctx.Err()
}

// Reader reads readings from a capture stream.
type Reader struct {
	r io.Reader
}

// NewReader reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadReading returns the next reading, or io.EOF at the end of the stream.
func (r *Reader) ReadReading() (*payload.Reading, error) {
	var size uint32
	if err := binary.Read(r.r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxRecordSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r.r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload.Unmarshal(data)
}

// ReadAll reads every reading until the end of the stream.
func (r *Reader) ReadAll() ([]*payload.Reading, error) {
	var out []*payload.Reading
	for {
		m, err := r.ReadReading()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
}
