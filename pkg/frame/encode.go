package frame

import (
	"fmt"
	"io"
)

// Frame is an outgoing frame, the inverse of a valid Record.
type Frame struct {
	Dst     byte
	Src     byte
	Type    MsgType
	Payload []byte
}

// Encode returns the wire bytes including preamble, length and checksum.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Payload) > MaxPayloadLength {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d", len(f.Payload), MaxPayloadLength)
	}
	n := MinFrameLength + len(f.Payload)
	b := make([]byte, 0, n)
	b = append(b, Preamble1, Preamble2, Preamble3, byte(n), f.Dst, f.Src, byte(f.Type))
	b = append(b, f.Payload...)
	var sum byte
	for _, c := range b {
		sum ^= c
	}
	return append(b, sum), nil
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// MustEncode is Encode panicking on error, for fixed test and simulator frames.
func (f *Frame) MustEncode() []byte {
	b, err := f.Encode()
	if err != nil {
		panic(err)
	}
	return b
}

// RecordOf returns the Record a parser produces for f.
func RecordOf(f *Frame) Record {
	return Record{
		Kind:    OK,
		Length:  MinFrameLength + len(f.Payload) - HeaderLength,
		Dst:     f.Dst,
		Src:     f.Src,
		Type:    f.Type,
		Payload: append([]byte{}, f.Payload...),
	}
}
