package payload

import (
	"encoding/binary"

	"github.com/robotalks/wsn.go/pkg/frame"
)

// Payload sizes per message type. Identifier is variable up to
// frame.MaxPayloadLength.
var sizes = map[frame.MsgType]int{
	frame.TypeTemperature:   1,
	frame.TypePressure:      2,
	frame.TypeHumidity:      2,
	frame.TypeWind:          4,
	frame.TypeRadiation:     2,
	frame.TypeDateTime:      4,
	frame.TypePrecipitation: 2,
	frame.TypeIdentifier:    0,
}

// Size returns the fixed payload size of t, or 0 for variable layouts.
func Size(t frame.MsgType) (int, error) {
	n, ok := sizes[t]
	if !ok {
		return 0, &ErrUnknownType{Type: t}
	}
	return n, nil
}

// Decode interprets the payload of a valid record. Trailing bytes beyond the
// layout are ignored.
func Decode(rec frame.Record) (Value, error) {
	return DecodeBytes(rec.Type, rec.Payload)
}

// DecodeBytes interprets p as the payload of message type t.
func DecodeBytes(t frame.MsgType, p []byte) (Value, error) {
	size, err := Size(t)
	if err != nil {
		return nil, err
	}
	if len(p) < size {
		return nil, &ErrShortPayload{Type: t, Want: size, Got: len(p)}
	}
	switch t {
	case frame.TypeTemperature:
		return Temperature(int8(p[0])), nil
	case frame.TypePressure:
		return Pressure(binary.BigEndian.Uint16(p)), nil
	case frame.TypeHumidity:
		return Humidity{DewPoint: int8(p[0]), Humidity: p[1]}, nil
	case frame.TypeWind:
		speed, err := bcd(t, p[:2])
		if err != nil {
			return nil, err
		}
		return Wind{SpeedTenths: speed, Direction: binary.BigEndian.Uint16(p[2:])}, nil
	case frame.TypeRadiation:
		return Radiation(binary.BigEndian.Uint16(p)), nil
	case frame.TypeDateTime:
		return UnpackDateTime(binary.BigEndian.Uint32(p)), nil
	case frame.TypePrecipitation:
		depth, err := bcd(t, p[:2])
		if err != nil {
			return nil, err
		}
		return Precipitation(depth), nil
	case frame.TypeIdentifier:
		if len(p) > frame.MaxPayloadLength {
			p = p[:frame.MaxPayloadLength]
		}
		return Identifier(p), nil
	}
	return nil, &ErrUnknownType{Type: t}
}

// Encode returns the wire payload of v.
func Encode(v Value) []byte {
	switch v := v.(type) {
	case Temperature:
		return []byte{byte(v)}
	case Pressure:
		return binary.BigEndian.AppendUint16(nil, uint16(v))
	case Humidity:
		return []byte{byte(v.DewPoint), v.Humidity}
	case Wind:
		return binary.BigEndian.AppendUint16(toBCD(v.SpeedTenths), v.Direction)
	case Radiation:
		return binary.BigEndian.AppendUint16(nil, uint16(v))
	case DateTime:
		return binary.BigEndian.AppendUint32(nil, v.Pack())
	case Precipitation:
		return toBCD(uint16(v))
	case Identifier:
		if len(v) > frame.MaxPayloadLength {
			v = v[:frame.MaxPayloadLength]
		}
		return []byte(v)
	}
	return nil
}

// Frame builds an outgoing frame carrying v.
func Frame(dst, src byte, v Value) *frame.Frame {
	return &frame.Frame{Dst: dst, Src: src, Type: v.Type(), Payload: Encode(v)}
}

// bcd decodes packed BCD digits, most significant first.
func bcd(t frame.MsgType, p []byte) (uint16, error) {
	var n uint16
	for _, b := range p {
		hi, lo := b>>4, b&0x0f
		if hi > 9 || lo > 9 {
			return 0, &ErrBadBCD{Type: t, Value: b}
		}
		n = n*100 + uint16(hi)*10 + uint16(lo)
	}
	return n, nil
}

// toBCD packs n as four BCD digits. Values above 9999 wrap.
func toBCD(n uint16) []byte {
	n %= 10000
	hi, lo := n/100, n%100
	return []byte{byte(hi/10)<<4 | byte(hi%10), byte(lo/10)<<4 | byte(lo%10)}
}
