package payload

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/wsn.go/pkg/frame"
)

// Reading is the transport form of a record, published over MQTT and
// appended to capture files.
type Reading struct {
	Node       string `protobuf:"bytes,1,opt,name=node,proto3" json:"node,omitempty"`
	Kind       uint32 `protobuf:"varint,2,opt,name=kind,proto3" json:"kind,omitempty"`
	Dst        uint32 `protobuf:"varint,3,opt,name=dst,proto3" json:"dst,omitempty"`
	Src        uint32 `protobuf:"varint,4,opt,name=src,proto3" json:"src,omitempty"`
	Type       uint32 `protobuf:"varint,5,opt,name=type,proto3" json:"type,omitempty"`
	Payload    []byte `protobuf:"bytes,6,opt,name=payload,proto3" json:"payload,omitempty"`
	ReceivedAt int64  `protobuf:"varint,7,opt,name=received_at,proto3" json:"received_at,omitempty"`
	Summary    string `protobuf:"bytes,8,opt,name=summary,proto3" json:"summary,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Reading) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Reading) Reset() { *m = Reading{} }

// String implements proto.Message.
func (m *Reading) String() string { return proto.CompactTextString(m) }

// NewReading captures rec. The payload is copied out of the record slot.
func NewReading(node string, rec frame.Record, at time.Time) *Reading {
	r := &Reading{
		Node:       node,
		Kind:       uint32(rec.Kind),
		Dst:        uint32(rec.Dst),
		Src:        uint32(rec.Src),
		Type:       uint32(rec.Type),
		ReceivedAt: at.UnixNano(),
	}
	if len(rec.Payload) > 0 {
		r.Payload = append([]byte{}, rec.Payload...)
	}
	if rec.Kind == frame.OK {
		if v, err := Decode(rec); err == nil {
			r.Summary = Summary(rec.Src, v)
		}
	}
	return r
}

// Record converts the reading back into a record.
func (m *Reading) Record() frame.Record {
	rec := frame.Record{Kind: frame.Kind(m.Kind)}
	if rec.Kind != frame.OK {
		return rec
	}
	rec.Dst, rec.Src = byte(m.Dst), byte(m.Src)
	rec.Type = frame.MsgType(m.Type)
	rec.Payload = append([]byte{}, m.Payload...)
	rec.Length = frame.MinFrameLength + len(rec.Payload) - frame.HeaderLength
	return rec
}

// Time returns the receive time.
func (m *Reading) Time() time.Time {
	return time.Unix(0, m.ReceivedAt)
}

// Marshal encodes a reading.
func Marshal(m *Reading) ([]byte, error) {
	return proto.Marshal(m)
}

// Unmarshal decodes a reading.
func Unmarshal(data []byte) (*Reading, error) {
	var m Reading
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
