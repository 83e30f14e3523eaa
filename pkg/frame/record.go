package frame

import "fmt"

// Record is a decoded view of one record slot. Payload aliases the slot
// storage and is only valid until the slot is released; use Clone to keep it.
type Record struct {
	Kind    Kind
	Length  int // frame length minus HeaderLength
	Dst     byte
	Src     byte
	Type    MsgType
	Payload []byte
}

// DecodeRecord reads a record from a slot written by the Parser.
func DecodeRecord(slot []byte) Record {
	rec := Record{Kind: Kind(slot[slotKind])}
	if rec.Kind != OK {
		return rec
	}
	rec.Length = int(slot[slotLength])
	rec.Dst, rec.Src = slot[slotDst], slot[slotSrc]
	rec.Type = MsgType(slot[slotType])
	rec.Payload = slot[slotBody : slotData+rec.Length-1]
	return rec
}

// Err returns the parser error of the record, or nil.
func (r Record) Err() error {
	return r.Kind.Err()
}

// Clone copies the payload out of the slot.
func (r Record) Clone() Record {
	if r.Payload != nil {
		r.Payload = append([]byte{}, r.Payload...)
	}
	return r
}

// String implements fmt.Stringer.
func (r Record) String() string {
	if r.Kind != OK {
		return fmt.Sprintf("error %v", r.Kind)
	}
	return fmt.Sprintf("%d->%d %v % x", r.Src, r.Dst, r.Type, r.Payload)
}
