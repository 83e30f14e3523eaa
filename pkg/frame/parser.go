package frame

import (
	"fmt"

	"github.com/golang/glog"
)

// State is the parser state.
type State int

// Parser states.
const (
	SeekPreamble1 State = iota
	SeekPreamble2
	SeekPreamble3
	ReadLength
	ReadData
	VerifyChecksum
	Resync1
	Resync2
	Resync3
)

var stateNames = [...]string{
	"SeekPreamble1", "SeekPreamble2", "SeekPreamble3",
	"ReadLength", "ReadData", "VerifyChecksum",
	"Resync1", "Resync2", "Resync3",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Parser is the frame state machine. The zero value is ready to use and
// waits for the first preamble byte.
type Parser struct {
	state    State
	checksum byte
	length   int
	index    int
}

// State returns the current state.
func (p *Parser) State() State {
	return p.state
}

// Checksum returns the running XOR of the current frame.
func (p *Parser) Checksum() byte {
	return p.checksum
}

// Reset returns the parser to SeekPreamble1 with a clear checksum.
func (p *Parser) Reset() {
	*p = Parser{}
}

// Parse consumes one byte, writing into slot (at least RecordSize bytes).
// It returns true when the slot holds a finished record, valid or error;
// the caller closes the slot and must provide a fresh one for the next byte
// that needs storage.
func (p *Parser) Parse(b byte, slot []byte) bool {
	if glog.V(3) {
		glog.Infof("rx %02x %v", b, p.state)
	}
	p.checksum ^= b
	switch p.state {
	case SeekPreamble1:
		if b != Preamble1 {
			return p.misframed(slot, ErrPreamble1, b)
		}
		p.state = SeekPreamble2
	case SeekPreamble2:
		if b != Preamble2 {
			return p.misframed(slot, ErrPreamble2, b)
		}
		p.state = SeekPreamble3
	case SeekPreamble3:
		if b != Preamble3 {
			return p.misframed(slot, ErrPreamble3, b)
		}
		p.state = ReadLength
	case ReadLength:
		if b < MinFrameLength || b > MaxFrameLength {
			return p.misframed(slot, ErrLength, b)
		}
		p.length, p.index = int(b)-HeaderLength, 0
		slot[slotLength] = byte(p.length)
		p.state = ReadData
	case ReadData:
		slot[slotData+p.index] = b
		p.index++
		if p.index >= p.length-1 {
			p.state = VerifyChecksum
		}
	case VerifyChecksum:
		if p.checksum != 0 {
			// the checksum byte belongs to the bad frame, don't rescan it.
			p.close(slot, ErrChecksum)
			p.checksum, p.state = 0, Resync1
			return true
		}
		p.close(slot, OK)
		p.checksum, p.state = 0, SeekPreamble1
		return true
	case Resync1:
		p.resync(b)
	case Resync2:
		if b == Preamble2 {
			p.state = Resync3
		} else {
			p.resync(b)
		}
	case Resync3:
		if b == Preamble3 {
			p.state = ReadLength
		} else {
			p.resync(b)
		}
	}
	return false
}

// misframed closes an error record and rescans b, which may start the next
// preamble.
func (p *Parser) misframed(slot []byte, kind Kind, b byte) bool {
	p.close(slot, kind)
	p.resync(b)
	return true
}

// resync restarts preamble matching at Resync1 with b as the candidate. The
// checksum is cleared and only a matching preamble byte is folded back in.
func (p *Parser) resync(b byte) {
	p.checksum = 0
	if b == Preamble1 {
		p.checksum, p.state = b, Resync2
		return
	}
	p.state = Resync1
}

func (p *Parser) close(slot []byte, kind Kind) {
	slot[slotKind] = byte(kind)
	if kind != OK {
		slot[slotLength] = 0
	}
}

// Decoder is the unbuffered variant: it owns a single slot and returns each
// record as soon as it completes.
type Decoder struct {
	Parser
	slot [RecordSize]byte
}

// Decode consumes one byte. The returned record aliases the decoder's slot
// and is valid until the next call.
func (d *Decoder) Decode(b byte) (Record, bool) {
	if !d.Parse(b, d.slot[:]) {
		return Record{}, false
	}
	return DecodeRecord(d.slot[:]), true
}

// DecodeAll feeds every byte of p and returns cloned records in order.
func (d *Decoder) DecodeAll(p []byte) []Record {
	var recs []Record
	for _, b := range p {
		if rec, ok := d.Decode(b); ok {
			recs = append(recs, rec.Clone())
		}
	}
	return recs
}
