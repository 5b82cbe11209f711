package fu

import (
	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/instr"
)

// PacketSendUnit assembles outbound packets (§4.6). A Send instruction
// only supplies the header; the payload is whatever value the next
// Length-many writes to D0 carry (§3.1's note that D0's write is
// diverted to the packet-emit path), so the header is held until that
// many words have arrived.
type PacketSendUnit struct {
	queue []pendingSend
}

type pendingSend struct {
	header    bamlet.Header
	remaining int32
	payload   []uint32
}

// NewPacketSendUnit builds an empty send unit.
func NewPacketSendUnit() *PacketSendUnit { return &PacketSendUnit{} }

// Issue accepts one Resolved Send instruction, opening a new pending
// header. Send carries no predicate of its own in Resolved form — the
// reservation station already dropped a masked-false Send before it
// ever reached here (§4.4 bullet 3) — so every Issue is real.
func (u *PacketSendUnit) Issue(r instr.PacketSendResolved) {
	u.queue = append(u.queue, pendingSend{
		header: bamlet.Header{
			Length: uint32(r.Length), XDest: uint32(r.DestX), YDest: uint32(r.DestY), Mode: r.Mode,
		},
		remaining: r.Length,
	})
}

// ObserveResultBus watches for D0 writes, which carry this PE's next
// packet payload word (§4.6): the oldest pending header consumes one
// word per D0 write until its length is satisfied, at which point the
// assembled packet is returned for the switch's Here input to carry
// onto the mesh.
func (u *PacketSendUnit) ObserveResultBus(bus []instr.ResultEntry) []bamlet.Packet {
	var completed []bamlet.Packet
	for _, e := range bus {
		if e.Class != bamlet.ClassD || e.Index != 0 {
			continue
		}
		if len(u.queue) == 0 {
			continue // stray D0 write with no header awaiting payload.
		}
		head := &u.queue[0]
		head.payload = append(head.payload, uint32(e.Value))
		head.remaining--
		if head.remaining <= 0 {
			completed = append(completed, bamlet.Packet{Header: head.header, Payload: head.payload})
			u.queue = u.queue[1:]
		}
	}
	return completed
}

// ForwardDirective carries a Receive instruction's forwarding decision
// to the switch (§4.6): which output side to rebind the packet's
// remaining words to, whether it is an Append-mode continuation, and
// the toggle bit that disambiguates two back-to-back forwards through
// the same side.
type ForwardDirective struct {
	Dir    bamlet.Side
	Append bool
	Toggle bool
}

// PacketReceiveUnit executes Receive and GetWord against the next
// inbound word waiting on this PE's Here switch output (§4.6).
type PacketReceiveUnit struct{}

// NewPacketReceiveUnit builds a receive unit; it holds no state of its
// own; in-flight header/length bookkeeping for Receive/GetWord pairing
// lives on the rename register file, the same way any other register
// dependency does.
func NewPacketReceiveUnit() *PacketReceiveUnit { return &PacketReceiveUnit{} }

// Issue consumes one Resolved Receive/GetWord instruction against word,
// if the switch has one ready this cycle. consumed reports whether the
// word was taken (false leaves it for a retry next cycle — e.g. a
// GetWord arriving before a header word is available). A masked-false
// instruction still drains whatever tags it allocated, but never
// touches the inbound word.
func (u *PacketReceiveUnit) Issue(
	r instr.PacketReceiveResolved, word bamlet.LinkWord, haveWord bool,
) (results []instr.ResultEntry, forward *bamlet.LinkWord, directive ForwardDirective, consumed bool) {
	directive = ForwardDirective{Dir: r.ForwardDir, Append: r.ForwardAppend, Toggle: r.ForwardToggle}

	if !r.Predicate {
		if e, ok := forcedDrain(r.LenDst); ok {
			results = append(results, e)
		}
		if e, ok := forcedDrain(r.WordDst); ok {
			results = append(results, e)
		}
		return results, nil, directive, false
	}

	if !haveWord {
		return nil, nil, directive, false
	}

	switch r.Op {
	case instr.PacketReceive:
		if !word.IsHeader {
			return nil, nil, directive, false
		}
		if !r.LenDst.None {
			results = append(results, instr.ResultEntry{
				Class: r.LenDst.Class, Index: r.LenDst.Index, Tag: r.LenDst.Tag, Value: int32(word.Data),
			})
		}
	case instr.PacketGetWord:
		if word.IsHeader {
			return nil, nil, directive, false
		}
		if !r.WordDst.None {
			results = append(results, instr.ResultEntry{
				Class: r.WordDst.Class, Index: r.WordDst.Index, Tag: r.WordDst.Tag, Value: int32(word.Data),
			})
		}
	}

	if r.Forward {
		fw := word
		forward = &fw
	}
	return results, forward, directive, true
}
