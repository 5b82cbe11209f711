package rs

import "github.com/sarchlab/bamlet/instr"

// PacketReceiveStation buffers Resolving-form Receive/GetWord
// instructions. Packet stations are strictly in-order (§4.4 bullet 2,
// third case): only the head slot may ever issue, since packets carry
// implicit ordering through the shared network and D0 emit channel.
// Receive's Resolved form carries the predicate through
// (instr.PacketReceiveResolved.Predicate) rather than being masked at
// the station.
type PacketReceiveStation struct {
	buf *buffer[instr.PacketSlotR]
}

func NewPacketReceiveStation(depth int) *PacketReceiveStation {
	return &PacketReceiveStation{buf: newBuffer[instr.PacketSlotR](depth)}
}

func (s *PacketReceiveStation) Ready() bool { return !s.buf.Full() }

func (s *PacketReceiveStation) TryPush(v instr.PacketSlotR) bool {
	if s.buf.Full() {
		return false
	}
	s.buf.Push(v)
	return true
}

func (s *PacketReceiveStation) Step(bus []instr.ResultEntry) (instr.PacketSlotR, bool) {
	head, ready := s.PeekHead(bus)
	if !ready {
		return instr.PacketSlotR{}, false
	}
	s.PopHead()
	return head, true
}

// PeekHead snoops the result bus and reports the station's head slot
// without removing it, for callers (amlet) that must first confirm an
// inbound link word is actually available before a non-masked Receive
// commits — the word supply is outside this package, so the station
// cannot decide unilaterally when to pop the way Step does.
func (s *PacketReceiveStation) PeekHead(bus []instr.ResultEntry) (instr.PacketSlotR, bool) {
	for i := range s.buf.entries {
		snoopOperand(&s.buf.entries[i].value.Predicate, bus)
	}

	if s.buf.Len() == 0 {
		return instr.PacketSlotR{}, false
	}
	head := s.buf.entries[0].value
	if !head.Predicate.Ready() {
		return instr.PacketSlotR{}, false
	}
	return head, true
}

// PopHead removes the head slot; callers use this after PeekHead
// confirms the head is ready and they have decided to commit the issue.
func (s *PacketReceiveStation) PopHead() {
	s.buf.remove(0)
}

// PacketSendStation is PacketReceiveStation's in-order counterpart for
// Send. Unlike every other station kind, Send's Resolved form
// (instr.PacketSendResolved) carries no predicate field at all — there
// is no sensible "send a masked packet" passthrough — so a
// resolved-false head is dropped here rather than forwarded, per §4.4
// bullet 3. Send has no destination register of its own, so this
// masking never produces a forced result-bus drain.
type PacketSendStation struct {
	buf *buffer[instr.PacketSlotR]
}

func NewPacketSendStation(depth int) *PacketSendStation {
	return &PacketSendStation{buf: newBuffer[instr.PacketSlotR](depth)}
}

func (s *PacketSendStation) Ready() bool { return !s.buf.Full() }

func (s *PacketSendStation) TryPush(v instr.PacketSlotR) bool {
	if s.buf.Full() {
		return false
	}
	s.buf.Push(v)
	return true
}

func (s *PacketSendStation) Step(bus []instr.ResultEntry) (instr.PacketSlotR, bool) {
	for i := range s.buf.entries {
		e := &s.buf.entries[i].value
		snoopOperand(&e.Length, bus)
		snoopOperand(&e.Predicate, bus)
	}

	var zero instr.PacketSlotR
	for s.buf.Len() > 0 {
		head := s.buf.entries[0].value
		falsy, known := predicateFalse(head.Predicate)
		if !known {
			return zero, false
		}
		if !falsy {
			break
		}
		s.buf.remove(0)
	}
	if s.buf.Len() == 0 {
		return zero, false
	}
	head := s.buf.entries[0].value
	if !head.Length.Ready() {
		return zero, false
	}
	s.buf.remove(0)
	return head, true
}
