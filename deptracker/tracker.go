package deptracker

import (
	"github.com/sarchlab/bamlet/instr"
)

// Tracker is the per-slot shuffling buffer (§4.2). One instance sits
// between the control unit and the broadcast to every PE.
type Tracker struct {
	age uint64

	control   *fifo[instr.ControlSlot]
	predicate *fifo[instr.PredicateSlot]
	packet    *fifo[instr.PacketSlot]
	aluLite   *fifo[instr.ALULiteSlot]
	loadStore *fifo[instr.LoadStoreSlot]
	alu       *fifo[instr.ALUSlot]
}

// New builds a tracker whose six FIFOs each hold up to depth entries.
// depth <= 0 means unbounded.
func New(depth int) *Tracker {
	return &Tracker{
		control:   newFIFO[instr.ControlSlot](depth),
		predicate: newFIFO[instr.PredicateSlot](depth),
		packet:    newFIFO[instr.PacketSlot](depth),
		aluLite:   newFIFO[instr.ALULiteSlot](depth),
		loadStore: newFIFO[instr.LoadStoreSlot](depth),
		alu:       newFIFO[instr.ALUSlot](depth),
	}
}

// TryPush ingests one Expanded bundle from the controller. None-variant
// slots are dropped immediately rather than buffered (§4.2). It returns
// false without mutating any FIFO if any non-None slot's target FIFO is
// already full, in which case the controller must hold the bundle and
// retry next cycle (§5).
func (t *Tracker) TryPush(b instr.ExpandedBundle) bool {
	needControl := !b.Control.IsNone()
	needPredicate := !b.Predicate.IsNone()
	needPacket := !b.Packet.IsNone()
	needALULite := !b.ALULite.IsNone()
	needLoadStore := !b.LoadStore.IsNone()
	needALU := !b.ALU.IsNone()

	if needControl && t.control.capacity > 0 && len(t.control.entries) >= t.control.capacity {
		return false
	}
	if needPredicate && t.predicate.capacity > 0 && len(t.predicate.entries) >= t.predicate.capacity {
		return false
	}
	if needPacket && t.packet.capacity > 0 && len(t.packet.entries) >= t.packet.capacity {
		return false
	}
	if needALULite && t.aluLite.capacity > 0 && len(t.aluLite.entries) >= t.aluLite.capacity {
		return false
	}
	if needLoadStore && t.loadStore.capacity > 0 && len(t.loadStore.entries) >= t.loadStore.capacity {
		return false
	}
	if needALU && t.alu.capacity > 0 && len(t.alu.entries) >= t.alu.capacity {
		return false
	}

	age := t.age
	t.age++
	if needControl {
		t.control.TryPush(age, int(instr.SlotControl), b.Control)
	}
	if needPredicate {
		t.predicate.TryPush(age, int(instr.SlotPredicate), b.Predicate)
	}
	if needPacket {
		t.packet.TryPush(age, int(instr.SlotPacket), b.Packet)
	}
	if needALULite {
		t.aluLite.TryPush(age, int(instr.SlotALULite), b.ALULite)
	}
	if needLoadStore {
		t.loadStore.TryPush(age, int(instr.SlotLoadStore), b.LoadStore)
	}
	if needALU {
		t.alu.TryPush(age, int(instr.SlotALU), b.ALU)
	}
	return true
}

// headInfo is a FIFO head's hazard-relevant summary, collected uniformly
// across slot kinds so the fixed-point resolver in TryEmit can treat
// them generically.
type headInfo struct {
	kind      instr.SlotKind
	age       uint64
	slotIndex int
	reads     []regRef
	writes    []regRef
}

// TryEmit attempts to emit one bundle by forwarding each FIFO's head or
// substituting None, per the hazard rules in §4.2. It returns false (no
// bundle emitted) only when every FIFO is empty; otherwise it always
// reaches a consistent decision, because holding back candidates is
// always a valid resolution.
func (t *Tracker) TryEmit() (instr.ExpandedBundle, bool) {
	var heads []headInfo

	if !t.control.Empty() {
		h := t.control.Head()
		reads, writes := controlReadsWrites(h.Value)
		heads = append(heads, headInfo{instr.SlotControl, h.Age, h.SlotIndex, reads, writes})
	}
	if !t.predicate.Empty() {
		h := t.predicate.Head()
		reads, writes := predicateReadsWrites(h.Value)
		heads = append(heads, headInfo{instr.SlotPredicate, h.Age, h.SlotIndex, reads, writes})
	}
	if !t.packet.Empty() {
		h := t.packet.Head()
		reads, writes := packetReadsWrites(h.Value)
		heads = append(heads, headInfo{instr.SlotPacket, h.Age, h.SlotIndex, reads, writes})
	}
	if !t.aluLite.Empty() {
		h := t.aluLite.Head()
		reads, writes := aluLiteReadsWrites(h.Value)
		heads = append(heads, headInfo{instr.SlotALULite, h.Age, h.SlotIndex, reads, writes})
	}
	if !t.loadStore.Empty() {
		h := t.loadStore.Head()
		reads, writes := loadStoreReadsWrites(h.Value)
		heads = append(heads, headInfo{instr.SlotLoadStore, h.Age, h.SlotIndex, reads, writes})
	}
	if !t.alu.Empty() {
		h := t.alu.Head()
		reads, writes := aluReadsWrites(h.Value)
		heads = append(heads, headInfo{instr.SlotALU, h.Age, h.SlotIndex, reads, writes})
	}

	if len(heads) == 0 {
		return instr.ExpandedBundle{}, false
	}

	decision := make(map[instr.SlotKind]bool, len(heads))
	for _, h := range heads {
		decision[h.kind] = true
	}

	for changed := true; changed; {
		changed = false
		for i := range heads {
			for j := i + 1; j < len(heads); j++ {
				a, b := heads[i], heads[j]
				if !decision[a.kind] || !decision[b.kind] {
					continue
				}
				earlier, later := a, b
				if later.age < earlier.age || (later.age == earlier.age && later.slotIndex < earlier.slotIndex) {
					earlier, later = b, a
				}
				if mustHoldLater(earlier, later) {
					decision[later.kind] = false
					changed = true
				}
			}
		}
	}

	var out instr.ExpandedBundle
	if decision[instr.SlotControl] {
		out.Control = instr.ControlSlot(t.control.Head().Value)
		t.control.PopHead()
	}
	if decision[instr.SlotPredicate] {
		out.Predicate = t.predicate.Head().Value
		t.predicate.PopHead()
	}
	if decision[instr.SlotPacket] {
		out.Packet = t.packet.Head().Value
		t.packet.PopHead()
	}
	if decision[instr.SlotALULite] {
		out.ALULite = t.aluLite.Head().Value
		t.aluLite.PopHead()
	}
	if decision[instr.SlotLoadStore] {
		out.LoadStore = t.loadStore.Head().Value
		t.loadStore.PopHead()
	}
	if decision[instr.SlotALU] {
		out.ALU = t.alu.Head().Value
		t.alu.PopHead()
	}

	return out, true
}

// mustHoldLater applies the WAW/RAW/WAR rules of §4.2 to an ordered
// pair, reporting whether the later (younger) candidate must be held
// back this cycle.
func mustHoldLater(earlier, later headInfo) bool {
	sameAge := earlier.age == later.age

	// WAW: same physical register in both write sets.
	for _, w1 := range earlier.writes {
		if w1.exempt() {
			continue
		}
		for _, w2 := range later.writes {
			if w2.exempt() {
				continue
			}
			if w1 == w2 {
				return true
			}
		}
	}

	// RAW: later reads what earlier writes.
	for _, r := range later.reads {
		if r.exempt() {
			continue
		}
		for _, w := range earlier.writes {
			if w.exempt() {
				continue
			}
			if r == w {
				return true
			}
		}
	}

	// WAR: later writes what earlier reads. Exempt when both slots come
	// from the same original bundle (sameAge): the tie-break above
	// already guarantees earlier's slot index precedes later's, so the
	// bundle-local read-before-write invariant holds without delay.
	if !sameAge {
		for _, w := range later.writes {
			if w.exempt() {
				continue
			}
			for _, r := range earlier.reads {
				if r.exempt() {
					continue
				}
				if w == r {
					return true
				}
			}
		}
	}

	return false
}
