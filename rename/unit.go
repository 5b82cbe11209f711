package rename

import (
	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/instr"
)

// Controller is the subset of controlunit.Unit the rename stage needs:
// reporting a newly resolved loop iteration count back to the mesh
// controller (§4.3's last paragraph).
type Controller interface {
	ReportIteration(peIndex, count int) error
}

// Unit is one PE's rename stage: one register File plus the hooks it
// needs to report loop iteration counts and read mesh-wide G registers.
type Unit struct {
	PEIndex int
	File    *File

	// ReadGlobal resolves a LoopGlobal iteration-count source. G is
	// mesh-wide and carries no rename tags (§3.1), so by the time a
	// LoopGlobal control op reaches a PE its value is always already
	// settled; this is a direct lookup, never a tagged read.
	ReadGlobal func(index int) int32

	Controller Controller
}

// New builds a rename unit for one PE.
func New(peIndex int, file *File, controller Controller) *Unit {
	return &Unit{PEIndex: peIndex, File: file, Controller: controller}
}

// TryRename attempts to rename one Expanded bundle. It returns ok=false
// without mutating any register state if any slot's destination tag
// allocation would overflow the tag domain (§4.3: "If any slot signals
// a stall the entire bundle stalls — no slot advances, no tags are
// durably allocated"). Slots rename in the fixed chaining order
// instr.RenameOrder(), so a later slot observes the tag state any
// earlier slot of the same bundle just allocated.
func (u *Unit) TryRename(b instr.ExpandedBundle) (instr.ResolvingBundle, bool) {
	sess := newSession(u.File)
	var out instr.ResolvingBundle

	for _, kind := range instr.RenameOrder() {
		var ok bool
		switch kind {
		case instr.SlotControl:
			out.Control, ok = u.renameControl(sess, b.Control)
		case instr.SlotPredicate:
			out.Predicate, ok = u.renamePredicate(sess, b.Predicate)
		case instr.SlotPacket:
			out.Packet, ok = u.renamePacket(sess, b.Packet)
		case instr.SlotLoadStore:
			out.LoadStore, ok = u.renameLoadStore(sess, b.LoadStore)
		case instr.SlotALU:
			out.ALU, ok = u.renameALU(sess, b.ALU)
		case instr.SlotALULite:
			out.ALULite, ok = u.renameALULite(sess, b.ALULite)
		}
		if !ok {
			return instr.ResolvingBundle{}, false
		}
	}

	sess.commit()
	return out, true
}

func (u *Unit) renameControl(sess *session, s instr.ControlSlot) (instr.ControlSlotR, bool) {
	if s.IsNone() {
		return instr.ControlSlotR{}, true
	}

	out := instr.ControlSlotR{Op: s.Op, BodyLength: s.BodyLength, IterImm: s.IterImm, Dst: instr.TaggedDest{None: true}}

	switch s.Op {
	case instr.CtrlLoopLocal:
		src := sess.read(bamlet.ClassA, s.IterSrcA)
		out.IterSrc = operandFromSource(src)
		u.reportIteration(src)
	case instr.CtrlLoopGlobal:
		value := int32(0)
		if u.ReadGlobal != nil {
			value = u.ReadGlobal(s.IterSrcG)
		}
		out.IterSrc = instr.Operand{Immediate: true, Imm: value}
		if err := u.Controller.ReportIteration(u.PEIndex, int(value)); err != nil {
			panic("rename: " + err.Error())
		}
	}

	switch s.Op {
	case instr.CtrlLoopImmediate, instr.CtrlLoopLocal, instr.CtrlLoopGlobal, instr.CtrlIncr:
		tag, ok := sess.allocate(bamlet.ClassA, s.Dst)
		if !ok {
			return instr.ControlSlotR{}, false
		}
		out.Dst = taggedDest(bamlet.ClassA, s.Dst, tag)
	}

	return out, true
}

// reportIteration forwards a LoopLocal iteration count read by this PE
// to the mesh controller. Per §4.1's failure semantics, the source must
// already be resolved by construction; an unresolved read here is a
// fatal modeling error, not a runtime condition to recover from.
func (u *Unit) reportIteration(src instr.TaggedSource) {
	if !src.Resolved {
		panic("rename: LoopLocal iteration source read before it resolved (violates §4.1 program-order invariant)")
	}
	if err := u.Controller.ReportIteration(u.PEIndex, int(src.Value)); err != nil {
		panic("rename: " + err.Error())
	}
}

func (u *Unit) renamePredicate(sess *session, s instr.PredicateSlot) (instr.PredicateSlotR, bool) {
	if s.IsNone() {
		return instr.PredicateSlotR{}, true
	}

	out := instr.PredicateSlotR{
		Valid:         true,
		Op:            s.Op,
		Src1:          operandFromSource(sess.read(bamlet.ClassA, s.Src1)),
		Src2:          operandFromASrc(sess, s.Src2, bamlet.ClassA),
		BasePredicate: operandFromSource(sess.read(bamlet.ClassP, s.BasePredicate)),
	}

	tag, ok := sess.allocate(bamlet.ClassP, s.Dst)
	if !ok {
		return instr.PredicateSlotR{}, false
	}
	out.Dst = taggedDest(bamlet.ClassP, s.Dst, tag)
	return out, true
}

func (u *Unit) renamePacket(sess *session, s instr.PacketSlot) (instr.PacketSlotR, bool) {
	if s.IsNone() {
		return instr.PacketSlotR{}, true
	}

	out := instr.PacketSlotR{
		Op:            s.Op,
		Length:        instr.Operand{Immediate: true, Imm: int32(s.Length)},
		DestX:         s.DestX,
		DestY:         s.DestY,
		Channel:       s.Channel,
		Mode:          s.Mode,
		Forward:       s.Forward,
		ForwardDir:    s.ForwardDir,
		ForwardAppend: s.ForwardAppend,
		ForwardToggle: s.ForwardToggle,
		Predicate:     operandFromSource(sess.read(bamlet.ClassP, s.Predicate)),
		LenDst:        instr.TaggedDest{None: true},
		WordDst:       instr.TaggedDest{None: true},
	}

	switch s.Op {
	case instr.PacketReceive:
		tag, ok := sess.allocate(s.LenDst.Class(), s.LenDst.Index())
		if !ok {
			return instr.PacketSlotR{}, false
		}
		out.LenDst = taggedDest(s.LenDst.Class(), s.LenDst.Index(), tag)
	case instr.PacketGetWord:
		tag, ok := sess.allocate(s.WordDst.Class(), s.WordDst.Index())
		if !ok {
			return instr.PacketSlotR{}, false
		}
		out.WordDst = taggedDest(s.WordDst.Class(), s.WordDst.Index(), tag)
	}

	return out, true
}

func (u *Unit) renameALULite(sess *session, s instr.ALULiteSlot) (instr.ALULiteSlotR, bool) {
	if s.IsNone() {
		return instr.ALULiteSlotR{}, true
	}

	out := instr.ALULiteSlotR{
		Valid:     true,
		Op:        s.Op,
		Src1:      operandFromSource(sess.read(bamlet.ClassA, s.Src1)),
		Src2:      operandFromASrc(sess, s.Src2, bamlet.ClassA),
		Predicate: operandFromSource(sess.read(bamlet.ClassP, s.Predicate)),
	}

	tag, ok := sess.allocate(bamlet.ClassA, s.Dst)
	if !ok {
		return instr.ALULiteSlotR{}, false
	}
	out.Dst = taggedDest(bamlet.ClassA, s.Dst, tag)
	return out, true
}

func (u *Unit) renameLoadStore(sess *session, s instr.LoadStoreSlot) (instr.LoadStoreSlotR, bool) {
	if s.IsNone() {
		return instr.LoadStoreSlotR{}, true
	}

	out := instr.LoadStoreSlotR{
		Valid:     true,
		Op:        s.Op,
		Addr:      operandFromSource(sess.read(bamlet.ClassA, s.AddrBase)),
		AddrImm:   s.AddrImm,
		Predicate: operandFromSource(sess.read(bamlet.ClassP, s.Predicate)),
		Dst:       instr.TaggedDest{None: true},
	}

	switch s.Op {
	case instr.LSLoad:
		tag, ok := sess.allocate(s.Dst.Class(), s.Dst.Index())
		if !ok {
			return instr.LoadStoreSlotR{}, false
		}
		out.Dst = taggedDest(s.Dst.Class(), s.Dst.Index(), tag)
	case instr.LSStore:
		out.Src = operandFromSource(sess.read(s.Src.Class(), s.Src.Index()))
	}

	return out, true
}

func (u *Unit) renameALU(sess *session, s instr.ALUSlot) (instr.ALUSlotR, bool) {
	if s.IsNone() {
		return instr.ALUSlotR{}, true
	}

	out := instr.ALUSlotR{
		Valid:     true,
		Op:        s.Op,
		Src1:      operandFromSource(sess.read(s.Src1.Class(), s.Src1.Index())),
		Src2:      operandFromBSrc(sess, s.Src2),
		Predicate: operandFromSource(sess.read(bamlet.ClassP, s.Predicate)),
	}

	tag, ok := sess.allocate(s.Dst.Class(), s.Dst.Index())
	if !ok {
		return instr.ALUSlotR{}, false
	}
	out.Dst = taggedDest(s.Dst.Class(), s.Dst.Index(), tag)
	return out, true
}
