package deptracker

import (
	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/instr"
)

// regRef names one physical register: a class plus an in-class index.
type regRef struct {
	Class bamlet.RegClass
	Index int
}

// exempt reports whether this register is hardwired and therefore
// excluded from WAW/RAW/WAR hazard checks: A0 and P0, but never D0,
// whose writes carry the packet-emit side effect and must preserve
// order (§4.2).
func (r regRef) exempt() bool {
	return r.Index == 0 && (r.Class == bamlet.ClassA || r.Class == bamlet.ClassP)
}

func bRegRef(a bamlet.BAddress) regRef {
	return regRef{Class: a.Class(), Index: a.Index()}
}

// readsWrites returns the physical registers a given slot instance reads
// and writes, used by the tracker to evaluate hazards between candidate
// heads (§4.2). None-variant slots are never pushed, so callers need not
// handle them here.

func controlReadsWrites(s instr.ControlSlot) (reads, writes []regRef) {
	switch s.Op {
	case instr.CtrlLoopLocal:
		reads = append(reads, regRef{bamlet.ClassA, s.IterSrcA})
	case instr.CtrlLoopGlobal:
		reads = append(reads, regRef{bamlet.ClassG, s.IterSrcG})
	}
	switch s.Op {
	case instr.CtrlLoopImmediate, instr.CtrlLoopLocal, instr.CtrlLoopGlobal, instr.CtrlIncr:
		writes = append(writes, regRef{bamlet.ClassA, s.Dst})
	}
	return reads, writes
}

func predicateReadsWrites(s instr.PredicateSlot) (reads, writes []regRef) {
	reads = append(reads, regRef{bamlet.ClassA, s.Src1})
	if s.Src2.Mode == instr.SrcRegister {
		reads = append(reads, regRef{bamlet.ClassA, s.Src2.Reg})
	}
	reads = append(reads, regRef{bamlet.ClassP, s.BasePredicate})
	writes = append(writes, regRef{bamlet.ClassP, s.Dst})
	return reads, writes
}

func packetReadsWrites(s instr.PacketSlot) (reads, writes []regRef) {
	reads = append(reads, regRef{bamlet.ClassP, s.Predicate})
	switch s.Op {
	case instr.PacketReceive:
		writes = append(writes, bRegRef(s.LenDst))
	case instr.PacketGetWord:
		writes = append(writes, bRegRef(s.WordDst))
	}
	return reads, writes
}

func aluLiteReadsWrites(s instr.ALULiteSlot) (reads, writes []regRef) {
	reads = append(reads, regRef{bamlet.ClassA, s.Src1})
	if s.Src2.Mode == instr.SrcRegister {
		reads = append(reads, regRef{bamlet.ClassA, s.Src2.Reg})
	}
	reads = append(reads, regRef{bamlet.ClassP, s.Predicate})
	writes = append(writes, regRef{bamlet.ClassA, s.Dst})
	return reads, writes
}

func loadStoreReadsWrites(s instr.LoadStoreSlot) (reads, writes []regRef) {
	reads = append(reads, regRef{bamlet.ClassA, s.AddrBase})
	reads = append(reads, regRef{bamlet.ClassP, s.Predicate})
	switch s.Op {
	case instr.LSLoad:
		writes = append(writes, bRegRef(s.Dst))
	case instr.LSStore:
		reads = append(reads, bRegRef(s.Src))
	}
	return reads, writes
}

func aluReadsWrites(s instr.ALUSlot) (reads, writes []regRef) {
	reads = append(reads, bRegRef(s.Src1))
	if s.Src2.Mode == instr.SrcRegister {
		reads = append(reads, bRegRef(s.Src2.Reg))
	}
	reads = append(reads, regRef{bamlet.ClassP, s.Predicate})
	writes = append(writes, bRegRef(s.Dst))
	return reads, writes
}
