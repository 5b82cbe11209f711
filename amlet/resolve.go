package amlet

import "github.com/sarchlab/bamlet/instr"

// The Resolving-form slots a reservation station hands back from Step
// still carry tagged operands; a functional unit wants concrete int32s.
// These helpers do that last narrowing, the one step of §4.4 that
// neither rs nor fu owns since it is purely a shape conversion at the
// boundary between them.

func toALUResolved(v instr.ALUSlotR) instr.ALUResolved {
	return instr.ALUResolved{
		Op: v.Op, Dst: v.Dst,
		Src1: v.Src1.Value(), Src2: v.Src2.Value(),
		Predicate: v.Predicate.Value() != 0,
	}
}

func toALULiteResolved(v instr.ALULiteSlotR) instr.ALULiteResolved {
	return instr.ALULiteResolved{
		Op: v.Op, Dst: v.Dst,
		Src1: v.Src1.Value(), Src2: v.Src2.Value(),
		Predicate: v.Predicate.Value() != 0,
	}
}

func toPredicateResolved(v instr.PredicateSlotR) instr.PredicateResolved {
	return instr.PredicateResolved{
		Op: v.Op, Dst: v.Dst,
		Src1: v.Src1.Value(), Src2: v.Src2.Value(),
		BasePredicate: v.BasePredicate.Value() != 0,
	}
}

// toLoadStoreResolved folds AddrBase and AddrImm into the one concrete
// address a LoadStoreResolved carries; the Resolving form keeps them
// separate only because AddrImm needs no rename tag of its own.
func toLoadStoreResolved(v instr.LoadStoreSlotR) instr.LoadStoreResolved {
	return instr.LoadStoreResolved{
		Op:        v.Op,
		Addr:      v.Addr.Value() + v.AddrImm,
		Dst:       v.Dst,
		Src:       v.Src.Value(),
		Predicate: v.Predicate.Value() != 0,
	}
}

func toPacketSendResolved(v instr.PacketSlotR) instr.PacketSendResolved {
	return instr.PacketSendResolved{
		Length: v.Length.Value(), DestX: v.DestX, DestY: v.DestY, Channel: v.Channel, Mode: v.Mode,
	}
}

func toPacketReceiveResolved(v instr.PacketSlotR) instr.PacketReceiveResolved {
	return instr.PacketReceiveResolved{
		Op:            v.Op,
		LenDst:        v.LenDst,
		Forward:       v.Forward,
		ForwardDir:    v.ForwardDir,
		ForwardAppend: v.ForwardAppend,
		ForwardToggle: v.ForwardToggle,
		WordDst:       v.WordDst,
		Predicate:     v.Predicate.Value() != 0,
	}
}
