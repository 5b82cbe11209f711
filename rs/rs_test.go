package rs_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/rs"
)

func imm(v int32) instr.Operand {
	return instr.Operand{Immediate: true, Imm: v}
}

func tagged(class bamlet.RegClass, index int, tag bamlet.Tag) instr.Operand {
	return instr.Operand{Source: instr.TaggedSource{Class: class, Index: index, Tag: tag}}
}

func resolve(class bamlet.RegClass, index int, tag bamlet.Tag, value int32) instr.ResultEntry {
	return instr.ResultEntry{Class: class, Index: index, Tag: tag, Value: value}
}

var _ = Describe("GenericStation", func() {
	It("issues immediately when every source is already resolved", func() {
		s := rs.NewALUStation(4)
		Expect(s.TryPush(instr.ALUSlotR{
			Valid: true, Src1: imm(1), Src2: imm(2), Predicate: imm(1),
		})).To(BeTrue())

		out, ok := s.Step(nil)
		Expect(ok).To(BeTrue())
		Expect(out.Src1.Value()).To(Equal(int32(1)))
	})

	It("holds a slot until the result bus resolves its source, then issues it", func() {
		s := rs.NewALUStation(4)
		s.TryPush(instr.ALUSlotR{
			Valid: true, Src1: tagged(bamlet.ClassD, 3, 5), Src2: imm(0), Predicate: imm(1),
		})

		_, ok := s.Step(nil)
		Expect(ok).To(BeFalse())

		_, ok = s.Step([]instr.ResultEntry{resolve(bamlet.ClassD, 3, 5, 42)})
		Expect(ok).To(BeTrue())
	})

	It("breaks ties between eligible slots by issuing the oldest first", func() {
		s := rs.NewALUStation(4)
		s.TryPush(instr.ALUSlotR{Valid: true, Src1: imm(10), Src2: imm(0), Predicate: imm(1)})
		s.TryPush(instr.ALUSlotR{Valid: true, Src1: imm(20), Src2: imm(0), Predicate: imm(1)})

		out, ok := s.Step(nil)
		Expect(ok).To(BeTrue())
		Expect(out.Src1.Value()).To(Equal(int32(10)))
	})

	It("reports Full once every slot is occupied", func() {
		s := rs.NewALULiteStation(1)
		Expect(s.Ready()).To(BeTrue())
		s.TryPush(instr.ALULiteSlotR{Valid: true, Src1: imm(0), Src2: imm(0), Predicate: imm(1)})
		Expect(s.Ready()).To(BeFalse())
		Expect(s.TryPush(instr.ALULiteSlotR{Valid: true})).To(BeFalse())
	})

	It("never drops a slot on a resolved-false predicate, carrying it through instead", func() {
		s := rs.NewPredicateStation(4)
		s.TryPush(instr.PredicateSlotR{
			Valid: true, Src1: imm(1), Src2: imm(1), BasePredicate: imm(0),
		})
		out, ok := s.Step(nil)
		Expect(ok).To(BeTrue())
		Expect(out.BasePredicate.Value()).To(Equal(int32(0)))
	})
})

var _ = Describe("LoadStoreStation", func() {
	It("issues a load whose address is already resolved", func() {
		s := rs.NewLoadStoreStation(4)
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSLoad, Addr: imm(100), Predicate: imm(1),
		})
		_, ok := s.Step(nil)
		Expect(ok).To(BeTrue())
	})

	It("blocks a load behind an older store with an unresolved address", func() {
		s := rs.NewLoadStoreStation(4)
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSStore, Addr: tagged(bamlet.ClassA, 1, 0),
			Src: imm(0), Predicate: imm(1),
		})
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSLoad, Addr: imm(100), Predicate: imm(1),
		})

		_, ok := s.Step(nil)
		Expect(ok).To(BeFalse())

		_, ok = s.Step([]instr.ResultEntry{resolve(bamlet.ClassA, 1, 0, 100)})
		Expect(ok).To(BeTrue())
	})

	It("blocks a load behind an older store with a matching resolved address", func() {
		s := rs.NewLoadStoreStation(4)
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSStore, Addr: imm(100), Src: imm(0), Predicate: imm(1),
		})
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSLoad, Addr: imm(100), Predicate: imm(1),
		})

		_, ok := s.Step(nil)
		Expect(ok).To(BeFalse())
	})

	It("does not block a load behind an older store to a different resolved address", func() {
		s := rs.NewLoadStoreStation(4)
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSStore, Addr: imm(200), Src: imm(0), Predicate: imm(1),
		})
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSLoad, Addr: imm(100), Predicate: imm(1),
		})

		out, ok := s.Step(nil)
		Expect(ok).To(BeTrue())
		Expect(out.Op).To(Equal(instr.LSLoad))
	})

	It("blocks a store behind an older load with an unresolved address", func() {
		s := rs.NewLoadStoreStation(4)
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSLoad, Addr: tagged(bamlet.ClassA, 1, 0), Predicate: imm(1),
		})
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSStore, Addr: imm(100), Src: imm(0), Predicate: imm(1),
		})

		_, ok := s.Step(nil)
		Expect(ok).To(BeFalse())

		_, ok = s.Step([]instr.ResultEntry{resolve(bamlet.ClassA, 1, 0, 999)})
		Expect(ok).To(BeTrue())
	})

	It("lets a younger load issue ahead of an older load whose address is unresolved", func() {
		s := rs.NewLoadStoreStation(4)
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSLoad, Addr: tagged(bamlet.ClassA, 1, 0), Predicate: imm(1),
		})
		s.TryPush(instr.LoadStoreSlotR{
			Valid: true, Op: instr.LSLoad, Addr: imm(5), Predicate: imm(1),
		})

		out, ok := s.Step(nil)
		Expect(ok).To(BeTrue())
		Expect(out.Addr.Value()).To(Equal(int32(5)))
	})
})

var _ = Describe("PacketReceiveStation", func() {
	It("issues only the head slot, never a younger one out of order", func() {
		s := rs.NewPacketReceiveStation(4)
		s.TryPush(instr.PacketSlotR{Op: instr.PacketGetWord, Predicate: tagged(bamlet.ClassP, 2, 0)})
		s.TryPush(instr.PacketSlotR{Op: instr.PacketGetWord, Predicate: imm(1)})

		_, ok := s.Step(nil)
		Expect(ok).To(BeFalse())

		out, ok := s.Step([]instr.ResultEntry{resolve(bamlet.ClassP, 2, 0, 1)})
		Expect(ok).To(BeTrue())
		Expect(out.Predicate.Value()).To(Equal(int32(1)))

		out, ok = s.Step(nil)
		Expect(ok).To(BeTrue())
	})

	It("carries a resolved-false predicate through instead of masking it", func() {
		s := rs.NewPacketReceiveStation(4)
		s.TryPush(instr.PacketSlotR{Op: instr.PacketGetWord, Predicate: imm(0)})

		out, ok := s.Step(nil)
		Expect(ok).To(BeTrue())
		Expect(out.Predicate.Value()).To(Equal(int32(0)))
	})
})

var _ = Describe("PacketSendStation", func() {
	It("issues the head slot once its length resolves", func() {
		s := rs.NewPacketSendStation(4)
		s.TryPush(instr.PacketSlotR{Op: instr.PacketSend, Length: imm(3), Predicate: imm(1)})

		out, ok := s.Step(nil)
		Expect(ok).To(BeTrue())
		Expect(out.Length.Value()).To(Equal(int32(3)))
	})

	It("drops a resolved-false head rather than forwarding it to the functional unit", func() {
		s := rs.NewPacketSendStation(4)
		s.TryPush(instr.PacketSlotR{Op: instr.PacketSend, Length: imm(3), Predicate: imm(0)})
		s.TryPush(instr.PacketSlotR{Op: instr.PacketSend, Length: imm(5), Predicate: imm(1)})

		out, ok := s.Step(nil)
		Expect(ok).To(BeTrue())
		Expect(out.Length.Value()).To(Equal(int32(5)))
	})

	It("waits for an unresolved head predicate before deciding whether to mask it", func() {
		s := rs.NewPacketSendStation(4)
		s.TryPush(instr.PacketSlotR{
			Op: instr.PacketSend, Length: imm(3), Predicate: tagged(bamlet.ClassP, 1, 0),
		})
		s.TryPush(instr.PacketSlotR{Op: instr.PacketSend, Length: imm(5), Predicate: imm(1)})

		_, ok := s.Step(nil)
		Expect(ok).To(BeFalse())

		out, ok := s.Step([]instr.ResultEntry{resolve(bamlet.ClassP, 1, 0, 1)})
		Expect(ok).To(BeTrue())
		Expect(out.Length.Value()).To(Equal(int32(3)))
	})
})
