package fu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/fu"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/program"
)

func dst(class bamlet.RegClass, index int, tag bamlet.Tag) instr.TaggedDest {
	return instr.TaggedDest{Class: class, Index: index, Tag: tag}
}

var _ = Describe("ALUUnit", func() {
	It("computes Add and delivers the result after its latency", func() {
		u := fu.NewALUUnit(2)
		u.Issue(instr.ALUResolved{Op: instr.OpAdd, Dst: dst(bamlet.ClassD, 1, 0), Src1: 3, Src2: 4, Predicate: true})

		Expect(u.Tick()).To(BeEmpty())
		out := u.Tick()
		Expect(out).To(HaveLen(1))
		Expect(out[0].Value).To(Equal(int32(7)))
		Expect(out[0].Tag).To(Equal(bamlet.Tag(0)))
	})

	It("passes Src1 through unchanged on a false predicate instead of computing", func() {
		u := fu.NewALUUnit(1)
		u.Issue(instr.ALUResolved{Op: instr.OpAdd, Dst: dst(bamlet.ClassD, 1, 0), Src1: 9, Src2: 4, Predicate: false})
		out := u.Tick()
		Expect(out[0].Value).To(Equal(int32(9)))
	})

	It("chains MulAccInit then MulAcc through a running accumulator", func() {
		u := fu.NewALUUnit(1)
		u.Issue(instr.ALUResolved{Op: instr.OpMulAccInit, Dst: dst(bamlet.ClassD, 1, 0), Src1: 2, Src2: 3, Predicate: true})
		first := u.Tick()
		Expect(first[0].Value).To(Equal(int32(6)))

		u.Issue(instr.ALUResolved{Op: instr.OpMulAcc, Dst: dst(bamlet.ClassD, 1, 1), Src1: 1, Src2: 4, Predicate: true})
		second := u.Tick()
		Expect(second[0].Value).To(Equal(int32(10)))
	})
})

var _ = Describe("PredicateUnit", func() {
	It("ANDs the comparison result with the base predicate", func() {
		u := fu.NewPredicateUnit(1)
		u.Issue(instr.PredicateResolved{Op: instr.CmpLt, Dst: dst(bamlet.ClassP, 1, 0), Src1: 1, Src2: 2, BasePredicate: true})
		Expect(u.Tick()[0].Value).To(Equal(int32(1)))
	})

	It("reads false once the base predicate is false, regardless of the comparison", func() {
		u := fu.NewPredicateUnit(1)
		u.Issue(instr.PredicateResolved{Op: instr.CmpLt, Dst: dst(bamlet.ClassP, 1, 0), Src1: 1, Src2: 2, BasePredicate: false})
		Expect(u.Tick()[0].Value).To(Equal(int32(0)))
	})
})

var _ = Describe("LoadStoreUnit", func() {
	It("stores combinationally and loads it back one cycle later", func() {
		u := fu.NewLoadStoreUnit(16)
		u.Issue(instr.LoadStoreResolved{Op: instr.LSStore, Addr: 4, Src: 99, Predicate: true})

		u.Issue(instr.LoadStoreResolved{Op: instr.LSLoad, Addr: 4, Dst: dst(bamlet.ClassD, 2, 0), Predicate: true})
		Expect(u.Tick()).To(HaveLen(1))
	})

	It("skips the memory access on a false predicate but still drains the load's tag", func() {
		u := fu.NewLoadStoreUnit(16)
		u.Issue(instr.LoadStoreResolved{Op: instr.LSStore, Addr: 4, Src: 99, Predicate: true})
		u.Issue(instr.LoadStoreResolved{Op: instr.LSLoad, Addr: 4, Dst: dst(bamlet.ClassD, 2, 0), Predicate: false})
		out := u.Tick()
		Expect(out).To(HaveLen(1))
		Expect(out[0].Value).To(Equal(int32(0)))
	})
})

var _ = Describe("PacketSendUnit", func() {
	It("holds the header until D0 writes satisfy its length, then emits the packet", func() {
		u := fu.NewPacketSendUnit()
		u.Issue(instr.PacketSendResolved{Length: 2, DestX: 1, DestY: 2, Mode: bamlet.ModeNormal})

		Expect(u.ObserveResultBus([]instr.ResultEntry{
			{Class: bamlet.ClassD, Index: 0, Value: 11},
		})).To(BeEmpty())

		packets := u.ObserveResultBus([]instr.ResultEntry{
			{Class: bamlet.ClassD, Index: 0, Value: 22},
		})
		Expect(packets).To(HaveLen(1))
		Expect(packets[0].Payload).To(Equal([]uint32{11, 22}))
		Expect(packets[0].Header.XDest).To(Equal(uint32(1)))
	})

	It("ignores D0 writes once no header is pending", func() {
		u := fu.NewPacketSendUnit()
		Expect(u.ObserveResultBus([]instr.ResultEntry{{Class: bamlet.ClassD, Index: 0, Value: 1}})).To(BeEmpty())
	})
})

var _ = Describe("PacketReceiveUnit", func() {
	It("writes the header's length word to LenDst on Receive", func() {
		u := fu.NewPacketReceiveUnit()
		r := instr.PacketReceiveResolved{Op: instr.PacketReceive, LenDst: dst(bamlet.ClassA, 1, 0), Predicate: true}
		results, forward, _, consumed := u.Issue(r, bamlet.LinkWord{Data: 7, IsHeader: true}, true)
		Expect(consumed).To(BeTrue())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Value).To(Equal(int32(7)))
		Expect(forward).To(BeNil())
	})

	It("forwards the word onward when the instruction requests it", func() {
		u := fu.NewPacketReceiveUnit()
		r := instr.PacketReceiveResolved{
			Op: instr.PacketGetWord, WordDst: dst(bamlet.ClassD, 1, 0),
			Predicate: true, Forward: true, ForwardDir: bamlet.East,
		}
		_, forward, directive, consumed := u.Issue(r, bamlet.LinkWord{Data: 42}, true)
		Expect(consumed).To(BeTrue())
		Expect(forward.Data).To(Equal(uint32(42)))
		Expect(directive.Dir).To(Equal(bamlet.East))
	})

	It("drains both tags on a masked-false instruction without consuming the word", func() {
		u := fu.NewPacketReceiveUnit()
		r := instr.PacketReceiveResolved{
			Op: instr.PacketReceive, LenDst: dst(bamlet.ClassA, 1, 0), Predicate: false,
		}
		results, forward, _, consumed := u.Issue(r, bamlet.LinkWord{Data: 7, IsHeader: true}, true)
		Expect(consumed).To(BeFalse())
		Expect(forward).To(BeNil())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Force).To(BeTrue())
	})
})

var _ = Describe("CommandUnit", func() {
	It("applies a Start command by jumping the control unit's PC", func() {
		target := &fakeTarget{}
		cu := fu.NewCommandUnit(program.NewMemory(16), bamlet.CommandWidths{InstrAddrWidth: 10, RegIndexWidth: 5}, target)
		word := bamlet.EncodeFirstWord(bamlet.CmdStart, 5)
		Expect(cu.Apply([]uint32{word})).To(Succeed())
		Expect(target.pc).To(Equal(uint32(5)))
	})

	It("applies a RegisterWrite command against the target", func() {
		target := &fakeTarget{}
		widths := bamlet.CommandWidths{InstrAddrWidth: 10, RegIndexWidth: 5}
		cu := fu.NewCommandUnit(program.NewMemory(16), widths, target)
		word := bamlet.EncodeFirstWord(bamlet.CmdRegisterWrite, bamlet.RegisterWriteOperand(bamlet.ClassG, 3, widths))
		Expect(cu.Apply([]uint32{word, 77})).To(Succeed())
		Expect(target.class).To(Equal(bamlet.ClassG))
		Expect(target.index).To(Equal(3))
		Expect(target.value).To(Equal(int32(77)))
	})
})

type fakeTarget struct {
	pc    uint32
	class bamlet.RegClass
	index int
	value int32
}

func (t *fakeTarget) SetPC(addr uint32) { t.pc = addr }
func (t *fakeTarget) WriteRegister(class bamlet.RegClass, index int, value int32) {
	t.class, t.index, t.value = class, index, value
}
