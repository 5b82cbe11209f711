package controlunit_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/controlunit"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/program"
)

var _ = Describe("Unit", func() {
	var mem *program.Memory

	BeforeEach(func() {
		mem = program.NewMemory(16)
	})

	It("steps the PC by one bundle per cycle with no control flow", func() {
		mem.Write(0, instr.Bundle{ALU: instr.ALUSlot{Op: instr.OpAdd, Dst: bamlet.NewBAddress(bamlet.ClassD, 1)}})
		mem.Write(1, instr.Bundle{Control: instr.ControlSlot{Op: instr.CtrlHalt}})

		u := controlunit.New(mem, 4, 1)
		Expect(u.PC()).To(Equal(uint32(0)))

		_, issued, err := u.Step()
		Expect(err).NotTo(HaveOccurred())
		Expect(issued).To(BeTrue())
		Expect(u.PC()).To(Equal(uint32(1)))
		Expect(u.Halted()).To(BeFalse())

		b, issued, err := u.Step()
		Expect(err).NotTo(HaveOccurred())
		Expect(issued).To(BeTrue())
		Expect(b.Control.Op).To(Equal(instr.CtrlHalt))
		Expect(u.Halted()).To(BeTrue())
	})

	It("repeats a LoopImmediate body the declared number of times", func() {
		mem.Write(0, instr.Bundle{Control: instr.ControlSlot{Op: instr.CtrlLoopImmediate, BodyLength: 1, IterImm: 3, Dst: 1}})
		mem.Write(1, instr.Bundle{ALU: instr.ALUSlot{Op: instr.OpAdd}})
		mem.Write(2, instr.Bundle{Control: instr.ControlSlot{Op: instr.CtrlHalt}})

		u := controlunit.New(mem, 4, 1)

		var pcs []uint32
		for i := 0; i < 5; i++ {
			pcs = append(pcs, u.PC())
			_, issued, err := u.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(issued).To(BeTrue())
			if u.Halted() {
				break
			}
		}

		// Loop header once, body three times, then the post-loop Halt.
		Expect(pcs).To(Equal([]uint32{0, 1, 1, 1, 2}))
	})

	It("blocks issuing a LoopLocal body until every PE has reported", func() {
		mem.Write(0, instr.Bundle{Control: instr.ControlSlot{Op: instr.CtrlLoopLocal, BodyLength: 1, Dst: 1}})
		mem.Write(1, instr.Bundle{ALU: instr.ALUSlot{Op: instr.OpAdd}})

		u := controlunit.New(mem, 4, 2)

		_, issued, err := u.Step() // issues the LoopLocal header itself.
		Expect(err).NotTo(HaveOccurred())
		Expect(issued).To(BeTrue())

		Expect(u.AwaitingIteration()).To(BeTrue())
		_, issued, err = u.Step()
		Expect(err).NotTo(HaveOccurred())
		Expect(issued).To(BeFalse())

		Expect(u.ReportIteration(0, 2)).To(Succeed())
		Expect(u.AwaitingIteration()).To(BeTrue(), "still waiting on PE 1")

		Expect(u.ReportIteration(1, 5)).To(Succeed())
		Expect(u.AwaitingIteration()).To(BeFalse())

		_, issued, err = u.Step()
		Expect(err).NotTo(HaveOccurred())
		Expect(issued).To(BeTrue())
		Expect(u.PC()).To(Equal(uint32(1)))
	})

	It("rejects loop nesting past nLoopLevels", func() {
		for i := uint32(0); i < 3; i++ {
			mem.Write(i, instr.Bundle{Control: instr.ControlSlot{Op: instr.CtrlLoopImmediate, BodyLength: 1, IterImm: 1}})
		}
		u := controlunit.New(mem, 2, 1)

		_, _, err := u.Step()
		Expect(err).NotTo(HaveOccurred())
		_, _, err = u.Step()
		Expect(err).NotTo(HaveOccurred())
		_, _, err = u.Step()
		Expect(err).To(HaveOccurred())
	})
})
