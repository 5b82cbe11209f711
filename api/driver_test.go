package api_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bamlet/api"
	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/config"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/util"
)

var aZero = bamlet.NewBAddress(bamlet.ClassA, 0)

func buildDriver(cfg config.ParamSet) api.Driver {
	return api.DriverBuilder{}.
		WithEngine(sim.NewSerialEngine()).
		WithFreq(1 * sim.GHz).
		WithConfig(cfg).
		Build("driver-test")
}

var _ = Describe("Driver", func() {
	It("maps a program onto a tile and runs it to completion", func() {
		cfg := config.Default()
		cfg.Rows, cfg.Columns = 1, 1

		d := buildDriver(cfg)

		d.MapProgram([2]int{0, 0}, 0, []instr.Bundle{
			{ALU: instr.ALUSlot{
				Valid: true, Op: instr.OpAdd,
				Dst: bamlet.NewBAddress(bamlet.ClassD, 1), Src1: aZero,
				Src2: instr.BSrc{Mode: instr.SrcImmediate, Imm: 41},
			}},
			{Control: instr.ControlSlot{Op: instr.CtrlHalt}},
		})
		d.Start([2]int{0, 0}, 0)

		Expect(d.Run(200)).To(Succeed())
		Expect(d.Halted()).To(BeTrue())
		Expect(d.ReadRegister([2]int{0, 0}, bamlet.ClassD, 1)).To(Equal(int32(41)))
	})

	It("seeds per-tile registers so identical programs diverge", func() {
		cfg := config.Default()
		cfg.Rows, cfg.Columns = 1, 2

		d := buildDriver(cfg)

		program := []instr.Bundle{
			{ALU: instr.ALUSlot{
				Valid: true, Op: instr.OpAdd,
				Dst: bamlet.NewBAddress(bamlet.ClassD, 1), Src1: bamlet.NewBAddress(bamlet.ClassA, 1),
				Src2: instr.BSrc{Mode: instr.SrcImmediate, Imm: 1},
			}},
			{Control: instr.ControlSlot{Op: instr.CtrlHalt}},
		}
		d.MapProgram([2]int{0, 0}, 0, program)
		d.MapProgram([2]int{0, 1}, 0, program)

		d.SeedRegister([2]int{0, 0}, bamlet.ClassA, 1, 10)
		d.SeedRegister([2]int{0, 1}, bamlet.ClassA, 1, 20)

		d.Start([2]int{0, 0}, 0)
		d.Start([2]int{0, 1}, 0)

		Expect(d.Run(200)).To(Succeed())
		Expect(d.ReadRegister([2]int{0, 0}, bamlet.ClassD, 1)).To(Equal(int32(11)))
		Expect(d.ReadRegister([2]int{0, 1}, bamlet.ClassD, 1)).To(Equal(int32(21)))
	})

	It("feeds a data packet a running program drains", func() {
		cfg := config.Default()
		cfg.Rows, cfg.Columns = 1, 1

		d := buildDriver(cfg)

		d.MapProgram([2]int{0, 0}, 0, []instr.Bundle{
			{Packet: instr.PacketSlot{Op: instr.PacketReceive, LenDst: bamlet.NewBAddress(bamlet.ClassA, 1)}},
			{Packet: instr.PacketSlot{Op: instr.PacketGetWord, WordDst: bamlet.NewBAddress(bamlet.ClassD, 1)}},
			{Packet: instr.PacketSlot{Op: instr.PacketGetWord, WordDst: bamlet.NewBAddress(bamlet.ClassD, 2)}},
			{Packet: instr.PacketSlot{Op: instr.PacketGetWord, WordDst: bamlet.NewBAddress(bamlet.ClassD, 3)}},
			{Control: instr.ControlSlot{Op: instr.CtrlHalt}},
		})
		d.Start([2]int{0, 0}, 0)

		gen := valgen.MakeIncreasingGen(6)
		words := valgen.Take(3, gen)
		data := make([]uint32, len(words))
		for i, w := range words {
			data[i] = uint32(w)
		}
		d.FeedIn([2]int{0, 0}, data)

		Expect(d.Run(200)).To(Succeed())
		Expect(d.ReadRegister([2]int{0, 0}, bamlet.ClassA, 1)).To(Equal(int32(3)))
		Expect(d.ReadRegister([2]int{0, 0}, bamlet.ClassD, 1)).To(Equal(int32(7)))
		Expect(d.ReadRegister([2]int{0, 0}, bamlet.ClassD, 2)).To(Equal(int32(8)))
		Expect(d.ReadRegister([2]int{0, 0}, bamlet.ClassD, 3)).To(Equal(int32(9)))
	})
})
