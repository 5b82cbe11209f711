package amlet_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bamlet/amlet"
	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/config"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/program"
	"github.com/sarchlab/bamlet/switchnet"
)

type fakeController struct{ pc uint32 }

func (f *fakeController) ReportIteration(peIndex, count int) error { return nil }
func (f *fakeController) SetPC(addr uint32)                        { f.pc = addr }

func allNeighborsReady() [4]bool { return [4]bool{true, true, true, true} }

func newTestPE() *amlet.PE {
	cfg := config.Default()
	mem := program.NewMemory(64)
	return amlet.New(cfg, switchnet.Coord{X: 0, Y: 0}, 0, &fakeController{}, amlet.NewGlobalFile(cfg.NGRegs), mem)
}

func findResult(entries []instr.ResultEntry, class bamlet.RegClass, index int) (instr.ResultEntry, bool) {
	for _, e := range entries {
		if e.Class == class && e.Index == index {
			return e, true
		}
	}
	return instr.ResultEntry{}, false
}

var _ = Describe("PE ALU issue", func() {
	It("renames, issues, and resolves an Add within the reservation-station pipeline", func() {
		pe := newTestPE()

		bundle := instr.ExpandedBundle{
			ALU: instr.ALUSlot{
				Valid: true, Op: instr.OpAdd,
				Dst:  bamlet.NewBAddress(bamlet.ClassD, 1),
				Src1: bamlet.NewBAddress(bamlet.ClassA, 0),
				Src2: instr.BSrc{Mode: instr.SrcImmediate, Imm: 5},
			},
		}
		Expect(pe.TryIssue(bundle, 0)).To(BeTrue())

		results, toNeighbors, err := pe.Tick(nil, allNeighborsReady())
		Expect(err).NotTo(HaveOccurred())
		for _, n := range toNeighbors {
			Expect(n).To(BeNil())
		}

		e, ok := findResult(results, bamlet.ClassD, 1)
		Expect(ok).To(BeTrue())
		Expect(e.Value).To(Equal(int32(5)))
	})

	It("reports a full reservation station as not-issued rather than renaming anyway", func() {
		cfg := config.Default()
		cfg.NAluRSSlots = 1
		mem := program.NewMemory(64)
		pe := amlet.New(cfg, switchnet.Coord{X: 0, Y: 0}, 0, &fakeController{}, amlet.NewGlobalFile(cfg.NGRegs), mem)

		bundle := instr.ExpandedBundle{
			ALU: instr.ALUSlot{
				Valid: true, Op: instr.OpAdd,
				Dst: bamlet.NewBAddress(bamlet.ClassD, 1), Src1: bamlet.NewBAddress(bamlet.ClassA, 0),
				Src2: instr.BSrc{Mode: instr.SrcImmediate, Imm: 1},
			},
		}
		Expect(pe.TryIssue(bundle, 0)).To(BeTrue())
		Expect(pe.TryIssue(bundle, 0)).To(BeFalse(), "the one-deep station is already occupied")
	})
})

var _ = Describe("PE packet loopback", func() {
	It("sends a packet addressed to itself and receives header then payload back", func() {
		pe := newTestPE()

		// Cycle 1: a D0 write (this PE's next packet payload word) issues
		// alongside the Send that will wait for it.
		cycle1 := instr.ExpandedBundle{
			ALU: instr.ALUSlot{
				Valid: true, Op: instr.OpAdd,
				Dst: bamlet.NewBAddress(bamlet.ClassD, 0), Src1: bamlet.NewBAddress(bamlet.ClassA, 0),
				Src2: instr.BSrc{Mode: instr.SrcImmediate, Imm: 42},
			},
			Packet: instr.PacketSlot{
				Op: instr.PacketSend, Length: 1, DestX: 0, DestY: 0, Mode: bamlet.ModeNormal,
			},
		}
		Expect(pe.TryIssue(cycle1, 0)).To(BeTrue())
		results1, _, err := pe.Tick(nil, allNeighborsReady())
		Expect(err).NotTo(HaveOccurred())

		// Cycle 2: the Send unit observes the D0 write on last cycle's
		// bus, completes the packet, and pushes its header onto the
		// switch; since this PE addressed itself, the header loops
		// straight back to its own inbox.
		results2, _, err := pe.Tick(results1, allNeighborsReady())
		Expect(err).NotTo(HaveOccurred())

		// Cycle 3: post a Receive instruction for the parked header.
		cycle3 := instr.ExpandedBundle{
			Packet: instr.PacketSlot{
				Op: instr.PacketReceive, LenDst: bamlet.NewBAddress(bamlet.ClassA, 1),
			},
		}
		Expect(pe.TryIssue(cycle3, 0)).To(BeTrue())
		results3, _, err := pe.Tick(results2, allNeighborsReady())
		Expect(err).NotTo(HaveOccurred())
		_, headerConsumed := findResult(results3, bamlet.ClassA, 1)
		Expect(headerConsumed).To(BeTrue(), "the Receive instruction should have consumed the parked header")

		// Cycle 4: post a GetWord instruction; the payload word the
		// switch held back while the header was unconsumed now
		// delivers, completing the round trip with the original value.
		cycle4 := instr.ExpandedBundle{
			Packet: instr.PacketSlot{
				Op: instr.PacketGetWord, WordDst: bamlet.NewBAddress(bamlet.ClassA, 2),
			},
		}
		Expect(pe.TryIssue(cycle4, 0)).To(BeTrue())
		results4, _, err := pe.Tick(results3, allNeighborsReady())
		Expect(err).NotTo(HaveOccurred())

		word, ok := findResult(results4, bamlet.ClassA, 2)
		Expect(ok).To(BeTrue())
		Expect(word.Value).To(Equal(int32(42)))
	})
})
