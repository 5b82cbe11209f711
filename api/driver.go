// Package api is the host-facing surface for loading programs onto a
// Bamlet mesh, feeding it data, and reading its results back, the same
// role the teacher's driver played for the wafer-scale engine: a thin
// client that does not itself run on the simulated device.
package api

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/mesh"
)

// Driver controls a Bamlet mesh from outside it: it installs programs
// on tiles through command packets, starts them, injects data packets a
// running program can consume, and reads committed register state back
// once execution halts.
type Driver interface {
	// MapProgram installs bundles into the tile at core's instruction
	// memory starting at baseAddr, through a CmdInstructionMemoryWrite
	// command packet (§6.4).
	MapProgram(core [2]int, baseAddr uint32, bundles []instr.Bundle)

	// Start redirects core's shared program counter to addr, through a
	// CmdStart command packet.
	Start(core [2]int, addr uint32)

	// SeedRegister writes value into one register on core before it
	// starts running, through a CmdRegisterWrite command packet. This
	// is the mechanism by which otherwise-identical SIMT tiles end up
	// in different states (§4.4): a host-issued per-tile register seed.
	SeedRegister(core [2]int, class bamlet.RegClass, index int, value int32)

	// FeedIn queues a Normal-mode data packet addressed to core,
	// carrying data, for delivery the next time Run ticks the mesh. A
	// program running on core must drain it with Packet Receive/GetWord
	// slots, the same protocol §6 defines for any mesh-internal packet.
	FeedIn(core [2]int, data []uint32)

	// Run ticks the underlying mesh, draining any queued command and
	// data packets one word per free cycle, until the mesh halts or
	// maxCycles elapses.
	Run(maxCycles int) error

	// ReadRegister returns core's committed value for one register,
	// meant to be called after Run returns to collect results.
	ReadRegister(core [2]int, class bamlet.RegClass, index int) int32

	// Halted reports whether the mesh's shared controller has halted.
	Halted() bool
}

type driverImpl struct {
	bm *mesh.Bamlet

	tasks []*injectTask
}

// injectTask is one packet still being fed into a target tile's switch,
// one word per cycle, the same pacing mesh/scenarios_test.go's
// sendCommandPacket helper uses directly against a test harness.
type injectTask struct {
	row, col int
	words    []bamlet.LinkWord
	next     int
}

func newDriver(bm *mesh.Bamlet) *driverImpl {
	return &driverImpl{bm: bm}
}

func (d *driverImpl) MapProgram(core [2]int, baseAddr uint32, bundles []instr.Bundle) {
	cfg := d.bm.Config()
	operand := bamlet.InstructionMemoryWriteOperand(baseAddr, uint8(len(bundles)), cfg.InstrAddrWidth)
	payload := []uint32{bamlet.EncodeFirstWord(bamlet.CmdInstructionMemoryWrite, operand)}
	for _, b := range bundles {
		payload = append(payload, bundleWords(b)...)
	}
	d.enqueueCommand(core, payload)
}

func (d *driverImpl) Start(core [2]int, addr uint32) {
	d.enqueueCommand(core, []uint32{bamlet.EncodeFirstWord(bamlet.CmdStart, addr)})
}

func (d *driverImpl) SeedRegister(core [2]int, class bamlet.RegClass, index int, value int32) {
	cfg := d.bm.Config()
	instrAddrWidth, regIndexWidth := cfg.CommandWidths()
	widths := bamlet.CommandWidths{InstrAddrWidth: instrAddrWidth, RegIndexWidth: regIndexWidth}
	operand := bamlet.RegisterWriteOperand(class, index, widths)
	d.enqueueCommand(core, []uint32{
		bamlet.EncodeFirstWord(bamlet.CmdRegisterWrite, operand),
		uint32(value),
	})
}

func (d *driverImpl) enqueueCommand(core [2]int, payload []uint32) {
	d.enqueue(core, bamlet.ModeCommand, payload)
}

func (d *driverImpl) FeedIn(core [2]int, data []uint32) {
	d.enqueue(core, bamlet.ModeNormal, data)
}

func (d *driverImpl) enqueue(core [2]int, mode bamlet.Mode, payload []uint32) {
	cfg := d.bm.Config()
	widths := bamlet.HeaderWidths{LengthWidth: cfg.PacketLengthWidth, XPosWidth: cfg.XPosWidth, YPosWidth: cfg.YPosWidth}
	header := bamlet.Header{Length: uint32(len(payload)), XDest: uint32(core[1]), YDest: uint32(core[0]), Mode: mode}

	words := []bamlet.LinkWord{{Data: bamlet.EncodeHeader(header, widths), IsHeader: true}}
	for _, w := range payload {
		words = append(words, bamlet.LinkWord{Data: w, IsHeader: false})
	}

	d.tasks = append(d.tasks, &injectTask{row: core[0], col: core[1], words: words})
}

func (d *driverImpl) Run(maxCycles int) error {
	for cycle := 0; cycle < maxCycles; cycle++ {
		if d.bm.Halted() && len(d.tasks) == 0 {
			return nil
		}
		d.pumpTasks()
		d.bm.Tick(0)
	}
	if !d.bm.Halted() {
		return fmt.Errorf("api: mesh did not halt within %d cycles", maxCycles)
	}
	return nil
}

// pumpTasks offers the next pending word of every queued injection task
// to its target tile's local switch input, dropping a task once it has
// been fully delivered.
func (d *driverImpl) pumpTasks() {
	live := d.tasks[:0]
	for _, t := range d.tasks {
		pe := d.bm.PE(t.row, t.col)
		if pe.Node().InputFree(bamlet.Here) {
			pe.Node().PushNeighbor(bamlet.Here, t.words[t.next])
			t.next++
		}
		if t.next < len(t.words) {
			live = append(live, t)
		}
	}
	d.tasks = live
}

func (d *driverImpl) ReadRegister(core [2]int, class bamlet.RegClass, index int) int32 {
	return d.bm.PE(core[0], core[1]).Register(class, index)
}

func (d *driverImpl) Halted() bool { return d.bm.Halted() }

// bundleWords encodes one bundle to its little-endian uint32 words, the
// wire form a CmdInstructionMemoryWrite payload body carries (§6.4).
func bundleWords(b instr.Bundle) []uint32 {
	data := instr.Encode(b)
	for len(data)%4 != 0 {
		data = append(data, 0)
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}
