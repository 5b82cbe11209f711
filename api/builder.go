package api

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bamlet/config"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/mesh"
	"github.com/sarchlab/bamlet/program"
)

// DriverBuilder assembles a Driver around a freshly built Bamlet mesh,
// mirroring mesh.Builder's fluent construction style one layer up.
type DriverBuilder struct {
	engine sim.Engine
	freq   sim.Freq
	cfg    config.ParamSet
	mem    *program.Memory
}

// WithEngine sets the engine the underlying mesh ticks against.
func (b DriverBuilder) WithEngine(engine sim.Engine) DriverBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the underlying mesh's clock frequency.
func (b DriverBuilder) WithFreq(freq sim.Freq) DriverBuilder {
	b.freq = freq
	return b
}

// WithConfig sets the mesh's parameter set.
func (b DriverBuilder) WithConfig(cfg config.ParamSet) DriverBuilder {
	b.cfg = cfg
	return b
}

// WithMemory sets the program every tile shares before any MapProgram
// command overwrites part of it.
func (b DriverBuilder) WithMemory(mem *program.Memory) DriverBuilder {
	b.mem = mem
	return b
}

// Build assembles the mesh and returns a Driver in front of it. When no
// memory was supplied, every tile boots parked on a Halt at address 0,
// so MapProgram and SeedRegister can safely install a real program
// before Start ever redirects the shared program counter onto it; a
// freely auto-running controller racing a still-arriving command packet
// would otherwise let a tile begin executing stale or half-written
// instructions.
func (b DriverBuilder) Build(name string) Driver {
	mem := b.mem
	if mem == nil {
		mem = program.NewMemory(1 << b.cfg.InstrAddrWidth)
		mem.Write(0, instr.Bundle{Control: instr.ControlSlot{Op: instr.CtrlHalt}})
	}

	bm := mesh.NewBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithConfig(b.cfg).
		WithMemory(mem).
		Build(name)

	return newDriver(bm)
}
