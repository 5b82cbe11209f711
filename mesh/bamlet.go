// Package mesh assembles the shared instruction memory, control unit,
// dependency tracker, and an R×C grid of amlet.PE tiles into the single
// Bamlet component (§4, §5). Word exchange between neighboring tiles and
// the controller-to-tracker-to-PE broadcast are synchronous Go method
// calls rather than akita message passing, matching §5's "no preemption
// or interleaving... every component sees a consistent snapshot" cycle
// model more directly than an asynchronous port/connection fabric would;
// Bamlet itself is still driven as one akita sim.TickingComponent, the
// way the teacher's Core and Device are, so it composes with any other
// akita component a harness wires alongside it (shared memory, a host
// driver port, monitoring).
package mesh

import (
	"fmt"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bamlet/amlet"
	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/config"
	"github.com/sarchlab/bamlet/controlunit"
	"github.com/sarchlab/bamlet/deptracker"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/program"
	"github.com/sarchlab/bamlet/switchnet"
)

// Bamlet is the full mesh: one shared instruction memory, one control
// unit, one dependency tracker, and cfg.Rows*cfg.Columns amlet.PEs tiled
// with nearest-neighbor links (§1, §4).
type Bamlet struct {
	*sim.TickingComponent

	cfg  config.ParamSet
	mem  *program.Memory
	ctrl *controlunit.Unit
	trk  *deptracker.Tracker

	pes [][]*amlet.PE // indexed [row][col], row grows North, col grows East.
	bus [][][]instr.ResultEntry

	pendingExpanded *instr.ExpandedBundle

	cycle uint64

	// Errors accumulates every non-fatal error a PE's Tick reported
	// (receive mismatches, command decode failures), in cycle order, for
	// a harness to inspect or print after a run (§4.7: "reported... the
	// simulation continues").
	Errors []error
}

// controller adapts Bamlet's single controlunit.Unit to amlet.Controller
// (ReportIteration lives on controlunit.Unit already; SetPC likewise).
type controller struct{ u *controlunit.Unit }

func (c controller) ReportIteration(peIndex, count int) error {
	return c.u.ReportIteration(peIndex, count)
}
func (c controller) SetPC(addr uint32) { c.u.SetPC(addr) }

// Builder builds a Bamlet, mirroring the teacher's config.DeviceBuilder
// fluent style (WithEngine/WithFreq/WithMonitor/WithWidth/WithHeight).
type Builder struct {
	engine  sim.Engine
	freq    sim.Freq
	monitor *monitoring.Monitor
	cfg     config.ParamSet
	mem     *program.Memory
}

// NewBuilder returns a Builder seeded with config.Default().
func NewBuilder() Builder {
	return Builder{cfg: config.Default(), freq: 1 * sim.GHz}
}

func (b Builder) WithEngine(engine sim.Engine) Builder { b.engine = engine; return b }
func (b Builder) WithFreq(freq sim.Freq) Builder        { b.freq = freq; return b }
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}
func (b Builder) WithConfig(cfg config.ParamSet) Builder { b.cfg = cfg; return b }

// WithMemory supplies the shared instruction memory explicitly (already
// loaded with a program); when omitted, Build allocates one sized by
// cfg.InstrAddrWidth.
func (b Builder) WithMemory(mem *program.Memory) Builder { b.mem = mem; return b }

// Build assembles the mesh, panicking on an invalid ParamSet the same
// way the teacher's builder panics on an invalid WithDirections/
// WithMemoryMode argument — a configuration mistake, not a runtime
// condition.
func (b Builder) Build(name string) *Bamlet {
	if err := b.cfg.Validate(); err != nil {
		panic("mesh: " + err.Error())
	}

	mem := b.mem
	if mem == nil {
		mem = program.NewMemory(1 << b.cfg.InstrAddrWidth)
	}

	bm := &Bamlet{
		cfg: b.cfg,
		mem: mem,
	}
	bm.ctrl = controlunit.New(mem, b.cfg.NLoopLevels, int(b.cfg.Rows*b.cfg.Columns))
	bm.trk = deptracker.New(0)

	globals := amlet.NewGlobalFile(b.cfg.NGRegs)
	ctl := controller{u: bm.ctrl}

	bm.pes = make([][]*amlet.PE, b.cfg.Rows)
	bm.bus = make([][][]instr.ResultEntry, b.cfg.Rows)
	for y := uint(0); y < b.cfg.Rows; y++ {
		bm.pes[y] = make([]*amlet.PE, b.cfg.Columns)
		bm.bus[y] = make([][]instr.ResultEntry, b.cfg.Columns)
		for x := uint(0); x < b.cfg.Columns; x++ {
			index := int(y*b.cfg.Columns + x)
			pe := amlet.New(b.cfg, switchnet.Coord{X: int(x), Y: int(y)}, index, ctl, globals, mem)
			bm.pes[y][x] = pe
		}
	}

	bm.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, bm)
	if b.monitor != nil {
		b.monitor.RegisterComponent(bm)
	}
	return bm
}

// PE returns the tile at (row, col), mostly for tests and the CLI's
// --dump-state inspection.
func (bm *Bamlet) PE(row, col int) *amlet.PE { return bm.pes[row][col] }

// Halted reports whether the control unit has issued Halt and every PE
// has drained its pending work, the condition a harness polls for to
// know a run finished.
func (bm *Bamlet) Halted() bool {
	if !bm.ctrl.Halted() {
		return false
	}
	return bm.pendingExpanded == nil
}

// Cycle returns the number of Tick calls executed so far.
func (bm *Bamlet) Cycle() uint64 { return bm.cycle }

// Config returns the parameter set this mesh was built with, the widths
// a host driver needs to encode packet headers and command payloads
// addressed to it (§6.4).
func (bm *Bamlet) Config() config.ParamSet { return bm.cfg }

// Tick advances the whole mesh by one cycle (§5): issue from the
// controller into the dependency tracker, broadcast the tracker's
// emitted bundle to every PE, then step every PE and the switch fabric
// between them in the two-phase compute/commit order §5 describes.
func (bm *Bamlet) Tick(now sim.VTimeInSec) bool {
	progress := bm.stepController()
	progress = bm.stepTracker() || progress

	results, toNeighbors, tickErr := bm.stepPEs()
	if tickErr {
		progress = true
	}

	bm.commitLinks(toNeighbors)
	bm.bus = results

	bm.cycle++
	return progress
}

// stepController advances the control unit, holding a fetched bundle in
// pendingExpanded until the dependency tracker accepts it — the "blocks
// when the dependency tracker's ingress is not ready" rule of §5,
// implemented here rather than inside controlunit since the FIFO-full
// signal belongs to deptracker, one layer away from the PC itself.
func (bm *Bamlet) stepController() bool {
	if bm.pendingExpanded == nil {
		b, issued, err := bm.ctrl.Step()
		if err != nil {
			bm.Errors = append(bm.Errors, fmt.Errorf("mesh: controller: %w", err))
			return false
		}
		if !issued {
			return false
		}
		bm.pendingExpanded = &b
	}

	if bm.trk.TryPush(*bm.pendingExpanded) {
		bm.pendingExpanded = nil
		return true
	}
	return false
}

// stepTracker drains one bundle from the tracker, if the hazard
// resolver can emit one, and broadcasts it identically to every PE
// (§1's "single instruction stream... across a grid"). Every PE runs
// the same program against the same station/latency configuration, so
// TryIssue either succeeds on all of them or (stations reported ready
// by an identical configuration, tag domains sized identically) fails
// on none; a PE disagreeing with its neighbors here means rename state
// has diverged in a way this model does not expect, so it panics rather
// than leave the mesh in an inconsistent per-tile state.
func (bm *Bamlet) stepTracker() bool {
	b, ok := bm.trk.TryEmit()
	if !ok {
		return false
	}

	loopIndex := bm.ctrl.CurrentIteration()
	for y := range bm.pes {
		for x, pe := range bm.pes[y] {
			if !pe.TryIssue(b, loopIndex) {
				panic(fmt.Sprintf("mesh: PE (%d,%d) failed to accept a bundle its neighbors accepted", x, y))
			}
		}
	}
	return true
}

// stepPEs runs Phase A of §5's two-phase cycle: every PE computes its
// next state from this cycle's bus and from its neighbors'
// InputFree snapshot taken before any PE ticks this cycle, so every
// tile sees the same pre-cycle picture regardless of iteration order.
func (bm *Bamlet) stepPEs() (results [][][]instr.ResultEntry, toNeighbors [][][4]*bamlet.LinkWord, hadErr bool) {
	rows, cols := len(bm.pes), len(bm.pes[0])
	results = make([][][]instr.ResultEntry, rows)
	toNeighbors = make([][][4]*bamlet.LinkWord, rows)

	ready := make([][][4]bool, rows)
	for y := 0; y < rows; y++ {
		ready[y] = make([][4]bool, cols)
		for x := 0; x < cols; x++ {
			ready[y][x] = bm.neighborReady(y, x)
		}
	}

	for y := 0; y < rows; y++ {
		results[y] = make([][]instr.ResultEntry, cols)
		toNeighbors[y] = make([][4]*bamlet.LinkWord, cols)
		for x := 0; x < cols; x++ {
			res, out, err := bm.pes[y][x].Tick(bm.bus[y][x], ready[y][x])
			results[y][x] = res
			toNeighbors[y][x] = out
			if err != nil {
				hadErr = true
				bm.Errors = append(bm.Errors, fmt.Errorf("mesh: cycle %d: %w", bm.cycle, err))
			}
		}
	}
	return results, toNeighbors, hadErr
}

// neighborReady reads, for the tile at (row,col), whether the neighbor
// across each of the four directions can accept a word this cycle; a
// mesh edge with no neighbor in that direction is always "ready" (there
// is nothing there to back up against, so the switch side simply never
// routes a live target off the edge — §4.6's dimension-order routing
// never targets a coordinate outside 0..Rows-1/0..Columns-1).
func (bm *Bamlet) neighborReady(row, col int) [4]bool {
	var r [4]bool
	r[bamlet.North] = bm.neighborInputFree(row+1, col, bamlet.South)
	r[bamlet.South] = bm.neighborInputFree(row-1, col, bamlet.North)
	r[bamlet.East] = bm.neighborInputFree(row, col+1, bamlet.West)
	r[bamlet.West] = bm.neighborInputFree(row, col-1, bamlet.East)
	return r
}

func (bm *Bamlet) neighborInputFree(row, col int, fromSide bamlet.Side) bool {
	if row < 0 || row >= len(bm.pes) || col < 0 || col >= len(bm.pes[0]) {
		return true
	}
	return bm.pes[row][col].Node().InputFree(fromSide)
}

// commitLinks is Phase B of §5's cycle: after every tile has computed
// this cycle's output independently (Phase A), push each delivered word
// into the receiving neighbor's input skid buffer. Doing this only once
// every PE has ticked keeps one tile's delivery from being visible to
// another within the same cycle, matching the "consistent snapshot"
// rule.
func (bm *Bamlet) commitLinks(toNeighbors [][][4]*bamlet.LinkWord) {
	rows, cols := len(bm.pes), len(bm.pes[0])
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			out := toNeighbors[y][x]
			bm.deliver(y, x, bamlet.North, out[bamlet.North], y+1, x, bamlet.South)
			bm.deliver(y, x, bamlet.South, out[bamlet.South], y-1, x, bamlet.North)
			bm.deliver(y, x, bamlet.East, out[bamlet.East], y, x+1, bamlet.West)
			bm.deliver(y, x, bamlet.West, out[bamlet.West], y, x-1, bamlet.East)
		}
	}
}

func (bm *Bamlet) deliver(srcY, srcX int, srcSide bamlet.Side, w *bamlet.LinkWord, dstY, dstX int, dstSide bamlet.Side) {
	if w == nil {
		return
	}
	if dstY < 0 || dstY >= len(bm.pes) || dstX < 0 || dstX >= len(bm.pes[0]) {
		panic(fmt.Sprintf("mesh: PE (%d,%d) routed a word off the %s edge of the mesh", srcX, srcY, srcSide))
	}
	if !bm.pes[dstY][dstX].Node().PushNeighbor(dstSide, *w) {
		panic(fmt.Sprintf("mesh: PE (%d,%d) delivered to an already-occupied %s input on (%d,%d), violating the ready check taken this cycle", srcX, srcY, dstSide, dstX, dstY))
	}
}
