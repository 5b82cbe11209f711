// Package amlet wires one PE's rename stage, reservation stations,
// functional units, and mesh switch into the single per-cycle unit
// mesh assembles into a grid (§4). The name carries over from the
// teacher's smallest compute element, repurposed here for a Bamlet
// tile.
package amlet

import (
	"fmt"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/config"
	"github.com/sarchlab/bamlet/fu"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/program"
	"github.com/sarchlab/bamlet/rename"
	"github.com/sarchlab/bamlet/rs"
	"github.com/sarchlab/bamlet/switchnet"
)

// Controller is the mesh-wide control surface a PE needs: reporting a
// resolved loop iteration count (rename.Controller) and restarting the
// program counter on a Start command packet (§4.1, §6.4).
type Controller interface {
	rename.Controller
	SetPC(addr uint32)
}

// PE is one mesh tile: rename + six reservation stations + six
// functional units + one switch node, exactly the set §4 names
// (§4.2's dependency tracker lives one level up, in mesh, since it
// gates every PE identically rather than belonging to one).
type PE struct {
	index      int
	controller Controller
	globals    Globals

	rename *rename.Unit
	file   *rename.File

	aluStation       *rs.GenericStation[instr.ALUSlotR]
	aluLiteStation   *rs.GenericStation[instr.ALULiteSlotR]
	predicateStation *rs.GenericStation[instr.PredicateSlotR]
	loadStoreStation *rs.LoadStoreStation
	sendStation      *rs.PacketSendStation
	recvStation      *rs.PacketReceiveStation

	aluFU       *fu.ALUUnit
	aluLiteFU   *fu.ALULiteUnit
	predicateFU *fu.PredicateUnit
	loadStoreFU *fu.LoadStoreUnit
	sendFU      *fu.PacketSendUnit
	recvFU      *fu.PacketReceiveUnit
	cmdUnit     *fu.CommandUnit

	node         *switchnet.Node
	headerWidths bamlet.HeaderWidths

	outgoing                []bamlet.LinkWord
	pendingForward          *bamlet.LinkWord
	pendingForwardDirective switchnet.ForwardDirective

	inbox *bamlet.LinkWord

	cmdPending int
	cmdWords   []uint32

	pendingControlResults []instr.ResultEntry
}

// New builds one PE at coord, sized by cfg, sharing mem (instruction
// memory, mutated by InstructionMemoryWrite command packets) and
// globals (the mesh-wide G register file) with the rest of the mesh.
func New(
	cfg config.ParamSet, coord switchnet.Coord, index int,
	controller Controller, globals Globals, mem *program.Memory,
) *PE {
	file := rename.NewFile(cfg)
	unit := rename.New(index, file, controller)
	unit.ReadGlobal = globals.ReadGlobal

	headerWidths := bamlet.HeaderWidths{
		LengthWidth: cfg.PacketLengthWidth, XPosWidth: cfg.XPosWidth, YPosWidth: cfg.YPosWidth,
	}
	instrWidth, regWidth := cfg.CommandWidths()
	cmdWidths := bamlet.CommandWidths{InstrAddrWidth: instrWidth, RegIndexWidth: regWidth}

	p := &PE{
		index:      index,
		controller: controller,
		globals:    globals,

		rename: unit,
		file:   file,

		aluStation:       rs.NewALUStation(int(cfg.NAluRSSlots)),
		aluLiteStation:   rs.NewALULiteStation(int(cfg.NAluLiteRSSlots)),
		predicateStation: rs.NewPredicateStation(int(cfg.NPredicateRSSlots)),
		loadStoreStation: rs.NewLoadStoreStation(int(cfg.NLoadStoreRSSlots)),
		sendStation:      rs.NewPacketSendStation(int(cfg.NSendPacketRSSlots)),
		recvStation:      rs.NewPacketReceiveStation(int(cfg.NReceivePacketRSSlots)),

		aluFU:       fu.NewALUUnit(cfg.ALULatency),
		aluLiteFU:   fu.NewALULiteUnit(cfg.ALULiteLatency),
		predicateFU: fu.NewPredicateUnit(cfg.ALUPredicateLatency),
		loadStoreFU: fu.NewLoadStoreUnit(cfg.DataMemoryDepth),
		sendFU:      fu.NewPacketSendUnit(),
		recvFU:      fu.NewPacketReceiveUnit(),

		node:         switchnet.NewNode(coord, headerWidths),
		headerWidths: headerWidths,
	}
	p.cmdUnit = fu.NewCommandUnit(mem, cmdWidths, &commandTarget{pe: p})
	return p
}

// Node exposes the switch this PE owns, so mesh can wire its four
// neighbor links and query InputFree/CanAppend when assembling the
// grid.
func (p *PE) Node() *switchnet.Node { return p.node }

// Register returns class/index's currently committed value: the G class
// routes to the mesh-wide Globals, everything else to this PE's own
// rename.File. Mostly useful for tests, trace/dump output, and a host
// driver collecting results once a program halts.
func (p *PE) Register(class bamlet.RegClass, index int) int32 {
	if class == bamlet.ClassG {
		return p.globals.ReadGlobal(index)
	}
	return p.file.Read(class, index)
}

// TryIssue attempts to rename one Expanded bundle and, on success,
// distribute its slots to their reservation stations. It fails without
// mutating any state if a needed station is full, mirroring
// rename.Unit.TryRename's all-or-nothing contract one level up so a
// bundle never renames only to find a station has no room. loopIndex
// is the current loop iteration value the mesh controller computed
// this cycle, for a Control slot's Dst to receive — Control has no
// reservation station or functional unit of its own (§4.1), so this is
// the one slot kind rename resolves immediately rather than handing to
// a pipeline.
func (p *PE) TryIssue(b instr.ExpandedBundle, loopIndex int32) bool {
	if !p.stationsReady(b) {
		return false
	}

	rb, ok := p.rename.TryRename(b)
	if !ok {
		return false
	}

	if !rb.Control.IsNone() && !rb.Control.Dst.None {
		p.pendingControlResults = append(p.pendingControlResults, instr.ResultEntry{
			Class: rb.Control.Dst.Class, Index: rb.Control.Dst.Index, Tag: rb.Control.Dst.Tag, Value: loopIndex,
		})
	}
	if !rb.Predicate.IsNone() {
		p.predicateStation.TryPush(rb.Predicate)
	}
	if !rb.Packet.IsNone() {
		switch rb.Packet.Op {
		case instr.PacketSend:
			p.sendStation.TryPush(rb.Packet)
		case instr.PacketReceive, instr.PacketGetWord:
			p.recvStation.TryPush(rb.Packet)
		}
	}
	if !rb.LoadStore.IsNone() {
		p.loadStoreStation.TryPush(rb.LoadStore)
	}
	if !rb.ALU.IsNone() {
		p.aluStation.TryPush(rb.ALU)
	}
	if !rb.ALULite.IsNone() {
		p.aluLiteStation.TryPush(rb.ALULite)
	}
	return true
}

func (p *PE) stationsReady(b instr.ExpandedBundle) bool {
	if !b.Predicate.IsNone() && !p.predicateStation.Ready() {
		return false
	}
	if !b.Packet.IsNone() {
		switch b.Packet.Op {
		case instr.PacketSend:
			if !p.sendStation.Ready() {
				return false
			}
		case instr.PacketReceive, instr.PacketGetWord:
			if !p.recvStation.Ready() {
				return false
			}
		}
	}
	if !b.LoadStore.IsNone() && !p.loadStoreStation.Ready() {
		return false
	}
	if !b.ALU.IsNone() && !p.aluStation.Ready() {
		return false
	}
	if !b.ALULite.IsNone() && !p.aluLiteStation.Ready() {
		return false
	}
	return true
}

// Tick advances every station and functional unit by one cycle and
// steps this PE's switch node. bus is the result-bus entries this same
// PE produced last cycle (reservation stations always snoop their own
// PE's prior output, never another PE's, since tags are PE-local);
// neighborReady[s] (s over North/East/South/West) is whether the
// neighbor across side s can accept a word this cycle. It returns the
// result-bus entries produced this cycle (to both commit to the
// register file and feed next cycle's bus), the words this node's
// switch is sending to each neighbor, and a non-nil error only for a
// condition §4.7 disposes of as "reported, simulation continues" —
// never one that should abort the run.
func (p *PE) Tick(bus []instr.ResultEntry, neighborReady [4]bool) (results []instr.ResultEntry, toNeighbors [4]*bamlet.LinkWord, err error) {
	results = append(results, p.pendingControlResults...)
	p.pendingControlResults = nil

	if v, ok := p.aluStation.Step(bus); ok {
		p.aluFU.Issue(toALUResolved(v))
	}
	results = append(results, p.aluFU.Tick()...)

	if v, ok := p.aluLiteStation.Step(bus); ok {
		p.aluLiteFU.Issue(toALULiteResolved(v))
	}
	results = append(results, p.aluLiteFU.Tick()...)

	if v, ok := p.predicateStation.Step(bus); ok {
		p.predicateFU.Issue(toPredicateResolved(v))
	}
	results = append(results, p.predicateFU.Tick()...)

	if v, ok := p.loadStoreStation.Step(bus); ok {
		p.loadStoreFU.Issue(toLoadStoreResolved(v))
	}
	results = append(results, p.loadStoreFU.Tick()...)

	if v, ok := p.sendStation.Step(bus); ok {
		p.sendFU.Issue(toPacketSendResolved(v))
	}
	for _, pk := range p.sendFU.ObserveResultBus(bus) {
		p.outgoing = append(p.outgoing, pk.Words(p.encodeHeader)...)
	}

	results = append(results, p.drainMaskedReceives(bus)...)

	p.feedSwitchInput()

	hereReady := p.inbox == nil
	outputReady := [5]bool{
		neighborReady[bamlet.North], neighborReady[bamlet.East],
		neighborReady[bamlet.South], neighborReady[bamlet.West],
		hereReady,
	}
	delivered := p.node.Step(outputReady)
	toNeighbors[bamlet.North] = delivered[bamlet.North]
	toNeighbors[bamlet.East] = delivered[bamlet.East]
	toNeighbors[bamlet.South] = delivered[bamlet.South]
	toNeighbors[bamlet.West] = delivered[bamlet.West]

	if p.inbox == nil && delivered[bamlet.Here] != nil {
		p.inbox = delivered[bamlet.Here]
	}

	inboxResults, inboxErr := p.processInbox(bus)
	results = append(results, inboxResults...)
	err = inboxErr

	p.file.ApplyResultBus(results)
	return results, toNeighbors, err
}

func (p *PE) encodeHeader(h bamlet.Header) uint32 {
	return bamlet.EncodeHeader(h, p.headerWidths)
}

// drainMaskedReceives pops every head-of-station Receive/GetWord slot
// whose predicate resolved false, in order: masking needs no inbound
// word at all, so it never waits on the switch (§4.4 bullet 3's
// masking-and-drain rule, applied here since Packet is the one station
// kind fu itself cannot drain unilaterally — it has no word to hand
// in).
func (p *PE) drainMaskedReceives(bus []instr.ResultEntry) []instr.ResultEntry {
	var out []instr.ResultEntry
	for {
		head, ok := p.recvStation.PeekHead(bus)
		if !ok {
			return out
		}
		if head.Predicate.Value() != 0 {
			return out
		}
		p.recvStation.PopHead()
		entries, _, _, _ := p.recvFU.Issue(toPacketReceiveResolved(head), bamlet.LinkWord{}, false)
		out = append(out, entries...)
	}
}

// feedSwitchInput offers one word to this node's own Here input: a
// parked forward takes priority over the outgoing send queue, since a
// forward is older network traffic this PE already consumed once.
func (p *PE) feedSwitchInput() {
	if p.pendingForward != nil {
		if p.node.PushForward(*p.pendingForward, p.pendingForwardDirective) {
			p.pendingForward = nil
		}
		return
	}
	if len(p.outgoing) == 0 {
		return
	}
	if p.node.PushNeighbor(bamlet.Here, p.outgoing[0]) {
		p.outgoing = p.outgoing[1:]
	}
}

// processInbox handles the one word, if any, this PE's switch
// delivered to Here this cycle: command-packet assembly bypasses the
// Receive station entirely (§6.4), while a normal header or payload
// word must match the station's parked head.
func (p *PE) processInbox(bus []instr.ResultEntry) ([]instr.ResultEntry, error) {
	if p.inbox == nil {
		return nil, nil
	}
	word := *p.inbox

	if p.cmdPending > 0 {
		p.cmdWords = append(p.cmdWords, word.Data)
		p.cmdPending--
		p.inbox = nil
		if p.cmdPending == 0 {
			words := p.cmdWords
			p.cmdWords = nil
			return nil, p.cmdUnit.Apply(words)
		}
		return nil, nil
	}

	if word.IsHeader {
		h := bamlet.DecodeHeader(word.Data, p.headerWidths)
		if h.Mode == bamlet.ModeCommand {
			p.inbox = nil
			p.cmdWords = nil
			p.cmdPending = int(h.Length)
			return nil, nil
		}
	}

	head, ok := p.recvStation.PeekHead(bus)
	if !ok {
		// No Receive/GetWord instruction posted yet: leave the word
		// parked in the inbox, which keeps this node's Here output
		// un-ready until one is.
		return nil, nil
	}
	p.recvStation.PopHead()
	p.inbox = nil

	results, forward, directive, consumed := p.recvFU.Issue(toPacketReceiveResolved(head), word, true)
	if !consumed {
		return results, fmt.Errorf(
			"amlet: PE %d receive mismatch: %s instruction against %s word",
			p.index, head.Op, wordKind(word),
		)
	}
	if forward != nil {
		fw := *forward
		p.pendingForward = &fw
		p.pendingForwardDirective = switchnet.ForwardDirective{
			Dir: directive.Dir, Append: directive.Append, Toggle: directive.Toggle,
		}
	}
	return results, nil
}

func wordKind(w bamlet.LinkWord) string {
	if w.IsHeader {
		return "header"
	}
	return "payload"
}
