package switchnet

import "github.com/sarchlab/bamlet/bamlet"

// ForwardDirective is a Receive instruction's forwarding decision,
// mirrored here (rather than importing package fu) to keep switchnet
// and fu decoupled peers the way bamlet's types are meant to be built on
// without the downstream packages importing each other. amlet, which
// wires fu and switchnet together, translates fu.ForwardDirective into
// this shape at the boundary.
type ForwardDirective struct {
	Dir    bamlet.Side
	Append bool
	Toggle bool
}

// binding is the routing decision a header establishes, reused by every
// payload word that follows it until the packet completes (§4.6:
// "output-binding persists until packet complete").
type binding struct {
	targets   []bamlet.Side
	remaining uint32
}

// appendSlot records that an output side is mid-Append: once the
// packet currently occupying it finishes, this node's own PE may keep
// driving that output directly rather than the link freeing up for
// ordinary arbitration (§4.6). toggle disambiguates two back-to-back
// Append sessions through the same side.
type appendSlot struct {
	toggle bool
	open   bool // true once the original packet has fully drained and Here may append.
}

// Node is one mesh switch: the five ports around one PE.
type Node struct {
	coord  Coord
	widths bamlet.HeaderWidths

	pending   [5]*bamlet.LinkWord // one-word skid buffer per input (§4.6 flow control).
	isForward [5]bool             // true when pending[Here] is a directive-routed forward, not a fresh header.
	directive [5]ForwardDirective // meaningful only at index bamlet.Here when isForward[Here].

	binding [5]*binding // persists across cycles for header-routed inputs.

	appendAfter [5]*appendSlot // indexed by output side.

	priority int // rotating cursor shared by every output's arbiter (§9).
}

// NewNode builds a switch at coord.
func NewNode(coord Coord, widths bamlet.HeaderWidths) *Node {
	return &Node{coord: coord, widths: widths}
}

// Coord returns this node's mesh position.
func (n *Node) Coord() Coord { return n.coord }

// PushNeighbor presents one word arriving from an adjacent node's link
// (or, for Here, from this node's own functional units assembling a
// brand-new outbound packet). It returns false if the input's skid slot
// is still occupied, signaling backpressure to the caller.
func (n *Node) PushNeighbor(side bamlet.Side, w bamlet.LinkWord) bool {
	if n.pending[side] != nil {
		return false
	}
	word := w
	n.pending[side] = &word
	return true
}

// PushForward presents one word this node's own Receive unit is
// forwarding onward (§4.6): routing is whatever the instruction decided
// rather than a fresh header decode.
func (n *Node) PushForward(w bamlet.LinkWord, d ForwardDirective) bool {
	if n.pending[bamlet.Here] != nil {
		return false
	}
	word := w
	n.pending[bamlet.Here] = &word
	n.isForward[bamlet.Here] = true
	n.directive[bamlet.Here] = d
	return true
}

// InputFree reports whether side's one-word skid buffer is currently
// empty, the signal a neighbor (or the local PE, for Here) consults
// before offering a word into it this cycle.
func (n *Node) InputFree(side bamlet.Side) bool {
	return n.pending[side] == nil
}

// CanAppend reports whether output side out has finished draining the
// packet an Append-mode forward marked, with a matching toggle, so the
// PE may safely start pushing its appended continuation onto it.
func (n *Node) CanAppend(out bamlet.Side, toggle bool) bool {
	slot := n.appendAfter[out]
	return slot != nil && slot.toggle == toggle && slot.open
}

// Step runs one cycle: it resolves routing for any newly arrived
// header, arbitrates contested outputs using the shared rotating
// counter, and delivers one word per output that won arbitration and
// whose downstream reports ready. outputReady[s] is whether the
// neighbor on side s (or, for Here, this node's own PE) can accept a
// word this cycle.
func (n *Node) Step(outputReady [5]bool) (delivered [5]*bamlet.LinkWord) {
	targets := [5][]bamlet.Side{}
	for _, s := range []bamlet.Side{bamlet.North, bamlet.East, bamlet.South, bamlet.West, bamlet.Here} {
		if n.pending[s] == nil {
			continue
		}
		targets[s] = n.targetsFor(s)
	}

	winner := n.arbitrate(targets, outputReady)
	n.priority = (n.priority + 1) % 5

	for _, s := range []bamlet.Side{bamlet.North, bamlet.East, bamlet.South, bamlet.West, bamlet.Here} {
		if n.pending[s] == nil || len(targets[s]) == 0 {
			continue
		}
		if !n.wins(s, targets[s], winner, outputReady) {
			continue
		}
		n.deliver(s, targets[s], &delivered)
	}

	return delivered
}

// targetsFor resolves the output side(s) the word presented on input s
// should go to this cycle, consulting a persisted binding when one
// exists for s.
func (n *Node) targetsFor(s bamlet.Side) []bamlet.Side {
	if b := n.binding[s]; b != nil {
		return b.targets
	}
	if s == bamlet.Here && n.isForward[bamlet.Here] {
		return []bamlet.Side{n.directive[bamlet.Here].Dir}
	}

	w := *n.pending[s]
	if !w.IsHeader {
		// A non-header word with no binding has nothing to route by;
		// hold it until the situation resolves (should not happen in a
		// well-formed packet stream).
		return nil
	}
	h := bamlet.DecodeHeader(w.Data, n.widths)
	return route(n.coord, h, s)
}

// arbitrate picks, for each contested output, the winning input side
// using the shared rotating-priority order, starting at n.priority and
// walking N,E,S,W,Here.
func (n *Node) arbitrate(targets [5][]bamlet.Side, outputReady [5]bool) [5]bamlet.Side {
	var winner [5]bamlet.Side
	var hasWinner [5]bool

	order := [5]bamlet.Side{bamlet.North, bamlet.East, bamlet.South, bamlet.West, bamlet.Here}
	for i := 0; i < 5; i++ {
		s := order[(n.priority+i)%5]
		if n.pending[s] == nil {
			continue
		}
		for _, t := range targets[s] {
			if hasWinner[t] {
				continue
			}
			hasWinner[t] = true
			winner[t] = s
		}
	}
	return winner
}

// wins reports whether input s may transmit this cycle: it must have
// won arbitration on every output it targets (broadcast fan-out moves
// in lockstep across all its replicas) and every one of those outputs
// must be ready.
func (n *Node) wins(s bamlet.Side, want []bamlet.Side, winner [5]bamlet.Side, outputReady [5]bool) bool {
	for _, t := range want {
		if winner[t] != s || !outputReady[t] {
			return false
		}
	}
	return true
}

func (n *Node) deliver(s bamlet.Side, want []bamlet.Side, delivered *[5]*bamlet.LinkWord) {
	w := *n.pending[s]
	isBroadcastHeader := w.IsHeader

	for _, t := range want {
		out := w
		if isBroadcastHeader && (t == bamlet.North || t == bamlet.South) {
			h := bamlet.DecodeHeader(w.Data, n.widths)
			if h.IsBroadcast {
				out.Data = bamlet.EncodeHeader(rewriteForVertical(n.coord, h), n.widths)
			}
		}
		cp := out
		delivered[t] = &cp
	}

	n.advance(s, w, want)
	n.pending[s] = nil
	n.isForward[s] = false
}

// advance updates persisted routing/append state after input s
// transmits word w to want this cycle.
func (n *Node) advance(s bamlet.Side, w bamlet.LinkWord, want []bamlet.Side) {
	if s == bamlet.Here && n.isForward[bamlet.Here] {
		d := n.directive[bamlet.Here]
		if d.Append {
			n.appendAfter[d.Dir] = &appendSlot{toggle: d.Toggle, open: true}
		}
		return
	}

	if b := n.binding[s]; b != nil {
		if w.IsHeader {
			return // header itself never decrements remaining.
		}
		b.remaining--
		if b.remaining == 0 {
			n.binding[s] = nil
		}
		return
	}

	if !w.IsHeader {
		return
	}
	h := bamlet.DecodeHeader(w.Data, n.widths)
	if h.Length == 0 {
		return // single-word packet, nothing to persist.
	}
	n.binding[s] = &binding{targets: want, remaining: h.Length}
	for _, t := range want {
		n.appendAfter[t] = nil // a fresh packet on this output cancels any stale Append session.
	}
}
