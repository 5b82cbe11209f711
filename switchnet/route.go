// Package switchnet implements the per-node mesh switch (§4.6): XY-order
// unicast routing, broadcast-rectangle fan-out, a rotating-priority
// arbiter shared across all five output ports, Append-mode continuation,
// and ready/valid flow control with no buffering beyond a one-word skid
// per port.
package switchnet

import "github.com/sarchlab/bamlet/bamlet"

// Coord is a node's (column, row) position in the mesh.
type Coord struct {
	X, Y int
}

// route decides which output side(s) a header at coord should be sent
// to, given which side it arrived from (used to avoid sending a
// broadcast word back the way it came).
func route(coord Coord, h bamlet.Header, from bamlet.Side) []bamlet.Side {
	if h.IsBroadcast {
		return broadcastTargets(coord, h, from)
	}
	return unicastTargets(coord, h)
}

// unicastTargets applies dimension-order (X then Y) routing (§4.6): a
// packet moves along X until its column matches, then along Y, and is
// delivered to Here once both coordinates match.
func unicastTargets(coord Coord, h bamlet.Header) []bamlet.Side {
	x, y := int(h.XDest), int(h.YDest)
	if coord.X == x && coord.Y == y {
		return []bamlet.Side{bamlet.Here}
	}
	if coord.X != x {
		if x > coord.X {
			return []bamlet.Side{bamlet.East}
		}
		return []bamlet.Side{bamlet.West}
	}
	if y > coord.Y {
		return []bamlet.Side{bamlet.North}
	}
	return []bamlet.Side{bamlet.South}
}

// broadcastTargets fans a broadcast packet out across its rectangle
// (§4.6): it first spreads along X to cover the rectangle's column
// span, then every node that spread reaches fans out along Y to cover
// the row span, delivering locally at every (x,y) inside the rectangle.
// A side is never a target if the packet just arrived from it, since
// that neighbor has already seen (or will see via its own fan-out) this
// word.
func broadcastTargets(coord Coord, h bamlet.Header, from bamlet.Side) []bamlet.Side {
	rect := h.BroadcastRect
	x0, y0, x1, y1 := int(rect[0]), int(rect[1]), int(rect[2]), int(rect[3])

	var targets []bamlet.Side
	if coord.X >= x0 && coord.X <= x1 && coord.Y >= y0 && coord.Y <= y1 {
		targets = append(targets, bamlet.Here)
	}

	if from != bamlet.North && from != bamlet.South {
		if coord.X > x0 && from != bamlet.West {
			targets = append(targets, bamlet.West)
		}
		if coord.X < x1 && from != bamlet.East {
			targets = append(targets, bamlet.East)
		}
	}

	if coord.Y > y0 && from != bamlet.South {
		targets = append(targets, bamlet.South)
	}
	if coord.Y < y1 && from != bamlet.North {
		targets = append(targets, bamlet.North)
	}

	return targets
}

// rewriteForVertical applies the X-rewrite §4.6 calls for on a
// broadcast header leaving through North or South: XDest is repointed
// at this node's own column. broadcastTargets itself routes by the
// rectangle alone and does not read XDest.
func rewriteForVertical(coord Coord, h bamlet.Header) bamlet.Header {
	h.XDest = uint32(coord.X)
	return h
}
