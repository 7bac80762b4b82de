package match

import "matchday/internal/pitch"

// playerGrid is a coarse spatial index over the 22 slots, rebuilt every
// tick. Separation, pressure, and candidate gathering all want "who is near
// this point" without 22×22 scans.
const gridCellM = 8

type playerGrid struct {
	cols, rows int
	cellSize   pitch.Fixed
	origin     pitch.Coord10
	// Per-cell slot lists, preallocated once and reused across ticks. A
	// cell can hold every slot: set pieces really do crowd one cell.
	backing [][TotalSlots]int8
	counts  []uint8
}

func newPlayerGrid() *playerGrid {
	cellSize := pitch.FromInt(gridCellM)
	width := pitch.MarginRect.MaxX - pitch.MarginRect.MinX
	height := pitch.MarginRect.MaxY - pitch.MarginRect.MinY
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	g := &playerGrid{
		cols:     cols,
		rows:     rows,
		cellSize: cellSize,
		origin:   pitch.C(pitch.MarginRect.MinX, pitch.MarginRect.MinY),
		backing:  make([][TotalSlots]int8, cols*rows),
		counts:   make([]uint8, cols*rows),
	}
	return g
}

func (g *playerGrid) cellIndex(pos pitch.Coord10) int {
	cx := int((pos.X - g.origin.X) / g.cellSize)
	cy := int((pos.Y - g.origin.Y) / g.cellSize)
	if cx < 0 {
		cx = 0
	}
	if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	}
	if cy >= g.rows {
		cy = g.rows - 1
	}
	return cy*g.cols + cx
}

// Rebuild clears and re-inserts every active player. O(slots).
func (g *playerGrid) Rebuild(players []Player) {
	for i := range g.counts {
		g.counts[i] = 0
	}
	for i := range players {
		p := &players[i]
		if !p.Active() {
			continue
		}
		idx := g.cellIndex(p.Pos)
		if g.counts[idx] < uint8(len(g.backing[idx])) {
			g.backing[idx][g.counts[idx]] = p.Slot
			g.counts[idx]++
		}
	}
}

// QueryRadius appends to buf the slots within radius of pos and returns it.
// Scans only the cells the radius can touch.
func (g *playerGrid) QueryRadius(players []Player, pos pitch.Coord10, radius pitch.Fixed, buf []int8) []int8 {
	radiusSq := radius.Mul(radius)
	span := int(radius/g.cellSize) + 1
	cx := int((pos.X - g.origin.X) / g.cellSize)
	cy := int((pos.Y - g.origin.Y) / g.cellSize)
	for dy := -span; dy <= span; dy++ {
		y := cy + dy
		if y < 0 || y >= g.rows {
			continue
		}
		for dx := -span; dx <= span; dx++ {
			x := cx + dx
			if x < 0 || x >= g.cols {
				continue
			}
			idx := y*g.cols + x
			for i := 0; i < int(g.counts[idx]); i++ {
				slot := g.backing[idx][i]
				if players[slot].Pos.DistSqTo(pos) <= radiusSq {
					buf = append(buf, slot)
				}
			}
		}
	}
	return buf
}
