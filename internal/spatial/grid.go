// Package spatial buckets entities into square cells so neighbourhood
// lookups only touch the cells around a point.
package spatial

import (
	"math"

	"github.com/l1jgo/ecsrt/internal/core/ecs"
)

// DefaultCellSize is used when a Grid is created with a non-positive size.
const DefaultCellSize = 10.0

type cellKey struct {
	cx, cy int64
}

// Grid tracks which entities are in which cell. Not safe for concurrent use;
// it lives in a world resource and is only touched through a write grant.
type Grid struct {
	CellSize float64

	cells map[cellKey]map[ecs.Entity]struct{}
	where map[ecs.Entity]cellKey
}

func NewGrid(cellSize float64) Grid {
	return Grid{CellSize: cellSize}
}

func (g *Grid) init() {
	if g.cells == nil {
		g.cells = make(map[cellKey]map[ecs.Entity]struct{})
		g.where = make(map[ecs.Entity]cellKey)
	}
	if g.CellSize <= 0 {
		g.CellSize = DefaultCellSize
	}
}

func (g *Grid) key(x, y float64) cellKey {
	return cellKey{
		cx: int64(math.Floor(x / g.CellSize)),
		cy: int64(math.Floor(y / g.CellSize)),
	}
}

// Place puts e at (x, y), moving it if it is already in the grid.
func (g *Grid) Place(e ecs.Entity, x, y float64) {
	g.init()
	k := g.key(x, y)
	if old, ok := g.where[e]; ok {
		if old == k {
			return
		}
		g.drop(e, old)
	}
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.Entity]struct{})
		g.cells[k] = cell
	}
	cell[e] = struct{}{}
	g.where[e] = k
}

// Remove takes e out of the grid.
func (g *Grid) Remove(e ecs.Entity) {
	if k, ok := g.where[e]; ok {
		g.drop(e, k)
	}
}

func (g *Grid) drop(e ecs.Entity, k cellKey) {
	if cell := g.cells[k]; cell != nil {
		delete(cell, e)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
	delete(g.where, e)
}

// Contains reports whether e is in the grid.
func (g *Grid) Contains(e ecs.Entity) bool {
	_, ok := g.where[e]
	return ok
}

// Len returns the number of entities in the grid.
func (g *Grid) Len() int { return len(g.where) }

// Cells returns the number of occupied cells.
func (g *Grid) Cells() int { return len(g.cells) }

// Nearby returns the entities in the 3x3 block of cells around (x, y).
// Callers do their own exact distance filtering.
func (g *Grid) Nearby(x, y float64) []ecs.Entity {
	if g.cells == nil {
		return nil
	}
	c := g.key(x, y)
	var out []ecs.Entity
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for e := range g.cells[cellKey{cx: c.cx + dx, cy: c.cy + dy}] {
				out = append(out, e)
			}
		}
	}
	return out
}

// Retain removes every entity keep rejects.
func (g *Grid) Retain(keep func(ecs.Entity) bool) int {
	removed := 0
	for e, k := range g.where {
		if !keep(e) {
			g.drop(e, k)
			removed++
		}
	}
	return removed
}
