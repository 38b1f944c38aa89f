package collision

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type gridKey struct {
	x, y, z int32
}

// spatialGrid is the broad phase: a hash of fixed-size cells to the handles of
// the bodies whose bounds touch them.
type spatialGrid struct {
	cellSize float32
	cells    map[gridKey][]Handle
}

func newSpatialGrid(cellSize float32) *spatialGrid {
	return &spatialGrid{
		cellSize: cellSize,
		cells:    make(map[gridKey][]Handle),
	}
}

func (g *spatialGrid) cellIndex(v float32) int32 {
	return int32(math32.Floor(v / g.cellSize))
}

func (g *spatialGrid) insert(h Handle, min, max mgl32.Vec3) {
	g.eachCell(min, max, func(key gridKey) {
		g.cells[key] = append(g.cells[key], h)
	})
}

func (g *spatialGrid) remove(h Handle, min, max mgl32.Vec3) {
	g.eachCell(min, max, func(key gridKey) {
		list := g.cells[key]
		for i, other := range list {
			if other == h {
				g.cells[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(g.cells[key]) == 0 {
			delete(g.cells, key)
		}
	})
}

func (g *spatialGrid) eachCell(min, max mgl32.Vec3, fn func(gridKey)) {
	minX, maxX := g.cellIndex(min.X()), g.cellIndex(max.X())
	minY, maxY := g.cellIndex(min.Y()), g.cellIndex(max.Y())
	minZ, maxZ := g.cellIndex(min.Z()), g.cellIndex(max.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				fn(gridKey{x: x, y: y, z: z})
			}
		}
	}
}

// query returns the handles of all bodies whose bounds touch the given region,
// deduplicated and sorted by slot index so callers visit bodies in a stable
// order.
func (g *spatialGrid) query(min, max mgl32.Vec3) []Handle {
	seen := make(map[Handle]struct{})
	var result []Handle
	g.eachCell(min, max, func(key gridKey) {
		for _, h := range g.cells[key] {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			result = append(result, h)
		}
	})

	slices.SortFunc(result, func(a, b Handle) int {
		return int(a.index) - int(b.index)
	})
	return result
}
