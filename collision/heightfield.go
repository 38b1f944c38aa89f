package collision

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// HeightField is a rectangular terrain patch. Heights are vertex values
// relative to the owning body's origin, row-major with Width vertices per row.
type HeightField struct {
	CellSize float32
	Width    int
	Depth    int
	Heights  []float32
}

// heightfield sweeps are sampled rather than solved analytically; this many
// samples keeps the error well under the collision margin for per-step motion.
const fieldSweepSamples = 16

func (f *HeightField) heightAt(x, y float32) (float32, bool) {
	fx, fy := x/f.CellSize, y/f.CellSize
	if fx < 0 || fy < 0 || fx > float32(f.Width-1) || fy > float32(f.Depth-1) {
		return 0, false
	}

	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	if x0 >= f.Width-1 {
		x0 = f.Width - 2
	}
	if y0 >= f.Depth-1 {
		y0 = f.Depth - 2
	}
	tx, ty := fx-float32(x0), fy-float32(y0)

	h00 := f.Heights[y0*f.Width+x0]
	h10 := f.Heights[y0*f.Width+x0+1]
	h01 := f.Heights[(y0+1)*f.Width+x0]
	h11 := f.Heights[(y0+1)*f.Width+x0+1]

	top := h00 + (h10-h00)*tx
	bottom := h01 + (h11-h01)*tx
	return top + (bottom-top)*ty, true
}

func (f *HeightField) normalAt(x, y float32) mgl32.Vec3 {
	step := f.CellSize * 0.5
	hl, okL := f.heightAt(x-step, y)
	hr, okR := f.heightAt(x+step, y)
	hd, okD := f.heightAt(x, y-step)
	hu, okU := f.heightAt(x, y+step)
	if !okL || !okR || !okD || !okU {
		return mgl32.Vec3{0, 0, 1}
	}

	n := mgl32.Vec3{(hl - hr) / (2 * step), (hd - hu) / (2 * step), 1}
	return n.Normalize()
}

// bounds returns the world-space bounds of the field placed at origin.
func (f *HeightField) bounds(origin mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	maxH := float32(-math32.MaxFloat32)
	minH := float32(math32.MaxFloat32)
	for _, h := range f.Heights {
		maxH = math32.Max(maxH, h)
		minH = math32.Min(minH, h)
	}
	min := origin.Add(mgl32.Vec3{0, 0, minH - 1})
	max := origin.Add(mgl32.Vec3{
		f.CellSize * float32(f.Width-1),
		f.CellSize * float32(f.Depth-1),
		maxH,
	})
	return min, max
}

// sweepBoxField traces the bottom face of a moving box against the terrain
// surface by sampling along the motion and interpolating the crossing.
func sweepBoxField(from, to, half, origin mgl32.Vec3, f *HeightField) (fraction float32, hitPos, normal mgl32.Vec3, ok bool) {
	delta := to.Sub(from)

	clearance := func(t float32) (float32, bool) {
		p := from.Add(delta.Mul(t))
		h, inField := f.heightAt(p.X()-origin.X(), p.Y()-origin.Y())
		if !inField {
			return 0, false
		}
		surface := origin.Z() + h
		bottom := p.Z() - half.Z()
		return bottom - surface, true
	}

	prevT := float32(0)
	prevClear, prevOK := clearance(0)
	if prevOK && prevClear <= 0 {
		x, y := from.X(), from.Y()
		h, _ := f.heightAt(x-origin.X(), y-origin.Y())
		return 0, mgl32.Vec3{x, y, origin.Z() + h}, f.normalAt(x-origin.X(), y-origin.Y()), true
	}

	for i := 1; i <= fieldSweepSamples; i++ {
		t := float32(i) / fieldSweepSamples
		clear, inField := clearance(t)
		if !inField {
			prevT, prevClear, prevOK = t, 0, false
			continue
		}
		if clear > 0 || !prevOK {
			prevT, prevClear, prevOK = t, clear, true
			continue
		}

		// Crossed the surface between the previous sample and this one.
		frac := prevT
		if diff := prevClear - clear; diff > sweepEpsilon {
			frac = prevT + (t-prevT)*(prevClear/diff)
		}
		p := from.Add(delta.Mul(frac))
		lx, ly := p.X()-origin.X(), p.Y()-origin.Y()
		h, _ := f.heightAt(lx, ly)
		return frac, mgl32.Vec3{p.X(), p.Y(), origin.Z() + h}, f.normalAt(lx, ly), true
	}
	return 1, mgl32.Vec3{}, mgl32.Vec3{}, false
}
