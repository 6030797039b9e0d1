package compose

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// Anchor positions a box along one axis of a larger one.
type Anchor int

const (
	Start  Anchor = iota // left or bottom
	Center               // centred
	End                  // right or top
)

func (a Anchor) String() string {
	switch a {
	case Start:
		return "start"
	case Center:
		return "center"
	case End:
		return "end"
	}
	return "unknown"
}

// FitMode selects how content is scaled into a target rectangle.
type FitMode int

const (
	// Contain scales until the content fits entirely.
	Contain FitMode = iota
	// Cover scales until the content fills the target on both axes.
	Cover
)

func (m FitMode) String() string {
	if m == Cover {
		return "cover"
	}
	return "contain"
}

// SparseThreshold is the ink-to-safe-area ratio below which a page counts
// as sparse.
const SparseThreshold = 0.12

// Placement is a uniform scale followed by a translation.
type Placement struct {
	Scale  float64
	Tx, Ty float64
}

// Matrix returns the placement as a transformation matrix.
func (p Placement) Matrix() matrix.Matrix {
	return matrix.Scale(p.Scale, p.Scale).Mul(matrix.Translate(p.Tx, p.Ty))
}

// Apply maps r through the placement.
func (p Placement) Apply(r rect.Rect) rect.Rect {
	return rect.Rect{
		LLx: p.Scale*r.LLx + p.Tx,
		LLy: p.Scale*r.LLy + p.Ty,
		URx: p.Scale*r.URx + p.Tx,
		URy: p.Scale*r.URy + p.Ty,
	}
}

// Fit computes the placement of ink inside safe. The scale is the smaller
// (Contain) or larger (Cover) of the two axis ratios, capped at maxScale
// when maxScale > 0. Axes along which ink has no extent are ignored.
func Fit(ink, safe rect.Rect, h, v Anchor, mode FitMode, maxScale float64) Placement {
	var ratios []float64
	if ink.Dx() > 0 {
		ratios = append(ratios, safe.Dx()/ink.Dx())
	}
	if ink.Dy() > 0 {
		ratios = append(ratios, safe.Dy()/ink.Dy())
	}
	s := 1.0
	for i, r := range ratios {
		switch {
		case i == 0:
			s = r
		case mode == Cover:
			s = math.Max(s, r)
		default:
			s = math.Min(s, r)
		}
	}
	if maxScale > 0 && s > maxScale {
		s = maxScale
	}
	return Placement{
		Scale: s,
		Tx:    anchor(h, safe.LLx, safe.URx, s*ink.Dx()) - s*ink.LLx,
		Ty:    anchor(v, safe.LLy, safe.URy, s*ink.Dy()) - s*ink.LLy,
	}
}

// anchor returns where a span of length n starts inside [lo, hi].
func anchor(a Anchor, lo, hi, n float64) float64 {
	switch a {
	case Start:
		return lo
	case End:
		return hi - n
	}
	return lo + (hi-lo-n)/2
}

// Policy chooses anchors and a scale cap for ink inside safe. Sparse
// content sits at the bottom centre and is never enlarged; everything else
// is centred without a cap.
func Policy(ink, safe rect.Rect) (h, v Anchor, maxScale float64) {
	safeArea := safe.Dx() * safe.Dy()
	if safeArea > 0 && ink.Dx()*ink.Dy()/safeArea < SparseThreshold {
		return Center, Start, 1
	}
	return Center, Center, 0
}
