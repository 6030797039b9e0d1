package compose

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
	"seehuhn.de/go/geom/rect"

	"github.com/hulululuh/KDP-Binder/internal/objgraph"
	"github.com/hulululuh/KDP-Binder/internal/pagetree"
)

// DefaultEpsilon is the safe-area inset, 0.001 in expressed in points.
const DefaultEpsilon = 0.001 * 72

// RepositionOptions configures safe-area repositioning.
type RepositionOptions struct {
	Mode    FitMode
	Epsilon float64 // inset of the safe rectangle in points; 0 selects DefaultEpsilon
}

func (o RepositionOptions) epsilon() float64 {
	if o.Epsilon == 0 {
		return DefaultEpsilon
	}
	return o.Epsilon
}

// SafeRect returns the safe rectangle for the 1-based page index: recto for
// odd indices, verso for even ones.
func SafeRect(index int, verso, recto rect.Rect) rect.Rect {
	if index%2 == 1 {
		return recto
	}
	return verso
}

// Inset shrinks r by d on every side.
func Inset(r rect.Rect, d float64) rect.Rect {
	return rect.Rect{LLx: r.LLx + d, LLy: r.LLy + d, URx: r.URx - d, URy: r.URy - d}
}

// Reposition moves the content of page into its safe rectangle. The page's
// visible box stands in for the ink extents. Pages without content are left
// alone; moved reports whether the page was changed.
func Reposition(ctx *model.Context, page types.IndirectRef, index int, verso, recto rect.Rect, opts RepositionOptions) (moved bool, err error) {
	moved, err = reposition(ctx, page, index, verso, recto, opts)
	return moved, objgraph.Fail("reposition", err)
}

func reposition(ctx *model.Context, page types.IndirectRef, index int, verso, recto rect.Rect, opts RepositionOptions) (bool, error) {
	safe := Inset(SafeRect(index, verso, recto), opts.epsilon())
	if safe.Dx() <= 0 || safe.Dy() <= 0 {
		return false, errors.Errorf("empty safe area for page %d", index)
	}
	ink, err := pagetree.VisibleBox(ctx, page)
	if err != nil {
		return false, err
	}
	form, ok, err := WrapContent(ctx, page)
	if err != nil || !ok {
		return false, err
	}
	h, v, maxScale := Policy(ink, safe)
	p := Fit(ink, safe, h, v, opts.Mode, maxScale)
	if err := ReplaceWithForm(ctx, page, form, p.Matrix()); err != nil {
		return false, err
	}
	return true, nil
}

// RepositionAll repositions every page and compacts the graph. It returns
// the number of pages changed.
func RepositionAll(ctx *model.Context, verso, recto rect.Rect, opts RepositionOptions) (int, error) {
	pages, err := pagetree.Pages(ctx)
	if err != nil {
		return 0, objgraph.Fail("reposition", err)
	}
	n := 0
	for i, page := range pages {
		moved, err := Reposition(ctx, page, i+1, verso, recto, opts)
		if err != nil {
			return n, errors.Wrapf(err, "page %d", i+1)
		}
		if moved {
			n++
		}
	}
	if _, err := objgraph.Compact(ctx); err != nil {
		return n, objgraph.Fail("reposition", err)
	}
	return n, nil
}
