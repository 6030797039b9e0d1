// Package render turns vector sources into single-page documents of a given
// size.
package render

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
	"seehuhn.de/go/geom/rect"

	"github.com/hulululuh/KDP-Binder/internal/codec"
	"github.com/hulululuh/KDP-Binder/internal/compose"
	"github.com/hulululuh/KDP-Binder/internal/objgraph"
	"github.com/hulululuh/KDP-Binder/internal/pagetree"
)

// ErrEmptySource is returned for sources without pages.
var ErrEmptySource = errors.New("render: source has no pages")

// Renderer draws a vector source onto a new w by h point page.
type Renderer interface {
	RenderPage(src codec.Source, w, h float64) (*model.Context, error)
}

// PDF renders vector PDF sources. The first page of the source is kept as a
// form, scaled to fit and centred on the target page.
type PDF struct{}

var _ Renderer = PDF{}

func (PDF) RenderPage(src codec.Source, w, h float64) (*model.Context, error) {
	ctx, err := renderPDF(src, w, h)
	if err != nil {
		return nil, objgraph.Fail("render "+src.Name(), err)
	}
	return ctx, nil
}

func renderPDF(src codec.Source, w, h float64) (*model.Context, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("invalid page size %gx%g", w, h)
	}
	ctx, err := codec.LoadSource(src)
	if err != nil {
		return nil, err
	}
	n, err := pagetree.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptySource
	}
	if n > 1 {
		extra := make([]int, 0, n-1)
		for i := 2; i <= n; i++ {
			extra = append(extra, i)
		}
		if err := pagetree.DeletePages(ctx, extra); err != nil {
			return nil, err
		}
	}

	page, err := pagetree.Ref(ctx, 1)
	if err != nil {
		return nil, err
	}
	target := rect.Rect{URx: w, URy: h}
	ink, err := pagetree.VisibleBox(ctx, page)
	if err != nil {
		return nil, err
	}
	form, ok, err := compose.WrapContent(ctx, page)
	if err != nil {
		return nil, err
	}
	if ok {
		p := compose.Fit(ink, target, compose.Center, compose.Center, compose.Contain, 0)
		if err := compose.ReplaceWithForm(ctx, page, form, p.Matrix()); err != nil {
			return nil, err
		}
	}

	d, err := pagetree.Page(ctx, page)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"TrimBox", "BleedBox", "ArtBox"} {
		delete(d, key)
	}
	rot, err := pagetree.Inherited(ctx, page, "Rotate")
	if err != nil {
		return nil, err
	}
	if rot != nil {
		d["Rotate"] = pagetree.Number(0)
	}
	if err := pagetree.EnforcePageSize(ctx, target); err != nil {
		return nil, err
	}
	if _, err := objgraph.Compact(ctx); err != nil {
		return nil, err
	}
	return ctx, pagetree.SyncPageCount(ctx)
}
