package pagetree

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
	"seehuhn.de/go/geom/rect"

	"github.com/hulululuh/KDP-Binder/internal/codec"
	"github.com/hulululuh/KDP-Binder/internal/objgraph"
)

// Append moves the pages of addition to the end of base and returns base.
//
// The addition is renumbered above base's highest object number, its leaves
// take over the attributes they inherited and are hung directly under base's
// root. Afterwards base is compacted, which drops the addition's catalog and
// intermediate nodes. addition must not be used afterwards.
func Append(base, addition *model.Context) (*model.Context, error) {
	out, err := appendDoc(base, addition)
	return out, objgraph.Fail("append", err)
}

func appendDoc(base, addition *model.Context) (*model.Context, error) {
	baseRootRef, baseRoot, err := Root(base)
	if err != nil {
		return nil, errors.Wrap(err, "base")
	}
	if _, _, err := Root(addition); err != nil {
		return nil, errors.Wrap(err, "addition")
	}

	objgraph.Prune(addition)
	if err := objgraph.Renumber(addition, objgraph.MaxObjNr(base)+1); err != nil {
		return nil, errors.Wrap(err, "renumbering addition")
	}

	leaves, err := Pages(addition)
	if err != nil {
		return nil, errors.Wrap(err, "addition")
	}
	for _, leaf := range leaves {
		if err := adopt(addition, leaf, baseRootRef, baseRoot); err != nil {
			return nil, errors.Wrapf(err, "page object %d", objgraph.ObjNr(leaf))
		}
	}

	if err := objgraph.Move(base, addition); err != nil {
		return nil, err
	}

	kids, err := objgraph.ResolveArray(base, baseRoot["Kids"])
	if err != nil {
		return nil, errors.Wrap(err, "base /Kids")
	}
	merged := make(types.Array, 0, len(kids)+len(leaves))
	merged = append(merged, kids...)
	for _, leaf := range leaves {
		merged = append(merged, leaf)
	}
	setArray(base, baseRoot, "Kids", merged)
	if err := addCount(base, baseRoot, len(leaves)); err != nil {
		return nil, err
	}

	if _, err := objgraph.Compact(base); err != nil {
		return nil, err
	}
	if err := SyncPageCount(base); err != nil {
		return nil, err
	}
	return base, nil
}

// adopt copies inherited attributes onto leaf and re-parents it to the base
// root. Attributes the base root would otherwise pass down are neutralised.
func adopt(ctx *model.Context, leaf, rootRef types.IndirectRef, root types.Dict) error {
	d, err := Page(ctx, leaf)
	if err != nil {
		return err
	}
	for _, key := range Inheritable {
		if _, ok := d[key]; ok {
			continue
		}
		v, err := Inherited(ctx, leaf, key)
		if err != nil {
			return err
		}
		if v != nil {
			d[key] = objgraph.Clone(v)
			continue
		}
		if _, ok := root[key]; !ok {
			continue
		}
		switch key {
		case "Resources":
			d[key] = types.Dict{}
		case "Rotate":
			d[key] = types.Integer(0)
		case "CropBox":
			if mb, ok := d["MediaBox"]; ok {
				d[key] = objgraph.Clone(mb)
			}
		}
	}
	d["Parent"] = rootRef
	return nil
}

// EnforcePageSize sets /MediaBox and /CropBox of every page to r, overwrites
// any /TrimBox and drops /BleedBox and /ArtBox.
func EnforcePageSize(ctx *model.Context, r rect.Rect) error {
	pages, err := Pages(ctx)
	if err != nil {
		return objgraph.Fail("enforce page size", err)
	}
	for _, page := range pages {
		d, err := Page(ctx, page)
		if err != nil {
			return objgraph.Fail("enforce page size", err)
		}
		d["MediaBox"] = BoxArray(r)
		d["CropBox"] = BoxArray(r)
		if _, ok := d["TrimBox"]; ok {
			d["TrimBox"] = BoxArray(r)
		}
		delete(d, "BleedBox")
		delete(d, "ArtBox")
	}
	return nil
}

// BlankPage returns a one-page document whose page is w by h points and has
// an empty content stream.
func BlankPage(w, h float64) (*model.Context, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("pagetree: invalid page size %gx%g", w, h)
	}
	ctx, err := codec.Blank()
	if err != nil {
		return nil, err
	}
	if err := EnforcePageSize(ctx, rect.Rect{URx: w, URy: h}); err != nil {
		return nil, err
	}
	return ctx, nil
}
