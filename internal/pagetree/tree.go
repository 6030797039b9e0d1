// Package pagetree reads and edits the page tree held in a pdfcpu context:
// leaf enumeration, attribute inheritance, page boxes, content streams,
// merging and page deletion.
package pagetree

import (
	"bytes"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
	"seehuhn.de/go/geom/rect"

	"github.com/hulululuh/KDP-Binder/internal/objgraph"
)

// MaxDepth bounds the nesting of page tree nodes.
const MaxDepth = 64

// Inheritable lists the page attributes a leaf may take from its ancestors.
var Inheritable = []string{"MediaBox", "CropBox", "Resources", "Rotate"}

// Root returns the page tree root referenced by the catalog's /Pages entry.
func Root(ctx *model.Context) (types.IndirectRef, types.Dict, error) {
	if ctx == nil || ctx.XRefTable == nil || ctx.Root == nil {
		return types.IndirectRef{}, nil, ErrNoRoot
	}
	catalog, err := objgraph.ResolveDict(ctx, *ctx.Root)
	if err != nil || catalog == nil {
		return types.IndirectRef{}, nil, errors.Wrap(ErrNoRoot, "catalog")
	}
	ref, ok := objgraph.AsRef(catalog["Pages"])
	if !ok {
		return types.IndirectRef{}, nil, errors.Wrap(ErrNoRoot, "catalog has no /Pages reference")
	}
	root, err := objgraph.ResolveDict(ctx, ref)
	if err != nil || root == nil {
		return types.IndirectRef{}, nil, errors.Wrapf(ErrNoRoot, "object %d", objgraph.ObjNr(ref))
	}
	return ref, root, nil
}

// Pages returns the leaf pages in document order.
func Pages(ctx *model.Context) ([]types.IndirectRef, error) {
	rootRef, _, err := Root(ctx)
	if err != nil {
		return nil, err
	}
	var pages []types.IndirectRef
	onPath := map[int]bool{}
	var walk func(ref types.IndirectRef, depth int) error
	walk = func(ref types.IndirectRef, depth int) error {
		if depth > MaxDepth {
			return ErrTooDeep
		}
		nr := objgraph.ObjNr(ref)
		if onPath[nr] {
			return errors.Wrapf(ErrCycle, "object %d", nr)
		}
		node, err := objgraph.ResolveDict(ctx, ref)
		if err != nil {
			return err
		}
		if !isNode(node) {
			pages = append(pages, ref)
			return nil
		}
		kids, err := objgraph.ResolveArray(ctx, node["Kids"])
		if err != nil {
			return err
		}
		onPath[nr] = true
		for _, kid := range kids {
			kidRef, ok := objgraph.AsRef(kid)
			if !ok {
				return errors.Wrapf(ErrInvalidKids, "object %d", nr)
			}
			if err := walk(kidRef, depth+1); err != nil {
				return err
			}
		}
		delete(onPath, nr)
		return nil
	}
	if err := walk(rootRef, 0); err != nil {
		return nil, err
	}
	return pages, nil
}

// isNode reports whether d is an intermediate node of the page tree.
func isNode(d types.Dict) bool {
	if t, ok := d["Type"].(types.Name); ok {
		return t == "Pages"
	}
	_, hasKids := d["Kids"]
	return hasKids
}

// Page returns the dictionary of the given page.
func Page(ctx *model.Context, page types.IndirectRef) (types.Dict, error) {
	d, err := objgraph.ResolveDict(ctx, page)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.Wrapf(objgraph.ErrType, "page %d is null", objgraph.ObjNr(page))
	}
	return d, nil
}

// Inherited returns the value of key on page or on its nearest ancestor
// carrying it. The value is returned as stored, references are not followed.
// A nil result means no node on the path defines key.
func Inherited(ctx *model.Context, page types.IndirectRef, key string) (types.Object, error) {
	ref := page
	seen := map[int]bool{}
	for depth := 0; depth <= MaxDepth; depth++ {
		nr := objgraph.ObjNr(ref)
		if seen[nr] {
			return nil, errors.Wrapf(ErrCycle, "parent chain of page %d", objgraph.ObjNr(page))
		}
		seen[nr] = true
		d, err := objgraph.ResolveDict(ctx, ref)
		if err != nil {
			return nil, err
		}
		if v, ok := d[key]; ok && v != nil {
			return v, nil
		}
		parent, ok := objgraph.AsRef(d["Parent"])
		if !ok {
			return nil, nil
		}
		ref = parent
	}
	return nil, ErrTooDeep
}

// MediaBox returns the effective media box of page.
func MediaBox(ctx *model.Context, page types.IndirectRef) (rect.Rect, error) {
	o, err := Inherited(ctx, page, "MediaBox")
	if err != nil {
		return rect.Rect{}, err
	}
	if o == nil {
		return rect.Rect{}, errors.Wrapf(ErrNoMediaBox, "page %d", objgraph.ObjNr(page))
	}
	return box(ctx, o)
}

// VisibleBox returns the page's TrimBox, else its CropBox, else its MediaBox.
func VisibleBox(ctx *model.Context, page types.IndirectRef) (rect.Rect, error) {
	d, err := Page(ctx, page)
	if err != nil {
		return rect.Rect{}, err
	}
	if o, ok := d["TrimBox"]; ok {
		return box(ctx, o)
	}
	o, err := Inherited(ctx, page, "CropBox")
	if err != nil {
		return rect.Rect{}, err
	}
	if o != nil {
		return box(ctx, o)
	}
	return MediaBox(ctx, page)
}

// box converts a rectangle array into a normalised rect.Rect.
func box(ctx *model.Context, o types.Object) (rect.Rect, error) {
	a, err := objgraph.ResolveArray(ctx, o)
	if err != nil {
		return rect.Rect{}, err
	}
	if len(a) != 4 {
		return rect.Rect{}, errors.Wrapf(objgraph.ErrType, "rectangle with %d entries", len(a))
	}
	var v [4]float64
	for i, e := range a {
		if v[i], err = objgraph.ResolveNumber(ctx, e); err != nil {
			return rect.Rect{}, err
		}
	}
	return rect.Rect{
		LLx: math.Min(v[0], v[2]),
		LLy: math.Min(v[1], v[3]),
		URx: math.Max(v[0], v[2]),
		URy: math.Max(v[1], v[3]),
	}, nil
}

// BoxArray encodes r as a PDF rectangle. Whole numbers are written as integers.
func BoxArray(r rect.Rect) types.Array {
	return types.Array{Number(r.LLx), Number(r.LLy), Number(r.URx), Number(r.URy)}
}

// Number returns v as an Integer when it is whole, else as a Float.
func Number(v float64) types.Object {
	if v == math.Trunc(v) && math.Abs(v) < 1<<31 {
		return types.Integer(int(v))
	}
	return types.Float(v)
}

// Resources returns the effective resource dictionary of page, or nil.
func Resources(ctx *model.Context, page types.IndirectRef) (types.Dict, error) {
	o, err := Inherited(ctx, page, "Resources")
	if err != nil || o == nil {
		return nil, err
	}
	return objgraph.ResolveDict(ctx, o)
}

// Contents returns the references of the page's content streams in order.
func Contents(ctx *model.Context, page types.IndirectRef) ([]types.IndirectRef, error) {
	d, err := Page(ctx, page)
	if err != nil {
		return nil, err
	}
	o := d["Contents"]
	if o == nil {
		return nil, nil
	}
	if ref, ok := objgraph.AsRef(o); ok {
		target, err := objgraph.Lookup(ctx, ref)
		if err != nil {
			return nil, err
		}
		if _, isArray := target.(types.Array); !isArray {
			return []types.IndirectRef{ref}, nil
		}
		o = target
	}
	a, ok := o.(types.Array)
	if !ok {
		return nil, errors.Wrapf(objgraph.ErrType, "page %d: /Contents is %T", objgraph.ObjNr(page), o)
	}
	refs := make([]types.IndirectRef, 0, len(a))
	for _, e := range a {
		ref, ok := objgraph.AsRef(e)
		if !ok {
			return nil, errors.Wrapf(objgraph.ErrType, "page %d: direct object in /Contents", objgraph.ObjNr(page))
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ContentBytes returns the decoded content streams of page, each followed by
// a newline.
func ContentBytes(ctx *model.Context, page types.IndirectRef) ([]byte, error) {
	refs, err := Contents(ctx, page)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, ref := range refs {
		data, err := objgraph.StreamContent(ctx, ref)
		if err != nil {
			return nil, errors.Wrapf(err, "content stream %d", objgraph.ObjNr(ref))
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Count returns the number of leaf pages.
func Count(ctx *model.Context) (int, error) {
	pages, err := Pages(ctx)
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// SyncPageCount stores the page count in ctx.PageCount.
func SyncPageCount(ctx *model.Context) error {
	n, err := Count(ctx)
	if err != nil {
		return err
	}
	ctx.PageCount = n
	return nil
}

// Ref returns the reference of the 1-based page number nr.
func Ref(ctx *model.Context, nr int) (types.IndirectRef, error) {
	pages, err := Pages(ctx)
	if err != nil {
		return types.IndirectRef{}, err
	}
	if nr < 1 || nr > len(pages) {
		return types.IndirectRef{}, errors.Wrapf(ErrPageNumber, "page %d of %d", nr, len(pages))
	}
	return pages[nr-1], nil
}

// setArray stores a in d[key], writing through an indirect array if d holds
// one.
func setArray(ctx *model.Context, d types.Dict, key string, a types.Array) {
	if ref, ok := objgraph.AsRef(d[key]); ok {
		if e, ok := ctx.Table[objgraph.ObjNr(ref)]; ok && e != nil && !e.Free {
			if _, isArray := e.Object.(types.Array); isArray {
				e.Object = a
				return
			}
		}
	}
	d[key] = a
}

// addCount adds delta to the /Count entry of d.
func addCount(ctx *model.Context, d types.Dict, delta int) error {
	n := 0.0
	if c, ok := d["Count"]; ok {
		var err error
		if n, err = objgraph.ResolveNumber(ctx, c); err != nil {
			return errors.Wrap(err, "/Count")
		}
	}
	d["Count"] = types.Integer(int(n) + delta)
	return nil
}
