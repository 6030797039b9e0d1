// Package compose rewrites page content: the original program is preserved
// inside a Form XObject and new content is drawn around it.
package compose

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
	"seehuhn.de/go/geom/matrix"

	"github.com/hulululuh/KDP-Binder/internal/content"
	"github.com/hulululuh/KDP-Binder/internal/objgraph"
	"github.com/hulululuh/KDP-Binder/internal/pagetree"
)

// OldForm is the resource name under which the original page program is
// drawn.
const OldForm = "OLD_FORM"

// WrapContent packs the page's current content streams into a new Form
// XObject whose bounding box is the page's media box and whose resources
// are a copy of the page's effective resources. ok is false when the page
// has no content; nothing is created then.
func WrapContent(ctx *model.Context, page types.IndirectRef) (form types.IndirectRef, ok bool, err error) {
	refs, err := pagetree.Contents(ctx, page)
	if err != nil || len(refs) == 0 {
		return types.IndirectRef{}, false, err
	}
	data, err := pagetree.ContentBytes(ctx, page)
	if err != nil {
		return types.IndirectRef{}, false, err
	}
	mb, err := pagetree.MediaBox(ctx, page)
	if err != nil {
		return types.IndirectRef{}, false, err
	}
	res, err := pagetree.Resources(ctx, page)
	if err != nil {
		return types.IndirectRef{}, false, err
	}
	d := types.Dict{
		"Type":      types.Name("XObject"),
		"Subtype":   types.Name("Form"),
		"FormType":  types.Integer(1),
		"BBox":      pagetree.BoxArray(mb),
		"Resources": types.Dict{},
	}
	if res != nil {
		d["Resources"] = objgraph.Clone(res)
	}
	form, err = objgraph.NewStream(ctx, d, data)
	if err != nil {
		return types.IndirectRef{}, false, errors.Wrap(err, "creating form")
	}
	return form, true, nil
}

// ReplaceWithForm makes form the only thing page draws, transformed by m.
// The page's resources are reduced to the form itself.
func ReplaceWithForm(ctx *model.Context, page, form types.IndirectRef, m matrix.Matrix) error {
	d, err := pagetree.Page(ctx, page)
	if err != nil {
		return err
	}
	var b content.Builder
	b.Save().Transform(m).Do(OldForm).Restore()
	ref, err := objgraph.NewStream(ctx, nil, b.Bytes())
	if err != nil {
		return err
	}
	d["Resources"] = types.Dict{"XObject": types.Dict{OldForm: form}}
	d["Contents"] = ref
	return nil
}

// resourceCopy returns a copy of res whose category sub-dictionaries are
// direct, so new names can be added without touching shared objects.
func resourceCopy(ctx *model.Context, res types.Dict, categories ...string) (types.Dict, error) {
	out := types.Dict{}
	if res != nil {
		out = objgraph.Clone(res).(types.Dict)
	}
	for _, cat := range categories {
		sub, err := objgraph.ResolveDict(ctx, out[cat])
		if err != nil {
			return nil, errors.Wrapf(err, "/%s", cat)
		}
		if sub == nil {
			out[cat] = types.Dict{}
			continue
		}
		out[cat] = objgraph.Clone(sub)
	}
	return out, nil
}
