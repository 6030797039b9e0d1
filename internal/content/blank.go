package content

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"

	"github.com/hulululuh/KDP-Binder/internal/objgraph"
	"github.com/hulululuh/KDP-Binder/internal/pagetree"
)

// MaxFormDepth bounds the nesting of Form XObjects.
const MaxFormDepth = 32

var (
	ErrFormCycle       = errors.New("content: form xobject cycle")
	ErrFormDepth       = errors.New("content: form xobjects nested too deep")
	ErrMissingResource = errors.New("content: missing resource")
)

// marking lists the operators that always put marks on the page.
var marking = map[string]bool{
	// text showing
	"Tj": true, "TJ": true, "'": true, `"`: true,
	// path painting
	"S": true, "s": true, "f": true, "F": true, "f*": true,
	"B": true, "B*": true, "b": true, "b*": true,
	// shading, inline image
	"sh": true, "BI": true,
}

// IsBlank reports whether page puts no mark on the output. A page without
// content streams is blank. The graph is not modified.
func IsBlank(ctx *model.Context, page types.IndirectRef) (bool, error) {
	refs, err := pagetree.Contents(ctx, page)
	if err != nil {
		return false, err
	}
	if len(refs) == 0 {
		return true, nil
	}
	data, err := pagetree.ContentBytes(ctx, page)
	if err != nil {
		return false, err
	}
	ops, err := Decode(data)
	if err != nil {
		return false, err
	}
	res, err := pagetree.Resources(ctx, page)
	if err != nil {
		return false, err
	}
	draws, err := Draws(ctx, ops, res)
	if err != nil {
		return false, err
	}
	return !draws, nil
}

// Draws reports whether ops, interpreted against the resource dictionary
// res, produce any mark. Form XObjects are followed recursively.
func Draws(ctx *model.Context, ops []Op, res types.Dict) (bool, error) {
	in := &interp{ctx: ctx, onPath: map[int]bool{}, done: map[int]bool{}}
	return in.draws(ops, res, 0)
}

type interp struct {
	ctx    *model.Context
	onPath map[int]bool // forms currently being interpreted
	done   map[int]bool // results of forms with their own resources
}

func (in *interp) draws(ops []Op, res types.Dict, depth int) (bool, error) {
	for _, op := range ops {
		if marking[op.Name] {
			return true, nil
		}
		if op.Name != "Do" {
			continue
		}
		if len(op.Args) == 0 {
			return false, errors.Wrap(ErrSyntax, "Do without operand")
		}
		name, ok := op.Args[len(op.Args)-1].(types.Name)
		if !ok {
			return false, errors.Wrapf(ErrSyntax, "Do operand is %T", op.Args[len(op.Args)-1])
		}
		ok, err := in.xobject(string(name), res, depth)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (in *interp) xobject(name string, res types.Dict, depth int) (bool, error) {
	var xobjects types.Dict
	if res != nil {
		var err error
		if xobjects, err = objgraph.ResolveDict(in.ctx, res["XObject"]); err != nil {
			return false, errors.Wrap(err, "/XObject")
		}
	}
	o, ok := xobjects[name]
	if !ok {
		return false, errors.Wrapf(ErrMissingResource, "xobject /%s", name)
	}
	sd, err := objgraph.ResolveStream(in.ctx, o)
	if err != nil {
		return false, errors.Wrapf(err, "xobject /%s", name)
	}
	subtype, _ := sd.Dict["Subtype"].(types.Name)
	switch subtype {
	case "Image":
		return true, nil
	case "Form":
	default:
		return false, nil
	}

	nr := -1
	if ref, isRef := objgraph.AsRef(o); isRef {
		nr = objgraph.ObjNr(ref)
		if in.onPath[nr] {
			return false, errors.Wrapf(ErrFormCycle, "object %d", nr)
		}
	}
	_, ownRes := sd.Dict["Resources"]
	if v, seen := in.done[nr]; seen && ownRes {
		return v, nil
	}
	if depth+1 > MaxFormDepth {
		return false, errors.Wrapf(ErrFormDepth, "xobject /%s", name)
	}

	data, err := objgraph.StreamContent(in.ctx, o)
	if err != nil {
		return false, errors.Wrapf(err, "xobject /%s", name)
	}
	ops, err := Decode(data)
	if err != nil {
		return false, errors.Wrapf(err, "xobject /%s", name)
	}
	formRes := res
	if ownRes {
		if formRes, err = objgraph.ResolveDict(in.ctx, sd.Dict["Resources"]); err != nil {
			return false, errors.Wrapf(err, "xobject /%s resources", name)
		}
	}

	if nr >= 0 {
		in.onPath[nr] = true
		defer delete(in.onPath, nr)
	}
	v, err := in.draws(ops, formRes, depth+1)
	if err != nil {
		return false, err
	}
	if nr >= 0 && ownRes {
		in.done[nr] = v
	}
	return v, nil
}

// RemoveBlankPages deletes every blank page, compacts the graph and returns
// the removed 1-based page numbers.
func RemoveBlankPages(ctx *model.Context) ([]int, error) {
	return pagetree.RemovePages(ctx, func(page types.IndirectRef) (bool, error) {
		return IsBlank(ctx, page)
	})
}
