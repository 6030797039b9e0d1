package objgraph

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

// Materialize decodes every object still held in an object stream and drops
// the object and xref stream containers, leaving a table of plain objects.
func Materialize(ctx *model.Context) error {
	for nr, e := range ctx.Table {
		if e == nil || e.Free {
			continue
		}
		if _, err := materialize(ctx, nr, e); err != nil {
			return err
		}
	}
	for nr, e := range ctx.Table {
		if e == nil || e.Free || !container(e.Object) {
			continue
		}
		delete(ctx.Table, nr)
	}
	return nil
}

func materialize(ctx *model.Context, nr int, e *model.XRefTableEntry) (types.Object, error) {
	if _, lazy := e.Object.(types.LazyObjectStreamObject); !lazy {
		return e.Object, nil
	}
	gen := 0
	if e.Generation != nil {
		gen = *e.Generation
	}
	o, err := ctx.Dereference(*types.NewIndirectRef(nr, gen))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding object %d", nr)
	}
	if o == nil {
		return nil, errors.Wrapf(ErrDangling, "object %d", nr)
	}
	e.Object = o
	e.Compressed = false
	e.ObjectStream = nil
	e.ObjectStreamInd = nil
	return o, nil
}

func container(o types.Object) bool {
	switch o := o.(type) {
	case types.ObjectStreamDict, types.XRefStreamDict:
		return true
	case types.StreamDict:
		t := o.Type()
		return t != nil && (*t == "ObjStm" || *t == "XRef")
	}
	return false
}
