// Package objgraph adds the operations the binder needs on top of pdfcpu's
// cross-reference table: strict dereferencing, reference rewriting, dense
// renumbering and a mark-and-sweep reclamation pass.
//
// The table itself (model.XRefTable) is the object store. Objects are
// addressed by object number; generation numbers are carried along but never
// used for lookup.
package objgraph

import (
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

// maxChain bounds reference-to-reference chains during resolution.
const maxChain = 16

// ObjNr returns the object number ref points to.
func ObjNr(ref types.IndirectRef) int {
	return int(ref.ObjectNumber)
}

// Ref returns a generation 0 reference to object objNr.
func Ref(objNr int) types.IndirectRef {
	return *types.NewIndirectRef(objNr, 0)
}

// AsRef reports whether o is an indirect reference.
func AsRef(o types.Object) (types.IndirectRef, bool) {
	switch r := o.(type) {
	case types.IndirectRef:
		return r, true
	case *types.IndirectRef:
		if r != nil {
			return *r, true
		}
	}
	return types.IndirectRef{}, false
}

// Lookup returns the object stored under ref.
// A reference to a missing or free object is an ErrDangling error.
func Lookup(ctx *model.Context, ref types.IndirectRef) (types.Object, error) {
	e, ok := ctx.Table[ObjNr(ref)]
	if !ok || e == nil || e.Free || e.Object == nil {
		return nil, errors.Wrapf(ErrDangling, "object %d", ObjNr(ref))
	}
	return materialize(ctx, ObjNr(ref), e)
}

// Resolve follows o if it is a reference and returns the direct object.
func Resolve(ctx *model.Context, o types.Object) (types.Object, error) {
	for i := 0; i < maxChain; i++ {
		ref, ok := AsRef(o)
		if !ok {
			return o, nil
		}
		var err error
		if o, err = Lookup(ctx, ref); err != nil {
			return nil, err
		}
	}
	return nil, errors.Errorf("objgraph: reference chain longer than %d", maxChain)
}

// ResolveDict resolves o to a dictionary. A nil o yields a nil dictionary.
func ResolveDict(ctx *model.Context, o types.Object) (types.Dict, error) {
	o, err := Resolve(ctx, o)
	if err != nil || o == nil {
		return nil, err
	}
	d, ok := o.(types.Dict)
	if !ok {
		return nil, errors.Wrapf(ErrType, "want dictionary, got %T", o)
	}
	return d, nil
}

// ResolveArray resolves o to an array. A nil o yields a nil array.
func ResolveArray(ctx *model.Context, o types.Object) (types.Array, error) {
	o, err := Resolve(ctx, o)
	if err != nil || o == nil {
		return nil, err
	}
	a, ok := o.(types.Array)
	if !ok {
		return nil, errors.Wrapf(ErrType, "want array, got %T", o)
	}
	return a, nil
}

// ResolveStream resolves o to a stream. The returned value is a copy of the
// stored stream; its dictionary is shared with the graph.
func ResolveStream(ctx *model.Context, o types.Object) (*types.StreamDict, error) {
	o, err := Resolve(ctx, o)
	if err != nil {
		return nil, err
	}
	switch sd := o.(type) {
	case types.StreamDict:
		return &sd, nil
	case *types.StreamDict:
		if sd != nil {
			return sd, nil
		}
	}
	return nil, errors.Wrapf(ErrType, "want stream, got %T", o)
}

// ResolveNumber resolves o to an integer or real value.
func ResolveNumber(ctx *model.Context, o types.Object) (float64, error) {
	o, err := Resolve(ctx, o)
	if err != nil {
		return 0, err
	}
	if v, ok := Number(o); ok {
		return v, nil
	}
	return 0, errors.Wrapf(ErrType, "want number, got %T", o)
}

// Number converts a direct numeric object to float64.
func Number(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

// StreamContent returns the decoded payload of the stream o refers to.
// Decoding errors are returned, never swallowed.
func StreamContent(ctx *model.Context, o types.Object) ([]byte, error) {
	sd, err := ResolveStream(ctx, o)
	if err != nil {
		return nil, err
	}
	if sd.Content == nil && len(sd.Raw) > 0 {
		if err := sd.Decode(); err != nil {
			return nil, errors.Wrap(err, "objgraph: decoding stream")
		}
	}
	return sd.Content, nil
}

// NewStream creates a flate-compressed stream holding data, with the extra
// dictionary entries from d, and adds it to the graph.
func NewStream(ctx *model.Context, d types.Dict, data []byte) (types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(data)
	if err != nil {
		return types.IndirectRef{}, errors.Wrap(err, "objgraph: new stream")
	}
	for k, v := range d {
		sd.Dict[k] = v
	}
	if err := sd.Encode(); err != nil {
		return types.IndirectRef{}, errors.Wrap(err, "objgraph: encoding stream")
	}
	return Add(ctx, *sd)
}

// Add inserts o as a new indirect object.
func Add(ctx *model.Context, o types.Object) (types.IndirectRef, error) {
	ref, err := ctx.IndRefForNewObject(o)
	if err != nil {
		return types.IndirectRef{}, errors.Wrap(err, "objgraph: adding object")
	}
	return *ref, nil
}

// Remove drops the object ref points to. Removing a missing object is a no-op.
func Remove(ctx *model.Context, ref types.IndirectRef) {
	delete(ctx.Table, ObjNr(ref))
}

// Live returns the sorted numbers of all objects in use.
func Live(ctx *model.Context) []int {
	var nrs []int
	for nr, e := range ctx.Table {
		if nr == 0 || e == nil || e.Free || e.Object == nil {
			continue
		}
		nrs = append(nrs, nr)
	}
	sort.Ints(nrs)
	return nrs
}

// MaxObjNr returns the largest object number in use, or 0 for an empty graph.
func MaxObjNr(ctx *model.Context) int {
	max := 0
	for nr, e := range ctx.Table {
		if e != nil && !e.Free && e.Object != nil && nr > max {
			max = nr
		}
	}
	return max
}

// Refs lists the references contained in o, in encounter order.
// Dictionary keys are visited in sorted order so the result is stable.
func Refs(o types.Object) []types.IndirectRef {
	var out []types.IndirectRef
	var walk func(types.Object)
	walk = func(o types.Object) {
		if ref, ok := AsRef(o); ok {
			out = append(out, ref)
			return
		}
		switch v := o.(type) {
		case types.Dict:
			for _, k := range sortedKeys(v) {
				walk(v[k])
			}
		case types.Array:
			for _, e := range v {
				walk(e)
			}
		case types.StreamDict:
			walk(v.Dict)
		case *types.StreamDict:
			if v != nil {
				walk(v.Dict)
			}
		}
	}
	walk(o)
	return out
}

// Referrers returns the numbers of all live objects that reference objNr.
func Referrers(ctx *model.Context, objNr int) []int {
	var out []int
	for _, nr := range Live(ctx) {
		for _, ref := range Refs(ctx.Table[nr].Object) {
			if ObjNr(ref) == objNr {
				out = append(out, nr)
				break
			}
		}
	}
	return out
}

// Clone deep-copies o. References are copied, not followed.
func Clone(o types.Object) types.Object {
	c, _ := Remap(o, func(r types.IndirectRef) (types.IndirectRef, error) {
		return r, nil
	})
	return c
}

// Remap deep-copies o, replacing every reference by fn's result.
// Stream payloads are shared with the original.
func Remap(o types.Object, fn func(types.IndirectRef) (types.IndirectRef, error)) (types.Object, error) {
	if ref, ok := AsRef(o); ok {
		return fn(ref)
	}
	switch v := o.(type) {
	case types.Dict:
		d := make(types.Dict, len(v))
		for k, e := range v {
			c, err := Remap(e, fn)
			if err != nil {
				return nil, err
			}
			d[k] = c
		}
		return d, nil
	case types.Array:
		a := make(types.Array, len(v))
		for i, e := range v {
			c, err := Remap(e, fn)
			if err != nil {
				return nil, err
			}
			a[i] = c
		}
		return a, nil
	case types.StreamDict:
		return remapStream(v, fn)
	case *types.StreamDict:
		if v == nil {
			return o, nil
		}
		return remapStream(*v, fn)
	}
	return o, nil
}

func remapStream(sd types.StreamDict, fn func(types.IndirectRef) (types.IndirectRef, error)) (types.Object, error) {
	d, err := Remap(sd.Dict, fn)
	if err != nil {
		return nil, err
	}
	sd.Dict = d.(types.Dict)
	if sd.Raw != nil {
		// An indirect /Length would point at a number object that renumbering
		// or pruning may drop; pin it to the payload size.
		n := int64(len(sd.Raw))
		sd.StreamLength = &n
		sd.StreamLengthObjNr = nil
		sd.Dict["Length"] = types.Integer(n)
	}
	return sd, nil
}

func sortedKeys(d types.Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
