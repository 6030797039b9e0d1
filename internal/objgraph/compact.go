package objgraph

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

// trailerRefs returns the references held by the trailer.
func trailerRefs(ctx *model.Context) []types.IndirectRef {
	var refs []types.IndirectRef
	if ctx.Root != nil {
		refs = append(refs, *ctx.Root)
	}
	if ctx.Info != nil {
		refs = append(refs, *ctx.Info)
	}
	return refs
}

// Reachable marks every object reachable from the trailer.
// References to missing objects are skipped; Check reports them.
func Reachable(ctx *model.Context) map[int]bool {
	marked := map[int]bool{}
	stack := trailerRefs(ctx)
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nr := ObjNr(ref)
		if marked[nr] {
			continue
		}
		o, err := Lookup(ctx, ref)
		if err != nil {
			continue
		}
		marked[nr] = true
		stack = append(stack, Refs(o)...)
	}
	return marked
}

// Prune drops every object that cannot be reached from the trailer and
// returns how many were removed.
func Prune(ctx *model.Context) int {
	marked := Reachable(ctx)
	removed := 0
	for nr := range ctx.Table {
		if nr == 0 || marked[nr] {
			continue
		}
		e := ctx.Table[nr]
		delete(ctx.Table, nr)
		if e != nil && !e.Free && e.Object != nil {
			removed++
		}
	}
	// The free list may name entries that were just dropped.
	ctx.Table[0] = freeHead()
	return removed
}

// Renumber reassigns the live objects the numbers first, first+1, ... in
// ascending order of their current numbers and rewrites every reference,
// including the trailer's Root and Info.
func Renumber(ctx *model.Context, first int) error {
	if first < 1 {
		return errors.Errorf("objgraph: invalid first object number %d", first)
	}
	live := Live(ctx)
	mapping := make(map[int]int, len(live))
	for i, nr := range live {
		mapping[nr] = first + i
	}
	fn := func(r types.IndirectRef) (types.IndirectRef, error) {
		nr, ok := mapping[ObjNr(r)]
		if !ok {
			return r, errors.Wrapf(ErrDangling, "object %d", ObjNr(r))
		}
		return Ref(nr), nil
	}

	table := make(map[int]*model.XRefTableEntry, len(live)+1)
	table[0] = freeHead()
	for _, nr := range live {
		o, err := Remap(ctx.Table[nr].Object, fn)
		if err != nil {
			return errors.Wrapf(err, "objgraph: renumbering object %d", nr)
		}
		table[mapping[nr]] = newEntry(o)
	}

	var root, info *types.IndirectRef
	if ctx.Root != nil {
		r, err := fn(*ctx.Root)
		if err != nil {
			return errors.Wrap(err, "objgraph: renumbering trailer root")
		}
		root = &r
	}
	if ctx.Info != nil {
		r, err := fn(*ctx.Info)
		if err != nil {
			return errors.Wrap(err, "objgraph: renumbering trailer info")
		}
		info = &r
	}

	ctx.Table = table
	ctx.Root = root
	ctx.Info = info
	size := first + len(live)
	if len(live) == 0 {
		size = 1
	}
	ctx.Size = &size
	ctx.RootDict = nil
	if root != nil {
		d, err := ResolveDict(ctx, *root)
		if err != nil {
			return errors.Wrap(err, "objgraph: resolving catalog")
		}
		ctx.RootDict = d
	}
	return nil
}

// Compact prunes unreachable objects and renumbers the rest densely from 1.
// It returns the number of objects removed.
func Compact(ctx *model.Context) (int, error) {
	n := Prune(ctx)
	if err := Renumber(ctx, 1); err != nil {
		return n, err
	}
	return n, nil
}

// Check verifies that the trailer and every reference held by a live object
// resolve.
func Check(ctx *model.Context) error {
	if ctx.Root == nil {
		return errors.New("objgraph: trailer has no root")
	}
	for _, ref := range trailerRefs(ctx) {
		if _, err := Lookup(ctx, ref); err != nil {
			return errors.Wrap(err, "objgraph: trailer")
		}
	}
	for _, nr := range Live(ctx) {
		for _, ref := range Refs(ctx.Table[nr].Object) {
			if _, err := Lookup(ctx, ref); err != nil {
				return errors.Wrapf(err, "objgraph: referenced from object %d", nr)
			}
		}
	}
	return nil
}

// Move transfers every live object of src into dst under the same number.
// The caller guarantees the number ranges are disjoint.
func Move(dst, src *model.Context) error {
	for _, nr := range Live(src) {
		if e, ok := dst.Table[nr]; ok && e != nil && !e.Free {
			return errors.Errorf("objgraph: object %d already in use", nr)
		}
		dst.Table[nr] = newEntry(src.Table[nr].Object)
		if dst.Size == nil || *dst.Size <= nr {
			size := nr + 1
			dst.Size = &size
		}
	}
	return nil
}

func freeHead() *model.XRefTableEntry {
	off := int64(0)
	gen := 65535
	return &model.XRefTableEntry{Free: true, Offset: &off, Generation: &gen}
}

func newEntry(o types.Object) *model.XRefTableEntry {
	off := int64(0)
	gen := 0
	return &model.XRefTableEntry{Offset: &off, Generation: &gen, Object: o}
}
