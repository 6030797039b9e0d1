package pagetree

import (
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"

	"github.com/hulululuh/KDP-Binder/internal/objgraph"
)

// DeletePage unlinks page from the tree, decrements the /Count of every
// ancestor and removes the page together with its content streams.
// Streams that another object still references are kept. Other objects the
// page used are left for the next Prune.
func DeletePage(ctx *model.Context, page types.IndirectRef) error {
	return objgraph.Fail("delete page", deletePage(ctx, page))
}

func deletePage(ctx *model.Context, page types.IndirectRef) error {
	d, err := Page(ctx, page)
	if err != nil {
		return err
	}
	parentRef, ok := objgraph.AsRef(d["Parent"])
	if !ok {
		return errors.Wrapf(ErrNoParent, "page object %d", objgraph.ObjNr(page))
	}
	parent, err := objgraph.ResolveDict(ctx, parentRef)
	if err != nil {
		return errors.Wrap(err, "parent")
	}

	kids, err := objgraph.ResolveArray(ctx, parent["Kids"])
	if err != nil {
		return errors.Wrap(err, "parent /Kids")
	}
	pageNr := objgraph.ObjNr(page)
	kept := make(types.Array, 0, len(kids))
	found := false
	for _, kid := range kids {
		if ref, ok := objgraph.AsRef(kid); ok && objgraph.ObjNr(ref) == pageNr {
			found = true
			continue
		}
		kept = append(kept, kid)
	}
	if !found {
		return errors.Wrapf(ErrInvalidKids, "page object %d missing from its parent", pageNr)
	}
	setArray(ctx, parent, "Kids", kept)

	node, seen := parent, map[int]bool{}
	nodeNr := objgraph.ObjNr(parentRef)
	for depth := 0; ; depth++ {
		if depth > MaxDepth {
			return ErrTooDeep
		}
		if seen[nodeNr] {
			return errors.Wrap(ErrCycle, "ancestors")
		}
		seen[nodeNr] = true
		if err := addCount(ctx, node, -1); err != nil {
			return err
		}
		next, ok := objgraph.AsRef(node["Parent"])
		if !ok {
			break
		}
		if node, err = objgraph.ResolveDict(ctx, next); err != nil {
			return errors.Wrap(err, "ancestor")
		}
		nodeNr = objgraph.ObjNr(next)
	}

	contents, err := Contents(ctx, page)
	if err != nil {
		return err
	}
	holder := map[int]bool{pageNr: true}
	if ref, ok := objgraph.AsRef(d["Contents"]); ok {
		holder[objgraph.ObjNr(ref)] = true
	}
	for _, ref := range contents {
		if sharedBeyond(ctx, objgraph.ObjNr(ref), holder) {
			continue
		}
		objgraph.Remove(ctx, ref)
	}
	objgraph.Remove(ctx, page)
	if ctx.PageCount > 0 {
		ctx.PageCount--
	}
	return nil
}

// sharedBeyond reports whether an object outside holder references objNr.
func sharedBeyond(ctx *model.Context, objNr int, holder map[int]bool) bool {
	for _, nr := range objgraph.Referrers(ctx, objNr) {
		if !holder[nr] {
			return true
		}
	}
	return false
}

// DeletePages deletes the given 1-based page numbers, highest first, and
// compacts the graph so that objects only the deleted pages used disappear.
func DeletePages(ctx *model.Context, numbers []int) error {
	return objgraph.Fail("delete pages", deletePages(ctx, numbers))
}

func deletePages(ctx *model.Context, numbers []int) error {
	pages, err := Pages(ctx)
	if err != nil {
		return err
	}
	uniq := map[int]bool{}
	for _, nr := range numbers {
		if nr < 1 || nr > len(pages) {
			return errors.Wrapf(ErrPageNumber, "page %d of %d", nr, len(pages))
		}
		uniq[nr] = true
	}
	order := make([]int, 0, len(uniq))
	for nr := range uniq {
		order = append(order, nr)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(order)))
	for _, nr := range order {
		if err := deletePage(ctx, pages[nr-1]); err != nil {
			return errors.Wrapf(err, "page %d", nr)
		}
	}
	if _, err := objgraph.Compact(ctx); err != nil {
		return err
	}
	return SyncPageCount(ctx)
}

// RemovePages deletes every page for which drop returns true and returns the
// removed 1-based page numbers in ascending order.
func RemovePages(ctx *model.Context, drop func(types.IndirectRef) (bool, error)) ([]int, error) {
	pages, err := Pages(ctx)
	if err != nil {
		return nil, objgraph.Fail("remove pages", err)
	}
	var removed []int
	for i, page := range pages {
		ok, err := drop(page)
		if err != nil {
			return nil, objgraph.Fail("remove pages", errors.Wrapf(err, "page %d", i+1))
		}
		if ok {
			removed = append(removed, i+1)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := DeletePages(ctx, removed); err != nil {
		return nil, err
	}
	return removed, nil
}
