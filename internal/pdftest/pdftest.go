// Package pdftest builds small documents in memory for tests.
package pdftest

import (
	"bytes"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/hulululuh/KDP-Binder/internal/codec"
	"github.com/hulululuh/KDP-Binder/internal/objgraph"
)

// Letter is the default page box, 8.5 x 11 in.
var Letter = types.Array{types.Integer(0), types.Integer(0), types.Integer(612), types.Integer(792)}

// Page describes a leaf added by AddPage.
type Page struct {
	Content   string
	NoContent bool        // omit /Contents entirely
	Resources types.Dict  // nil leaves /Resources unset
	MediaBox  types.Array // nil selects Letter, unless Inherit is set
	Inherit   bool        // take /MediaBox from an ancestor
}

// Empty returns a document with an empty page tree.
func Empty(t testing.TB) *model.Context {
	t.Helper()
	ctx, err := codec.Blank()
	if err != nil {
		t.Fatal(err)
	}
	_, root := Root(t, ctx)
	root["Kids"] = types.Array{}
	root["Count"] = types.Integer(0)
	if _, err := objgraph.Compact(ctx); err != nil {
		t.Fatal(err)
	}
	ctx.PageCount = 0
	return ctx
}

// Doc returns a flat document with one page per content string.
func Doc(t testing.TB, contents ...string) *model.Context {
	t.Helper()
	ctx := Empty(t)
	rootRef, _ := Root(t, ctx)
	for _, c := range contents {
		AddPage(t, ctx, rootRef, Page{Content: c})
	}
	return ctx
}

// Root returns the page tree root.
func Root(t testing.TB, ctx *model.Context) (types.IndirectRef, types.Dict) {
	t.Helper()
	catalog, err := objgraph.ResolveDict(ctx, *ctx.Root)
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := objgraph.AsRef(catalog["Pages"])
	if !ok {
		t.Fatal("catalog without /Pages")
	}
	d, err := objgraph.ResolveDict(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	return ref, d
}

// AddNode adds an intermediate node with the given attributes below parent.
func AddNode(t testing.TB, ctx *model.Context, parent types.IndirectRef, attrs types.Dict) types.IndirectRef {
	t.Helper()
	d := types.Dict{
		"Type":   types.Name("Pages"),
		"Kids":   types.Array{},
		"Count":  types.Integer(0),
		"Parent": parent,
	}
	for k, v := range attrs {
		d[k] = v
	}
	ref := add(t, ctx, d)
	link(t, ctx, parent, ref, 0)
	return ref
}

// AddPage adds a leaf below parent and updates the counts of all ancestors.
func AddPage(t testing.TB, ctx *model.Context, parent types.IndirectRef, p Page) types.IndirectRef {
	t.Helper()
	d := types.Dict{
		"Type":   types.Name("Page"),
		"Parent": parent,
	}
	switch {
	case p.MediaBox != nil:
		d["MediaBox"] = p.MediaBox
	case !p.Inherit:
		d["MediaBox"] = Letter
	}
	if p.Resources != nil {
		d["Resources"] = p.Resources
	}
	if !p.NoContent {
		d["Contents"] = Stream(t, ctx, nil, p.Content)
	}
	ref := add(t, ctx, d)
	link(t, ctx, parent, ref, 1)
	ctx.PageCount++
	return ref
}

// link appends kid to parent's /Kids and adds leaves to every count on the
// way to the root.
func link(t testing.TB, ctx *model.Context, parent, kid types.IndirectRef, leaves int) {
	t.Helper()
	d, err := objgraph.ResolveDict(ctx, parent)
	if err != nil {
		t.Fatal(err)
	}
	kids, _ := d["Kids"].(types.Array)
	d["Kids"] = append(kids, kid)
	for d != nil {
		n, _ := d["Count"].(types.Integer)
		d["Count"] = n + types.Integer(leaves)
		up, ok := objgraph.AsRef(d["Parent"])
		if !ok {
			break
		}
		if d, err = objgraph.ResolveDict(ctx, up); err != nil {
			t.Fatal(err)
		}
	}
}

func add(t testing.TB, ctx *model.Context, o types.Object) types.IndirectRef {
	t.Helper()
	ref, err := objgraph.Add(ctx, o)
	if err != nil {
		t.Fatal(err)
	}
	return ref
}

// Add inserts o as a new object.
func Add(t testing.TB, ctx *model.Context, o types.Object) types.IndirectRef {
	t.Helper()
	return add(t, ctx, o)
}

// Stream adds a compressed stream with the extra entries d.
func Stream(t testing.TB, ctx *model.Context, d types.Dict, data string) types.IndirectRef {
	t.Helper()
	ref, err := objgraph.NewStream(ctx, d, []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	return ref
}

// Form adds a Form XObject drawing data.
func Form(t testing.TB, ctx *model.Context, data string, res types.Dict) types.IndirectRef {
	t.Helper()
	d := types.Dict{
		"Type":    types.Name("XObject"),
		"Subtype": types.Name("Form"),
		"BBox":    Letter,
	}
	if res != nil {
		d["Resources"] = res
	}
	return Stream(t, ctx, d, data)
}

// Image adds a 1x1 grey Image XObject.
func Image(t testing.TB, ctx *model.Context) types.IndirectRef {
	t.Helper()
	return Stream(t, ctx, types.Dict{
		"Type":             types.Name("XObject"),
		"Subtype":          types.Name("Image"),
		"Width":            types.Integer(1),
		"Height":           types.Integer(1),
		"ColorSpace":       types.Name("DeviceGray"),
		"BitsPerComponent": types.Integer(8),
	}, "\x80")
}

// XObjects returns a resource dictionary naming the given XObjects.
func XObjects(names map[string]types.IndirectRef) types.Dict {
	x := types.Dict{}
	for k, v := range names {
		x[k] = v
	}
	return types.Dict{"XObject": x}
}

// Save serialises ctx.
func Save(t testing.TB, ctx *model.Context) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := codec.Save(ctx, &buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Source serialises ctx into an in-memory source.
func Source(t testing.TB, name string, ctx *model.Context) codec.Source {
	t.Helper()
	return codec.Memory{Label: name, Data: Save(t, ctx)}
}

// Reload serialises ctx and reads it back.
func Reload(t testing.TB, ctx *model.Context) *model.Context {
	t.Helper()
	out, err := codec.LoadBytes(Save(t, ctx))
	if err != nil {
		t.Fatal(err)
	}
	return out
}
