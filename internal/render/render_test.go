package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
	"seehuhn.de/go/geom/rect"

	"github.com/hulululuh/KDP-Binder/internal/codec"
	"github.com/hulululuh/KDP-Binder/internal/objgraph"
	"github.com/hulululuh/KDP-Binder/internal/pagetree"
	"github.com/hulululuh/KDP-Binder/internal/pdftest"
)

var landscape = types.Array{types.Integer(0), types.Integer(0), types.Integer(100), types.Integer(50)}

func source(t *testing.T, contents ...string) *model.Context {
	t.Helper()
	ctx := pdftest.Empty(t)
	root, _ := pdftest.Root(t, ctx)
	for _, c := range contents {
		pdftest.AddPage(t, ctx, root, pdftest.Page{Content: c, MediaBox: landscape})
	}
	return ctx
}

func only(t *testing.T, ctx *model.Context) types.IndirectRef {
	t.Helper()
	pages, err := pagetree.Pages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("%d pages, want 1", len(pages))
	}
	return pages[0]
}

func TestRenderPage(t *testing.T) {
	src := pdftest.Source(t, "art.pdf", source(t, "0 0 m 100 50 l S", "BT (second) Tj ET"))

	out, err := PDF{}.RenderPage(src, 200, 200)
	if err != nil {
		t.Fatal(err)
	}
	page := only(t, out)
	data, err := pagetree.ContentBytes(out, page)
	if err != nil {
		t.Fatal(err)
	}
	if want := "q\n2 0 0 2 0 50 cm\n/OLD_FORM Do\nQ\n\n"; string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
	mb, err := pagetree.MediaBox(out, page)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(rect.Rect{URx: 200, URy: 200}, mb); d != "" {
		t.Errorf("MediaBox (-want +got):\n%s", d)
	}
	if out.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", out.PageCount)
	}
	if err := objgraph.Check(out); err != nil {
		t.Error(err)
	}
	// The dropped second page leaves nothing behind.
	for _, nr := range objgraph.Live(out) {
		data, err := objgraph.StreamContent(out, objgraph.Ref(nr))
		if err == nil && string(data) == "BT (second) Tj ET" {
			t.Error("content of the dropped page survived")
		}
	}
}

func TestRenderPageBoxes(t *testing.T) {
	ctx := source(t, "0 0 m 50 50 l S")
	page := only(t, ctx)
	d, err := pagetree.Page(ctx, page)
	if err != nil {
		t.Fatal(err)
	}
	d["TrimBox"] = types.Array{types.Integer(0), types.Integer(0), types.Integer(50), types.Integer(50)}
	d["BleedBox"] = landscape
	d["Rotate"] = types.Integer(90)

	out, err := PDF{}.RenderPage(pdftest.Source(t, "trimmed.pdf", ctx), 200, 200)
	if err != nil {
		t.Fatal(err)
	}
	page = only(t, out)
	data, err := pagetree.ContentBytes(out, page)
	if err != nil {
		t.Fatal(err)
	}
	if want := "q\n4 0 0 4 0 0 cm\n/OLD_FORM Do\nQ\n\n"; string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
	d, err = pagetree.Page(out, page)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"TrimBox", "BleedBox", "ArtBox"} {
		if _, ok := d[key]; ok {
			t.Errorf("/%s kept", key)
		}
	}
	if d["Rotate"] != types.Integer(0) {
		t.Errorf("/Rotate = %v, want 0", d["Rotate"])
	}
}

func TestRenderPageErrors(t *testing.T) {
	src := pdftest.Source(t, "art.pdf", source(t, "0 0 m 1 1 l S"))
	if _, err := (PDF{}).RenderPage(src, 0, 100); err == nil {
		t.Error("RenderPage accepted a zero width")
	}

	_, err := PDF{}.RenderPage(codec.Memory{Label: "junk.pdf", Data: []byte("not a pdf")}, 100, 100)
	if err == nil {
		t.Fatal("RenderPage accepted junk")
	}
	var opErr *objgraph.OpError
	if !errors.As(err, &opErr) || opErr.Op != "render junk.pdf" {
		t.Errorf("error %v does not name the source", err)
	}

	_, err = PDF{}.RenderPage(codec.File("testdata/missing.pdf"), 100, 100)
	if err == nil {
		t.Error("RenderPage accepted a missing file")
	}
}
