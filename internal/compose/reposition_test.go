package compose

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"seehuhn.de/go/geom/rect"

	"github.com/hulululuh/KDP-Binder/internal/objgraph"
	"github.com/hulululuh/KDP-Binder/internal/pagetree"
	"github.com/hulululuh/KDP-Binder/internal/pdftest"
)

var (
	wide = types.Array{types.Integer(0), types.Integer(0), types.Integer(200), types.Integer(100)}
	// After an inset of 1 both are 100 x 50, half the size of wide.
	verso = rect.Rect{LLx: 9, LLy: 9, URx: 111, URy: 61}
	recto = rect.Rect{LLx: 19, LLy: 9, URx: 121, URy: 61}
	opts  = RepositionOptions{Epsilon: 1}
)

func widePages(t *testing.T, contents ...string) *model.Context {
	t.Helper()
	ctx := pdftest.Empty(t)
	root, _ := pdftest.Root(t, ctx)
	for _, c := range contents {
		pdftest.AddPage(t, ctx, root, pdftest.Page{Content: c, MediaBox: wide, NoContent: c == ""})
	}
	return ctx
}

func TestSafeRect(t *testing.T) {
	for index, want := range map[int]rect.Rect{1: recto, 2: verso, 3: recto, 10: verso} {
		if got := SafeRect(index, verso, recto); got != want {
			t.Errorf("SafeRect(%d) = %v, want %v", index, got, want)
		}
	}
	if got := Inset(verso, 1); got != (rect.Rect{LLx: 10, LLy: 10, URx: 110, URy: 60}) {
		t.Errorf("Inset = %v", got)
	}
}

func TestReposition(t *testing.T) {
	ctx := widePages(t, "0 0 m 200 100 l S", "0 0 m 200 100 l S")
	for index, want := range map[int]string{
		1: "q\n0.5 0 0 0.5 20 10 cm\n/OLD_FORM Do\nQ\n\n",
		2: "q\n0.5 0 0 0.5 10 10 cm\n/OLD_FORM Do\nQ\n\n",
	} {
		page, err := pagetree.Ref(ctx, index)
		if err != nil {
			t.Fatal(err)
		}
		moved, err := Reposition(ctx, page, index, verso, recto, opts)
		if err != nil || !moved {
			t.Fatalf("page %d: moved = %t, %v", index, moved, err)
		}
		data, err := pagetree.ContentBytes(ctx, page)
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(want, string(data)); d != "" {
			t.Errorf("page %d content (-want +got):\n%s", index, d)
		}

		res, err := pagetree.Resources(ctx, page)
		if err != nil {
			t.Fatal(err)
		}
		form := res["XObject"].(types.Dict)[OldForm]
		inner, err := objgraph.StreamContent(ctx, form)
		if err != nil {
			t.Fatal(err)
		}
		if string(inner) != "0 0 m 200 100 l S\n" {
			t.Errorf("page %d: form content = %q", index, inner)
		}
	}
}

func TestRepositionSparse(t *testing.T) {
	ctx := pdftest.Empty(t)
	root, _ := pdftest.Root(t, ctx)
	small := types.Array{types.Integer(0), types.Integer(0), types.Integer(10), types.Integer(10)}
	page := pdftest.AddPage(t, ctx, root, pdftest.Page{Content: "0 0 m 1 1 l S", MediaBox: small})

	if _, err := Reposition(ctx, page, 2, verso, recto, opts); err != nil {
		t.Fatal(err)
	}
	data, err := pagetree.ContentBytes(ctx, page)
	if err != nil {
		t.Fatal(err)
	}
	// Unscaled, centred horizontally, on the bottom of the safe area.
	if want := "q\n1 0 0 1 55 10 cm\n/OLD_FORM Do\nQ\n\n"; string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
}

func TestRepositionNoContent(t *testing.T) {
	ctx := widePages(t, "")
	page, err := pagetree.Ref(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	before := objgraph.Live(ctx)
	moved, err := Reposition(ctx, page, 1, verso, recto, opts)
	if err != nil || moved {
		t.Errorf("moved = %t, %v, want false", moved, err)
	}
	if d := cmp.Diff(before, objgraph.Live(ctx)); d != "" {
		t.Errorf("objects changed (-before +after):\n%s", d)
	}
}

func TestRepositionEmptySafeArea(t *testing.T) {
	ctx := widePages(t, "0 0 m 1 1 l S")
	page, err := pagetree.Ref(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	tiny := rect.Rect{URx: 1, URy: 1}
	if _, err := Reposition(ctx, page, 1, tiny, tiny, opts); err == nil {
		t.Error("Reposition accepted an empty safe area")
	}
}

func TestRepositionAll(t *testing.T) {
	ctx := widePages(t, "0 0 m 1 1 l S", "", "BT (x) Tj ET")
	n, err := RepositionAll(ctx, verso, recto, RepositionOptions{Mode: Cover, Epsilon: 1})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("repositioned %d pages, want 2", n)
	}
	if err := objgraph.Check(ctx); err != nil {
		t.Error(err)
	}
	if n, _ := pagetree.Count(ctx); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestRepositionDefaultEpsilon(t *testing.T) {
	if got := (RepositionOptions{}).epsilon(); got != DefaultEpsilon {
		t.Errorf("epsilon = %v, want %v", got, DefaultEpsilon)
	}
}
