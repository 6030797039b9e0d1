package compose

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/hulululuh/KDP-Binder/internal/content"
	"github.com/hulululuh/KDP-Binder/internal/objgraph"
	"github.com/hulululuh/KDP-Binder/internal/pagetree"
	"github.com/hulululuh/KDP-Binder/internal/pdftest"
)

func TestEncodeWinAnsi(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"ARC", "ARC"},
		{"Café", "Caf\xe9"},
		{"a☃", "a\x1a"},
	} {
		got, err := EncodeWinAnsi(tc.in)
		if err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if string(got) != tc.want {
			t.Errorf("EncodeWinAnsi(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTextWidth(t *testing.T) {
	if w := TextWidth([]byte("ARC")); w != 2111 {
		t.Errorf("width of ARC = %v, want 2111", w)
	}
	if w := TextWidth([]byte{' ', 0xe9}); w != 278+fallbackWidth {
		t.Errorf("width with non-ASCII byte = %v", w)
	}
}

func TestStampProgram(t *testing.T) {
	ctx := pdftest.Empty(t)
	s, err := NewStamper(ctx, StampOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := "q\n" +
		"/GS_ARC gs\n" +
		"1 0 0 rg\n" +
		"1 0 0 RG\n" +
		"0.70711 0.70711 -0.70711 0.70711 306 306 cm\n" +
		"BT\n" +
		"/F_ARC 153 Tf\n" +
		"-161.4915 -53.55 Td\n" +
		"2 Tr\n" +
		"9.18 w\n" +
		"(ARC) Tj\n" +
		"ET\n" +
		"1 0 0 1 -161.4915 -81.09 cm\n" +
		"7.65 w\n" +
		"0 0 m\n" +
		"322.983 0 l\n" +
		"S\n" +
		"Q\n"
	if d := cmp.Diff(want, string(s.program(612, 612, 306, 306))); d != "" {
		t.Errorf("stamp program (-want +got):\n%s", d)
	}
	ops, err := content.Decode(s.program(612, 612, 306, 306))
	if err != nil {
		t.Fatal(err)
	}
	draws, err := content.Draws(ctx, ops, nil)
	if err != nil || !draws {
		t.Errorf("stamp draws = %t, %v", draws, err)
	}
}

func TestNewStamperResources(t *testing.T) {
	ctx := pdftest.Empty(t)
	s, err := NewStamper(ctx, StampOptions{Opacity: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	font, err := objgraph.ResolveDict(ctx, s.font)
	if err != nil {
		t.Fatal(err)
	}
	wantFont := types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name("Helvetica-Bold"),
		"Encoding": types.Name("WinAnsiEncoding"),
	}
	if d := cmp.Diff(wantFont, font); d != "" {
		t.Errorf("font (-want +got):\n%s", d)
	}
	state, err := objgraph.ResolveDict(ctx, s.state)
	if err != nil {
		t.Fatal(err)
	}
	wantState := types.Dict{
		"Type": types.Name("ExtGState"),
		"BM":   types.Name("Normal"),
		"ca":   types.Float(0.5),
		"CA":   types.Float(0.5),
	}
	if d := cmp.Diff(wantState, state); d != "" {
		t.Errorf("graphics state (-want +got):\n%s", d)
	}
}

// stampFonts counts the live stamp font dictionaries.
func stampFonts(ctx *model.Context) int {
	n := 0
	for _, nr := range objgraph.Live(ctx) {
		d, ok := ctx.Table[nr].Object.(types.Dict)
		if ok && d["BaseFont"] == types.Name("Helvetica-Bold") {
			n++
		}
	}
	return n
}

func TestStampAll(t *testing.T) {
	ctx := pdftest.Empty(t)
	twoStreamPage(t, ctx)
	root, _ := pdftest.Root(t, ctx)
	pdftest.AddPage(t, ctx, root, pdftest.Page{NoContent: true})

	n, err := StampAll(ctx, StampOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("stamped %d pages, want 2", n)
	}
	if got := stampFonts(ctx); got != 1 {
		t.Errorf("%d stamp fonts, want 1", got)
	}
	if err := objgraph.Check(ctx); err != nil {
		t.Fatal(err)
	}

	// Compaction renumbers objects; look the pages up again.
	pages, err := pagetree.Pages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	page, bare := pages[0], pages[1]

	refs, err := pagetree.Contents(ctx, page)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 {
		t.Fatalf("stamped page has %d content streams, want 2", len(refs))
	}
	first, err := objgraph.StreamContent(ctx, refs[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != "q\n/OLD_FORM Do\nQ\n" {
		t.Errorf("first stream = %q", first)
	}
	res, err := pagetree.Resources(ctx, page)
	if err != nil {
		t.Fatal(err)
	}
	for _, cat := range []string{"Font", "ExtGState", "XObject"} {
		if _, ok := res[cat].(types.Dict); !ok {
			t.Errorf("/%s missing from stamped resources", cat)
		}
	}
	fonts := res["Font"].(types.Dict)
	if _, ok := fonts["F1"]; !ok {
		t.Error("original font dropped")
	}
	if _, ok := fonts[StampFont]; !ok {
		t.Error("stamp font missing")
	}

	d, err := pagetree.Page(ctx, bare)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d["Contents"].(types.IndirectRef); !ok {
		t.Errorf("bare page /Contents = %T, want a single stream", d["Contents"])
	}
	blank, err := content.IsBlank(ctx, bare)
	if err != nil || blank {
		t.Errorf("stamped bare page blank = %t, %v", blank, err)
	}
}

func TestStampSurvivesReload(t *testing.T) {
	ctx := pdftest.Doc(t, "0 0 m 10 10 l S", "BT (x) Tj ET")
	if _, err := StampAll(ctx, StampOptions{Text: "Review"}); err != nil {
		t.Fatal(err)
	}
	out := pdftest.Reload(t, ctx)
	pages, err := pagetree.Pages(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("%d pages after reload, want 2", len(pages))
	}
	for i, p := range pages {
		blank, err := content.IsBlank(out, p)
		if err != nil || blank {
			t.Errorf("page %d: blank = %t, %v", i+1, blank, err)
		}
	}
}
