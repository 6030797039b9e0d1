package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
)

func TestBuilder(t *testing.T) {
	var b Builder
	b.Save().
		SetExtGState("GS0").
		FillRGB(1, 0, 0).
		StrokeRGB(0, 0.5, 1).
		Transform(matrix.Translate(10, 20.25)).
		BeginText().
		Font("F1", 12).
		TextMove(-3.5, 0).
		TextRender(2).
		ShowText([]byte("a(b)\\\xe9")).
		EndText().
		LineWidth(0.75).
		MoveTo(0, 0).
		LineTo(100, 0).
		Stroke().
		Do("Fm0").
		Restore()

	want := "q\n" +
		"/GS0 gs\n" +
		"1 0 0 rg\n" +
		"0 0.5 1 RG\n" +
		"1 0 0 1 10 20.25 cm\n" +
		"BT\n" +
		"/F1 12 Tf\n" +
		"-3.5 0 Td\n" +
		"2 Tr\n" +
		"(a\\(b\\)\\\\\\351) Tj\n" +
		"ET\n" +
		"0.75 w\n" +
		"0 0 m\n" +
		"100 0 l\n" +
		"S\n" +
		"/Fm0 Do\n" +
		"Q\n"
	if d := cmp.Diff(want, string(b.Bytes())); d != "" {
		t.Errorf("program mismatch (-want +got):\n%s", d)
	}

	ops, err := Decode(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 17 {
		t.Errorf("decoded %d operations, want 17", len(ops))
	}
}

func TestNum(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-0.000001, "0"},
		{1, "1"},
		{-2.5, "-2.5"},
		{0.70710678, "0.70711"},
		{612, "612"},
		{161.49150000001, "161.4915"},
		{1e-5, "0.00001"},
	} {
		if got := Num(tc.in); got != tc.want {
			t.Errorf("Num(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
