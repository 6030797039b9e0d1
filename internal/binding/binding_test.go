package binding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"seehuhn.de/go/geom/rect"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestToPoints(t *testing.T) {
	for _, tc := range []struct {
		v    float64
		unit string
		want float64
	}{
		{1, "in", 72},
		{8.5, "inches", 612},
		{2, "IN", 144},
		{2.54, "cm", 72},
		{21.59, "CM", 612},
		{3, "furlong", 216},
	} {
		if got := ToPoints(tc.v, tc.unit); !cmp.Equal(tc.want, got, approx) {
			t.Errorf("ToPoints(%v, %q) = %v, want %v", tc.v, tc.unit, got, tc.want)
		}
	}
	if got := ToInches(21.59, "cm"); !cmp.Equal(8.5, got, approx) {
		t.Errorf("ToInches = %v, want 8.5", got)
	}
}

func TestPaper(t *testing.T) {
	for name, want := range map[string]Constants{"": KDPWhite, "white": KDPWhite, "Cream": KDPCream} {
		got, err := Paper(name)
		if err != nil {
			t.Errorf("Paper(%q): %v", name, err)
			continue
		}
		if d := cmp.Diff(want, got); d != "" {
			t.Errorf("Paper(%q) (-want +got):\n%s", name, d)
		}
	}
	if _, err := Paper("glossy"); !errors.Is(err, ErrUnknownPaper) {
		t.Errorf("got %v, want ErrUnknownPaper", err)
	}
}

func TestBook(t *testing.T) {
	b := NewBook(8.5, 8.5, "in", 100, KDPWhite)

	if got := b.SpineWidth(); !cmp.Equal(0.2252, got, approx) {
		t.Errorf("SpineWidth = %v, want 0.2252", got)
	}
	if d := cmp.Diff(Size{Width: 17.7252, Height: 9}, b.CoverSize(), approx); d != "" {
		t.Errorf("CoverSize (-want +got):\n%s", d)
	}
	if d := cmp.Diff(Size{Width: 7.875, Height: 8}, b.SafeAreaSize(), approx); d != "" {
		t.Errorf("SafeAreaSize (-want +got):\n%s", d)
	}
	if d := cmp.Diff(rect.Rect{LLx: 0.25, LLy: 0.25, URx: 8.125, URy: 8.25}, b.SafeArea(true), approx); d != "" {
		t.Errorf("verso SafeArea (-want +got):\n%s", d)
	}
	if d := cmp.Diff(rect.Rect{LLx: 0.375, LLy: 0.25, URx: 8.25, URy: 8.25}, b.SafeArea(false), approx); d != "" {
		t.Errorf("recto SafeArea (-want +got):\n%s", d)
	}

	verso, recto := b.SafeAreaPoints()
	if d := cmp.Diff(rect.Rect{LLx: 18, LLy: 18, URx: 585, URy: 594}, verso, approx); d != "" {
		t.Errorf("verso points (-want +got):\n%s", d)
	}
	if d := cmp.Diff(rect.Rect{LLx: 27, LLy: 18, URx: 594, URy: 594}, recto, approx); d != "" {
		t.Errorf("recto points (-want +got):\n%s", d)
	}
}

func TestBookCentimetres(t *testing.T) {
	b := NewBook(21.59, 27.94, "cm", 0, KDPCream)
	if !cmp.Equal(8.5, b.Width, approx) || !cmp.Equal(11.0, b.Height, approx) {
		t.Errorf("trim size = %v x %v in, want 8.5 x 11", b.Width, b.Height)
	}
	if b.SpineWidth() != 0 {
		t.Errorf("SpineWidth of an empty book = %v", b.SpineWidth())
	}
}
