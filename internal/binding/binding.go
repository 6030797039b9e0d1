// Package binding computes print geometry for a bound book: spine width,
// cover size and the safe areas of left and right pages.
//
// All lengths are in inches unless a function says otherwise.
package binding

import (
	"strings"

	"github.com/pkg/errors"
	"seehuhn.de/go/geom/rect"
)

// PointsPerInch converts inches to PDF points.
const PointsPerInch = 72

// ToPoints converts v given in unit to points. "cm" is centimetres; "in",
// "inch", "inches" and anything else are inches.
func ToPoints(v float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case "cm":
		return v / 2.54 * PointsPerInch
	default:
		return v * PointsPerInch
	}
}

// ToInches converts v given in unit to inches.
func ToInches(v float64, unit string) float64 {
	return ToPoints(v, unit) / PointsPerInch
}

// Constants are the printer's binding parameters.
type Constants struct {
	Bleed       float64 `yaml:"bleed"`        // per edge, cover only
	CoverMargin float64 `yaml:"cover_margin"` // all four cover edges
	Thickness   float64 `yaml:"thickness"`    // per page
	Gutter      float64 `yaml:"gutter"`       // inner margin
	Margin      float64 `yaml:"margin"`       // outer, top and bottom margin
}

// Paper thickness per page.
const (
	ThicknessWhite = 0.002252
	ThicknessCream = 0.0025
)

// KDP binding constants for white and cream paper.
var (
	KDPWhite = Constants{Bleed: 0.125, CoverMargin: 0.125, Thickness: ThicknessWhite, Gutter: 0.375, Margin: 0.25}
	KDPCream = Constants{Bleed: 0.125, CoverMargin: 0.125, Thickness: ThicknessCream, Gutter: 0.375, Margin: 0.25}
)

// ErrUnknownPaper is returned by Paper for names it does not know.
var ErrUnknownPaper = errors.New("binding: unknown paper")

// Paper returns the binding constants for the named paper.
func Paper(name string) (Constants, error) {
	switch strings.ToLower(name) {
	case "", "white":
		return KDPWhite, nil
	case "cream":
		return KDPCream, nil
	}
	return Constants{}, errors.Wrapf(ErrUnknownPaper, "%q", name)
}

// Size is a width and height pair.
type Size struct {
	Width, Height float64
}

// Book describes the trim size and page count of a book.
type Book struct {
	Width, Height float64 // trim size
	Pages         int
	Binding       Constants
}

// NewBook returns a book whose trim size is given in unit.
func NewBook(width, height float64, unit string, pages int, c Constants) Book {
	return Book{
		Width:   ToInches(width, unit),
		Height:  ToInches(height, unit),
		Pages:   pages,
		Binding: c,
	}
}

// SpineWidth is the page count times the paper thickness.
func (b Book) SpineWidth() float64 {
	return float64(b.Pages) * b.Binding.Thickness
}

// CoverSize returns the size of the full wrap-around cover.
func (b Book) CoverSize() Size {
	edge := 2*b.Binding.Bleed + 2*b.Binding.CoverMargin
	return Size{
		Width:  2*b.Width + edge + b.SpineWidth(),
		Height: b.Height + edge,
	}
}

// SafeAreaSize returns the size of the area content must stay within.
func (b Book) SafeAreaSize() Size {
	return Size{
		Width:  b.Width - (b.Binding.Gutter + b.Binding.Margin),
		Height: b.Height - 2*b.Binding.Margin,
	}
}

// SafeArea returns the safe rectangle of a left (verso) or right (recto)
// page. The gutter lies on the right of a verso and on the left of a recto.
func (b Book) SafeArea(verso bool) rect.Rect {
	s := b.SafeAreaSize()
	x := b.Binding.Gutter
	if verso {
		x = b.Binding.Margin
	}
	y := b.Binding.Margin
	return rect.Rect{LLx: x, LLy: y, URx: x + s.Width, URy: y + s.Height}
}

// SafeAreaPoints returns the verso and recto safe rectangles in points.
func (b Book) SafeAreaPoints() (verso, recto rect.Rect) {
	return scale(b.SafeArea(true), PointsPerInch), scale(b.SafeArea(false), PointsPerInch)
}

func scale(r rect.Rect, f float64) rect.Rect {
	return rect.Rect{LLx: r.LLx * f, LLy: r.LLy * f, URx: r.URx * f, URy: r.URy * f}
}
