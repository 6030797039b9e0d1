package compose

import (
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"seehuhn.de/go/geom/matrix"

	"github.com/hulululuh/KDP-Binder/internal/content"
	"github.com/hulululuh/KDP-Binder/internal/objgraph"
	"github.com/hulululuh/KDP-Binder/internal/pagetree"
)

// Resource names used by the stamp.
const (
	StampFont  = "F_ARC"
	StampState = "GS_ARC"
)

// Stamp geometry, relative to the font size.
const (
	fontScale      = 0.25 // of the shorter page side
	baselineShift  = 0.35
	outlineWidth   = 0.06
	underlineWidth = 0.05
	underlineGap   = 0.18
)

// helveticaWidths holds the advance widths of Helvetica for the bytes
// 32..126, in 1/1000 em.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

const fallbackWidth = 600

// StampOptions configures the watermark.
type StampOptions struct {
	Text    string     // defaults to "ARC"
	Opacity float64    // fill and stroke alpha, defaults to 0.18
	Color   [3]float64 // RGB, defaults to red
}

func (o StampOptions) withDefaults() StampOptions {
	if o.Text == "" {
		o.Text = "ARC"
	}
	if o.Opacity == 0 {
		o.Opacity = 0.18
	}
	if o.Color == ([3]float64{}) {
		o.Color = [3]float64{1, 0, 0}
	}
	return o
}

// Stamper draws a diagonal watermark over pages of one document.
// The font and graphics state are created once and shared by every page.
type Stamper struct {
	ctx   *model.Context
	opts  StampOptions
	font  types.IndirectRef
	state types.IndirectRef
	text  []byte  // WinAnsi encoded
	width float64 // of text, in 1/1000 em
}

// NewStamper creates the shared watermark resources in ctx.
func NewStamper(ctx *model.Context, opts StampOptions) (*Stamper, error) {
	opts = opts.withDefaults()
	text, err := EncodeWinAnsi(opts.Text)
	if err != nil {
		return nil, err
	}
	font, err := objgraph.Add(ctx, types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name("Helvetica-Bold"),
		"Encoding": types.Name("WinAnsiEncoding"),
	})
	if err != nil {
		return nil, err
	}
	state, err := objgraph.Add(ctx, types.Dict{
		"Type": types.Name("ExtGState"),
		"BM":   types.Name("Normal"),
		"ca":   types.Float(opts.Opacity),
		"CA":   types.Float(opts.Opacity),
	})
	if err != nil {
		return nil, err
	}
	return &Stamper{
		ctx:   ctx,
		opts:  opts,
		font:  font,
		state: state,
		text:  text,
		width: TextWidth(text),
	}, nil
}

// EncodeWinAnsi converts s to WinAnsi bytes. Runes outside the encoding
// become the substitute byte.
func EncodeWinAnsi(s string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrap(err, "encoding stamp text")
	}
	return b, nil
}

// TextWidth returns the Helvetica width of the WinAnsi string b in 1/1000 em.
func TextWidth(b []byte) float64 {
	w := 0
	for _, c := range b {
		if c >= 32 && c <= 126 {
			w += helveticaWidths[c-32]
		} else {
			w += fallbackWidth
		}
	}
	return float64(w)
}

// Stamp draws the watermark over page. The previous content, if any, is
// kept in a form drawn first.
func (s *Stamper) Stamp(page types.IndirectRef) error {
	return objgraph.Fail("stamp", s.stamp(page))
}

func (s *Stamper) stamp(page types.IndirectRef) error {
	ctx := s.ctx
	mb, err := pagetree.MediaBox(ctx, page)
	if err != nil {
		return err
	}
	form, hasOld, err := WrapContent(ctx, page)
	if err != nil {
		return err
	}
	res, err := pagetree.Resources(ctx, page)
	if err != nil {
		return err
	}
	res, err = resourceCopy(ctx, res, "Font", "ExtGState")
	if err != nil {
		return err
	}
	res["Font"].(types.Dict)[StampFont] = s.font
	res["ExtGState"].(types.Dict)[StampState] = s.state

	var contents types.Array
	if hasOld {
		res, err = resourceCopy(ctx, res, "XObject")
		if err != nil {
			return err
		}
		res["XObject"].(types.Dict)[OldForm] = form
		var b content.Builder
		b.Save().Do(OldForm).Restore()
		ref, err := objgraph.NewStream(ctx, nil, b.Bytes())
		if err != nil {
			return err
		}
		contents = append(contents, ref)
	}
	ref, err := objgraph.NewStream(ctx, nil, s.program(mb.Dx(), mb.Dy(), mb.LLx+mb.Dx()/2, mb.LLy+mb.Dy()/2))
	if err != nil {
		return err
	}
	contents = append(contents, ref)

	d, err := pagetree.Page(ctx, page)
	if err != nil {
		return err
	}
	d["Resources"] = res
	if len(contents) == 1 {
		d["Contents"] = contents[0]
	} else {
		d["Contents"] = contents
	}
	return nil
}

// program returns the stamp drawing for a w by h page centred at (cx, cy).
func (s *Stamper) program(w, h, cx, cy float64) []byte {
	fs := fontScale * math.Min(w, h)
	tw := s.width * fs / 1000
	dx := -tw / 2
	dy := -baselineShift * fs
	udy := dy - underlineGap*fs
	r, g, bl := s.opts.Color[0], s.opts.Color[1], s.opts.Color[2]

	var b content.Builder
	b.Save().
		SetExtGState(StampState).
		FillRGB(r, g, bl).
		StrokeRGB(r, g, bl).
		Transform(matrix.RotateDeg(45).Mul(matrix.Translate(cx, cy))).
		BeginText().
		Font(StampFont, fs).
		TextMove(dx, dy).
		TextRender(2).
		LineWidth(outlineWidth*fs).
		ShowText(s.text).
		EndText().
		Transform(matrix.Translate(dx, udy)).
		LineWidth(underlineWidth*fs).
		MoveTo(0, 0).
		LineTo(tw, 0).
		Stroke().
		Restore()
	return b.Bytes()
}

// StampAll stamps every page of ctx and compacts the graph, which reclaims
// the replaced content streams. It returns the number of pages stamped.
func StampAll(ctx *model.Context, opts StampOptions) (int, error) {
	pages, err := pagetree.Pages(ctx)
	if err != nil {
		return 0, objgraph.Fail("stamp", err)
	}
	s, err := NewStamper(ctx, opts)
	if err != nil {
		return 0, objgraph.Fail("stamp", err)
	}
	for i, page := range pages {
		if err := s.Stamp(page); err != nil {
			return i, errors.Wrapf(err, "page %d", i+1)
		}
	}
	if _, err := objgraph.Compact(ctx); err != nil {
		return len(pages), objgraph.Fail("stamp", err)
	}
	return len(pages), nil
}
