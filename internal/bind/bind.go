// Package bind assembles the output book: front matter, one page per vector
// source and back matter, followed by the ARC post-processing steps.
package bind

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
	"seehuhn.de/go/geom/rect"

	"github.com/hulululuh/KDP-Binder/internal/binding"
	"github.com/hulululuh/KDP-Binder/internal/codec"
	"github.com/hulululuh/KDP-Binder/internal/compose"
	"github.com/hulululuh/KDP-Binder/internal/config"
	"github.com/hulululuh/KDP-Binder/internal/content"
	"github.com/hulululuh/KDP-Binder/internal/logging"
	"github.com/hulululuh/KDP-Binder/internal/pagetree"
	"github.com/hulululuh/KDP-Binder/internal/render"
)

// Inputs are the documents of one run.
type Inputs struct {
	Front   codec.Source
	Back    codec.Source
	Vectors []codec.Source
}

// Report summarises a run.
type Report struct {
	Pages        int
	Removed      []int // 1-based page numbers removed as blank
	Stamped      int
	Repositioned int
	SpineWidth   float64      // inches
	Cover        binding.Size // inches
}

// Option configures a Binder.
type Option func(*Binder)

// WithRenderer replaces the vector renderer.
func WithRenderer(r render.Renderer) Option {
	return func(b *Binder) {
		b.renderer = r
	}
}

// WithLogger sets the progress logger.
func WithLogger(l logging.Logger) Option {
	return func(b *Binder) {
		b.log = l
	}
}

// Binder runs the pipeline for one configuration.
type Binder struct {
	cfg      config.Config
	renderer render.Renderer
	log      logging.Logger
}

// New returns a Binder for cfg. It renders vector PDFs and logs nothing
// unless told otherwise.
func New(cfg config.Config, opts ...Option) (*Binder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Binder{cfg: cfg, renderer: render.PDF{}, log: logging.Discard}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Bind assembles the book in memory.
func (b *Binder) Bind(in Inputs) (*model.Context, Report, error) {
	if in.Front == nil || in.Back == nil {
		return nil, Report{}, errors.New("bind: front and back matter are required")
	}
	w, h := b.cfg.PageSize()
	size := rect.Rect{URx: w, URy: h}

	merged, err := b.load(in.Front, size)
	if err != nil {
		return nil, Report{}, err
	}
	if b.cfg.MakeEven && merged.PageCount%2 == 1 {
		b.log.Printf("front matter has %d pages, adding a blank page", merged.PageCount)
		if merged, err = appendBlank(merged, w, h); err != nil {
			return nil, Report{}, err
		}
	}

	for _, src := range in.Vectors {
		page, err := b.renderer.RenderPage(src, w, h)
		if err != nil {
			return nil, Report{}, err
		}
		if merged, err = pagetree.Append(merged, page); err != nil {
			return nil, Report{}, errors.Wrap(err, src.Name())
		}
		b.log.Printf("added %s", src.Name())
		if !b.cfg.ARC {
			if merged, err = appendBlank(merged, w, h); err != nil {
				return nil, Report{}, err
			}
		}
	}

	back, err := b.load(in.Back, size)
	if err != nil {
		return nil, Report{}, err
	}
	if merged, err = pagetree.Append(merged, back); err != nil {
		return nil, Report{}, errors.Wrap(err, in.Back.Name())
	}
	if err := pagetree.EnforcePageSize(merged, size); err != nil {
		return nil, Report{}, err
	}

	var rep Report
	if b.cfg.ARC {
		if rep.Removed, err = content.RemoveBlankPages(merged); err != nil {
			return nil, Report{}, err
		}
		b.log.Printf("removed blank pages %v", rep.Removed)
	}

	c, err := b.cfg.Constants()
	if err != nil {
		return nil, Report{}, err
	}
	if b.cfg.FitSafeArea {
		book := binding.NewBook(b.cfg.Width, b.cfg.Height, b.cfg.Unit, merged.PageCount, c)
		verso, recto := book.SafeAreaPoints()
		if rep.Repositioned, err = compose.RepositionAll(merged, verso, recto, b.repositionOptions()); err != nil {
			return nil, Report{}, err
		}
		b.log.Printf("repositioned %d pages", rep.Repositioned)
	}

	if b.cfg.ARC {
		opts := compose.StampOptions{Text: b.cfg.Watermark.Text, Opacity: b.cfg.Watermark.Opacity}
		if rep.Stamped, err = compose.StampAll(merged, opts); err != nil {
			return nil, Report{}, err
		}
		b.log.Printf("stamped %d pages", rep.Stamped)
	}

	if err := pagetree.SyncPageCount(merged); err != nil {
		return nil, Report{}, err
	}
	book := binding.NewBook(b.cfg.Width, b.cfg.Height, b.cfg.Unit, merged.PageCount, c)
	rep.Pages = merged.PageCount
	rep.SpineWidth = book.SpineWidth()
	rep.Cover = book.CoverSize()
	return merged, rep, nil
}

// BindFile assembles the book and writes it to the configured output.
// Nothing is written when any step fails.
func (b *Binder) BindFile(in Inputs) (Report, error) {
	ctx, rep, err := b.Bind(in)
	if err != nil {
		return Report{}, err
	}
	if err := codec.SaveFile(ctx, b.cfg.Output); err != nil {
		return Report{}, err
	}
	b.log.Printf("wrote %s with %d pages", b.cfg.Output, rep.Pages)
	return rep, nil
}

// load reads src and resizes its pages.
func (b *Binder) load(src codec.Source, size rect.Rect) (*model.Context, error) {
	ctx, err := codec.LoadSource(src)
	if err != nil {
		return nil, err
	}
	if err := pagetree.EnforcePageSize(ctx, size); err != nil {
		return nil, err
	}
	if err := pagetree.SyncPageCount(ctx); err != nil {
		return nil, err
	}
	b.log.Printf("loaded %s with %d pages", src.Name(), ctx.PageCount)
	return ctx, nil
}

func appendBlank(ctx *model.Context, w, h float64) (*model.Context, error) {
	blank, err := pagetree.BlankPage(w, h)
	if err != nil {
		return nil, err
	}
	return pagetree.Append(ctx, blank)
}

// repositionOptions insets the safe area by 0.001 of the configured unit.
func (b *Binder) repositionOptions() compose.RepositionOptions {
	return compose.RepositionOptions{
		Mode:    fitMode(b.cfg.FitMode),
		Epsilon: binding.ToPoints(0.001, b.cfg.Unit),
	}
}

func fitMode(s string) compose.FitMode {
	if strings.EqualFold(s, "cover") {
		return compose.Cover
	}
	return compose.Contain
}

// Discover resolves the inputs named in p. Empty names fall back to the
// default layout below p.Materials, where vector sources are taken in path
// order.
func Discover(p config.Pages) (Inputs, error) {
	dir := p.Materials
	if dir == "" {
		dir = config.DefaultMaterials
	}
	front, back := p.Front, p.Back
	if front == "" {
		front = filepath.Join(dir, config.FrontMatter)
	}
	if back == "" {
		back = filepath.Join(dir, config.BackMatter)
	}
	vectors := p.Vectors
	if len(vectors) == 0 {
		var err error
		if vectors, err = filepath.Glob(filepath.Join(dir, config.VectorGlob)); err != nil {
			return Inputs{}, errors.Wrap(err, "bind: listing vector sources")
		}
		sort.Strings(vectors)
	}

	in := Inputs{Front: codec.File(front), Back: codec.File(back)}
	for _, v := range vectors {
		in.Vectors = append(in.Vectors, codec.File(v))
	}
	return in, nil
}
