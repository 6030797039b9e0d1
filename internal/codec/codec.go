// Package codec loads and stores documents through pdfcpu.
package codec

import (
	"bytes"
	"embed"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"

	"github.com/hulululuh/KDP-Binder/internal/objgraph"
)

//go:embed assets/blank.pdf
var assets embed.FS

const blankAsset = "assets/blank.pdf"

// ErrEncrypted is returned for encrypted input documents.
var ErrEncrypted = errors.New("codec: encrypted documents are not supported")

var configOnce sync.Once

// Configuration returns pdfcpu's default configuration without touching the
// user's configuration directory.
func Configuration() *model.Configuration {
	configOnce.Do(api.DisableConfigDir)
	return model.NewDefaultConfiguration()
}

// Load reads a document.
func Load(rs io.ReadSeeker) (*model.Context, error) {
	ctx, err := api.ReadContext(rs, Configuration())
	if err != nil {
		return nil, errors.Wrap(err, "reading PDF context")
	}
	if ctx.Encrypt != nil {
		return nil, ErrEncrypted
	}
	if err := objgraph.Materialize(ctx); err != nil {
		return nil, errors.Wrap(err, "reading object streams")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, errors.Wrap(err, "counting pages")
	}
	return ctx, nil
}

// LoadBytes reads a document held in memory.
func LoadBytes(data []byte) (*model.Context, error) {
	return Load(bytes.NewReader(data))
}

// LoadFile reads the document stored at path.
func LoadFile(path string) (*model.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening PDF")
	}
	defer f.Close()
	ctx, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return ctx, nil
}

// Save writes ctx to w.
func Save(ctx *model.Context, w io.Writer) error {
	if err := api.WriteContext(ctx, w); err != nil {
		return errors.Wrap(err, "writing PDF context")
	}
	return nil
}

// SaveFile serialises ctx in memory and writes it to path in one call, so a
// failed run leaves no partial file behind.
func SaveFile(ctx *model.Context, path string) error {
	var buf bytes.Buffer
	if err := Save(ctx, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "writing output file")
	}
	return nil
}

// Blank returns a fresh one-page document with an empty content stream.
func Blank() (*model.Context, error) {
	data, err := assets.ReadFile(blankAsset)
	if err != nil {
		return nil, errors.Wrap(err, "reading embedded blank page")
	}
	return LoadBytes(data)
}
