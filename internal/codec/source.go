package codec

import (
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
)

// Source is a named input document.
type Source interface {
	Name() string
	Bytes() ([]byte, error)
}

// File is a document stored on disk.
type File string

func (f File) Name() string { return filepath.Base(string(f)) }

func (f File) Bytes() ([]byte, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, errors.Wrap(err, "reading source")
	}
	return data, nil
}

// Memory is a document held in memory.
type Memory struct {
	Label string
	Data  []byte
}

func (m Memory) Name() string { return m.Label }

func (m Memory) Bytes() ([]byte, error) { return m.Data, nil }

// LoadSource reads the document behind src.
func LoadSource(src Source) (*model.Context, error) {
	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}
	ctx, err := LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, src.Name())
	}
	return ctx, nil
}
