// Package config holds the settings of one binding run and reads them from
// YAML files.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/hulululuh/KDP-Binder/internal/binding"
)

// Config describes one output document.
type Config struct {
	Width       float64            `yaml:"width"`
	Height      float64            `yaml:"height"`
	Unit        string             `yaml:"unit"`
	MakeEven    bool               `yaml:"make_even"`
	ARC         bool               `yaml:"arc"`
	FitSafeArea bool               `yaml:"fit_safe_area"`
	FitMode     string             `yaml:"fit_mode"`
	Paper       string             `yaml:"paper"`
	Binding     *binding.Constants `yaml:"binding,omitempty"`
	Watermark   Watermark          `yaml:"watermark"`
	Pages       Pages              `yaml:"pages"`
	Output      string             `yaml:"output"`
}

// Watermark configures the ARC stamp.
type Watermark struct {
	Text    string  `yaml:"text"`
	Opacity float64 `yaml:"opacity"`
}

// Pages names the input documents. Empty entries are discovered under
// Materials.
type Pages struct {
	Materials string   `yaml:"materials"`
	Front     string   `yaml:"front"`
	Back      string   `yaml:"back"`
	Vectors   []string `yaml:"vectors"`
}

// Default input layout below the materials directory.
const (
	DefaultMaterials = "materials"
	FrontMatter      = "front_matter.pdf"
	BackMatter       = "back_matter.pdf"
	VectorGlob       = "vectors/*.pdf"
)

// Book is the preset for the print edition: 8.5 x 8.5 in with a blank page
// after every vector page.
func Book() Config {
	return Config{
		Width:   8.5,
		Height:  8.5,
		Unit:    "in",
		FitMode: "contain",
		Paper:   "white",
		Watermark: Watermark{
			Text:    "ARC",
			Opacity: 0.18,
		},
		Pages:  Pages{Materials: DefaultMaterials},
		Output: "book.pdf",
	}
}

// ARC is the preset for the advance reader copy: no spacer pages, blank
// pages removed and every page stamped.
func ARC() Config {
	c := Book()
	c.ARC = true
	c.Output = "book_ARC.pdf"
	return c
}

// Preset returns the named preset.
func Preset(name string) (Config, error) {
	switch strings.ToLower(name) {
	case "", "book":
		return Book(), nil
	case "arc":
		return ARC(), nil
	}
	return Config{}, errors.Errorf("config: unknown preset %q", name)
}

// Parse decodes YAML data over base. Unknown keys are rejected.
func Parse(data []byte, base Config) (Config, error) {
	c := base
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "config: parsing YAML")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the YAML file at path over base.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: reading file")
	}
	c, err := Parse(data, base)
	if err != nil {
		return Config{}, errors.Wrap(err, path)
	}
	return c, nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("config: invalid page size %gx%g", c.Width, c.Height)
	}
	switch strings.ToLower(c.FitMode) {
	case "", "contain", "cover":
	default:
		return errors.Errorf("config: unknown fit mode %q", c.FitMode)
	}
	if _, err := c.Constants(); err != nil {
		return err
	}
	if c.Watermark.Opacity < 0 || c.Watermark.Opacity > 1 {
		return errors.Errorf("config: watermark opacity %g out of range", c.Watermark.Opacity)
	}
	if c.Output == "" {
		return errors.New("config: no output file")
	}
	return nil
}

// PageSize returns the trim size in points.
func (c Config) PageSize() (w, h float64) {
	return binding.ToPoints(c.Width, c.Unit), binding.ToPoints(c.Height, c.Unit)
}

// Constants returns the binding constants: the explicit ones if set, else
// those of the configured paper.
func (c Config) Constants() (binding.Constants, error) {
	if c.Binding != nil {
		return *c.Binding, nil
	}
	return binding.Paper(c.Paper)
}
