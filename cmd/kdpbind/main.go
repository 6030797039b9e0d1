package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/hulululuh/KDP-Binder/internal/bind"
	"github.com/hulululuh/KDP-Binder/internal/config"
	"github.com/hulululuh/KDP-Binder/internal/logging"
)

type options struct {
	configFile string
	preset     string
	all        bool
	report     bool
	verbose    bool

	width, height float64
	unit          string
	makeEven      bool
	arc           bool
	fit           bool
	fitMode       string
	paper         string
	materials     string
	front, back   string
	vectors       string
	output        string
}

func main() {
	var o options
	flag.StringVar(&o.configFile, "config", "", "YAML configuration file.")
	flag.StringVar(&o.preset, "preset", "book", "Preset to start from: book or arc.")
	flag.BoolVar(&o.all, "all", false, "Build both the ARC and the book edition.")
	flag.BoolVar(&o.report, "report", false, "Print spine width and cover size.")
	flag.BoolVar(&o.verbose, "v", false, "Enable debug output.")
	flag.Float64Var(&o.width, "width", 8.5, "Page width.")
	flag.Float64Var(&o.height, "height", 8.5, "Page height.")
	flag.StringVar(&o.unit, "type", "in", "Unit of width and height: in or cm.")
	flag.BoolVar(&o.makeEven, "make-even", false, "Pad odd front matter with a blank page.")
	flag.BoolVar(&o.arc, "arc", false, "ARC mode: no spacer pages, remove blank pages, stamp every page.")
	flag.BoolVar(&o.fit, "fit", false, "Move page content into the safe area.")
	flag.StringVar(&o.fitMode, "fit-mode", "contain", "Safe area fit: contain or cover.")
	flag.StringVar(&o.paper, "paper", "white", "Paper for spine and cover: white or cream.")
	flag.StringVar(&o.materials, "materials", config.DefaultMaterials, "Directory holding the input documents.")
	flag.StringVar(&o.front, "front", "", "Front matter PDF.")
	flag.StringVar(&o.back, "back", "", "Back matter PDF.")
	flag.StringVar(&o.vectors, "vectors", "", "Comma separated vector page PDFs.")
	flag.StringVar(&o.output, "output", "", "The output PDF file name.")
	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(o options) error {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	logger := logging.New(os.Stderr, o.verbose)

	var presets []string
	switch {
	case o.all:
		presets = []string{"arc", "book"}
	default:
		presets = []string{o.preset}
	}

	for _, name := range presets {
		cfg, err := configure(o, name, set)
		if err != nil {
			return err
		}
		in, err := bind.Discover(cfg.Pages)
		if err != nil {
			return err
		}
		b, err := bind.New(cfg, bind.WithLogger(logger))
		if err != nil {
			return err
		}
		logger.Printf("Building %s", cfg.Output)
		rep, err := b.BindFile(in)
		if err != nil {
			return errors.Wrapf(err, "building %s", cfg.Output)
		}
		if o.report {
			printReport(cfg.Output, rep)
		}
	}
	fmt.Println("Done.")
	return nil
}

// configure builds the configuration for one edition: preset, then the
// YAML file, then flags given on the command line.
func configure(o options, preset string, set map[string]bool) (config.Config, error) {
	cfg, err := config.Preset(preset)
	if err != nil {
		return config.Config{}, err
	}
	if o.configFile != "" {
		if cfg, err = config.Load(o.configFile, cfg); err != nil {
			return config.Config{}, err
		}
	}
	if set["width"] {
		cfg.Width = o.width
	}
	if set["height"] {
		cfg.Height = o.height
	}
	if set["type"] {
		cfg.Unit = o.unit
	}
	if set["make-even"] {
		cfg.MakeEven = o.makeEven
	}
	if set["arc"] && !o.all {
		cfg.ARC = o.arc
	}
	if set["fit"] {
		cfg.FitSafeArea = o.fit
	}
	if set["fit-mode"] {
		cfg.FitMode = o.fitMode
	}
	if set["paper"] {
		cfg.Paper = o.paper
		cfg.Binding = nil
	}
	if set["materials"] {
		cfg.Pages.Materials = o.materials
	}
	if set["front"] {
		cfg.Pages.Front = o.front
	}
	if set["back"] {
		cfg.Pages.Back = o.back
	}
	if set["vectors"] {
		cfg.Pages.Vectors = splitList(o.vectors)
	}
	if set["output"] && !o.all {
		cfg.Output = o.output
	}
	return cfg, cfg.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printReport(output string, rep bind.Report) {
	fmt.Printf("%s: %d pages\n", output, rep.Pages)
	if len(rep.Removed) > 0 {
		fmt.Printf("  removed blank pages: %v\n", rep.Removed)
	}
	if rep.Stamped > 0 {
		fmt.Printf("  stamped pages: %d\n", rep.Stamped)
	}
	if rep.Repositioned > 0 {
		fmt.Printf("  repositioned pages: %d\n", rep.Repositioned)
	}
	fmt.Printf("  spine width: %.4f in\n", rep.SpineWidth)
	fmt.Printf("  cover size: %.4f x %.4f in\n", rep.Cover.Width, rep.Cover.Height)
}
