package cli

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flopp/go-findfont"

	"github.com/georgepadayatti/digestpdf/config"
	"github.com/georgepadayatti/digestpdf/pdf/document"
	"github.com/georgepadayatti/digestpdf/pdf/fonts"
	"github.com/georgepadayatti/digestpdf/report"
)

// BuildOptions contains options for the build command.
type BuildOptions struct {
	Config  string
	Font    string
	Title   string
	Verbose bool
}

// BuildCommand implements the 'build' command.
func BuildCommand(args []string) {
	buildFlags := flag.NewFlagSet("build", flag.ExitOnError)

	var opts BuildOptions

	buildFlags.StringVar(&opts.Config, "config", "", "Path to the application configuration file")
	buildFlags.StringVar(&opts.Font, "font", "", "Path to the font file, overriding the configuration")
	buildFlags.StringVar(&opts.Title, "title", "", "Document title, overriding configuration and report")
	buildFlags.BoolVar(&opts.Verbose, "verbose", false, "Show progress information")

	buildFlags.Usage = func() {
		fmt.Printf("Usage: %s build [options] <report.yaml> <output.pdf>\n\n", os.Args[0])
		fmt.Println("Build a PDF document from a YAML report.")
		fmt.Println("")
		fmt.Println("Arguments:")
		fmt.Println("  report.yaml  Report content to render")
		fmt.Println("  output.pdf   Output file for the document")
		fmt.Println("")
		fmt.Println("Options:")
		buildFlags.PrintDefaults()
		fmt.Println("")
		fmt.Println("Examples:")
		fmt.Printf("  %s build report.yaml digest.pdf\n", os.Args[0])
		fmt.Printf("  %s build -config app.yaml report.yaml digest.pdf\n", os.Args[0])
		fmt.Printf("  %s build -font fonts/DejaVuSans.ttf -title \"Обзор\" report.yaml digest.pdf\n", os.Args[0])
	}

	if err := buildFlags.Parse(args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		osExit(1)
	}

	if len(buildFlags.Args()) < 2 {
		buildFlags.Usage()
		osExit(1)
	}

	reportPath := buildFlags.Arg(0)
	outputPath := buildFlags.Arg(1)

	pageCount, err := buildPDF(reportPath, outputPath, &opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(1)
	}

	fmt.Printf("Successfully built PDF: %s (%d pages)\n", outputPath, pageCount)
}

// buildPDF performs the whole build: configuration, report, font, layout,
// assembly. It returns the number of pages written.
func buildPDF(reportPath, outputPath string, opts *BuildOptions) (int, error) {
	cfg := &config.AppConfig{}
	if opts.Config != "" {
		loaded, err := config.LoadAppConfig(opts.Config)
		if err != nil {
			return 0, err
		}
		cfg = loaded
	} else {
		cfg.SetDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	rep, err := report.LoadReport(reportPath)
	if err != nil {
		return 0, err
	}
	if err := rep.Validate(); err != nil {
		return 0, err
	}
	if opts.Verbose {
		fmt.Printf("Report: %s (%d groups)\n", rep.Title, len(rep.Groups))
	}

	fontPath, err := resolveFontPath(opts.Font, cfg.Document.Font)
	if err != nil {
		return 0, err
	}
	font, err := fonts.LoadFile(fontPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load font: %w", err)
	}
	if opts.Verbose {
		fmt.Printf("Font: %s\n", fontPath)
	}

	builder := document.NewBuilder(fonts.NewSubsetEncoder(font), cfg.Document.PageLayout())
	builder.Title = documentTitle(opts, cfg, rep)
	builder.BaseFont = baseFontName(fontPath)

	report.Compose(builder.Engine(), rep)

	var buf bytes.Buffer
	if err := builder.Build(&buf); err != nil {
		return 0, err
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return 0, fmt.Errorf("failed to write output file: %w", err)
	}

	return builder.Engine().PageCount(), nil
}

// resolveFontPath picks the font file: the flag wins, then an explicit
// configured path, then a system font lookup by name.
func resolveFontPath(flagPath string, font *config.FontConfig) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if font != nil && font.Path != "" {
		return font.Path, nil
	}
	name := config.DefaultFontName
	if font != nil && font.Name != "" {
		name = font.Name
	}
	path, err := findfont.Find(name)
	if err != nil {
		return "", fmt.Errorf("%w: no system font matches '%s'", fonts.ErrFontNotFound, name)
	}
	return path, nil
}

// documentTitle picks the Info title: the flag wins, then the configured
// title, then the report's own.
func documentTitle(opts *BuildOptions, cfg *config.AppConfig, rep *report.Report) string {
	if opts.Title != "" {
		return opts.Title
	}
	if cfg.Document.Title != "" {
		return cfg.Document.Title
	}
	return rep.Title
}

// baseFontName derives the PostScript name recorded in the font objects
// from the font file name.
func baseFontName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
