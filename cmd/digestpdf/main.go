// Command digestpdf builds structured report PDF documents from YAML.
//
// Usage:
//
//	digestpdf <command> [options] <args>
//
// Commands:
//
//	build    Build a PDF document from a YAML report
//	check    Check the structure of a generated PDF file
//	version  Show version information
//	help     Show help message
//
// Examples:
//
//	# Build a PDF
//	digestpdf build report.yaml digest.pdf
//
//	# Build with an explicit font and title
//	digestpdf build -font fonts/DejaVuSans.ttf -title "Обзор" report.yaml digest.pdf
//
//	# Check the result
//	digestpdf check digest.pdf
package main

import (
	"os"

	"github.com/georgepadayatti/digestpdf/cli"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/digestpdf
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Set version info
	cli.Version = version
	cli.BuildTime = buildTime

	// Run the CLI
	cli.Run(os.Args)
}
