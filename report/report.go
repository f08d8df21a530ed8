// Package report defines the YAML content tree a digest document is
// rendered from and the composer that maps it onto the layout engine.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors
var (
	ErrInvalidReport   = errors.New("invalid report")
	ErrUnexpectedField = errors.New("unexpected field in report")
)

// Report is the root of the content tree.
type Report struct {
	// Title becomes the document's opening heading.
	Title string `yaml:"title" json:"title"`

	// Date replaces the {date} placeholder in intro paragraphs.
	// Empty means the day the document is built.
	Date string `yaml:"date" json:"date,omitempty"`

	// Intro paragraphs appear between the title and the first group.
	Intro []string `yaml:"intro" json:"intro,omitempty"`

	// Groups are the top-level sections of the report.
	Groups []Group `yaml:"groups" json:"groups"`
}

// Group is a titled run of items.
type Group struct {
	// Title becomes a level-2 heading.
	Title string `yaml:"title" json:"title"`

	// Items are the entries under this group.
	Items []Item `yaml:"items" json:"items"`
}

// Item is a single digest entry.
type Item struct {
	// Title becomes a level-3 heading.
	Title string `yaml:"title" json:"title"`

	// Summary is the lead paragraph under the title.
	Summary string `yaml:"summary" json:"summary,omitempty"`

	// Sections are labeled bullet blocks rendered in order.
	Sections []Section `yaml:"sections" json:"sections,omitempty"`
}

// Section is a labeled bullet list.
type Section struct {
	// Label is rendered uppercased above the bullets.
	Label string `yaml:"label" json:"label"`

	// Bullets are the list entries.
	Bullets []string `yaml:"bullets" json:"bullets,omitempty"`
}

// LoadReport loads a report from a YAML file.
func LoadReport(filename string) (*Report, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	return ParseReport(data)
}

// ParseReport parses a report from YAML data. Unknown keys are rejected.
func ParseReport(data []byte) (*Report, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var report Report
	if err := dec.Decode(&report); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty report file", ErrInvalidReport)
		}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedField, err)
		}
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// Validate checks that every node of the tree carries its required text.
func (r *Report) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidReport)
	}
	for gi, group := range r.Groups {
		if strings.TrimSpace(group.Title) == "" {
			return fmt.Errorf("%w: group %d: missing title", ErrInvalidReport, gi+1)
		}
		for ii, item := range group.Items {
			if strings.TrimSpace(item.Title) == "" {
				return fmt.Errorf("%w: group %d item %d: missing title", ErrInvalidReport, gi+1, ii+1)
			}
			for si, section := range item.Sections {
				if strings.TrimSpace(section.Label) == "" {
					return fmt.Errorf("%w: group %d item %d section %d: missing label", ErrInvalidReport, gi+1, ii+1, si+1)
				}
			}
		}
	}
	return nil
}
