// Package text defines the styled paragraph values consumed by the layout
// engine.
package text

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind classifies a paragraph for styling purposes.
type Kind int

const (
	KindBody Kind = iota
	KindHeading
	KindLabel
)

// String returns the string representation.
func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindLabel:
		return "label"
	default:
		return "body"
	}
}

// Color represents an RGB color with components in 0.0 to 1.0.
type Color struct {
	R, G, B float64
}

// Gray returns a gray color.
func Gray(level float64) Color {
	return Color{level, level, level}
}

// Report palette.
var (
	headingColor    = Color{0.05, 0.24, 0.55}
	subheadingColor = Color{0.1, 0.28, 0.6}
	labelColor      = Color{0.16, 0.38, 0.66}
)

// Paragraph is one styled run of text. It is a plain value: callers build it,
// the layout engine consumes it, nothing mutates it afterwards.
type Paragraph struct {
	Text        string
	Kind        Kind
	Size        float64
	SpaceBefore float64
	SpaceAfter  float64
	Color       *Color
	Bullet      bool
	Indent      float64
}

// NewBody creates a body paragraph with the standard size and spacing.
func NewBody(text string) Paragraph {
	return Paragraph{
		Text:       text,
		Kind:       KindBody,
		Size:       11.5,
		SpaceAfter: 10,
	}
}

// NewBullet creates a bulleted list item paragraph.
func NewBullet(text string) Paragraph {
	return Paragraph{
		Text:       text,
		Kind:       KindBody,
		Size:       11.5,
		SpaceAfter: 6,
		Bullet:     true,
		Indent:     6,
	}
}

// NewLabel creates a section label paragraph. The text is uppercased.
func NewLabel(text string) Paragraph {
	upper := cases.Upper(language.Und)
	c := labelColor
	return Paragraph{
		Text:        upper.String(text),
		Kind:        KindLabel,
		Size:        11.5,
		SpaceBefore: 6,
		SpaceAfter:  6,
		Color:       &c,
	}
}

// NewHeading creates a heading paragraph for levels 1 to 3. Levels beyond 3
// use the level 3 preset.
func NewHeading(text string, level int) Paragraph {
	var size float64
	switch level {
	case 1:
		size = 26
	case 2:
		size = 17
	default:
		size = 14
	}

	spaceAfter := 12.0
	if level == 1 {
		spaceAfter = 16
	}

	c := subheadingColor
	if level <= 2 {
		c = headingColor
	}

	return Paragraph{
		Text:        text,
		Kind:        KindHeading,
		Size:        size,
		SpaceBefore: 24,
		SpaceAfter:  spaceAfter,
		Color:       &c,
	}
}
