package layout

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/georgepadayatti/digestpdf/pdf/content"
	"github.com/georgepadayatti/digestpdf/pdf/fonts"
	"github.com/georgepadayatti/digestpdf/pdf/text"
)

const (
	// leadingFactor scales font size into line leading.
	leadingFactor = 1.45
	// bulletIndent shifts continuation lines of bulleted paragraphs.
	bulletIndent = 14.0

	bulletPrefix = "• "
)

// Page collects the draw commands of one output page.
type Page struct {
	Content *content.Stream
}

// Engine lays paragraphs out top to bottom, wrapping words greedily and
// breaking to a new page when the cursor passes the bottom margin. Pages are
// created lazily: the first paragraph creates page one.
type Engine struct {
	font    *fonts.SubsetEncoder
	page    PageSize
	margins Margins

	pages   []*Page
	current *Page
	cursorY float64
}

// NewEngine creates a layout engine drawing with the given subset font.
func NewEngine(font *fonts.SubsetEncoder, page PageSize, margins Margins) *Engine {
	return &Engine{
		font:    font,
		page:    page,
		margins: margins,
	}
}

// Pages returns the pages produced so far, in order.
func (e *Engine) Pages() []*Page {
	return e.pages
}

// PageCount returns the number of pages produced so far.
func (e *Engine) PageCount() int {
	return len(e.pages)
}

func (e *Engine) newPage() {
	e.current = &Page{Content: content.NewStream()}
	e.pages = append(e.pages, e.current)
	e.cursorY = e.page.Height - e.margins.Top
}

func (e *Engine) ensurePage() {
	if e.current == nil {
		e.newPage()
	}
}

// wrappedLine is one flushed line of a paragraph before placement.
type wrappedLine struct {
	indent float64
	text   string
}

// AddParagraph lays out one paragraph. Non-breaking spaces become ordinary
// spaces and the text is NFC-normalized before shaping. An empty text only
// consumes the paragraph's vertical spacing.
func (e *Engine) AddParagraph(p text.Paragraph) {
	e.ensurePage()

	cleaned := norm.NFC.String(strings.ReplaceAll(p.Text, "\u00a0", " "))
	if cleaned == "" {
		e.cursorY -= p.SpaceBefore + p.SpaceAfter
		return
	}

	words := strings.Fields(cleaned)
	prefix := ""
	if p.Bullet {
		prefix = bulletPrefix
		e.font.EnsureText(prefix)
	}

	maxWidth := ContentWidth(e.page, e.margins)
	e.cursorY -= p.SpaceBefore
	spaceWidth := e.font.MeasureText(" ", p.Size)

	lineIndent := p.Indent
	lineText := prefix
	lineWidth := 0.0
	if prefix != "" {
		lineWidth = e.font.MeasureText(prefix, p.Size)
	}
	availableWidth := maxWidth - lineIndent

	var lines []wrappedLine
	for _, word := range words {
		wordWidth := e.font.MeasureText(word, p.Size)
		addSpace := strings.TrimSpace(lineText) != ""
		projected := lineWidth + wordWidth
		if addSpace {
			projected += spaceWidth
		}

		if projected <= availableWidth || !addSpace {
			// A word wider than the line still lands on a blank line;
			// overflow beats splitting words
			if addSpace {
				lineText += " "
				lineWidth += spaceWidth
			}
			lineText += word
			lineWidth += wordWidth
			continue
		}

		lines = append(lines, wrappedLine{lineIndent, lineText})
		lineIndent = p.Indent
		if p.Bullet {
			lineIndent += bulletIndent
		}
		availableWidth = maxWidth - lineIndent
		lineText = word
		lineWidth = wordWidth
	}
	if lineText != "" {
		lines = append(lines, wrappedLine{lineIndent, lineText})
	}

	leading := p.Size * leadingFactor
	for _, ln := range lines {
		if e.cursorY < e.margins.Bottom+p.Size {
			e.newPage()
		}

		if p.Color != nil {
			e.current.Content.Add(content.FillColor{R: p.Color.R, G: p.Color.G, B: p.Color.B})
		}
		e.current.Content.Add(content.TextShow{
			X:      e.margins.Left + ln.indent,
			Y:      e.cursorY,
			Size:   p.Size,
			Glyphs: e.font.EncodeText(ln.text),
		})
		if p.Color != nil {
			e.current.Content.Add(content.FillColor{})
		}

		e.cursorY -= leading
	}

	e.cursorY -= p.SpaceAfter
}

// AddHeading adds a heading paragraph. The leading space collapses for a
// level 1 heading opening the document.
func (e *Engine) AddHeading(title string, level int) {
	p := text.NewHeading(title, level)
	if level == 1 && len(e.pages) == 0 {
		p.SpaceBefore = 0
	}
	e.AddParagraph(p)
}

// AddLabel adds an uppercased section label.
func (e *Engine) AddLabel(label string) {
	e.AddParagraph(text.NewLabel(label))
}

// AddBulletList adds one bulleted paragraph per item, with a small extra gap
// after a non-empty list.
func (e *Engine) AddBulletList(items []string) {
	for _, item := range items {
		e.AddParagraph(text.NewBullet(item))
	}
	if len(items) > 0 {
		e.cursorY -= 4.0
	}
}

// AddSpacing moves the cursor down by amount. On a not-yet-created page the
// movement is lost when the first paragraph resets the cursor.
func (e *Engine) AddSpacing(amount float64) {
	e.cursorY -= amount
}
