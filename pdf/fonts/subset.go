package fonts

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf16"
)

// SubsetEncoder tracks which characters a document actually uses and turns
// that usage into the artifacts a composite font embedding needs. Characters
// register in first-seen order; unmapped code points fall back to glyph 0.
type SubsetEncoder struct {
	font       *FontTables
	usedChars  []rune
	charSet    map[rune]struct{}
	charToGid  map[rune]uint16
	usedGlyphs map[uint16]struct{}
}

// GlyphWidth is one entry of the sparse width table, in per-mille units.
type GlyphWidth struct {
	Glyph uint16
	Width int
}

// EmbeddedFont carries everything the document assembler needs to embed the
// subset: the raw font program, scaled metrics and the CID support tables.
type EmbeddedFont struct {
	BaseFont    string
	FontProgram []byte

	// DefaultWidth is the /DW value; Widths lists only glyphs that differ
	// from it, plus glyph 0.
	DefaultWidth int
	Widths       []GlyphWidth

	CIDToGIDMap []byte
	ToUnicode   []byte

	// Descriptor metrics, per-mille of the em square except ItalicAngle.
	Ascent      int
	Descent     int
	CapHeight   int
	ItalicAngle float64
	BBox        [4]int
	StemV       int
	Flags       int
}

// NewSubsetEncoder creates an encoder over parsed font tables.
func NewSubsetEncoder(font *FontTables) *SubsetEncoder {
	return &SubsetEncoder{
		font:       font,
		charSet:    make(map[rune]struct{}),
		charToGid:  make(map[rune]uint16),
		usedGlyphs: make(map[uint16]struct{}),
	}
}

// Font returns the parsed tables the encoder draws from.
func (e *SubsetEncoder) Font() *FontTables {
	return e.font
}

// EnsureText registers every character of text in the subset. Registration
// is idempotent; order of first use is preserved.
func (e *SubsetEncoder) EnsureText(text string) {
	for _, r := range text {
		if _, seen := e.charSet[r]; seen {
			continue
		}
		e.charSet[r] = struct{}{}
		e.usedChars = append(e.usedChars, r)
		gid := e.font.GlyphFor(r)
		e.charToGid[r] = gid
		e.usedGlyphs[gid] = struct{}{}
	}
}

func (e *SubsetEncoder) gidFor(r rune) uint16 {
	if gid, ok := e.charToGid[r]; ok {
		return gid
	}
	return e.font.GlyphFor(r)
}

// MeasureText returns the width of text at the given size in points. New
// characters register in the subset as a side effect; callers measure words
// before committing them to a line, and both paths must agree on usage.
func (e *SubsetEncoder) MeasureText(text string, size float64) float64 {
	e.EnsureText(text)
	var total int
	for _, r := range text {
		total += int(e.font.AdvanceFor(e.charToGid[r]))
	}
	return float64(total) / float64(e.font.UnitsPerEm) * size
}

// EncodeText renders text as the uppercase hex glyph run used inside text
// show operands, four digits per glyph. Characters register like EnsureText.
func (e *SubsetEncoder) EncodeText(text string) string {
	e.EnsureText(text)
	var b strings.Builder
	for _, r := range text {
		fmt.Fprintf(&b, "%04X", e.charToGid[r])
	}
	return b.String()
}

// UsedChars returns the registered characters in first-use order.
func (e *SubsetEncoder) UsedChars() []rune {
	out := make([]rune, len(e.usedChars))
	copy(out, e.usedChars)
	return out
}

func (e *SubsetEncoder) perMille(units int) int {
	return int(math.Round(float64(units) * 1000.0 / float64(e.font.UnitsPerEm)))
}

// BuildEmbeddedFont produces the embedding artifacts for the current subset.
// An empty subset registers a single space so the font objects stay valid.
func (e *SubsetEncoder) BuildEmbeddedFont(baseFont string) *EmbeddedFont {
	if len(e.usedChars) == 0 {
		e.EnsureText(" ")
	}

	// Per-mille advance widths of every used glyph
	widthsPM := make(map[uint16]int, len(e.usedGlyphs))
	gids := make([]uint16, 0, len(e.usedGlyphs))
	for gid := range e.usedGlyphs {
		widthsPM[gid] = e.perMille(int(e.font.AdvanceFor(gid)))
		gids = append(gids, gid)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })

	// The space glyph's width anchors /DW; charToGid yields glyph 0 for an
	// unseen space, so a used .notdef can stand in before the 600 fallback.
	defaultWidth := 600
	if w, ok := widthsPM[e.charToGid[' ']]; ok {
		defaultWidth = w
	}

	var widths []GlyphWidth
	for _, gid := range gids {
		w := widthsPM[gid]
		if w == defaultWidth && gid != 0 {
			continue
		}
		widths = append(widths, GlyphWidth{Glyph: gid, Width: w})
	}

	maxGid := gids[len(gids)-1]
	cidToGid := make([]byte, 2*(int(maxGid)+1))
	for _, gid := range gids {
		cidToGid[2*gid] = byte(gid >> 8)
		cidToGid[2*gid+1] = byte(gid)
	}

	return &EmbeddedFont{
		BaseFont:     baseFont,
		FontProgram:  e.font.Data,
		DefaultWidth: defaultWidth,
		Widths:       widths,
		CIDToGIDMap:  cidToGid,
		ToUnicode:    e.buildToUnicode(),
		Ascent:       e.perMille(int(e.font.TypoAscender)),
		Descent:      e.perMille(int(e.font.TypoDescender)),
		CapHeight:    e.perMille(int(e.font.CapHeight)),
		ItalicAngle:  e.font.ItalicAngle,
		BBox: [4]int{
			e.perMille(int(e.font.BBox[0])),
			e.perMille(int(e.font.BBox[1])),
			e.perMille(int(e.font.BBox[2])),
			e.perMille(int(e.font.BBox[3])),
		},
		StemV: 80,
		Flags: 4,
	}
}

// buildToUnicode renders the ToUnicode CMap for text extraction, mapping
// glyph indices back to their source code points in bfchar batches of 100.
func (e *SubsetEncoder) buildToUnicode() []byte {
	chars := make([]rune, len(e.usedChars))
	copy(chars, e.usedChars)
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

	var entries []string
	for _, r := range chars {
		var dst strings.Builder
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&dst, "%04X", u)
		}
		entries = append(entries, fmt.Sprintf("<%04X> <%s>", e.gidFor(r), dst.String()))
	}

	var b strings.Builder
	b.WriteString("/CIDInit /ProcSet findresource begin\n")
	b.WriteString("12 dict begin\n")
	b.WriteString("begincmap\n")
	b.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n")
	b.WriteString("/CMapName /Adobe-Identity-UCS def\n")
	b.WriteString("/CMapType 2 def\n")
	b.WriteString("1 begincodespacerange\n")
	b.WriteString("<0000> <FFFF>\n")
	b.WriteString("endcodespacerange\n")

	for start := 0; start < len(entries); start += 100 {
		end := start + 100
		if end > len(entries) {
			end = len(entries)
		}
		fmt.Fprintf(&b, "%d beginbfchar\n", end-start)
		for _, entry := range entries[start:end] {
			b.WriteString(entry)
			b.WriteString("\n")
		}
		b.WriteString("endbfchar\n")
	}

	b.WriteString("endcmap\n")
	b.WriteString("CMapName currentdict /CMap defineresource pop\n")
	b.WriteString("end\n")
	b.WriteString("end\n")
	return []byte(b.String())
}
