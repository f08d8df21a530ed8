// Package fonts parses TrueType font binaries and builds the glyph subsets
// embedded into generated documents.
//
// The parser reads the sfnt offset directory and the head, hhea, maxp, hmtx
// and cmap tables, plus OS/2 and post when present. Only the metrics needed
// for text measurement and embedding are retained; outlines are carried
// verbatim in the embedded font program.
package fonts

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Common errors
var (
	ErrMalformedFont         = errors.New("malformed font data")
	ErrUnsupportedCmapFormat = errors.New("unsupported cmap format")
	ErrFontNotFound          = errors.New("font not found")
)

// Mandatory sfnt tables. Absence of any of these is a malformed font.
var requiredTables = []string{"head", "hhea", "maxp", "hmtx", "cmap"}

// FontTables holds the metrics parsed from a TrueType font. The struct is
// read-only after Parse; the subset encoder layers mutable usage state on
// top of it.
type FontTables struct {
	// UnitsPerEm is the design grid resolution from head.
	UnitsPerEm uint16
	// BBox is the font bounding box [xMin, yMin, xMax, yMax] in font units.
	BBox [4]int16

	// Ascender, Descender and LineGap come from hhea.
	Ascender  int16
	Descender int16
	LineGap   int16

	// NumGlyphs is the glyph count from maxp.
	NumGlyphs uint16
	// AdvanceWidths has one entry per glyph; trailing glyphs beyond
	// numberOfHMetrics repeat the last recorded advance.
	AdvanceWidths []uint16

	// Cmap maps Unicode code points to glyph indices.
	Cmap map[rune]uint16

	// TypoAscender, TypoDescender and CapHeight come from OS/2, falling
	// back to hhea values when the table is absent or too old.
	TypoAscender  int16
	TypoDescender int16
	CapHeight     int16

	// ItalicAngle comes from post, in degrees; 0 when absent.
	ItalicAngle float64

	// Data is the raw font program, embedded verbatim.
	Data []byte
}

// GlyphFor returns the glyph index for a code point, 0 (.notdef) when the
// font has no mapping.
func (ft *FontTables) GlyphFor(r rune) uint16 {
	return ft.Cmap[r]
}

// AdvanceFor returns the advance width of a glyph in font units.
func (ft *FontTables) AdvanceFor(glyph uint16) uint16 {
	if int(glyph) >= len(ft.AdvanceWidths) {
		return 0
	}
	return ft.AdvanceWidths[glyph]
}

type tableEntry struct {
	offset int
	length int
}

type fontParser struct {
	data   []byte
	tables map[string]tableEntry
	font   *FontTables
}

// Parse parses a TrueType font binary into its table data.
func Parse(data []byte) (*FontTables, error) {
	p := &fontParser{
		data: data,
		font: &FontTables{
			Cmap: make(map[rune]uint16),
			Data: data,
		},
	}

	if err := p.parseOffsetDirectory(); err != nil {
		return nil, err
	}
	for _, tag := range requiredTables {
		if _, ok := p.tables[tag]; !ok {
			return nil, fmt.Errorf("%w: missing %s table", ErrMalformedFont, tag)
		}
	}

	if err := p.parseHead(); err != nil {
		return nil, fmt.Errorf("parse head table: %w", err)
	}
	numHMetrics, err := p.parseHhea()
	if err != nil {
		return nil, fmt.Errorf("parse hhea table: %w", err)
	}
	if err := p.parseMaxp(); err != nil {
		return nil, fmt.Errorf("parse maxp table: %w", err)
	}
	if err := p.parseHmtx(numHMetrics); err != nil {
		return nil, fmt.Errorf("parse hmtx table: %w", err)
	}
	if err := p.parseCmap(); err != nil {
		return nil, fmt.Errorf("parse cmap table: %w", err)
	}
	if err := p.parseOS2(); err != nil {
		return nil, fmt.Errorf("parse OS/2 table: %w", err)
	}
	if err := p.parsePost(); err != nil {
		return nil, fmt.Errorf("parse post table: %w", err)
	}

	return p.font, nil
}

// LoadFile reads and parses a font file.
func LoadFile(path string) (*FontTables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFontNotFound, path)
		}
		return nil, fmt.Errorf("read font file: %w", err)
	}
	font, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font file %s: %w", path, err)
	}
	return font, nil
}

func (p *fontParser) parseOffsetDirectory() error {
	if len(p.data) < 12 {
		return fmt.Errorf("%w: offset directory truncated", ErrMalformedFont)
	}

	numTables := int(binary.BigEndian.Uint16(p.data[4:6]))
	if len(p.data) < 12+numTables*16 {
		return fmt.Errorf("%w: table directory truncated", ErrMalformedFont)
	}

	p.tables = make(map[string]tableEntry, numTables)
	for i := 0; i < numTables; i++ {
		rec := p.data[12+i*16:]
		tag := string(rec[0:4])
		p.tables[tag] = tableEntry{
			offset: int(binary.BigEndian.Uint32(rec[8:12])),
			length: int(binary.BigEndian.Uint32(rec[12:16])),
		}
	}
	return nil
}

// table returns the bytes of a table, checking that at least need bytes are
// present both in the recorded length and in the underlying buffer.
func (p *fontParser) table(tag string, need int) ([]byte, error) {
	entry, ok := p.tables[tag]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s table", ErrMalformedFont, tag)
	}
	if entry.length < need || entry.offset+need > len(p.data) {
		return nil, fmt.Errorf("%w: %s table truncated", ErrMalformedFont, tag)
	}
	end := entry.offset + entry.length
	if end > len(p.data) {
		end = len(p.data)
	}
	return p.data[entry.offset:end], nil
}

func (p *fontParser) parseHead() error {
	d, err := p.table("head", 44)
	if err != nil {
		return err
	}

	p.font.UnitsPerEm = binary.BigEndian.Uint16(d[18:20])
	if p.font.UnitsPerEm == 0 {
		return fmt.Errorf("%w: unitsPerEm is zero", ErrMalformedFont)
	}
	p.font.BBox = [4]int16{
		int16(binary.BigEndian.Uint16(d[36:38])),
		int16(binary.BigEndian.Uint16(d[38:40])),
		int16(binary.BigEndian.Uint16(d[40:42])),
		int16(binary.BigEndian.Uint16(d[42:44])),
	}
	return nil
}

func (p *fontParser) parseHhea() (int, error) {
	d, err := p.table("hhea", 36)
	if err != nil {
		return 0, err
	}

	p.font.Ascender = int16(binary.BigEndian.Uint16(d[4:6]))
	p.font.Descender = int16(binary.BigEndian.Uint16(d[6:8]))
	p.font.LineGap = int16(binary.BigEndian.Uint16(d[8:10]))
	return int(binary.BigEndian.Uint16(d[34:36])), nil
}

func (p *fontParser) parseMaxp() error {
	d, err := p.table("maxp", 6)
	if err != nil {
		return err
	}
	p.font.NumGlyphs = binary.BigEndian.Uint16(d[4:6])
	return nil
}

func (p *fontParser) parseHmtx(numHMetrics int) error {
	if numHMetrics == 0 {
		return fmt.Errorf("%w: hhea reports zero hMetrics", ErrMalformedFont)
	}
	d, err := p.table("hmtx", numHMetrics*4)
	if err != nil {
		return err
	}

	numGlyphs := int(p.font.NumGlyphs)
	widths := make([]uint16, numGlyphs)
	for i := 0; i < numHMetrics && i < numGlyphs; i++ {
		widths[i] = binary.BigEndian.Uint16(d[i*4 : i*4+2])
	}
	// Glyphs past numberOfHMetrics share the last advance width
	last := binary.BigEndian.Uint16(d[(numHMetrics-1)*4 : (numHMetrics-1)*4+2])
	for i := numHMetrics; i < numGlyphs; i++ {
		widths[i] = last
	}
	p.font.AdvanceWidths = widths
	return nil
}

func (p *fontParser) parseCmap() error {
	d, err := p.table("cmap", 4)
	if err != nil {
		return err
	}
	entry := p.tables["cmap"]

	numSubtables := int(binary.BigEndian.Uint16(d[2:4]))
	if len(d) < 4+numSubtables*8 {
		return fmt.Errorf("%w: cmap subtable directory truncated", ErrMalformedFont)
	}

	// First Windows Unicode subtable wins: encoding 1 is the BMP,
	// encoding 10 full Unicode.
	subtableOffset := -1
	for i := 0; i < numSubtables; i++ {
		rec := d[4+i*8:]
		platformID := binary.BigEndian.Uint16(rec[0:2])
		encodingID := binary.BigEndian.Uint16(rec[2:4])
		if platformID == 3 && (encodingID == 1 || encodingID == 10) {
			subtableOffset = int(binary.BigEndian.Uint32(rec[4:8]))
			break
		}
	}
	if subtableOffset < 0 {
		return fmt.Errorf("%w: no Windows Unicode subtable", ErrUnsupportedCmapFormat)
	}

	subStart := entry.offset + subtableOffset
	if subStart+2 > len(p.data) {
		return fmt.Errorf("%w: cmap subtable out of range", ErrMalformedFont)
	}

	format := binary.BigEndian.Uint16(p.data[subStart : subStart+2])
	switch format {
	case 4:
		return p.parseCmapFormat4(subStart)
	case 12:
		return p.parseCmapFormat12(subStart)
	default:
		return fmt.Errorf("%w: format %d", ErrUnsupportedCmapFormat, format)
	}
}

func (p *fontParser) parseCmapFormat4(subStart int) error {
	if subStart+14 > len(p.data) {
		return fmt.Errorf("%w: cmap format 4 header truncated", ErrMalformedFont)
	}
	length := int(binary.BigEndian.Uint16(p.data[subStart+2 : subStart+4]))
	segCount := int(binary.BigEndian.Uint16(p.data[subStart+6:subStart+8])) / 2

	endPos := subStart + 14
	startPos := endPos + segCount*2 + 2 // reservedPad between the arrays
	deltaPos := startPos + segCount*2
	rangePos := deltaPos + segCount*2
	if rangePos+segCount*2 > len(p.data) {
		return fmt.Errorf("%w: cmap format 4 arrays truncated", ErrMalformedFont)
	}

	limit := subStart + length
	if limit > len(p.data) {
		limit = len(p.data)
	}

	for i := 0; i < segCount; i++ {
		endCode := int(binary.BigEndian.Uint16(p.data[endPos+i*2 : endPos+i*2+2]))
		startCode := int(binary.BigEndian.Uint16(p.data[startPos+i*2 : startPos+i*2+2]))
		idDelta := int(int16(binary.BigEndian.Uint16(p.data[deltaPos+i*2 : deltaPos+i*2+2])))
		idRangeOffset := int(binary.BigEndian.Uint16(p.data[rangePos+i*2 : rangePos+i*2+2]))

		for code := startCode; code <= endCode; code++ {
			if idRangeOffset == 0 {
				p.font.Cmap[rune(code)] = uint16((code + idDelta) & 0xFFFF)
				continue
			}
			// The offset is relative to its own position in the
			// idRangeOffset array
			glyphAddr := rangePos + i*2 + idRangeOffset + 2*(code-startCode)
			if glyphAddr+2 > limit {
				continue
			}
			glyph := binary.BigEndian.Uint16(p.data[glyphAddr : glyphAddr+2])
			if glyph != 0 {
				glyph = uint16((int(glyph) + idDelta) & 0xFFFF)
			}
			p.font.Cmap[rune(code)] = glyph
		}
	}
	return nil
}

func (p *fontParser) parseCmapFormat12(subStart int) error {
	if subStart+16 > len(p.data) {
		return fmt.Errorf("%w: cmap format 12 header truncated", ErrMalformedFont)
	}
	numGroups := int(binary.BigEndian.Uint32(p.data[subStart+12 : subStart+16]))
	if subStart+16+numGroups*12 > len(p.data) {
		return fmt.Errorf("%w: cmap format 12 groups truncated", ErrMalformedFont)
	}

	for i := 0; i < numGroups; i++ {
		g := p.data[subStart+16+i*12:]
		startCode := binary.BigEndian.Uint32(g[0:4])
		endCode := binary.BigEndian.Uint32(g[4:8])
		startGlyph := binary.BigEndian.Uint32(g[8:12])

		for code := startCode; code <= endCode; code++ {
			p.font.Cmap[rune(code)] = uint16(startGlyph + (code - startCode))
			if code == 0xFFFFFFFF {
				break
			}
		}
	}
	return nil
}

func (p *fontParser) parseOS2() error {
	entry, ok := p.tables["OS/2"]
	if !ok {
		// Optional table: fall back to the hhea metrics
		p.font.TypoAscender = p.font.Ascender
		p.font.TypoDescender = p.font.Descender
		p.font.CapHeight = p.font.TypoAscender
		return nil
	}

	d, err := p.table("OS/2", 72)
	if err != nil {
		return err
	}
	version := binary.BigEndian.Uint16(d[0:2])
	p.font.TypoAscender = int16(binary.BigEndian.Uint16(d[68:70]))
	p.font.TypoDescender = int16(binary.BigEndian.Uint16(d[70:72]))

	// sCapHeight exists from version 2 on
	if version >= 2 && entry.length >= 90 && entry.offset+90 <= len(p.data) {
		p.font.CapHeight = int16(binary.BigEndian.Uint16(d[88:90]))
	} else {
		p.font.CapHeight = p.font.TypoAscender
	}
	return nil
}

func (p *fontParser) parsePost() error {
	if _, ok := p.tables["post"]; !ok {
		return nil
	}
	d, err := p.table("post", 8)
	if err != nil {
		return err
	}
	// italicAngle is 16.16 fixed point
	raw := int32(binary.BigEndian.Uint32(d[4:8]))
	p.font.ItalicAngle = float64(raw) / 65536.0
	return nil
}
