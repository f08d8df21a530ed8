// Package document assembles laid-out pages, the embedded font subset and
// the file metadata into a finished PDF.
package document

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/georgepadayatti/digestpdf/pdf/content"
	"github.com/georgepadayatti/digestpdf/pdf/fonts"
	"github.com/georgepadayatti/digestpdf/pdf/generic"
	"github.com/georgepadayatti/digestpdf/pdf/layout"
	"github.com/georgepadayatti/digestpdf/pdf/writer"
)

// ErrNoPages is returned by Build when no content was ever laid out.
var ErrNoPages = errors.New("document has no pages")

const (
	defaultBaseFont = "DejaVuSans"
	defaultProducer = "digestpdf"

	footerSize = 9.0
	footerGray = 0.45
)

// Builder drives one document from layout to serialized file. Content is
// added through the embedded layout engine; Build then stamps page-number
// footers, embeds the font subset and writes the complete file.
type Builder struct {
	encoder *fonts.SubsetEncoder
	page    layout.PageLayout
	engine  *layout.Engine
	stamped bool

	// Title goes into the Info dictionary and the file identifier.
	Title string
	// BaseFont is the PostScript name the font objects carry.
	BaseFont string
	// Producer names the generating software in the Info dictionary.
	Producer string
	// Now supplies the creation time; nil means time.Now.
	Now func() time.Time
}

// NewBuilder creates a builder rendering with the given font subset onto
// pages of the given geometry.
func NewBuilder(encoder *fonts.SubsetEncoder, page layout.PageLayout) *Builder {
	return &Builder{
		encoder: encoder,
		page:    page,
		engine:  layout.NewEngine(encoder, page.Size, page.Margins),
	}
}

// Engine returns the layout engine content is added through.
func (b *Builder) Engine() *layout.Engine {
	return b.engine
}

func (b *Builder) baseFont() string {
	if b.BaseFont != "" {
		return b.BaseFont
	}
	return defaultBaseFont
}

func (b *Builder) producer() string {
	if b.Producer != "" {
		return b.Producer
	}
	return defaultProducer
}

func (b *Builder) creationTime() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// stampPageNumbers appends the centered gray "n / N" footer to every page
// and restores black afterwards. Measuring the label registers its
// characters in the subset before the font objects are built.
func (b *Builder) stampPageNumbers(pages []*layout.Page) {
	total := len(pages)
	for i, page := range pages {
		label := fmt.Sprintf("%d / %d", i+1, total)
		width := b.encoder.MeasureText(label, footerSize)
		page.Content.Add(content.FillColor{R: footerGray, G: footerGray, B: footerGray})
		page.Content.Add(content.TextShow{
			X:      (b.page.Size.Width - width) / 2,
			Y:      b.page.Margins.Bottom / 2,
			Size:   footerSize,
			Glyphs: b.encoder.EncodeText(label),
		})
		page.Content.Add(content.FillColor{})
	}
}

// Build stamps the page-number footers and writes the finished file to out.
// Footers are stamped once; calling Build again reuses them.
func (b *Builder) Build(out io.Writer) error {
	pages := b.engine.Pages()
	if len(pages) == 0 {
		return ErrNoPages
	}
	if !b.stamped {
		b.stampPageNumbers(pages)
		b.stamped = true
	}

	w := writer.NewDocumentWriter()
	fontID := embedFont(w, b.encoder.BuildEmbeddedFont(b.baseFont()))

	// Each page contributes a content stream and a page dictionary, so
	// the page tree lands exactly two objects per page past this point.
	pagesID := w.NextID() + 2*len(pages)
	kids := generic.NewArray()
	for _, page := range pages {
		contentID := w.AddStream(nil, page.Content.Render(), true)
		pageID := w.AddObject(b.pageDict(pagesID, contentID, fontID))
		kids = append(kids, generic.NewReference(pageID))
	}

	pagesDict := generic.NewDictionary()
	pagesDict.Set("Type", generic.NameObject("Pages"))
	pagesDict.Set("Kids", kids)
	pagesDict.Set("Count", generic.IntegerObject(len(pages)))
	if id := w.AddObject(pagesDict); id != pagesID {
		return fmt.Errorf("page tree got object %d, want %d", id, pagesID)
	}

	catalog := generic.NewDictionary()
	catalog.Set("Type", generic.NameObject("Catalog"))
	catalog.Set("Pages", generic.NewReference(pagesID))
	rootID := w.AddObject(catalog)

	created := b.creationTime()
	infoID := w.AddObject(b.infoDict(created))
	w.SetTrailerEntry("Info", generic.NewReference(infoID))

	fileID := generic.ComputeFileID(map[string]string{
		"Title":        b.Title,
		"Pages":        strconv.Itoa(len(pages)),
		"CreationDate": generic.FormatDate(created),
	})
	w.SetTrailerEntry("ID", generic.NewArray(
		generic.NewHexString(fileID),
		generic.NewHexString(fileID),
	))

	return w.Write(out, rootID)
}

func (b *Builder) pageDict(parentID, contentID, fontID int) *generic.DictionaryObject {
	box := b.page.MediaBox()

	fontRes := generic.NewDictionary()
	fontRes.Set("F1", generic.NewReference(fontID))
	resources := generic.NewDictionary()
	resources.Set("Font", fontRes)

	d := generic.NewDictionary()
	d.Set("Type", generic.NameObject("Page"))
	d.Set("Parent", generic.NewReference(parentID))
	d.Set("MediaBox", generic.NewArray(
		generic.IntegerObject(box[0]),
		generic.IntegerObject(box[1]),
		generic.FixedReal{Value: box[2], Decimals: 2},
		generic.FixedReal{Value: box[3], Decimals: 2},
	))
	d.Set("Contents", generic.NewReference(contentID))
	d.Set("Resources", resources)
	return d
}

func (b *Builder) infoDict(created time.Time) *generic.DictionaryObject {
	d := generic.NewDictionary()
	d.Set("Producer", generic.NewTextString(b.producer()))
	if b.Title != "" {
		d.Set("Title", generic.NewTextString(b.Title))
	}
	d.Set("CreationDate", generic.NewLiteralString(generic.FormatDate(created)))
	return d
}

// embedFont adds the six font objects in their fixed order and returns the
// id of the Type0 font the page resources reference.
func embedFont(w *writer.DocumentWriter, font *fonts.EmbeddedFont) int {
	cidMapID := w.AddStream(nil, font.CIDToGIDMap, true)
	toUnicodeID := w.AddStream(nil, font.ToUnicode, true)

	fileDict := generic.NewDictionary()
	fileDict.Set("Length1", generic.IntegerObject(len(font.FontProgram)))
	fontFileID := w.AddStream(fileDict, font.FontProgram, true)

	name := generic.NameObject(font.BaseFont)

	descriptor := generic.NewDictionary()
	descriptor.Set("Type", generic.NameObject("FontDescriptor"))
	descriptor.Set("FontName", name)
	descriptor.Set("Flags", generic.IntegerObject(font.Flags))
	descriptor.Set("Ascent", generic.IntegerObject(font.Ascent))
	descriptor.Set("Descent", generic.IntegerObject(font.Descent))
	descriptor.Set("CapHeight", generic.IntegerObject(font.CapHeight))
	descriptor.Set("ItalicAngle", generic.RealObject(font.ItalicAngle))
	descriptor.Set("StemV", generic.IntegerObject(font.StemV))
	descriptor.Set("FontBBox", generic.NewArray(
		generic.IntegerObject(font.BBox[0]),
		generic.IntegerObject(font.BBox[1]),
		generic.IntegerObject(font.BBox[2]),
		generic.IntegerObject(font.BBox[3]),
	))
	descriptor.Set("FontFile2", generic.NewReference(fontFileID))
	descriptorID := w.AddObject(descriptor)

	system := generic.NewDictionary()
	system.Set("Registry", generic.NewLiteralString("Adobe"))
	system.Set("Ordering", generic.NewLiteralString("Identity"))
	system.Set("Supplement", generic.IntegerObject(0))

	descendant := generic.NewDictionary()
	descendant.Set("Type", generic.NameObject("Font"))
	descendant.Set("Subtype", generic.NameObject("CIDFontType2"))
	descendant.Set("BaseFont", name)
	descendant.Set("CIDSystemInfo", system)
	descendant.Set("FontDescriptor", generic.NewReference(descriptorID))
	descendant.Set("DW", generic.IntegerObject(font.DefaultWidth))
	descendant.Set("W", widthsArray(font.Widths))
	descendant.Set("CIDToGIDMap", generic.NewReference(cidMapID))
	descendantID := w.AddObject(descendant)

	type0 := generic.NewDictionary()
	type0.Set("Type", generic.NameObject("Font"))
	type0.Set("Subtype", generic.NameObject("Type0"))
	type0.Set("BaseFont", name)
	type0.Set("Encoding", generic.NameObject("Identity-H"))
	type0.Set("DescendantFonts", generic.NewArray(generic.NewReference(descendantID)))
	type0.Set("ToUnicode", generic.NewReference(toUnicodeID))
	return w.AddObject(type0)
}

// widthsArray renders the sparse width table as individual-width entries,
// each glyph id followed by a one-element width array.
func widthsArray(widths []fonts.GlyphWidth) generic.ArrayObject {
	arr := generic.NewArray()
	for _, gw := range widths {
		arr = append(arr,
			generic.IntegerObject(gw.Glyph),
			generic.NewArray(generic.IntegerObject(gw.Width)),
		)
	}
	return arr
}
