package report

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/georgepadayatti/digestpdf/pdf/content"
	"github.com/georgepadayatti/digestpdf/pdf/fonts"
	"github.com/georgepadayatti/digestpdf/pdf/layout"
)

// fixedWidthFont builds a font where every glyph advances 500 units on a
// 1000-unit em. The cmap covers printable ASCII, the bullet and the
// Cyrillic block.
func fixedWidthFont(t *testing.T) *fonts.SubsetEncoder {
	t.Helper()

	head := make([]byte, 54)
	binary.BigEndian.PutUint16(head[18:20], 1000)

	hhea := make([]byte, 36)
	binary.BigEndian.PutUint16(hhea[4:6], 800)
	descender := int16(-200)
	binary.BigEndian.PutUint16(hhea[6:8], uint16(descender))
	binary.BigEndian.PutUint16(hhea[34:36], 1)

	maxp := make([]byte, 6)
	binary.BigEndian.PutUint16(maxp[4:6], 400)

	hmtx := make([]byte, 4)
	binary.BigEndian.PutUint16(hmtx[0:2], 500)

	groups := [][3]uint32{
		{0x20, 0x7E, 1},
		{0x400, 0x4FF, 100},
		{0x2022, 0x2022, 96},
	}
	sub := make([]byte, 16+len(groups)*12)
	binary.BigEndian.PutUint16(sub[0:2], 12)
	binary.BigEndian.PutUint32(sub[4:8], uint32(len(sub)))
	binary.BigEndian.PutUint32(sub[12:16], uint32(len(groups)))
	for i, g := range groups {
		binary.BigEndian.PutUint32(sub[16+i*12:], g[0])
		binary.BigEndian.PutUint32(sub[16+i*12+4:], g[1])
		binary.BigEndian.PutUint32(sub[16+i*12+8:], g[2])
	}
	cmap := make([]byte, 12+len(sub))
	binary.BigEndian.PutUint16(cmap[2:4], 1)
	binary.BigEndian.PutUint16(cmap[4:6], 3)
	binary.BigEndian.PutUint16(cmap[6:8], 10)
	binary.BigEndian.PutUint32(cmap[8:12], 12)
	copy(cmap[12:], sub)

	tables := []struct {
		tag  string
		data []byte
	}{
		{"head", head},
		{"hhea", hhea},
		{"maxp", maxp},
		{"hmtx", hmtx},
		{"cmap", cmap},
	}
	size := 12 + 16*len(tables)
	offsets := make([]int, len(tables))
	for i, tb := range tables {
		offsets[i] = size
		size += len(tb.data)
	}
	data := make([]byte, size)
	binary.BigEndian.PutUint32(data[0:4], 0x00010000)
	binary.BigEndian.PutUint16(data[4:6], uint16(len(tables)))
	for i, tb := range tables {
		rec := data[12+16*i:]
		copy(rec[0:4], tb.tag)
		binary.BigEndian.PutUint32(rec[8:12], uint32(offsets[i]))
		binary.BigEndian.PutUint32(rec[12:16], uint32(len(tb.data)))
		copy(data[offsets[i]:], tb.data)
	}

	font, err := fonts.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return fonts.NewSubsetEncoder(font)
}

// composeOn runs the composer on a page tall and wide enough that every
// paragraph stays a single line on one page.
func composeOn(t *testing.T, r *Report) ([]*layout.Page, *fonts.SubsetEncoder) {
	t.Helper()
	enc := fixedWidthFont(t)
	engine := layout.NewEngine(enc, layout.PageSize{Width: 2000, Height: 3000}, layout.NewMargins(50, 50, 50, 50))
	Compose(engine, r)
	return engine.Pages(), enc
}

func textShows(p *layout.Page) []content.TextShow {
	var out []content.TextShow
	for _, cmd := range p.Content.Commands() {
		if ts, ok := cmd.(content.TextShow); ok {
			out = append(out, ts)
		}
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

const sampleYAML = `title: Обзор технологий
date: 22.08.2025
intro:
  - "Актуальность на {date}."
  - Материал построен по единым блокам.
groups:
  - title: Инфраструктура
    items:
      - title: Платформа данных
        summary: Единая платформа хранения.
        sections:
          - label: Драйверы
            bullets:
              - рост данных
              - облачные сервисы
          - label: Метрики рынка
            bullets:
              - CAGR 18%
`

func sampleReport(t *testing.T) *Report {
	t.Helper()
	r, err := ParseReport([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	return r
}

func TestParseReport(t *testing.T) {
	r := sampleReport(t)

	if r.Title != "Обзор технологий" {
		t.Errorf("Title = %q, want %q", r.Title, "Обзор технологий")
	}
	if r.Date != "22.08.2025" {
		t.Errorf("Date = %q, want %q", r.Date, "22.08.2025")
	}
	if len(r.Intro) != 2 {
		t.Fatalf("Expected 2 intro paragraphs, got %d", len(r.Intro))
	}
	if len(r.Groups) != 1 || len(r.Groups[0].Items) != 1 {
		t.Fatal("Unexpected group shape")
	}

	item := r.Groups[0].Items[0]
	if item.Summary != "Единая платформа хранения." {
		t.Errorf("Summary = %q", item.Summary)
	}
	if len(item.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(item.Sections))
	}
	if item.Sections[0].Label != "Драйверы" || item.Sections[1].Label != "Метрики рынка" {
		t.Error("Expected section order to follow the document")
	}
	if len(item.Sections[0].Bullets) != 2 {
		t.Errorf("Expected 2 bullets, got %d", len(item.Sections[0].Bullets))
	}
}

func TestParseReportErrors(t *testing.T) {
	t.Run("UnknownField", func(t *testing.T) {
		_, err := ParseReport([]byte("title: x\nauthor: y\n"))
		if !errors.Is(err, ErrUnexpectedField) {
			t.Errorf("Expected ErrUnexpectedField, got %v", err)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ParseReport([]byte(""))
		if !errors.Is(err, ErrInvalidReport) {
			t.Errorf("Expected ErrInvalidReport, got %v", err)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := ParseReport([]byte("title: [unclosed"))
		if err == nil {
			t.Error("Expected an error for malformed YAML")
		}
	})
}

func TestLoadReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.yml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	r, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if r.Title != "Обзор технологий" {
		t.Errorf("Title = %q", r.Title)
	}

	if _, err := LoadReport(filepath.Join(dir, "absent.yml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Report)
		wantErr bool
	}{
		{"Valid", func(r *Report) {}, false},
		{"MissingTitle", func(r *Report) { r.Title = " " }, true},
		{"MissingGroupTitle", func(r *Report) { r.Groups[0].Title = "" }, true},
		{"MissingItemTitle", func(r *Report) { r.Groups[0].Items[0].Title = "" }, true},
		{"MissingSectionLabel", func(r *Report) { r.Groups[0].Items[0].Sections[1].Label = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleReport(t)
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidReport) {
				t.Errorf("Expected ErrInvalidReport, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestComposeSequence(t *testing.T) {
	pages, enc := composeOn(t, sampleReport(t))

	if len(pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(pages))
	}
	shows := textShows(pages[0])

	wantSizes := []float64{26, 12.5, 12.5, 17, 14, 11.5, 11.5, 11.5, 11.5, 11.5, 11.5}
	if len(shows) != len(wantSizes) {
		t.Fatalf("Expected %d text commands, got %d", len(wantSizes), len(shows))
	}
	for i, want := range wantSizes {
		if !approx(shows[i].Size, want) {
			t.Errorf("Command %d: size %f, want %f", i, shows[i].Size, want)
		}
	}

	if shows[0].Glyphs != enc.EncodeText("Обзор технологий") {
		t.Error("Expected the title as the first command")
	}
	if shows[1].Glyphs != enc.EncodeText("Актуальность на 22.08.2025.") {
		t.Error("Expected the date substituted into the first intro")
	}
	if shows[6].Glyphs != enc.EncodeText("ДРАЙВЕРЫ") {
		t.Error("Expected the first label uppercased")
	}
	if shows[7].Glyphs != enc.EncodeText("•  рост данных") {
		t.Error("Expected a bullet-prefixed list entry")
	}
	if shows[9].Glyphs != enc.EncodeText("МЕТРИКИ РЫНКА") {
		t.Error("Expected the second label uppercased")
	}
}

func TestComposeIntroSpacing(t *testing.T) {
	pages, _ := composeOn(t, sampleReport(t))
	shows := textShows(pages[0])

	// Intro leading is size*1.45; the first intro takes 18 after, the
	// last 24, and the group heading adds its own 24 before.
	introLeading := 12.5 * 1.45
	if got, want := shows[1].Y-shows[2].Y, introLeading+18.0; !approx(got, want) {
		t.Errorf("Intro gap = %f, want %f", got, want)
	}
	if got, want := shows[2].Y-shows[3].Y, introLeading+24.0+24.0; !approx(got, want) {
		t.Errorf("Gap before group heading = %f, want %f", got, want)
	}
}

func TestComposeDefaultDate(t *testing.T) {
	r := &Report{
		Title: "Отчёт",
		Intro: []string{"{date}"},
	}
	pages, enc := composeOn(t, r)
	shows := textShows(pages[0])

	if len(shows) != 2 {
		t.Fatalf("Expected 2 text commands, got %d", len(shows))
	}
	want := enc.EncodeText(time.Now().Format("02.01.2006"))
	if shows[1].Glyphs != want {
		t.Error("Expected today's date substituted when none is set")
	}
}

func TestComposeTitleOnly(t *testing.T) {
	pages, enc := composeOn(t, &Report{Title: "Digest"})

	if len(pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(pages))
	}
	shows := textShows(pages[0])
	if len(shows) != 1 {
		t.Fatalf("Expected 1 text command, got %d", len(shows))
	}
	if shows[0].Glyphs != enc.EncodeText("Digest") {
		t.Error("Expected the title text")
	}
	if !approx(shows[0].Y, 3000-50) {
		t.Errorf("Expected the title baseline at the top margin, got %f", shows[0].Y)
	}
}
