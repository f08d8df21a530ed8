package generic

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeToString(t *testing.T, obj PdfObject) string {
	t.Helper()
	var buf bytes.Buffer
	if err := obj.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.String()
}

func TestIntegerObject(t *testing.T) {
	tests := []struct {
		value    IntegerObject
		expected string
	}{
		{IntegerObject(0), "0"},
		{IntegerObject(42), "42"},
		{IntegerObject(-123), "-123"},
		{IntegerObject(9999999), "9999999"},
	}

	for _, tt := range tests {
		if got := writeToString(t, tt.value); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}

func TestRealObject(t *testing.T) {
	tests := []struct {
		value    RealObject
		expected string
	}{
		{RealObject(0), "0"},
		{RealObject(3.5), "3.5"},
		{RealObject(-2.25), "-2.25"},
		{RealObject(595.28), "595.28"},
	}

	for _, tt := range tests {
		if got := writeToString(t, tt.value); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}

func TestFixedReal(t *testing.T) {
	tests := []struct {
		value    FixedReal
		expected string
	}{
		{FixedReal{Value: 595.28, Decimals: 2}, "595.28"},
		{FixedReal{Value: 0, Decimals: 2}, "0.00"},
		{FixedReal{Value: 841.89, Decimals: 2}, "841.89"},
		{FixedReal{Value: 12, Decimals: 3}, "12.000"},
	}

	for _, tt := range tests {
		if got := writeToString(t, tt.value); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}

func TestNameObject(t *testing.T) {
	tests := []struct {
		value    NameObject
		expected string
	}{
		{NameObject("Type"), "/Type"},
		{NameObject("Font"), "/Font"},
		{NameObject("Name With Space"), "/Name#20With#20Space"},
		{NameObject("A#B"), "/A#23B"},
		{NameObject("Paren(Name)"), "/Paren#28Name#29"},
	}

	for _, tt := range tests {
		if got := writeToString(t, tt.value); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}

func TestStringObjectLiteral(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "(Hello World)"},
		{"paren (inside)", `(paren \(inside\))`},
		{"back\\slash", `(back\\slash)`},
		{"line\nbreak", `(line\nbreak)`},
	}

	for _, tt := range tests {
		if got := writeToString(t, NewLiteralString(tt.input)); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}

func TestStringObjectHex(t *testing.T) {
	got := writeToString(t, NewHexString([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
	if got != "<deadbeef>" {
		t.Errorf("Expected '<deadbeef>', got '%s'", got)
	}
}

func TestNewTextString(t *testing.T) {
	// ASCII stays literal
	plain := NewTextString("Report")
	if plain.IsHex || string(plain.Value) != "Report" {
		t.Errorf("Expected plain literal string, got %q", plain.Value)
	}

	// Cyrillic switches to UTF-16BE with BOM
	cyr := NewTextString("Обзор")
	if len(cyr.Value) < 2 || cyr.Value[0] != 0xFE || cyr.Value[1] != 0xFF {
		t.Fatalf("Expected UTF-16BE BOM, got % X", cyr.Value[:2])
	}
	// О is U+041E
	if cyr.Value[2] != 0x04 || cyr.Value[3] != 0x1E {
		t.Errorf("Expected 041E for first rune, got %02X%02X", cyr.Value[2], cyr.Value[3])
	}

	// Supplementary plane encodes as a surrogate pair
	supp := NewTextString("\U0001F600")
	if len(supp.Value) != 2+4 {
		t.Fatalf("Expected BOM plus surrogate pair, got %d bytes", len(supp.Value))
	}
	want := []byte{0xFE, 0xFF, 0xD8, 0x3D, 0xDE, 0x00}
	if !bytes.Equal(supp.Value, want) {
		t.Errorf("Expected % X, got % X", want, supp.Value)
	}
}

func TestArrayObject(t *testing.T) {
	arr := NewArray(IntegerObject(1), NameObject("Two"), RealObject(3.5))

	if got := writeToString(t, arr); got != "[1 /Two 3.5]" {
		t.Errorf("Expected '[1 /Two 3.5]', got '%s'", got)
	}

	if arr.Get(1) == nil || arr.Get(3) != nil || arr.Get(-1) != nil {
		t.Error("Get bounds handling is wrong")
	}
}

func TestDictionaryInsertionOrder(t *testing.T) {
	dict := NewDictionary()
	dict.Set("Type", NameObject("Page"))
	dict.Set("MediaBox", NewArray(IntegerObject(0), IntegerObject(0)))
	dict.Set("Contents", NewReference(4))
	dict.Set("Type", NameObject("Pages")) // re-set keeps position

	wantKeys := []string{"Type", "MediaBox", "Contents"}
	if diff := cmp.Diff(wantKeys, dict.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}

	got := writeToString(t, dict)
	want := "<<\n/Type /Pages\n/MediaBox [0 0]\n/Contents 4 0 R\n>>"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestDictionaryAccessors(t *testing.T) {
	dict := NewDictionary()
	dict.Set("Size", IntegerObject(12))
	dict.Set("Root", NewReference(9))
	dict.Set("Kind", NameObject("Catalog"))
	dict.Set("ID", NewArray(NewHexString([]byte{1}), NewHexString([]byte{2})))

	if v, ok := dict.GetInt("Size"); !ok || v != 12 {
		t.Errorf("Expected Size 12, got %d (ok=%v)", v, ok)
	}
	if dict.GetName("Kind") != "Catalog" {
		t.Errorf("Expected 'Catalog', got '%s'", dict.GetName("Kind"))
	}
	if arr := dict.GetArray("ID"); len(arr) != 2 {
		t.Errorf("Expected 2 ID entries, got %d", len(arr))
	}
	if !dict.Has("Root") || dict.Has("Missing") {
		t.Error("Has reported the wrong keys")
	}
	if dict.Len() != 4 {
		t.Errorf("Expected length 4, got %d", dict.Len())
	}
}

func TestStreamObjectWrite(t *testing.T) {
	dict := NewDictionary()
	data := []byte("BT /F1 11.5 Tf ET")
	stream := NewStream(dict, data)

	got := writeToString(t, stream)
	want := "<<\n/Length 17\n>>\nstream\nBT /F1 11.5 Tf ET\nendstream"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestStreamObjectEncodedData(t *testing.T) {
	stream := NewStream(nil, []byte("raw payload that is long"))
	stream.EncodedData = []byte("short")

	got := writeToString(t, stream)
	want := "<<\n/Length 5\n>>\nstream\nshort\nendstream"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestIndirectObject(t *testing.T) {
	obj := NewIndirectObject(7, IntegerObject(99))

	got := writeToString(t, obj)
	want := "7 0 obj\n99\nendobj\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	ref := obj.GetReference()
	if ref.String() != "7 0 R" {
		t.Errorf("Expected '7 0 R', got '%s'", ref.String())
	}
}

func TestTrailerDictionary(t *testing.T) {
	trailer := NewTrailer()
	trailer.Set("Size", IntegerObject(10))
	trailer.Set("Root", NewReference(9))
	trailer.Set("Info", NewReference(8))

	if trailer.GetSize() != 10 {
		t.Errorf("Expected size 10, got %d", trailer.GetSize())
	}
	root := trailer.GetRoot()
	if root == nil || root.ObjectNumber != 9 {
		t.Errorf("Expected root 9, got %+v", root)
	}
	info := trailer.GetInfo()
	if info == nil || info.ObjectNumber != 8 {
		t.Errorf("Expected info 8, got %+v", info)
	}
}

func TestComputeFileID(t *testing.T) {
	params := map[string]string{
		"title": "Обзор",
		"pages": "4",
		"time":  "D:20250217093000Z00'00'",
	}

	id1 := ComputeFileID(params)
	id2 := ComputeFileID(params)
	if len(id1) != 16 {
		t.Fatalf("Expected 16-byte ID, got %d", len(id1))
	}
	if !bytes.Equal(id1, id2) {
		t.Error("Expected identical IDs for identical parameters")
	}

	params["pages"] = "5"
	if bytes.Equal(id1, ComputeFileID(params)) {
		t.Error("Expected ID to change when parameters change")
	}
}

func TestFormatDate(t *testing.T) {
	utc := time.Date(2025, 2, 17, 9, 30, 0, 0, time.UTC)
	if got := FormatDate(utc); got != "D:20250217093000Z00'00'" {
		t.Errorf("Expected UTC date format, got '%s'", got)
	}

	plus := time.Date(2025, 2, 17, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	if got := FormatDate(plus); got != "D:20250217093000+01'00'" {
		t.Errorf("Expected +01'00' offset, got '%s'", got)
	}

	minus := time.Date(2025, 2, 17, 9, 30, 0, 0, time.FixedZone("NST", -(3*3600 + 30*60)))
	if got := FormatDate(minus); got != "D:20250217093000-03'30'" {
		t.Errorf("Expected -03'30' offset, got '%s'", got)
	}
}
