// Package generic implements the PDF object model shared by the writer,
// reader and document assembler. Dictionaries preserve insertion order so
// emitted files are byte-stable across runs.
package generic

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"time"
	"unicode/utf16"
)

// PdfObject is the base interface for all PDF objects.
type PdfObject interface {
	// Write serializes the object to PDF syntax.
	Write(w io.Writer) error
}

// Reference represents an indirect reference to a PDF object.
type Reference struct {
	ObjectNumber     int
	GenerationNumber int
}

// NewReference creates a reference to the given object number, generation 0.
func NewReference(objNum int) Reference {
	return Reference{ObjectNumber: objNum}
}

// Write implements PdfObject.
func (r Reference) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d %d R", r.ObjectNumber, r.GenerationNumber)
	return err
}

// String returns the string representation.
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.ObjectNumber, r.GenerationNumber)
}

// IndirectObject wraps a PDF object with its object and generation numbers.
type IndirectObject struct {
	ObjectNumber     int
	GenerationNumber int
	Object           PdfObject
}

// NewIndirectObject creates a new indirect object.
func NewIndirectObject(objNum int, obj PdfObject) *IndirectObject {
	return &IndirectObject{ObjectNumber: objNum, Object: obj}
}

// Write implements PdfObject.
func (i *IndirectObject) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d %d obj\n", i.ObjectNumber, i.GenerationNumber)
	if err != nil {
		return err
	}
	if i.Object != nil {
		if err := i.Object.Write(w); err != nil {
			return err
		}
	}
	_, err = w.Write([]byte("\nendobj\n"))
	return err
}

// GetReference returns a reference to this indirect object.
func (i *IndirectObject) GetReference() Reference {
	return Reference{ObjectNumber: i.ObjectNumber, GenerationNumber: i.GenerationNumber}
}

// BooleanObject represents a PDF boolean value.
type BooleanObject bool

// Write implements PdfObject.
func (b BooleanObject) Write(w io.Writer) error {
	if b {
		_, err := w.Write([]byte("true"))
		return err
	}
	_, err := w.Write([]byte("false"))
	return err
}

// IntegerObject represents a PDF integer value.
type IntegerObject int64

// Write implements PdfObject.
func (i IntegerObject) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d", int64(i))
	return err
}

// RealObject represents a PDF real (floating point) value.
type RealObject float64

// Write implements PdfObject.
func (r RealObject) Write(w io.Writer) error {
	// Shortest representation that round-trips
	s := strconv.FormatFloat(float64(r), 'f', -1, 64)
	_, err := w.Write([]byte(s))
	return err
}

// FixedReal is a real value written with a fixed number of decimals,
// used where viewers expect stable formatting (e.g. MediaBox).
type FixedReal struct {
	Value    float64
	Decimals int
}

// Write implements PdfObject.
func (f FixedReal) Write(w io.Writer) error {
	_, err := w.Write([]byte(strconv.FormatFloat(f.Value, 'f', f.Decimals, 64)))
	return err
}

// NameObject represents a PDF name object (e.g. /Type).
type NameObject string

var nameEscapeRegex = regexp.MustCompile(`[^!-~]|[#%/\[\]()<>{}]`)

// Write implements PdfObject.
func (n NameObject) Write(w io.Writer) error {
	escaped := nameEscapeRegex.ReplaceAllStringFunc(string(n), func(s string) string {
		var buf bytes.Buffer
		for i := 0; i < len(s); i++ {
			fmt.Fprintf(&buf, "#%02X", s[i])
		}
		return buf.String()
	})
	_, err := fmt.Fprintf(w, "/%s", escaped)
	return err
}

// String returns the name without the leading slash.
func (n NameObject) String() string {
	return string(n)
}

// StringObject represents a PDF string object.
type StringObject struct {
	Value []byte
	IsHex bool
}

// NewLiteralString creates a new literal string.
func NewLiteralString(s string) *StringObject {
	return &StringObject{Value: []byte(s)}
}

// NewHexString creates a new hex string.
func NewHexString(data []byte) *StringObject {
	return &StringObject{Value: data, IsHex: true}
}

// NewTextString creates a PDF text string, switching to UTF-16BE with a BOM
// when the text does not fit in Latin-1.
func NewTextString(s string) *StringObject {
	plain := true
	for _, r := range s {
		if r > 255 {
			plain = false
			break
		}
	}
	if plain {
		return &StringObject{Value: []byte(s)}
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xFE, 0xFF})
	for _, u := range utf16.Encode([]rune(s)) {
		buf.WriteByte(byte(u >> 8))
		buf.WriteByte(byte(u))
	}
	return &StringObject{Value: buf.Bytes()}
}

// Write implements PdfObject.
func (s *StringObject) Write(w io.Writer) error {
	if s.IsHex {
		_, err := fmt.Fprintf(w, "<%s>", hex.EncodeToString(s.Value))
		return err
	}

	var buf bytes.Buffer
	buf.WriteByte('(')
	for _, b := range s.Value {
		switch b {
		case '\\':
			buf.WriteString("\\\\")
		case '(':
			buf.WriteString("\\(")
		case ')':
			buf.WriteString("\\)")
		case '\n':
			buf.WriteString("\\n")
		case '\r':
			buf.WriteString("\\r")
		case '\t':
			buf.WriteString("\\t")
		default:
			if b < 32 || b > 126 {
				fmt.Fprintf(&buf, "\\%03o", b)
			} else {
				buf.WriteByte(b)
			}
		}
	}
	buf.WriteByte(')')
	_, err := w.Write(buf.Bytes())
	return err
}

// ArrayObject represents a PDF array.
type ArrayObject []PdfObject

// NewArray creates a new array.
func NewArray(items ...PdfObject) ArrayObject {
	return ArrayObject(items)
}

// Write implements PdfObject.
func (a ArrayObject) Write(w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return err
	}
	for i, item := range a {
		if i > 0 {
			if _, err := w.Write([]byte(" ")); err != nil {
				return err
			}
		}
		if err := item.Write(w); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte("]"))
	return err
}

// Get returns the item at the given index, or nil when out of range.
func (a ArrayObject) Get(index int) PdfObject {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// DictionaryObject represents a PDF dictionary. Keys serialize in the order
// they were first set.
type DictionaryObject struct {
	entries map[string]PdfObject
	order   []string
}

// NewDictionary creates a new dictionary.
func NewDictionary() *DictionaryObject {
	return &DictionaryObject{
		entries: make(map[string]PdfObject),
		order:   make([]string, 0),
	}
}

// Write implements PdfObject.
func (d *DictionaryObject) Write(w io.Writer) error {
	if _, err := w.Write([]byte("<<")); err != nil {
		return err
	}
	for _, key := range d.order {
		if _, err := w.Write([]byte("\n")); err != nil {
			return err
		}
		if err := NameObject(key).Write(w); err != nil {
			return err
		}
		if _, err := w.Write([]byte(" ")); err != nil {
			return err
		}
		if err := d.entries[key].Write(w); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte("\n>>"))
	return err
}

// Set sets a key-value pair. Re-setting an existing key keeps its position.
func (d *DictionaryObject) Set(key string, value PdfObject) {
	if _, exists := d.entries[key]; !exists {
		d.order = append(d.order, key)
	}
	d.entries[key] = value
}

// Get returns the value for a key.
func (d *DictionaryObject) Get(key string) PdfObject {
	return d.entries[key]
}

// GetName returns a name value, or "" when absent or not a name.
func (d *DictionaryObject) GetName(key string) string {
	if name, ok := d.Get(key).(NameObject); ok {
		return string(name)
	}
	return ""
}

// GetInt returns an integer value.
func (d *DictionaryObject) GetInt(key string) (int64, bool) {
	if i, ok := d.Get(key).(IntegerObject); ok {
		return int64(i), true
	}
	return 0, false
}

// GetArray returns an array value, or nil.
func (d *DictionaryObject) GetArray(key string) ArrayObject {
	if arr, ok := d.Get(key).(ArrayObject); ok {
		return arr
	}
	return nil
}

// Has returns true if the key exists.
func (d *DictionaryObject) Has(key string) bool {
	_, exists := d.entries[key]
	return exists
}

// Keys returns all keys in insertion order.
func (d *DictionaryObject) Keys() []string {
	return d.order
}

// Len returns the number of entries.
func (d *DictionaryObject) Len() int {
	return len(d.entries)
}

// StreamObject represents a PDF stream. When EncodedData is set it is the
// payload that gets written; the writer keeps Data as the raw form.
type StreamObject struct {
	Dictionary  *DictionaryObject
	Data        []byte
	EncodedData []byte
}

// NewStream creates a new stream.
func NewStream(dict *DictionaryObject, data []byte) *StreamObject {
	if dict == nil {
		dict = NewDictionary()
	}
	return &StreamObject{Dictionary: dict, Data: data}
}

// Write implements PdfObject. Length is set from the written payload.
func (s *StreamObject) Write(w io.Writer) error {
	data := s.Data
	if len(s.EncodedData) > 0 {
		data = s.EncodedData
	}

	s.Dictionary.Set("Length", IntegerObject(len(data)))
	if err := s.Dictionary.Write(w); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\nstream\n")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\nendstream"))
	return err
}

// TrailerDictionary represents the PDF trailer.
type TrailerDictionary struct {
	*DictionaryObject
}

// NewTrailer creates a new trailer dictionary.
func NewTrailer() *TrailerDictionary {
	return &TrailerDictionary{DictionaryObject: NewDictionary()}
}

// GetRoot returns the document catalog reference.
func (t *TrailerDictionary) GetRoot() *Reference {
	if ref, ok := t.Get("Root").(Reference); ok {
		return &ref
	}
	return nil
}

// GetInfo returns the document info reference.
func (t *TrailerDictionary) GetInfo() *Reference {
	if ref, ok := t.Get("Info").(Reference); ok {
		return &ref
	}
	return nil
}

// GetSize returns the total number of objects including the free head.
func (t *TrailerDictionary) GetSize() int64 {
	if size, ok := t.GetInt("Size"); ok {
		return size
	}
	return 0
}

// ComputeFileID generates a file ID from document parameters. Keys are
// hashed in sorted order so the ID is stable for identical inputs.
func ComputeFileID(info map[string]string) []byte {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := md5.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte(info[k]))
	}
	return h.Sum(nil)
}

// FormatDate renders a time in PDF date syntax, e.g. D:20250217093000+01'00'.
func FormatDate(t time.Time) string {
	_, offset := t.Zone()
	if offset == 0 {
		return t.Format("D:20060102150405") + "Z00'00'"
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%s%02d'%02d'", t.Format("D:20060102150405"), sign, offset/3600, (offset%3600)/60)
}
