// Package writer serializes finished documents into the PDF file format.
package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/georgepadayatti/digestpdf/pdf/filters"
	"github.com/georgepadayatti/digestpdf/pdf/generic"
)

// DocumentWriter accumulates numbered objects and writes them out as a
// complete file with a cross-reference table. Object ids are 1-based
// positions in insertion order and are never reused.
type DocumentWriter struct {
	objects      []*generic.IndirectObject
	trailerExtra *generic.DictionaryObject
}

// NewDocumentWriter creates an empty document writer.
func NewDocumentWriter() *DocumentWriter {
	return &DocumentWriter{
		trailerExtra: generic.NewDictionary(),
	}
}

// NextID returns the id the next added object will receive.
func (w *DocumentWriter) NextID() int {
	return len(w.objects) + 1
}

// AddObject appends an object and returns its id.
func (w *DocumentWriter) AddObject(obj generic.PdfObject) int {
	id := w.NextID()
	w.objects = append(w.objects, generic.NewIndirectObject(id, obj))
	return id
}

// AddStream appends a stream object and returns its id. The Length entry is
// always computed here; with compress set, the data is deflated and the
// Filter entry recorded. A nil dict starts from an empty dictionary.
func (w *DocumentWriter) AddStream(dict *generic.DictionaryObject, data []byte, compress bool) int {
	if dict == nil {
		dict = generic.NewDictionary()
	}

	stream := generic.NewStream(dict, data)
	if compress {
		if encoded, err := filters.EncodeStream(data, "FlateDecode"); err == nil {
			dict.Set("Filter", generic.NameObject("FlateDecode"))
			stream.EncodedData = encoded
		}
	}
	return w.AddObject(stream)
}

// SetTrailerEntry adds an entry to the file trailer beyond the standard
// Size and Root, such as Info or ID.
func (w *DocumentWriter) SetTrailerEntry(key string, obj generic.PdfObject) {
	w.trailerExtra.Set(key, obj)
}

// Write emits the whole file: header, every object with its byte offset
// recorded, the cross-reference table and the trailer pointing at rootID.
func (w *DocumentWriter) Write(out io.Writer, rootID int) error {
	var buf bytes.Buffer

	buf.WriteString("%PDF-1.6\n")
	buf.Write([]byte{0x25, 0xE2, 0xE3, 0xCF, 0xD3, 0x0A})

	offsets := make([]int64, 0, len(w.objects))
	for _, obj := range w.objects {
		offsets = append(offsets, int64(buf.Len()))
		if err := obj.Write(&buf); err != nil {
			return fmt.Errorf("write object %d: %w", obj.ObjectNumber, err)
		}
	}

	// The offsets recorded above are what makes the table valid: each entry
	// must point at the exact byte of its object's header line
	xrefOffset := int64(buf.Len())
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(w.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d %05d n \n", offset, 0)
	}

	trailer := generic.NewTrailer()
	trailer.Set("Size", generic.IntegerObject(len(w.objects)+1))
	trailer.Set("Root", generic.NewReference(rootID))
	for _, key := range w.trailerExtra.Keys() {
		trailer.Set(key, w.trailerExtra.Get(key))
	}

	buf.WriteString("trailer\n")
	if err := trailer.Write(&buf); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF", xrefOffset)

	_, err := out.Write(buf.Bytes())
	return err
}
