// Package reader provides PDF file reading and structural verification.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/georgepadayatti/digestpdf/pdf/filters"
	"github.com/georgepadayatti/digestpdf/pdf/generic"
)

// Common errors
var (
	ErrInvalidPDF      = errors.New("invalid PDF file")
	ErrNoXRef          = errors.New("no xref found")
	ErrInvalidXRef     = errors.New("invalid xref")
	ErrUnsupportedXRef = errors.New("unsupported xref type")
	ErrObjectNotFound  = errors.New("object not found")
	ErrOffsetMismatch  = errors.New("xref offset mismatch")
)

// XRefEntry represents an entry in the cross-reference table.
type XRefEntry struct {
	Offset     int64
	Generation int
	InUse      bool
}

// PdfFileReader reads files produced by the document writer: a header,
// consecutive indirect objects, one traditional xref table and a trailer.
type PdfFileReader struct {
	data    []byte
	Version string
	Trailer *generic.TrailerDictionary
	XRef    map[int]*XRefEntry
	Objects map[int]generic.PdfObject

	// Document structure
	Root  *generic.DictionaryObject
	Pages []*generic.DictionaryObject

	// XRefOffset is the byte position named by startxref.
	XRefOffset int64
}

// NewPdfFileReader creates a new PDF reader.
func NewPdfFileReader(r io.Reader) (*PdfFileReader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF data: %w", err)
	}

	return NewPdfFileReaderFromBytes(data)
}

// NewPdfFileReaderFromBytes creates a new PDF reader from bytes.
func NewPdfFileReaderFromBytes(data []byte) (*PdfFileReader, error) {
	reader := &PdfFileReader{
		data:    data,
		XRef:    make(map[int]*XRefEntry),
		Objects: make(map[int]generic.PdfObject),
	}

	if err := reader.parse(); err != nil {
		return nil, err
	}

	return reader, nil
}

// parse parses the PDF file.
func (r *PdfFileReader) parse() error {
	if err := r.parseHeader(); err != nil {
		return err
	}

	if err := r.findAndParseXRef(); err != nil {
		return err
	}

	return r.loadDocumentStructure()
}

// parseHeader parses the PDF header.
func (r *PdfFileReader) parseHeader() error {
	if len(r.data) < 8 {
		return ErrInvalidPDF
	}

	headerRegex := regexp.MustCompile(`%PDF-(\d+\.\d+)`)
	match := headerRegex.Find(r.data[:min(100, len(r.data))])
	if match == nil {
		return fmt.Errorf("%w: missing PDF header", ErrInvalidPDF)
	}

	r.Version = string(match[5:])
	return nil
}

// findAndParseXRef locates the xref table via startxref and parses it.
func (r *PdfFileReader) findAndParseXRef() error {
	startxrefPos := bytes.LastIndex(r.data, []byte("startxref"))
	if startxrefPos == -1 {
		return ErrNoXRef
	}

	offset, err := r.parseXRefOffset(r.data[startxrefPos+9:])
	if err != nil {
		return err
	}
	r.XRefOffset = offset

	if offset < 0 || offset >= int64(len(r.data)) {
		return fmt.Errorf("%w: xref offset out of bounds", ErrInvalidXRef)
	}

	pos := int(offset)
	for pos < len(r.data) && (r.data[pos] == ' ' || r.data[pos] == '\n' || r.data[pos] == '\r') {
		pos++
	}

	if pos+4 > len(r.data) || string(r.data[pos:pos+4]) != "xref" {
		return fmt.Errorf("%w: cross-reference streams", ErrUnsupportedXRef)
	}

	trailer, err := r.parseXRefTable(pos)
	if err != nil {
		return err
	}
	r.Trailer = trailer
	return nil
}

// parseXRefOffset parses the xref offset from startxref.
func (r *PdfFileReader) parseXRefOffset(data []byte) (int64, error) {
	i := 0
	for i < len(data) && (data[i] == ' ' || data[i] == '\n' || data[i] == '\r' || data[i] == '\t') {
		i++
	}

	start := i
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		i++
	}

	if start == i {
		return 0, fmt.Errorf("%w: missing xref offset", ErrInvalidXRef)
	}

	offset, err := strconv.ParseInt(string(data[start:i]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid xref offset: %v", ErrInvalidXRef, err)
	}

	return offset, nil
}

// parseXRefTable parses a traditional xref table starting at "xref".
func (r *PdfFileReader) parseXRefTable(pos int) (*generic.TrailerDictionary, error) {
	pos += 4
	for pos < len(r.data) && (r.data[pos] == ' ' || r.data[pos] == '\n' || r.data[pos] == '\r') {
		pos++
	}

	for {
		if pos+7 <= len(r.data) && string(r.data[pos:pos+7]) == "trailer" {
			pos += 7
			break
		}

		startObj, count, newPos, err := r.parseXRefSubsectionHeader(pos)
		if err != nil {
			return nil, err
		}
		pos = newPos

		for i := 0; i < count; i++ {
			entry, newPos, err := r.parseXRefEntry(pos)
			if err != nil {
				return nil, err
			}
			pos = newPos

			objNum := startObj + i
			if _, exists := r.XRef[objNum]; !exists {
				r.XRef[objNum] = entry
			}
		}
	}

	for pos < len(r.data) && (r.data[pos] == ' ' || r.data[pos] == '\n' || r.data[pos] == '\r') {
		pos++
	}

	parser := generic.NewParser(r.data[pos:])
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse trailer: %w", err)
	}

	dict, ok := obj.(*generic.DictionaryObject)
	if !ok {
		return nil, fmt.Errorf("%w: trailer must be dictionary", ErrInvalidXRef)
	}

	return &generic.TrailerDictionary{DictionaryObject: dict}, nil
}

// parseXRefSubsectionHeader parses an "start count" subsection line.
func (r *PdfFileReader) parseXRefSubsectionHeader(pos int) (startObj, count, newPos int, err error) {
	for pos < len(r.data) && (r.data[pos] == ' ' || r.data[pos] == '\n' || r.data[pos] == '\r') {
		pos++
	}

	start := pos
	for pos < len(r.data) && r.data[pos] >= '0' && r.data[pos] <= '9' {
		pos++
	}
	if start == pos {
		return 0, 0, pos, fmt.Errorf("%w: missing subsection start", ErrInvalidXRef)
	}
	startObj64, _ := strconv.ParseInt(string(r.data[start:pos]), 10, 32)
	startObj = int(startObj64)

	for pos < len(r.data) && (r.data[pos] == ' ' || r.data[pos] == '\t') {
		pos++
	}

	start = pos
	for pos < len(r.data) && r.data[pos] >= '0' && r.data[pos] <= '9' {
		pos++
	}
	if start == pos {
		return 0, 0, pos, fmt.Errorf("%w: missing subsection count", ErrInvalidXRef)
	}
	count64, _ := strconv.ParseInt(string(r.data[start:pos]), 10, 32)
	count = int(count64)

	for pos < len(r.data) && r.data[pos] != '\n' && r.data[pos] != '\r' {
		pos++
	}
	for pos < len(r.data) && (r.data[pos] == '\n' || r.data[pos] == '\r') {
		pos++
	}

	return startObj, count, pos, nil
}

// parseXRefEntry parses a single 20-byte xref entry.
func (r *PdfFileReader) parseXRefEntry(pos int) (*XRefEntry, int, error) {
	// Format: nnnnnnnnnn ggggg n/f
	// 10-digit offset, space, 5-digit generation, space, 'n' or 'f', EOL

	if pos+20 > len(r.data) {
		return nil, pos, fmt.Errorf("%w: truncated xref entry", ErrInvalidXRef)
	}

	line := string(r.data[pos : pos+20])

	offsetStr := strings.TrimSpace(line[:10])
	offset, err := strconv.ParseInt(offsetStr, 10, 64)
	if err != nil {
		return nil, pos, fmt.Errorf("%w: invalid offset: %v", ErrInvalidXRef, err)
	}

	genStr := strings.TrimSpace(line[11:16])
	gen, err := strconv.ParseInt(genStr, 10, 32)
	if err != nil {
		return nil, pos, fmt.Errorf("%w: invalid generation: %v", ErrInvalidXRef, err)
	}

	status := line[17]
	inUse := status == 'n'

	pos += 20
	for pos < len(r.data) && (r.data[pos] == '\n' || r.data[pos] == '\r' || r.data[pos] == ' ') {
		pos++
	}

	return &XRefEntry{
		Offset:     offset,
		Generation: int(gen),
		InUse:      inUse,
	}, pos, nil
}

// loadDocumentStructure loads the document catalog and page list.
func (r *PdfFileReader) loadDocumentStructure() error {
	rootRef := r.Trailer.GetRoot()
	if rootRef == nil {
		return fmt.Errorf("%w: missing Root", ErrInvalidPDF)
	}

	rootObj, err := r.GetObject(rootRef.ObjectNumber)
	if err != nil {
		return fmt.Errorf("failed to load Root: %w", err)
	}

	root, ok := rootObj.(*generic.DictionaryObject)
	if !ok {
		return fmt.Errorf("%w: Root must be dictionary", ErrInvalidPDF)
	}
	r.Root = root

	if err := r.loadPages(); err != nil {
		return fmt.Errorf("failed to load pages: %w", err)
	}

	return nil
}

// loadPages loads all pages from the page tree.
func (r *PdfFileReader) loadPages() error {
	pagesRef, ok := r.Root.Get("Pages").(generic.Reference)
	if !ok {
		return fmt.Errorf("%w: missing Pages reference", ErrInvalidPDF)
	}

	pagesObj, err := r.GetObject(pagesRef.ObjectNumber)
	if err != nil {
		return err
	}

	pagesDict, ok := pagesObj.(*generic.DictionaryObject)
	if !ok {
		return fmt.Errorf("%w: Pages must be dictionary", ErrInvalidPDF)
	}

	return r.loadPageTree(pagesDict)
}

// loadPageTree recursively loads pages from a page tree node.
func (r *PdfFileReader) loadPageTree(node *generic.DictionaryObject) error {
	if node.GetName("Type") == "Page" {
		r.Pages = append(r.Pages, node)
		return nil
	}

	kids := node.GetArray("Kids")
	if kids == nil {
		return nil
	}

	for _, kid := range kids {
		ref, ok := kid.(generic.Reference)
		if !ok {
			continue
		}

		kidObj, err := r.GetObject(ref.ObjectNumber)
		if err != nil {
			continue
		}

		kidDict, ok := kidObj.(*generic.DictionaryObject)
		if !ok {
			continue
		}

		if err := r.loadPageTree(kidDict); err != nil {
			return err
		}
	}

	return nil
}

// GetObject retrieves an object by object number.
func (r *PdfFileReader) GetObject(objNum int) (generic.PdfObject, error) {
	if obj, ok := r.Objects[objNum]; ok {
		return obj, nil
	}

	entry, ok := r.XRef[objNum]
	if !ok {
		return nil, fmt.Errorf("%w: object %d", ErrObjectNotFound, objNum)
	}

	if !entry.InUse {
		return nil, fmt.Errorf("%w: object %d is free", ErrObjectNotFound, objNum)
	}

	obj, err := r.getObjectAtOffset(objNum, entry.Offset)
	if err != nil {
		return nil, err
	}

	r.Objects[objNum] = obj
	return obj, nil
}

// getObjectAtOffset reads the object at the given file offset and checks
// that the header there carries the expected object number.
func (r *PdfFileReader) getObjectAtOffset(objNum int, offset int64) (generic.PdfObject, error) {
	if offset < 0 || offset >= int64(len(r.data)) {
		return nil, fmt.Errorf("%w: offset out of bounds", ErrObjectNotFound)
	}

	data := r.data[offset:]
	parser := generic.NewParser(data)

	num, gen, err := parser.ParseObjectHeader()
	if err != nil {
		return nil, fmt.Errorf("%w: object %d at offset %d: %v", ErrOffsetMismatch, objNum, offset, err)
	}
	if num != objNum {
		return nil, fmt.Errorf("%w: object %d at offset %d: found %d %d obj", ErrOffsetMismatch, objNum, offset, num, gen)
	}

	obj, err := parser.ParseObject()
	if err != nil {
		return nil, err
	}

	dict, ok := obj.(*generic.DictionaryObject)
	if !ok {
		return obj, nil
	}

	return r.finishObject(parser, data, dict)
}

// finishObject checks for a stream body after a dictionary and reads it.
func (r *PdfFileReader) finishObject(parser *generic.Parser, data []byte, dict *generic.DictionaryObject) (generic.PdfObject, error) {
	mark := parser.Pos()
	token, err := parser.ReadToken()
	if err != nil || token != "stream" {
		parser.Seek(mark)
		return dict, nil
	}

	// An end-of-line separates the stream keyword from the data.
	pos := parser.Pos()
	if pos < int64(len(data)) && data[pos] == '\r' {
		pos++
	}
	if pos < int64(len(data)) && data[pos] == '\n' {
		pos++
	}

	length, ok := dict.GetInt("Length")
	if !ok || length < 0 {
		return nil, fmt.Errorf("%w: stream missing Length", ErrInvalidPDF)
	}
	end := pos + length
	if end > int64(len(data)) {
		return nil, fmt.Errorf("%w: stream data out of bounds", ErrInvalidPDF)
	}

	stream := generic.NewStream(dict, data[pos:end])
	if dict.Has("Filter") {
		stream.EncodedData = stream.Data
		stream.Data = nil
	}
	return stream, nil
}

// DecodeStream returns a stream's data with its filter applied.
func (r *PdfFileReader) DecodeStream(stream *generic.StreamObject) ([]byte, error) {
	payload := stream.Data
	if len(stream.EncodedData) > 0 {
		payload = stream.EncodedData
	}

	name := stream.Dictionary.GetName("Filter")
	if name == "" {
		if arr := stream.Dictionary.GetArray("Filter"); len(arr) == 1 {
			if n, ok := arr[0].(generic.NameObject); ok {
				name = string(n)
			}
		}
	}
	if name == "" {
		return payload, nil
	}

	return filters.DecodeStream(payload, name)
}

// VerifyOffsets checks that every in-use xref entry points at the header
// of the object it names.
func (r *PdfFileReader) VerifyOffsets() error {
	nums := make([]int, 0, len(r.XRef))
	for num := range r.XRef {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	for _, num := range nums {
		entry := r.XRef[num]
		if !entry.InUse {
			continue
		}
		if entry.Offset < 0 || entry.Offset >= int64(len(r.data)) {
			return fmt.Errorf("%w: object %d offset %d out of bounds", ErrOffsetMismatch, num, entry.Offset)
		}

		parser := generic.NewParser(r.data[entry.Offset:])
		found, gen, err := parser.ParseObjectHeader()
		if err != nil {
			return fmt.Errorf("%w: object %d at offset %d: %v", ErrOffsetMismatch, num, entry.Offset, err)
		}
		if found != num || gen != entry.Generation {
			return fmt.Errorf("%w: object %d at offset %d: found %d %d obj", ErrOffsetMismatch, num, entry.Offset, found, gen)
		}
	}

	return nil
}
