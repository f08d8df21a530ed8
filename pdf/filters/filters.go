// Package filters provides the stream filters used when writing and
// verifying documents.
package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// Common errors
var (
	ErrUnsupportedFilter = errors.New("unsupported filter")
	ErrDecodeFailed      = errors.New("decode failed")
)

// Filter represents a PDF stream filter.
type Filter interface {
	// Decode decodes the data.
	Decode(data []byte) ([]byte, error)
	// Encode encodes the data.
	Encode(data []byte) ([]byte, error)
	// Name returns the filter name.
	Name() string
}

// FlateDecodeFilter implements the FlateDecode filter (zlib compression).
type FlateDecodeFilter struct{}

// Name implements Filter.
func (f *FlateDecodeFilter) Name() string {
	return "FlateDecode"
}

// Decode implements Filter.
func (f *FlateDecodeFilter) Decode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return buf.Bytes(), nil
}

// Encode implements Filter.
func (f *FlateDecodeFilter) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Registry holds all registered filters.
var Registry = map[string]Filter{
	"FlateDecode": &FlateDecodeFilter{},
	"Fl":          &FlateDecodeFilter{},
}

// GetFilter returns a filter by name.
func GetFilter(name string) (Filter, error) {
	if f, ok := Registry[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, name)
}

// EncodeStream encodes stream data with the named filter.
func EncodeStream(data []byte, filterName string) ([]byte, error) {
	filter, err := GetFilter(filterName)
	if err != nil {
		return nil, err
	}
	encoded, err := filter.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("filter %s encode failed: %w", filterName, err)
	}
	return encoded, nil
}

// DecodeStream decodes stream data with the named filter.
func DecodeStream(data []byte, filterName string) ([]byte, error) {
	filter, err := GetFilter(filterName)
	if err != nil {
		return nil, err
	}
	decoded, err := filter.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("filter %s decode failed: %w", filterName, err)
	}
	return decoded, nil
}
