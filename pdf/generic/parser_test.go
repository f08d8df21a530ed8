package generic

import (
	"errors"
	"testing"
)

func TestParserDictionary(t *testing.T) {
	input := "<< /Size 12 /Root 11 0 R /ID [<0102> <0102>] >>"
	p := NewParser([]byte(input))

	obj, err := p.ParseObject()
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	dict, ok := obj.(*DictionaryObject)
	if !ok {
		t.Fatalf("Expected dictionary, got %T", obj)
	}

	if size, ok := dict.GetInt("Size"); !ok || size != 12 {
		t.Errorf("Expected Size 12, got %d", size)
	}
	root, ok := dict.Get("Root").(Reference)
	if !ok || root.ObjectNumber != 11 {
		t.Errorf("Expected Root 11 0 R, got %v", dict.Get("Root"))
	}
	ids := dict.GetArray("ID")
	if len(ids) != 2 {
		t.Fatalf("Expected 2 ID entries, got %d", len(ids))
	}
	first, ok := ids[0].(*StringObject)
	if !ok || !first.IsHex || len(first.Value) != 2 {
		t.Errorf("Expected 2-byte hex string, got %v", ids[0])
	}
}

func TestParserNestedDictionary(t *testing.T) {
	input := "<< /Resources << /Font << /F1 1 0 R >> >> /Count 3 >>"
	p := NewParser([]byte(input))

	obj, err := p.ParseObject()
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	dict := obj.(*DictionaryObject)

	res, ok := dict.Get("Resources").(*DictionaryObject)
	if !ok {
		t.Fatalf("Expected nested dictionary for Resources")
	}
	fonts, ok := res.Get("Font").(*DictionaryObject)
	if !ok {
		t.Fatalf("Expected nested dictionary for Font")
	}
	ref, ok := fonts.Get("F1").(Reference)
	if !ok || ref.ObjectNumber != 1 {
		t.Errorf("Expected F1 1 0 R, got %v", fonts.Get("F1"))
	}
}

func TestParserScalars(t *testing.T) {
	tests := []struct {
		input string
		check func(PdfObject) bool
	}{
		{"42", func(o PdfObject) bool { i, ok := o.(IntegerObject); return ok && i == 42 }},
		{"-7", func(o PdfObject) bool { i, ok := o.(IntegerObject); return ok && i == -7 }},
		{"3.5", func(o PdfObject) bool { r, ok := o.(RealObject); return ok && r == 3.5 }},
		{"/Identity-H", func(o PdfObject) bool { n, ok := o.(NameObject); return ok && n == "Identity-H" }},
		{"/With#20Space", func(o PdfObject) bool { n, ok := o.(NameObject); return ok && n == "With Space" }},
		{"true", func(o PdfObject) bool { b, ok := o.(BooleanObject); return ok && bool(b) }},
		{"(literal \\(x\\))", func(o PdfObject) bool {
			s, ok := o.(*StringObject)
			return ok && string(s.Value) == "literal (x)"
		}},
	}

	for _, tt := range tests {
		p := NewParser([]byte(tt.input))
		obj, err := p.ParseObject()
		if err != nil {
			t.Errorf("ParseObject(%q) failed: %v", tt.input, err)
			continue
		}
		if !tt.check(obj) {
			t.Errorf("ParseObject(%q) returned wrong value: %v", tt.input, obj)
		}
	}
}

func TestParserArrayOfReferences(t *testing.T) {
	p := NewParser([]byte("[3 0 R 5 0 R 7 0 R]"))
	obj, err := p.ParseObject()
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	arr, ok := obj.(ArrayObject)
	if !ok || len(arr) != 3 {
		t.Fatalf("Expected 3-element array, got %v", obj)
	}
	for i, want := range []int{3, 5, 7} {
		ref, ok := arr[i].(Reference)
		if !ok || ref.ObjectNumber != want {
			t.Errorf("Element %d: expected %d 0 R, got %v", i, want, arr[i])
		}
	}
}

func TestParserNumberRunWithoutR(t *testing.T) {
	// "1 2 3" must stay three integers, not collapse into a reference
	p := NewParser([]byte("[1 2 3]"))
	obj, err := p.ParseObject()
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	arr := obj.(ArrayObject)
	if len(arr) != 3 {
		t.Fatalf("Expected 3 integers, got %d elements", len(arr))
	}
	for i, want := range []int64{1, 2, 3} {
		if n, ok := arr[i].(IntegerObject); !ok || int64(n) != want {
			t.Errorf("Element %d: expected %d, got %v", i, want, arr[i])
		}
	}
}

func TestParserObjectHeader(t *testing.T) {
	p := NewParser([]byte("12 0 obj\n<< >>\nendobj\n"))
	objNum, genNum, err := p.ParseObjectHeader()
	if err != nil {
		t.Fatalf("ParseObjectHeader failed: %v", err)
	}
	if objNum != 12 || genNum != 0 {
		t.Errorf("Expected 12 0, got %d %d", objNum, genNum)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unterminated string", "(abc", ErrInvalidString},
		{"unterminated dict", "<< /Key 1", ErrInvalidDictionary},
		{"unterminated array", "[1 2", ErrInvalidArray},
		{"bad object", "}", ErrInvalidObject},
		{"bare sign", "-", ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser([]byte(tt.input))
			_, err := p.ParseObject()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParserSkipsComments(t *testing.T) {
	p := NewParser([]byte("% a comment\n  42"))
	obj, err := p.ParseObject()
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	if n, ok := obj.(IntegerObject); !ok || n != 42 {
		t.Errorf("Expected 42, got %v", obj)
	}
}
