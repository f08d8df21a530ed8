package generic

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Parser errors
var (
	ErrInvalidObject     = errors.New("invalid PDF object")
	ErrInvalidDictionary = errors.New("invalid PDF dictionary")
	ErrInvalidArray      = errors.New("invalid PDF array")
	ErrInvalidString     = errors.New("invalid PDF string")
	ErrInvalidName       = errors.New("invalid PDF name")
	ErrInvalidNumber     = errors.New("invalid PDF number")
)

// Parser parses PDF objects from a byte slice. It covers the direct object
// syntax the document writer emits; streams and indirect object bodies are
// handled by the reader on top of it.
type Parser struct {
	data []byte
	pos  int64
}

// NewParser creates a parser positioned at the start of data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Pos returns the current byte position.
func (p *Parser) Pos() int64 {
	return p.pos
}

// Seek moves the parser to an absolute byte position.
func (p *Parser) Seek(pos int64) {
	p.pos = pos
}

func (p *Parser) readByte() (byte, error) {
	if p.pos >= int64(len(p.data)) {
		return 0, io.EOF
	}
	b := p.data[p.pos]
	p.pos++
	return b, nil
}

func (p *Parser) unreadByte() {
	if p.pos > 0 {
		p.pos--
	}
}

func (p *Parser) peekByte() (byte, error) {
	b, err := p.readByte()
	if err != nil {
		return 0, err
	}
	p.unreadByte()
	return b, nil
}

// skipWhitespace skips whitespace and comments.
func (p *Parser) skipWhitespace() {
	for {
		b, err := p.readByte()
		if err != nil {
			return
		}
		switch b {
		case ' ', '\t', '\n', '\r', '\x00', '\x0c':
			continue
		case '%':
			for {
				c, err := p.readByte()
				if err != nil {
					return
				}
				if c == '\n' || c == '\r' {
					break
				}
			}
		default:
			p.unreadByte()
			return
		}
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\x00' || b == '\x0c'
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' ||
		b == '[' || b == ']' || b == '{' || b == '}' ||
		b == '/' || b == '%'
}

// ReadToken reads a run of regular characters.
func (p *Parser) ReadToken() (string, error) {
	p.skipWhitespace()

	var buf bytes.Buffer
	for {
		b, err := p.readByte()
		if err != nil {
			break
		}
		if isWhitespace(b) || isDelimiter(b) {
			p.unreadByte()
			break
		}
		buf.WriteByte(b)
	}
	return buf.String(), nil
}

// ParseObject parses a direct PDF object.
func (p *Parser) ParseObject() (PdfObject, error) {
	p.skipWhitespace()

	b, err := p.peekByte()
	if err != nil {
		return nil, err
	}

	switch b {
	case '(':
		return p.parseString()
	case '<':
		return p.parseHexOrDict()
	case '[':
		return p.parseArray()
	case '/':
		return p.parseName()
	case 't', 'f':
		return p.parseBoolean()
	default:
		if b == '-' || b == '+' || b == '.' || (b >= '0' && b <= '9') {
			return p.parseNumber()
		}
		return nil, fmt.Errorf("%w: unexpected character '%c'", ErrInvalidObject, b)
	}
}

func (p *Parser) parseString() (*StringObject, error) {
	if b, err := p.readByte(); err != nil || b != '(' {
		return nil, ErrInvalidString
	}

	var buf bytes.Buffer
	depth := 1
	for depth > 0 {
		b, err := p.readByte()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated string", ErrInvalidString)
		}
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(b)
			}
		case '\\':
			escaped, err := p.readByte()
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated escape", ErrInvalidString)
			}
			switch escaped {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(escaped)
			case '\r':
				if next, err := p.peekByte(); err == nil && next == '\n' {
					p.readByte()
				}
			case '\n':
				// Line continuation
			default:
				if escaped >= '0' && escaped <= '7' {
					octal := string(escaped)
					for i := 0; i < 2; i++ {
						next, err := p.peekByte()
						if err != nil || next < '0' || next > '7' {
							break
						}
						p.readByte()
						octal += string(next)
					}
					val, _ := strconv.ParseInt(octal, 8, 16)
					buf.WriteByte(byte(val))
				} else {
					buf.WriteByte(escaped)
				}
			}
		default:
			buf.WriteByte(b)
		}
	}
	return &StringObject{Value: buf.Bytes()}, nil
}

func (p *Parser) parseHexOrDict() (PdfObject, error) {
	if b, err := p.readByte(); err != nil || b != '<' {
		return nil, fmt.Errorf("%w: expected '<'", ErrInvalidObject)
	}

	second, err := p.peekByte()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated after '<'", ErrInvalidObject)
	}
	if second == '<' {
		p.readByte()
		return p.parseDictionary()
	}
	return p.parseHexString()
}

func (p *Parser) parseHexString() (*StringObject, error) {
	var buf bytes.Buffer
	for {
		b, err := p.readByte()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated hex string", ErrInvalidString)
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		buf.WriteByte(b)
	}

	hexStr := buf.String()
	if len(hexStr)%2 != 0 {
		hexStr += "0"
	}
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidString, err)
	}
	return &StringObject{Value: data, IsHex: true}, nil
}

func (p *Parser) parseDictionary() (*DictionaryObject, error) {
	dict := NewDictionary()
	for {
		p.skipWhitespace()

		b, err := p.peekByte()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated dictionary", ErrInvalidDictionary)
		}
		if b == '>' {
			p.readByte()
			next, err := p.readByte()
			if err != nil || next != '>' {
				return nil, fmt.Errorf("%w: expected '>>'", ErrInvalidDictionary)
			}
			break
		}

		key, err := p.parseName()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid key: %v", ErrInvalidDictionary, err)
		}
		value, err := p.ParseObjectOrReference()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid value for key '%s': %v", ErrInvalidDictionary, key, err)
		}
		dict.Set(string(key), value)
	}
	return dict, nil
}

func (p *Parser) parseArray() (ArrayObject, error) {
	if b, err := p.readByte(); err != nil || b != '[' {
		return nil, ErrInvalidArray
	}

	var arr ArrayObject
	for {
		p.skipWhitespace()

		b, err := p.peekByte()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated array", ErrInvalidArray)
		}
		if b == ']' {
			p.readByte()
			break
		}

		obj, err := p.ParseObjectOrReference()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid element: %v", ErrInvalidArray, err)
		}
		arr = append(arr, obj)
	}
	return arr, nil
}

func (p *Parser) parseName() (NameObject, error) {
	if b, err := p.readByte(); err != nil || b != '/' {
		return "", ErrInvalidName
	}

	var buf bytes.Buffer
	for {
		b, err := p.readByte()
		if err != nil {
			break
		}
		if isWhitespace(b) || isDelimiter(b) {
			p.unreadByte()
			break
		}
		if b == '#' {
			hex1, err1 := p.readByte()
			hex2, err2 := p.readByte()
			if err1 != nil || err2 != nil {
				return "", fmt.Errorf("%w: truncated hex escape", ErrInvalidName)
			}
			val, err := strconv.ParseInt(string([]byte{hex1, hex2}), 16, 16)
			if err != nil {
				return "", fmt.Errorf("%w: invalid hex escape", ErrInvalidName)
			}
			buf.WriteByte(byte(val))
		} else {
			buf.WriteByte(b)
		}
	}
	return NameObject(buf.String()), nil
}

func (p *Parser) parseBoolean() (BooleanObject, error) {
	token, err := p.ReadToken()
	if err != nil {
		return false, err
	}
	switch token {
	case "true":
		return BooleanObject(true), nil
	case "false":
		return BooleanObject(false), nil
	default:
		return false, fmt.Errorf("%w: expected boolean, got '%s'", ErrInvalidObject, token)
	}
}

func (p *Parser) parseNumber() (PdfObject, error) {
	var buf bytes.Buffer
	hasDecimal := false
	for {
		b, err := p.readByte()
		if err != nil {
			break
		}
		if b == '.' {
			if hasDecimal {
				p.unreadByte()
				break
			}
			hasDecimal = true
			buf.WriteByte(b)
		} else if b == '-' || b == '+' {
			if buf.Len() > 0 {
				p.unreadByte()
				break
			}
			buf.WriteByte(b)
		} else if b >= '0' && b <= '9' {
			buf.WriteByte(b)
		} else {
			p.unreadByte()
			break
		}
	}

	str := buf.String()
	if str == "" || str == "-" || str == "+" || str == "." {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidNumber, str)
	}

	if hasDecimal {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
		}
		return RealObject(val), nil
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	return IntegerObject(val), nil
}

// ParseObjectOrReference parses an object, resolving "n g R" token runs into
// a Reference.
func (p *Parser) ParseObjectOrReference() (PdfObject, error) {
	p.skipWhitespace()

	startPos := p.pos
	b, err := p.peekByte()
	if err != nil {
		return nil, err
	}
	if b < '0' || b > '9' {
		return p.ParseObject()
	}

	obj, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	objNum, ok := obj.(IntegerObject)
	if !ok {
		return obj, nil
	}

	p.skipWhitespace()
	b, err = p.peekByte()
	if err != nil || b < '0' || b > '9' {
		return obj, nil
	}

	genObj, err := p.parseNumber()
	if err != nil {
		p.Seek(startPos)
		return p.parseNumber()
	}
	genNum, ok := genObj.(IntegerObject)
	if !ok {
		p.Seek(startPos)
		return p.parseNumber()
	}

	p.skipWhitespace()
	b, err = p.readByte()
	if err == nil && b == 'R' {
		return Reference{ObjectNumber: int(objNum), GenerationNumber: int(genNum)}, nil
	}

	p.Seek(startPos)
	return p.parseNumber()
}

// ParseObjectHeader reads an "n g obj" header at the current position and
// returns the object and generation numbers.
func (p *Parser) ParseObjectHeader() (int, int, error) {
	objNumObj, err := p.parseNumber()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: object number: %v", ErrInvalidObject, err)
	}
	objNum, ok := objNumObj.(IntegerObject)
	if !ok {
		return 0, 0, fmt.Errorf("%w: object number must be an integer", ErrInvalidObject)
	}

	p.skipWhitespace()
	genNumObj, err := p.parseNumber()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: generation number: %v", ErrInvalidObject, err)
	}
	genNum, ok := genNumObj.(IntegerObject)
	if !ok {
		return 0, 0, fmt.Errorf("%w: generation number must be an integer", ErrInvalidObject)
	}

	token, err := p.ReadToken()
	if err != nil || token != "obj" {
		return 0, 0, fmt.Errorf("%w: expected 'obj', got '%s'", ErrInvalidObject, token)
	}
	return int(objNum), int(genNum), nil
}
