// Package content decodes page content programs, decides whether they put
// any mark on the page, and writes the small programs the compositor needs.
package content

import (
	"bytes"
	"encoding/hex"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

// ErrSyntax is returned for malformed content streams.
var ErrSyntax = errors.New("content: syntax error")

// Op is a single content stream operation.
type Op struct {
	Name string         // operator, e.g. "Tj" or "cm"
	Args []types.Object // operands in stream order; null operands are nil
}

// maxNesting bounds array and dictionary nesting inside operands.
const maxNesting = 64

// Decode splits a content stream into operations. Inline images are returned
// as a single "BI" operation whose only operand is the image dictionary.
// Operands left over at the end of the stream are ignored.
func Decode(data []byte) ([]Op, error) {
	s := &scanner{data: data}
	var ops []Op
	var args []types.Object
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return ops, nil
		}
		start := s.pos
		if isRegular(s.data[s.pos]) && !isNumberStart(s.data[s.pos]) {
			word := s.word()
			switch word {
			case "true":
				args = append(args, types.Boolean(true))
				continue
			case "false":
				args = append(args, types.Boolean(false))
				continue
			case "null":
				args = append(args, nil)
				continue
			case "BI":
				dict, err := s.inlineImage()
				if err != nil {
					return nil, errors.Wrapf(err, "inline image at offset %d", start)
				}
				ops = append(ops, Op{Name: "BI", Args: []types.Object{dict}})
				args = nil
				continue
			}
			ops = append(ops, Op{Name: word, Args: args})
			args = nil
			continue
		}
		o, err := s.object(0)
		if err != nil {
			return nil, err
		}
		args = append(args, o)
	}
}

type scanner struct {
	data []byte
	pos  int
}

func (s *scanner) fail(format string, args ...interface{}) error {
	return errors.Wrapf(ErrSyntax, "offset %d: "+format, append([]interface{}{s.pos}, args...)...)
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		default:
			return
		}
	}
}

// word reads a run of regular characters.
func (s *scanner) word() string {
	start := s.pos
	for s.pos < len(s.data) && isRegular(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *scanner) object(depth int) (types.Object, error) {
	if depth > maxNesting {
		return nil, s.fail("nesting too deep")
	}
	c := s.data[s.pos]
	switch {
	case isNumberStart(c):
		return s.number()
	case c == '/':
		s.pos++
		return types.Name(s.word()), nil
	case c == '(':
		return s.literal()
	case c == '<':
		if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
			s.pos += 2
			return s.dict(depth)
		}
		return s.hexString()
	case c == '[':
		s.pos++
		return s.array(depth)
	}
	return nil, s.fail("unexpected %q", c)
}

func (s *scanner) number() (types.Object, error) {
	start := s.pos
	w := s.word()
	if i, err := strconv.Atoi(w); err == nil {
		return types.Integer(i), nil
	}
	f, err := strconv.ParseFloat(w, 64)
	if err != nil {
		s.pos = start
		return nil, s.fail("invalid number %q", w)
	}
	return types.Float(f), nil
}

func (s *scanner) literal() (types.Object, error) {
	start := s.pos
	s.pos++
	var buf bytes.Buffer
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return types.StringLiteral(buf.String()), nil
			}
		case '\\':
			if s.pos >= len(s.data) {
				break
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
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
			case '\r':
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; k++ {
						v = v*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					buf.WriteByte(byte(v))
				} else {
					buf.WriteByte(e)
				}
			}
			continue
		}
		buf.WriteByte(c)
	}
	s.pos = start
	return nil, s.fail("unterminated string")
}

func (s *scanner) hexString() (types.Object, error) {
	start := s.pos
	s.pos++
	var digits []byte
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			if _, err := hex.DecodeString(string(digits)); err != nil {
				s.pos = start
				return nil, s.fail("invalid hex string")
			}
			return types.HexLiteral(digits), nil
		}
		if !isSpace(c) {
			digits = append(digits, c)
		}
	}
	s.pos = start
	return nil, s.fail("unterminated hex string")
}

func (s *scanner) array(depth int) (types.Object, error) {
	a := types.Array{}
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return nil, s.fail("unterminated array")
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return a, nil
		}
		o, err := s.operand(depth + 1)
		if err != nil {
			return nil, err
		}
		a = append(a, o)
	}
}

func (s *scanner) dict(depth int) (types.Object, error) {
	d := types.Dict{}
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return nil, s.fail("unterminated dictionary")
		}
		if s.data[s.pos] == '>' {
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '>' {
				s.pos += 2
				return d, nil
			}
			return nil, s.fail("unexpected '>'")
		}
		if s.data[s.pos] != '/' {
			return nil, s.fail("dictionary key is not a name")
		}
		s.pos++
		key := s.word()
		s.skipSpace()
		if s.pos >= len(s.data) {
			return nil, s.fail("unterminated dictionary")
		}
		v, err := s.operand(depth + 1)
		if err != nil {
			return nil, err
		}
		d[key] = v
	}
}

// operand reads a value inside an array or dictionary, where the keywords
// true, false and null may appear.
func (s *scanner) operand(depth int) (types.Object, error) {
	c := s.data[s.pos]
	if isRegular(c) && !isNumberStart(c) {
		start := s.pos
		switch w := s.word(); w {
		case "true":
			return types.Boolean(true), nil
		case "false":
			return types.Boolean(false), nil
		case "null":
			return nil, nil
		default:
			s.pos = start
			return nil, s.fail("unexpected keyword %q", w)
		}
	}
	return s.object(depth)
}

// inlineImage reads the image dictionary after BI and skips the image data
// up to the EI keyword.
func (s *scanner) inlineImage() (types.Dict, error) {
	d := types.Dict{}
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return nil, s.fail("missing ID")
		}
		if s.data[s.pos] != '/' {
			w := s.word()
			if w != "ID" {
				return nil, s.fail("unexpected %q in inline image dictionary", w)
			}
			break
		}
		s.pos++
		key := s.word()
		s.skipSpace()
		if s.pos >= len(s.data) {
			return nil, s.fail("missing ID")
		}
		v, err := s.operand(1)
		if err != nil {
			return nil, err
		}
		d[key] = v
	}
	// A single white-space byte separates ID from the data.
	if s.pos < len(s.data) {
		s.pos++
	}
	for i := s.pos; i+1 < len(s.data); i++ {
		if s.data[i] != 'E' || s.data[i+1] != 'I' {
			continue
		}
		if i > 0 && !isSpace(s.data[i-1]) {
			continue
		}
		if i+2 < len(s.data) && !isSpace(s.data[i+2]) && isRegular(s.data[i+2]) {
			continue
		}
		s.pos = i + 2
		return d, nil
	}
	return nil, s.fail("missing EI")
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isSpace(c) && !isDelimiter(c)
}

func isNumberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}
