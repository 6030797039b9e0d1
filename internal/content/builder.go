package content

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"seehuhn.de/go/geom/matrix"
)

// Builder writes a content program, one operation per line.
type Builder struct {
	buf bytes.Buffer
}

// Bytes returns the program written so far.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *Builder) op(name string, args ...float64) *Builder {
	for _, a := range args {
		b.buf.WriteString(Num(a))
		b.buf.WriteByte(' ')
	}
	b.buf.WriteString(name)
	b.buf.WriteByte('\n')
	return b
}

func (b *Builder) nameOp(name, op string) *Builder {
	fmt.Fprintf(&b.buf, "/%s %s\n", name, op)
	return b
}

func (b *Builder) Save() *Builder    { return b.op("q") }
func (b *Builder) Restore() *Builder { return b.op("Q") }

// Transform concatenates m to the current transformation matrix.
func (b *Builder) Transform(m matrix.Matrix) *Builder {
	return b.op("cm", m[0], m[1], m[2], m[3], m[4], m[5])
}

func (b *Builder) Do(name string) *Builder           { return b.nameOp(name, "Do") }
func (b *Builder) SetExtGState(name string) *Builder { return b.nameOp(name, "gs") }

func (b *Builder) FillRGB(r, g, bl float64) *Builder   { return b.op("rg", r, g, bl) }
func (b *Builder) StrokeRGB(r, g, bl float64) *Builder { return b.op("RG", r, g, bl) }

func (b *Builder) BeginText() *Builder { return b.op("BT") }
func (b *Builder) EndText() *Builder   { return b.op("ET") }

// Font selects the font resource name at the given size.
func (b *Builder) Font(name string, size float64) *Builder {
	fmt.Fprintf(&b.buf, "/%s %s Tf\n", name, Num(size))
	return b
}

func (b *Builder) TextMove(x, y float64) *Builder { return b.op("Td", x, y) }
func (b *Builder) TextRender(mode int) *Builder   { return b.op("Tr", float64(mode)) }
func (b *Builder) LineWidth(w float64) *Builder   { return b.op("w", w) }
func (b *Builder) MoveTo(x, y float64) *Builder   { return b.op("m", x, y) }
func (b *Builder) LineTo(x, y float64) *Builder   { return b.op("l", x, y) }
func (b *Builder) Stroke() *Builder               { return b.op("S") }

// ShowText shows the already encoded string s.
func (b *Builder) ShowText(s []byte) *Builder {
	b.buf.WriteByte('(')
	for _, c := range s {
		switch {
		case c == '(' || c == ')' || c == '\\':
			b.buf.WriteByte('\\')
			b.buf.WriteByte(c)
		case c < 32 || c > 126:
			fmt.Fprintf(&b.buf, "\\%03o", c)
		default:
			b.buf.WriteByte(c)
		}
	}
	b.buf.WriteString(") Tj\n")
	return b
}

// Num formats v with at most five decimals and no trailing zeros.
func Num(v float64) string {
	v = math.Round(v*1e5) / 1e5
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
