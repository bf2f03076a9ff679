package javafe

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"jjsdev/internal/engine/decl"
)

func (m *methodCtx) literal(n *sitter.Node) *decl.Literal {
	src := m.text(n)
	switch n.Kind() {
	case "true":
		return decl.BoolLit(true)
	case "false":
		return decl.BoolLit(false)
	case "null_literal":
		return decl.NullLit()
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		lit, ok := intLiteral(src, false)
		if !ok {
			m.failf(n, "The literal %s is out of range", src)
		}
		return lit
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		lit, ok := floatLiteral(src)
		if !ok {
			m.failf(n, "The literal %s is out of range", src)
		}
		return lit
	case "character_literal":
		units, ok := unescape(src[1 : len(src)-1])
		if !ok || len(units) != 1 {
			m.failf(n, "Invalid character constant")
		}
		return &decl.Literal{Kind: decl.LitChar, Int: int64(units[0])}
	case "string_literal":
		if strings.HasPrefix(src, `"""`) {
			m.failf(n, "Text blocks are not supported")
		}
		units, ok := unescape(src[1 : len(src)-1])
		if !ok {
			m.failf(n, "Invalid escape sequence")
		}
		return decl.StringLit(string(utf16.Decode(units)))
	}
	return nil
}

// constant folds a literal or a negated literal; nil means n is not one.
func (m *methodCtx) constant(n *sitter.Node) *decl.Literal {
	switch n.Kind() {
	case "parenthesized_expression":
		return m.constant(namedChildren(n)[0])
	case "unary_expression":
		if m.text(n.ChildByFieldName("operator")) != "-" {
			return nil
		}
		operand := n.ChildByFieldName("operand")
		if operand.Kind() == "decimal_integer_literal" {
			lit, ok := intLiteral(m.text(operand), true)
			if !ok {
				m.failf(n, "The literal %s is out of range", m.text(n))
			}
			return lit
		}
		inner := m.constant(operand)
		if inner == nil {
			return nil
		}
		out := *inner
		switch inner.Kind {
		case decl.LitInt:
			out.Int = int64(-int32(inner.Int))
		case decl.LitChar, decl.LitByte, decl.LitShort:
			out.Kind, out.Int = decl.LitInt, -inner.Int
		case decl.LitLong:
			out.Int = -inner.Int
		case decl.LitFloat, decl.LitDouble:
			out.Float = -inner.Float
		default:
			return nil
		}
		return &out
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal",
		"decimal_floating_point_literal", "hex_floating_point_literal",
		"true", "false", "null_literal", "character_literal", "string_literal":
		return m.literal(n)
	}
	return nil
}

// intLiteral parses a Java integer literal. Decimal literals may reach
// 2^31 (2^63 for long) only when negated.
func intLiteral(src string, neg bool) (*decl.Literal, bool) {
	raw := strings.ReplaceAll(src, "_", "")
	long := strings.HasSuffix(raw, "l") || strings.HasSuffix(raw, "L")
	if long {
		raw = raw[:len(raw)-1]
	}
	base, digits := 10, raw
	switch {
	case strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X"):
		base, digits = 16, raw[2:]
	case strings.HasPrefix(raw, "0b") || strings.HasPrefix(raw, "0B"):
		base, digits = 2, raw[2:]
	case len(raw) > 1 && raw[0] == '0':
		base, digits = 8, raw[1:]
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return nil, false
	}
	if long {
		if base == 10 && (u > math.MaxInt64+1 || (u == math.MaxInt64+1 && !neg)) {
			return nil, false
		}
		v := int64(u)
		if neg {
			v = -v
		}
		return decl.LongLit(v), true
	}
	var v int32
	if base == 10 {
		if u > math.MaxInt32+1 || (u == math.MaxInt32+1 && !neg) {
			return nil, false
		}
		v = int32(uint32(u))
	} else {
		if u > math.MaxUint32 {
			return nil, false
		}
		v = int32(uint32(u))
	}
	if neg {
		v = -v
	}
	return decl.IntLit(v), true
}

func floatLiteral(src string) (*decl.Literal, bool) {
	raw := strings.ReplaceAll(src, "_", "")
	kind := decl.LitDouble
	switch raw[len(raw)-1] {
	case 'f', 'F':
		kind = decl.LitFloat
		raw = raw[:len(raw)-1]
	case 'd', 'D':
		raw = raw[:len(raw)-1]
	}
	bits := 64
	if kind == decl.LitFloat {
		bits = 32
	}
	v, err := strconv.ParseFloat(raw, bits)
	if err != nil {
		return nil, false
	}
	return &decl.Literal{Kind: kind, Float: v}, true
}

// unescape decodes the body of a character or string literal into UTF-16
// code units.
func unescape(s string) ([]uint16, bool) {
	var out []uint16
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r != '\\' {
			out = append(out, utf16.Encode([]rune{r})...)
			i += size
			continue
		}
		i++
		if i >= len(s) {
			return nil, false
		}
		switch c := s[i]; c {
		case 'b':
			out = append(out, '\b')
		case 't':
			out = append(out, '\t')
		case 'n':
			out = append(out, '\n')
		case 'f':
			out = append(out, '\f')
		case 'r':
			out = append(out, '\r')
		case 's':
			out = append(out, ' ')
		case '"', '\'', '\\':
			out = append(out, uint16(c))
		case 'u':
			for i < len(s) && s[i] == 'u' {
				i++
			}
			if i+4 > len(s) {
				return nil, false
			}
			v, err := strconv.ParseUint(s[i:i+4], 16, 16)
			if err != nil {
				return nil, false
			}
			out = append(out, uint16(v))
			i += 4
			continue
		default:
			if c < '0' || c > '7' {
				return nil, false
			}
			// up to three octal digits, at most \377
			max := 2
			if c <= '3' {
				max = 3
			}
			j := i
			for j < len(s) && j-i < max && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 16)
			out = append(out, uint16(v))
			i = j
			continue
		}
		i++
	}
	return out, true
}
