package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads a type expression in the declaration grammar:
//
//	float | int | string | bool
//	sequence[<type>]
//	array[<kind>, (<dim>, ...)]   dim is a positive integer or ?
//	mapping[<kind>, <type>]
//	opaque[<label>]
//
// The returned type is validated; Parse never returns a malformed type.
func Parse(expr string) (Type, error) {
	p := &parser{input: expr, rest: expr}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.rest != "" {
		return nil, p.errorf("unexpected trailing input %q", p.rest)
	}
	if err := Validate(t); err != nil {
		return nil, fmt.Errorf("type expression %q: %w", expr, err)
	}
	return t, nil
}

// MustParse is Parse panicking on error, for declaration sites in tests.
func MustParse(expr string) Type {
	t, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	input string
	rest  string
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("type expression %q: %s", p.input, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	p.rest = strings.TrimLeft(p.rest, " \t")
}

// word consumes the next identifier-like token (letters only).
func (p *parser) word() string {
	p.skipSpace()
	i := 0
	for i < len(p.rest) {
		c := p.rest[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			i++
			continue
		}
		break
	}
	w := p.rest[:i]
	p.rest = p.rest[i:]
	return w
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if len(p.rest) == 0 || p.rest[0] != c {
		return p.errorf("expected %q", string(c))
	}
	p.rest = p.rest[1:]
	return nil
}

func (p *parser) peek(c byte) bool {
	p.skipSpace()
	return len(p.rest) > 0 && p.rest[0] == c
}

func (p *parser) parseType() (Type, error) {
	head := p.word()
	switch head {
	case "":
		return nil, p.errorf("expected a type")
	case string(Float), string(Int), string(String), string(Bool):
		return Scalar(ScalarKind(head)), nil
	case "sequence":
		if err := p.expect('['); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return Sequence(elem), nil
	case "array":
		if err := p.expect('['); err != nil {
			return nil, err
		}
		kind, err := p.parseKind()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		dims, err := p.parseDims()
		if err != nil {
			return nil, err
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return Array(kind, dims...), nil
	case "mapping":
		if err := p.expect('['); err != nil {
			return nil, err
		}
		kind, err := p.parseKind()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		value, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return Map(kind, value), nil
	case "opaque":
		if err := p.expect('['); err != nil {
			return nil, err
		}
		label := p.word()
		if label == "" {
			return nil, p.errorf("opaque label must be non-empty")
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return Opaque(label), nil
	default:
		return nil, p.errorf("unknown type %q", head)
	}
}

func (p *parser) parseKind() (ScalarKind, error) {
	w := p.word()
	kind := ScalarKind(w)
	if !validScalarKind(kind) {
		return "", p.errorf("unknown scalar kind %q", w)
	}
	return kind, nil
}

func (p *parser) parseDims() ([]Dim, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var dims []Dim
	for {
		if p.peek('?') {
			p.rest = p.rest[1:]
			dims = append(dims, DimAny)
		} else {
			w := p.word()
			n, err := strconv.Atoi(w)
			if err != nil {
				return nil, p.errorf("dimension must be a positive integer or ?, got %q", w)
			}
			dims = append(dims, Dim(n))
		}
		if p.peek(',') {
			p.rest = p.rest[1:]
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return dims, nil
}
