package typematch

import (
	"fmt"
	"strings"
)

// Kind classifies a parsed type expression.
type Kind int

const (
	KindName Kind = iota
	KindOptional
	KindUnion
	KindGeneric
)

// Type is a parsed type expression.
type Type struct {
	Kind Kind
	Name string // Bare or dotted name; generic base for KindGeneric
	Args []Type // Optional: one arg; Union: members; Generic: parameters
}

// String renders the type in normalized form (pipe unions become Union[...]).
func (t Type) String() string {
	switch t.Kind {
	case KindOptional:
		return "Optional[" + t.Args[0].String() + "]"
	case KindUnion:
		return "Union[" + joinTypes(t.Args) + "]"
	case KindGeneric:
		return t.Name + "[" + joinTypes(t.Args) + "]"
	default:
		return t.Name
	}
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// Parse parses a type expression.
func Parse(expr string) (Type, error) {
	p := &parser{src: expr}
	t, err := p.parseUnion()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Type{}, fmt.Errorf("typematch: unexpected %q at offset %d in %q", p.src[p.pos], p.pos, expr)
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or with constant expressions.
func MustParse(expr string) Type {
	t, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// parseUnion parses primary ('|' primary)*.
func (p *parser) parseUnion() (Type, error) {
	first, err := p.parsePrimary()
	if err != nil {
		return Type{}, err
	}
	if p.peek() != '|' {
		return first, nil
	}
	members := []Type{first}
	for p.peek() == '|' {
		p.pos++
		next, err := p.parsePrimary()
		if err != nil {
			return Type{}, err
		}
		members = append(members, next)
	}
	return Type{Kind: KindUnion, Args: members}, nil
}

// parsePrimary parses ident ('[' union (',' union)* ']')?.
func (p *parser) parsePrimary() (Type, error) {
	name, err := p.parseIdent()
	if err != nil {
		return Type{}, err
	}
	if p.peek() != '[' {
		return Type{Kind: KindName, Name: name}, nil
	}
	p.pos++

	var args []Type
	for {
		arg, err := p.parseUnion()
		if err != nil {
			return Type{}, err
		}
		args = append(args, arg)
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case ']':
			p.pos++
		default:
			return Type{}, fmt.Errorf("typematch: expected ',' or ']' at offset %d in %q", p.pos, p.src)
		}
		break
	}

	switch name {
	case "Optional":
		if len(args) != 1 {
			return Type{}, fmt.Errorf("typematch: Optional takes one argument, got %d in %q", len(args), p.src)
		}
		return Type{Kind: KindOptional, Args: args}, nil
	case "Union":
		if len(args) == 1 {
			return args[0], nil
		}
		return Type{Kind: KindUnion, Args: args}, nil
	}
	return Type{Kind: KindGeneric, Name: name, Args: args}, nil
}

func (p *parser) parseIdent() (string, error) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '"' || p.src[p.pos] == '\'') {
		quote := p.src[p.pos]
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] != quote {
			p.pos++
		}
		if p.pos >= len(p.src) {
			return "", fmt.Errorf("typematch: unterminated literal in %q", p.src)
		}
		p.pos++
		return p.src[start:p.pos], nil
	}
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return "", fmt.Errorf("typematch: expected type name at offset %d in %q", p.pos, p.src)
	}
	return p.src[start:p.pos], nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || c == '*' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
