package typematch

import "strings"

// DefaultWildcards are the type names that accept or provide any type.
var DefaultWildcards = []string{"*", "Any"}

// DefaultAliases groups type names that are interchangeable.
var DefaultAliases = [][]string{
	{"int", "Index", "integer"},
	{"str", "string"},
}

// Matcher decides output-to-input type compatibility.
type Matcher struct {
	wildcards map[string]bool
	canonical map[string]string
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWildcards replaces the wildcard set.
func WithWildcards(names ...string) Option {
	return func(m *Matcher) {
		m.wildcards = make(map[string]bool, len(names))
		for _, n := range names {
			m.wildcards[n] = true
		}
	}
}

// WithAliases replaces the alias table. Each group lists names that are
// treated as the same type; the first entry is the canonical name.
func WithAliases(groups [][]string) Option {
	return func(m *Matcher) {
		m.canonical = make(map[string]string)
		for _, g := range groups {
			if len(g) == 0 {
				continue
			}
			for _, n := range g {
				m.canonical[n] = g[0]
			}
		}
	}
}

// New returns a Matcher with the default wildcards and aliases, overridden by opts.
func New(opts ...Option) *Matcher {
	m := &Matcher{}
	WithWildcards(DefaultWildcards...)(m)
	WithAliases(DefaultAliases)(m)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Compatible reports whether a value of type output may flow into a slot of
// type input. The relation is not symmetric.
func (m *Matcher) Compatible(output, input string) bool {
	output = strings.TrimSpace(output)
	input = strings.TrimSpace(input)

	if output == input {
		return true
	}
	// An untyped slot behaves like a wildcard.
	if output == "" || input == "" {
		return true
	}

	o, errO := Parse(output)
	i, errI := Parse(input)
	if errO != nil || errI != nil {
		return m.wildcardName(output) || m.wildcardName(input) || m.namesMatch(output, input)
	}
	return m.match(o, i)
}

func (m *Matcher) match(o, i Type) bool {
	if o.String() == i.String() {
		return true
	}
	if m.isWildcard(o) || m.isWildcard(i) {
		return true
	}

	// Optional is reduced on both sides: an optional input accepts the inner
	// type, and an optional output is offered as its inner type.
	if i.Kind == KindOptional {
		return m.match(o, i.Args[0])
	}
	if o.Kind == KindOptional {
		return m.match(o.Args[0], i)
	}

	if i.Kind == KindUnion {
		for _, member := range i.Args {
			if m.match(o, member) {
				return true
			}
		}
		return false
	}
	if o.Kind == KindUnion {
		for _, member := range o.Args {
			if m.match(member, i) {
				return true
			}
		}
		return false
	}

	o = literalAsStr(o)
	i = literalAsStr(i)

	switch {
	case o.Kind == KindName && i.Kind == KindName:
		return m.namesMatch(o.Name, i.Name)
	case o.Kind == KindGeneric && i.Kind == KindGeneric:
		if !m.namesMatch(o.Name, i.Name) || len(o.Args) != len(i.Args) {
			return false
		}
		for k := range o.Args {
			if !m.match(o.Args[k], i.Args[k]) {
				return false
			}
		}
		return true
	}
	return false
}

// namesMatch compares two bare or dotted names. Dotted names are compared by
// their trailing segment, then through the alias table.
func (m *Matcher) namesMatch(a, b string) bool {
	if a == b {
		return true
	}
	if ta, tb := trailing(a), trailing(b); ta != a || tb != b {
		return m.namesMatch(ta, tb)
	}
	ca, okA := m.canonical[a]
	cb, okB := m.canonical[b]
	return okA && okB && ca == cb
}

func (m *Matcher) isWildcard(t Type) bool {
	return t.Kind == KindName && m.wildcardName(t.Name)
}

// wildcardName reports whether name, or its trailing segment, is a wildcard,
// so typing.Any behaves like Any.
func (m *Matcher) wildcardName(name string) bool {
	if m.wildcards[name] {
		return true
	}
	if t := trailing(name); t != name {
		return m.wildcardName(t)
	}
	return false
}

func trailing(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 && idx < len(name)-1 {
		return name[idx+1:]
	}
	return name
}

func literalAsStr(t Type) Type {
	if t.Kind == KindGeneric && trailing(t.Name) == "Literal" {
		return Type{Kind: KindName, Name: "str"}
	}
	return t
}

// IsOptional reports whether expr is Optional[T] or a union containing None.
func IsOptional(expr string) bool {
	t, err := Parse(strings.TrimSpace(expr))
	if err != nil {
		return false
	}
	switch t.Kind {
	case KindOptional:
		return true
	case KindUnion:
		for _, member := range t.Args {
			if member.Kind == KindName && isNone(member.Name) {
				return true
			}
		}
	}
	return false
}

func isNone(name string) bool {
	return name == "None" || name == "NoneType" || name == "null"
}

// ElementType returns the value type carried by a container expression:
// V for Dict[K, V], T for List[T]. Optional wrappers are removed first.
// Non-container expressions are returned unchanged.
func ElementType(expr string) string {
	t, err := Parse(strings.TrimSpace(expr))
	if err != nil {
		return strings.TrimSpace(expr)
	}
	return elementOf(t).String()
}

func elementOf(t Type) Type {
	if t.Kind == KindOptional {
		return elementOf(t.Args[0])
	}
	if t.Kind == KindUnion {
		var members []Type
		for _, member := range t.Args {
			if member.Kind == KindName && isNone(member.Name) {
				continue
			}
			members = append(members, member)
		}
		if len(members) == 1 {
			return elementOf(members[0])
		}
		return t
	}
	if t.Kind != KindGeneric {
		return t
	}
	switch strings.ToLower(trailing(t.Name)) {
	case "dict", "mapping":
		if len(t.Args) == 2 {
			return t.Args[1]
		}
	case "list", "sequence", "set", "tuple":
		if len(t.Args) >= 1 {
			return t.Args[0]
		}
	}
	return t
}
