package rdf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindIRI Kind = iota + 1
	KindBlank
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "none"
	}
}

var ErrInvalidTerm = errors.New("invalid term")

// Term is a comparable RDF term. The zero Term is the wildcard in queries and
// the default graph when used as a quad context.
type Term struct {
	Kind     Kind
	Value    string
	Datatype string
	Lang     string
}

func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: strings.TrimPrefix(id, "_:")}
}

func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// TypedLiteral normalizes xsd:string to a plain literal so that both spellings compare equal.
func TypedLiteral(value, datatype string) Term {
	if datatype == XSDString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: strings.ToLower(lang)}
}

func (t Term) IsZero() bool { return t.Kind == 0 }

func (t Term) IsIRI() bool { return t.Kind == KindIRI }

func (t Term) IsBlank() bool { return t.Kind == KindBlank }

func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// URI returns the identifier form used by callers that work with bare strings:
// the IRI itself, "_:id" for blank nodes and the lexical value for literals.
func (t Term) URI() string {
	switch t.Kind {
	case KindBlank:
		return "_:" + t.Value
	default:
		return t.Value
	}
}

// String renders the term in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + escapeIRI(t.Value) + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + escapeIRI(t.Datatype) + ">"
		}
		return s
	default:
		return ""
	}
}

// TermFromURI maps a bare identifier back to a term: "_:x" becomes a blank
// node, a bracket-wrapped value is unwrapped, everything else is an IRI.
func TermFromURI(uri string) Term {
	if strings.HasPrefix(uri, "_:") {
		return Blank(uri)
	}
	return IRI(UnwrapURI(uri))
}

// ParseTerm decodes a single term written in N-Triples syntax.
func ParseTerm(s string) (Term, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Term{}, fmt.Errorf("%w: empty", ErrInvalidTerm)
	}
	switch {
	case s[0] == '<':
		if !strings.HasSuffix(s, ">") || len(s) < 2 {
			return Term{}, fmt.Errorf("%w: unterminated IRI %q", ErrInvalidTerm, s)
		}
		value, err := unescape(s[1 : len(s)-1])
		if err != nil {
			return Term{}, err
		}
		return IRI(value), nil
	case strings.HasPrefix(s, "_:"):
		if len(s) == 2 {
			return Term{}, fmt.Errorf("%w: empty blank node label", ErrInvalidTerm)
		}
		return Blank(s[2:]), nil
	case s[0] == '"':
		return parseLiteral(s)
	default:
		return Term{}, fmt.Errorf("%w: %q", ErrInvalidTerm, s)
	}
}

func parseLiteral(s string) (Term, error) {
	end := -1
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '"' {
			end = i
			break
		}
	}
	if end == -1 {
		return Term{}, fmt.Errorf("%w: unterminated literal %q", ErrInvalidTerm, s)
	}
	value, err := unescape(s[1:end])
	if err != nil {
		return Term{}, err
	}
	rest := s[end+1:]
	switch {
	case rest == "":
		return Literal(value), nil
	case strings.HasPrefix(rest, "@"):
		return LangLiteral(value, rest[1:]), nil
	case strings.HasPrefix(rest, "^^"):
		dt, err := ParseTerm(rest[2:])
		if err != nil || !dt.IsIRI() {
			return Term{}, fmt.Errorf("%w: bad datatype in %q", ErrInvalidTerm, s)
		}
		return TypedLiteral(value, dt.Value), nil
	default:
		return Term{}, fmt.Errorf("%w: trailing data in %q", ErrInvalidTerm, s)
	}
}

func escapeLiteral(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func escapeIRI(s string) string {
	if !strings.ContainsAny(s, "<>\"{}|^`\\ ") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune("<>\"{}|^`\\ ", r) {
			fmt.Fprintf(&b, `\u%04X`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("%w: dangling escape", ErrInvalidTerm)
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		case 'u', 'U':
			width := 4
			if s[i] == 'U' {
				width = 8
			}
			if i+width >= len(s) {
				return "", fmt.Errorf("%w: short unicode escape", ErrInvalidTerm)
			}
			code, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil {
				return "", fmt.Errorf("%w: bad unicode escape", ErrInvalidTerm)
			}
			b.WriteRune(rune(code))
			i += width
		default:
			return "", fmt.Errorf("%w: unknown escape \\%c", ErrInvalidTerm, s[i])
		}
	}
	return b.String(), nil
}

// WrapURI puts a bare IRI string into the bracket notation used to tell IRIs
// apart from literals with the same text. Already wrapped values, blank node
// labels and quoted literals are returned unchanged.
func WrapURI(uri string) string {
	if IsWrappedURI(uri) || strings.HasPrefix(uri, "_:") || strings.HasPrefix(uri, `"`) {
		return uri
	}
	return "<" + uri + ">"
}

// UnwrapURI is the inverse of WrapURI.
func UnwrapURI(uri string) string {
	if IsWrappedURI(uri) {
		return uri[1 : len(uri)-1]
	}
	return uri
}

func IsWrappedURI(uri string) bool {
	return len(uri) >= 2 && uri[0] == '<' && uri[len(uri)-1] == '>'
}

// IsAbsoluteURI reports whether s looks like an absolute IRI (has a scheme).
func IsAbsoluteURI(s string) bool {
	s = UnwrapURI(s)
	idx := strings.Index(s, ":")
	if idx <= 0 {
		return false
	}
	for i, r := range s[:idx] {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !(r >= '0' && r <= '9') && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}
