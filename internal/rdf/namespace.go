package rdf

import (
	"fmt"
	"sort"
	"strings"
)

// Namespaces maps prefixes to namespace IRIs for CURIE expansion and contraction.
type Namespaces struct {
	prefixes map[string]string
}

var defaultPrefixes = map[string]string{
	"rdf":     NSRDF,
	"rdfs":    NSRDFS,
	"owl":     NSOWL,
	"xsd":     NSXSD,
	"dc":      NSDC,
	"dcterms": NSDCTerms,
	"dctypes": NSDCTypes,
	"ore":     NSORE,
	"oa":      NSOA,
	"cnt":     NSCnt,
	"foaf":    NSFOAF,
	"dm":      NSDM,
	"sc":      NSSC,
	"dms":     NSDMS,
	"exif":    NSExif,
	"skos":    NSSKOS,
	"perm":    NSPerm,
}

func NewNamespaces(extra map[string]string) *Namespaces {
	ns := &Namespaces{prefixes: make(map[string]string, len(defaultPrefixes)+len(extra))}
	for prefix, uri := range defaultPrefixes {
		ns.prefixes[prefix] = uri
	}
	for prefix, uri := range extra {
		ns.prefixes[prefix] = uri
	}
	return ns
}

func (n *Namespaces) Lookup(prefix string) (string, bool) {
	uri, ok := n.prefixes[prefix]
	return uri, ok
}

// Expand joins a known prefix with a local name.
func (n *Namespaces) Expand(prefix, local string) (Term, error) {
	uri, ok := n.prefixes[prefix]
	if !ok {
		return Term{}, fmt.Errorf("unknown namespace prefix %q", prefix)
	}
	return IRI(uri + local), nil
}

// MustExpand is Expand for compile-time known prefixes.
func (n *Namespaces) MustExpand(prefix, local string) Term {
	t, err := n.Expand(prefix, local)
	if err != nil {
		panic(err)
	}
	return t
}

// AutoExpand turns a CURIE, wrapped IRI, blank node label or N-Triples literal
// into a term. Anything else is passed through as an IRI.
func (n *Namespaces) AutoExpand(s string) Term {
	if s == "" {
		return Term{}
	}
	if IsWrappedURI(s) || strings.HasPrefix(s, "_:") || strings.HasPrefix(s, `"`) {
		if t, err := ParseTerm(s); err == nil {
			return t
		}
	}
	if idx := strings.Index(s, ":"); idx > 0 {
		if uri, ok := n.prefixes[s[:idx]]; ok && !strings.HasPrefix(s[idx+1:], "//") {
			return IRI(uri + s[idx+1:])
		}
	}
	return IRI(s)
}

// AutoExpandAll expands each entry with AutoExpand.
func (n *Namespaces) AutoExpandAll(values ...string) []Term {
	terms := make([]Term, 0, len(values))
	for _, value := range values {
		terms = append(terms, n.AutoExpand(value))
	}
	return terms
}

// Contract returns prefix and local name for iri when a registered namespace
// covers it and the local part is a plain name.
func (n *Namespaces) Contract(iri string) (string, string, bool) {
	bestPrefix, bestURI := "", ""
	for prefix, uri := range n.prefixes {
		if !strings.HasPrefix(iri, uri) {
			continue
		}
		if len(uri) > len(bestURI) || (len(uri) == len(bestURI) && prefix < bestPrefix) {
			bestPrefix, bestURI = prefix, uri
		}
	}
	if bestURI == "" {
		return "", "", false
	}
	local := iri[len(bestURI):]
	if !isPlainLocalName(local) {
		return "", "", false
	}
	return bestPrefix, local, true
}

// Prefixes returns the registered prefixes in sorted order.
func (n *Namespaces) Prefixes() []string {
	prefixes := make([]string, 0, len(n.prefixes))
	for prefix := range n.prefixes {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

func isPlainLocalName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !(r >= '0' && r <= '9') && r != '-' {
			return false
		}
	}
	return true
}
