package format

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"quadsync/internal/rdf"
)

// TurtleSerializer writes the triples of a quad set as Turtle, contracting
// IRIs with the registered namespaces. Graph names are dropped.
type TurtleSerializer struct {
	Namespaces *rdf.Namespaces
}

func (*TurtleSerializer) Name() string { return "turtle" }

func (*TurtleSerializer) ContentTypes() []string {
	return []string{"text/turtle", "text/n3", "application/x-turtle"}
}

func (s *TurtleSerializer) Serialize(w io.Writer, quads []rdf.Quad) error {
	ns := s.Namespaces
	if ns == nil {
		ns = rdf.NewNamespaces(nil)
	}

	type predicateObjects struct {
		predicate rdf.Term
		objects   []rdf.Term
	}
	bySubject := make(map[rdf.Term][]*predicateObjects)
	seen := make(map[rdf.Quad]bool)
	used := make(map[string]bool)
	render := func(t rdf.Term) string {
		out, prefix := turtleTerm(ns, t)
		if prefix != "" {
			used[prefix] = true
		}
		return out
	}

	for _, q := range quads {
		triple := rdf.Triple(q.Subject, q.Predicate, q.Object)
		if seen[triple] {
			continue
		}
		seen[triple] = true
		groups := bySubject[q.Subject]
		var group *predicateObjects
		for _, g := range groups {
			if g.predicate == q.Predicate {
				group = g
				break
			}
		}
		if group == nil {
			group = &predicateObjects{predicate: q.Predicate}
			bySubject[q.Subject] = append(groups, group)
		}
		group.objects = append(group.objects, q.Object)
	}

	subjects := make([]rdf.Term, 0, len(bySubject))
	for subject := range bySubject {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].String() < subjects[j].String() })

	var body strings.Builder
	for _, subject := range subjects {
		groups := bySubject[subject]
		sort.Slice(groups, func(i, j int) bool {
			if groups[i].predicate == rdf.RDFType {
				return groups[j].predicate != rdf.RDFType
			}
			if groups[j].predicate == rdf.RDFType {
				return false
			}
			return groups[i].predicate.Value < groups[j].predicate.Value
		})
		body.WriteString(render(subject))
		for i, g := range groups {
			if i > 0 {
				body.WriteString(" ;\n   ")
			} else {
				body.WriteString(" ")
			}
			if g.predicate == rdf.RDFType {
				body.WriteString("a")
			} else {
				body.WriteString(render(g.predicate))
			}
			sort.Slice(g.objects, func(a, b int) bool { return g.objects[a].String() < g.objects[b].String() })
			for j, o := range g.objects {
				if j > 0 {
					body.WriteString(",")
				}
				body.WriteString(" ")
				body.WriteString(render(o))
			}
		}
		body.WriteString(" .\n\n")
	}

	bw := bufio.NewWriter(w)
	prefixes := make([]string, 0, len(used))
	for prefix := range used {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		uri, _ := ns.Lookup(prefix)
		fmt.Fprintf(bw, "@prefix %s: <%s> .\n", prefix, uri)
	}
	if len(prefixes) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString(body.String())
	return bw.Flush()
}

// turtleTerm renders t and returns the namespace prefix it used, if any.
func turtleTerm(ns *rdf.Namespaces, t rdf.Term) (string, string) {
	switch t.Kind {
	case rdf.KindIRI:
		if prefix, local, ok := ns.Contract(t.Value); ok {
			return prefix + ":" + local, prefix
		}
		return t.String(), ""
	case rdf.KindLiteral:
		if t.Datatype == "" || t.Lang != "" {
			return t.String(), ""
		}
		lexical := rdf.Literal(t.Value).String()
		if prefix, local, ok := ns.Contract(t.Datatype); ok {
			return lexical + "^^" + prefix + ":" + local, prefix
		}
		return t.String(), ""
	default:
		return t.String(), ""
	}
}
