package quadstore

import (
	"iter"

	"quadsync/internal/rdf"
)

// Union is a read-only view over several readers. A quad present in more than
// one member is reported once.
type Union struct {
	members []Reader
}

var _ Reader = (*Union)(nil)

func NewUnion(members ...Reader) *Union {
	return &Union{members: members}
}

func (u *Union) Contains(q rdf.Quad) bool {
	for _, m := range u.members {
		if m.Contains(q) {
			return true
		}
	}
	return false
}

func (u *Union) Query(subject, predicate, object, context rdf.Term) iter.Seq[rdf.Quad] {
	return func(yield func(rdf.Quad) bool) {
		for i, m := range u.members {
			for q := range m.Query(subject, predicate, object, context) {
				if u.seenBefore(i, q) {
					continue
				}
				if !yield(q) {
					return
				}
			}
		}
	}
}

func (u *Union) Count(subject, predicate, object, context rdf.Term) int {
	if len(u.members) == 1 {
		return u.members[0].Count(subject, predicate, object, context)
	}
	n := 0
	for i, m := range u.members {
		if i == 0 {
			n += m.Count(subject, predicate, object, context)
			continue
		}
		for q := range m.Query(subject, predicate, object, context) {
			if !u.seenBefore(i, q) {
				n++
			}
		}
	}
	return n
}

func (u *Union) seenBefore(index int, q rdf.Quad) bool {
	for _, earlier := range u.members[:index] {
		if earlier.Contains(q) {
			return true
		}
	}
	return false
}
