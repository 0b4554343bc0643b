// Package quadstore holds an indexed, de-duplicated set of quads with
// wildcard pattern queries.
package quadstore

import (
	"iter"
	"sync"

	"quadsync/internal/rdf"
)

// Reader is the read side shared by Store and composite views.
type Reader interface {
	Contains(q rdf.Quad) bool
	// Query yields every quad matching the pattern; zero terms are wildcards.
	// Each range over the sequence re-runs the query.
	Query(s, p, o, c rdf.Term) iter.Seq[rdf.Quad]
	// Count returns the number of matches without collecting them.
	Count(s, p, o, c rdf.Term) int
}

type quadSet map[rdf.Quad]struct{}

// Store is safe for concurrent use. Every mutating call is atomic; readers
// never observe a half-applied Add or Remove.
type Store struct {
	mu      sync.RWMutex
	quads   quadSet
	indexes [4]map[rdf.Term]quadSet
}

var _ Reader = (*Store)(nil)

func New() *Store {
	s := &Store{quads: make(quadSet)}
	for i := range s.indexes {
		s.indexes[i] = make(map[rdf.Term]quadSet)
	}
	return s
}

// Add inserts q and reports whether it was absent. Adding a present quad is a no-op.
func (s *Store) Add(q rdf.Quad) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(q)
}

func (s *Store) AddAll(quads []rdf.Quad) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, q := range quads {
		if s.addLocked(q) {
			added++
		}
	}
	return added
}

func (s *Store) addLocked(q rdf.Quad) bool {
	if _, ok := s.quads[q]; ok {
		return false
	}
	s.quads[q] = struct{}{}
	for pos := range s.indexes {
		key := q.Term(pos)
		set, ok := s.indexes[pos][key]
		if !ok {
			set = make(quadSet)
			s.indexes[pos][key] = set
		}
		set[q] = struct{}{}
	}
	return true
}

// Remove deletes q and reports whether it was present. Removing an absent quad is a no-op.
func (s *Store) Remove(q rdf.Quad) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(q)
}

func (s *Store) RemoveAll(quads []rdf.Quad) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, q := range quads {
		if s.removeLocked(q) {
			removed++
		}
	}
	return removed
}

// RemoveMatching deletes every quad matching the pattern.
func (s *Store) RemoveMatching(subject, predicate, object, context rdf.Term) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := s.collectLocked(subject, predicate, object, context)
	for _, q := range matches {
		s.removeLocked(q)
	}
	return len(matches)
}

func (s *Store) removeLocked(q rdf.Quad) bool {
	if _, ok := s.quads[q]; !ok {
		return false
	}
	delete(s.quads, q)
	for pos := range s.indexes {
		key := q.Term(pos)
		set := s.indexes[pos][key]
		delete(set, q)
		if len(set) == 0 {
			delete(s.indexes[pos], key)
		}
	}
	return true
}

func (s *Store) Contains(q rdf.Quad) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.quads[q]
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quads)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quads = make(quadSet)
	for i := range s.indexes {
		s.indexes[i] = make(map[rdf.Term]quadSet)
	}
}

// Query snapshots the candidates from the most selective index when the
// sequence is ranged over, then filters them lazily outside the lock, so the
// caller may mutate the store inside the loop.
func (s *Store) Query(subject, predicate, object, context rdf.Term) iter.Seq[rdf.Quad] {
	return func(yield func(rdf.Quad) bool) {
		s.mu.RLock()
		candidates := s.candidatesLocked(subject, predicate, object, context)
		s.mu.RUnlock()
		for _, q := range candidates {
			if !q.Matches(subject, predicate, object, context) {
				continue
			}
			if !yield(q) {
				return
			}
		}
	}
}

func (s *Store) Count(subject, predicate, object, context rdf.Term) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, bound := s.smallestLocked(subject, predicate, object, context)
	if set == nil {
		if bound > 0 {
			return 0
		}
		return len(s.quads)
	}
	if bound == 1 {
		return len(set)
	}
	n := 0
	for q := range set {
		if q.Matches(subject, predicate, object, context) {
			n++
		}
	}
	return n
}

// smallestLocked returns the smallest index set among the bound positions and
// the number of bound positions. A nil set with bound > 0 means no match.
func (s *Store) smallestLocked(terms ...rdf.Term) (quadSet, int) {
	var best quadSet
	bound := 0
	for pos, term := range terms {
		if term.IsZero() {
			continue
		}
		bound++
		set, ok := s.indexes[pos][term]
		if !ok {
			return nil, bound
		}
		if best == nil || len(set) < len(best) {
			best = set
		}
	}
	return best, bound
}

func (s *Store) candidatesLocked(subject, predicate, object, context rdf.Term) []rdf.Quad {
	set, bound := s.smallestLocked(subject, predicate, object, context)
	if set == nil {
		if bound > 0 {
			return nil
		}
		set = s.quads
	}
	out := make([]rdf.Quad, 0, len(set))
	for q := range set {
		out = append(out, q)
	}
	return out
}

func (s *Store) collectLocked(subject, predicate, object, context rdf.Term) []rdf.Quad {
	candidates := s.candidatesLocked(subject, predicate, object, context)
	out := candidates[:0]
	for _, q := range candidates {
		if q.Matches(subject, predicate, object, context) {
			out = append(out, q)
		}
	}
	return out
}
