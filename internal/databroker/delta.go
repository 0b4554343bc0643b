package databroker

import (
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
)

// ModifiedSubjects returns the subjects touched by either change-set that are
// neither new nor deleted resources.
func (b *Broker) ModifiedSubjects() []rdf.Term {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []rdf.Term
	for _, s := range quadstore.Subjects(quadstore.NewUnion(b.newQ, b.deleted), rdf.Term{}, rdf.Term{}, rdf.Term{}, rdf.Term{}) {
		if _, ok := b.newResources[s.URI()]; ok {
			continue
		}
		if _, ok := b.deletedResources[s.URI()]; ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

// HasUnsavedChanges reports whether anything is waiting to be synced.
func (b *Broker) HasUnsavedChanges() bool {
	b.mu.Lock()
	pending := len(b.newResources) > 0 || len(b.deletedResources) > 0
	b.mu.Unlock()
	return pending || len(b.ModifiedSubjects()) > 0
}

// ConfirmNewQuads drops statements the server has accepted from the new change-set.
func (b *Broker) ConfirmNewQuads(quads []rdf.Quad) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newQ.RemoveAll(quads)
}

// ConfirmDeletedQuads drops deletions the server has applied.
func (b *Broker) ConfirmDeletedQuads(quads []rdf.Quad) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deleted.RemoveAll(quads)
}

func (b *Broker) ConfirmNewResource(uri string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.newResources, uri)
}

func (b *Broker) ConfirmDeletedResources(uris []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, uri := range uris {
		delete(b.deletedResources, uri)
	}
}

// PurgeNewQuads forgets pending additions matching the pattern without
// touching the main store.
func (b *Broker) PurgeNewQuads(subject, predicate rdf.Term) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newQ.RemoveMatching(subject, predicate, rdf.Term{}, rdf.Term{})
}

// PurgeDeletedQuads forgets pending deletions matching the pattern.
func (b *Broker) PurgeDeletedQuads(subject, predicate rdf.Term) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deleted.RemoveMatching(subject, predicate, rdf.Term{}, rdf.Term{})
}
