package databroker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"quadsync/internal/datamodel"
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
	"quadsync/internal/resource"
)

var fileExtensionRE = regexp.MustCompile(`^(.*)\.(\w+)$`)

// CreateResource stamps creator, creation time and types on a resource that
// has no data yet and marks it for a whole-resource POST. An empty uri mints
// a fresh urn:uuid.
func (b *Broker) CreateResource(uri string, types ...rdf.Term) (*resource.Resource, error) {
	if uri == "" {
		uri = b.CreateUUID()
	}
	term := rdf.TermFromURI(uri)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hasResourceData(term) {
		return nil, fmt.Errorf("%w: %s", ErrResourceExists, term.URI())
	}
	if b.user != "" {
		b.addNewQuadLocked(rdf.Triple(term, rdf.DCCreator, rdf.TermFromURI(b.user)))
	}
	created := b.now().UTC().Format("2006-01-02T15:04:05Z07:00")
	b.addNewQuadLocked(rdf.Triple(term, rdf.DCCreated, rdf.TypedLiteral(created, rdf.XSDDateTime)))
	for _, t := range types {
		b.addNewQuadLocked(rdf.Triple(term, rdf.RDFType, t))
	}
	b.newResources[term.URI()] = struct{}{}
	delete(b.deletedResources, term.URI())

	return b.ResourceFor(term), nil
}

// DeleteResource removes every statement about uri. A resource that was never
// synced is forgotten; otherwise it is queued for a server-side delete.
func (b *Broker) DeleteResource(uri string) {
	term := rdf.TermFromURI(uri)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, q := range quadstore.Collect(b.store, term, rdf.Term{}, rdf.Term{}, rdf.Term{}) {
		b.deleteQuadLocked(q)
	}
	if _, ok := b.newResources[term.URI()]; ok {
		delete(b.newResources, term.URI())
		b.deleted.RemoveMatching(term, rdf.Term{}, rdf.Term{}, rdf.Term{})
		return
	}
	b.deletedResources[term.URI()] = struct{}{}
}

// CreateUUID mints a urn:uuid the store knows nothing about.
func (b *Broker) CreateUUID() string {
	for {
		id := "urn:uuid:" + uuid.NewString()
		if !b.KnowsAboutResource(id) {
			return id
		}
	}
}

// KnowsAboutResource reports whether uri or an equivalent appears anywhere in
// the store, in any position.
func (b *Broker) KnowsAboutResource(uri string) bool {
	for _, t := range b.EquivalentTerms(uri) {
		if b.store.Count(t, rdf.Term{}, rdf.Term{}, rdf.Term{})+
			b.store.Count(rdf.Term{}, t, rdf.Term{}, rdf.Term{})+
			b.store.Count(rdf.Term{}, rdf.Term{}, t, rdf.Term{})+
			b.store.Count(rdf.Term{}, rdf.Term{}, rdf.Term{}, t) > 0 {
			return true
		}
	}
	return false
}

// HasResourceData reports whether uri or an equivalent is the subject of a statement.
func (b *Broker) HasResourceData(uri string) bool {
	return b.hasResourceData(rdf.TermFromURI(uri))
}

func (b *Broker) hasResourceData(term rdf.Term) bool {
	for _, t := range quadstore.EquivalentTerms(b.store, term) {
		if b.store.Count(t, rdf.Term{}, rdf.Term{}, rdf.Term{}) > 0 {
			return true
		}
	}
	return false
}

func (b *Broker) EquivalentTerms(uri string) []rdf.Term {
	return quadstore.EquivalentTerms(b.store, rdf.TermFromURI(uri))
}

// EquivalentURIs returns uri and its one-hop owl:sameAs neighbours.
func (b *Broker) EquivalentURIs(uri string) []string {
	return termURIs(b.EquivalentTerms(uri))
}

func (b *Broker) AreEquivalentURIs(a, c string) bool {
	return quadstore.AreEquivalent(b.store, rdf.TermFromURI(a), rdf.TermFromURI(c))
}

// URIsWithProperty returns the subjects having predicate with object or any
// equivalent of object.
func (b *Broker) URIsWithProperty(predicate, object rdf.Term) []rdf.Term {
	objects := []rdf.Term{object}
	if object.IsIRI() {
		objects = quadstore.EquivalentTerms(b.store, object)
	}
	return distinctTerms(objects, func(o rdf.Term) []rdf.Term {
		return quadstore.Subjects(b.store, rdf.Term{}, predicate, o, rdf.Term{})
	})
}

// PropertiesForResource returns the predicate's values across uri's equivalents.
func (b *Broker) PropertiesForResource(uri string, predicate rdf.Term) []rdf.Term {
	return distinctTerms(b.EquivalentTerms(uri), func(s rdf.Term) []rdf.Term {
		return quadstore.Objects(b.store, s, predicate, rdf.Term{}, rdf.Term{})
	})
}

// Describers returns the documents declared to describe uri through
// ore:isDescribedBy, falling back to reverse ore:describes links.
func (b *Broker) Describers(uri string) []string {
	describers := b.PropertiesForResource(uri, rdf.OREIsDescribedBy)
	if len(describers) == 0 {
		describers = b.URIsWithProperty(rdf.OREDescribes, rdf.TermFromURI(uri))
	}
	return termURIs(describers)
}

// ResourcesDescribedByURL is the reverse of Describers.
func (b *Broker) ResourcesDescribedByURL(url string) []string {
	t := rdf.IRI(rdf.UnwrapURI(url))
	objects := quadstore.Objects(b.store, t, rdf.OREDescribes, rdf.Term{}, rdf.Term{})
	subjects := quadstore.Subjects(b.store, rdf.Term{}, rdf.OREIsDescribedBy, t, rdf.Term{})
	return termURIs(distinctTerms([][]rdf.Term{objects, subjects}, func(ts []rdf.Term) []rdf.Term { return ts }))
}

// URLsToRequest returns the documents to fetch to know uri: its describers,
// or heuristic guesses when none are known. A canvas also pulls in its lists
// and the aggregations of the manifests holding it. Local urn:uuid resources are never
// guessed. With force set, documents already received are left out.
func (b *Broker) URLsToRequest(uri string, force, noGuesses bool) []string {
	uri = rdf.UnwrapURI(uri)
	uris := []string{uri}
	res := b.Resource(uri)
	term := res.Term()
	uris = append(uris, termURIs(b.model.ResourcesForCanvas(b.store, term))...)
	switch b.model.Classify(b.store, term) {
	case datamodel.CategoryCanvas:
		for _, manifest := range b.model.ManifestsContainingCanvas(b.store, term) {
			uris = append(uris, termURIs(b.model.ManifestAggregations(b.store, manifest))...)
		}
	case datamodel.CategorySpecificResource:
		if len(b.Describers(uri)) == 0 {
			if source := res.GetOneProperty(rdf.OAHasSource); source != "" {
				uris = append(uris, source)
			}
		}
	}

	var urls []string
	seen := make(map[string]bool)
	add := func(url string) {
		if !seen[url] {
			seen[url] = true
			urls = append(urls, url)
		}
	}
	for _, u := range uris {
		describers := b.Describers(u)
		switch {
		case len(describers) > 0:
			for _, d := range describers {
				if !force || !b.WasReceived(d) {
					add(d)
				}
			}
		case strings.HasPrefix(u, "urn:uuid:"):
		case !noGuesses:
			for _, guess := range b.GuessResourceURLs(u) {
				if (!force || !b.WasReceived(guess)) && !b.HasFailed(guess) {
					add(guess)
				}
			}
		}
	}
	return urls
}

// GuessResourceURLs proposes uri and uri with .xml and .rdf appended for uri
// and its equivalents. A guess already received wins outright. This is a best
// effort heuristic and may pick up an unrelated document sharing the name.
func (b *Broker) GuessResourceURLs(uri string) []string {
	var guesses []string
	for _, eq := range b.EquivalentURIs(uri) {
		if fileExtensionRE.MatchString(eq) || strings.HasSuffix(eq, "/") {
			guesses = append(guesses, eq)
			continue
		}
		guesses = append(guesses, eq, eq+".xml", eq+".rdf")
	}
	for _, guess := range guesses {
		if b.WasReceived(guess) {
			return []string{guess}
		}
	}
	var out []string
	for _, guess := range guesses {
		if !b.HasFailed(guess) && rdf.IsAbsoluteURI(guess) {
			out = append(out, guess)
		}
	}
	return out
}

// ListURIsInOrder walks an rdf:List from listURI and returns its members.
func (b *Broker) ListURIsInOrder(listURI string) []rdf.Term {
	node := rdf.TermFromURI(listURI)
	first, ok := b.ResourceFor(node).OneProperty(rdf.RDFFirst)
	if !ok {
		return nil
	}
	items := []rdf.Term{first}
	visited := map[rdf.Term]bool{node: true}
	rest, ok := b.ResourceFor(node).OneProperty(rdf.RDFRest)
	for ok && rest != rdf.RDFNil {
		if visited[rest] {
			b.logger.Warn("cyclic list", "list", listURI)
			break
		}
		visited[rest] = true
		cell := b.ResourceFor(rest)
		if item, found := cell.OneProperty(rdf.RDFFirst); found {
			items = append(items, item)
		} else {
			b.logger.Warn("malformed list", "list", listURI, "cell", rest.URI())
		}
		rest, ok = cell.OneProperty(rdf.RDFRest)
	}
	return items
}

// SortURIsByTitle orders uris by resource title, then by uri.
func (b *Broker) SortURIsByTitle(uris []string) {
	titles := make(map[string]string, len(uris))
	for _, uri := range uris {
		titles[uri] = strings.ToLower(b.Resource(uri).Title())
	}
	sort.SliceStable(uris, func(i, j int) bool {
		if titles[uris[i]] != titles[uris[j]] {
			return titles[uris[i]] < titles[uris[j]]
		}
		return uris[i] < uris[j]
	})
}

// SerializeQuads encodes quads in the named format or content type.
func (b *Broker) SerializeQuads(quads []rdf.Quad, format string) ([]byte, error) {
	return b.formats.Serialize(quads, format)
}

// Dump serializes the whole main store.
func (b *Broker) Dump(format string) ([]byte, error) {
	return b.formats.Serialize(quadstore.Collect(b.store, rdf.Term{}, rdf.Term{}, rdf.Term{}, rdf.Term{}), format)
}

func termURIs(terms []rdf.Term) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.URI())
	}
	return out
}

func distinctTerms[T any](inputs []T, lookup func(T) []rdf.Term) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	for _, in := range inputs {
		for _, t := range lookup(in) {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
