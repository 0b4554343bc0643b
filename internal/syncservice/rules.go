package syncservice

import (
	"net/http"
	"strings"

	"quadsync/internal/datamodel"
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
)

// plan is everything needed to push one resource.
type plan struct {
	url    string
	method string
	post   []rdf.Quad
	remove []rdf.Quad
	// confirmNew and confirmDeleted are extra change-set entries cleared
	// once post succeeds.
	confirmNew     []rdf.Quad
	confirmDeleted []rdf.Quad
}

// rule selects the statements to push for a subject of one category. A false
// result means the category is never pushed on its own.
type rule func(s *Service, subject rdf.Term, method string) (plan, bool)

var rules = map[datamodel.Category]rule{
	datamodel.CategoryText:             textPlan,
	datamodel.CategoryCanvas:           canvasPlan,
	datamodel.CategoryAnnotation:       annotationPlan,
	datamodel.CategoryProject:          projectPlan,
	datamodel.CategoryUser:             userPlan,
	datamodel.CategorySpecificResource: specificResourcePlan,
	datamodel.CategorySelector:         selectorPlan,
}

// Texts are overwritten as a whole, so deletions never need their own request.
func textPlan(s *Service, subject rdf.Term, method string) (plan, bool) {
	m := s.broker.Model()
	return plan{
		url:            s.RestURL(s.project, ResText, subject.URI()),
		method:         method,
		post:           m.QuadsForText(s.broker.Store(), subject),
		confirmNew:     m.QuadsForText(s.broker.NewQuads(), subject),
		confirmDeleted: m.QuadsForText(s.broker.DeletedQuads(), subject),
	}, true
}

func canvasPlan(s *Service, subject rdf.Term, _ string) (plan, bool) {
	m := s.broker.Model()
	return plan{
		url:    s.RestURL(s.project, ResProject, ""),
		method: http.MethodPut,
		post:   m.QuadsForCanvas(s.broker.NewQuads(), subject),
		remove: m.QuadsForCanvas(s.broker.DeletedQuads(), subject),
	}, true
}

func annotationPlan(s *Service, subject rdf.Term, _ string) (plan, bool) {
	m := s.broker.Model()
	return plan{
		url:    s.RestURL(s.project, ResProject, ""),
		method: http.MethodPut,
		post:   m.QuadsForAnnotation(s.broker.Store(), subject),
		remove: m.QuadsForAnnotation(s.broker.DeletedQuads(), subject),
	}, true
}

// Newly aggregated resources travel with their metadata so the project can
// list them before they are fetched.
func projectPlan(s *Service, subject rdf.Term, _ string) (plan, bool) {
	m := s.broker.Model()
	p := plan{
		url:    s.RestURL(s.project, ResProject, ""),
		method: http.MethodPut,
		post:   m.QuadsForProject(s.broker.NewQuads(), subject),
		remove: m.QuadsForProject(s.broker.DeletedQuads(), subject),
	}
	for _, agg := range quadstore.Objects(s.broker.NewQuads(), subject, rdf.OREAggregates, rdf.Term{}, rdf.Term{}) {
		p.post = append(p.post, m.MetadataQuads(s.broker.Store(), agg)...)
	}
	return p, true
}

func userPlan(s *Service, subject rdf.Term, method string) (plan, bool) {
	m := s.broker.Model()
	return plan{
		url:    s.RestURL("", ResUser, username(subject.URI())) + "/",
		method: method,
		post:   m.QuadsForUser(s.broker.NewQuads(), subject),
		remove: m.QuadsForUser(s.broker.DeletedQuads(), subject),
	}, true
}

// Selector statements are looked up through the owner's oa:hasSelector links
// in the conjunctive view, so an edit to a selector alone still reaches the server.
func specificResourcePlan(s *Service, subject rdf.Term, _ string) (plan, bool) {
	p := plan{
		url:    s.RestURL(s.project, ResProject, ""),
		method: http.MethodPut,
		post:   quadstore.Collect(s.broker.NewQuads(), subject, rdf.Term{}, rdf.Term{}, rdf.Term{}),
		remove: quadstore.Collect(s.broker.DeletedQuads(), subject, rdf.Term{}, rdf.Term{}, rdf.Term{}),
	}
	for _, sel := range quadstore.Objects(s.broker.Conjunctive(), subject, rdf.OAHasSelector, rdf.Term{}, rdf.Term{}) {
		p.post = append(p.post, quadstore.Collect(s.broker.NewQuads(), sel, rdf.Term{}, rdf.Term{}, rdf.Term{})...)
		p.remove = append(p.remove, quadstore.Collect(s.broker.DeletedQuads(), sel, rdf.Term{}, rdf.Term{}, rdf.Term{})...)
	}
	return p, true
}

// Selectors ride along with the specific resource that owns them.
func selectorPlan(*Service, rdf.Term, string) (plan, bool) {
	return plan{}, false
}

func username(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
