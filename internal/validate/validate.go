package validate

import (
	"context"
	"fmt"

	"quadsync/internal/datamodel"
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeDanglingBlank     = "dangling_blank_node"
	codeUntypedResource   = "untyped_new_resource"
	codeUnsyncableType    = "unsyncable_new_resource"
	codeMalformedList     = "malformed_list"
	codeDeltaConflict     = "quad_new_and_deleted"
	codeDeletedStillThere = "deleted_quad_in_store"
	codeNewMissing        = "new_quad_missing_from_store"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Subject  string
}

type Report struct {
	Issues []Issue
}

// Errors returns the issues of error severity.
func (r *Report) Errors() []Issue { return r.filter(SeverityError) }

func (r *Report) Warnings() []Issue { return r.filter(SeverityWarn) }

func (r *Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

func Run(ctx context.Context, src Source) (*Report, error) {
	if src == nil {
		return nil, fmt.Errorf("source is required")
	}

	issues := make([]Issue, 0)
	checks := []func(Source) []Issue{
		checkDeltas,
		checkNewResources,
		checkDanglingBlanks,
		checkLists,
	}
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		issues = append(issues, check(src)...)
	}
	return &Report{Issues: issues}, nil
}

// checkDeltas verifies the change-sets agree with the main store: a pending
// addition is in it and a pending deletion is not.
func checkDeltas(src Source) []Issue {
	var issues []Issue
	store := src.Store()
	newQ := src.NewQuads()
	for q := range src.DeletedQuads().Query(rdf.Term{}, rdf.Term{}, rdf.Term{}, rdf.Term{}) {
		if newQ.Contains(q) {
			issues = append(issues, quadIssue(codeDeltaConflict, "quad is pending both addition and deletion", q))
		}
		if store.Contains(q) {
			issues = append(issues, quadIssue(codeDeletedStillThere, "deleted quad is still in the store", q))
		}
	}
	for q := range newQ.Query(rdf.Term{}, rdf.Term{}, rdf.Term{}, rdf.Term{}) {
		if !store.Contains(q) {
			issues = append(issues, quadIssue(codeNewMissing, "new quad is missing from the store", q))
		}
	}
	return issues
}

func checkNewResources(src Source) []Issue {
	var issues []Issue
	store := src.Store()
	model := src.Model()
	for _, uri := range src.NewResourceURIs() {
		subject := rdf.TermFromURI(uri)
		if store.Count(subject, rdf.RDFType, rdf.Term{}, rdf.Term{}) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeUntypedResource,
				Message:  "new resource has no rdf:type and will never sync",
				Subject:  uri,
			})
			continue
		}
		if model.Classify(store, subject) == datamodel.CategoryUnknown {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnsyncableType,
				Message:  "new resource has no type the sync service knows",
				Subject:  uri,
			})
		}
	}
	return issues
}

func checkDanglingBlanks(src Source) []Issue {
	var issues []Issue
	store := src.Store()
	seen := make(map[rdf.Term]bool)
	for q := range store.Query(rdf.Term{}, rdf.Term{}, rdf.Term{}, rdf.Term{}) {
		o := q.Object
		if !o.IsBlank() || seen[o] {
			continue
		}
		seen[o] = true
		if store.Count(o, rdf.Term{}, rdf.Term{}, rdf.Term{}) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeDanglingBlank,
				Message:  fmt.Sprintf("blank node referenced by %s is never described", q.Subject.URI()),
				Subject:  o.URI(),
			})
		}
	}
	return issues
}

// checkLists walks every list from its head and reports nodes without exactly
// one rdf:first and rdf:rest, and chains that loop or end somewhere other
// than rdf:nil.
func checkLists(src Source) []Issue {
	var issues []Issue
	store := src.Store()
	for _, node := range quadstore.Subjects(store, rdf.Term{}, rdf.RDFFirst, rdf.Term{}, rdf.Term{}) {
		if store.Count(rdf.Term{}, rdf.RDFRest, node, rdf.Term{}) > 0 {
			continue
		}
		if msg := walkList(store, node); msg != "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMalformedList,
				Message:  msg,
				Subject:  node.URI(),
			})
		}
	}
	return issues
}

func walkList(store quadstore.Reader, head rdf.Term) string {
	visited := make(map[rdf.Term]bool)
	for node := head; node != rdf.RDFNil; {
		if visited[node] {
			return fmt.Sprintf("list loops back to %s", node.URI())
		}
		visited[node] = true
		if n := store.Count(node, rdf.RDFFirst, rdf.Term{}, rdf.Term{}); n != 1 {
			return fmt.Sprintf("list node %s has %d rdf:first values", node.URI(), n)
		}
		rests := quadstore.Objects(store, node, rdf.RDFRest, rdf.Term{}, rdf.Term{})
		if len(rests) != 1 {
			return fmt.Sprintf("list node %s has %d rdf:rest values", node.URI(), len(rests))
		}
		node = rests[0]
	}
	return ""
}

func quadIssue(code, message string, q rdf.Quad) Issue {
	return Issue{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf("%s: %s", message, q.String()),
		Subject:  q.Subject.URI(),
	}
}
