package config

import (
	"fmt"
	"strings"
)

// Vocabulary lists, per resource category, the rdf:type values (CURIEs or
// IRIs) that place a resource in that category.
type Vocabulary struct {
	Text             []string `yaml:"text"`
	Canvas           []string `yaml:"canvas"`
	Annotation       []string `yaml:"annotation"`
	Project          []string `yaml:"project"`
	User             []string `yaml:"user"`
	SpecificResource []string `yaml:"specific_resource"`
	Selector         []string `yaml:"selector"`
	Title            []string `yaml:"title"`
}

func DefaultVocabulary() Vocabulary {
	var v Vocabulary
	v.applyDefaults()
	return v
}

func (v *Vocabulary) applyDefaults() {
	setDefaultList(&v.Text, "dctypes:Text", "cnt:ContentAsText")
	setDefaultList(&v.Canvas, "sc:Canvas", "dms:Canvas")
	setDefaultList(&v.Annotation, "oa:Annotation")
	setDefaultList(&v.Project, "dm:Project")
	setDefaultList(&v.User, "foaf:Agent")
	setDefaultList(&v.SpecificResource, "oa:SpecificResource")
	setDefaultList(&v.Selector, "oa:TextQuoteSelector", "oa:SvgSelector")
	setDefaultList(&v.Title, "dc:title", "dcterms:title", "rdfs:label")
}

func setDefaultList(field *[]string, values ...string) {
	if len(*field) == 0 {
		*field = values
	}
}

// Categories returns the category name to type list mapping, title excluded.
func (v *Vocabulary) Categories() map[string][]string {
	return map[string][]string{
		"text":              v.Text,
		"canvas":            v.Canvas,
		"annotation":        v.Annotation,
		"project":           v.Project,
		"user":              v.User,
		"specific_resource": v.SpecificResource,
		"selector":          v.Selector,
	}
}

func validateVocabulary(v *Vocabulary) error {
	owner := make(map[string]string)
	for category, types := range v.Categories() {
		for _, t := range types {
			key := strings.TrimSpace(t)
			if key == "" {
				return fmt.Errorf("vocabulary %s has an empty type", category)
			}
			if other, exists := owner[key]; exists && other != category {
				return fmt.Errorf("vocabulary type %s is in both %s and %s", t, other, category)
			}
			owner[key] = category
		}
	}
	return nil
}
