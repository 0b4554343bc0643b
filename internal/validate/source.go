package validate

import (
	"quadsync/internal/datamodel"
	"quadsync/internal/quadstore"
)

// Source is the broker state a validation run inspects.
type Source interface {
	Store() quadstore.Reader
	NewQuads() quadstore.Reader
	DeletedQuads() quadstore.Reader
	NewResourceURIs() []string
	Model() *datamodel.Model
}
