package rdf

const (
	NSRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	NSOWL     = "http://www.w3.org/2002/07/owl#"
	NSXSD     = "http://www.w3.org/2001/XMLSchema#"
	NSDC      = "http://purl.org/dc/elements/1.1/"
	NSDCTerms = "http://purl.org/dc/terms/"
	NSDCTypes = "http://purl.org/dc/dcmitype/"
	NSORE     = "http://www.openarchives.org/ore/terms/"
	NSOA      = "http://www.w3.org/ns/oa#"
	NSCnt     = "http://www.w3.org/2011/content#"
	NSFOAF    = "http://xmlns.com/foaf/0.1/"
	NSDM      = "http://dm.drew.edu/ns/"
	NSSC      = "http://www.shared-canvas.org/ns/"
	NSDMS     = "http://dms.stanford.edu/ns/"
	NSExif    = "http://www.w3.org/2003/12/exif/ns#"
	NSSKOS    = "http://www.w3.org/2004/02/skos/core#"
	NSPerm    = "http://vocab.ox.ac.uk/perm#"
)

const (
	XSDString   = NSXSD + "string"
	XSDDateTime = NSXSD + "dateTime"
	XSDInteger  = NSXSD + "integer"
)

var (
	RDFType  = IRI(NSRDF + "type")
	RDFFirst = IRI(NSRDF + "first")
	RDFRest  = IRI(NSRDF + "rest")
	RDFNil   = IRI(NSRDF + "nil")

	RDFSLabel = IRI(NSRDFS + "label")

	OWLSameAs = IRI(NSOWL + "sameAs")

	OREIsDescribedBy = IRI(NSORE + "isDescribedBy")
	OREDescribes     = IRI(NSORE + "describes")
	OREAggregates    = IRI(NSORE + "aggregates")

	DCCreator  = IRI(NSDC + "creator")
	DCCreated  = IRI(NSDCTerms + "created")
	DCTitle    = IRI(NSDC + "title")
	DCModified = IRI(NSDCTerms + "modified")

	OAHasBody     = IRI(NSOA + "hasBody")
	OAHasTarget   = IRI(NSOA + "hasTarget")
	OAHasSelector = IRI(NSOA + "hasSelector")
	OAHasSource   = IRI(NSOA + "hasSource")

	SCForCanvas = IRI(NSSC + "forCanvas")

	FOAFAgent         = IRI(NSFOAF + "Agent")
	DMLastOpenProject = IRI(NSDM + "lastOpenProject")
)
