package extract

import "time"

// Kind selects the value projection applied once a rule resolves.
type Kind int

const (
	// KindText projects the trimmed text content of the first match.
	KindText Kind = iota

	// KindAttr projects one attribute of the first match.
	KindAttr

	// KindHTML projects the inner HTML of the first match.
	KindHTML

	// KindTextList projects the trimmed text of every match.
	KindTextList

	// KindAttrList projects one attribute of every match.
	KindAttrList
)

// Rule maps a semantic field name to its fallback locators and projection.
type Rule struct {
	Field      string
	Candidates Candidates
	Kind       Kind
	Attr       string // attribute name for KindAttr / KindAttrList
	Default    string // sentinel recorded when no candidate matches
}

// Schema is the extraction plan for one page type.
type Schema struct {
	// Name identifies the page type ("search_item", "product_detail", "order_item").
	Name string

	// Containers locate the structural wrapper(s) whose presence signals
	// the page's primary content has loaded. For list pages each matched
	// container is one item; for detail pages the first match is the root.
	Containers Candidates

	Rules []Rule
}

// Record is the extraction output: one value per declared field, sentinel
// or real, plus capture metadata. Immutable once produced.
type Record struct {
	Fields     map[string]string
	Lists      map[string][]string
	SourceURL  string
	CapturedAt time.Time
}

// Get returns the scalar value for field, or "" if the schema never
// declared it.
func (r Record) Get(field string) string {
	return r.Fields[field]
}

// List returns the list value for field; nil when nothing matched.
func (r Record) List(field string) []string {
	return r.Lists[field]
}
