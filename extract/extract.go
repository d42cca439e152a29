package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ParseDocument parses a captured page into a queryable document.
// Extraction runs offline against this snapshot so a navigation on the
// shared rendering context can never invalidate an in-progress projection.
func ParseDocument(rawHTML string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
}

// Items locates the schema's content containers in doc. Candidates are
// tried in confidence order; the first locator with any matches supplies
// all items. An empty result means the page has no recognizable content,
// which is a valid outcome for list pages, not an error.
func (s *Schema) Items(doc *goquery.Document) []*goquery.Selection {
	for _, loc := range s.Containers {
		found := doc.Find(string(loc))
		if found.Length() == 0 {
			continue
		}
		items := make([]*goquery.Selection, 0, found.Length())
		found.Each(func(_ int, sel *goquery.Selection) {
			items = append(items, sel)
		})
		return items
	}
	return nil
}

// Extract applies every rule of the schema to root and returns a complete
// record: each declared field is present, real or sentinel. A missing
// field is never an error here; only an unreachable page is, and that is
// the fetch layer's problem.
func (s *Schema) Extract(root *goquery.Selection, sourceURL string) Record {
	rec := Record{
		Fields:     make(map[string]string, len(s.Rules)),
		Lists:      make(map[string][]string),
		SourceURL:  sourceURL,
		CapturedAt: time.Now().UTC(),
	}

	for _, rule := range s.Rules {
		switch rule.Kind {
		case KindTextList, KindAttrList:
			rec.Lists[rule.Field] = projectList(root, rule)
		default:
			rec.Fields[rule.Field] = projectScalar(root, rule)
		}
	}
	return rec
}

// projectScalar resolves the rule's candidates against root and projects
// the first match; the sentinel default covers the no-match case.
func projectScalar(root *goquery.Selection, rule Rule) string {
	for _, loc := range rule.Candidates {
		found := root.Find(string(loc)).First()
		if found.Length() == 0 {
			continue
		}

		var value string
		switch rule.Kind {
		case KindAttr:
			value, _ = found.Attr(rule.Attr)
		case KindHTML:
			value, _ = found.Html()
		default:
			value = found.Text()
		}

		value = strings.TrimSpace(value)
		if value != "" {
			return value
		}
		// A matching but empty element is treated like a miss so a
		// lower-confidence candidate still gets its chance.
	}
	return rule.Default
}

func projectList(root *goquery.Selection, rule Rule) []string {
	for _, loc := range rule.Candidates {
		found := root.Find(string(loc))
		if found.Length() == 0 {
			continue
		}

		values := make([]string, 0, found.Length())
		found.Each(func(_ int, sel *goquery.Selection) {
			var v string
			if rule.Kind == KindAttrList {
				v, _ = sel.Attr(rule.Attr)
			} else {
				v = sel.Text()
			}
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		})
		if len(values) > 0 {
			return values
		}
	}
	return nil
}
