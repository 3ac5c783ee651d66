// Package classifier routes a free-text question to at most one dataset by
// literal keyword containment.
package classifier

import (
	"strings"

	"gov-dash/pkg/registry"
)

type rule struct {
	datasetID string
	keywords  []string
}

// Classifier is immutable and safe for concurrent use.
type Classifier struct {
	rules []rule
}

// New captures the keyword table of reg in registry order.
func New(reg *registry.Registry) *Classifier {
	c := &Classifier{}
	for _, d := range reg.Descriptors() {
		kws := make([]string, 0, len(d.Keywords))
		for _, kw := range d.Keywords {
			if kw = strings.ToLower(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		c.rules = append(c.rules, rule{datasetID: d.ID, keywords: kws})
	}
	return c
}

// Classify returns the first dataset, in registry order, with a keyword
// contained in the lower-cased text.
func (c *Classifier) Classify(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				return r.datasetID, true
			}
		}
	}
	return "", false
}
