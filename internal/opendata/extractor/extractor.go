// Package extractor turns question text into the filter set of one dataset.
//
// Every dataset is served by the same algorithm driven by a Spec: vocabulary
// rules pick a value from a fixed list, pattern rules capture a value with a
// regular expression. Extraction is pure, so calling it twice on the same
// text yields the same FilterSet.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"gov-dash/internal/models"
	"gov-dash/pkg/registry"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Transform post-processes a captured value.
type Transform func(string) string

// Upper upper-cases a capture.
func Upper(s string) string { return strings.ToUpper(s) }

// Title capitalises the first letter of each word and lower-cases the rest.
func Title(s string) string {
	// cases.Caser keeps state, so one per call
	return cases.Title(language.English).String(s)
}

// VocabularyRule fills Field with the first entry of Values found anywhere
// in the text, compared case-insensitively. Entries are tried in list order,
// not text order. With Multi set, every entry found is kept, in list order,
// joined with ",".
type VocabularyRule struct {
	Field  string
	Values []string
	Multi  bool
}

// PatternRule fills Field with the first capture group of the leftmost
// match of Pattern. When several rules target one field the first rule
// that captures something wins.
type PatternRule struct {
	Field     string
	Pattern   *regexp.Regexp
	Transform Transform
}

// Spec parameterises the extractor for one dataset.
type Spec struct {
	Vocabulary []VocabularyRule
	Patterns   []PatternRule
}

var (
	limitPattern  = regexp.MustCompile(`(?i)\blimit\s*(\d+)`)
	offsetPattern = regexp.MustCompile(`(?i)\boffset\s*(\d+)`)
)

// Extractor is immutable and safe for concurrent use.
type Extractor struct {
	registry *registry.Registry
	specs    map[string]Spec
}

// New builds an extractor. Datasets without rules get pagination only.
func New(reg *registry.Registry, specs map[string]Spec) *Extractor {
	return &Extractor{registry: reg, specs: specs}
}

// NewDefault uses the rules for the built-in datasets.
func NewDefault(reg *registry.Registry) *Extractor {
	return New(reg, DefaultSpecs())
}

// Extract builds the FilterSet for datasetID from text. Offset is 0, limit
// is the dataset default and format is csv unless the text says
// "limit N" or "offset N". Fields the dataset does not declare are dropped.
func (e *Extractor) Extract(datasetID, text string) models.FilterSet {
	desc, ok := e.registry.Lookup(datasetID)
	limit := 10
	if ok && desc.DefaultLimit > 0 {
		limit = desc.DefaultLimit
	}
	fs := models.NewFilterSet(limit)

	if spec, found := e.specs[datasetID]; found && ok {
		lowered := strings.ToLower(text)
		for _, rule := range spec.Vocabulary {
			if v := rule.scan(lowered); v != "" {
				fs.Set(rule.Field, v)
			}
		}
		for _, rule := range spec.Patterns {
			if fs.Get(rule.Field) != "" {
				continue
			}
			if v := rule.capture(text); v != "" {
				fs.Set(rule.Field, v)
			}
		}
		for name := range fs.Fields {
			if !desc.HasFilter(name) {
				delete(fs.Fields, name)
			}
		}
	}

	if n, ok := captureInt(limitPattern, text); ok {
		fs.Limit = n
	}
	if n, ok := captureInt(offsetPattern, text); ok {
		fs.Offset = n
	}
	return fs
}

func (r VocabularyRule) scan(lowered string) string {
	var found []string
	for _, v := range r.Values {
		if !strings.Contains(lowered, strings.ToLower(v)) {
			continue
		}
		if !r.Multi {
			return v
		}
		found = append(found, v)
	}
	return strings.Join(found, ",")
}

func (r PatternRule) capture(text string) string {
	m := r.Pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	v := strings.TrimSpace(m[1])
	if r.Transform != nil {
		v = r.Transform(v)
	}
	return v
}

// captureInt ignores digit runs that overflow int.
func captureInt(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
