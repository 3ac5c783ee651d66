// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Registry is the read-only set of known datasets. It is built once at
// startup and safe for concurrent use.
type Registry struct {
	ordered []DatasetDescriptor
	byID    map[string]int
}

// New builds a Registry from catalog, preserving dataset order.
func New(catalog *Catalog) (*Registry, error) {
	r := &Registry{
		ordered: make([]DatasetDescriptor, 0, len(catalog.Datasets)),
		byID:    make(map[string]int, len(catalog.Datasets)),
	}
	for _, d := range catalog.Datasets {
		if d.ID == "" {
			return nil, fmt.Errorf("dataset with empty id")
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate dataset id %q", d.ID)
		}
		if d.DefaultLimit <= 0 {
			d.DefaultLimit = 10
		}
		if d.DownloadName == "" {
			d.DownloadName = d.ID + ".csv"
		}
		r.byID[d.ID] = len(r.ordered)
		r.ordered = append(r.ordered, cloneDescriptor(d))
	}
	return r, nil
}

// Default returns the registry built from the compiled-in catalog.
func Default() *Registry {
	r, err := New(Builtin())
	if err != nil {
		panic(fmt.Sprintf("builtin catalog is invalid: %v", err))
	}
	return r
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id string) (DatasetDescriptor, bool) {
	i, ok := r.byID[id]
	if !ok {
		return DatasetDescriptor{}, false
	}
	return cloneDescriptor(r.ordered[i]), true
}

// Descriptors returns a copy of every descriptor in registry order.
func (r *Registry) Descriptors() []DatasetDescriptor {
	out := make([]DatasetDescriptor, len(r.ordered))
	for i, d := range r.ordered {
		out[i] = cloneDescriptor(d)
	}
	return out
}

func (r *Registry) IDs() []string {
	ids := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		ids[i] = d.ID
	}
	return ids
}

func (r *Registry) Len() int {
	return len(r.ordered)
}

func cloneDescriptor(d DatasetDescriptor) DatasetDescriptor {
	d.Filters = append([]string(nil), d.Filters...)
	d.Columns = append([]string(nil), d.Columns...)
	d.Keywords = append([]string(nil), d.Keywords...)
	d.Examples = append([]string(nil), d.Examples...)
	return d
}

// LoadRegistry reads and validates a catalog file. An empty path selects
// the compiled-in catalog.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return New(Builtin())
	}
	catalog, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return New(catalog)
}

// LoadCatalog reads path and validates it against the catalog schema.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateCatalogJSON(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &catalog, nil
}

// ValidateCatalogJSON checks raw catalog JSON against the embedded schema
// and rejects duplicate dataset ids.
func ValidateCatalogJSON(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("catalog is not valid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("catalog failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var ids struct {
		Datasets []struct {
			ID string `json:"id"`
		} `json:"datasets"`
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	seen := make(map[string]bool, len(ids.Datasets))
	for _, d := range ids.Datasets {
		if seen[d.ID] {
			return fmt.Errorf("duplicate dataset id %q", d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// SaveRegistry validates catalog and writes it to path as indented JSON.
func SaveRegistry(path string, catalog *Catalog) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}
	if err := ValidateCatalogJSON(data); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
