// pkg/registry/schema.go
package registry

import _ "embed"

// Catalog is the on-disk form of the dataset registry.
type Catalog struct {
	Version     string              `json:"version"`
	LastUpdated string              `json:"lastUpdated"`
	Datasets    []DatasetDescriptor `json:"datasets"`
}

// DatasetDescriptor describes one remote open-data resource.
type DatasetDescriptor struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Endpoint string   `json:"endpoint"`
	Filters  []string `json:"filters"`
	Columns  []string `json:"columns"`

	// Keywords route a question to this dataset. Order matters.
	Keywords     []string `json:"keywords"`
	DefaultLimit int      `json:"defaultLimit,omitempty"`
	DownloadName string   `json:"downloadName,omitempty"`

	// Examples are sample questions shown when nothing matches.
	Examples []string `json:"examples,omitempty"`
}

// HasFilter reports whether name is a declared filter field.
func (d DatasetDescriptor) HasFilter(name string) bool {
	for _, f := range d.Filters {
		if f == name {
			return true
		}
	}
	return false
}

//go:embed catalog.schema.json
var catalogSchema string
