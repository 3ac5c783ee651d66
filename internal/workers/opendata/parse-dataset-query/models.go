// internal/workers/opendata/parse-dataset-query/models.go
package parsedatasetquery

import "gov-dash/internal/models"

type Input struct {
	Question string `json:"question"`
}

type Output struct {
	Matched   bool              `json:"matched"`
	DatasetID string            `json:"datasetId,omitempty"`
	Filters   *models.FilterSet `json:"filters,omitempty"`
	Format    string            `json:"format,omitempty"`
	Message   string            `json:"message,omitempty"`
}

const inputSchema = `{
	"type": "object",
	"required": ["question"],
	"properties": {
		"question": {"type": "string"}
	}
}`
