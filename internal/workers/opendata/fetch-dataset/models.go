// internal/workers/opendata/fetch-dataset/models.go
package fetchdataset

import "gov-dash/internal/models"

type Input struct {
	DatasetID string            `json:"datasetId"`
	Filters   *models.FilterSet `json:"filters"`
	Format    string            `json:"format"`
}

type Output struct {
	Columns     []string        `json:"columns"`
	Records     []models.Record `json:"records"`
	RecordCount int             `json:"recordCount"`
	Message     string          `json:"message,omitempty"`
	Outcome     models.Outcome  `json:"outcome"`
	Kind        models.Kind     `json:"kind"`
}

const inputSchema = `{
	"type": "object",
	"required": ["datasetId"],
	"properties": {
		"datasetId": {"type": "string", "minLength": 1},
		"filters": {
			"type": ["object", "null"],
			"properties": {
				"offset": {"type": ["integer", "string"], "minimum": 0, "pattern": "^[0-9]+$"},
				"limit": {"type": ["integer", "string"], "minimum": 0, "pattern": "^[0-9]+$"}
			}
		},
		"format": {"type": "string", "enum": ["", "csv", "json"]}
	}
}`
