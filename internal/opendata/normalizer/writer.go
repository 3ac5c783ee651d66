package normalizer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gov-dash/internal/models"
)

// WriteCSV renders columns and records as a CSV file with a header row.
func WriteCSV(w io.Writer, columns []string, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = formatCell(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVBytes is WriteCSV into memory.
func CSVBytes(columns []string, records []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, columns, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}
