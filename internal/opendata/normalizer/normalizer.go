// Package normalizer parses open-data response bodies into a uniform table.
package normalizer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "gov-dash/internal/common/errors"
	"gov-dash/internal/models"

	"github.com/tidwall/gjson"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a parsed body. Either Records is non-empty or Message explains why not.
type Table struct {
	Columns []string
	Records []models.Record
	Message string
	Outcome models.Outcome
}

// Normalize parses body as format. Anything other than "json" is read as CSV.
func Normalize(body []byte, format string) Table {
	if strings.EqualFold(format, FormatJSON) {
		return normalizeJSON(body)
	}
	return normalizeCSV(body)
}

func failed(err *apperrors.StandardError) Table {
	return Table{
		Columns: []string{},
		Records: []models.Record{},
		Message: err.Message,
		Outcome: models.OutcomeFromCode(err.Code),
	}
}

func table(columns []string, records []models.Record) Table {
	if len(records) == 0 {
		t := failed(apperrors.NewNoDataError())
		t.Columns = columns
		return t
	}
	return Table{Columns: columns, Records: records, Outcome: models.OutcomeOK}
}

func normalizeCSV(body []byte) Table {
	body = bytes.TrimPrefix(body, utf8BOM)
	if len(bytes.TrimSpace(body)) == 0 {
		return failed(apperrors.NewPayloadParseError("CSV", errors.New("no columns to parse from file")))
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return failed(apperrors.NewPayloadParseError("CSV", err))
	}
	columns := uniqueColumns(header)

	records := []models.Record{}
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return failed(apperrors.NewPayloadParseError("CSV", err))
		}
		if len(row) > len(columns) {
			return failed(apperrors.NewPayloadParseError("CSV",
				fmt.Errorf("expected %d fields in line %d, saw %d", len(columns), line, len(row))))
		}

		rec := make(models.Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = typedCell(row[i])
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}
	return table(columns, records)
}

// uniqueColumns renames repeated headers to name.1, name.2, ...
func uniqueColumns(header []string) []string {
	used := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		name := h
		for used[name] {
			counts[h]++
			name = fmt.Sprintf("%s.%d", h, counts[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

var nullTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "NaN": true, "nan": true, "null": true, "NULL": true, "None": true,
}

// typedCell converts a CSV cell to int64, float64, bool, nil or string.
func typedCell(raw string) interface{} {
	s := strings.TrimSpace(raw)
	if nullTokens[s] {
		return nil
	}
	switch s {
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	}
	if !strings.ContainsAny(s, "0123456789") {
		return raw
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return raw
}

func normalizeJSON(body []byte) Table {
	if !gjson.ValidBytes(body) {
		return failed(apperrors.NewPayloadParseError("JSON", errors.New("invalid JSON payload")))
	}

	records := gjson.GetBytes(body, "records")
	if !records.IsArray() {
		return table([]string{}, nil)
	}

	var columns []string
	known := make(map[string]bool)
	out := []models.Record{}

	records.ForEach(func(_, item gjson.Result) bool {
		rec := models.Record{}
		if !item.IsObject() {
			rec["value"] = jsonValue(item)
			if !known["value"] {
				known["value"] = true
				columns = append(columns, "value")
			}
			out = append(out, rec)
			return true
		}
		item.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if !known[name] {
				known[name] = true
				columns = append(columns, name)
			}
			rec[name] = jsonValue(value)
			return true
		})
		out = append(out, rec)
		return true
	})

	if columns == nil {
		columns = []string{}
	}
	// records missing a key get an explicit nil
	for _, rec := range out {
		for _, c := range columns {
			if _, ok := rec[c]; !ok {
				rec[c] = nil
			}
		}
	}
	return table(columns, out)
}

func jsonValue(v gjson.Result) interface{} {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		if n, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return n
		}
		return v.Float()
	case gjson.String:
		return v.String()
	default:
		return v.Raw
	}
}
