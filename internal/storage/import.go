package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fnaterm/internal/fna"
)

// ImportResult summarizes a CSV import operation.
type ImportResult struct {
	Created int
	Skipped int
	Errors  []string
}

// importAliases maps accepted CSV headers to client columns.
var importAliases = map[string]string{
	"id":         "id",
	"firstname":  "firstname",
	"first_name": "firstname",
	"first name": "firstname",
	"lastname":   "lastname",
	"last_name":  "lastname",
	"last name":  "lastname",
	"phone":      "phone",
	"email":      "email",
	"createdat":  "createdat",
	"created_at": "createdat",
}

// ImportClientsCSV ingests client registrations from a CSV reader. Rows
// without a name or with an existing id are skipped.
func (s *SQLite) ImportClientsCSV(ctx context.Context, r io.Reader, loc *time.Location) (ImportResult, error) {
	result := ImportResult{}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("read header: %w", err)
	}
	index := map[string]int{}
	for i, h := range header {
		if col, ok := importAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			index[col] = i
		}
	}
	_, hasFirst := index["firstname"]
	_, hasLast := index["lastname"]
	if !hasFirst && !hasLast {
		return result, fmt.Errorf("csv missing 'firstname' or 'lastname' column")
	}
	if loc == nil {
		loc = time.Local
	}
	field := func(record []string, col string) string {
		if idx, ok := index[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			result.Skipped++
			continue
		}
		client := fna.Client{
			ID:        field(record, "id"),
			FirstName: field(record, "firstname"),
			LastName:  field(record, "lastname"),
			Phone:     field(record, "phone"),
			Email:     field(record, "email"),
		}
		if client.FullName() == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: client name required", row))
			result.Skipped++
			continue
		}
		if stamp := field(record, "createdat"); stamp != "" {
			if parsed, ok := parseImportTime(stamp, loc); ok {
				client.CreatedAt = parsed
			}
		}
		if err := s.CreateClient(ctx, &client); err != nil {
			if errors.Is(err, ErrClientExists) {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: duplicate client '%s'", row, client.ID))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			}
			result.Skipped++
			continue
		}
		result.Created++
	}
	return result, nil
}

func parseImportTime(value string, loc *time.Location) (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC1123, value); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}
