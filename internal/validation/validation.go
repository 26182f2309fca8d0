// Package validation checks normalized report rows against the expected
// field types. Validation failures are diagnostics, never ingestion or
// aggregation blockers.
package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rijnhardtkotze/icann-reports/internal/fields"
	"github.com/rijnhardtkotze/icann-reports/internal/processor"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// numericPrefixes identify the metric field families whose values must be
// integers when present
var numericPrefixes = []string{"Net-adds-", "Net-renews-", "Transfer-", "Deleted-", "Restored-"}

// FileResult summarizes validation of one file's rows
type FileResult struct {
	TotalRows   int      `json:"total_rows"`
	ValidRows   int      `json:"valid_rows"`
	InvalidRows int      `json:"invalid_rows"`
	Errors      []string `json:"errors"`
}

// Validator validates rows against the field catalog
type Validator struct {
	catalog *fields.Catalog
}

// NewValidator creates a validator backed by the given catalog
func NewValidator(catalog *fields.Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// isNumericField reports whether a field is expected to carry an integer
func isNumericField(name string) bool {
	if name == "Total-domains" || name == "Total-Nameservers" {
		return true
	}
	for _, prefix := range numericPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// ValidateRow checks a single row for missing catalog fields and
// non-numeric values in numeric fields
func (v *Validator) ValidateRow(row processor.Row) (bool, []string) {
	var errs []string

	var missing []string
	for _, name := range v.catalog.KnownFields() {
		if _, ok := row[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")))
	}

	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !isNumericField(name) {
			continue
		}
		value := row[name]
		if value == "" || strings.TrimSpace(value) == "" {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(value)); err != nil {
			errs = append(errs, fmt.Sprintf("Field '%s' should be a number, got '%s'", name, value))
		}
	}

	return len(errs) == 0, errs
}

// ValidateData validates every row of every file and returns per-file
// results keyed by file name. Errors carry the 1-based row index they were
// found at.
func (v *Validator) ValidateData(data map[string][]processor.Row) map[string]*FileResult {
	results := make(map[string]*FileResult, len(data))

	for fileName, rows := range data {
		result := &FileResult{TotalRows: len(rows)}

		for i, row := range rows {
			ok, errs := v.ValidateRow(row)
			if ok {
				result.ValidRows++
				continue
			}
			result.InvalidRows++
			for _, e := range errs {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, e))
			}
		}

		if result.InvalidRows > 0 {
			log.WithFields(logrus.Fields{
				"file":    fileName,
				"invalid": result.InvalidRows,
				"total":   result.TotalRows,
			}).Warn("Rows with validation errors")
		} else {
			log.WithFields(logrus.Fields{
				"file":  fileName,
				"total": result.TotalRows,
			}).Info("All rows valid")
		}

		results[fileName] = result
	}

	return results
}

// Report formats validation results into a human-readable report, limiting
// output to the first 10 errors per file
func Report(results map[string]*FileResult) string {
	report := []string{"Validation Report:"}

	fileNames := make([]string, 0, len(results))
	for name := range results {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	for _, fileName := range fileNames {
		result := results[fileName]
		report = append(report, fmt.Sprintf("\n%s:", fileName))
		report = append(report, fmt.Sprintf("  Total rows: %d", result.TotalRows))
		report = append(report, fmt.Sprintf("  Valid rows: %d", result.ValidRows))
		report = append(report, fmt.Sprintf("  Invalid rows: %d", result.InvalidRows))

		if result.InvalidRows > 0 {
			report = append(report, "\n  Errors:")
			limit := len(result.Errors)
			if limit > 10 {
				limit = 10
			}
			for _, e := range result.Errors[:limit] {
				report = append(report, fmt.Sprintf("    - %s", e))
			}
			if len(result.Errors) > 10 {
				report = append(report, fmt.Sprintf("    ... and %d more errors", len(result.Errors)-10))
			}
		}
	}

	return strings.Join(report, "\n")
}
