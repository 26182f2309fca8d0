package validation

import (
	"strings"
	"testing"

	"github.com/rijnhardtkotze/icann-reports/internal/fields"
	"github.com/rijnhardtkotze/icann-reports/internal/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullRow builds a row carrying every catalog field so missing-field checks
// stay quiet
func fullRow(catalog *fields.Catalog, overrides map[string]string) processor.Row {
	row := make(processor.Row)
	for _, name := range catalog.KnownFields() {
		row[name] = "0"
	}
	row["TLD"] = "COM"
	row["Registrar-name"] = "Example"
	row["IANA-ID"] = "123"
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestValidateRowValid(t *testing.T) {
	catalog := fields.NewCatalog()
	validator := NewValidator(catalog)

	ok, errs := validator.ValidateRow(fullRow(catalog, nil))
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateRowBlankNumericsTolerated(t *testing.T) {
	catalog := fields.NewCatalog()
	validator := NewValidator(catalog)

	ok, errs := validator.ValidateRow(fullRow(catalog, map[string]string{
		"Total-domains": "",
		"Net-adds-1-yr": "   ",
	}))
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateRowNonNumericValue(t *testing.T) {
	catalog := fields.NewCatalog()
	validator := NewValidator(catalog)

	ok, errs := validator.ValidateRow(fullRow(catalog, map[string]string{
		"Total-domains": "lots",
	}))
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "'Total-domains' should be a number, got 'lots'")
}

func TestValidateRowMissingFields(t *testing.T) {
	catalog := fields.NewCatalog()
	validator := NewValidator(catalog)

	ok, errs := validator.ValidateRow(processor.Row{"TLD": "COM"})
	assert.False(t, ok)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "Missing required fields")
}

func TestValidateData(t *testing.T) {
	catalog := fields.NewCatalog()
	validator := NewValidator(catalog)

	data := map[string][]processor.Row{
		"com-transactions-202401-en.csv": {
			fullRow(catalog, nil),
			fullRow(catalog, map[string]string{"Net-adds-1-yr": "oops"}),
		},
	}

	results := validator.ValidateData(data)
	require.Contains(t, results, "com-transactions-202401-en.csv")

	result := results["com-transactions-202401-en.csv"]
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	assert.Equal(t, 1, result.InvalidRows)
	require.Len(t, result.Errors, 1)
	// Error indexes are 1-based row positions
	assert.True(t, strings.HasPrefix(result.Errors[0], "Row 2:"))
}

func TestReport(t *testing.T) {
	catalog := fields.NewCatalog()
	validator := NewValidator(catalog)

	rows := []processor.Row{fullRow(catalog, nil)}
	for i := 0; i < 15; i++ {
		rows = append(rows, fullRow(catalog, map[string]string{"Total-domains": "bad"}))
	}
	results := validator.ValidateData(map[string][]processor.Row{
		"com-transactions-202401-en.csv": rows,
	})

	report := Report(results)
	assert.Contains(t, report, "Validation Report:")
	assert.Contains(t, report, "Total rows: 16")
	assert.Contains(t, report, "Invalid rows: 15")
	// Only the first 10 errors are listed
	assert.Contains(t, report, "... and 5 more errors")
}

func TestReportAllValid(t *testing.T) {
	catalog := fields.NewCatalog()
	validator := NewValidator(catalog)

	results := validator.ValidateData(map[string][]processor.Row{
		"com-transactions-202401-en.csv": {fullRow(catalog, nil)},
	})

	report := Report(results)
	assert.Contains(t, report, "Invalid rows: 0")
	assert.NotContains(t, report, "Errors:")
}
