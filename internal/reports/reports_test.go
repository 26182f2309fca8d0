package reports

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rijnhardtkotze/icann-reports/internal/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRow(overrides map[string]string) processor.Row {
	row := processor.Row{
		"TLD":               "COM",
		"Registrar-name":    "Example",
		"IANA-ID":           "123",
		"Total-domains":     "100000",
		"Total-Nameservers": "500",
		"Net-adds-1-yr":     "1000",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestSummarizeByRegistrarBasic(t *testing.T) {
	g := NewGenerator(t.TempDir())

	data := map[string][]processor.Row{
		"com-transactions-202401-en.csv": {testRow(nil)},
	}

	summary := g.SummarizeByRegistrar(data)
	require.Contains(t, summary, "Example (IANA ID: 123)")

	entry := summary["Example (IANA ID: 123)"]
	assert.Equal(t, "Example", entry.Name)
	assert.Equal(t, "123", entry.IANAID)

	require.Contains(t, entry.TLDs, "COM")
	stats := entry.TLDs["COM"]
	assert.Equal(t, 100000, stats.TotalDomains)
	assert.Equal(t, 500, stats.TotalNameservers)
	assert.Equal(t, 1000, stats.NewAdditions)
}

func TestSummarizeByRegistrarLatestWins(t *testing.T) {
	g := NewGenerator(t.TempDir())

	// Two rows for the same registrar and TLD: the second row's values
	// survive, they are not summed
	data := map[string][]processor.Row{
		"com-transactions-202401-en.csv": {
			testRow(map[string]string{"Total-domains": "100"}),
			testRow(map[string]string{"Total-domains": "250"}),
		},
	}

	summary := g.SummarizeByRegistrar(data)
	stats := summary["Example (IANA ID: 123)"].TLDs["COM"]
	assert.Equal(t, 250, stats.TotalDomains)
}

func TestSummarizeByRegistrarSumsTermMetrics(t *testing.T) {
	g := NewGenerator(t.TempDir())

	row := testRow(map[string]string{
		"Net-adds-1-yr":   "10",
		"Net-adds-2-yr":   "20",
		"Net-adds-10-yr":  "5",
		"Net-renews-1-yr": "7",
		"Net-renews-5-yr": "3",
	})
	data := map[string][]processor.Row{"com-transactions-202401-en.csv": {row}}

	stats := g.SummarizeByRegistrar(data)["Example (IANA ID: 123)"].TLDs["COM"]
	assert.Equal(t, 35, stats.NewAdditions)
	assert.Equal(t, 10, stats.Renewals)
}

func TestSummarizeByRegistrarTransfersAndDeletions(t *testing.T) {
	g := NewGenerator(t.TempDir())

	row := testRow(map[string]string{
		"Transfer-gaining-successful": "12",
		"Transfer-losing-successful":  "8",
		"Deleted-domains-grace":       "3",
		"Deleted-domains-nograce":     "4",
	})
	data := map[string][]processor.Row{"com-transactions-202401-en.csv": {row}}

	stats := g.SummarizeByRegistrar(data)["Example (IANA ID: 123)"].TLDs["COM"]
	assert.Equal(t, 12, stats.TransfersIn)
	assert.Equal(t, 8, stats.TransfersOut)
	assert.Equal(t, 7, stats.Deletions)
}

func TestSummarizeByRegistrarUnknownFallbacks(t *testing.T) {
	g := NewGenerator(t.TempDir())

	data := map[string][]processor.Row{
		"com-transactions-202401-en.csv": {{"Total-domains": "10"}},
	}

	summary := g.SummarizeByRegistrar(data)
	require.Contains(t, summary, "Unknown (IANA ID: Unknown)")
	assert.Contains(t, summary["Unknown (IANA ID: Unknown)"].TLDs, "UNKNOWN")
}

func TestSummarizeByTLDMonthlyAdditive(t *testing.T) {
	g := NewGenerator(t.TempDir())

	// Two registrars in the same month: monthly stats accumulate and the
	// registrar tally counts distinct IANA IDs
	data := map[string][]processor.Row{
		"com-transactions-202401-en.csv": {
			testRow(map[string]string{"Net-adds-1-yr": "1000", "IANA-ID": "123"}),
			testRow(map[string]string{"Net-adds-1-yr": "500", "IANA-ID": "456"}),
		},
	}

	summary := g.SummarizeByTLD(data)
	require.Contains(t, summary, "COM")

	entry := summary["COM"]
	require.Contains(t, entry.Monthly, "202401")
	assert.Equal(t, 1500, entry.Monthly["202401"].NewAdditions)
	assert.Equal(t, 2, entry.Registrars)
}

func TestSummarizeByTLDLatestMonthTotals(t *testing.T) {
	g := NewGenerator(t.TempDir())

	makeData := func() map[string][]processor.Row {
		return map[string][]processor.Row{
			"com-transactions-202401-en.csv": {
				testRow(map[string]string{"Total-domains": "100"}),
			},
			"com-transactions-202402-en.csv": {
				testRow(map[string]string{"Total-domains": "300"}),
			},
		}
	}

	summary := g.SummarizeByTLD(makeData())
	entry := summary["COM"]

	// Top-level totals mirror the latest month, regardless of arrival order
	assert.Equal(t, 300, entry.TotalDomains)
	assert.Equal(t, 100, entry.Monthly["202401"].TotalDomains)
	assert.Equal(t, 300, entry.Monthly["202402"].TotalDomains)
}

func TestSummarizeByTLDUnparseableMonth(t *testing.T) {
	g := NewGenerator(t.TempDir())

	// No month token: the row counts registrars but produces no monthly
	// series
	data := map[string][]processor.Row{
		"oddly_named.csv": {testRow(nil)},
	}

	summary := g.SummarizeByTLD(data)
	entry := summary["COM"]
	assert.Equal(t, 1, entry.Registrars)
	assert.Empty(t, entry.Monthly)
	assert.Equal(t, 0, entry.TotalDomains)
}

func TestAggregationIdempotent(t *testing.T) {
	g := NewGenerator(t.TempDir())

	data := map[string][]processor.Row{
		"com-transactions-202401-en.csv": {
			testRow(map[string]string{"IANA-ID": "123"}),
			testRow(map[string]string{"IANA-ID": "456", "Registrar-name": "Other"}),
		},
		"com-transactions-202402-en.csv": {
			testRow(map[string]string{"Total-domains": "120000"}),
		},
	}

	first, err := json.Marshal(g.SummarizeByTLD(data))
	require.NoError(t, err)
	second, err := json.Marshal(g.SummarizeByTLD(data))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	firstReg, err := json.Marshal(g.SummarizeByRegistrar(data))
	require.NoError(t, err)
	secondReg, err := json.Marshal(g.SummarizeByRegistrar(data))
	require.NoError(t, err)
	assert.Equal(t, firstReg, secondReg)
}

func TestParseLenientInt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"Plain number", "42", 42},
		{"Negative", "-7", -7},
		{"Whitespace padded", "  13 ", 13},
		{"Empty", "", 0},
		{"Whitespace only", "   ", 0},
		{"Non-numeric", "abc", 0},
		{"Float rejected", "1.5", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLenientInt(tc.input))
		})
	}
}

func TestMonthKey(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected string
	}{
		{"Standard name", "com-transactions-202401-en.csv", "202401"},
		{"Longer date token", "com-transactions-20240115-en.csv", "202401"},
		{"No date", "report.csv", ""},
		{"Non-numeric token", "com-transactions-january-en.csv", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, monthKey(tc.fileName))
		})
	}
}

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir)

	path := g.SaveReport(map[string]int{"a": 1}, "test_report")
	require.Equal(t, filepath.Join(dir, "test_report.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 1, decoded["a"])
}

func TestSaveReportFailureReturnsEmptyPath(t *testing.T) {
	// A reports directory that is actually a file makes the write fail
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0600))

	g := NewGenerator(filepath.Join(blocked, "nested"))
	assert.Empty(t, g.SaveReport(map[string]int{"a": 1}, "test_report"))
}

func TestGenerateAll(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir)

	data := map[string][]processor.Row{
		"com-transactions-202401-en.csv": {testRow(nil)},
	}

	generated := g.GenerateAll(data)

	for _, name := range []string{"registrar_summary", "tld_summary"} {
		require.Contains(t, generated, name)
		assert.FileExists(t, generated[name])
	}
	assert.FileExists(t, filepath.Join(dir, "registrar_summary.csv"))
	assert.FileExists(t, filepath.Join(dir, "tld_summary.csv"))
}
