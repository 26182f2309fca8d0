package downloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://example.org/mrr/{tld}/{tld}-transactions-{date}-en.csv"

func TestGenerateURLs(t *testing.T) {
	sources := []Source{{
		TLD:       "com",
		StartDate: "2024-01",
		EndDate:   "2024-03",
	}}

	urls, err := GenerateURLs(sources, testBaseURL)
	require.NoError(t, err)

	expected := []string{
		"https://example.org/mrr/com/com-transactions-202401-en.csv",
		"https://example.org/mrr/com/com-transactions-202402-en.csv",
		"https://example.org/mrr/com/com-transactions-202403-en.csv",
	}
	assert.Equal(t, expected, urls)
}

func TestGenerateURLsCrossYearBoundary(t *testing.T) {
	sources := []Source{{
		TLD:       "net",
		StartDate: "2023-11",
		EndDate:   "2024-02",
	}}

	urls, err := GenerateURLs(sources, testBaseURL)
	require.NoError(t, err)
	require.Len(t, urls, 4)
	assert.Contains(t, urls[0], "202311")
	assert.Contains(t, urls[3], "202402")
}

func TestGenerateURLsSingleMonth(t *testing.T) {
	sources := []Source{{TLD: "com", StartDate: "2024-05", EndDate: "2024-05"}}

	urls, err := GenerateURLs(sources, testBaseURL)
	require.NoError(t, err)
	assert.Len(t, urls, 1)
}

func TestGenerateURLsPerSourceBaseURL(t *testing.T) {
	sources := []Source{{
		TLD:       "com",
		BaseURL:   "https://mirror.example.org/{tld}-{date}.csv",
		StartDate: "2024-01",
		EndDate:   "2024-01",
	}}

	urls, err := GenerateURLs(sources, testBaseURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://mirror.example.org/com-202401.csv"}, urls)
}

func TestGenerateURLsInvalidDates(t *testing.T) {
	_, err := GenerateURLs([]Source{{TLD: "com", StartDate: "not-a-date", EndDate: "2024-01"}}, testBaseURL)
	assert.Error(t, err)

	_, err = GenerateURLs([]Source{{TLD: "com", StartDate: "2024-01", EndDate: "nope"}}, testBaseURL)
	assert.Error(t, err)
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - tld: com
    start_date: "2024-01"
    end_date: "2024-03"
  - tld: net
    base_url: "https://mirror.example.org/{tld}-{date}.csv"
    start_date: "2024-02"
    end_date: "2024-02"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "com", sources[0].TLD)
	assert.Equal(t, "2024-03", sources[0].EndDate)
	assert.Equal(t, "https://mirror.example.org/{tld}-{date}.csv", sources[1].BaseURL)
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadSourcesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: []\n"), 0600))

	_, err := LoadSources(path)
	assert.Error(t, err)
}

func TestParseFilenameDate(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected string
	}{
		{"Standard name", "com-transactions-202401-en.csv", "2024-01"},
		{"Short name", "report.csv", ""},
		{"Two tokens", "com-transactions", ""},
		{"Short date token", "com-transactions-2024-en.csv", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseFilenameDate(tc.fileName))
		})
	}
}
