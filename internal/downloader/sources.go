// Package downloader generates report URLs from configured TLD sources and
// fetches them over HTTP with retry and timeout handling.
package downloader

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source describes one TLD's report series: which URL template to use and
// the inclusive month range to cover
type Source struct {
	TLD       string `yaml:"tld"`
	BaseURL   string `yaml:"base_url,omitempty"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

// LoadSources reads TLD source definitions from a YAML file
func LoadSources(path string) ([]Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading sources file: %w", err)
	}

	var doc struct {
		Sources []Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("error parsing sources file: %w", err)
	}
	if len(doc.Sources) == 0 {
		return nil, fmt.Errorf("no sources defined in %s", path)
	}
	return doc.Sources, nil
}

// GenerateURLs expands each source's month range into concrete report URLs.
// Dates are YYYY-MM; the template placeholders {tld} and {date} are
// substituted per month. An unparseable date fails the whole expansion.
func GenerateURLs(sources []Source, defaultBaseURL string) ([]string, error) {
	var urls []string

	for _, source := range sources {
		start, err := time.Parse("2006-01", source.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q for tld %s: %w", source.StartDate, source.TLD, err)
		}
		end, err := time.Parse("2006-01", source.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q for tld %s: %w", source.EndDate, source.TLD, err)
		}

		baseURL := source.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		baseURL = strings.ReplaceAll(baseURL, "{tld}", source.TLD)

		for current := start; !current.After(end); current = current.AddDate(0, 1, 0) {
			urls = append(urls, strings.ReplaceAll(baseURL, "{date}", current.Format("200601")))
		}
	}

	return urls, nil
}

// ParseFilenameDate extracts the report month from a file name following
// the {tld}-transactions-{YYYYMM}-en.csv convention, returned as YYYY-MM,
// or "" when the name carries no date
func ParseFilenameDate(fileName string) string {
	parts := strings.Split(fileName, "-")
	if len(parts) >= 3 && len(parts[2]) >= 6 {
		datePart := parts[2]
		return fmt.Sprintf("%s-%s", datePart[:4], datePart[4:6])
	}
	return ""
}
