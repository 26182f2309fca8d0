// Package reports aggregates normalized report rows into summaries by
// registrar and by TLD and persists them as report artifacts.
package reports

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rijnhardtkotze/icann-reports/internal/fileutils"
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

// TLDStats holds one registrar's metrics for a single TLD. Each row seen for
// the same (registrar, TLD) pair overwrites these values: latest wins.
type TLDStats struct {
	TotalDomains     int `json:"total_domains"`
	TotalNameservers int `json:"total_nameservers"`
	NewAdditions     int `json:"new_additions"`
	Renewals         int `json:"renewals"`
	TransfersIn      int `json:"transfers_in"`
	TransfersOut     int `json:"transfers_out"`
	Deletions        int `json:"deletions"`
}

// RegistrarSummary aggregates a registrar's activity across TLDs
type RegistrarSummary struct {
	Name   string               `json:"name"`
	IANAID string               `json:"iana_id"`
	TLDs   map[string]*TLDStats `json:"tlds"`
}

// MonthlyStats accumulates a TLD's metrics for one report month. Unlike the
// registrar path these are additive across rows.
type MonthlyStats struct {
	TotalDomains int `json:"total_domains"`
	NewAdditions int `json:"new_additions"`
	Renewals     int `json:"renewals"`
	Transfers    int `json:"transfers"`
	Deletions    int `json:"deletions"`
}

// TLDSummary aggregates all registrars' activity for one TLD. The top-level
// totals mirror the latest month present in Monthly, not a lifetime sum.
type TLDSummary struct {
	TotalDomains     int                      `json:"total_domains"`
	TotalNameservers int                      `json:"total_nameservers"`
	Registrars       int                      `json:"registrars"`
	NewAdditions     int                      `json:"new_additions"`
	Renewals         int                      `json:"renewals"`
	Transfers        int                      `json:"transfers"`
	Deletions        int                      `json:"deletions"`
	Monthly          map[string]*MonthlyStats `json:"monthly_data,omitempty"`

	registrarIDs map[string]bool
}

// Generator builds summaries from processed data and saves them under the
// reports directory
type Generator struct {
	reportsDir string
}

// NewGenerator creates a report generator writing into reportsDir
func NewGenerator(reportsDir string) *Generator {
	return &Generator{reportsDir: reportsDir}
}

// sortedFileNames returns the data set's file names in lexicographic order.
// Files are collected from the worker pool in completion order, which is
// nondeterministic; sorting makes aggregation output identical across runs
// over the same data. For these file names lexicographic order is also
// chronological.
func sortedFileNames(data map[string][]processor.Row) []string {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rowValue looks a field up in a row, substituting fallback when absent
func rowValue(row processor.Row, field, fallback string) string {
	if v, ok := row[field]; ok {
		return v
	}
	return fallback
}

// SummarizeByRegistrar groups domain metrics by registrar and TLD. Stats
// for a (registrar, TLD) pair are overwritten by each matching row, so only
// the last row in iteration order survives.
func (g *Generator) SummarizeByRegistrar(data map[string][]processor.Row) map[string]*RegistrarSummary {
	summary := make(map[string]*RegistrarSummary)

	for _, fileName := range sortedFileNames(data) {
		for _, row := range data[fileName] {
			name := rowValue(row, "Registrar-name", "Unknown")
			ianaID := rowValue(row, "IANA-ID", "Unknown")
			tld := strings.ToUpper(rowValue(row, "TLD", "Unknown"))

			key := fmt.Sprintf("%s (IANA ID: %s)", name, ianaID)
			entry, ok := summary[key]
			if !ok {
				entry = &RegistrarSummary{
					Name:   name,
					IANAID: ianaID,
					TLDs:   make(map[string]*TLDStats),
				}
				summary[key] = entry
			}

			stats, ok := entry.TLDs[tld]
			if !ok {
				stats = &TLDStats{}
				entry.TLDs[tld] = stats
			}

			stats.TotalDomains = ParseLenientInt(row["Total-domains"])
			stats.TotalNameservers = ParseLenientInt(row["Total-Nameservers"])
			stats.NewAdditions = sumTermMetrics(row, "Net-adds")
			stats.Renewals = sumTermMetrics(row, "Net-renews")
			stats.TransfersIn = ParseLenientInt(row["Transfer-gaining-successful"])
			stats.TransfersOut = ParseLenientInt(row["Transfer-losing-successful"])
			stats.Deletions = ParseLenientInt(row["Deleted-domains-grace"]) +
				ParseLenientInt(row["Deleted-domains-nograce"])
		}
	}

	return summary
}

// SummarizeByTLD groups domain metrics by TLD with a monthly breakdown.
// Monthly stats accumulate additively across rows; after every row the
// top-level totals are recopied from the latest month present, so the final
// totals always reflect the most recent report month regardless of row
// arrival order.
func (g *Generator) SummarizeByTLD(data map[string][]processor.Row) map[string]*TLDSummary {
	summary := make(map[string]*TLDSummary)

	for _, fileName := range sortedFileNames(data) {
		month := monthKey(fileName)

		for _, row := range data[fileName] {
			tld := strings.ToUpper(rowValue(row, "TLD", "Unknown"))

			entry, ok := summary[tld]
			if !ok {
				entry = &TLDSummary{registrarIDs: make(map[string]bool)}
				summary[tld] = entry
			}

			// Rows without a parseable month still count toward the
			// distinct registrar tally
			if ianaID := row["IANA-ID"]; ianaID != "" {
				entry.registrarIDs[ianaID] = true
				entry.Registrars = len(entry.registrarIDs)
			}

			if month != "" {
				if entry.Monthly == nil {
					entry.Monthly = make(map[string]*MonthlyStats)
				}
				stats, ok := entry.Monthly[month]
				if !ok {
					stats = &MonthlyStats{}
					entry.Monthly[month] = stats
				}

				stats.TotalDomains += ParseLenientInt(row["Total-domains"])
				stats.NewAdditions += sumTermMetrics(row, "Net-adds")
				stats.Renewals += sumTermMetrics(row, "Net-renews")
				stats.Transfers += ParseLenientInt(row["Transfer-gaining-successful"])
				stats.Deletions += ParseLenientInt(row["Deleted-domains-grace"]) +
					ParseLenientInt(row["Deleted-domains-nograce"])
			}

			entry.refreshTotals()
		}
	}

	return summary
}

// refreshTotals copies the stats of the lexicographically greatest month key
// into the summary's top-level fields
func (s *TLDSummary) refreshTotals() {
	if len(s.Monthly) == 0 {
		return
	}
	latest := ""
	for month := range s.Monthly {
		if month > latest {
			latest = month
		}
	}
	stats := s.Monthly[latest]
	s.TotalDomains = stats.TotalDomains
	s.NewAdditions = stats.NewAdditions
	s.Renewals = stats.Renewals
	s.Transfers = stats.Transfers
	s.Deletions = stats.Deletions
}

// monthKey extracts the YYYYMM report month from a file name following the
// {tld}-transactions-{YYYYMM}-en.csv convention, or "" when the name does
// not carry one
func monthKey(fileName string) string {
	parts := strings.Split(fileName, "-")
	if len(parts) > 2 && len(parts[2]) >= 6 {
		key := parts[2][:6]
		if isDigits(key) {
			return key
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// SaveReport serializes a summary to pretty-printed JSON under the reports
// directory and returns the written path. Write failures are logged and
// reported as an empty path so a batch can finish with partial results.
func (g *Generator) SaveReport(data interface{}, reportName string) string {
	reportPath := filepath.Join(g.reportsDir, fmt.Sprintf("%s.json", reportName))

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.WithError(err).WithField("report", reportName).Error("Error serializing report")
		return ""
	}
	if err := fileutils.WriteFile(reportPath, raw, 0644); err != nil {
		log.WithError(err).WithField("path", reportPath).Error("Error saving report")
		return ""
	}

	log.WithField("path", reportPath).Info("Report saved")
	return reportPath
}

// GenerateAll builds both summaries, saves the JSON artifacts plus the
// flattened CSV exports, and returns report names mapped to written paths
func (g *Generator) GenerateAll(data map[string][]processor.Row) map[string]string {
	generated := make(map[string]string)

	registrarSummary := g.SummarizeByRegistrar(data)
	generated["registrar_summary"] = g.SaveReport(registrarSummary, "registrar_summary")
	generated["registrar_summary_csv"] = g.SaveRegistrarCSV(registrarSummary, "registrar_summary")

	tldSummary := g.SummarizeByTLD(data)
	generated["tld_summary"] = g.SaveReport(tldSummary, "tld_summary")
	generated["tld_summary_csv"] = g.SaveTLDMonthlyCSV(tldSummary, "tld_summary")

	return generated
}
