package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rijnhardtkotze/icann-reports/internal/fileutils"

	"github.com/gocarina/gocsv"
)

// RegistrarCSVRow is one flattened (registrar, TLD) line of the registrar
// summary export
type RegistrarCSVRow struct {
	Registrar        string `csv:"registrar"`
	IANAID           string `csv:"iana_id"`
	TLD              string `csv:"tld"`
	TotalDomains     int    `csv:"total_domains"`
	TotalNameservers int    `csv:"total_nameservers"`
	NewAdditions     int    `csv:"new_additions"`
	Renewals         int    `csv:"renewals"`
	TransfersIn      int    `csv:"transfers_in"`
	TransfersOut     int    `csv:"transfers_out"`
	Deletions        int    `csv:"deletions"`
}

// TLDMonthlyCSVRow is one (TLD, month) line of the TLD summary export
type TLDMonthlyCSVRow struct {
	TLD          string `csv:"tld"`
	Month        string `csv:"month"`
	TotalDomains int    `csv:"total_domains"`
	NewAdditions int    `csv:"new_additions"`
	Renewals     int    `csv:"renewals"`
	Transfers    int    `csv:"transfers"`
	Deletions    int    `csv:"deletions"`
}

// SaveRegistrarCSV writes the registrar summary as a flat CSV file and
// returns the written path, or "" on failure
func (g *Generator) SaveRegistrarCSV(summary map[string]*RegistrarSummary, reportName string) string {
	var rows []RegistrarCSVRow

	keys := make([]string, 0, len(summary))
	for key := range summary {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := summary[key]
		tlds := make([]string, 0, len(entry.TLDs))
		for tld := range entry.TLDs {
			tlds = append(tlds, tld)
		}
		sort.Strings(tlds)

		for _, tld := range tlds {
			stats := entry.TLDs[tld]
			rows = append(rows, RegistrarCSVRow{
				Registrar:        entry.Name,
				IANAID:           entry.IANAID,
				TLD:              tld,
				TotalDomains:     stats.TotalDomains,
				TotalNameservers: stats.TotalNameservers,
				NewAdditions:     stats.NewAdditions,
				Renewals:         stats.Renewals,
				TransfersIn:      stats.TransfersIn,
				TransfersOut:     stats.TransfersOut,
				Deletions:        stats.Deletions,
			})
		}
	}

	return g.writeCSV(rows, reportName)
}

// SaveTLDMonthlyCSV writes the TLD summary's monthly series as a flat CSV
// file and returns the written path, or "" on failure
func (g *Generator) SaveTLDMonthlyCSV(summary map[string]*TLDSummary, reportName string) string {
	var rows []TLDMonthlyCSVRow

	tlds := make([]string, 0, len(summary))
	for tld := range summary {
		tlds = append(tlds, tld)
	}
	sort.Strings(tlds)

	for _, tld := range tlds {
		entry := summary[tld]
		months := make([]string, 0, len(entry.Monthly))
		for month := range entry.Monthly {
			months = append(months, month)
		}
		sort.Strings(months)

		for _, month := range months {
			stats := entry.Monthly[month]
			rows = append(rows, TLDMonthlyCSVRow{
				TLD:          tld,
				Month:        month,
				TotalDomains: stats.TotalDomains,
				NewAdditions: stats.NewAdditions,
				Renewals:     stats.Renewals,
				Transfers:    stats.Transfers,
				Deletions:    stats.Deletions,
			})
		}
	}

	return g.writeCSV(rows, reportName)
}

func (g *Generator) writeCSV(rows interface{}, reportName string) string {
	reportPath := filepath.Join(g.reportsDir, fmt.Sprintf("%s.csv", reportName))

	if err := fileutils.EnsureDirectoryExists(g.reportsDir); err != nil {
		log.WithError(err).Error("Failed to create reports directory")
		return ""
	}

	file, err := os.Create(reportPath)
	if err != nil {
		log.WithError(err).WithField("path", reportPath).Error("Error creating CSV report")
		return ""
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(file))
	if err := gocsv.MarshalCSV(rows, writer); err != nil {
		log.WithError(err).WithField("path", reportPath).Error("Error writing CSV report")
		return ""
	}

	log.WithField("path", reportPath).Info("CSV report saved")
	return reportPath
}
