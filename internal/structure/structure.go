// Package structure detects the layout of registrar transaction report
// files: how many leading lines are titles or report metadata rather than
// the column header line.
package structure

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// HeaderType classifies the leading lines of a report file
type HeaderType string

const (
	// HeaderStandard means the file starts directly with the column header
	HeaderStandard HeaderType = "standard"
	// HeaderICANNReport means the file carries an ICANN title block before
	// the column header
	HeaderICANNReport HeaderType = "icann_report"
)

// maxScanLines bounds how far into a file detection looks. HeaderRows can
// never exceed the number of lines inspected.
const maxScanLines = 10

// titlePatterns are substrings that identify ICANN title blocks
var titlePatterns = []string{
	"ICANN Monthly Consolidated Data Report",
	"<TLD>,<registrar-name>,<iana-id>",
}

// markerColumns are the identity columns whose presence marks the real
// column header line
var markerColumns = []string{"tld", "registrar-name", "iana-id"}

// Record describes the detected layout of a report file
type Record struct {
	TLD          string     `json:"tld,omitempty"`
	HeaderRows   int        `json:"header_rows"`
	HeaderType   HeaderType `json:"header_type"`
	DetectedFrom string     `json:"detected_from"`
}

// Analyzer detects file structure and memoizes the result per TLD. It is
// shared across concurrent ingestion workers.
type Analyzer struct {
	mu         sync.Mutex
	structures map[string][]Record
}

// NewAnalyzer creates an analyzer with an empty structure cache
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		structures: make(map[string][]Record),
	}
}

// Detect inspects the first lines of a report file and returns its layout.
//
// Results are cached per TLD: once a structure is known for a TLD, later
// files for the same TLD reuse the most recent record without re-reading
// their content. A mid-history format change for a TLD would therefore be
// misparsed; re-validating a header fingerprint per file would close that
// gap at the cost of reading every file twice.
//
// Read errors never propagate; a default zero-header record is returned so
// ingestion can still attempt a best-effort parse.
func (a *Analyzer) Detect(filePath string) Record {
	fileName := filepath.Base(filePath)

	var tld string
	if strings.Contains(fileName, "-") {
		tld = strings.SplitN(fileName, "-", 2)[0]
	}

	if tld != "" {
		a.mu.Lock()
		if known := a.structures[tld]; len(known) > 0 {
			record := known[len(known)-1]
			a.mu.Unlock()
			log.WithFields(logrus.Fields{
				"tld":  tld,
				"file": fileName,
			}).Info("Using known structure for file")
			return record
		}
		a.mu.Unlock()
	}

	log.WithField("file", fileName).Info("Detecting file structure")

	lines, err := readLeadingLines(filePath, maxScanLines)
	if err != nil {
		log.WithError(err).Error("Error detecting file structure")
		return Record{
			TLD:          tld,
			HeaderRows:   0,
			HeaderType:   HeaderStandard,
			DetectedFrom: fileName,
		}
	}

	headerRows := 0
	headerType := HeaderStandard

	for i, line := range lines {
		for _, pattern := range titlePatterns {
			if strings.Contains(line, pattern) {
				headerType = HeaderICANNReport
				headerRows = i + 1
				break
			}
		}

		// The first line may be a title, so only later lines are candidates
		// for the column header
		if i > 0 && containsMarkerColumn(line) {
			headerRows = i
			break
		}
	}

	record := Record{
		TLD:          tld,
		HeaderRows:   headerRows,
		HeaderType:   headerType,
		DetectedFrom: fileName,
	}

	if tld != "" {
		a.mu.Lock()
		a.structures[tld] = append(a.structures[tld], record)
		a.mu.Unlock()
	}

	return record
}

// Report returns a formatted summary of the structures detected so far,
// grouped by TLD
func (a *Analyzer) Report() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.structures) == 0 {
		return "No file structures detected yet."
	}

	tlds := make([]string, 0, len(a.structures))
	for tld := range a.structures {
		tlds = append(tlds, tld)
	}
	sort.Strings(tlds)

	report := []string{"File Structure Report by TLD:"}
	for _, tld := range tlds {
		report = append(report, fmt.Sprintf("\n%s:", strings.ToUpper(tld)))
		for _, record := range a.structures[tld] {
			report = append(report, fmt.Sprintf("  - From file: %s", record.DetectedFrom))
			report = append(report, fmt.Sprintf("    Header rows: %d", record.HeaderRows))
			report = append(report, fmt.Sprintf("    Header type: %s", record.HeaderType))
		}
	}
	return strings.Join(report, "\n")
}

// readLeadingLines reads up to limit lines from the start of a file
func readLeadingLines(filePath string, limit int) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	var lines []string
	scanner := bufio.NewScanner(file)
	for len(lines) < limit && scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return lines, nil
}

// containsMarkerColumn parses a line as a CSV row and reports whether any of
// the identity columns appears among its cells
func containsMarkerColumn(line string) bool {
	cells, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return false
	}
	for _, cell := range cells {
		lowered := strings.ToLower(strings.TrimSpace(cell))
		for _, marker := range markerColumns {
			if lowered == marker {
				return true
			}
		}
	}
	return false
}
