// Package processor ingests registrar transaction report files: it skips
// detected header noise, normalizes drifting column names through the field
// catalog, and emits rows keyed by canonical field names.
package processor

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rijnhardtkotze/icann-reports/internal/fields"
	"github.com/rijnhardtkotze/icann-reports/internal/structure"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Row is a normalized report row: canonical field name to raw string value.
// Values are not type-coerced here; numeric parsing happens in aggregation
// and tolerates blanks.
type Row map[string]string

// FileInfo describes a fetched file handed to the processor
type FileInfo struct {
	Path             string
	AlreadyProcessed bool
}

// CompletionStore receives per-file completion records once ingestion
// succeeds
type CompletionStore interface {
	MarkProcessed(fileName string, metadata map[string]interface{})
}

// Processor parses report files into normalized rows. The catalog and
// analyzer are shared with other workers; the processor itself holds no
// per-file state.
type Processor struct {
	catalog  *fields.Catalog
	analyzer *structure.Analyzer
	store    CompletionStore
}

// NewProcessor creates a processor wired to a shared catalog, structure
// analyzer and completion store
func NewProcessor(catalog *fields.Catalog, analyzer *structure.Analyzer, store CompletionStore) *Processor {
	return &Processor{
		catalog:  catalog,
		analyzer: analyzer,
		store:    store,
	}
}

// Process parses one report file and returns its rows keyed by file name.
// It returns nil, without an error, when the file was already processed or
// cannot be read: a batch of N files degrades gracefully to fewer
// successes, and every skip is logged.
func (p *Processor) Process(info FileInfo) map[string][]Row {
	if info.Path == "" {
		return nil
	}
	if info.AlreadyProcessed {
		return nil
	}

	fileName := filepath.Base(info.Path)

	record := p.analyzer.Detect(info.Path)

	rows, err := p.parseFile(info.Path, fileName, record)
	if err != nil {
		log.WithError(err).WithField("file", info.Path).Error("Error processing file")
		return nil
	}

	p.store.MarkProcessed(fileName, map[string]interface{}{
		"row_count": len(rows),
		"structure": record,
	})

	log.WithFields(logrus.Fields{
		"file":        fileName,
		"rows":        len(rows),
		"header_rows": record.HeaderRows,
	}).Info("Processed file")

	return map[string][]Row{fileName: rows}
}

func (p *Processor) parseFile(filePath, fileName string, record structure.Record) ([]Row, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing CSV: %w", err)
	}

	if len(records) <= record.HeaderRows {
		return nil, nil
	}

	rawHeader := records[record.HeaderRows]
	body := records[record.HeaderRows+1:]

	normalized, warnings := p.catalog.ValidateHeaders(rawHeader, fileName)
	for _, warning := range warnings {
		log.WithField("file", fileName).Warn(warning)
	}

	// TLD synthesis applies when the column was absent from the raw header
	// but validation added it back after inferring the value from the file
	// name. The inferred value is stamped on every row unconditionally.
	inferredTLD := ""
	if !containsField(rawHeader, fields.FieldTLD) &&
		containsField(normalized, fields.FieldTLD) &&
		strings.Contains(fileName, "-") {
		inferredTLD = strings.ToUpper(strings.SplitN(fileName, "-", 2)[0])
	}

	if headersChanged(rawHeader, normalized) {
		log.WithField("file", fileName).Info("Normalizing field names")
		return buildRowsPositional(body, normalized, inferredTLD), nil
	}
	return buildRowsKeyed(body, rawHeader, inferredTLD), nil
}

// headersChanged reports whether normalization altered any header name or
// appended inferred columns
func headersChanged(raw, normalized []string) bool {
	if len(raw) != len(normalized) {
		return true
	}
	for i := range raw {
		if strings.TrimSpace(raw[i]) != normalized[i] {
			return true
		}
	}
	return false
}

// buildRowsPositional maps record values onto the normalized header list
// index for index. Values beyond the header list are dropped; short records
// simply produce rows without the trailing fields.
func buildRowsPositional(body [][]string, headers []string, inferredTLD string) []Row {
	rows := make([]Row, 0, len(body))
	for _, record := range body {
		row := make(Row, len(headers))
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = value
			}
		}
		if inferredTLD != "" {
			row[fields.FieldTLD] = inferredTLD
		}
		rows = append(rows, row)
	}
	return rows
}

// buildRowsKeyed is the fast path when normalization changed nothing: rows
// are keyed directly by the original header names
func buildRowsKeyed(body [][]string, headers []string, inferredTLD string) []Row {
	rows := make([]Row, 0, len(body))
	for _, record := range body {
		row := make(Row, len(headers))
		for i, value := range record {
			if i < len(headers) {
				row[strings.TrimSpace(headers[i])] = value
			}
		}
		if inferredTLD != "" {
			row[fields.FieldTLD] = inferredTLD
		}
		rows = append(rows, row)
	}
	return rows
}

func containsField(headers []string, field string) bool {
	for _, h := range headers {
		if strings.TrimSpace(h) == field {
			return true
		}
	}
	return false
}
