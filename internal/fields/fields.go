// Package fields manages the canonical field catalog for registrar
// transaction reports. Column spellings drift across report history, so the
// catalog resolves arbitrary header names to canonical field names and grows
// dynamically when a report presents a column it has never seen.
package fields

import (
	"fmt"
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

// FieldTLD is the canonical name of the column identifying the top-level
// domain a row belongs to. It gets special handling during header validation
// because older reports omit it and it must be inferred from the file name.
const FieldTLD = "TLD"

// DefaultFields returns the built-in canonical field set with descriptions.
// Every catalog starts from a fresh copy of this map.
func DefaultFields() map[string]string {
	return map[string]string{
		"TLD":                          "Identifies whether data is for COM or NET",
		"Registrar-name":               "Registrar's Full Corporate Name",
		"IANA-ID":                      "IANA Registrar ID",
		"Total-domains":                "Total domains under sponsorship",
		"Total-Nameservers":            "Total Nameservers Registered",
		"Net-adds-1-yr":                "Domains successfully added with 1-year term",
		"Net-adds-2-yr":                "Domains successfully added with 2-year term",
		"Net-adds-3-yr":                "Domains successfully added with 3-year term",
		"Net-adds-4-yr":                "Domains successfully added with 4-year term",
		"Net-adds-5-yr":                "Domains successfully added with 5-year term",
		"Net-adds-6-yr":                "Domains successfully added with 6-year term",
		"Net-adds-7-yr":                "Domains successfully added with 7-year term",
		"Net-adds-8-yr":                "Domains successfully added with 8-year term",
		"Net-adds-9-yr":                "Domains successfully added with 9-year term",
		"Net-adds-10-yr":               "Domains successfully added with 10-year term",
		"Net-renews-1-yr":              "Domains renewed with 1-year term",
		"Net-renews-2-yr":              "Domains renewed with 2-year term",
		"Net-renews-3-yr":              "Domains renewed with 3-year term",
		"Net-renews-4-yr":              "Domains renewed with 4-year term",
		"Net-renews-5-yr":              "Domains renewed with 5-year term",
		"Net-renews-6-yr":              "Domains renewed with 6-year term",
		"Net-renews-7-yr":              "Domains renewed with 7-year term",
		"Net-renews-8-yr":              "Domains renewed with 8-year term",
		"Net-renews-9-yr":              "Domains renewed with 9-year term",
		"Net-renews-10-yr":             "Domains renewed with 10-year term",
		"Transfer-gaining-successful":  "Transfers initiated and accepted by other registrar",
		"Transfer-gaining-nacked":      "Transfers initiated and rejected by other registrar",
		"Transfer-losing-successful":   "Transfers initiated by others and accepted by this registrar",
		"Transfer-losing-nacked":       "Transfers initiated by others and rejected by this registrar",
		"Transfer-disputed-won":        "Transfer disputes won",
		"Transfer-disputed-lost":       "Transfer disputes lost",
		"Transfer-disputed-nodecision": "Transfer disputes with split or no decision",
		"Deleted-domains-grace":        "Domains deleted within add grace period",
		"Deleted-domains-nograce":      "Domains deleted outside add grace period",
		"Restored-domains":             "Domain names restored from redemption period",
		"Restored-noreport":            "Restored names without a registrar report submission",
	}
}

// defaultAliases maps normalized keys of known alternate spellings to their
// canonical field names. Source variants have renamed columns over the
// report history; aliases bridge the renames that normalization alone
// cannot.
func defaultAliases() map[string]string {
	aliases := map[string]string{
		"registrar":   "Registrar-name",
		"domains":     "Total-domains",
		"nameservers": "Total-Nameservers",
	}
	for year := 1; year <= 10; year++ {
		aliases[fmt.Sprintf("additions%dyr", year)] = fmt.Sprintf("Net-adds-%d-yr", year)
		aliases[fmt.Sprintf("renewals%dyr", year)] = fmt.Sprintf("Net-renews-%d-yr", year)
	}
	return aliases
}

// fieldMapping records the canonical column name and description reachable
// from a normalized key
type fieldMapping struct {
	Column      string
	Description string
}

// Catalog holds the canonical field set and a case/punctuation-insensitive
// lookup index. It is shared across concurrent ingestion workers; all state
// is guarded by mu. Fields registered at runtime are treated as canonical
// for every subsequently processed file.
type Catalog struct {
	mu       sync.RWMutex
	expected map[string]string       // canonical name -> description
	index    map[string]fieldMapping // normalized key -> mapping
	issues   map[string][]string     // file name -> validation warnings
	order    []string                // file names in first-warning order
}

// NewCatalog creates a catalog seeded with the built-in expected field set
func NewCatalog() *Catalog {
	return NewCatalogWithFields(DefaultFields())
}

// NewCatalogWithFields creates a catalog seeded with a custom field set.
// The map is used directly, not copied.
func NewCatalogWithFields(expected map[string]string) *Catalog {
	c := &Catalog{
		expected: expected,
		index:    make(map[string]fieldMapping, len(expected)),
		issues:   make(map[string][]string),
	}
	for name, desc := range expected {
		c.index[NormalizeKey(name)] = fieldMapping{Column: name, Description: desc}
	}
	for alias, canonical := range defaultAliases() {
		if _, taken := c.index[alias]; taken {
			continue
		}
		if desc, ok := expected[canonical]; ok {
			c.index[alias] = fieldMapping{Column: canonical, Description: desc}
		}
	}
	return c
}

// NormalizeKey lowers the case of a column name and strips hyphens and
// underscores, producing the key the lookup index is built on
func NormalizeKey(name string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(name))
}

// Resolve maps an arbitrary column spelling to its canonical field name.
// Unknown names are returned unchanged; the caller decides whether that
// makes them unexpected.
func (c *Catalog) Resolve(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.index[NormalizeKey(name)]; ok {
		return m.Column
	}
	return name
}

// RegisterUnknown adds a previously unseen column to the catalog under its
// raw spelling, with an inferred description. Registering a column that is
// already known is a no-op, so repeated registration never changes the
// description established by the first call.
func (c *Catalog) RegisterUnknown(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerUnknownLocked(name)
}

func (c *Catalog) registerUnknownLocked(name string) {
	key := NormalizeKey(name)
	if _, ok := c.index[key]; ok {
		return
	}
	desc := fmt.Sprintf("[Inferred] %s", InferDescription(name))
	c.expected[name] = desc
	c.index[key] = fieldMapping{Column: name, Description: desc}
	log.WithFields(logrus.Fields{
		"field":       name,
		"description": desc,
	}).Debug("Registered unknown field")
}

// Description returns the human-readable description for a field, inferring
// one when the field is not in the catalog
func (c *Catalog) Description(field string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if desc, ok := c.expected[field]; ok {
		return desc
	}
	return InferDescription(field)
}

// ValidateHeaders resolves every header against the catalog and reports on
// schema drift. Missing and unexpected fields produce warnings, never
// errors: historical reports vary in which optional metrics they include.
//
// When the TLD column is absent but the file name carries a TLD prefix
// (com-transactions-202401-en.csv), TLD is appended to the returned headers
// and a warning records the inference. Every unexpected field is registered
// as a new canonical field for the remainder of the catalog's lifetime.
func (c *Catalog) ValidateHeaders(headers []string, fileName string) ([]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	normalized := make([]string, 0, len(headers))
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if m, ok := c.index[NormalizeKey(h)]; ok {
			normalized = append(normalized, m.Column)
		} else {
			normalized = append(normalized, h)
		}
	}

	var warnings []string

	present := make(map[string]bool, len(normalized))
	for _, h := range normalized {
		present[h] = true
	}
	missing := make(map[string]bool)
	for name := range c.expected {
		if !present[name] {
			missing[name] = true
		}
	}

	if missing[FieldTLD] && strings.Contains(fileName, "-") {
		if tld := strings.SplitN(fileName, "-", 2)[0]; tld != "" {
			normalized = append(normalized, FieldTLD)
			present[FieldTLD] = true
			delete(missing, FieldTLD)
			warnings = append(warnings,
				fmt.Sprintf("TLD field not found in CSV, inferred as '%s' from filename", tld))
		}
	}

	if len(missing) > 0 {
		warnings = append(warnings,
			fmt.Sprintf("Missing expected fields: %s", strings.Join(sortedKeys(missing), ", ")))
	}

	unexpected := make(map[string]bool)
	for _, h := range normalized {
		if _, ok := c.expected[h]; !ok {
			unexpected[h] = true
		}
	}
	if len(unexpected) > 0 {
		warnings = append(warnings,
			fmt.Sprintf("Found unexpected fields: %s", strings.Join(sortedKeys(unexpected), ", ")))
		for field := range unexpected {
			c.registerUnknownLocked(field)
		}
	}

	if len(warnings) > 0 {
		if _, seen := c.issues[fileName]; !seen {
			c.order = append(c.order, fileName)
		}
		c.issues[fileName] = warnings
	}

	return normalized, warnings
}

// ValidationReport returns a formatted report of all header validation
// warnings recorded so far, grouped by file
func (c *Catalog) ValidationReport() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.issues) == 0 {
		return "No field validation issues found."
	}

	report := []string{"Field Validation Issues:"}
	for _, fileName := range c.order {
		report = append(report, fmt.Sprintf("\n%s:", fileName))
		for _, warning := range c.issues[fileName] {
			report = append(report, fmt.Sprintf("  - %s", warning))
		}
	}
	return strings.Join(report, "\n")
}

// MetadataByCategory groups all known fields into reporting categories
// (General, Additions, Renewals, Transfers, Deletions, Restorations, plus
// Other for anything registered at runtime) with their descriptions
func (c *Catalog) MetadataByCategory() map[string]map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	categories := map[string][]string{
		"General": {
			FieldTLD,
			"Registrar-name",
			"IANA-ID",
			"Total-domains",
			"Total-Nameservers",
		},
	}
	prefixes := map[string]string{
		"Additions":    "Net-adds-",
		"Renewals":     "Net-renews-",
		"Transfers":    "Transfer-",
		"Deletions":    "Deleted-",
		"Restorations": "Restored-",
	}
	for category, prefix := range prefixes {
		for name := range c.expected {
			if strings.HasPrefix(name, prefix) {
				categories[category] = append(categories[category], name)
			}
		}
	}

	categorized := make(map[string]bool)
	for _, names := range categories {
		for _, name := range names {
			categorized[name] = true
		}
	}
	for name := range c.expected {
		if !categorized[name] {
			categories["Other"] = append(categories["Other"], name)
		}
	}

	metadata := make(map[string]map[string]string, len(categories))
	for category, names := range categories {
		entries := make(map[string]string, len(names))
		for _, name := range names {
			if desc, ok := c.expected[name]; ok {
				entries[name] = desc
			} else {
				entries[name] = InferDescription(name)
			}
		}
		metadata[category] = entries
	}
	return metadata
}

// KnownFields returns the canonical field names currently in the catalog,
// sorted for stable output
func (c *Catalog) KnownFields() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.expected))
	for name := range c.expected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
