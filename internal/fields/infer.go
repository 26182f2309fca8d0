package fields

import (
	"fmt"
	"strings"
)

// InferDescription derives a human-readable description for a field that is
// not in the built-in catalog, using substring heuristics for the metric
// families ICANN has introduced over the report history
func InferDescription(fieldName string) string {
	field := strings.ToLower(fieldName)

	if strings.Contains(field, "agp-exemption") {
		switch {
		case strings.Contains(field, "request"):
			return "Number of Add Grace Period exemption requests"
		case strings.Contains(field, "grant"):
			return "Number of Add Grace Period exemptions granted"
		case strings.Contains(field, "domain"):
			return "Number of domains with Add Grace Period exemptions"
		}
		return "Add Grace Period exemption related metric"
	}

	if strings.Contains(field, "consolidate-transaction") {
		if strings.Contains(field, "day") {
			return "Days in the consolidate transaction period"
		}
		return "Number of consolidate transactions"
	}

	if strings.Contains(field, "attempted-add") {
		return "Number of attempted domain additions"
	}

	// Build a readable description from the name itself when it has
	// multiple words
	words := strings.Fields(strings.ReplaceAll(field, "-", " "))
	if len(words) > 1 {
		capitalized := make([]string, 0, len(words)-1)
		for _, word := range words[1:] {
			capitalized = append(capitalized, capitalize(word))
		}
		return fmt.Sprintf("%s %s", strings.Join(capitalized, " "), capitalize(words[0]))
	}

	return fmt.Sprintf("Unknown metric: %s", fieldName)
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
