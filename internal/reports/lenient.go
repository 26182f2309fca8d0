package reports

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLenientInt parses a metric value, treating blank or non-numeric
// strings as 0. Historical reports leave optional metrics empty, so lenient
// coercion is the aggregation contract: a bad value never fails a batch.
func ParseLenientInt(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0
	}
	return n
}

// sumTermMetrics sums a per-term metric family (Net-adds-1-yr through
// Net-adds-10-yr, likewise Net-renews) into a single value
func sumTermMetrics(row map[string]string, prefix string) int {
	total := 0
	for year := 1; year <= 10; year++ {
		total += ParseLenientInt(row[fmt.Sprintf("%s-%d-yr", prefix, year)])
	}
	return total
}
