// Package textextract pulls structured values (addresses, percentages, period
// labels, display-ready order titles) out of the free-form order descriptions
// produced by the upstream ERP export. Every extractor is total: malformed
// input yields an empty/default value, never an error.
package textextract

import (
	"regexp"
	"strings"
)

// Rows carrying these markers are training entries or carry-overs from a
// previous payroll and never have a usable address.
var addressSkipMarkers = []string{
	"ОБУЧЕНИЕ",
	"обучение",
	"двойная оплата",
	"В прошлом расчете",
	"комплекты интернета",
	"комплект интернета",
}

// Datetime prefixes tried in order; the address is everything after the
// first match's comma.
var addressPrefixRules = []struct {
	name string
	re   *regexp.Regexp
}{
	{"full-datetime", regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}\s+\d{1,2}:\d{2}:\d{2},\s*(.+)`)},
	{"short-time", regexp.MustCompile(`\d:\d{2}:\d{2},\s*(.+)`)},
	{"date-only", regexp.MustCompile(`\d{2}\.\d{2}\.\d{4},\s*(.+)`)},
}

// Lines that are embedded payment instructions rather than address parts.
var managerNoteLine = regexp.MustCompile(`(?i)(зарплата\s+монтажник|оплата\s+монтажнику|выплатить|начислить|\d+\s*%)`)

// Lines that are known non-address remarks (helper mentions, floor notes,
// parenthetical comments).
var remarkLine = regexp.MustCompile(`(?i)(^помощник|^\(.*\)$|^этаж|^тест\b)`)

// Noisy prefixes and trailing remarks stripped case-insensitively, in order.
var addressStripRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^OZON\s+`),
	regexp.MustCompile(`(?i)^DDX\s*-?\s*`),
	regexp.MustCompile(`(?i),?\s*зарплата\s+монтажник.*$`),
	regexp.MustCompile(`(?i),?\s*диагностика\s+.*$`),
	regexp.MustCompile(`(?i),?\s*тест\s+делаем.*$`),
	regexp.MustCompile(`(?i)\s+диагностика\s+\S+$`),
	regexp.MustCompile(`(?i)\s*\(эатж.*\)$`), // common typo for "этаж"
	regexp.MustCompile(`(?i)\s*\(этаж.*\)$`),
}

// Address extracts the destination address from an order description, or ""
// when the text has no recognizable address part.
func Address(orderText string) string {
	if orderText == "" {
		return ""
	}
	for _, marker := range addressSkipMarkers {
		if strings.Contains(orderText, marker) {
			return ""
		}
	}

	for _, rule := range addressPrefixRules {
		m := rule.re.FindStringSubmatch(orderText)
		if m == nil {
			continue
		}
		return cleanAddress(m[1])
	}
	return ""
}

// cleanAddress drops instruction/remark lines, joins the rest with commas and
// applies the ordered strip rules.
func cleanAddress(raw string) string {
	raw = strings.ReplaceAll(raw, `\n`, "\n")
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if managerNoteLine.MatchString(line) || remarkLine.MatchString(line) {
			continue
		}
		parts = append(parts, line)
	}
	addr := strings.Join(parts, ", ")

	// Everything after a literal pipe is an export artifact.
	if i := strings.Index(addr, "|"); i >= 0 {
		addr = addr[:i]
	}
	for _, re := range addressStripRules {
		addr = re.ReplaceAllString(addr, "")
	}
	return strings.TrimSpace(addr)
}
