package textextract

import (
	"regexp"
	"strings"
	"time"
)

// The three order-code prefixes used by the ERP.
var orderCodeRe = regexp.MustCompile(`(КАУТ|ИБУТ|ТДУТ)-\d+`)

// "Заказ клиента КАУТ-001658 от 05.11.2025 23:59:59, ..." — code, date, rest.
var orderHeadRe = regexp.MustCompile(`((?:КАУТ|ИБУТ|ТДУТ)-\d+)\s+от\s+(\d{2}\.\d{2}\.\d{4})\s+\d{1,2}:\d{2}:\d{2},?\s*(.*)`)

var (
	clientOrderPrefix = regexp.MustCompile(`^Заказ клиента\s+`)
	timeArtifact      = regexp.MustCompile(`\d{1,2}:\d{2}:\d{2},?\s*`)
	orderDateRe       = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)
	dateSeparator     = regexp.MustCompile(`\s+от\s+`)
)

var specialRowMarkers = []string{"ОБУЧЕНИЕ", "В прошлом расчете"}

// OrderCode extracts the alphanumeric order code from an order description,
// or "" when the row has none (totals, manual rows).
func OrderCode(orderText string) string {
	return orderCodeRe.FindString(orderText)
}

// OrderDate extracts the first DD.MM.YYYY date found in the description.
func OrderDate(orderText string) (time.Time, bool) {
	m := orderDateRe.FindStringSubmatch(orderText)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("02.01.2006", m[0])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ShortOrder renders the accountant view of an order description: code, date
// and address, with the timestamp and "Заказ клиента" boilerplate dropped.
// Artifacts after a pipe or embedded newline marker are discarded.
func ShortOrder(orderText string) string {
	if orderText == "" {
		return ""
	}
	for _, marker := range specialRowMarkers {
		if strings.Contains(orderText, marker) {
			return orderText
		}
	}

	if m := orderHeadRe.FindStringSubmatch(orderText); m != nil {
		addr := dropArtifacts(m[3])
		return strings.Trim(m[1]+" от "+m[2]+", "+addr, ", ")
	}
	return clientOrderPrefix.ReplaceAllString(orderText, "")
}

// WorkerOrder renders the worker view: code, date, address and any trailing
// comment kept verbatim.
func WorkerOrder(orderText string) string {
	if orderText == "" {
		return ""
	}
	for _, marker := range specialRowMarkers {
		if strings.Contains(orderText, marker) {
			return orderText
		}
	}

	if m := orderHeadRe.FindStringSubmatch(orderText); m != nil {
		rest := dropArtifacts(m[3])
		return strings.Trim(m[1]+", "+m[2]+", "+rest, ", ")
	}

	text := clientOrderPrefix.ReplaceAllString(orderText, "")
	text = dateSeparator.ReplaceAllString(text, ", ")
	text = timeArtifact.ReplaceAllString(text, "")
	return strings.Trim(text, ", ")
}

func dropArtifacts(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, `\n`); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "|"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
