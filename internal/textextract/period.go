package textextract

import (
	"fmt"
	"regexp"
	"strings"
)

// PeriodPlaceholder is returned when no period marker is found in the scanned
// region of the sheet.
const PeriodPlaceholder = "период"

const periodMarker = "Период:"

var periodRange = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})\s*-\s*(\d{2})\.(\d{2})\.(\d{4})`)

// periodScanRows limits the header scan; the export always carries the period
// in the first few rows.
const periodScanRows = 5

// PeriodLabel scans the top rows of a sheet for the "Период:" marker followed
// by a DD.MM.YYYY - DD.MM.YYYY range and renders the canonical label, e.g.
// "16-30.11.25". Both halves of a period share a month, so only the start
// month is kept.
func PeriodLabel(rows [][]string) string {
	limit := len(rows)
	if limit > periodScanRows {
		limit = periodScanRows
	}
	for i := 0; i < limit; i++ {
		for _, cell := range rows[i] {
			if !strings.Contains(cell, periodMarker) {
				continue
			}
			m := periodRange.FindStringSubmatch(cell)
			if m == nil {
				continue
			}
			d1, m1, d2, y2 := m[1], m[2], m[4], m[6]
			return fmt.Sprintf("%s-%s.%s.%s", d1, d2, m1, y2[2:])
		}
	}
	return PeriodPlaceholder
}
