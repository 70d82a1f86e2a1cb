package textextract

import (
	"regexp"
	"strconv"
	"strings"
)

var embeddedPercent = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

// Percent parses a payment percentage out of a cell value. The value may be a
// bare number ("0.3" means 30%, "30" means 30%), a formatted percentage
// ("30,00 %") or free text with an embedded "N%". Unparseable input yields 0.
func Percent(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	// Bare numbers: a fraction <=1 is scaled to a percentage.
	if v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
		if v <= 1 {
			return v * 100
		}
		return v
	}

	if m := embeddedPercent.FindStringSubmatch(value); m != nil {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil {
			return v
		}
	}

	cleaned := strings.NewReplacer(",", ".", "%", "", " ", "", " ", "").Replace(value)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// Money parses a monetary cell value ("12 345,67") into a float. Empty or
// malformed cells are 0.
func Money(value string) float64 {
	cleaned := strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}
