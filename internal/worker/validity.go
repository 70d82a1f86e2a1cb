package worker

import (
	"strings"
	"unicode"
)

// Group headers that are service buckets, not people. Order rows under these
// are excluded from payroll entirely.
var excludedGroups = []string{
	"доставка",
	"доставка лестницы",
	"осмотр без оплаты (оплачен ранее)",
	"осмотр без оплаты",
	"помощник",
	"итого",
	"параметры:",
	"отбор:",
	"монтажник",
	"заказ, комментарий",
}

// IsValidName reports whether a group-header string looks like a real person
// name (surname + given name, optionally patronymic) rather than a service
// category.
func IsValidName(name string) bool {
	if name == "" {
		return false
	}

	lower := strings.ToLower(StripSuffix(name))
	for _, excluded := range excludedGroups {
		if lower == excluded || strings.HasPrefix(lower, excluded) {
			return false
		}
	}

	words := strings.Fields(StripSuffix(name))
	if len(words) < 2 {
		return false
	}

	first := []rune(words[0])
	if !unicode.IsUpper(first[0]) {
		return false
	}

	letters := 0
	for _, r := range first {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters) >= float64(len(first))*0.8
}

// IsManager reports whether the name is on the configured manager roster.
// Managers showing up as group headers are a data error; the ingestor flags
// them with a warning instead of calculating a salary.
func IsManager(name string, roster map[string]bool) bool {
	return roster[StripSuffix(name)]
}
