// Package worker owns everything about field-technician identities: the
// canonical-name resolver that collapses variant spellings, the person-name
// validity heuristic used while parsing group headers, and the persisted
// roster (company-car and manager flags).
package worker

import (
	"sort"
	"strings"
)

// ClientBilledSuffix marks the client-billed section header variant of a
// worker name in the source export.
const ClientBilledSuffix = " (оплата клиентом)"

// StripSuffix removes the client-billed marker from a name.
func StripSuffix(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, ClientBilledSuffix, ""))
}

// BuildNameMap derives a canonical-name mapping from all observed spellings.
// Length is used as a completeness proxy: "Иванов Иван" maps to
// "Иванов Иван Иванович" when both were seen. The map is idempotent — targets
// are never keys. When several longer names share a short name's prefix, the
// first in length-descending order wins; that tie-break is inherited behavior
// and load-bearing for stable cross-upload keys.
func BuildNameMap(allNames map[string]struct{}) map[string]string {
	clean := make([]string, 0, len(allNames))
	seen := make(map[string]struct{}, len(allNames))
	for name := range allNames {
		c := StripSuffix(name)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		clean = append(clean, c)
	}

	// Longest first; lexicographic order breaks length ties deterministically.
	sort.Slice(clean, func(i, j int) bool {
		if len(clean[i]) != len(clean[j]) {
			return len(clean[i]) > len(clean[j])
		}
		return clean[i] < clean[j]
	})

	nameMap := make(map[string]string)
	for i, short := range clean {
		if _, mapped := nameMap[short]; mapped {
			continue
		}
		for _, long := range clean[:i] {
			// Word-boundary prefix only, so "Иванов Ива" never matches
			// "Иванов Иван".
			if strings.HasPrefix(long, short+" ") {
				nameMap[short] = long
				break
			}
		}
	}
	return nameMap
}

// Normalize resolves a name through the map, reapplying the client-billed
// suffix when the input carried it. A nil map is a pass-through.
func Normalize(name string, nameMap map[string]string) string {
	if name == "" {
		return name
	}
	clean := StripSuffix(name)
	normalized := clean
	if mapped, ok := nameMap[clean]; ok {
		normalized = mapped
	}
	if strings.Contains(name, ClientBilledSuffix) {
		return normalized + ClientBilledSuffix
	}
	return normalized
}
