package geo

import "strings"

// Explicit Moscow / Moscow Oblast markers.
var moscowMarkers = []string{
	"москва", "московская обл", "московской обл", "мо,", "мо ", "м.о.",
	"московский", "подмосков",
}

// Moscow street names that look like other cities ("Севастопольский проспект"
// is in Moscow, not Sevastopol).
var moscowStreets = []string{
	"севастопольский", "крымский", "симферопольск", "ялтинск",
	"одесская", "киевское шоссе", "калининградск",
}

// Explicit other-region markers. Full city forms only, to avoid false hits on
// street names.
var nonMoscowMarkers = []string{
	"санкт-петербург", " спб,", " спб ", "г.спб", "г. спб",
	"ленинградская обл", "петербург",
	"краснодар", "г.сочи", "г. сочи", "новосибирск", "екатеринбург",
	"г.казань", "г. казань", "нижний новгород", "челябинск", "самара",
	"омск", "ростов-на-дону", "г.уфа", "г. уфа", "красноярск", "пермь",
	"воронеж", "волгоград", "саратов", "тюмень", "тольятти",
	"республика крым", "г.севастополь", "г. севастополь",
	"калининградская обл",
}

// IsHomeRegion reports whether an address belongs to Moscow or Moscow Oblast.
// Addresses rarely spell out the city, so ambiguity resolves to "in region";
// only an explicit other-region marker excludes an address.
func IsHomeRegion(address string) bool {
	if address == "" {
		return false
	}
	lower := strings.ToLower(address)

	for _, m := range moscowMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	for _, m := range moscowStreets {
		if strings.Contains(lower, m) {
			return true
		}
	}
	for _, m := range nonMoscowMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}
