// Package catalog holds the fixed set of report languages. The code is the
// external-interface key; names exist for display and tolerant lookup.
package catalog

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// Language describes one report language
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
}

// languages is the catalog in display order. Codes are unique.
var languages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "bn", Name: "Bengali", NativeName: "বাংলা"},
	{Code: "zh", Name: "Chinese", NativeName: "中文"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "ar", Name: "Arabic", NativeName: "العربية"},
	{Code: "ru", Name: "Russian", NativeName: "Русский"},
}

var byCode = func() map[string]Language {
	m := make(map[string]Language, len(languages))
	for _, l := range languages {
		m[l.Code] = l
	}
	return m
}()

// All returns the catalog in display order
func All() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Lookup resolves a language by its exact code
func Lookup(code string) (Language, bool) {
	l, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
	return l, ok
}

// Default returns the fallback report language
func Default() Language {
	return byCode["en"]
}

// maxMatchDistance bounds how far a typed name may drift from a catalog
// name and still resolve
const maxMatchDistance = 2

// Match resolves a user-typed language identifier: exact code first, then
// case-insensitive display/native name, then nearest name within the
// distance bound.
func Match(query string) (Language, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Language{}, false
	}
	if l, ok := byCode[q]; ok {
		return l, true
	}
	for _, l := range languages {
		if strings.ToLower(l.Name) == q || strings.ToLower(l.NativeName) == q {
			return l, true
		}
	}

	best := Language{}
	bestDist := maxMatchDistance + 1
	for _, l := range languages {
		if d := levenshtein.Distance(strings.ToLower(l.Name), q); d < bestDist {
			best, bestDist = l, d
		}
		if d := levenshtein.Distance(strings.ToLower(l.NativeName), q); d < bestDist {
			best, bestDist = l, d
		}
	}
	if bestDist <= maxMatchDistance {
		return best, true
	}
	return Language{}, false
}
