package patients

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldForSearch(value string) string {
	folded, _, err := transform.String(accentFold, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(folded)
}

// Search returns the patients whose name, reason for visit, or contact
// matches the query, ignoring case and accents ("perez" finds "Pérez").
func (m *Manager) Search(query string) []*Patient {
	needle := foldForSearch(strings.TrimSpace(query))
	if needle == "" {
		return m.patients
	}
	var matches []*Patient
	for _, patient := range m.patients {
		haystack := foldForSearch(patient.Nombre + " " + patient.Motivo + " " + patient.Contacto)
		if strings.Contains(haystack, needle) {
			matches = append(matches, patient)
		}
	}
	return matches
}

// SortedByName returns a copy of the collection ordered with Spanish
// collation rules.
func (m *Manager) SortedByName() []*Patient {
	sorted := make([]*Patient, len(m.patients))
	copy(sorted, m.patients)
	collator := collate.New(language.Spanish, collate.IgnoreCase)
	sort.SliceStable(sorted, func(i, j int) bool {
		return collator.CompareString(sorted[i].Nombre, sorted[j].Nombre) < 0
	})
	return sorted
}
