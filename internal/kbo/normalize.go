// Package kbo locates and reads KBO-style business-registry CSV exports:
// enterprise, establishment, activity, contact, address and denomination
// tables with inconsistent filenames, delimiters and column headers.
package kbo

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// headerAliases maps normalized registry column names onto the canonical
// names the rest of the pipeline uses.
var headerAliases = map[string]string{
	"zipcode":            "postal_code",
	"postcode":           "postal_code",
	"post_code":          "postal_code",
	"zip_code":           "postal_code",
	"zip":                "postal_code",
	"municipalitynl":     "city",
	"municipality":       "city",
	"municipality_nl":    "city",
	"streetnl":           "street",
	"street_nl":          "street",
	"housenumber":        "house_number",
	"enterprisenumber":   "enterprise_number",
	"establishmentnumber": "establishment_number",
	"entitynumber":       "entity_number",
	"entitycontact":      "entity_contact",
	"contacttype":        "contact_type",
	"startdate":          "start_date",
	"typeofdenomination": "type_of_denomination",
}

// foldDiacritics removes combining marks so "Dénomination" and "Denomination"
// normalize identically.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader canonicalizes a column name: diacritics folded, lowercased,
// runs of non-alphanumerics collapsed to single underscores, then mapped
// through the registry alias table.
func NormalizeHeader(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	normalized := strings.TrimSuffix(b.String(), "_")

	if alias, ok := headerAliases[normalized]; ok {
		return alias
	}
	return normalized
}

// NormalizeID strips everything but digits from an entity identifier.
// "0123.456.789" and `"0123456789"` are the same entity. An empty result
// means the identifier is unresolved and the row must be excluded from
// joins. Idempotent.
func NormalizeID(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePostalCode extracts a Belgian 4-digit postcode from a raw value,
// falling back to the trimmed input when no 4-digit group is present.
func NormalizePostalCode(value string) string {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return ""
	}

	if len(cleaned) == 4 && allDigits(cleaned) {
		return cleaned
	}

	for i := 0; i+4 <= len(cleaned); i++ {
		if !allDigits(cleaned[i : i+4]) {
			continue
		}
		// Reject matches embedded in longer digit runs.
		if i > 0 && isDigit(cleaned[i-1]) {
			continue
		}
		if i+4 < len(cleaned) && isDigit(cleaned[i+4]) {
			continue
		}
		return cleaned[i : i+4]
	}

	return cleaned
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// zeroDates are placeholder values some registry dumps use for "unknown".
var zeroDates = map[string]bool{
	"0":          true,
	"0000-00-00": true,
	"00-00-0000": true,
	"0000/00/00": true,
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

// ParseDate parses a registry start date in any of the formats the dumps
// carry. Returns the zero time and false for blanks and placeholders.
func ParseDate(value string) (time.Time, bool) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || zeroDates[cleaned] {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthsSince returns the whole-month difference between now and the given
// start date string, or false when the date cannot be parsed.
func MonthsSince(startDate string, now time.Time) (int, bool) {
	started, ok := ParseDate(startDate)
	if !ok {
		return 0, false
	}
	months := (now.Year()-started.Year())*12 + int(now.Month()) - int(started.Month())
	return months, true
}

// statusAbbreviations expands the two-letter status codes found in raw dumps.
var statusAbbreviations = map[string]string{
	"AC": "ACTIVE",
	"IN": "INACTIVE",
}

// NormalizeStatus expands abbreviated status codes, leaving unknown values
// untouched.
func NormalizeStatus(value string) string {
	cleaned := strings.TrimSpace(value)
	if expanded, ok := statusAbbreviations[strings.ToUpper(cleaned)]; ok {
		return expanded
	}
	return cleaned
}

// activeStatuses covers the spellings dumps use for an active enterprise,
// including the Dutch form and the phrasing of older exports.
var activeStatuses = map[string]bool{
	"ACTIVE":      true,
	"ACTIEF":      true,
	"IN BUSINESS": true,
}

// IsActive reports whether a raw status value denotes an active enterprise.
func IsActive(value string) bool {
	return activeStatuses[strings.ToUpper(NormalizeStatus(value))]
}
