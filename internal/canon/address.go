package canon

import (
	"regexp"
	"strings"
)

var rePunct = regexp.MustCompile(`[^A-Za-z0-9\s]`)

// Normalize uppercases a full property address, strips punctuation and unit
// designators, and applies USPS-style suffix abbreviations so variant
// spellings of the same address collapse to one form.
func Normalize(full string) string {
	n := strings.TrimSpace(strings.ToUpper(full))
	n = stripUnit(n)
	n = rePunct.ReplaceAllString(n, " ")
	n = abbreviateSuffix(n)
	return collapseSpaces(n)
}

// PropertyKey computes a stable identity key for a full property address so
// repeated submissions of the same property collapse to one CRM lead.
// Empty input yields an empty key; keyed paths skip such records.
func PropertyKey(full string) string {
	n := Normalize(full)
	if n == "" {
		return ""
	}
	return strings.ToLower(n)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stripUnit(s string) string {
	// Remove trailing unit designators like APT, UNIT, STE, SUITE, #
	toks := []string{" APT ", " UNIT ", " STE ", " SUITE ", " #"}
	up := " " + s + " "
	for _, t := range toks {
		if i := strings.Index(up, t); i >= 0 {
			return strings.TrimSpace(up[:i])
		}
	}
	return strings.TrimSpace(s)
}

func abbreviateSuffix(s string) string {
	// Basic USPS-style suffix normalization
	repl := map[string]string{
		" STREET":    " ST",
		" ROAD":      " RD",
		" AVENUE":    " AVE",
		" BOULEVARD": " BLVD",
		" DRIVE":     " DR",
		" LANE":      " LN",
		" COURT":     " CT",
		" CIRCLE":    " CIR",
		" TERRACE":   " TER",
		" PLACE":     " PL",
		" PARKWAY":   " PKWY",
		" HIGHWAY":   " HWY",
	}
	out := s
	for k, v := range repl {
		out = strings.ReplaceAll(out, k, v)
	}
	return out
}
