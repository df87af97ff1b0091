package naming

import (
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

var (
	// invalidLabelChars matches any character that is not lowercase alphanumeric or dash
	invalidLabelChars = regexp.MustCompile(`[^a-z0-9-]`)
	// multiDashRegex matches consecutive dashes
	multiDashRegex = regexp.MustCompile(`-+`)
)

// ToRFC1123Label converts a string to a valid RFC1123 label, suitable as a
// Lease object name. RFC1123 labels must:
//   - contain only lowercase alphanumeric characters or '-'
//   - start and end with an alphanumeric character
//   - be at most 63 characters long
//
// The input is lowercased, invalid characters become '-', runs of dashes
// collapse, and the result is trimmed to length and to alphanumeric ends.
// If nothing valid remains, returns "x" as a fallback.
func ToRFC1123Label(s string) string {
	s = strings.ToLower(s)
	s = invalidLabelChars.ReplaceAllString(s, "-")
	s = multiDashRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > validation.DNS1123LabelMaxLength {
		s = s[:validation.DNS1123LabelMaxLength]
		s = strings.TrimRight(s, "-")
	}

	if s == "" {
		return "x"
	}
	return s
}

// IsValidLabel reports whether s is already a valid RFC1123 label.
func IsValidLabel(s string) bool {
	return len(validation.IsDNS1123Label(s)) == 0
}
