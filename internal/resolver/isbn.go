package resolver

import (
	"regexp"
	"strings"
)

// isbnPattern matches either a bare 13-digit 978 sequence or the literal
// token ISBN followed by 13 digits interspersed with at most one
// non-digit each.
var (
	isbnPattern = regexp.MustCompile(`(978\d{10}|ISBN(?:\d\D?){13})`)
	nonDigit    = regexp.MustCompile(`\D`)
)

// ExtractISBN scans OCR text for an ISBN and returns its 13 digits, or
// "" when no match is found. Spaces and hyphens are stripped and
// newlines folded to spaces before matching, since OCR output breaks
// the digit groups unpredictably.
func ExtractISBN(text string) string {
	t := strings.ReplaceAll(text, " ", "")
	t = strings.ReplaceAll(t, "\n", " ")
	t = strings.ReplaceAll(t, "-", "")

	m := isbnPattern.FindString(t)
	if m == "" {
		return ""
	}
	digits := nonDigit.ReplaceAllString(m, "")
	if len(digits) < 13 {
		return ""
	}
	return digits[:13]
}
