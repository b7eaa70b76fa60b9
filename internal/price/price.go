// Package price converts free-form listing price text into an integer amount.
package price

import "strconv"

// Normalize extracts the integer amount from a price string.
// Every non-digit character is dropped and the remaining digit run is
// parsed base-10, so "1.234 €" becomes 1234. Thousands separators and
// fractional parts are indistinguishable; there are no cents semantics.
// Text without any digit (e.g. "VB") normalizes to 0.
func Normalize(text string) int {
	digits := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		if text[i] >= '0' && text[i] <= '9' {
			digits = append(digits, text[i])
		}
	}
	if len(digits) == 0 {
		return 0
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0
	}
	return n
}
