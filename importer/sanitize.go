package importer

import "strings"

// formulaPrefixes start a formula in common spreadsheet applications.
const formulaPrefixes = "=+-@"

// Sanitize trims value, removes one pair of wrapping double quotes and strips
// leading formula characters.
func Sanitize(value string) string {
	clean := strings.TrimSpace(value)
	if len(clean) >= 2 && strings.HasPrefix(clean, `"`) && strings.HasSuffix(clean, `"`) {
		clean = strings.TrimSpace(clean[1 : len(clean)-1])
	}
	return strings.TrimLeft(clean, formulaPrefixes)
}

func keepChars(value string, allowed func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if allowed(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isPriceChar(r rune) bool {
	return isDigit(r) || r == '.' || r == '-'
}

// leadingNumber returns the longest prefix of value of the form
// digits[.digits], or "" when value does not start with a number.
func leadingNumber(value string) string {
	end := 0
	for end < len(value) && isDigit(rune(value[end])) {
		end++
	}
	intDigits := end
	if end < len(value) && value[end] == '.' {
		frac := end + 1
		for frac < len(value) && isDigit(rune(value[frac])) {
			frac++
		}
		if frac > end+1 || intDigits > 0 {
			end = frac
		}
	}
	if end == 0 {
		return ""
	}
	return value[:end]
}
