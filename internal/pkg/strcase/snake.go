// Package strcase converts Go identifiers to the snake_case used in JSON
// field names.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts s to snake_case keeping initialisms together, so
// "ResetToken" becomes "reset_token" and "HTTPStatus" becomes "http_status".
func ToLowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && boundary(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

func boundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
