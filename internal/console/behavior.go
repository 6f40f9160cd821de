package console

import (
	"strings"
	"unicode"
)

// Behavior holds the display and input switches of the driver.
type Behavior struct {
	// LimitDigits refuses a fourth digit on the input line.
	LimitDigits bool
	// Substitute rewrites a fixed set of words in displayed output.
	Substitute bool
}

const maxDigits = 3

var substitutions = strings.NewReplacer(
	"Foreign", "Trusted",
	"ESTABLISHED", "SECURE",
	"REFUND", "AIRPLANE",
	"Refund", "Airplane",
	"refund", "airplane",
)

// accept reports whether r may be appended to input.
func (b Behavior) accept(input string, r rune) bool {
	if !b.LimitDigits || !unicode.IsDigit(r) {
		return true
	}
	digits := 0
	for _, c := range input {
		if unicode.IsDigit(c) {
			digits++
		}
	}
	return digits < maxDigits
}

// display returns text as it should be shown.
func (b Behavior) display(text string) string {
	if !b.Substitute {
		return text
	}
	return substitutions.Replace(text)
}
