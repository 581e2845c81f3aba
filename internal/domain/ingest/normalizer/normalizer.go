// Package normalizer cleans raw statement fields into canonical values.
// Amounts arrive in whatever notation the exporting bank used ("(50.00)",
// "-50.00", "50.00 DR", "NGN 1,500.00") and must all collapse to the same
// signed decimal.
package normalizer

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount format")
	ErrInvalidDate   = errors.New("invalid date format")
)

// Direction classifies a transaction by the sign of its amount.
type Direction string

const (
	DirectionCredit  Direction = "CREDIT"
	DirectionDebit   Direction = "DEBIT"
	DirectionNeutral Direction = "NEUTRAL"
)

// DescriptionPlaceholder substitutes missing description cells.
const DescriptionPlaceholder = "Unknown Transaction"

// MaxDescriptionLen caps normalized descriptions.
const MaxDescriptionLen = 500

var (
	letterTokenPattern    = regexp.MustCompile(`(?i)\b[A-Za-z]{2,3}\b`)
	currencySymbolPattern = regexp.MustCompile(`[£$€¥₦₪₹]`)
	spacePattern          = regexp.MustCompile(`\s+`)
)

// ParseAmount converts a raw amount string into a signed decimal.
//
// Cleaning order: normalize the unicode minus, strip 2-3 letter currency
// codes (CR/DR excluded) and currency symbols, strip spaces, detect a CR or
// DR token, unwrap accounting parentheses, honor a leading sign, strip
// thousands commas, then require a purely numeric residue. Sign precedence
// is CR/DR token, then parentheses, then the leading sign character.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	s = strings.ReplaceAll(s, "−", "-")

	// Token sign: +1 forced credit (CR), -1 forced debit (DR), 0 unset.
	tokenSign := 0
	s = letterTokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		switch strings.ToUpper(tok) {
		case "CR":
			tokenSign = 1
		case "DR":
			tokenSign = -1
		}
		return ""
	})

	s = currencySymbolPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "")

	parenthesized := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2 {
		parenthesized = true
		s = s[1 : len(s)-1]
	}

	leadingMinus := false
	if strings.HasPrefix(s, "-") {
		leadingMinus = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	s = strings.ReplaceAll(s, ",", "")

	if s == "" || s == "." || !numericResidue(s) {
		return decimal.Zero, ErrInvalidAmount
	}

	val, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}

	negative := false
	switch {
	case tokenSign > 0:
		negative = false
	case tokenSign < 0:
		negative = true
	case parenthesized:
		negative = true
	case leadingMinus:
		negative = true
	}
	if negative {
		val = val.Neg()
	}

	return val, nil
}

// numericResidue reports whether the cleaned string is purely digits with
// at most one decimal point. Anything else, an embedded dash or a second
// dot, means the value was never an amount (a date, a version string) and
// must be rejected rather than stripped into a bogus number.
func numericResidue(s string) bool {
	sawPoint := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !sawPoint:
			sawPoint = true
		default:
			return false
		}
	}
	return true
}

// Classify splits a signed amount into a direction tag and an absolute
// magnitude. Storage and reporting want non-negative magnitudes with an
// explicit direction so debit and credit sums stay unambiguous.
func Classify(signed decimal.Decimal) (Direction, decimal.Decimal) {
	switch signed.Sign() {
	case 1:
		return DirectionCredit, signed
	case -1:
		return DirectionDebit, signed.Abs()
	default:
		return DirectionNeutral, signed
	}
}

// CleanDescription normalizes merchant/description text: missing values
// become the placeholder, whitespace runs collapse to a single space, and
// the result is capped at MaxDescriptionLen characters. An empty result
// means the row should be dropped by the caller.
func CleanDescription(raw string) string {
	if raw == "" {
		return DescriptionPlaceholder
	}

	result := strings.TrimSpace(raw)
	result = spacePattern.ReplaceAllString(result, " ")

	if len(result) > MaxDescriptionLen {
		runes := []rune(result)
		if len(runes) > MaxDescriptionLen {
			result = string(runes[:MaxDescriptionLen])
		}
	}
	return result
}
