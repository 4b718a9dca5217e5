package finance

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/govalues/money"
)

// ParseAmountToMinor converts a decimal amount string to minor units with
// half-up rounding on the third decimal place. Both dot and comma decimal
// separators are accepted. Only positive magnitudes are valid: sign belongs
// to the transaction type, not the amount.
func ParseAmountToMinor(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, false
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, false
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		return 0, false
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, false
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, false
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, false
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, true
}

// AmountFromMinor builds a money.Amount in the given currency from minor units.
func AmountFromMinor(currency string, minor int64) (money.Amount, error) {
	return money.NewAmountFromMinorUnits(strings.ToUpper(currency), minor)
}

// FormatMinor renders minor units as a plain decimal string ("1234" -> "12.34").
// All supported currencies use two decimal places.
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return sign + strconv.FormatInt(minor/100, 10) + "." + pad2(minor%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
