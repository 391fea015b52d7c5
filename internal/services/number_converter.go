package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountInWords spells an amount for printed documents.
// Example: 1500.50 AED -> "ONE THOUSAND FIVE HUNDRED AED AND 50/100"
func AmountInWords(amount decimal.Decimal, currency string) string {
	amount = amount.Round(2)
	integerPart := amount.IntPart()
	cents := amount.Sub(decimal.NewFromInt(integerPart)).Mul(decimal.NewFromInt(100)).Abs().IntPart()

	words := numberToWords(integerPart)
	return fmt.Sprintf("%s %s AND %02d/100", words, strings.ToUpper(currency), cents)
}

func numberToWords(n int64) string {
	if n == 0 {
		return "ZERO"
	}
	if n < 0 {
		return "MINUS " + numberToWords(-n)
	}

	if n < 20 {
		return smallNumbers[n]
	}

	if n < 100 {
		t, u := n/10, n%10
		if u == 0 {
			return tens[t]
		}
		return tens[t] + "-" + smallNumbers[u]
	}

	if n < 1000 {
		h, rest := n/100, n%100
		if rest == 0 {
			return smallNumbers[h] + " HUNDRED"
		}
		return smallNumbers[h] + " HUNDRED " + numberToWords(rest)
	}

	for _, scale := range scales {
		if n >= scale.value {
			head, rest := n/scale.value, n%scale.value
			words := numberToWords(head) + " " + scale.name
			if rest == 0 {
				return words
			}
			return words + " " + numberToWords(rest)
		}
	}
	return fmt.Sprint(n)
}

var smallNumbers = []string{
	"", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE",
	"TEN", "ELEVEN", "TWELVE", "THIRTEEN", "FOURTEEN", "FIFTEEN", "SIXTEEN", "SEVENTEEN", "EIGHTEEN", "NINETEEN",
}

var tens = []string{
	"", "", "TWENTY", "THIRTY", "FORTY", "FIFTY", "SIXTY", "SEVENTY", "EIGHTY", "NINETY",
}

var scales = []struct {
	value int64
	name  string
}{
	{1_000_000_000, "BILLION"},
	{1_000_000, "MILLION"},
	{1_000, "THOUSAND"},
}
