// Package format renders amounts for display in German locale.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"meinbudget/internal/core"
)

var printer = message.NewPrinter(language.German)

var symbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
	"PLN": "zł",
}

// ISOCode maps the stored currency setting to an ISO 4217 code. "€" is EUR.
func ISOCode(setting string) string {
	s := strings.TrimSpace(setting)
	if s == "" || s == core.DefaultCurrency {
		return "EUR"
	}
	return strings.ToUpper(s)
}

// ValidCurrency accepts "€" or any ISO 4217 code known to x/text.
func ValidCurrency(setting string) bool {
	if strings.TrimSpace(setting) == core.DefaultCurrency {
		return true
	}
	_, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(setting)))
	return err == nil
}

// Number renders amount with two decimals, German grouping and comma separator.
func Number(amount decimal.Decimal) string {
	return printer.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
}

// Currency renders amount like "1.234,56 €". Codes without a known symbol are
// printed as the code.
func Currency(amount decimal.Decimal, setting string) string {
	code := ISOCode(setting)
	sym, ok := symbols[code]
	if !ok {
		sym = code
	}
	return Number(amount) + " " + sym
}
