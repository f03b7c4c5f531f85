package crm

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "R"

var printer = message.NewPrinter(language.English)

// Currency renders an amount with thousands separators and two decimals.
// Values without a number are shown as they are.
func Currency(value any, _ table.Row) string {
	if table.IsEmpty(value) {
		return table.Placeholder
	}
	n, ok := table.ExtractNumber(value)
	if !ok {
		return table.Stringify(value)
	}
	return printer.Sprintf("%s %.2f", CurrencySymbol, n)
}

// Percent renders a 0-100 probability as a whole percentage.
func Percent(value any, _ table.Row) string {
	if table.IsEmpty(value) {
		return table.Placeholder
	}
	n, ok := table.ExtractNumber(value)
	if !ok {
		return table.Stringify(value)
	}
	return printer.Sprintf("%.0f%%", n)
}
