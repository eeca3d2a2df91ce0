package utils

import "fmt"

// FormatMoney keeps consistent decimal formatting for currency fields.
func FormatMoney(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// FormatCurrency renders an amount as "$12.50".
func FormatCurrency(amount float64) string {
	if amount < 0 {
		return "-$" + FormatMoney(-amount)
	}
	return "$" + FormatMoney(amount)
}

// FormatOptionalCurrency renders nil as "-".
func FormatOptionalCurrency(amount *float64) string {
	if amount == nil {
		return "-"
	}
	return FormatCurrency(*amount)
}
