package invoicing

import "fmt"

// DefaultSeries is the invoice series used when none is configured.
const DefaultSeries = "F001"

// FormatInvoiceNumber renders a series plus a sequence value as a SUNAT-style
// invoice number, e.g. ("F001", 1) -> "F001-00000001". The sequence is
// zero-padded to eight digits; values that overflow eight digits keep their
// full width rather than truncating.
func FormatInvoiceNumber(series string, seq int64) string {
	if series == "" {
		series = DefaultSeries
	}
	return fmt.Sprintf("%s-%08d", series, seq)
}
