package pricing

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultDisplayRate     = 140.0
	DefaultDisplayCurrency = "KES"
)

// Converter scales base-currency amounts into the display currency at a
// static rate. Converted amounts are for display only and are never persisted.
type Converter struct {
	Rate     float64
	Currency string
}

// NewConverter returns a Converter, falling back to the default rate and
// currency for zero values.
func NewConverter(rate float64, currency string) Converter {
	if rate <= 0 {
		rate = DefaultDisplayRate
	}
	if currency == "" {
		currency = DefaultDisplayCurrency
	}
	return Converter{Rate: rate, Currency: currency}
}

func (c Converter) ToDisplayCurrency(usdAmount float64) float64 {
	return usdAmount * c.Rate
}

// Format converts usdAmount and renders it as a thousands-grouped integer
// followed by the currency code, e.g. "42,000 KES".
func (c Converter) Format(usdAmount float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d %s", int64(math.Round(c.ToDisplayCurrency(usdAmount))), c.Currency)
}

// Quote is a breakdown together with its display-currency equivalent.
type Quote struct {
	Breakdown
	Display         float64 `json:"display_total"`
	DisplayCurrency string  `json:"display_currency"`
	DisplayText     string  `json:"display_text"`
}

// Quote computes the breakdown for base and converts its total.
func (c Converter) Quote(base float64) (Quote, error) {
	b, err := ComputeBreakdown(base)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Breakdown:       b,
		Display:         c.ToDisplayCurrency(b.Total),
		DisplayCurrency: c.Currency,
		DisplayText:     c.Format(b.Total),
	}, nil
}
