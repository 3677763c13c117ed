// Package payment builds the hand-off for payments arranged over WhatsApp.
// Card and mobile-money gateways are settled outside the service; admins
// record the result with the order's payment reference.
package payment

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Fiedly71/up-to-date-store-sub000/order"
	"github.com/Fiedly71/up-to-date-store-sub000/pricing"
)

var ErrNoNumber = errors.New("payment: whatsapp number is not configured")

// WhatsApp opens a chat with the store's payment desk.
type WhatsApp struct {
	Number    string
	Converter pricing.Converter
}

// NewWhatsApp keeps only the digits of number, the form wa.me expects.
func NewWhatsApp(number string, conv pricing.Converter) *WhatsApp {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	return &WhatsApp{Number: digits, Converter: conv}
}

// Message is the prefilled chat text for o.
func (w *WhatsApp) Message(o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello, I would like to pay for order %s.\n", o.Reference)
	fmt.Fprintf(&b, "Item: %s x%d\n", o.Title, o.Quantity)
	fmt.Fprintf(&b, "Total: $%s (%s)", pricing.FormatBase(o.Total), w.Converter.Format(o.Total))
	return b.String()
}

// Link returns the https://wa.me URL with the prefilled message.
func (w *WhatsApp) Link(o *order.Order) (string, error) {
	if w.Number == "" {
		return "", ErrNoNumber
	}
	return "https://wa.me/" + w.Number + "?text=" + url.QueryEscape(w.Message(o)), nil
}
