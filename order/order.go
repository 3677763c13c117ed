// Package order holds the order model and its shipment tracking rules.
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/pricing"
	"github.com/google/uuid"
)

var ErrInvalidPaymentMethod = errors.New("order: unknown payment method")

// Source tells whether an order was placed from the catalog or from a pasted
// marketplace link.
type Source string

const (
	SourceCatalog Source = "catalog"
	SourceLink    Source = "link"
)

type PaymentMethod string

const (
	PaymentGateway  PaymentMethod = "gateway"
	PaymentWhatsApp PaymentMethod = "whatsapp"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentGateway, PaymentWhatsApp:
		return m, nil
	case "":
		return PaymentWhatsApp, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
	}
}

// Order is a customer's purchase request. Money fields are in the base
// currency; display-currency amounts are derived on read and never stored.
type Order struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Reference string `gorm:"uniqueIndex;size:16" json:"reference"`
	AccountID string `gorm:"index;size:36" json:"account_id"`

	Source      Source `gorm:"size:16" json:"source"`
	ProductID   string `json:"product_id,omitempty"`
	ProductURL  string `json:"product_url,omitempty"`
	Marketplace string `json:"marketplace,omitempty"`
	ProductRef  string `json:"product_ref,omitempty"`
	Title       string `json:"title"`
	Quantity    int    `json:"quantity"`
	Options     string `json:"options,omitempty"`
	Notes       string `json:"notes,omitempty"`

	UnitPrice float64 `json:"unit_price"`
	Base      float64 `json:"base"`
	Fee       float64 `json:"fee"`
	FeeType   string  `json:"fee_type"`
	Total     float64 `json:"total"`

	ShippingAddress  string        `json:"shipping_address"`
	Phone            string        `json:"phone"`
	PaymentMethod    PaymentMethod `gorm:"size:16" json:"payment_method"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`

	Status    Status        `gorm:"index;size:16" json:"status"`
	Events    []StatusEvent `gorm:"foreignKey:OrderID" json:"events,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// StatusEvent records when an order entered a status.
type StatusEvent struct {
	ID      uint      `gorm:"primaryKey" json:"-"`
	OrderID string    `gorm:"index;size:36" json:"-"`
	Status  Status    `gorm:"size:16" json:"status"`
	Note    string    `json:"note,omitempty"`
	At      time.Time `json:"at"`
}

func (StatusEvent) TableName() string { return "order_events" }

// New returns a pending order with fresh identifiers.
func New(accountID string, now time.Time) *Order {
	id := uuid.New()
	o := &Order{
		ID:        id.String(),
		Reference: NewReference(id),
		AccountID: accountID,
		Quantity:  1,
		Status:    StatusPending,
	}
	o.Events = append(o.Events, StatusEvent{OrderID: o.ID, Status: StatusPending, At: now})
	return o
}

// NewReference derives the short customer-facing reference from an order ID.
func NewReference(id uuid.UUID) string {
	return "SF-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// Price sets the unit price and recomputes the fee breakdown for the current
// quantity.
func (o *Order) Price(unitPrice float64) error {
	if o.Quantity < 1 {
		return fmt.Errorf("order: quantity must be at least 1, got %d", o.Quantity)
	}
	b, err := pricing.ComputeBreakdown(unitPrice * float64(o.Quantity))
	if err != nil {
		return err
	}
	o.UnitPrice = unitPrice
	o.Base = b.Base
	o.Fee = b.Fee
	o.FeeType = b.FeeType
	o.Total = b.Total
	return nil
}

// Breakdown returns the stored fee breakdown.
func (o *Order) Breakdown() pricing.Breakdown {
	return pricing.Breakdown{Base: o.Base, Fee: o.Fee, FeeType: o.FeeType, Total: o.Total}
}

// Advance moves the order to status to and records the event.
func (o *Order) Advance(to Status, note string, now time.Time) error {
	if err := CanTransition(o.Status, to); err != nil {
		return err
	}
	o.Status = to
	if to == StatusPaid && o.PaidAt == nil {
		paid := now
		o.PaidAt = &paid
	}
	o.Events = append(o.Events, StatusEvent{OrderID: o.ID, Status: to, Note: note, At: now})
	return nil
}

// Filter narrows order listings. Zero values mean "any".
type Filter struct {
	AccountID string
	Status    Status
	Limit     int
}

// StageView is one step of the tracking progress bar.
type StageView struct {
	Status  Status `json:"status"`
	Label   string `json:"label"`
	Done    bool   `json:"done"`
	Current bool   `json:"current"`
}

// Tracking is the shipment progress of an order.
type Tracking struct {
	Status    Status      `json:"status"`
	Label     string      `json:"label"`
	Progress  int         `json:"progress"`
	Cancelled bool        `json:"cancelled"`
	Stages    []StageView `json:"stages"`
}

func (o *Order) Track() Tracking {
	t := Tracking{
		Status:    o.Status,
		Label:     o.Status.Label(),
		Progress:  o.Status.Progress(),
		Cancelled: o.Status == StatusCancelled,
	}
	cur := o.Status.Stage()
	for i, st := range stages {
		t.Stages = append(t.Stages, StageView{
			Status:  st,
			Label:   st.Label(),
			Done:    cur >= 0 && i <= cur,
			Current: i == cur,
		})
	}
	return t
}
