package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/catalog"
	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/logger"
	"github.com/Fiedly71/up-to-date-store-sub000/marketplace"
	"github.com/Fiedly71/up-to-date-store-sub000/metrics"
	"github.com/Fiedly71/up-to-date-store-sub000/order"
	"go.uber.org/zap"
)

// MaxQuantity caps the units of a single order line.
const MaxQuantity = 100

var (
	ErrOrderNotFound   = errors.New("flow: order not found")
	ErrInvalidOrder    = errors.New("flow: invalid order")
	ErrOrderNotPending = errors.New("flow: order can only be repriced while pending")
)

// OrderRequest is a customer's order submission. Either ProductID (catalog)
// or ProductURL (pasted marketplace link) must be set. UnitPrice is only read
// for link orders, where it is the price the customer saw on the marketplace.
type OrderRequest struct {
	ProductID       string  `json:"product_id"`
	ProductURL      string  `json:"product_url"`
	Title           string  `json:"title"`
	UnitPrice       float64 `json:"unit_price"`
	Quantity        int     `json:"quantity"`
	Options         string  `json:"options"`
	Notes           string  `json:"notes"`
	ShippingAddress string  `json:"shipping_address"`
	Phone           string  `json:"phone"`
	PaymentMethod   string  `json:"payment_method"`
}

type OrderManager struct {
	repo    domain.OrderStorage
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOrderManager(repo domain.OrderStorage, cat *catalog.Catalog) *OrderManager {
	return &OrderManager{repo: repo, catalog: cat, now: time.Now}
}

func (m *OrderManager) SetMetrics(mt *metrics.Metrics) { m.metrics = mt }

// Create prices and stores a new pending order for accountID.
func (m *OrderManager) Create(ctx context.Context, accountID string, req OrderRequest) (*order.Order, error) {
	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 || req.Quantity > MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidOrder, MaxQuantity)
	}
	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: shipping address is required", ErrInvalidOrder)
	}

	o := order.New(accountID, m.now())
	o.Quantity = req.Quantity
	o.Options = strings.TrimSpace(req.Options)
	o.Notes = strings.TrimSpace(req.Notes)
	o.ShippingAddress = address
	o.Phone = strings.TrimSpace(req.Phone)
	o.PaymentMethod = method

	var unit float64
	switch {
	case req.ProductID != "" && req.ProductURL != "":
		return nil, fmt.Errorf("%w: give either a catalog product or a link, not both", ErrInvalidOrder)
	case req.ProductID != "":
		p, err := m.catalog.Get(req.ProductID)
		if err != nil {
			return nil, err
		}
		o.Source = order.SourceCatalog
		o.ProductID = p.ID
		o.Title = p.Name
		o.Marketplace = p.Marketplace
		unit = p.Price
	case req.ProductURL != "":
		link, err := marketplace.ParseLink(req.ProductURL)
		if err != nil {
			return nil, err
		}
		o.Source = order.SourceLink
		o.ProductURL = link.URL
		o.Marketplace = link.Marketplace
		o.ProductRef = link.ProductRef
		o.Title = strings.TrimSpace(req.Title)
		if o.Title == "" {
			o.Title = link.Marketplace + " item"
		}
		if req.UnitPrice <= 0 {
			return nil, fmt.Errorf("%w: unit price is required for link orders", ErrInvalidOrder)
		}
		unit = req.UnitPrice
	default:
		return nil, fmt.Errorf("%w: a catalog product or a product link is required", ErrInvalidOrder)
	}

	if err := o.Price(unit); err != nil {
		return nil, err
	}
	if err := m.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("order: create: %w", err)
	}

	m.metrics.OrderCreated(string(o.Source))
	logger.Log.Info("order created",
		zap.String("reference", o.Reference),
		zap.String("account_id", accountID),
		zap.Float64("total", o.Total),
	)
	return o, nil
}

// Get loads an order by ID or reference.
func (m *OrderManager) Get(ctx context.Context, id string) (*order.Order, error) {
	o, err := m.repo.GetOrder(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order: get: %w", err)
	}
	return o, nil
}

// GetFor loads an order owned by accountID. Orders of other accounts are
// reported as not found.
func (m *OrderManager) GetFor(ctx context.Context, accountID, id string) (*order.Order, error) {
	o, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.AccountID != accountID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (m *OrderManager) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	return m.repo.ListOrders(ctx, f)
}

// Advance moves an order along the shipment track.
func (m *OrderManager) Advance(ctx context.Context, id string, to order.Status, note string) (*order.Order, error) {
	o, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Advance(to, strings.TrimSpace(note), m.now()); err != nil {
		return nil, err
	}
	if err := m.repo.UpdateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("order: advance: %w", err)
	}

	m.metrics.StatusChanged(string(to))
	logger.Log.Info("order status changed", zap.String("reference", o.Reference), zap.String("status", string(to)))
	return o, nil
}

// Reprice sets a new unit price, typically once the real marketplace price of
// a link order is known.
func (m *OrderManager) Reprice(ctx context.Context, id string, unitPrice float64) (*order.Order, error) {
	o, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, ErrOrderNotPending
	}
	if err := o.Price(unitPrice); err != nil {
		return nil, err
	}
	if err := m.repo.UpdateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("order: reprice: %w", err)
	}
	return o, nil
}

// SetPayment records a payment reference and marks a pending order as paid.
func (m *OrderManager) SetPayment(ctx context.Context, id, method, reference string) (*order.Order, error) {
	pm, err := order.ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}
	o, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = pm
	o.PaymentReference = strings.TrimSpace(reference)
	if o.Status == order.StatusPending {
		if err := o.Advance(order.StatusPaid, "payment recorded", m.now()); err != nil {
			return nil, err
		}
		m.metrics.StatusChanged(string(order.StatusPaid))
	}
	if err := m.repo.UpdateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("order: set payment: %w", err)
	}
	return o, nil
}
