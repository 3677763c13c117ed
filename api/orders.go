package api

import (
	"net/http"
	"strconv"

	"github.com/Fiedly71/up-to-date-store-sub000/flow"
	"github.com/Fiedly71/up-to-date-store-sub000/order"
	"github.com/Fiedly71/up-to-date-store-sub000/rbac"
	"github.com/labstack/echo/v4"
)

// orderView adds derived, never-persisted fields to an order.
type orderView struct {
	*order.Order
	Tracking     order.Tracking `json:"tracking"`
	DisplayTotal string         `json:"display_total"`
}

func (h *Handler) view(o *order.Order) orderView {
	return orderView{
		Order:        o,
		Tracking:     o.Track(),
		DisplayTotal: h.opts.Converter.Format(o.Total),
	}
}

func (h *Handler) views(orders []order.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for i := range orders {
		out = append(out, h.view(&orders[i]))
	}
	return out
}

func (h *Handler) HandleCreateOrder(c echo.Context) error {
	var body flow.OrderRequest
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	o, err := h.opts.Orders.Create(c.Request().Context(), rbac.AccountFrom(c).ID, body)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusCreated, h.view(o))
}

func (h *Handler) HandleListOrders(c echo.Context) error {
	orders, err := h.opts.Orders.List(c.Request().Context(), order.Filter{AccountID: rbac.AccountFrom(c).ID})
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, h.views(orders))
}

func (h *Handler) HandleGetOrder(c echo.Context) error {
	o, err := h.ownOrder(c)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, h.view(o))
}

func (h *Handler) HandleWhatsAppLink(c echo.Context) error {
	o, err := h.ownOrder(c)
	if err != nil {
		return h.Fail(c, err)
	}
	link, err := h.opts.WhatsApp.Link(o)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": link})
}

// ownOrder loads the :id order of the caller. Admins may read any order.
func (h *Handler) ownOrder(c echo.Context) (*order.Order, error) {
	acct := rbac.AccountFrom(c)
	if acct.IsAdmin {
		return h.opts.Orders.Get(c.Request().Context(), c.Param("id"))
	}
	return h.opts.Orders.GetFor(c.Request().Context(), acct.ID, c.Param("id"))
}

func (h *Handler) HandleAdminListOrders(c echo.Context) error {
	f := order.Filter{AccountID: c.QueryParam("account_id")}
	if s := c.QueryParam("status"); s != "" {
		st, err := order.ParseStatus(s)
		if err != nil {
			return h.Fail(c, err)
		}
		f.Status = st
	}
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			return h.Error(c, http.StatusBadRequest, "Invalid request", nil)
		}
		f.Limit = n
	}

	orders, err := h.opts.Orders.List(c.Request().Context(), f)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, h.views(orders))
}

func (h *Handler) HandleAdvanceOrder(c echo.Context) error {
	var body struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}
	st, err := order.ParseStatus(body.Status)
	if err != nil {
		return h.Fail(c, err)
	}

	o, err := h.opts.Orders.Advance(c.Request().Context(), c.Param("id"), st, body.Note)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, h.view(o))
}

func (h *Handler) HandleRepriceOrder(c echo.Context) error {
	var body struct {
		UnitPrice float64 `json:"unit_price"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	o, err := h.opts.Orders.Reprice(c.Request().Context(), c.Param("id"), body.UnitPrice)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, h.view(o))
}

func (h *Handler) HandleSetPayment(c echo.Context) error {
	var body struct {
		Method    string `json:"method"`
		Reference string `json:"reference"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	o, err := h.opts.Orders.SetPayment(c.Request().Context(), c.Param("id"), body.Method, body.Reference)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, h.view(o))
}
