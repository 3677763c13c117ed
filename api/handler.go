package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/cache"
	"github.com/Fiedly71/up-to-date-store-sub000/catalog"
	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/flow"
	"github.com/Fiedly71/up-to-date-store-sub000/logger"
	"github.com/Fiedly71/up-to-date-store-sub000/marketplace"
	"github.com/Fiedly71/up-to-date-store-sub000/order"
	"github.com/Fiedly71/up-to-date-store-sub000/payment"
	"github.com/Fiedly71/up-to-date-store-sub000/pricing"
	"github.com/Fiedly71/up-to-date-store-sub000/rbac"
	"github.com/Fiedly71/up-to-date-store-sub000/session"
	"github.com/Fiedly71/up-to-date-store-sub000/token"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// msgInvalidLink is the only message clients get for a rejected recovery or
// invite link, whatever the reason.
const msgInvalidLink = "invalid or expired link"

// Options carries the handler's collaborators. Cache may be nil.
type Options struct {
	Accounts     domain.AccountStorage
	Registration *flow.RegistrationManager
	Login        *flow.LoginManager
	Profile      *flow.ProfileManager
	Recovery     *flow.RecoveryManager
	Invites      *flow.InviteManager
	Orders       *flow.OrderManager
	Sessions     *session.Manager
	Access       *rbac.Middleware
	Catalog      *catalog.Catalog
	Converter    pricing.Converter
	WhatsApp     *payment.WhatsApp
	Cache        cache.Cache
	CacheTTL     time.Duration
}

type Handler struct {
	opts Options
}

func NewHandler(opts Options) *Handler {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Handler{opts: opts}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/catalog", h.HandleCatalog)
	g.GET("/catalog/categories", h.HandleCategories)
	g.GET("/catalog/:id", h.HandleProduct)
	g.GET("/quote", h.HandleQuote)
	g.POST("/links/parse", h.HandleParseLink)

	g.POST("/registration", h.HandleRegistration)
	g.POST("/login", h.HandleLogin)
	g.POST("/recovery", h.HandleRecoveryInitiate)
	g.GET("/recovery", h.HandleRecoveryInspect)
	g.POST("/recovery/reset", h.HandleRecoveryReset)
	g.GET("/invitations", h.HandleInviteInspect)
	g.POST("/invitations/accept", h.HandleInviteAccept)

	// Protected routes
	protected := g.Group("")
	protected.Use(h.opts.Access.Authenticate)
	protected.POST("/logout", h.HandleLogout)
	protected.GET("/whoami", h.HandleWhoAmI)
	protected.PATCH("/profile", h.HandleUpdateProfile)
	protected.POST("/password", h.HandleChangePassword)
	protected.POST("/orders", h.HandleCreateOrder)
	protected.GET("/orders", h.HandleListOrders)
	protected.GET("/orders/:id", h.HandleGetOrder)
	protected.GET("/orders/:id/whatsapp", h.HandleWhatsAppLink)

	admin := protected.Group("/admin")
	admin.Use(h.opts.Access.RequireAdmin)
	admin.GET("/accounts", h.HandleListAccounts)
	admin.POST("/invitations", h.HandleInvite)
	admin.GET("/orders", h.HandleAdminListOrders)
	admin.PATCH("/orders/:id/status", h.HandleAdvanceOrder)
	admin.PATCH("/orders/:id/price", h.HandleRepriceOrder)
	admin.PATCH("/orders/:id/payment", h.HandleSetPayment)
}

// Error writes the standard error body.
func (h *Handler) Error(c echo.Context, code int, message string, err error) error {
	resp := map[string]interface{}{
		"status": message,
		"code":   code,
	}
	if err != nil && code < http.StatusInternalServerError {
		resp["error"] = err.Error()
	}
	if code >= http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.JSON(code, resp)
}

// Fail maps a domain error onto an HTTP status.
func (h *Handler) Fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, flow.ErrStaleToken),
		errors.Is(err, flow.ErrTokenType):
		// deliberately no detail
		return h.Error(c, http.StatusBadRequest, msgInvalidLink, nil)

	case errors.Is(err, flow.ErrInvalidCredentials):
		return h.Error(c, http.StatusUnauthorized, "Unauthorized", err)

	case errors.Is(err, flow.ErrRateLimited):
		return h.Error(c, http.StatusTooManyRequests, "Too many requests", err)

	case errors.Is(err, flow.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		return h.Error(c, http.StatusNotFound, "Not found", err)

	case errors.Is(err, flow.ErrEmailTaken),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, flow.ErrOrderNotPending):
		return h.Error(c, http.StatusConflict, "Conflict", err)

	case errors.Is(err, flow.ErrInvalidEmail),
		errors.Is(err, flow.ErrWeakPassword),
		errors.Is(err, flow.ErrPasswordTooLong),
		errors.Is(err, flow.ErrInvalidOrder),
		errors.Is(err, pricing.ErrInvalidBase),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, marketplace.ErrInvalidLink),
		errors.Is(err, marketplace.ErrUnsupportedLink):
		return h.Error(c, http.StatusBadRequest, "Invalid request", err)

	case errors.Is(err, payment.ErrNoNumber):
		return h.Error(c, http.StatusServiceUnavailable, "Payment desk unavailable", err)
	}
	return h.Error(c, http.StatusInternalServerError, "Internal server error", err)
}
