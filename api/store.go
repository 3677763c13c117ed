package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Fiedly71/up-to-date-store-sub000/cache"
	"github.com/Fiedly71/up-to-date-store-sub000/logger"
	"github.com/Fiedly71/up-to-date-store-sub000/marketplace"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// cached serves key from the cache, or computes it with fill and stores the
// encoded result. Cache failures fall back to fill.
func (h *Handler) cached(c echo.Context, key string, fill func() (interface{}, error)) error {
	ctx := c.Request().Context()
	if h.opts.Cache != nil {
		if data, err := h.opts.Cache.Get(ctx, key); err == nil {
			c.Response().Header().Set("X-Cache", "HIT")
			return c.JSONBlob(http.StatusOK, data)
		} else if !errors.Is(err, cache.ErrMiss) {
			logger.Log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, err := fill()
	if err != nil {
		return h.Fail(c, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return h.Fail(c, err)
	}

	if h.opts.Cache != nil {
		h.store(ctx, key, data)
		c.Response().Header().Set("X-Cache", "MISS")
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) store(ctx context.Context, key string, data []byte) {
	if err := h.opts.Cache.Set(ctx, key, data, h.opts.CacheTTL); err != nil {
		logger.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (h *Handler) HandleCatalog(c echo.Context) error {
	category := strings.ToLower(strings.TrimSpace(c.QueryParam("category")))
	return h.cached(c, "catalog:"+category, func() (interface{}, error) {
		return h.opts.Catalog.List(category), nil
	})
}

func (h *Handler) HandleCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.opts.Catalog.Categories())
}

func (h *Handler) HandleProduct(c echo.Context) error {
	p, err := h.opts.Catalog.Get(c.Param("id"))
	if err != nil {
		return h.Fail(c, err)
	}
	q, err := h.opts.Converter.Quote(p.Price)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"product": p,
		"quote":   q,
	})
}

// HandleQuote prices an arbitrary base amount, e.g. a marketplace price the
// customer is considering.
func (h *Handler) HandleQuote(c echo.Context) error {
	price, err := strconv.ParseFloat(strings.TrimSpace(c.QueryParam("price")), 64)
	if err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request", errors.New("price must be a number"))
	}
	key := "quote:" + strconv.FormatFloat(price, 'f', -1, 64)
	return h.cached(c, key, func() (interface{}, error) {
		return h.opts.Converter.Quote(price)
	})
}

func (h *Handler) HandleParseLink(c echo.Context) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	link, err := marketplace.ParseLink(body.URL)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, link)
}
