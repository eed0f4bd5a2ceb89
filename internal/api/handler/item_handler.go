package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/storefront/internal/api/metrics"
	"github.com/stockroom/storefront/internal/core/domain"
	"github.com/stockroom/storefront/internal/core/ports"
)

// ItemHandler handles catalogue and stock requests.
type ItemHandler struct {
	service ports.ItemService
}

func NewItemHandler(service ports.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// listItemsQuery keeps the price bounds as raw strings so a non-numeric
// bound is reported as a validation failure rather than a bind error.
type listItemsQuery struct {
	Name     string `query:"name"`
	Category string `query:"category"`
	MinPrice string `query:"minPrice" validate:"omitempty,numeric"`
	MaxPrice string `query:"maxPrice" validate:"omitempty,numeric"`
}

// List handles GET /api/items.
//
// @Summary      List items
// @Tags         items
// @Produce      json
// @Param        name      query     string  false  "Case-insensitive name substring"
// @Param        category  query     string  false  "Case-insensitive category substring"
// @Param        minPrice  query     number  false  "Minimum price (inclusive)"
// @Param        maxPrice  query     number  false  "Maximum price (inclusive)"
// @Success      200       {object}  itemsResponse
// @Failure      400       {object}  errorEnvelope
// @Router       /items [get]
func (h *ItemHandler) List(c echo.Context) error {
	var q listItemsQuery
	if err := echo.QueryParamsBinder(c).
		String("name", &q.Name).
		String("category", &q.Category).
		String("minPrice", &q.MinPrice).
		String("maxPrice", &q.MaxPrice).
		BindError(); err != nil {
		return &domain.ValidationError{Message: "Invalid query parameters"}
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	in := ports.ListItemsInput{Name: q.Name, Category: q.Category}
	in.MinPrice = parseBound(q.MinPrice)
	in.MaxPrice = parseBound(q.MaxPrice)

	items, err := h.service.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.Item{}
	}
	return c.JSON(http.StatusOK, itemsResponse{Items: items})
}

func parseBound(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Get handles GET /api/items/:id.
//
// @Summary      Get an item
// @Tags         items
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  itemResponse
// @Failure      400  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /items/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, itemResponse{Item: item})
}

// Create handles POST /api/items.
//
// @Summary      Create an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        body  body      ports.CreateItemInput  true  "Item"
// @Success      201   {object}  itemResponse
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      403   {object}  errorEnvelope
// @Router       /items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	var req ports.CreateItemInput
	if err := bindBody(c, &req); err != nil {
		return err
	}

	item, err := h.service.Create(c.Request().Context(), caller(c), req)
	if err != nil {
		return err
	}
	metrics.CatalogChangesTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, itemResponse{Item: item})
}

// Update handles PUT /api/items/:id. Only the supplied fields change.
//
// @Summary      Update an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        id    path      string                 true  "Item ID"
// @Param        body  body      ports.UpdateItemInput  true  "Fields to change"
// @Success      200   {object}  itemResponse
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      403   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /items/{id} [put]
func (h *ItemHandler) Update(c echo.Context) error {
	id, err := h.itemID(c)
	if err != nil {
		return err
	}
	var req ports.UpdateItemInput
	if err := bindBody(c, &req); err != nil {
		return err
	}

	item, err := h.service.Update(c.Request().Context(), caller(c), id, req)
	if err != nil {
		return err
	}
	metrics.CatalogChangesTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, itemResponse{Item: item})
}

// Delete handles DELETE /api/items/:id.
//
// @Summary      Delete an item
// @Tags         items
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorEnvelope
// @Failure      401  {object}  errorEnvelope
// @Failure      403  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /items/{id} [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), caller(c), c.Param("id")); err != nil {
		return err
	}
	metrics.CatalogChangesTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Item deleted successfully"})
}

// Purchase handles POST /api/items/:id/purchase.
//
// @Summary      Purchase an item
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        id               path      string                  true   "Item ID"
// @Param        Idempotency-Key  header    string                  false  "Deduplicates retried purchases"
// @Param        body             body      ports.StockChangeInput  true   "Quantity to buy"
// @Success      200              {object}  purchaseResponse
// @Failure      400              {object}  errorEnvelope
// @Failure      401              {object}  errorEnvelope
// @Failure      404              {object}  errorEnvelope
// @Failure      409              {object}  errorEnvelope
// @Router       /items/{id}/purchase [post]
func (h *ItemHandler) Purchase(c echo.Context) error {
	id, err := h.itemID(c)
	if err != nil {
		metrics.PurchasesTotal.WithLabelValues("rejected").Inc()
		return err
	}
	var req ports.StockChangeInput
	if err := bindBody(c, &req); err != nil {
		metrics.PurchasesTotal.WithLabelValues("rejected").Inc()
		return err
	}
	req.IdempotencyKey = c.Request().Header.Get("Idempotency-Key")

	item, err := h.service.Purchase(c.Request().Context(), caller(c), id, req)
	metrics.PurchasesTotal.WithLabelValues(purchaseResult(err)).Inc()
	if err != nil {
		return err
	}
	metrics.UnitsSoldTotal.Add(*req.Quantity)
	return c.JSON(http.StatusOK, purchaseResponse{Message: "Purchase successful", Item: item})
}

// Restock handles POST /api/items/:id/restock.
//
// @Summary      Restock an item
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        id    path      string                  true  "Item ID"
// @Param        body  body      ports.StockChangeInput  true  "Quantity to add"
// @Success      200   {object}  itemResponse
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      403   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /items/{id}/restock [post]
func (h *ItemHandler) Restock(c echo.Context) error {
	id, err := h.itemID(c)
	if err != nil {
		return err
	}
	var req ports.StockChangeInput
	if err := bindBody(c, &req); err != nil {
		return err
	}

	item, err := h.service.Restock(c.Request().Context(), caller(c), id, req)
	if err != nil {
		return err
	}
	metrics.UnitsRestockedTotal.Add(*req.Quantity)
	return c.JSON(http.StatusOK, itemResponse{Item: item})
}

// itemID rejects a malformed :id before the request body is read, so a bad id
// is reported ahead of a bad body.
func (h *ItemHandler) itemID(c echo.Context) (string, error) {
	id := c.Param("id")
	if !h.service.ValidID(id) {
		return "", domain.ErrInvalidID
	}
	return id, nil
}

func purchaseResult(err error) string {
	var ve *domain.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrItemNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicateRequest):
		return "duplicate"
	case errors.As(err, &ve),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbidden):
		return "rejected"
	default:
		return "error"
	}
}
