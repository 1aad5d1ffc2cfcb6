package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/inventory-vision-backend/internal/middleware"
	"github.com/shinyyama/inventory-vision-backend/internal/model"
	"github.com/shinyyama/inventory-vision-backend/internal/repository"
	"github.com/shinyyama/inventory-vision-backend/internal/service"
)

type ItemHandler struct {
	svc service.ItemService
}

func NewItemHandler(svc service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

type ItemResponse struct {
	ID              uint64  `json:"id"`
	ItemID          string  `json:"item_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Vendor          string  `json:"vendor"`
	ManufactureDate string  `json:"manufacture_date"`
	Categories      string  `json:"categories"`
	Subcategories   string  `json:"subcategories"`
	ImageURL        *string `json:"imageUrl"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Total int64          `json:"total"`
}

type CreateItemRequest struct {
	ItemID          string  `json:"item_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Vendor          string  `json:"vendor"`
	ManufactureDate string  `json:"manufacture_date"`
	Categories      string  `json:"categories"`
	Subcategories   string  `json:"subcategories"`
	ImageURL        *string `json:"imageUrl"`
}

type UpdateItemRequest struct {
	ItemID          *string `json:"item_id"`
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Vendor          *string `json:"vendor"`
	ManufactureDate *string `json:"manufacture_date"`
	Categories      *string `json:"categories"`
	Subcategories   *string `json:"subcategories"`
	ImageURL        *string `json:"imageUrl"`
}

func (h *ItemHandler) Create(c echo.Context) error {
	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, "invalid json"))
	}
	item, err := h.svc.Create(c.Request().Context(), middleware.OwnerUID(c), service.CreateItemParams{
		ItemID:          req.ItemID,
		Title:           req.Title,
		Description:     req.Description,
		Vendor:          req.Vendor,
		ManufactureDate: req.ManufactureDate,
		Categories:      req.Categories,
		Subcategories:   req.Subcategories,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		return itemError(c, err)
	}
	return c.JSON(http.StatusCreated, toItemResponse(item))
}

func (h *ItemHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, "invalid id"))
	}
	item, err := h.svc.Get(c.Request().Context(), middleware.OwnerUID(c), id)
	if err != nil {
		return itemError(c, err)
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

func (h *ItemHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	items, total, err := h.svc.List(c.Request().Context(), middleware.OwnerUID(c), limit, offset)
	if err != nil {
		return itemError(c, err)
	}
	return c.JSON(http.StatusOK, toItemListResponse(items, total))
}

func (h *ItemHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, "invalid id"))
	}
	var req UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, "invalid json"))
	}
	item, err := h.svc.Update(c.Request().Context(), middleware.OwnerUID(c), id, service.UpdateItemParams{
		ItemID:          req.ItemID,
		Title:           req.Title,
		Description:     req.Description,
		Vendor:          req.Vendor,
		ManufactureDate: req.ManufactureDate,
		Categories:      req.Categories,
		Subcategories:   req.Subcategories,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		return itemError(c, err)
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

func (h *ItemHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, "invalid id"))
	}
	if err := h.svc.Delete(c.Request().Context(), middleware.OwnerUID(c), id); err != nil {
		return itemError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

func (h *ItemHandler) Search(c echo.Context) error {
	items, err := h.svc.Search(c.Request().Context(), middleware.OwnerUID(c), c.QueryParam("q"))
	if err != nil {
		return itemError(c, err)
	}
	return c.JSON(http.StatusOK, toItemListResponse(items, int64(len(items))))
}

func (h *ItemHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context(), middleware.OwnerUID(c))
	if err != nil {
		return itemError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *ItemHandler) NextItemID(c echo.Context) error {
	next, err := h.svc.NextItemID(c.Request().Context(), middleware.OwnerUID(c))
	if err != nil {
		return itemError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"item_id": next})
}

func itemError(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, verr.Message))
	case errors.Is(err, service.ErrDuplicate):
		return c.JSON(http.StatusConflict, NewErrorResponse(codeConflict, "Item ID already exists"))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse(codeNotFound, "item not found"))
	case errors.Is(err, repository.ErrDBNotReady):
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse(codeDBUnavailable, "database is not ready"))
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(codeInternal, "unexpected error"))
	}
}

func toItemResponse(item *model.Item) ItemResponse {
	return ItemResponse{
		ID:              item.ID,
		ItemID:          item.ItemID,
		Title:           item.Title,
		Description:     item.Description,
		Vendor:          item.Vendor,
		ManufactureDate: item.ManufactureDate,
		Categories:      item.Categories,
		Subcategories:   item.Subcategories,
		ImageURL:        item.ImageURL,
		CreatedAt:       item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.Format(time.RFC3339),
	}
}

func toItemListResponse(items []model.Item, total int64) ItemListResponse {
	resp := ItemListResponse{
		Items: make([]ItemResponse, 0, len(items)),
		Total: total,
	}
	for i := range items {
		resp.Items = append(resp.Items, toItemResponse(&items[i]))
	}
	return resp
}
