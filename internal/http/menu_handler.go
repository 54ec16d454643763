package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_food/internal/domain"
	"github.com/fjod/go_food/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxMultipartMemory = 8 << 20

type MenuService interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	Get(ctx context.Context, id int64) (*domain.MenuItem, error)
	Create(ctx context.Context, input service.MenuItemInput) (*domain.MenuItem, error)
	Update(ctx context.Context, id int64, input service.MenuItemInput) (*domain.MenuItem, error)
	Delete(ctx context.Context, id int64) error
}

type MenuHandler struct {
	svc     MenuService
	timeout time.Duration
}

func NewMenuHandler(svc MenuService, timeout time.Duration) *MenuHandler {
	return &MenuHandler{
		svc:     svc,
		timeout: timeout,
	}
}

type MenuItemResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// GET /api/foods
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.svc.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, convertMenuItem(&item))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/foods/{id}
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Get(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertMenuItem(item))
}

// POST /api/foods (multipart, optional image part)
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	input, cleanup, ok := parseMenuItemForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	item, err := h.svc.Create(ctx, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertMenuItem(item))
}

// PUT /api/foods/{id}
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	input, cleanup, ok := parseMenuItemForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	item, err := h.svc.Update(ctx, id, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertMenuItem(item))
}

// DELETE /api/foods/{id}
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// parseMenuItemForm reads the multipart payload of a menu mutation. The
// returned cleanup must be deferred; it closes the uploaded file, if any.
func parseMenuItemForm(w http.ResponseWriter, r *http.Request) (service.MenuItemInput, func(), bool) {
	noop := func() {}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respondError(w, http.StatusBadRequest, "invalid_request", "malformed form payload")
		return service.MenuItemInput{}, noop, false
	}

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must be a decimal number")
		return service.MenuItemInput{}, noop, false
	}

	input := service.MenuItemInput{
		Name:        r.FormValue("name"),
		Price:       price,
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return input, noop, true
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_image", "malformed image part")
		return service.MenuItemInput{}, noop, false
	}

	input.Image = &service.ImageUpload{
		Data:     file,
		Filename: header.Filename,
	}
	return input, func() { file.Close() }, true
}

func convertMenuItem(item *domain.MenuItem) MenuItemResponse {
	dto := MenuItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Price:       item.Price,
		Category:    item.Category,
		Description: item.Description,
		CreatedAt:   item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.Format(time.RFC3339),
	}
	if item.Image != "" {
		dto.ImageURL = "/uploads/" + item.Image
	}
	return dto
}
