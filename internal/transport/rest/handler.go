// Package rest provides HTTP handlers for the ramen catalog.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	cerrors "github.com/ramenworks/ramenratings/internal/errors"
	"github.com/ramenworks/ramenratings/internal/service"
	"github.com/ramenworks/ramenratings/pkg/web"
)

// maxUploadBytes bounds the multipart form size for create/update requests.
const maxUploadBytes = 10 << 20

type Handler struct {
	service   service.CatalogService
	imagesDir string
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewHandler creates a new catalog API handler. imagesDir is served
// read-only under /images/.
func NewHandler(service service.CatalogService, imagesDir string, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		imagesDir: imagesDir,
		validate:  validator.New(),
		logger:    logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/compare", h.Compare)

			r.Route("/{number}", func(r chi.Router) {
				r.Get("/", h.FindByNumber)
				r.Put("/", h.Update)
				r.Delete("/", h.DeleteByNumber)
				r.Post("/ratings", h.AddRating)
			})
		})
		r.Get("/stats", h.Stats)
		r.Get("/options", h.FormOptions)
	})

	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(h.imagesDir))))
	r.Get("/healthz", h.HealthCheck)
}

// ratingRequest is the body of POST /products/{number}/ratings.
type ratingRequest struct {
	Rating   int    `json:"rating"   validate:"required,min=1,max=5"`
	Feedback string `json:"feedback" validate:"omitempty,max=500"`
}

// createForm mirrors the product creation form. Brand and Style carry either
// an existing dropdown value or "Other" with the new value alongside.
type createForm struct {
	Brand      string `validate:"required,max=20"`
	NewBrand   string `validate:"omitempty,max=20"`
	Style      string `validate:"required,max=20"`
	NewStyle   string `validate:"omitempty,max=20"`
	Country    string `validate:"required"`
	Variety    string `validate:"required,max=35"`
	Vegetarian string `validate:"required,oneof='Veg' 'Not Veg'"`
	Rating     int    `validate:"required,min=1,max=5"`
}

func (f createForm) toService() service.ProductForm {
	return service.ProductForm{
		Brand:      f.Brand,
		NewBrand:   f.NewBrand,
		Style:      f.Style,
		NewStyle:   f.NewStyle,
		Country:    f.Country,
		Variety:    f.Variety,
		Vegetarian: f.Vegetarian,
		Rating:     f.Rating,
	}
}

// updateForm mirrors the product update form. Empty variety, country, and
// vegetarian fields mean "keep the stored value".
type updateForm struct {
	Brand      string `validate:"required,max=20"`
	NewBrand   string `validate:"omitempty,max=20"`
	Style      string `validate:"required,max=20"`
	NewStyle   string `validate:"omitempty,max=20"`
	Country    string
	Variety    string `validate:"omitempty,max=35"`
	Vegetarian string `validate:"omitempty,oneof='Veg' 'Not Veg'"`
}

func (f updateForm) toService() service.ProductForm {
	return service.ProductForm{
		Brand:      f.Brand,
		NewBrand:   f.NewBrand,
		Style:      f.Style,
		NewStyle:   f.NewStyle,
		Country:    f.Country,
		Variety:    f.Variety,
		Vegetarian: f.Vegetarian,
	}
}

// List retrieves products after applying the filter, search, and sort
// query parameters: brand, style, minRating, maxRating, search, sort.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	q := r.URL.Query()

	opts := service.ListOptions{
		Brands: q["brand"],
		Styles: q["style"],
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	minRating, minPresent := web.ParseQueryFloat(r, "minRating", 1.0)
	maxRating, maxPresent := web.ParseQueryFloat(r, "maxRating", 5.0)
	opts.MinRating = minRating
	opts.MaxRating = maxRating
	opts.RateByAvg = minPresent || maxPresent

	mLogger.DebugContext(r.Context(), "Received request to list products",
		"brands", opts.Brands, "styles", opts.Styles, "search", opts.Search, "sort", opts.Sort)
	list, err := h.service.List(r.Context(), opts)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByNumber retrieves a product by its number.
func (h *Handler) FindByNumber(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	number, ok := web.ParseNumber(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by number", "number", number)
	found, err := h.service.FindByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, cerrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "number", number)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product %d not found", number))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "number", number, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product %d", number))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// AddRating appends a star rating, with optional feedback, to a product.
func (h *Handler) AddRating(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	number, ok := web.ParseNumber(w, r, mLogger)
	if !ok {
		return
	}

	var req ratingRequest
	if !h.decodeAndValidate(w, r, mLogger, &req) {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to add rating", "number", number, "rating", req.Rating)
	if err := h.service.AddRating(r.Context(), number, req.Rating, req.Feedback); err != nil {
		if errors.Is(err, cerrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for rating", "number", number)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product %d not found", number))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error adding rating", "number", number, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to add rating to product %d", number))
		return
	}
	mLogger.InfoContext(r.Context(), "Rating added successfully", "number", number, "rating", req.Rating)
	w.WriteHeader(http.StatusNoContent)
}

// Create handles the creation of a new product from a multipart form with
// an image upload.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		mLogger.ErrorContext(r.Context(), "Error parsing multipart form", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	form := createForm{
		Brand:      r.FormValue("brand"),
		NewBrand:   r.FormValue("newBrand"),
		Style:      r.FormValue("style"),
		NewStyle:   r.FormValue("newStyle"),
		Country:    r.FormValue("country"),
		Variety:    r.FormValue("variety"),
		Vegetarian: r.FormValue("vegetarian"),
		Rating:     atoiOrZero(r.FormValue("rating")),
	}
	if !h.validateStruct(w, r, mLogger, form) {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		mLogger.WarnContext(r.Context(), "Missing product image upload", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "An image file is required")
		return
	}
	defer file.Close()

	created, err := h.service.Create(r.Context(), form.toService(),
		service.ImageUpload{Filename: header.Filename, Content: file})
	if err != nil {
		if h.respondFlowError(w, r, mLogger, err) {
			return
		}
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "number", created.Number, "variety", created.Variety)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update handles the update of an existing product. The image upload is
// optional; an omitted file keeps the stored image.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	number, ok := web.ParseNumber(w, r, mLogger)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		mLogger.ErrorContext(r.Context(), "Error parsing multipart form", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	form := updateForm{
		Brand:      r.FormValue("brand"),
		NewBrand:   r.FormValue("newBrand"),
		Style:      r.FormValue("style"),
		NewStyle:   r.FormValue("newStyle"),
		Country:    r.FormValue("country"),
		Variety:    r.FormValue("variety"),
		Vegetarian: r.FormValue("vegetarian"),
	}
	if !h.validateStruct(w, r, mLogger, form) {
		return
	}

	var upload *service.ImageUpload
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		upload = &service.ImageUpload{Filename: header.Filename, Content: file}
	case errors.Is(err, http.ErrMissingFile):
		// keep the stored image
	default:
		mLogger.ErrorContext(r.Context(), "Error reading image upload", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid image upload")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to update product", "number", number)
	updated, err := h.service.Update(r.Context(), number, form.toService(), upload)
	if err != nil {
		if errors.Is(err, cerrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for update", "number", number)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product %d not found", number))
			return
		}
		if h.respondFlowError(w, r, mLogger, err) {
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating product", "number", number, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update product %d", number))
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "number", updated.Number, "variety", updated.Variety)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteByNumber deletes a product and returns the removed record.
func (h *Handler) DeleteByNumber(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	number, ok := web.ParseNumber(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to delete product", "number", number)
	removed, err := h.service.Delete(r.Context(), number)
	if err != nil {
		if errors.Is(err, cerrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for deletion", "number", number)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product %d not found", number))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting product", "number", number, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete product %d", number))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "number", number)
	web.RespondJSON(w, mLogger, http.StatusOK, removed)
}

// Compare returns two distinct products side by side, selected by the
// first and second query parameters.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	first, ok := web.ParseQueryInt(r, w, mLogger, "first")
	if !ok {
		return
	}
	second, ok := web.ParseQueryInt(r, w, mLogger, "second")
	if !ok {
		return
	}

	comparison, err := h.service.Compare(r.Context(), first, second)
	if err != nil {
		if errors.Is(err, cerrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "One of the selected products was not found")
			return
		}
		if h.respondFlowError(w, r, mLogger, err) {
			return
		}
		mLogger.ErrorContext(r.Context(), "Error comparing products", "first", first, "second", second, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to compare products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, comparison)
}

// Stats returns collection-wide statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error aggregating stats", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to aggregate statistics")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, stats)
}

// FormOptions returns the distinct brands and styles for form dropdowns.
func (h *Handler) FormOptions(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	options, err := h.service.FormOptions(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving form options", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch form options")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, options)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodeAndValidate decodes the JSON body into dst and validates it,
// responding with an error and returning false on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return h.validateStruct(w, r, mLogger, dst)
}

// validateStruct runs struct-tag validation on v, responding with a
// field-to-rule map on failure.
func (h *Handler) validateStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, v any) bool {
	if err := h.validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondFlowError maps a service-level ValidationError to a 400 response.
// Returns true when the error was handled.
func (h *Handler) respondFlowError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error) bool {
	var vErr *service.ValidationError
	if !errors.As(err, &vErr) {
		return false
	}
	mLogger.WarnContext(r.Context(), "Flow validation failed", "field", vErr.Field, "message", vErr.Message)
	web.RespondJSON(w, mLogger, http.StatusBadRequest,
		map[string]any{"validation_errors": map[string]string{vErr.Field: vErr.Message}})
	return true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func atoiOrZero(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
