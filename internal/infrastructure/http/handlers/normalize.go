// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alchemorsel/ingredients/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/ingredients/internal/infrastructure/http/response"
	"github.com/alchemorsel/ingredients/internal/infrastructure/recipesource"
	"github.com/alchemorsel/ingredients/internal/ports/inbound"
	"github.com/alchemorsel/ingredients/pkg/errors"
)

// NormalizeHandlers handles the ingredient REST API
type NormalizeHandlers struct {
	service      inbound.NormalizeService
	validate     *validator.Validate
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewNormalizeHandlers creates the handlers. Request bodies above
// maxBodyBytes are rejected with 413.
func NewNormalizeHandlers(service inbound.NormalizeService, maxBodyBytes int64, logger *zap.Logger) *NormalizeHandlers {
	validate := validator.New()
	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &NormalizeHandlers{
		service:      service,
		validate:     validate,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Routes mounts the API under r
func (h *NormalizeHandlers) Routes(r chi.Router) {
	r.Route("/ingredients", func(r chi.Router) {
		r.With(middleware.RequireContentType("application/json")).Group(func(r chi.Router) {
			r.Post("/normalize", h.Normalize)
			r.Post("/normalize/batch", h.NormalizeBatch)
			r.Post("/normalize/parts", h.NormalizeParts)
		})
		r.With(middleware.RequireContentType("text/html", "application/xhtml+xml")).
			Post("/extract", h.Extract)
	})

	r.With(middleware.RequireContentType("application/json")).Group(func(r chi.Router) {
		r.Post("/conversions", h.Convert)
		r.Post("/costs", h.EstimateCost)
	})

	r.Get("/units", h.Units)
	r.Get("/densities", h.Densities)
}

type normalizeRequest struct {
	// a pointer so that a missing line is told apart from an empty one
	Line *string `json:"line" validate:"required"`
}

type batchRequest struct {
	Lines []string `json:"lines" validate:"required"`
}

type partsRequest struct {
	Items []inbound.PartsCommand `json:"items" validate:"required,dive"`
}

// Normalize handles POST /api/v1/ingredients/normalize
func (h *NormalizeHandlers) Normalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if !h.bind(w, r, &req) {
		return
	}

	result, err := h.service.Normalize(r.Context(), *req.Line)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, result, "")
}

// NormalizeBatch handles POST /api/v1/ingredients/normalize/batch
func (h *NormalizeHandlers) NormalizeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.bind(w, r, &req) {
		return
	}

	result, err := h.service.NormalizeBatch(r.Context(), req.Lines)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, result, fmt.Sprintf("%d lines normalized", result.Total))
}

// NormalizeParts handles POST /api/v1/ingredients/normalize/parts
func (h *NormalizeHandlers) NormalizeParts(w http.ResponseWriter, r *http.Request) {
	var req partsRequest
	if !h.bind(w, r, &req) {
		return
	}

	result, err := h.service.NormalizeParts(r.Context(), req.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, result, fmt.Sprintf("%d ingredients normalized", result.Total))
}

// Extract handles POST /api/v1/ingredients/extract. The body is an HTML
// document holding a recipe.
func (h *NormalizeHandlers) Extract(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	// one byte over the limit so the MaxBytesReader reports the overflow
	source := recipesource.NewHTMLSource(body).WithMaxBytes(h.maxBodyBytes + 1)

	result, err := h.service.NormalizeRecipe(r.Context(), source)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, result, "")
}

// Convert handles POST /api/v1/conversions
func (h *NormalizeHandlers) Convert(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.ConvertCommand
	if !h.bind(w, r, &cmd) {
		return
	}

	result, err := h.service.Convert(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, result, "")
}

// EstimateCost handles POST /api/v1/costs
func (h *NormalizeHandlers) EstimateCost(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CostCommand
	if !h.bind(w, r, &cmd) {
		return
	}

	result, err := h.service.EstimateCost(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, result, "")
}

// Units handles GET /api/v1/units
func (h *NormalizeHandlers) Units(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.service.Units(r.Context()), "")
}

// Densities handles GET /api/v1/densities
func (h *NormalizeHandlers) Densities(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.service.Densities(r.Context()), "")
}

// bind decodes a JSON body into dst and validates it. On failure the error
// response has been written and false is returned.
func (h *NormalizeHandlers) bind(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			response.Error(w, r, errors.NewPayloadTooLargeError("bytes", int(maxErr.Limit)))
		case stderrors.Is(err, io.EOF):
			response.Error(w, r, errors.NewBadRequestError("Request body is empty"))
		default:
			response.Error(w, r, errors.NewAppError(errors.CodeBadRequest, "Invalid JSON body", err.Error()))
		}
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		response.Error(w, r, validationError(err))
		return false
	}
	return true
}

// fail writes a service error, translating transport-level causes
func (h *NormalizeHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case stderrors.As(err, &maxErr):
		err = errors.NewPayloadTooLargeError("bytes", int(maxErr.Limit))
	case stderrors.Is(err, context.DeadlineExceeded):
		err = errors.NewAppError(errors.CodeServiceUnavailable, "Request timed out", "")
	case stderrors.Is(err, context.Canceled):
		// client went away
		h.logger.Debug("Request cancelled", zap.String("path", r.URL.Path))
		return
	}

	if errors.GetCode(err) == errors.CodeInternal {
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	response.Error(w, r, err)
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(err.Error())
	}

	out := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		out = append(out, errors.ValidationError{
			Field:   field,
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: validationMessage(field, fe),
		})
	}
	return errors.NewValidationErrors(out)
}

// fieldPath drops the struct name from a namespace like
// "partsRequest.items[0].name"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validationMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
	}
}
