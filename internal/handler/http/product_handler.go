package http

import (
	"errors"
	"net/http"
	"strconv"

	"inventory-api/internal/logger"
	middleware_http "inventory-api/internal/middleware/http"
	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	"inventory-api/internal/service"
	"inventory-api/internal/upload"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
)

// maxFormMemory is how much of a multipart body is held in memory
// before spilling to temp files.
const maxFormMemory = 4 << 20

// maxRequestSize caps the whole multipart request: the image ceiling
// plus slack for the text fields.
const maxRequestSize = upload.MaxFileSize + 1<<20

type ProductHandler struct {
	service *service.ProductService
	images  *upload.Store
}

var HttpProductHandlerTracer = otel.Tracer("HttpProductHandler")

func NewProductHandler(service *service.ProductService, images *upload.Store) *ProductHandler {
	return &ProductHandler{
		service: service,
		images:  images,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.List")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	q := repository.ProductQuery{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		SortBy:   r.URL.Query().Get("sortBy"),
		Order:    r.URL.Query().Get("order"),
	}

	listing, err := h.service.List(ctx, q)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetByID")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	product, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Create")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var fields []service.FieldError
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		fields = append(fields, service.FieldError{Field: "price", Message: "price must be a number"})
	}
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		fields = append(fields, service.FieldError{Field: "quantity", Message: "quantity must be an integer"})
	}
	if fields != nil {
		writeServiceError(ctx, w, &service.ValidationError{Errors: fields})
		return
	}

	in := service.ProductInput{
		Name:              r.FormValue("name"),
		Description:       r.FormValue("description"),
		Category:          r.FormValue("category"),
		SKU:               r.FormValue("sku"),
		Price:             price,
		Quantity:          quantity,
		LowStockThreshold: thresholdOrDefault(r.FormValue("lowStockThreshold")),
	}

	imagePath, err := h.saveUpload(r)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	created, err := h.service.Create(ctx, in, imagePath, middleware_http.CurrentUser(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": created,
	})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Update")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	patch := service.ProductPatch{
		Name:        formString(r, "name"),
		Description: formString(r, "description"),
		Category:    formString(r, "category"),
		SKU:         formString(r, "sku"),
	}

	var fields []service.FieldError
	if v := formString(r, "price"); v != nil {
		price, err := strconv.ParseFloat(*v, 64)
		if err != nil {
			fields = append(fields, service.FieldError{Field: "price", Message: "price must be a number"})
		} else {
			patch.Price = &price
		}
	}
	if v := formString(r, "quantity"); v != nil {
		quantity, err := strconv.Atoi(*v)
		if err != nil {
			fields = append(fields, service.FieldError{Field: "quantity", Message: "quantity must be an integer"})
		} else {
			patch.Quantity = &quantity
		}
	}
	if v := formString(r, "lowStockThreshold"); v != nil {
		threshold, err := strconv.Atoi(*v)
		if err != nil {
			fields = append(fields, service.FieldError{Field: "lowStockThreshold", Message: "lowStockThreshold must be an integer"})
		} else {
			patch.LowStockThreshold = &threshold
		}
	}
	if fields != nil {
		writeServiceError(ctx, w, &service.ValidationError{Errors: fields})
		return
	}

	imagePath, err := h.saveUpload(r)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	updated, err := h.service.Update(ctx, chi.URLParam(r, "id"), patch, imagePath)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": updated,
	})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Delete")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	if err := h.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted successfully")
}

func (h *ProductHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Stats")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	stats, err := h.service.Stats(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// saveUpload stores the optional "image" part and returns its public
// path, or "" when the request carries no image.
func (h *ProductHandler) saveUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	file.Close()

	return h.images.Save(header, "image")
}

// formString returns the submitted value, or nil when the field was
// omitted or blank; blank means "keep the stored value" on updates.
func formString(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 || vals[0] == "" {
		return nil
	}
	return &vals[0]
}

// thresholdOrDefault parses the submitted reorder threshold, falling
// back to the default when it is absent or not a number.
func thresholdOrDefault(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return model.DefaultLowStockThreshold
	}
	return n
}
