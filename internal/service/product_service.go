package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"inventory-api/internal/logger"
	"inventory-api/internal/model"
	"inventory-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
)

var ErrInvalidID = errors.New("invalid ID format")

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		fields[i] = fe.Field
	}
	return "invalid product data: " + strings.Join(fields, ", ")
}

// ImageRemover deletes a stored product image by its public path.
// Satisfied by *upload.Store.
type ImageRemover interface {
	Remove(publicPath string) error
}

// ProductInput is a fully-specified product, used on create.
type ProductInput struct {
	Name              string
	Description       string
	Category          string
	SKU               string
	Price             float64
	Quantity          int
	LowStockThreshold int
}

// ProductPatch is a partial update; nil fields retain the stored value.
type ProductPatch struct {
	Name              *string
	Description       *string
	Category          *string
	SKU               *string
	Price             *float64
	Quantity          *int
	LowStockThreshold *int
}

// Listing is the /products response: the filtered, sorted collection
// plus the low-stock classification derived from it.
type Listing struct {
	Products         []model.Product `json:"products"`
	LowStockCount    int             `json:"lowStockCount"`
	LowStockProducts []model.Product `json:"lowStockProducts"`
}

type ProductService struct {
	repo   repository.ProductRepository
	images ImageRemover
}

var ProductServiceTracer = otel.Tracer("ProductService")

func NewProductService(repo repository.ProductRepository, images ImageRemover) *ProductService {
	return &ProductService{repo: repo, images: images}
}

func validateProduct(p *model.Product) error {
	var fields []FieldError
	if p.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "name is required"})
	}
	if p.Category == "" {
		fields = append(fields, FieldError{Field: "category", Message: "category is required"})
	}
	if p.SKU == "" {
		fields = append(fields, FieldError{Field: "sku", Message: "sku is required"})
	}
	if p.Price < 0 {
		fields = append(fields, FieldError{Field: "price", Message: "price must not be negative"})
	}
	if p.Quantity < 0 {
		fields = append(fields, FieldError{Field: "quantity", Message: "quantity must not be negative"})
	}
	if p.LowStockThreshold < 0 {
		fields = append(fields, FieldError{Field: "lowStockThreshold", Message: "lowStockThreshold must not be negative"})
	}
	if fields != nil {
		return &ValidationError{Errors: fields}
	}
	return nil
}

// List runs the query and classifies the result set for low stock.
func (s *ProductService) List(ctx context.Context, q repository.ProductQuery) (*Listing, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.List")
	defer span.End()
	logger.Info(ctx, "Service")

	products, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	lowStock := []model.Product{}
	for _, p := range products {
		if p.LowStock() {
			lowStock = append(lowStock, p)
		}
	}

	return &Listing{
		Products:         products,
		LowStockCount:    len(lowStock),
		LowStockProducts: lowStock,
	}, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Get")
	defer span.End()
	logger.Info(ctx, "Service")

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return s.repo.FindByID(ctx, objID)
}

// Create inserts a new product. imagePath is the already-stored upload
// (empty when none); if the insert fails the file is removed again so
// a rejected request leaves no orphan on disk.
func (s *ProductService) Create(ctx context.Context, in ProductInput, imagePath string, createdBy *model.UserRef) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Create")
	defer span.End()
	logger.Info(ctx, "Service")

	product := &model.Product{
		Name:              in.Name,
		Description:       in.Description,
		Category:          in.Category,
		Price:             in.Price,
		Quantity:          in.Quantity,
		SKU:               in.SKU,
		LowStockThreshold: in.LowStockThreshold,
		Image:             imagePath,
		CreatedBy:         createdBy,
	}

	if err := validateProduct(product); err != nil {
		s.discardImage(ctx, imagePath)
		return nil, err
	}

	if err := s.repo.Insert(ctx, product); err != nil {
		s.discardImage(ctx, imagePath)
		return nil, err
	}

	// Re-read so createdBy comes back populated.
	return s.repo.FindByID(ctx, product.ID)
}

// Update applies a partial update. When newImagePath is set, the prior
// file is deleted only after the record write commits; when the write
// fails, the just-saved file is discarded instead.
func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch, newImagePath string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Update")
	defer span.End()
	logger.Info(ctx, "Service")

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		s.discardImage(ctx, newImagePath)
		return nil, ErrInvalidID
	}

	current, err := s.repo.FindByID(ctx, objID)
	if err != nil {
		s.discardImage(ctx, newImagePath)
		return nil, err
	}

	merged := *current
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Category != nil {
		merged.Category = *patch.Category
	}
	if patch.SKU != nil {
		merged.SKU = *patch.SKU
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
	}
	if patch.Quantity != nil {
		merged.Quantity = *patch.Quantity
	}
	if patch.LowStockThreshold != nil {
		merged.LowStockThreshold = *patch.LowStockThreshold
	}

	oldImage := current.Image
	if newImagePath != "" {
		merged.Image = newImagePath
	}

	if err := validateProduct(&merged); err != nil {
		s.discardImage(ctx, newImagePath)
		return nil, err
	}

	if err := s.repo.Update(ctx, &merged); err != nil {
		s.discardImage(ctx, newImagePath)
		return nil, err
	}

	if newImagePath != "" && oldImage != "" {
		if err := s.images.Remove(oldImage); err != nil {
			logger.Warn(ctx, "Failed to remove replaced image",
				slog.String("image", oldImage),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.repo.FindByID(ctx, objID)
}

// Delete removes the record and then its image file. The two steps are
// not transactional; the record is the source of truth, so the file
// goes second.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Delete")
	defer span.End()
	logger.Info(ctx, "Service")

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	product, err := s.repo.FindByID(ctx, objID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, objID); err != nil {
		return err
	}

	if product.Image != "" {
		if err := s.images.Remove(product.Image); err != nil {
			logger.Warn(ctx, "Failed to remove image of deleted product",
				slog.String("image", product.Image),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// Stats recomputes the dashboard snapshot over the whole collection.
func (s *ProductService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Stats")
	defer span.End()
	logger.Info(ctx, "Service")

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.repo.CountLowStock(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	totalValue, err := s.repo.TotalValue(ctx)
	if err != nil {
		return nil, err
	}

	return &model.DashboardStats{
		TotalProducts: int(total),
		LowStock:      int(lowStock),
		Categories:    categories,
		TotalValue:    totalValue,
	}, nil
}

func (s *ProductService) discardImage(ctx context.Context, imagePath string) {
	if imagePath == "" {
		return
	}
	if err := s.images.Remove(imagePath); err != nil {
		logger.Warn(ctx, "Failed to discard image after rejected request",
			slog.String("image", imagePath),
			slog.String("error", err.Error()),
		)
	}
}
