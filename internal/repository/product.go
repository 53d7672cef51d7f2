package repository

import (
	"context"
	"errors"

	"inventory-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("product with this SKU already exists")
)

// ProductQuery carries the listing parameters. Search is a
// case-insensitive substring match over name, description and SKU.
// Category "" or "all" means no category filter. SortBy "" means
// newest first; Order "desc" descends, anything else ascends.
type ProductQuery struct {
	Search   string
	Category string
	SortBy   string
	Order    string
}

type ProductRepository interface {
	Find(ctx context.Context, q ProductQuery) ([]model.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	Insert(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	CountAll(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context) (int64, error)
	CategoryCounts(ctx context.Context) ([]model.CategoryCount, error)
	TotalValue(ctx context.Context) (float64, error)
}
