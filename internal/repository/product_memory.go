package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"inventory-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemoryProductRepository mirrors the Mongo implementation's query
// semantics without a database. Used by tests.
type InMemoryProductRepository struct {
	mu       sync.Mutex
	products []model.Product
}

func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{}
}

func matchesQuery(p model.Product, q ProductQuery) bool {
	if q.Search != "" {
		s := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), s) &&
			!strings.Contains(strings.ToLower(p.Description), s) &&
			!strings.Contains(strings.ToLower(p.SKU), s) {
			return false
		}
	}
	if q.Category != "" && q.Category != "all" && p.Category != q.Category {
		return false
	}
	return true
}

func sortProducts(products []model.Product, sortBy, order string) {
	field := sortBy
	desc := order == "desc"
	if field == "" {
		field = "createdAt"
		desc = true
	}

	var less func(a, b model.Product) bool
	switch field {
	case "name":
		less = func(a, b model.Product) bool { return a.Name < b.Name }
	case "category":
		less = func(a, b model.Product) bool { return a.Category < b.Category }
	case "sku":
		less = func(a, b model.Product) bool { return a.SKU < b.SKU }
	case "price":
		less = func(a, b model.Product) bool { return a.Price < b.Price }
	case "quantity":
		less = func(a, b model.Product) bool { return a.Quantity < b.Quantity }
	case "lowStockThreshold":
		less = func(a, b model.Product) bool { return a.LowStockThreshold < b.LowStockThreshold }
	case "createdAt":
		less = func(a, b model.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updatedAt":
		less = func(a, b model.Product) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}

func (r *InMemoryProductRepository) Find(_ context.Context, q ProductQuery) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := []model.Product{}
	for _, p := range r.products {
		if matchesQuery(p, q) {
			filtered = append(filtered, p)
		}
	}
	sortProducts(filtered, q.SortBy, q.Order)
	return filtered, nil
}

func (r *InMemoryProductRepository) FindByID(_ context.Context, id primitive.ObjectID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *InMemoryProductRepository) Insert(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if existing.SKU == p.SKU {
			return ErrDuplicateSKU
		}
	}

	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.products = append(r.products, *p)
	return nil
}

func (r *InMemoryProductRepository) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if existing.SKU == p.SKU && existing.ID != p.ID {
			return ErrDuplicateSKU
		}
	}

	for i, existing := range r.products {
		if existing.ID == p.ID {
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = time.Now().UTC()
			r.products[i] = *p
			return nil
		}
	}
	return ErrProductNotFound
}

func (r *InMemoryProductRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return ErrProductNotFound
}

func (r *InMemoryProductRepository) CountAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.products)), nil
}

func (r *InMemoryProductRepository) CountLowStock(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, p := range r.products {
		if p.LowStock() {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryProductRepository) CategoryCounts(_ context.Context) ([]model.CategoryCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byCategory := map[string]int{}
	for _, p := range r.products {
		byCategory[p.Category]++
	}

	counts := []model.CategoryCount{}
	for category, count := range byCategory {
		counts = append(counts, model.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Category < counts[j].Category })
	return counts, nil
}

func (r *InMemoryProductRepository) TotalValue(_ context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total float64
	for _, p := range r.products {
		total += p.Price * float64(p.Quantity)
	}
	return total, nil
}

// Clear empties the repository between tests.
func (r *InMemoryProductRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = nil
}
