package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultLowStockThreshold is applied when a create request omits the
// threshold or submits something unparseable.
const DefaultLowStockThreshold = 5

type Product struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name              string             `json:"name" bson:"name"`
	Description       string             `json:"description,omitempty" bson:"description,omitempty"`
	Category          string             `json:"category" bson:"category"`
	Price             float64            `json:"price" bson:"price"`
	Quantity          int                `json:"quantity" bson:"quantity"`
	SKU               string             `json:"sku" bson:"sku"`
	LowStockThreshold int                `json:"lowStockThreshold" bson:"lowStockThreshold"`
	Image             string             `json:"image,omitempty" bson:"image,omitempty"`
	CreatedBy         *UserRef           `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// LowStock reports whether the product is at or below its reorder threshold.
func (p *Product) LowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

// CategoryCount is one bucket of the per-category grouping. The `_id`
// key mirrors the aggregation output shape consumed by the dashboard.
type CategoryCount struct {
	Category string `json:"_id" bson:"_id"`
	Count    int    `json:"count" bson:"count"`
}

// DashboardStats is the full-collection snapshot served by /products/stats.
type DashboardStats struct {
	TotalProducts int             `json:"totalProducts"`
	LowStock      int             `json:"lowStockProducts"`
	Categories    []CategoryCount `json:"categories"`
	TotalValue    float64         `json:"totalValue"`
}
