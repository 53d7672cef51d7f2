package repository

import (
	"context"
	"time"

	"inventory-api/internal/logger"
	"inventory-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
)

// MongoProductRepository reads products through an aggregation pipeline
// so the createdBy reference comes back populated with its username.
type MongoProductRepository struct {
	collection *mongo.Collection
}

var ProductRepositoryTracer = otel.Tracer("ProductRepository")

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		collection: db.Collection("products"),
	}
}

func (r *MongoProductRepository) Find(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Find")
	defer span.End()
	logger.Info(ctx, "Repository")

	match := bson.M{}
	if q.Search != "" {
		match["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": q.Search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": q.Search, "$options": "i"}},
			bson.M{"sku": bson.M{"$regex": q.Search, "$options": "i"}},
		}
	}
	if q.Category != "" && q.Category != "all" {
		match["category"] = q.Category
	}

	sortField := "createdAt"
	sortOrder := -1
	if q.SortBy != "" {
		sortField = q.SortBy
		sortOrder = 1
		if q.Order == "desc" {
			sortOrder = -1
		}
	}

	pipeline := append(
		mongo.Pipeline{
			bson.D{{Key: "$match", Value: match}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: sortField, Value: sortOrder}}}},
		},
		lookupCreatedBy()...,
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []model.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()
	logger.Info(ctx, "Repository")

	pipeline := append(
		mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"_id": id}}},
		},
		lookupCreatedBy()...,
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return nil, ErrProductNotFound
	}
	var product model.Product
	if err := cursor.Decode(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *MongoProductRepository) Insert(ctx context.Context, p *model.Product) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Insert")
	defer span.End()
	logger.Info(ctx, "Repository")

	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, storedDoc(p))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateSKU
	}
	return err
}

func (r *MongoProductRepository) Update(ctx context.Context, p *model.Product) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Update")
	defer span.End()
	logger.Info(ctx, "Repository")

	p.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"name":              p.Name,
		"description":       p.Description,
		"category":          p.Category,
		"price":             p.Price,
		"quantity":          p.Quantity,
		"sku":               p.SKU,
		"lowStockThreshold": p.LowStockThreshold,
		"image":             p.Image,
		"updatedAt":         p.UpdatedAt,
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateSKU
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()
	logger.Info(ctx, "Repository")

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *MongoProductRepository) CountAll(ctx context.Context) (int64, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.CountAll")
	defer span.End()

	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *MongoProductRepository) CountLowStock(ctx context.Context) (int64, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.CountLowStock")
	defer span.End()

	return r.collection.CountDocuments(ctx, bson.M{
		"$expr": bson.M{"$lte": bson.A{"$quantity", "$lowStockThreshold"}},
	})
}

func (r *MongoProductRepository) CategoryCounts(ctx context.Context) ([]model.CategoryCount, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.CategoryCounts")
	defer span.End()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := []model.CategoryCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *MongoProductRepository) TotalValue(ctx context.Context) (float64, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.TotalValue")
	defer span.End()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$multiply": bson.A{"$price", "$quantity"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	// Empty collection produces no group document at all.
	if !cursor.Next(ctx) {
		return 0, nil
	}
	var result struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.Decode(&result); err != nil {
		return 0, err
	}
	return result.Total, nil
}

// lookupCreatedBy joins the users collection and reshapes createdBy
// from a bare ObjectID into {_id, username}.
func lookupCreatedBy() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "createdBy",
			"foreignField": "_id",
			"as":           "createdBy",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$createdBy",
			"preserveNullAndEmptyArrays": true,
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"createdBy.passwordHash": 0,
		}}},
	}
}

// storedDoc is the write-side shape: createdBy is persisted as a plain
// ObjectID reference, not the populated form the read pipeline returns.
func storedDoc(p *model.Product) bson.M {
	doc := bson.M{
		"_id":               p.ID,
		"name":              p.Name,
		"category":          p.Category,
		"price":             p.Price,
		"quantity":          p.Quantity,
		"sku":               p.SKU,
		"lowStockThreshold": p.LowStockThreshold,
		"createdAt":         p.CreatedAt,
		"updatedAt":         p.UpdatedAt,
	}
	if p.Description != "" {
		doc["description"] = p.Description
	}
	if p.Image != "" {
		doc["image"] = p.Image
	}
	if p.CreatedBy != nil && !p.CreatedBy.ID.IsZero() {
		doc["createdBy"] = p.CreatedBy.ID
	}
	return doc
}
