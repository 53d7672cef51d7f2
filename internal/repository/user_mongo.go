package repository

import (
	"context"
	"errors"

	"inventory-api/internal/logger"
	"inventory-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
)

type MongoUserRepository struct {
	collection *mongo.Collection
}

var UserRepositoryTracer = otel.Tracer("UserRepository")

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		collection: db.Collection("users"),
	}
}

func (r *MongoUserRepository) Insert(ctx context.Context, u *model.User) error {
	ctx, span := UserRepositoryTracer.Start(ctx, "UserRepository.Insert")
	defer span.End()
	logger.Info(ctx, "Repository")

	u.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUsernameTaken
	}
	return err
}

func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	ctx, span := UserRepositoryTracer.Start(ctx, "UserRepository.FindByUsername")
	defer span.End()
	logger.Info(ctx, "Repository")

	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	ctx, span := UserRepositoryTracer.Start(ctx, "UserRepository.FindByID")
	defer span.End()
	logger.Info(ctx, "Repository")

	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
