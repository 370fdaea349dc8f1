package repository

import (
	"context"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DeliveryResultRepository interface {
	SaveResult(result *models.AlertDeliveryResult) error
	GetResultsByAlertID(alertID primitive.ObjectID) ([]*models.AlertDeliveryResult, error)
	GetResultsByAlertIDs(alertIDs []primitive.ObjectID) ([]*models.AlertDeliveryResult, error)
}

type MongoDeliveryResultRepository struct {
	collection *mongo.Collection
}

func NewDeliveryResultRepository(client *mongo.Client, dbName, collectionName string) DeliveryResultRepository {
	collection := client.Database(dbName).Collection(collectionName)
	return &MongoDeliveryResultRepository{collection: collection}
}

func (r *MongoDeliveryResultRepository) SaveResult(result *models.AlertDeliveryResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if result.ID.IsZero() {
		result.ID = primitive.NewObjectID()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, result)
	return err
}

func (r *MongoDeliveryResultRepository) GetResultsByAlertID(alertID primitive.ObjectID) ([]*models.AlertDeliveryResult, error) {
	return r.GetResultsByAlertIDs([]primitive.ObjectID{alertID})
}

func (r *MongoDeliveryResultRepository) GetResultsByAlertIDs(alertIDs []primitive.ObjectID) ([]*models.AlertDeliveryResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var results []*models.AlertDeliveryResult
	filter := bson.M{"alert_id": bson.M{"$in": alertIDs}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
