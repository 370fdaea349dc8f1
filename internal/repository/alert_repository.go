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

type AlertRepository interface {
	SaveAlert(alert *models.Alert) error
	GetAlertByID(id primitive.ObjectID) (*models.Alert, error)
	GetAlertsByUserID(userID string) ([]*models.Alert, error)
	GetAlertsByUserInPeriod(userID string, from, to time.Time) ([]*models.Alert, error)
	GetDueAlerts(now time.Time) ([]*models.Alert, error)
	UpdateAlert(id primitive.ObjectID, alert *models.Alert) error
}

type MongoAlertRepository struct {
	collection *mongo.Collection
}

func NewAlertRepository(client *mongo.Client, dbName, collectionName string) AlertRepository {
	collection := client.Database(dbName).Collection(collectionName)
	return &MongoAlertRepository{collection: collection}
}

func (r *MongoAlertRepository) SaveAlert(alert *models.Alert) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if alert.ID.IsZero() {
		alert.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, alert)
	return err
}

func (r *MongoAlertRepository) GetAlertByID(id primitive.ObjectID) (*models.Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var alert models.Alert
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&alert)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &alert, err
}

func (r *MongoAlertRepository) GetAlertsByUserID(userID string) ([]*models.Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var alerts []*models.Alert
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *MongoAlertRepository) GetAlertsByUserInPeriod(userID string, from, to time.Time) ([]*models.Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": from, "$lt": to},
	}
	var alerts []*models.Alert
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// GetDueAlerts returns pending alerts whose scheduled_at has passed, i.e.
// retries armed by the scheduler that are ready to dispatch again.
func (r *MongoAlertRepository) GetDueAlerts(now time.Time) ([]*models.Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":       models.AlertStatusPending,
		"scheduled_at": bson.M{"$ne": nil, "$lte": now},
	}
	var alerts []*models.Alert
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"scheduled_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *MongoAlertRepository) UpdateAlert(id primitive.ObjectID, alert *models.Alert) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id}, alert)
	return err
}
