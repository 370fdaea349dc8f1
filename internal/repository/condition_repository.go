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

type ConditionRepository interface {
	SaveCondition(condition *models.AlertCondition) error
	GetConditionByID(id primitive.ObjectID) (*models.AlertCondition, error)
	GetConditionsByUserID(userID string) ([]*models.AlertCondition, error)
	IncrementTriggers(id primitive.ObjectID) error
	SetActive(id primitive.ObjectID, active bool) error
	DeleteCondition(id primitive.ObjectID) error
}

type MongoConditionRepository struct {
	collection *mongo.Collection
}

func NewConditionRepository(client *mongo.Client, dbName, collectionName string) ConditionRepository {
	collection := client.Database(dbName).Collection(collectionName)
	return &MongoConditionRepository{collection: collection}
}

func (r *MongoConditionRepository) SaveCondition(condition *models.AlertCondition) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if condition.ID.IsZero() {
		condition.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, condition)
	return err
}

func (r *MongoConditionRepository) GetConditionByID(id primitive.ObjectID) (*models.AlertCondition, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var condition models.AlertCondition
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&condition)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &condition, err
}

func (r *MongoConditionRepository) GetConditionsByUserID(userID string) ([]*models.AlertCondition, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var conditions []*models.AlertCondition
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, &conditions); err != nil {
		return nil, err
	}
	return conditions, nil
}

// IncrementTriggers bumps total_triggers by one. The engine owns this field;
// everything else on the condition belongs to the condition-management side.
func (r *MongoConditionRepository) IncrementTriggers(id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"total_triggers": 1}})
	return err
}

func (r *MongoConditionRepository) SetActive(id primitive.ObjectID, active bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_active": active}})
	return err
}

func (r *MongoConditionRepository) DeleteCondition(id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
