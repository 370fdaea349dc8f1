package repository

import (
	"context"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PreferencesRepository interface {
	GetPreferences(userID string) (*models.NotificationPreferences, error)
	SavePreferences(prefs *models.NotificationPreferences) error
}

type MongoPreferencesRepository struct {
	collection *mongo.Collection
}

func NewPreferencesRepository(client *mongo.Client, dbName, collectionName string) PreferencesRepository {
	collection := client.Database(dbName).Collection(collectionName)
	return &MongoPreferencesRepository{collection: collection}
}

func (r *MongoPreferencesRepository) GetPreferences(userID string) (*models.NotificationPreferences, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var prefs models.NotificationPreferences
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prefs)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &prefs, err
}

func (r *MongoPreferencesRepository) SavePreferences(prefs *models.NotificationPreferences) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	prefs.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"user_id": prefs.UserID}, prefs, opts)
	return err
}
