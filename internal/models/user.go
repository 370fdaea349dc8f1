package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	DisplayName  string             `json:"display_name" bson:"display_name"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	Timezone     string             `json:"timezone" bson:"timezone"`
	IsActive     bool               `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}
