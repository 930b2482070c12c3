// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an append-only message posted to a group's feed.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
