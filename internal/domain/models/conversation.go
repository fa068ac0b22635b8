// internal/domain/models/conversation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one chat entry inside a project conversation.
type Message struct {
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Content   string             `bson:"content" json:"content"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Conversation is the ordered chat log for one project. There is exactly one
// conversation document per project; it is created lazily on the first
// message (upsert).
type Conversation struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Project  primitive.ObjectID `bson:"project" json:"project"`
	Messages []Message          `bson:"messages" json:"messages"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
