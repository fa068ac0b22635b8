// internal/app/store/conversations/conversationstore.go
package conversationstore

import (
	"context"
	"errors"
	"time"

	"github.com/teamforge/teamforge/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("conversation not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("conversations")}
}

// AppendMessage pushes a message onto the project's conversation, creating
// the conversation document on first use (upsert). There is exactly one
// conversation per project.
func (s *Store) AppendMessage(ctx context.Context, projectID primitive.ObjectID, msg models.Message) error {
	now := time.Now().UTC()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"project":    projectID,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{"project": projectID}, update, opts)
	return err
}

// GetByProject returns the project's conversation, or ErrNotFound if no
// message has ever been sent in this project.
func (s *Store) GetByProject(ctx context.Context, projectID primitive.ObjectID) (models.Conversation, error) {
	var conv models.Conversation
	if err := s.c.FindOne(ctx, bson.M{"project": projectID}).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Conversation{}, ErrNotFound
		}
		return models.Conversation{}, err
	}
	return conv, nil
}

// DeleteByProject removes the project's conversation. Returns the number of
// documents deleted (0 or 1).
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"project": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
