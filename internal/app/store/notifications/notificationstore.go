// internal/app/store/notifications/notificationstore.go
package notificationstore

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

var ErrInvalidType = errors.New("unrecognized notification type")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create writes the durable notification record. Pushing a live copy to a
// connected recipient is the realtime layer's job and happens separately.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if !models.IsValidNotificationType(n.Type) {
		return models.Notification{}, ErrInvalidType
	}
	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.IsRead = false
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// ListUnread returns the recipient's unread notifications, newest first.
func (s *Store) ListUnread(ctx context.Context, recipient primitive.ObjectID) ([]models.Notification, error) {
	filter := bson.M{"recipient": recipient, "is_read": false}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var notifications []models.Notification
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkAllRead flags every unread notification for the recipient as read.
// Returns the number of documents updated.
func (s *Store) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
