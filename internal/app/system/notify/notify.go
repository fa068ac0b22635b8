// internal/app/system/notify/notify.go

// Package notify pairs the durable notification record with the best-effort
// live push. The realtime layer deliberately knows nothing about
// persistence; this service is the single place that does both, in order:
// write first, then push.
package notify

import (
	"context"
	"encoding/json"

	notificationstore "github.com/teamforge/teamforge/internal/app/store/notifications"
	"github.com/teamforge/teamforge/internal/app/system/realtime"
	"github.com/teamforge/teamforge/internal/domain/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	store *notificationstore.Store
	hub   *realtime.Hub
	log   *zap.Logger
}

func New(db *mongo.Database, hub *realtime.Hub, logger *zap.Logger) *Service {
	return &Service{
		store: notificationstore.New(db),
		hub:   hub,
		log:   logger,
	}
}

// Send writes the durable record and, if that succeeds, pushes a live copy
// to the recipient's connection. An offline recipient sees the record via
// the poll-based listing instead; a failed write means no push at all.
func (s *Service) Send(ctx context.Context, n models.Notification) error {
	created, err := s.store.Create(ctx, n)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(created)
	if err != nil {
		s.log.Error("marshal notification push", zap.Error(err))
		return nil // the durable record exists; the push is best-effort
	}
	if !s.hub.PushNotification(created.Recipient.Hex(), payload) {
		s.log.Debug("recipient offline, no live push",
			zap.String("recipient", created.Recipient.Hex()),
			zap.String("type", created.Type))
	}
	return nil
}
