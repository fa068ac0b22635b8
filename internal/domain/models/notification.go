// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotificationJoinRequest     = "join_request"
	NotificationRequestApproved = "request_approved"
	NotificationNewMessage      = "new_message"
	NotificationTaskAssigned    = "task_assigned"
)

// IsValidNotificationType reports whether t is a recognized notification type.
func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationJoinRequest, NotificationRequestApproved,
		NotificationNewMessage, NotificationTaskAssigned:
		return true
	}
	return false
}

// Notification is the durable record of an in-app notification. The realtime
// layer only pushes a live copy to the recipient if they are connected; this
// document is what the poll-based listing serves regardless.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Message   string             `bson:"message" json:"message"`
	Type      string             `bson:"type" json:"type"`
	Link      string             `bson:"link,omitempty" json:"link,omitempty"`
	IsRead    bool               `bson:"is_read" json:"isRead"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
