// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses. The graph is fully connected: any status may move to any
// other in a single transition, and none is terminal.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusCompleted  = "completed"
)

// IsValidTaskStatus reports whether s is a member of the status enum.
func IsValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is a board item scoped to one project. The canonical object — with
// the server-assigned ID and timestamps — is what gets broadcast to the
// room, never the client-supplied draft.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Project     primitive.ObjectID  `bson:"project" json:"project"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Assignee    *primitive.ObjectID `bson:"assignee,omitempty" json:"assignee,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"createdBy"`
	Status      string              `bson:"status" json:"status"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"dueDate,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
