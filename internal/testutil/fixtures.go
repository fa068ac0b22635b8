// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/teamforge/teamforge/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a test user. The password hash is a placeholder; use
// the users feature handler when real credentials matter.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: "$2a$10$not.a.real.hash.for.tests.only",
		Skills:       []string{},
		Projects:     []models.ProfileProject{},
		Experience:   []models.ProfileExperience{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateProject inserts a test project owned by creator.
func (f *Fixtures) CreateProject(ctx context.Context, title string, creator primitive.ObjectID) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	project := models.Project{
		ID:             primitive.NewObjectID(),
		Title:          title,
		Description:    "A test project description",
		RequiredSkills: []string{"go"},
		MembersNeeded:  3,
		Creator:        creator,
		Members:        []primitive.ObjectID{},
		JoinRequests:   []primitive.ObjectID{},
		Status:         models.ProjectStatusOpen,
		Type:           models.ProjectTypeCollaboration,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, project); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// CreateTask inserts a test task in the project.
func (f *Fixtures) CreateTask(ctx context.Context, project, creator primitive.ObjectID, title, status string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:        primitive.NewObjectID(),
		Project:   project,
		Title:     title,
		CreatedBy: creator,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateNotification inserts an unread notification for recipient.
func (f *Fixtures) CreateNotification(ctx context.Context, recipient, sender primitive.ObjectID, msg string) models.Notification {
	f.t.Helper()

	now := time.Now().UTC()
	n := models.Notification{
		ID:        primitive.NewObjectID(),
		Recipient: recipient,
		Sender:    sender,
		Message:   msg,
		Type:      models.NotificationJoinRequest,
		IsRead:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}
