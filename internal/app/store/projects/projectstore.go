// internal/app/store/projects/projectstore.go
package projectstore

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

var (
	ErrInvalidType   = errors.New("project type must be collaboration, hackathon, or competition")
	ErrInvalidStatus = errors.New("project status must be open, in-progress, or completed")
	ErrNotFound      = errors.New("project not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, err
	}
	return p, nil
}

func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	if !models.IsValidProjectType(p.Type) {
		return models.Project{}, ErrInvalidType
	}
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	if p.Status == "" {
		p.Status = models.ProjectStatusOpen
	}
	if p.RequiredSkills == nil {
		p.RequiredSkills = []string{}
	}
	if p.Members == nil {
		p.Members = []primitive.ObjectID{}
	}
	if p.JoinRequests == nil {
		p.JoinRequests = []primitive.ObjectID{}
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// List returns projects newest first, optionally filtered by type and status.
func (s *Store) List(ctx context.Context, projType, status string) ([]models.Project, error) {
	filter := bson.M{}
	if projType != "" {
		filter["type"] = projType
	}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListForUser returns projects where the user is creator or member.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"creator": userID},
		bson.M{"members": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// AddJoinRequest records a pending join request. $addToSet keeps the list
// free of duplicates even if the caller races itself.
func (s *Store) AddJoinRequest(ctx context.Context, projectID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, projectID, bson.M{
		"$addToSet": bson.M{"join_requests": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApproveJoinRequest moves the applicant from join_requests to members in a
// single update.
func (s *Store) ApproveJoinRequest(ctx context.Context, projectID, applicantID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, projectID, bson.M{
		"$pull":     bson.M{"join_requests": applicantID},
		"$addToSet": bson.M{"members": applicantID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeclineJoinRequest drops the applicant's pending request.
func (s *Store) DeclineJoinRequest(ctx context.Context, projectID, applicantID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, projectID, bson.M{
		"$pull": bson.M{"join_requests": applicantID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	switch status {
	case models.ProjectStatusOpen, models.ProjectStatusInProgress, models.ProjectStatusCompleted:
	default:
		return ErrInvalidStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
