// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project statuses.
const (
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in-progress"
	ProjectStatusCompleted  = "completed"
)

// Project types.
const (
	ProjectTypeCollaboration = "collaboration"
	ProjectTypeHackathon     = "hackathon"
	ProjectTypeCompetition   = "competition"
)

// Project is a collaboration listing. Its ID doubles as the room identifier
// for the realtime layer: every project has exactly one chat room.
//
// Members and join requests are embedded ID lists (small, human-scale
// collections), matching the shape the rest of the API serves.
type Project struct {
	ID             primitive.ObjectID   `bson:"_id" json:"id"`
	Title          string               `bson:"title" json:"title"`
	Description    string               `bson:"description" json:"description"`
	RequiredSkills []string             `bson:"required_skills" json:"requiredSkills"`
	MembersNeeded  int                  `bson:"members_needed" json:"membersRequired"`
	Creator        primitive.ObjectID   `bson:"creator" json:"creator"`
	Members        []primitive.ObjectID `bson:"members" json:"members"`
	JoinRequests   []primitive.ObjectID `bson:"join_requests" json:"joinRequests"`
	Status         string               `bson:"status" json:"status"`
	Type           string               `bson:"type" json:"type"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidProjectType reports whether t is one of the recognized project types.
func IsValidProjectType(t string) bool {
	switch t {
	case ProjectTypeCollaboration, ProjectTypeHackathon, ProjectTypeCompetition:
		return true
	}
	return false
}

// HasMember reports whether id is the creator or an accepted member.
func (p *Project) HasMember(id primitive.ObjectID) bool {
	if p.Creator == id {
		return true
	}
	for _, m := range p.Members {
		if m == id {
			return true
		}
	}
	return false
}

// HasJoinRequest reports whether id has a pending join request.
func (p *Project) HasJoinRequest(id primitive.ObjectID) bool {
	for _, r := range p.JoinRequests {
		if r == id {
			return true
		}
	}
	return false
}
