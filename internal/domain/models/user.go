// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. The password field holds a bcrypt hash and
// is never serialized to JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	FullName     string             `bson:"full_name" json:"fullName"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	Bio          string   `bson:"bio" json:"bio"`
	Address      string   `bson:"address,omitempty" json:"address,omitempty"`
	LinkedInURL  string   `bson:"linkedin_url,omitempty" json:"linkedinUrl,omitempty"`
	MobileNumber string   `bson:"mobile_number,omitempty" json:"mobileNumber,omitempty"`
	Skills       []string `bson:"skills" json:"skills"`

	Projects   []ProfileProject    `bson:"projects" json:"projects"`
	Experience []ProfileExperience `bson:"experience" json:"experience"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ProfileProject is a portfolio entry on a user's profile, distinct from the
// collaboration Project entity.
type ProfileProject struct {
	Title       string   `bson:"title" json:"title"`
	Description string   `bson:"description" json:"description"`
	TechStack   []string `bson:"tech_stack" json:"techStack"`
}

// ProfileExperience is a work-history entry on a user's profile.
type ProfileExperience struct {
	Company string `bson:"company" json:"company"`
	Role    string `bson:"role" json:"role"`
	// Duration is free-form, e.g. "Jan 2024 - Present".
	Duration string `bson:"duration" json:"duration"`
}
