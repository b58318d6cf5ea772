package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the structure for the citizen account collection in mongo
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	Password     string             `bson:"password" json:"-"`
	State        string             `bson:"state" json:"state"`
	Location     *CaseLocation      `bson:"location" json:"location"`
	RegisteredAt time.Time          `bson:"registeredAt" json:"registeredAt"`
}

// UserProfile is the public view of a User, never carrying the password hash
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	State string `json:"state"`
}

// Profile returns the public view of u
func (u User) Profile() UserProfile {
	return UserProfile{Name: u.Name, Email: u.Email, Phone: u.Phone, State: u.State}
}
