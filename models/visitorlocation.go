package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VisitorLocation is a write-once audit record of where a portal visitor was
type VisitorLocation struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Latitude   float64            `bson:"latitude" json:"latitude"`
	Longitude  float64            `bson:"longitude" json:"longitude"`
	City       string             `bson:"city" json:"city"`
	State      string             `bson:"state" json:"state"`
	Country    string             `bson:"country" json:"country"`
	IP         string             `bson:"ip" json:"ip"`
	UserAgent  string             `bson:"userAgent" json:"userAgent"`
	CapturedAt time.Time          `bson:"capturedAt" json:"capturedAt"`
}
