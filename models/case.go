package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseStatus is the lifecycle state of a case
type CaseStatus string

// Predefined CaseStatus values, in display order
const (
	CaseStatusRegistered    CaseStatus = "Registered"
	CaseStatusUnderReview   CaseStatus = "Under Review"
	CaseStatusAssigned      CaseStatus = "Assigned"
	CaseStatusInvestigation CaseStatus = "Investigation"
	CaseStatusClosed        CaseStatus = "Closed"
)

// CaseStatuses returns all valid CaseStatus values in display order
func CaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusRegistered,
		CaseStatusUnderReview,
		CaseStatusAssigned,
		CaseStatusInvestigation,
		CaseStatusClosed,
	}
}

// Valid reports whether s is one of the five lifecycle states
func (s CaseStatus) Valid() bool {
	for _, v := range CaseStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// CaseLocation is the location snapshot a complainant attaches at submission time.
// It is a copy, not a reference to a visitor location record.
type CaseLocation struct {
	Latitude   float64 `bson:"latitude" json:"latitude"`
	Longitude  float64 `bson:"longitude" json:"longitude"`
	City       string  `bson:"city" json:"city"`
	State      string  `bson:"state" json:"state"`
	Country    string  `bson:"country" json:"country"`
	CapturedAt string  `bson:"capturedAt" json:"capturedAt"`
}

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	CaseID          string             `bson:"caseId" json:"caseId"`
	Status          CaseStatus         `bson:"status" json:"status"`
	Name            string             `bson:"name" json:"name"`
	Phone           string             `bson:"phone" json:"phone"`
	Email           string             `bson:"email" json:"email"`
	State           string             `bson:"state" json:"state"`
	District        string             `bson:"district" json:"district"`
	AadhaarLast4    string             `bson:"aadhaarLast4" json:"aadhaarLast4"`
	CrimeType       string             `bson:"crimeType" json:"crimeType"`
	IncidentDate    string             `bson:"incidentDate" json:"incidentDate"`
	IncidentTime    string             `bson:"incidentTime" json:"incidentTime"`
	Description     string             `bson:"description" json:"description"`
	SuspectInfo     string             `bson:"suspectInfo" json:"suspectInfo"`
	EvidenceFiles   []string           `bson:"evidenceFiles" json:"evidenceFiles"`
	LossAmount      string             `bson:"lossAmount" json:"lossAmount"`
	Location        *CaseLocation      `bson:"location" json:"location"`
	AssignedOfficer string             `bson:"assignedOfficer" json:"assignedOfficer"`
	OfficerNotes    string             `bson:"officerNotes" json:"officerNotes"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CaseChanges is the administrative update allow-list. Nil fields are left untouched.
type CaseChanges struct {
	Status          *CaseStatus `json:"status,omitempty"`
	AssignedOfficer *string     `json:"assignedOfficer,omitempty"`
	OfficerNotes    *string     `json:"officerNotes,omitempty"`
}

// CaseFilter narrows a case listing. Empty fields do not filter.
type CaseFilter struct {
	Status string
	State  string
	Search string
}
