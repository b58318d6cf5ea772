package services

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/cybercell/complaint-portal-api/models"
)

const (
	// DefaultLocationLimit is used when a location listing does not ask for a size
	DefaultLocationLimit = 500
	// MaxLocationLimit caps a location listing regardless of what was asked
	MaxLocationLimit = 1000

	defaultCountry = "India"
)

// LocationStore is the persistence location capture needs
type LocationStore interface {
	Insert(ctx context.Context, loc *models.VisitorLocation) error
	Recent(ctx context.Context, limit int) ([]models.VisitorLocation, error)
}

// LocationReport is the coordinates and optional place a visitor's browser reports
type LocationReport struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
}

// Requester is what the transport knows about who sent a request
type Requester struct {
	IP        string
	UserAgent string
}

// LocationService keeps the visitor location audit log
type LocationService struct {
	store LocationStore
	now   func() time.Time
}

// NewLocationService returns a LocationService backed by store
func NewLocationService(store LocationStore) *LocationService {
	return &LocationService{store: store, now: time.Now}
}

// RecordLocation stores report with the requester's address and client string.
// A zero or non-numeric coordinate is treated as missing.
func (s *LocationService) RecordLocation(ctx context.Context, report LocationReport, from Requester) (primitive.ObjectID, error) {
	if !usableCoordinate(report.Latitude) || !usableCoordinate(report.Longitude) {
		return primitive.NilObjectID, &ValidationError{Message: "latitude and longitude are required"}
	}

	country := report.Country
	if country == "" {
		country = defaultCountry
	}
	ip := from.IP
	if ip == "" {
		ip = "unknown"
	}

	loc := &models.VisitorLocation{
		Latitude:   report.Latitude,
		Longitude:  report.Longitude,
		City:       report.City,
		State:      report.State,
		Country:    country,
		IP:         ip,
		UserAgent:  from.UserAgent,
		CapturedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, loc); err != nil {
		return primitive.NilObjectID, storeError("insert visitor location", err)
	}
	zap.S().Debugw("visitor location recorded", "id", loc.ID.Hex(), "city", loc.City)
	return loc.ID, nil
}

// ListLocations returns the most recent records, newest first, never more than
// MaxLocationLimit.
func (s *LocationService) ListLocations(ctx context.Context, limit int) ([]models.VisitorLocation, error) {
	if limit < 1 {
		limit = DefaultLocationLimit
	}
	if limit > MaxLocationLimit {
		limit = MaxLocationLimit
	}
	locations, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, storeError("list visitor locations", err)
	}
	if locations == nil {
		locations = []models.VisitorLocation{}
	}
	return locations, nil
}

func usableCoordinate(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
