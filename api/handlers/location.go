package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cybercell/complaint-portal-api/api"
	"github.com/cybercell/complaint-portal-api/models"
	"github.com/cybercell/complaint-portal-api/services"
)

// Location exported for testing purposes
type Location struct {
	Service *services.LocationService
}

type recordLocationResponse struct {
	Success bool               `json:"success"`
	ID      primitive.ObjectID `json:"id"`
}

type locationsResponse struct {
	Success   bool                     `json:"success"`
	Count     int                      `json:"count"`
	Locations []models.VisitorLocation `json:"locations"`
}

// CreateLocationHandler records a visitor's reported location with their address
// and user agent
func (l Location) CreateLocationHandler(w http.ResponseWriter, r *http.Request) {
	var report services.LocationReport
	if !decodeBody(w, r, &report) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	id, err := l.Service.RecordLocation(ctx, report, services.Requester{
		IP:        api.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, err, "location not found")
		return
	}
	writeJSON(w, http.StatusCreated, recordLocationResponse{Success: true, ID: id})
}

// LocationHandler returns the most recent visitor locations
func (l Location) LocationHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r.URL.Query().Get("limit"))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	locations, err := l.Service.ListLocations(ctx, limit)
	if err != nil {
		writeServiceError(w, err, "location not found")
		return
	}
	writeJSON(w, http.StatusOK, locationsResponse{Success: true, Count: len(locations), Locations: locations})
}
