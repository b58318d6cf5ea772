package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybercell/complaint-portal-api/models"
)

func TestLocationCaptureAndList(t *testing.T) {
	r := newRouter()

	rr := do(t, r, "POST", "/api/v1/locations", `{"latitude": 12.97, "longitude": 77.59, "city": "Bengaluru"}`,
		map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1", "User-Agent": "Mozilla/5.0"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.NotEmpty(t, created.ID)

	rr = do(t, r, "GET", "/api/v1/locations?limit=5000", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Success   bool                     `json:"success"`
		Count     int                      `json:"count"`
		Locations []models.VisitorLocation `json:"locations"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.True(t, list.Success)
	assert.Equal(t, 1, list.Count)
	require.Len(t, list.Locations, 1)
	assert.Equal(t, "203.0.113.7", list.Locations[0].IP)
	assert.Equal(t, "Mozilla/5.0", list.Locations[0].UserAgent)
	assert.Equal(t, "India", list.Locations[0].Country)
	assert.Equal(t, created.ID, list.Locations[0].ID.Hex())
}

func TestLocationMissingCoordinates(t *testing.T) {
	rr := do(t, newRouter(), "POST", "/api/v1/locations", `{"latitude": 0, "longitude": 77.59}`, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error": "latitude and longitude are required"}`, rr.Body.String())
}

func TestLocationListEmpty(t *testing.T) {
	rr := do(t, newRouter(), "GET", "/api/v1/locations", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success": true, "count": 0, "locations": []}`, rr.Body.String())
}
