package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybercell/complaint-portal-api/config"
)

const testAdminSecret = "letmein"

func newTestApp() *App {
	a := &App{Config: config.Config{
		Env:           "test",
		AdminPassword: testAdminSecret,
		JWTSecret:     "test-secret",
		JWTTTL:        time.Hour,
		CaseIDPrefix:  "CYB",
		RateLimit:     1000,
		RateWindow:    time.Minute,

		CloudinaryCloudName:    "demo",
		CloudinaryAPIKey:       "key-123",
		CloudinaryAPISecret:    "shh",
		CloudinaryUploadPreset: "evidence",
	}}
	a.Router = a.New()
	return a
}

func executeRequest(a *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUnknownRoute(t *testing.T) {
	a := newTestApp()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(a, req)

	assert.Equal(t, http.StatusNotFound, response.Code)
	assert.JSONEq(t, `{"error": "not found"}`, response.Body.String())
}

func TestHealthCheckRoute(t *testing.T) {
	a := newTestApp()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(a, req)

	assert.Equal(t, http.StatusOK, response.Code)
	assert.JSONEq(t, `{"alive": true}`, response.Body.String())
	assert.NotEmpty(t, response.Header().Get("X-Request-ID"))
}

func TestEvidenceSignature(t *testing.T) {
	a := newTestApp()
	req := jsonRequest(t, "POST", "/api/v1/evidence/signature", map[string]string{"caseId": "cyb-2026-482913"})

	response := executeRequest(a, req)

	require.Equal(t, http.StatusOK, response.Code)
	var got signatureResponse
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &got))
	assert.Equal(t, "evidence/CYB-2026-482913", got.Folder)
	assert.Equal(t, "key-123", got.APIKey)
	assert.Equal(t, "demo", got.CloudName)
	assert.Equal(t, "evidence", got.UploadPreset)

	want, err := api.SignParameters(url.Values{
		"timestamp":     {got.Timestamp},
		"upload_preset": {"evidence"},
		"folder":        {"evidence/CYB-2026-482913"},
	}, "shh")
	require.NoError(t, err)
	assert.Equal(t, want, got.Signature)
}

func TestEvidenceSignatureWithoutBody(t *testing.T) {
	e := Evidence{APIKey: "k", CloudName: "c", APISecret: "s", now: func() time.Time { return time.Unix(1700000000, 0) }}
	req, _ := http.NewRequest("POST", "/api/v1/evidence/signature", nil)
	rr := httptest.NewRecorder()

	e.GenerateSignature(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got signatureResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "1700000000", got.Timestamp)
	assert.Empty(t, got.Folder)
	assert.NotEmpty(t, got.Signature)
}

func TestEvidenceSignatureRejectsMalformedCaseID(t *testing.T) {
	e := Evidence{APIKey: "k", CloudName: "c", APISecret: "s"}
	for _, caseID := range []string{"evidence/../x", "../CYB-2026-482913", "CYB-2026-48291", "CYB/2026/482913"} {
		t.Run(caseID, func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{"caseId": caseID})
			req, _ := http.NewRequest("POST", "/api/v1/evidence/signature", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			e.GenerateSignature(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error": "invalid caseId"}`, rr.Body.String())
		})
	}
}

func TestEvidenceSignatureNotConfigured(t *testing.T) {
	req, _ := http.NewRequest("POST", "/api/v1/evidence/signature", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	Evidence{}.GenerateSignature(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRateLimitedCreate(t *testing.T) {
	a := &App{Config: config.Config{RateLimit: 1, RateWindow: time.Minute}}
	a.Router = a.New()

	send := func() *httptest.ResponseRecorder {
		req := jsonRequest(t, "POST", "/api/v1/locations", map[string]float64{"latitude": 12.9, "longitude": 77.5})
		req.RemoteAddr = "203.0.113.50:5100"
		req.Header.Set("X-Forwarded-For", uuid.NewString())
		return executeRequest(a, req)
	}

	assert.Equal(t, http.StatusCreated, send().Code)
	rr := send()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"error": "too many requests"}`, rr.Body.String())
}

func TestRateLimitBehindTrustedProxy(t *testing.T) {
	a := &App{Config: config.Config{RateLimit: 1, RateWindow: time.Minute, TrustedProxies: []string{"10.0.0.1"}}}
	a.Router = a.New()

	send := func(client string) *httptest.ResponseRecorder {
		req := jsonRequest(t, "POST", "/api/v1/locations", map[string]float64{"latitude": 12.9, "longitude": 77.5})
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", client)
		return executeRequest(a, req)
	}

	assert.Equal(t, http.StatusCreated, send("203.0.113.50").Code)
	assert.Equal(t, http.StatusCreated, send("203.0.113.51").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.50").Code)
}
