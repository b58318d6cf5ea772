package handlers

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"

	"github.com/cybercell/complaint-portal-api/config"
)

var evidenceCaseID = regexp.MustCompile(`^[A-Z]+-\d{4}-\d{6}$`)

// Evidence signs direct browser uploads of evidence files to Cloudinary
type Evidence struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	now          func() time.Time
}

type signatureRequest struct {
	CaseID string `json:"caseId"`
}

type signatureResponse struct {
	Timestamp    string `json:"timestamp"`
	Signature    string `json:"signature"`
	APIKey       string `json:"apiKey"`
	CloudName    string `json:"cloudName"`
	UploadPreset string `json:"uploadPreset"`
	Folder       string `json:"folder,omitempty"`
}

// GenerateSignature returns the signed parameters for one upload. When a caseId
// is supplied the upload goes to that case's folder.
func (e Evidence) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	if e.APISecret == "" {
		config.ErrorStatus("evidence uploads are not configured", http.StatusServiceUnavailable, w, nil)
		return
	}

	var req signatureRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	now := time.Now
	if e.now != nil {
		now = e.now
	}
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(now().Unix(), 10))
	if e.UploadPreset != "" {
		params.Set("upload_preset", e.UploadPreset)
	}
	if caseID := strings.ToUpper(strings.TrimSpace(req.CaseID)); caseID != "" {
		if !evidenceCaseID.MatchString(caseID) {
			config.ErrorStatus("invalid caseId", http.StatusBadRequest, w, nil)
			return
		}
		params.Set("folder", "evidence/"+caseID)
	}

	signature, err := api.SignParameters(params, e.APISecret)
	if err != nil {
		config.ErrorStatus("failed to sign upload", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, signatureResponse{
		Timestamp:    params.Get("timestamp"),
		Signature:    signature,
		APIKey:       e.APIKey,
		CloudName:    e.CloudName,
		UploadPreset: e.UploadPreset,
		Folder:       params.Get("folder"),
	})
}
