package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cybercell/complaint-portal-api/api"
	"github.com/cybercell/complaint-portal-api/models"
	"github.com/cybercell/complaint-portal-api/services"
)

// AdminSecretHeader carries the administrative credential on case updates
const AdminSecretHeader = "X-Admin-Secret"

// Case exported for testing purposes
type Case struct {
	Manager *services.CaseManager
}

type caseResponse struct {
	Case *models.Case `json:"case"`
}

type createCaseResponse struct {
	Case   *models.Case `json:"case"`
	CaseID string       `json:"caseId"`
}

// CreateCaseHandler registers a new case. Any status in the body is ignored.
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	var sub services.CaseSubmission
	if !decodeBody(w, r, &sub) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := c.Manager.CreateCase(ctx, sub)
	if err != nil {
		writeServiceError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusCreated, createCaseResponse{Case: created, CaseID: created.CaseID})
}

// CaseHandler returns one page of cases, filtered by status, state and search text
func (c Case) CaseHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"))
	limit := queryInt(q.Get("limit"))
	filter := models.CaseFilter{
		Status: q.Get("status"),
		State:  q.Get("state"),
		Search: q.Get("search"),
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	result, err := c.Manager.ListCases(ctx, filter, page, limit)
	if err != nil {
		writeServiceError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CaseByIDHandler returns a case by its case id, in any letter case
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	zap.S().Debugf("case_id: %v", caseID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	found, err := c.Manager.GetCase(ctx, caseID)
	if err != nil {
		writeServiceError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, caseResponse{Case: found})
}

// UpdateCaseHandler applies an administrator's changes to status, assigned officer
// and officer notes. Other fields in the body are ignored.
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	var changes models.CaseChanges
	if !decodeBody(w, r, &changes) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Manager.UpdateCase(ctx, caseID, changes, r.Header.Get(AdminSecretHeader))
	if err != nil {
		writeServiceError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, caseResponse{Case: updated})
}

// queryInt parses a query parameter, treating anything non-numeric as unset
func queryInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
