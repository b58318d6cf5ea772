package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cybercell/complaint-portal-api/databases"
	"github.com/cybercell/complaint-portal-api/models"
)

const (
	// DefaultPageLimit is used when a listing does not ask for a page size
	DefaultPageLimit = 20
	// MaxPageLimit caps the page size of a listing
	MaxPageLimit = 100
)

// CaseStore is the persistence the case lifecycle needs
type CaseStore interface {
	FindByCaseID(ctx context.Context, caseID string) (*models.Case, error)
	Exists(ctx context.Context, caseID string) (bool, error)
	Insert(ctx context.Context, c *models.Case) error
	Update(ctx context.Context, caseID string, changes models.CaseChanges, updatedAt time.Time) (*models.Case, error)
	Search(ctx context.Context, filter models.CaseFilter, page, limit int) ([]models.Case, int64, error)
}

// Notifier is told about lifecycle events after they are stored. Its errors are
// logged and never fail the operation.
type Notifier interface {
	CaseRegistered(ctx context.Context, c models.Case) error
	CaseStatusChanged(ctx context.Context, c models.Case) error
}

// CaseSubmission is what a citizen may supply when filing a case. Status, officer
// and timestamp fields are deliberately absent.
type CaseSubmission struct {
	Name          string               `json:"name"`
	Phone         string               `json:"phone"`
	Email         string               `json:"email"`
	State         string               `json:"state"`
	District      string               `json:"district"`
	AadhaarLast4  string               `json:"aadhaarLast4"`
	CrimeType     string               `json:"crimeType"`
	IncidentDate  string               `json:"incidentDate"`
	IncidentTime  string               `json:"incidentTime"`
	Description   string               `json:"description"`
	SuspectInfo   string               `json:"suspectInfo"`
	EvidenceFiles []string             `json:"evidenceFiles"`
	LossAmount    string               `json:"lossAmount"`
	Location      *models.CaseLocation `json:"location"`
}

func (s CaseSubmission) validate() error {
	required := []struct {
		field, value string
	}{
		{"name", s.Name},
		{"phone", s.Phone},
		{"state", s.State},
		{"aadhaarLast4", s.AadhaarLast4},
		{"crimeType", s.CrimeType},
		{"incidentDate", s.IncidentDate},
		{"description", s.Description},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

// CasePage is one page of a case listing
type CasePage struct {
	Cases []models.Case `json:"cases"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

// CaseManager owns the case lifecycle: creation with a unique identifier, lookup,
// listing, and credential-gated administrative updates.
//
// Any authorized update may move a case to any of the five statuses. There is no
// adjacency check, so mistaken closures can be corrected.
type CaseManager struct {
	store    CaseStore
	ids      *IDGenerator
	admin    AdministratorCredential
	notifier Notifier
	now      func() time.Time
}

// NewCaseManager wires a CaseManager. notifier may be nil.
func NewCaseManager(store CaseStore, ids *IDGenerator, admin AdministratorCredential, notifier Notifier) *CaseManager {
	return &CaseManager{
		store:    store,
		ids:      ids,
		admin:    admin,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateCase validates sub, assigns a fresh identifier, forces the Registered status
// and stores the case.
func (m *CaseManager) CreateCase(ctx context.Context, sub CaseSubmission) (*models.Case, error) {
	if err := sub.validate(); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	c := models.Case{
		Status:        models.CaseStatusRegistered,
		Name:          strings.TrimSpace(sub.Name),
		Phone:         strings.TrimSpace(sub.Phone),
		Email:         strings.TrimSpace(sub.Email),
		State:         strings.TrimSpace(sub.State),
		District:      sub.District,
		AadhaarLast4:  strings.TrimSpace(sub.AadhaarLast4),
		CrimeType:     sub.CrimeType,
		IncidentDate:  sub.IncidentDate,
		IncidentTime:  sub.IncidentTime,
		Description:   sub.Description,
		SuspectInfo:   sub.SuspectInfo,
		EvidenceFiles: sub.EvidenceFiles,
		LossAmount:    sub.LossAmount,
		Location:      sub.Location,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if c.EvidenceFiles == nil {
		c.EvidenceFiles = []string{}
	}

	// The existence check is optimistic: a concurrent insert of the same id is
	// caught by the unique index and retried with a new id.
	for {
		caseID, err := m.uniqueCaseID(ctx)
		if err != nil {
			return nil, err
		}
		c.CaseID = caseID

		err = m.store.Insert(ctx, &c)
		if err == nil {
			break
		}
		if !databases.IsDuplicateKey(err) {
			return nil, storeError("insert case", err)
		}
		zap.S().Warnw("case id taken between check and insert, regenerating", "caseId", caseID)
	}

	zap.S().Infow("case registered", "caseId", c.CaseID, "crimeType", c.CrimeType, "state", c.State)
	if m.notifier != nil {
		if err := m.notifier.CaseRegistered(ctx, c); err != nil {
			zap.S().Warnw("failed to send case registration notice", "caseId", c.CaseID, "error", err)
		}
	}
	return &c, nil
}

// uniqueCaseID draws candidates until one is not in the store
func (m *CaseManager) uniqueCaseID(ctx context.Context) (string, error) {
	for {
		candidate := m.ids.Next()
		exists, err := m.store.Exists(ctx, candidate)
		if err != nil {
			return "", storeError("check case id", err)
		}
		if !exists {
			return candidate, nil
		}
		zap.S().Debugw("case id collision, regenerating", "caseId", candidate)
	}
}

// GetCase returns the case with the given identifier, matched case-insensitively
func (m *CaseManager) GetCase(ctx context.Context, caseID string) (*models.Case, error) {
	id := normalizeCaseID(caseID)
	if id == "" {
		return nil, ErrNotFound
	}
	c, err := m.store.FindByCaseID(ctx, id)
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, storeError("find case", err)
	}
	return c, nil
}

// UpdateCase applies the allow-listed changes on behalf of an administrator.
// Without a valid credential nothing is read or written.
func (m *CaseManager) UpdateCase(ctx context.Context, caseID string, changes models.CaseChanges, credential string) (*models.Case, error) {
	if err := m.admin.Authorize(ctx, credential); err != nil {
		return nil, ErrUnauthorized
	}
	if changes.Status != nil && !changes.Status.Valid() {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid status %q", *changes.Status)}
	}
	id := normalizeCaseID(caseID)
	if id == "" {
		return nil, ErrNotFound
	}

	updated, err := m.store.Update(ctx, id, changes, m.now().UTC())
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, storeError("update case", err)
	}

	zap.S().Infow("case updated", "caseId", updated.CaseID, "status", updated.Status)
	if changes.Status != nil && m.notifier != nil {
		if err := m.notifier.CaseStatusChanged(ctx, *updated); err != nil {
			zap.S().Warnw("failed to send status change notice", "caseId", updated.CaseID, "error", err)
		}
	}
	return updated, nil
}

// ListCases returns one page of cases matching filter, newest first. page is
// 1-based; out of range page and limit values fall back to defaults.
func (m *CaseManager) ListCases(ctx context.Context, filter models.CaseFilter, page, limit int) (*CasePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	cases, total, err := m.store.Search(ctx, filter, page, limit)
	if err != nil {
		return nil, storeError("search cases", err)
	}
	if cases == nil {
		cases = []models.Case{}
	}
	return &CasePage{
		Cases: cases,
		Total: total,
		Page:  page,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func normalizeCaseID(caseID string) string {
	return strings.ToUpper(strings.TrimSpace(caseID))
}
