package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybercell/complaint-portal-api/databases"
	"github.com/cybercell/complaint-portal-api/databases/memory"
	"github.com/cybercell/complaint-portal-api/models"
)

const adminSecret = "s3cret-admin"

var caseIDPattern = regexp.MustCompile(`^CYB-2026-\d{6}$`)

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func seededGenerator(seed int64, clock func() time.Time) *IDGenerator {
	return &IDGenerator{prefix: "CYB", now: clock, rnd: rand.New(rand.NewSource(seed))}
}

type recordingNotifier struct {
	registered []string
	changed    []models.CaseStatus
	err        error
}

func (n *recordingNotifier) CaseRegistered(_ context.Context, c models.Case) error {
	n.registered = append(n.registered, c.CaseID)
	return n.err
}

func (n *recordingNotifier) CaseStatusChanged(_ context.Context, c models.Case) error {
	n.changed = append(n.changed, c.Status)
	return n.err
}

func newTestManager(store CaseStore, notifier Notifier) (*CaseManager, *fixedClock) {
	clock := &fixedClock{t: time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC)}
	m := NewCaseManager(store, seededGenerator(42, clock.now), NewSharedSecret(adminSecret), notifier)
	m.now = clock.now
	return m, clock
}

func ashaSubmission() CaseSubmission {
	return CaseSubmission{
		Name:         "Asha Rao",
		Phone:        "9876543210",
		State:        "Karnataka",
		AadhaarLast4: "1234",
		CrimeType:    "Phishing",
		IncidentDate: "2026-01-10",
		Description:  "Received a fake bank SMS and lost money through the link.",
	}
}

func TestCreateCaseAssignsIdentifierAndRegisteredStatus(t *testing.T) {
	m, clock := newTestManager(memory.NewCaseDatabase(), nil)

	c, err := m.CreateCase(context.Background(), ashaSubmission())

	require.NoError(t, err)
	assert.Regexp(t, caseIDPattern, c.CaseID)
	assert.Equal(t, models.CaseStatusRegistered, c.Status)
	assert.Equal(t, clock.t, c.CreatedAt)
	assert.Equal(t, clock.t, c.UpdatedAt)
	assert.Equal(t, []string{}, c.EvidenceFiles)
	assert.Nil(t, c.Location)
	assert.False(t, c.ID.IsZero())
}

func TestCreateCaseMissingRequiredFields(t *testing.T) {
	store := memory.NewCaseDatabase()
	m, _ := newTestManager(store, nil)

	sub := ashaSubmission()
	sub.Phone = "   "
	sub.Description = ""
	c, err := m.CreateCase(context.Background(), sub)

	assert.Nil(t, c)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "missing required fields: phone, description", verr.Message)

	_, total, _ := store.Search(context.Background(), models.CaseFilter{}, 1, 20)
	assert.Zero(t, total)
}

func TestCreateCaseRegeneratesOnCollision(t *testing.T) {
	store := memory.NewCaseDatabase()
	m, clock := newTestManager(store, nil)

	// the manager's generator uses seed 42, so its first candidate is known
	taken := seededGenerator(42, clock.now).Next()
	require.NoError(t, store.Insert(context.Background(), &models.Case{CaseID: taken}))

	c, err := m.CreateCase(context.Background(), ashaSubmission())

	require.NoError(t, err)
	assert.NotEqual(t, taken, c.CaseID)
	assert.Regexp(t, caseIDPattern, c.CaseID)
}

type racingStore struct {
	*memory.CaseDatabase
	duplicates int
	inserts    int
}

func (s *racingStore) Exists(context.Context, string) (bool, error) {
	return false, nil
}

func (s *racingStore) Insert(ctx context.Context, c *models.Case) error {
	s.inserts++
	if s.duplicates > 0 {
		s.duplicates--
		return databases.NewDuplicateKeyError("caseId")
	}
	return s.CaseDatabase.Insert(ctx, c)
}

func TestCreateCaseRetriesWhenInsertLosesRace(t *testing.T) {
	store := &racingStore{CaseDatabase: memory.NewCaseDatabase(), duplicates: 2}
	m, _ := newTestManager(store, nil)

	c, err := m.CreateCase(context.Background(), ashaSubmission())

	require.NoError(t, err)
	assert.Equal(t, 3, store.inserts)
	assert.Regexp(t, caseIDPattern, c.CaseID)
}

func TestCreateCaseIdentifiersAreUnique(t *testing.T) {
	m, _ := newTestManager(memory.NewCaseDatabase(), nil)

	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		c, err := m.CreateCase(context.Background(), ashaSubmission())
		require.NoError(t, err)
		assert.False(t, seen[c.CaseID], "duplicate id %s", c.CaseID)
		seen[c.CaseID] = true
	}
}

type failingCaseStore struct {
	*memory.CaseDatabase
}

func (failingCaseStore) Exists(context.Context, string) (bool, error) {
	return false, errors.New("connection reset")
}

func (failingCaseStore) FindByCaseID(context.Context, string) (*models.Case, error) {
	return nil, errors.New("connection reset")
}

func (failingCaseStore) Search(context.Context, models.CaseFilter, int, int) ([]models.Case, int64, error) {
	return nil, 0, errors.New("connection reset")
}

func TestStoreFailuresAreStoreErrors(t *testing.T) {
	m, _ := newTestManager(failingCaseStore{memory.NewCaseDatabase()}, nil)
	ctx := context.Background()
	var serr *StoreError

	_, err := m.CreateCase(ctx, ashaSubmission())
	assert.True(t, errors.As(err, &serr))

	_, err = m.GetCase(ctx, "CYB-2026-123456")
	assert.True(t, errors.As(err, &serr))

	_, err = m.ListCases(ctx, models.CaseFilter{}, 1, 20)
	assert.True(t, errors.As(err, &serr))
	assert.EqualError(t, err, "search cases: connection reset")
}

func TestGetCaseIsCaseInsensitive(t *testing.T) {
	m, _ := newTestManager(memory.NewCaseDatabase(), nil)
	created, err := m.CreateCase(context.Background(), ashaSubmission())
	require.NoError(t, err)

	upper, err := m.GetCase(context.Background(), created.CaseID)
	require.NoError(t, err)
	lower, err := m.GetCase(context.Background(), " "+strings.ToLower(created.CaseID)+" ")
	require.NoError(t, err)

	assert.Equal(t, upper, lower)
}

func TestGetCaseNotFound(t *testing.T) {
	m, _ := newTestManager(memory.NewCaseDatabase(), nil)

	_, err := m.GetCase(context.Background(), "CYB-2026-123456")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetCase(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCaseWithoutCredentialLeavesRecordUnchanged(t *testing.T) {
	store := memory.NewCaseDatabase()
	m, clock := newTestManager(store, nil)
	created, err := m.CreateCase(context.Background(), ashaSubmission())
	require.NoError(t, err)
	clock.advance(time.Hour)

	closed := models.CaseStatusClosed
	for _, credential := range []string{"", "wrong", adminSecret + " "} {
		updated, err := m.UpdateCase(context.Background(), created.CaseID, models.CaseChanges{Status: &closed}, credential)
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, ErrUnauthorized)
	}

	after, err := m.GetCase(context.Background(), created.CaseID)
	require.NoError(t, err)
	assert.Equal(t, created, after)
}

func TestUpdateCaseIgnoresFieldsOutsideAllowList(t *testing.T) {
	m, clock := newTestManager(memory.NewCaseDatabase(), nil)
	created, err := m.CreateCase(context.Background(), ashaSubmission())
	require.NoError(t, err)
	clock.advance(2 * time.Hour)

	var changes models.CaseChanges
	body := `{"status": "Closed", "name": "Someone Else", "phone": "0000000000", "caseId": "CYB-1999-000000", "officerNotes": "refund traced"}`
	require.NoError(t, json.Unmarshal([]byte(body), &changes))

	updated, err := m.UpdateCase(context.Background(), strings.ToLower(created.CaseID), changes, adminSecret)

	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusClosed, updated.Status)
	assert.Equal(t, "refund traced", updated.OfficerNotes)
	assert.Equal(t, "Asha Rao", updated.Name)
	assert.Equal(t, "9876543210", updated.Phone)
	assert.Equal(t, created.CaseID, updated.CaseID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateCaseAllowsAnyStatusTransition(t *testing.T) {
	m, _ := newTestManager(memory.NewCaseDatabase(), nil)
	created, err := m.CreateCase(context.Background(), ashaSubmission())
	require.NoError(t, err)

	for _, status := range []models.CaseStatus{models.CaseStatusClosed, models.CaseStatusRegistered, models.CaseStatusInvestigation} {
		s := status
		updated, err := m.UpdateCase(context.Background(), created.CaseID, models.CaseChanges{Status: &s}, adminSecret)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}
}

func TestUpdateCaseRejectsUnknownStatus(t *testing.T) {
	m, _ := newTestManager(memory.NewCaseDatabase(), nil)
	created, err := m.CreateCase(context.Background(), ashaSubmission())
	require.NoError(t, err)

	bogus := models.CaseStatus("Archived")
	_, err = m.UpdateCase(context.Background(), created.CaseID, models.CaseChanges{Status: &bogus}, adminSecret)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestUpdateCaseNotFound(t *testing.T) {
	m, _ := newTestManager(memory.NewCaseDatabase(), nil)
	notes := "n/a"

	_, err := m.UpdateCase(context.Background(), "CYB-2026-123456", models.CaseChanges{OfficerNotes: &notes}, adminSecret)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCaseCheckedBeforeExistence(t *testing.T) {
	m, _ := newTestManager(memory.NewCaseDatabase(), nil)

	_, err := m.UpdateCase(context.Background(), "CYB-2026-123456", models.CaseChanges{}, "wrong")

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestListCasesSearchAndPaging(t *testing.T) {
	m, clock := newTestManager(memory.NewCaseDatabase(), nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := m.CreateCase(ctx, ashaSubmission())
		require.NoError(t, err)
		clock.advance(time.Minute)
	}
	other := ashaSubmission()
	other.Name = "Vikram Singh"
	other.Phone = "9123456780"
	other.State = "Punjab"
	_, err := m.CreateCase(ctx, other)
	require.NoError(t, err)

	page, err := m.ListCases(ctx, models.CaseFilter{Search: "rao"}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Cases, 2)
	assert.True(t, page.Cases[0].CreatedAt.After(page.Cases[1].CreatedAt))

	page, err = m.ListCases(ctx, models.CaseFilter{State: "Punjab"}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Vikram Singh", page.Cases[0].Name)

	page, err = m.ListCases(ctx, models.CaseFilter{Search: "nomatch"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Equal(t, 0, page.Pages)
	assert.NotNil(t, page.Cases)
	assert.Empty(t, page.Cases)
}

func TestListCasesFiltersByStatus(t *testing.T) {
	m, _ := newTestManager(memory.NewCaseDatabase(), nil)
	ctx := context.Background()
	first, err := m.CreateCase(ctx, ashaSubmission())
	require.NoError(t, err)
	_, err = m.CreateCase(ctx, ashaSubmission())
	require.NoError(t, err)

	assigned := models.CaseStatusAssigned
	_, err = m.UpdateCase(ctx, first.CaseID, models.CaseChanges{Status: &assigned}, adminSecret)
	require.NoError(t, err)

	page, err := m.ListCases(ctx, models.CaseFilter{Status: string(models.CaseStatusAssigned)}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Cases, 1)
	assert.Equal(t, first.CaseID, page.Cases[0].CaseID)
}

type pageSpy struct {
	*memory.CaseDatabase
	page, limit int
}

func (s *pageSpy) Search(ctx context.Context, filter models.CaseFilter, page, limit int) ([]models.Case, int64, error) {
	s.page, s.limit = page, limit
	return nil, 250, nil
}

func TestListCasesNormalizesPaging(t *testing.T) {
	tests := []struct {
		name              string
		page, limit       int
		wantPage, wantLim int
		wantPages         int
	}{
		{"defaults", 0, 0, 1, DefaultPageLimit, 13},
		{"negative", -3, -1, 1, DefaultPageLimit, 13},
		{"capped", 2, 5000, 2, MaxPageLimit, 3},
		{"explicit", 4, 50, 4, 50, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &pageSpy{CaseDatabase: memory.NewCaseDatabase()}
			m, _ := newTestManager(spy, nil)

			page, err := m.ListCases(context.Background(), models.CaseFilter{}, tt.page, tt.limit)

			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, spy.page)
			assert.Equal(t, tt.wantLim, spy.limit)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantPages, page.Pages)
			assert.NotNil(t, page.Cases)
		})
	}
}

func TestNotifierSeesRegistrationAndStatusChanges(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("mail down")}
	m, _ := newTestManager(memory.NewCaseDatabase(), notifier)
	ctx := context.Background()

	created, err := m.CreateCase(ctx, ashaSubmission())
	require.NoError(t, err)
	assert.Equal(t, []string{created.CaseID}, notifier.registered)

	officer := "SI Mehta"
	_, err = m.UpdateCase(ctx, created.CaseID, models.CaseChanges{AssignedOfficer: &officer}, adminSecret)
	require.NoError(t, err)
	assert.Empty(t, notifier.changed)

	review := models.CaseStatusUnderReview
	_, err = m.UpdateCase(ctx, created.CaseID, models.CaseChanges{Status: &review}, adminSecret)
	require.NoError(t, err)
	assert.Equal(t, []models.CaseStatus{models.CaseStatusUnderReview}, notifier.changed)
}
