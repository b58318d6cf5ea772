// Package memory holds mutex-guarded in-process implementations of the
// databases interfaces. They back local runs with DB_URI=memory:// and the
// handler tests; records do not survive a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cybercell/complaint-portal-api/databases"
	"github.com/cybercell/complaint-portal-api/models"
)

// CaseDatabase is an in-memory databases.CaseDatabase
type CaseDatabase struct {
	mu    sync.RWMutex
	cases []models.Case
	byID  map[string]int
}

// NewCaseDatabase returns an empty in-memory case store
func NewCaseDatabase() *CaseDatabase {
	return &CaseDatabase{byID: map[string]int{}}
}

// FindByCaseID returns a copy of the stored case
func (d *CaseDatabase) FindByCaseID(_ context.Context, caseID string) (*models.Case, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.byID[caseID]
	if !ok {
		return nil, databases.ErrNoDocuments
	}
	c := cloneCase(d.cases[i])
	return &c, nil
}

// Exists reports whether caseID is taken
func (d *CaseDatabase) Exists(_ context.Context, caseID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[caseID]
	return ok, nil
}

// Insert stores c, enforcing caseId uniqueness like the mongo unique index
func (d *CaseDatabase) Insert(_ context.Context, c *models.Case) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byID[c.CaseID]; ok {
		return databases.NewDuplicateKeyError("caseId")
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	d.byID[c.CaseID] = len(d.cases)
	d.cases = append(d.cases, cloneCase(*c))
	return nil
}

// Update applies the non-nil changes and returns the updated case
func (d *CaseDatabase) Update(_ context.Context, caseID string, changes models.CaseChanges, updatedAt time.Time) (*models.Case, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.byID[caseID]
	if !ok {
		return nil, databases.ErrNoDocuments
	}
	c := &d.cases[i]
	if changes.Status != nil {
		c.Status = *changes.Status
	}
	if changes.AssignedOfficer != nil {
		c.AssignedOfficer = *changes.AssignedOfficer
	}
	if changes.OfficerNotes != nil {
		c.OfficerNotes = *changes.OfficerNotes
	}
	c.UpdatedAt = updatedAt
	updated := cloneCase(*c)
	return &updated, nil
}

// Search filters, sorts newest first and pages like the mongo implementation
func (d *CaseDatabase) Search(_ context.Context, filter models.CaseFilter, page, limit int) ([]models.Case, int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	type indexed struct {
		seq int
		c   models.Case
	}
	var matched []indexed
	for i, c := range d.cases {
		if matchesCase(c, filter) {
			matched = append(matched, indexed{seq: i, c: c})
		}
	}
	sort.SliceStable(matched, func(a, b int) bool {
		if !matched[a].c.CreatedAt.Equal(matched[b].c.CreatedAt) {
			return matched[a].c.CreatedAt.After(matched[b].c.CreatedAt)
		}
		return matched[a].seq > matched[b].seq
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start < 0 || start >= len(matched) {
		return []models.Case{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]models.Case, 0, end-start)
	for _, m := range matched[start:end] {
		out = append(out, cloneCase(m.c))
	}
	return out, total, nil
}

// CountByStatus counts cases in status, optionally only those created before createdBefore
func (d *CaseDatabase) CountByStatus(_ context.Context, status models.CaseStatus, createdBefore time.Time) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var n int64
	for _, c := range d.cases {
		if c.Status != status {
			continue
		}
		if !createdBefore.IsZero() && !c.CreatedAt.Before(createdBefore) {
			continue
		}
		n++
	}
	return n, nil
}

// EnsureIndexes is a no-op, uniqueness is enforced by Insert
func (d *CaseDatabase) EnsureIndexes(context.Context) error { return nil }

func matchesCase(c models.Case, filter models.CaseFilter) bool {
	if filter.Status != "" && string(c.Status) != filter.Status {
		return false
	}
	if filter.State != "" && c.State != filter.State {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		return strings.Contains(strings.ToLower(c.CaseID), needle) ||
			strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Phone), needle)
	}
	return true
}

func cloneCase(c models.Case) models.Case {
	if c.EvidenceFiles != nil {
		c.EvidenceFiles = append([]string{}, c.EvidenceFiles...)
	}
	if c.Location != nil {
		loc := *c.Location
		c.Location = &loc
	}
	return c
}

// VisitorLocationDatabase is an in-memory databases.VisitorLocationDatabase
type VisitorLocationDatabase struct {
	mu        sync.RWMutex
	locations []models.VisitorLocation
}

// NewVisitorLocationDatabase returns an empty in-memory visitor location store
func NewVisitorLocationDatabase() *VisitorLocationDatabase {
	return &VisitorLocationDatabase{}
}

// Insert appends loc
func (d *VisitorLocationDatabase) Insert(_ context.Context, loc *models.VisitorLocation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if loc.ID.IsZero() {
		loc.ID = primitive.NewObjectID()
	}
	d.locations = append(d.locations, *loc)
	return nil
}

// Recent returns up to limit records, newest capture first
func (d *VisitorLocationDatabase) Recent(_ context.Context, limit int) ([]models.VisitorLocation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.VisitorLocation, 0, len(d.locations))
	for i := len(d.locations) - 1; i >= 0; i-- {
		out = append(out, d.locations[i])
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CapturedAt.After(out[b].CapturedAt)
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// EnsureIndexes is a no-op
func (d *VisitorLocationDatabase) EnsureIndexes(context.Context) error { return nil }

// UserDatabase is an in-memory databases.UserDatabase
type UserDatabase struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

// NewUserDatabase returns an empty in-memory user store
func NewUserDatabase() *UserDatabase {
	return &UserDatabase{users: map[primitive.ObjectID]models.User{}}
}

// FindByEmail looks a user up by their stored (lower-cased) email
func (d *UserDatabase) FindByEmail(_ context.Context, email string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, databases.ErrNoDocuments
}

// FindByID looks a user up by id
func (d *UserDatabase) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, databases.ErrNoDocuments
	}
	return &u, nil
}

// Insert stores user, enforcing email uniqueness
func (d *UserDatabase) Insert(_ context.Context, user *models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == user.Email {
			return databases.NewDuplicateKeyError("email")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	d.users[user.ID] = *user
	return nil
}

// EnsureIndexes is a no-op, uniqueness is enforced by Insert
func (d *UserDatabase) EnsureIndexes(context.Context) error { return nil }

var (
	_ databases.CaseDatabase            = (*CaseDatabase)(nil)
	_ databases.VisitorLocationDatabase = (*VisitorLocationDatabase)(nil)
	_ databases.UserDatabase            = (*UserDatabase)(nil)
)
