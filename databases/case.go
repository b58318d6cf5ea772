package databases

// go generate: mockery --name CaseDatabase

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cybercell/complaint-portal-api/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindByCaseID(ctx context.Context, caseID string) (*models.Case, error)
	Exists(ctx context.Context, caseID string) (bool, error)
	Insert(ctx context.Context, c *models.Case) error
	Update(ctx context.Context, caseID string, changes models.CaseChanges, updatedAt time.Time) (*models.Case, error)
	Search(ctx context.Context, filter models.CaseFilter, page, limit int) ([]models.Case, int64, error)
	CountByStatus(ctx context.Context, status models.CaseStatus, createdBefore time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindByCaseID(ctx context.Context, caseID string) (*models.Case, error) {
	found := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, bson.M{"caseId": caseID}).Decode(found)
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (c *caseDatabase) Exists(ctx context.Context, caseID string) (bool, error) {
	n, err := c.db.Collection(caseName).CountDocuments(ctx, bson.M{"caseId": caseID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *caseDatabase) Insert(ctx context.Context, cs *models.Case) error {
	if cs.ID.IsZero() {
		cs.ID = primitive.NewObjectID()
	}
	_, err := c.db.Collection(caseName).InsertOne(ctx, cs)
	return err
}

func (c *caseDatabase) Update(ctx context.Context, caseID string, changes models.CaseChanges, updatedAt time.Time) (*models.Case, error) {
	set := bson.M{"updatedAt": updatedAt}
	if changes.Status != nil {
		set["status"] = *changes.Status
	}
	if changes.AssignedOfficer != nil {
		set["assignedOfficer"] = *changes.AssignedOfficer
	}
	if changes.OfficerNotes != nil {
		set["officerNotes"] = *changes.OfficerNotes
	}

	updated := &models.Case{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := c.db.Collection(caseName).FindOneAndUpdate(ctx, bson.M{"caseId": caseID}, bson.M{"$set": set}, opts).Decode(updated)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *caseDatabase) Search(ctx context.Context, filter models.CaseFilter, page, limit int) ([]models.Case, int64, error) {
	query := caseFilterQuery(filter)

	total, err := c.db.Collection(caseName).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := c.db.Collection(caseName).Find(ctx, query, newMongoPaginate(limit, page).getPaginatedOpts("createdAt"))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var cases []models.Case
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, 0, err
	}
	return cases, total, nil
}

// CountByStatus counts cases in status. A non-zero createdBefore only counts cases
// created before it.
func (c *caseDatabase) CountByStatus(ctx context.Context, status models.CaseStatus, createdBefore time.Time) (int64, error) {
	filter := bson.M{"status": status}
	if !createdBefore.IsZero() {
		filter["createdAt"] = bson.M{"$lt": createdBefore}
	}
	return c.db.Collection(caseName).CountDocuments(ctx, filter)
}

func (c *caseDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(caseName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "caseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "state", Value: 1}}},
	})
}

// caseFilterQuery builds the mongo filter for a listing. Search text is matched
// literally and case-insensitively against the case id, name and phone.
func caseFilterQuery(filter models.CaseFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.State != "" {
		query["state"] = filter.State
	}
	if filter.Search != "" {
		pattern := regexp.QuoteMeta(filter.Search)
		query["$or"] = []bson.M{
			{"caseId": bson.M{"$regex": pattern, "$options": "i"}},
			{"name": bson.M{"$regex": pattern, "$options": "i"}},
			{"phone": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return query
}
