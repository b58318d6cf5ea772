package databases

// go generate: mockery --name VisitorLocationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cybercell/complaint-portal-api/models"
)

const visitorLocationName = "visitorlocations"

// VisitorLocationDatabase contains the methods to use with the visitor location database
type VisitorLocationDatabase interface {
	Insert(ctx context.Context, loc *models.VisitorLocation) error
	Recent(ctx context.Context, limit int) ([]models.VisitorLocation, error)
	EnsureIndexes(ctx context.Context) error
}

type visitorLocationDatabase struct {
	db DatabaseHelper
}

// NewVisitorLocationDatabase initializes a new instance of visitor location database with the provided db connection
func NewVisitorLocationDatabase(db DatabaseHelper) VisitorLocationDatabase {
	return &visitorLocationDatabase{
		db: db,
	}
}

func (v *visitorLocationDatabase) Insert(ctx context.Context, loc *models.VisitorLocation) error {
	if loc.ID.IsZero() {
		loc.ID = primitive.NewObjectID()
	}
	_, err := v.db.Collection(visitorLocationName).InsertOne(ctx, loc)
	return err
}

func (v *visitorLocationDatabase) Recent(ctx context.Context, limit int) ([]models.VisitorLocation, error) {
	cursor, err := v.db.Collection(visitorLocationName).Find(ctx, bson.D{}, newMongoPaginate(limit, 1).getPaginatedOpts("capturedAt"))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var locations []models.VisitorLocation
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

func (v *visitorLocationDatabase) EnsureIndexes(ctx context.Context) error {
	return v.db.Collection(visitorLocationName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "capturedAt", Value: -1}}, Options: options.Index().SetName("capturedAt_desc")},
	})
}
