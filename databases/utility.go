package databases

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoDocuments is returned by single-document lookups that match nothing
var ErrNoDocuments = mongo.ErrNoDocuments

const duplicateKeyCode = 11000

// IsNotFound reports whether err means the lookup matched no document
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is a unique index violation
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// NewDuplicateKeyError builds the error mongo returns when a unique index on field is violated
func NewDuplicateKeyError(field string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{
			Code:    duplicateKeyCode,
			Message: fmt.Sprintf("E11000 duplicate key error dup key: { %s }", field),
		}},
	}
}

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

// getPaginatedOpts returns 1-based page options sorted newest first on sortField
func (mp *mongoPaginate) getPaginatedOpts(sortField string) *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}
	fOpt.SetSort(bson.D{{Key: sortField, Value: -1}})

	return &fOpt
}
