// Package mongodb implements application repositories on MongoDB.
package mongodb

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/commons/internal/domain/errs"
)

// HandleMongoError maps driver errors to domain errors:
// mongo.ErrNoDocuments becomes errs.ErrNotFound, duplicate keys become
// errs.ErrAlreadyExists, everything else is wrapped with resourceType.
func HandleMongoError(err error, resourceType string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrAlreadyExists
	}
	return fmt.Errorf("failed to operate on %s: %w", resourceType, err)
}

// UpsertOptions returns options for an insert-or-replace UpdateOne.
func UpsertOptions() *options.UpdateOneOptionsBuilder {
	return options.UpdateOne().SetUpsert(true)
}

// FindWithPaginationDesc returns find options for one page sorted by created_at, newest first.
func FindWithPaginationDesc(offset, limit int) *options.FindOptionsBuilder {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
}

// StringPtr returns nil for the empty string, for sparse-indexed fields.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, treating nil as the empty string.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
