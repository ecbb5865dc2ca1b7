// Package mongodb manages MongoDB collections and their indexes.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionUsers holds user documents including their lifecycle.
const CollectionUsers = "users"

// IndexDefinition describes a MongoDB index to be created.
type IndexDefinition struct {
	Collection string
	Name       string
	Keys       bson.D
	Options    *options.IndexOptionsBuilder
}

// CreateAllIndexes creates every index in GetAllIndexDefinitions.
// Creating an index that already exists with the same keys and options is a no-op.
func CreateAllIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range GetAllIndexDefinitions() {
		model := mongo.IndexModel{
			Keys:    idx.Keys,
			Options: idx.Options.SetName(idx.Name),
		}
		if _, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index %s on collection %s: %w", idx.Name, idx.Collection, err)
		}
	}
	return nil
}

// GetAllIndexDefinitions returns index definitions for all collections.
func GetAllIndexDefinitions() []IndexDefinition {
	return GetUserIndexes()
}

// GetUserIndexes returns the indexes of the users collection.
func GetUserIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionUsers,
			Name:       "idx_users_id_unique",
			Keys:       bson.D{{Key: "user_id", Value: 1}},
			Options:    options.Index().SetUnique(true),
		},
		{
			Collection: CollectionUsers,
			Name:       "idx_users_username_unique",
			Keys:       bson.D{{Key: "username", Value: 1}},
			Options:    options.Index().SetUnique(true),
		},
		{
			Collection: CollectionUsers,
			Name:       "idx_users_email_unique",
			Keys:       bson.D{{Key: "email", Value: 1}},
			Options:    options.Index().SetUnique(true),
		},
		{
			// sparse: users created before an identity provider was wired have none
			Collection: CollectionUsers,
			Name:       "idx_users_external_id_unique",
			Keys:       bson.D{{Key: "external_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetSparse(true),
		},
		{
			// backs the newest-first listing, optionally filtered by state
			Collection: CollectionUsers,
			Name:       "idx_users_state_created",
			Keys:       bson.D{{Key: "lifecycle.state", Value: 1}, {Key: "created_at", Value: -1}},
			Options:    options.Index(),
		},
		{
			Collection: CollectionUsers,
			Name:       "idx_users_created",
			Keys:       bson.D{{Key: "created_at", Value: -1}},
			Options:    options.Index(),
		},
	}
}
