package mongodb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lllypuk/commons/internal/infrastructure/mongodb"
	"github.com/lllypuk/commons/tests/testutil"
)

func TestGetUserIndexes(t *testing.T) {
	names := make(map[string]bool)
	for _, idx := range mongodb.GetUserIndexes() {
		assert.Equal(t, mongodb.CollectionUsers, idx.Collection)
		assert.NotEmpty(t, idx.Keys)
		assert.False(t, names[idx.Name], "duplicate index name %s", idx.Name)
		names[idx.Name] = true
	}
	assert.True(t, names["idx_users_state_created"])
}

func TestCreateAllIndexes(t *testing.T) {
	db := testutil.SetupTestMongoDB(t)
	ctx := context.Background()

	// Act - twice, the second call must be a no-op
	require.NoError(t, mongodb.CreateAllIndexes(ctx, db))
	require.NoError(t, mongodb.CreateAllIndexes(ctx, db))

	// Assert
	cursor, err := db.Collection(mongodb.CollectionUsers).Indexes().List(ctx)
	require.NoError(t, err)

	var indexes []bson.M
	require.NoError(t, cursor.All(ctx, &indexes))

	got := make(map[string]bool)
	for _, idx := range indexes {
		if name, ok := idx["name"].(string); ok {
			got[name] = true
		}
	}
	for _, def := range mongodb.GetUserIndexes() {
		assert.True(t, got[def.Name], "index %s missing", def.Name)
	}
}
