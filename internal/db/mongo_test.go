package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFindOptions(t *testing.T) {
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "name", Value: 1}}
	fo := findOptions(FindOptions{Sort: sort, Skip: 20, Limit: 10})
	assert.Equal(t, sort, fo.Sort)
	require.NotNil(t, fo.Skip)
	assert.Equal(t, int64(20), *fo.Skip)
	require.NotNil(t, fo.Limit)
	assert.Equal(t, int64(10), *fo.Limit)

	empty := findOptions(FindOptions{})
	assert.Nil(t, empty.Sort)
	assert.Nil(t, empty.Skip)
	assert.Nil(t, empty.Limit)
}

func TestWithID(t *testing.T) {
	m, err := withID(bson.M{"name": "Algebra"})
	require.NoError(t, err)
	_, ok := m["_id"].(primitive.ObjectID)
	assert.True(t, ok)
	assert.Equal(t, "Algebra", m["name"])

	oid := primitive.NewObjectID()
	m, err = withID(bson.M{"_id": oid})
	require.NoError(t, err)
	assert.Equal(t, oid, m["_id"])

	_, err = withID(42)
	assert.Error(t, err)
}

func TestNonNil(t *testing.T) {
	assert.Equal(t, bson.M{}, nonNil(nil))
	assert.Equal(t, bson.M{"a": 1}, nonNil(bson.M{"a": 1}))
}
