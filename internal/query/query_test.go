package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseFilter(t *testing.T) {
	got, err := ParseFilter(`{"email":"Jo@X.com","title":"cat"}`)
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"email": "Jo@X.com",
		"title": bson.M{"$regex": "cat", "$options": "i"},
	}, got)
}

func TestParseFilterIdentifiers(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := ParseFilter(`{"set_id":"abc","tutorEmail":"t@x.com","status":"open","id":"` + oid.Hex() + `","grade_level":"Grade 5","is_active":true,"views":3}`)
	require.NoError(t, err)

	assert.Equal(t, "abc", got["setId"])
	assert.Equal(t, "t@x.com", got["tutorEmail"])
	assert.Equal(t, "open", got["status"])
	assert.Equal(t, oid, got["_id"])
	assert.Equal(t, bson.M{"$regex": "Grade 5", "$options": "i"}, got["gradeLevel"])
	assert.Equal(t, true, got["isActive"])
	assert.Equal(t, int64(3), got["views"])
}

func TestParseFilterEscapesAndBlocks(t *testing.T) {
	got, err := ParseFilter(`{"title":"C++ (intro)","$where":"sleep(1000)"}`)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"title": bson.M{"$regex": `C\+\+ \(intro\)`, "$options": "i"}}, got)
}

func TestParseFilterBlocksNestedOperators(t *testing.T) {
	got, err := ParseFilter(`{"$or":[{"$where":"sleep(5000) || true"},{"views":{"$gt":1}}],"$and":[{"$expr":{"$gt":["$a","$b"]}},{"$function":{"body":"x"}}]}`)
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"$or":  bson.A{bson.M{}, bson.M{"views": bson.M{"$gt": int64(1)}}},
		"$and": bson.A{bson.M{}, bson.M{}},
	}, got)

	got, err = ParseFilter(`{"tags":{"$elemMatch":{"$where":"1"}}}`)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"tags": bson.M{"$elemMatch": bson.M{}}}, got)
}

func TestParseFilterDuplicateSpellings(t *testing.T) {
	for i := 0; i < 50; i++ {
		got, err := ParseFilter(`{"user_id":"a","userId":"b"}`)
		require.NoError(t, err)
		assert.Equal(t, bson.M{"userId": "b"}, got)
	}
}

func TestParseFilterErrors(t *testing.T) {
	got, err := ParseFilter("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseFilter(`{"title":`)
	assert.Error(t, err)

	_, err = ParseFilter(`{"a":1}xyz`)
	assert.Error(t, err)
	_, err = ParseFilter(`{"a":1} {"b":2}`)
	assert.Error(t, err)
	_, err = ParseFilter(`{"a":1}  `)
	assert.NoError(t, err)
}

func TestCamelCaseIdempotent(t *testing.T) {
	for _, in := range []string{"sort_order", "sortOrder", "created_at", "_id", "grade__level", "name", "is_active_flag"} {
		once := CamelCase(in)
		assert.Equal(t, once, CamelCase(once), in)
	}
	assert.Equal(t, "sortOrder", CamelCase("sort_order"))
	assert.Equal(t, "_id", CamelCase("_id"))
	assert.Equal(t, "isActiveFlag", CamelCase("is_active_flag"))
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"sortOrder":     "sort_order",
		"downloadCount": "download_count",
		"userID":        "user_id",
		"already_snake": "already_snake",
		"name":          "name",
		"_id":           "_id",
	}
	for in, want := range cases {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

func TestParseSort(t *testing.T) {
	got, err := ParseSort(`{"sort_order":1,"created_at":-1,"name":"desc"}`)
	require.NoError(t, err)
	assert.Equal(t, bson.D{
		{Key: "sortOrder", Value: 1},
		{Key: "createdAt", Value: -1},
		{Key: "name", Value: -1},
	}, got)

	got, err = ParseSort("sort_order,-created_at")
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "sortOrder", Value: 1}, {Key: "createdAt", Value: -1}}, got)

	assert.Equal(t, got, CamelizeSort(CamelizeSort(got)))

	_, err = ParseSort(`{"a":`)
	assert.Error(t, err)

	_, err = ParseSort(`{"a":1}xyz`)
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	limit, offset := Paginate("10000", "-5", 50, 200)
	assert.EqualValues(t, 200, limit)
	assert.EqualValues(t, 0, offset)

	limit, offset = Paginate("", "", 50, 1000)
	assert.EqualValues(t, 50, limit)
	assert.EqualValues(t, 0, offset)

	limit, offset = Paginate("abc", "20", 50, 1000)
	assert.EqualValues(t, 50, limit)
	assert.EqualValues(t, 20, offset)

	limit, _ = Paginate("0", "", 50, 1000)
	assert.EqualValues(t, 50, limit)
}

func TestSupabaseShape(t *testing.T) {
	oid := primitive.NewObjectID()
	now := primitive.NewDateTimeFromTime(time.Now())
	doc := bson.M{
		"_id":           oid,
		"createdAt":     now,
		"updatedAt":     now,
		"sortOrder":     2,
		"downloadCount": 7,
		"title":         "t",
	}

	got := SupabaseShape(doc)

	assert.Equal(t, oid.Hex(), got["id"])
	assert.Equal(t, oid, got["_id"])
	assert.Equal(t, got["createdAt"], got["created_at"])
	assert.Equal(t, got["updatedAt"], got["updated_at"])
	assert.Equal(t, 2, got["sort_order"])
	assert.Equal(t, 2, got["sortOrder"])
	assert.Equal(t, 7, got["download_count"])
	assert.Equal(t, "t", got["title"])
	for k, v := range doc {
		assert.Equal(t, v, got[k], "original key %s kept", k)
	}
}

func TestSupabaseShapeLegacySnakeTimestamps(t *testing.T) {
	got := SupabaseShape(bson.M{"_id": "legacy-1", "created_at": "2024-01-01"})
	assert.Equal(t, "legacy-1", got["id"])
	assert.Equal(t, "2024-01-01", got["createdAt"])
	assert.Equal(t, "2024-01-01", got["created_at"])
}

func TestSupabaseShapePrefersCamelTimestamps(t *testing.T) {
	for i := 0; i < 50; i++ {
		got := SupabaseShape(bson.M{"createdAt": "new", "created_at": "old", "updated_at": "legacy"})
		assert.Equal(t, "new", got["createdAt"])
		assert.Equal(t, "new", got["created_at"])
		assert.Equal(t, "legacy", got["updatedAt"])
		assert.Equal(t, "legacy", got["updated_at"])
	}
}

func TestPlainShape(t *testing.T) {
	oid := primitive.NewObjectID()
	got := PlainShape(bson.M{"_id": oid, "sortOrder": 1})
	assert.Equal(t, oid.Hex(), got["id"])
	_, hasSnake := got["sort_order"]
	assert.False(t, hasSnake)
	assert.Len(t, ShapeAll(PlainShape, []bson.M{{"a": 1}, {"b": 2}}), 2)
}
