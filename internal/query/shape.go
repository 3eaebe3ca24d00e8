package query

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shaper adapts a stored document for the response payload.
type Shaper func(doc bson.M) bson.M

// ShaperFor returns the adapter selected by RESPONSE_SHAPE.
func ShaperFor(name string) Shaper {
	if name == "plain" {
		return PlainShape
	}
	return SupabaseShape
}

// SupabaseShape mirrors the document under both naming conventions:
// _id is copied to id, createdAt/updatedAt to created_at/updated_at, and
// every other key gets a snake_case twin. Original keys are kept, except
// that a legacy created_at/updated_at yields to its camelCase twin.
func SupabaseShape(doc bson.M) bson.M {
	if doc == nil {
		return nil
	}
	out := make(bson.M, len(doc)*2)
	for k, v := range doc {
		out[k] = v
	}
	for k, v := range doc {
		switch k {
		case "_id":
			out["id"] = idString(v)
		case "createdAt", "created_at", "updatedAt", "updated_at":
		default:
			if snake := SnakeCase(k); snake != k {
				if _, taken := doc[snake]; !taken {
					out[snake] = v
				}
			}
		}
	}
	mirrorTimestamp(doc, out, "createdAt", "created_at")
	mirrorTimestamp(doc, out, "updatedAt", "updated_at")
	return out
}

// mirrorTimestamp copies the timestamp under both names; the camelCase
// value wins when the document carries both.
func mirrorTimestamp(doc, out bson.M, camel, snake string) {
	v, ok := doc[camel]
	if !ok {
		v, ok = doc[snake]
	}
	if ok {
		out[camel], out[snake] = v, v
	}
}

// PlainShape only exposes _id as id.
func PlainShape(doc bson.M) bson.M {
	if doc == nil {
		return nil
	}
	out := make(bson.M, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	if id, ok := doc["_id"]; ok {
		out["id"] = idString(id)
	}
	return out
}

// ShapeAll applies s to every document.
func ShapeAll(s Shaper, docs []bson.M) []bson.M {
	out := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		out = append(out, s(d))
	}
	return out
}

func idString(v interface{}) string {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(v)
}
