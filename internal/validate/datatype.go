package validate

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

// Type checks decode a handful of raw documents per collection and assert
// the stored BSON types, catching values that survived the transform as
// strings. Struct decoding would coerce, so these work on bson.M.

const typeCheckLimit = 10

func (e *Engine) rawDocs(ctx context.Context, collection string, limit int64) ([]bson.M, error) {
	cur, err := e.db.Collection(collection).Find(ctx, bson.M{},
		options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func isDateTime(v any) bool {
	_, ok := v.(primitive.DateTime)
	return ok
}

func isObjectID(v any) bool {
	_, ok := v.(primitive.ObjectID)
	return ok
}

func isInteger(v any) bool {
	switch v.(type) {
	case int32, int64:
		return true
	}
	return false
}

func embeddedDocs(v any) []bson.M {
	arr, ok := v.(bson.A)
	if !ok {
		return nil
	}
	docs := make([]bson.M, 0, len(arr))
	for _, item := range arr {
		if doc, ok := item.(bson.M); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// datetimeTypes asserts created_at and embedded joined_at fields are stored
// as BSON datetimes. Nil timestamps are legal and skipped.
func (e *Engine) datetimeTypes(ctx context.Context) Result {
	const name = "datetime types"
	var errs []string

	check := func(label string, doc bson.M, field string) {
		v, present := doc[field]
		if !present || v == nil {
			return
		}
		if !isDateTime(v) {
			errs = append(errs, fmt.Sprintf("%s: %s is %T", label, field, v))
		}
	}

	orgs, err := e.rawDocs(ctx, types.CollOrganizations, typeCheckLimit)
	if err != nil {
		return fail(name, CategoryDatatype, err.Error())
	}
	for _, org := range orgs {
		check(fmt.Sprintf("org %v", org["_id"]), org, "created_at")
	}

	users, err := e.rawDocs(ctx, types.CollUsers, typeCheckLimit)
	if err != nil {
		return fail(name, CategoryDatatype, err.Error())
	}
	for _, user := range users {
		check(fmt.Sprintf("user %v", user["_id"]), user, "created_at")
		for _, m := range embeddedDocs(user["organizations"]) {
			check(fmt.Sprintf("user %v membership", user["_id"]), m, "joined_at")
		}
	}

	projects, err := e.rawDocs(ctx, types.CollProjects, typeCheckLimit/2)
	if err != nil {
		return fail(name, CategoryDatatype, err.Error())
	}
	for _, project := range projects {
		check(fmt.Sprintf("project %v", project["_id"]), project, "created_at")
		for _, task := range embeddedDocs(project["tasks"]) {
			check(fmt.Sprintf("task %v", task["_id"]), task, "created_at")
		}
	}

	if len(errs) > 0 {
		return fail(name, CategoryDatatype,
			fmt.Sprintf("%d datetime type errors", len(errs)), errs...)
	}
	return pass(name, CategoryDatatype, "all sampled datetime fields stored as datetimes")
}

// objectIDTypes asserts identities and references are stored as ObjectIDs.
func (e *Engine) objectIDTypes(ctx context.Context) Result {
	const name = "objectid types"
	var errs []string

	check := func(label string, doc bson.M, field string) {
		if !isObjectID(doc[field]) {
			errs = append(errs, fmt.Sprintf("%s: %s is %T", label, field, doc[field]))
		}
	}

	orgs, err := e.rawDocs(ctx, types.CollOrganizations, typeCheckLimit)
	if err != nil {
		return fail(name, CategoryDatatype, err.Error())
	}
	for _, org := range orgs {
		check(fmt.Sprintf("org %v", org["src_id"]), org, "_id")
	}

	users, err := e.rawDocs(ctx, types.CollUsers, typeCheckLimit)
	if err != nil {
		return fail(name, CategoryDatatype, err.Error())
	}
	for _, user := range users {
		check(fmt.Sprintf("user %v", user["src_id"]), user, "_id")
		for _, m := range embeddedDocs(user["organizations"]) {
			check(fmt.Sprintf("user %v membership", user["src_id"]), m, "org_id")
		}
	}

	projects, err := e.rawDocs(ctx, types.CollProjects, typeCheckLimit/2)
	if err != nil {
		return fail(name, CategoryDatatype, err.Error())
	}
	for _, project := range projects {
		check(fmt.Sprintf("project %v", project["src_id"]), project, "_id")
		check(fmt.Sprintf("project %v", project["src_id"]), project, "org_id")
	}

	if len(errs) > 0 {
		return fail(name, CategoryDatatype,
			fmt.Sprintf("%d objectid type errors", len(errs)), errs...)
	}
	return pass(name, CategoryDatatype, "all sampled identity fields stored as objectids")
}

// integerTypes asserts src_id traceability fields are stored as integers.
func (e *Engine) integerTypes(ctx context.Context) Result {
	const name = "integer types (src_id)"
	var errs []string

	for _, collection := range []string{types.CollOrganizations, types.CollUsers, types.CollProjects} {
		docs, err := e.rawDocs(ctx, collection, typeCheckLimit)
		if err != nil {
			return fail(name, CategoryDatatype, err.Error())
		}
		for _, doc := range docs {
			if !isInteger(doc["src_id"]) {
				errs = append(errs, fmt.Sprintf("%s %v: src_id is %T",
					collection, doc["_id"], doc["src_id"]))
			}
		}
	}

	if len(errs) > 0 {
		return fail(name, CategoryDatatype,
			fmt.Sprintf("%d integer type errors", len(errs)), errs...)
	}
	return pass(name, CategoryDatatype, "all sampled src_id fields stored as integers")
}
