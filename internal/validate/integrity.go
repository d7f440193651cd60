package validate

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

// missingRefs returns the ids from refs that have no document in the
// referenced collection.
func (e *Engine) missingRefs(ctx context.Context, collection string, refs []primitive.ObjectID) ([]string, error) {
	var missing []string
	seen := make(map[primitive.ObjectID]bool, len(refs))
	for _, id := range refs {
		if seen[id] {
			continue
		}
		seen[id] = true
		n, err := e.db.Collection(collection).CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			missing = append(missing, id.Hex())
		}
	}
	return missing, nil
}

// distinctObjectIDs runs a distinct query and keeps only ObjectID values.
func (e *Engine) distinctObjectIDs(ctx context.Context, collection, field string) ([]primitive.ObjectID, error) {
	raw, err := e.db.Collection(collection).Distinct(ctx, field, bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// referenceCheck verifies that every distinct value of field in collection
// resolves to a document in target.
func (e *Engine) referenceCheck(ctx context.Context, name, collection, field, target string) Result {
	ids, err := e.distinctObjectIDs(ctx, collection, field)
	if err != nil {
		return fail(name, CategoryRelationship, err.Error())
	}
	missing, err := e.missingRefs(ctx, target, ids)
	if err != nil {
		return fail(name, CategoryRelationship, err.Error())
	}
	if len(missing) > 0 {
		return fail(name, CategoryRelationship,
			fmt.Sprintf("%d dangling references", len(missing)), missing...)
	}
	return pass(name, CategoryRelationship,
		fmt.Sprintf("all %d references resolve", len(ids)))
}

func (e *Engine) projectOrgReferences(ctx context.Context) Result {
	return e.referenceCheck(ctx, "project org references",
		types.CollProjects, "org_id", types.CollOrganizations)
}

func (e *Engine) labelOrgReferences(ctx context.Context) Result {
	return e.referenceCheck(ctx, "label org references",
		types.CollLabels, "org_id", types.CollOrganizations)
}

func (e *Engine) userOrgReferences(ctx context.Context) Result {
	return e.referenceCheck(ctx, "user org references (embedded)",
		types.CollUsers, "organizations.org_id", types.CollOrganizations)
}

func (e *Engine) taskAssigneeReferences(ctx context.Context) Result {
	return e.referenceCheck(ctx, "task assignee references",
		types.CollProjects, "tasks.assignees.user_id", types.CollUsers)
}
