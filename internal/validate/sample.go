package validate

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

// sample picks up to sampleSize distinct indices from a population of n.
func (e *Engine) sample(n int) []int {
	k := e.sampleSize
	if k > n {
		k = n
	}
	return e.rng.Perm(n)[:k]
}

// organizationSamples spot-checks random organizations: the source row must
// exist on the target under its src_id with the same name.
func (e *Engine) organizationSamples(ctx context.Context) Result {
	name := fmt.Sprintf("organization samples (n=%d)", e.sampleSize)

	orgs, err := e.source.Organizations(ctx)
	if err != nil {
		return fail(name, CategorySample, err.Error())
	}
	if len(orgs) == 0 {
		return fail(name, CategorySample, "no organizations in source")
	}

	var mismatches []string
	for _, i := range e.sample(len(orgs)) {
		src := orgs[i]
		var doc types.OrganizationDoc
		err := e.db.Collection(types.CollOrganizations).
			FindOne(ctx, bson.M{"src_id": src.ID}).Decode(&doc)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			mismatches = append(mismatches, fmt.Sprintf("org %d: not found on target", src.ID))
		case err != nil:
			return fail(name, CategorySample, err.Error())
		case doc.Name != src.Name:
			mismatches = append(mismatches, fmt.Sprintf("org %d: name mismatch", src.ID))
		}
	}

	if len(mismatches) > 0 {
		return fail(name, CategorySample,
			fmt.Sprintf("%d sample mismatches", len(mismatches)), mismatches...)
	}
	return pass(name, CategorySample, "all sampled organizations match")
}

// userSamples spot-checks random users on name and email.
func (e *Engine) userSamples(ctx context.Context) Result {
	name := fmt.Sprintf("user samples (n=%d)", e.sampleSize)

	users, err := e.source.Users(ctx)
	if err != nil {
		return fail(name, CategorySample, err.Error())
	}
	if len(users) == 0 {
		return fail(name, CategorySample, "no users in source")
	}

	var mismatches []string
	for _, i := range e.sample(len(users)) {
		src := users[i]
		var doc types.UserDoc
		err := e.db.Collection(types.CollUsers).
			FindOne(ctx, bson.M{"src_id": src.ID}).Decode(&doc)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			mismatches = append(mismatches, fmt.Sprintf("user %d: not found on target", src.ID))
			continue
		case err != nil:
			return fail(name, CategorySample, err.Error())
		}
		if doc.Name != src.Name {
			mismatches = append(mismatches, fmt.Sprintf("user %d: name mismatch", src.ID))
		}
		if doc.Email != src.Email {
			mismatches = append(mismatches, fmt.Sprintf("user %d: email mismatch", src.ID))
		}
	}

	if len(mismatches) > 0 {
		return fail(name, CategorySample,
			fmt.Sprintf("%d sample mismatches", len(mismatches)), mismatches...)
	}
	return pass(name, CategorySample, "all sampled users match")
}

// taskSamples spot-checks random tasks inside their embedding project:
// title, status, and priority must survive the transform unchanged.
func (e *Engine) taskSamples(ctx context.Context) Result {
	name := fmt.Sprintf("task samples (n=%d)", e.sampleSize)

	tasks, err := e.source.Tasks(ctx)
	if err != nil {
		return fail(name, CategorySample, err.Error())
	}
	if len(tasks) == 0 {
		return fail(name, CategorySample, "no tasks in source")
	}

	var mismatches []string
	for _, i := range e.sample(len(tasks)) {
		src := tasks[i]
		var project struct {
			Tasks []types.TaskDoc `bson:"tasks"`
		}
		err := e.db.Collection(types.CollProjects).
			FindOne(ctx, bson.M{"tasks.src_id": src.ID}).Decode(&project)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			mismatches = append(mismatches, fmt.Sprintf("task %d: not embedded on target", src.ID))
			continue
		case err != nil:
			return fail(name, CategorySample, err.Error())
		}

		var found *types.TaskDoc
		for j := range project.Tasks {
			if project.Tasks[j].SrcID == src.ID {
				found = &project.Tasks[j]
				break
			}
		}
		if found == nil {
			mismatches = append(mismatches, fmt.Sprintf("task %d: not embedded on target", src.ID))
			continue
		}
		if found.Title != src.Title {
			mismatches = append(mismatches, fmt.Sprintf("task %d: title mismatch", src.ID))
		}
		if found.Status != src.Status {
			mismatches = append(mismatches, fmt.Sprintf("task %d: status mismatch", src.ID))
		}
		if found.Priority != src.Priority {
			mismatches = append(mismatches, fmt.Sprintf("task %d: priority mismatch", src.ID))
		}
	}

	if len(mismatches) > 0 {
		return fail(name, CategorySample,
			fmt.Sprintf("%d sample mismatches", len(mismatches)), mismatches...)
	}
	return pass(name, CategorySample, "all sampled tasks match")
}
