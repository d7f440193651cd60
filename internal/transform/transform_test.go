package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

func acmeOrg() types.SourceOrganization {
	return types.SourceOrganization{
		ID:        1,
		Name:      "Acme",
		CreatedAt: strPtr("2024-01-01T00:00:00Z"),
		Settings:  strPtr(`{"plan":"pro"}`),
		Members: []types.SourceMembership{
			{OrgID: 1, UserID: 10, Role: "admin", Org: &types.SourceOrgRef{ID: 1, Name: "Acme"}},
			{OrgID: 1, UserID: 11, Role: "member", Org: &types.SourceOrgRef{ID: 1, Name: "Acme"}},
		},
	}
}

func annUser() types.SourceUser {
	return types.SourceUser{
		ID:        10,
		Email:     "ann@acme.test",
		Name:      "Ann",
		CreatedAt: strPtr("2024-01-02T00:00:00Z"),
		Memberships: []types.SourceMembership{
			{OrgID: 1, UserID: 10, Role: "admin", JoinedAt: strPtr("2024-01-02T00:00:00Z"),
				Org: &types.SourceOrgRef{ID: 1, Name: "Acme"}},
		},
	}
}

func TestOrganization(t *testing.T) {
	tr := newTestTransformer()

	doc := tr.Organization(acmeOrg())

	assert.Equal(t, int64(1), doc.SrcID)
	assert.Equal(t, "Acme", doc.Name)
	assert.Equal(t, 2, doc.MemberCount)
	assert.Equal(t, 0, doc.ProjectCount, "project_count is not backfilled")
	require.NotNil(t, doc.CreatedAt)
	assert.Equal(t, "pro", doc.Settings["plan"])
	assert.False(t, doc.ID.IsZero())
}

func TestUser(t *testing.T) {
	tr := newTestTransformer()

	t.Run("embeds memberships with denormalized org name", func(t *testing.T) {
		doc, err := tr.User(annUser())
		require.NoError(t, err)

		assert.Equal(t, int64(10), doc.SrcID)
		assert.Equal(t, "ann@acme.test", doc.Email)
		require.Len(t, doc.Organizations, 1)
		assert.Equal(t, "Acme", doc.Organizations[0].OrgName)
		assert.Equal(t, "admin", doc.Organizations[0].Role)
		assert.Equal(t, tr.mapper.OrganizationID(1), doc.Organizations[0].OrgID)
		assert.Equal(t, types.UserStats{}, doc.Stats, "stats counters load as zeros")
	})

	t.Run("missing email fails the record", func(t *testing.T) {
		u := annUser()
		u.Email = ""
		_, err := tr.User(u)
		require.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("membership without org payload keeps empty name", func(t *testing.T) {
		u := annUser()
		u.Memberships[0].Org = nil
		doc, err := tr.User(u)
		require.NoError(t, err)
		assert.Empty(t, doc.Organizations[0].OrgName)
	})
}

func TestLabel(t *testing.T) {
	tr := newTestTransformer()

	doc := tr.Label(types.SourceLabel{ID: 5, OrgID: 1, Name: "bug", Color: "#ff0000"})

	assert.Equal(t, int64(5), doc.SrcID)
	assert.Equal(t, tr.mapper.OrganizationID(1), doc.OrgID)
	assert.Equal(t, "bug", doc.Name)
	assert.Equal(t, 0, doc.UsageCount, "usage_count is not backfilled")
}

func taskFixture() types.SourceTask {
	return types.SourceTask{
		ID:        100,
		ProjectID: 50,
		Title:     "Ship it",
		Status:    types.StatusInProgress,
		Priority:  "high",
		CreatedAt: strPtr("2024-02-01T00:00:00Z"),
		Assignees: []types.SourceAssignment{
			{TaskID: 100, AssignedAt: strPtr("2024-02-02T00:00:00Z"),
				User: &types.SourceUserRef{ID: 10, Name: "Ann", Email: "ann@acme.test"}},
		},
		Labels: []types.SourceTaskLabel{
			{TaskID: 100, Label: &types.SourceLabelRef{ID: 5, Name: "bug", Color: "#ff0000"}},
		},
		Comments: []types.SourceComment{
			{ID: 1000, TaskID: 100, Content: "second", CreatedAt: strPtr("2024-02-03T00:00:00Z"),
				User: &types.SourceUserRef{ID: 10, Name: "Ann"}},
			{ID: 1001, TaskID: 100, Content: "first", CreatedAt: strPtr("2024-02-02T00:00:00Z"),
				User: &types.SourceUserRef{ID: 11, Name: "Bob"}},
			{ID: 1002, TaskID: 100, Content: "undated", CreatedAt: nil,
				User: &types.SourceUserRef{ID: 11, Name: "Bob"}},
		},
	}
}

func TestTask(t *testing.T) {
	tr := newTestTransformer()

	t.Run("embeds assignees labels and comments", func(t *testing.T) {
		doc, err := tr.Task(taskFixture())
		require.NoError(t, err)

		assert.Equal(t, int64(100), doc.SrcID)
		require.Len(t, doc.Assignees, 1)
		assert.Equal(t, "ann@acme.test", doc.Assignees[0].Email)
		require.Len(t, doc.Labels, 1)
		assert.Equal(t, "#ff0000", doc.Labels[0].Color)
		assert.Equal(t, 3, doc.CommentCount)
		assert.Equal(t, 1, doc.AssigneeCount)
	})

	t.Run("comments sort ascending with nil timestamps first", func(t *testing.T) {
		doc, err := tr.Task(taskFixture())
		require.NoError(t, err)

		require.Len(t, doc.Comments, 3)
		assert.Equal(t, "undated", doc.Comments[0].Content)
		assert.Equal(t, "first", doc.Comments[1].Content)
		assert.Equal(t, "second", doc.Comments[2].Content)
	})

	t.Run("nil description stays nil", func(t *testing.T) {
		doc, err := tr.Task(taskFixture())
		require.NoError(t, err)
		assert.Nil(t, doc.Description)
		assert.Nil(t, doc.DueDate)
	})

	t.Run("missing title fails the record", func(t *testing.T) {
		task := taskFixture()
		task.Title = ""
		_, err := tr.Task(task)
		require.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("missing assignee payload fails the record", func(t *testing.T) {
		task := taskFixture()
		task.Assignees[0].User = nil
		_, err := tr.Task(task)
		require.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("missing comment author fails the record", func(t *testing.T) {
		task := taskFixture()
		task.Comments[0].User = nil
		_, err := tr.Task(task)
		require.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("dangling label junction is skipped", func(t *testing.T) {
		task := taskFixture()
		task.Labels = append(task.Labels, types.SourceTaskLabel{TaskID: 100, Label: nil})
		doc, err := tr.Task(task)
		require.NoError(t, err)
		assert.Len(t, doc.Labels, 1, "nil label payload must not abort or embed")
	})

	t.Run("stable comment ids across retransforms", func(t *testing.T) {
		first, err := tr.Task(taskFixture())
		require.NoError(t, err)
		second, err := tr.Task(taskFixture())
		require.NoError(t, err)
		assert.Equal(t, first.Comments[0].ID, second.Comments[0].ID)
	})
}

func TestProject(t *testing.T) {
	tr := newTestTransformer()

	otherTask := taskFixture()
	otherTask.ID = 101
	otherTask.ProjectID = 51
	otherTask.Status = types.StatusCompleted
	allTasks := []types.SourceTask{taskFixture(), otherTask}

	project := types.SourceProject{
		ID: 50, OrgID: 1, Name: "Launch", Status: "active",
		Org: &types.SourceOrgRef{ID: 1, Name: "Acme"},
	}

	t.Run("embeds only its own tasks", func(t *testing.T) {
		doc, err := tr.Project(project, allTasks)
		require.NoError(t, err)

		require.Len(t, doc.Tasks, 1)
		assert.Equal(t, int64(100), doc.Tasks[0].SrcID)
		assert.Equal(t, "Acme", doc.OrgName)
		assert.Equal(t, tr.mapper.OrganizationID(1), doc.OrgID)
	})

	t.Run("stats snapshot reflects embedded tasks", func(t *testing.T) {
		doc, err := tr.Project(project, allTasks)
		require.NoError(t, err)

		assert.Equal(t, 1, doc.Stats.TotalTasks)
		assert.Equal(t, 1, doc.Stats.InProgressTasks)
		assert.Equal(t, 0, doc.Stats.CompletedTasks)
		assert.Equal(t, 3, doc.Stats.TotalComments)
	})

	t.Run("task error carries project context", func(t *testing.T) {
		bad := taskFixture()
		bad.Title = ""
		_, err := tr.Project(project, []types.SourceTask{bad})
		require.ErrorIs(t, err, ErrMissingField)
	})
}

func TestAll(t *testing.T) {
	tr := newTestTransformer()

	src := &types.SourceData{
		Organizations: []types.SourceOrganization{acmeOrg()},
		Users:         []types.SourceUser{annUser()},
		Labels:        []types.SourceLabel{{ID: 5, OrgID: 1, Name: "bug", Color: "#ff0000"}},
		Projects: []types.SourceProject{
			{ID: 50, OrgID: 1, Name: "Launch", Status: "active",
				Org: &types.SourceOrgRef{ID: 1, Name: "Acme"}},
		},
		Tasks: []types.SourceTask{taskFixture()},
	}

	ds, err := tr.All(src)
	require.NoError(t, err)

	assert.Len(t, ds.Organizations, 1)
	assert.Len(t, ds.Users, 1)
	assert.Len(t, ds.Labels, 1)
	assert.Len(t, ds.Projects, 1)
	assert.Equal(t, 1, ds.EmbeddedTasks())
	assert.Equal(t, 3, ds.EmbeddedComments())

	t.Run("references agree across documents", func(t *testing.T) {
		org := ds.Organizations[0]
		assert.Equal(t, org.ID, ds.Labels[0].OrgID)
		assert.Equal(t, org.ID, ds.Projects[0].OrgID)
		assert.Equal(t, org.ID, ds.Users[0].Organizations[0].OrgID)
		assert.Equal(t, ds.Users[0].ID, ds.Projects[0].Tasks[0].Assignees[0].UserID)
	})

	t.Run("fails fast on a bad user", func(t *testing.T) {
		bad := *src
		badUser := annUser()
		badUser.Email = ""
		bad.Users = []types.SourceUser{badUser}
		_, err := newTestTransformer().All(&bad)
		require.ErrorIs(t, err, ErrMissingField)
	})
}
