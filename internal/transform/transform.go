// Package transform converts extracted relational rows into the denormalized
// target document model. Transformers are pure apart from the shared id
// mapper, which memoizes generated ids, so transforming the same record
// twice is safe and yields the same identities.
package transform

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ferry/internal/idmap"
	"github.com/mesh-intelligence/ferry/pkg/types"
)

// ErrMissingField marks a record that lacks a required source field.
// Transformers fail fast: one bad record aborts the whole pass.
var ErrMissingField = errors.New("missing required field")

// Transformer holds the run-scoped id mapper and logger shared by all
// entity transformations of one migration pass.
type Transformer struct {
	mapper *idmap.Mapper
	log    *zap.Logger
}

func New(mapper *idmap.Mapper, log *zap.Logger) *Transformer {
	return &Transformer{mapper: mapper, log: log}
}

// Organization produces an organization document. member_count is copied
// from the expanded membership list; project_count loads as zero.
func (t *Transformer) Organization(org types.SourceOrganization) types.OrganizationDoc {
	return types.OrganizationDoc{
		ID:          t.mapper.OrganizationID(org.ID),
		SrcID:       org.ID,
		Name:        org.Name,
		CreatedAt:   t.timestamp(org.CreatedAt),
		MemberCount: len(org.Members),
		Settings:    t.settings(org.ID, org.Settings),
	}
}

// User produces a user document with organization memberships embedded in
// source order. The org name is denormalized from the joined payload, not
// looked up through the mapper.
func (t *Transformer) User(u types.SourceUser) (types.UserDoc, error) {
	if u.Email == "" {
		return types.UserDoc{}, fmt.Errorf("user %d: email: %w", u.ID, ErrMissingField)
	}

	memberships := make([]types.MembershipDoc, 0, len(u.Memberships))
	for _, m := range u.Memberships {
		orgName := ""
		if m.Org != nil {
			orgName = m.Org.Name
		}
		memberships = append(memberships, types.MembershipDoc{
			OrgID:    t.mapper.OrganizationID(m.OrgID),
			OrgName:  orgName,
			Role:     m.Role,
			JoinedAt: t.timestamp(m.JoinedAt),
		})
	}

	return types.UserDoc{
		ID:            t.mapper.UserID(u.ID),
		SrcID:         u.ID,
		Email:         u.Email,
		Name:          u.Name,
		CreatedAt:     t.timestamp(u.CreatedAt),
		Organizations: memberships,
	}, nil
}

// Label produces a label document. usage_count loads as zero.
func (t *Transformer) Label(l types.SourceLabel) types.LabelDoc {
	return types.LabelDoc{
		ID:        t.mapper.LabelID(l.ID),
		SrcID:     l.ID,
		OrgID:     t.mapper.OrganizationID(l.OrgID),
		Name:      l.Name,
		Color:     l.Color,
		CreatedAt: t.timestamp(l.CreatedAt),
	}
}

// Task produces a task subdocument with assignees, labels, and comments
// embedded. A missing assignee or comment author payload is a hard error;
// a missing label payload is junction corruption and is skipped so one bad
// row cannot abort the migration.
func (t *Transformer) Task(task types.SourceTask) (types.TaskDoc, error) {
	if task.Title == "" {
		return types.TaskDoc{}, fmt.Errorf("task %d: title: %w", task.ID, ErrMissingField)
	}

	assignees := make([]types.AssigneeDoc, 0, len(task.Assignees))
	for _, a := range task.Assignees {
		if a.User == nil {
			return types.TaskDoc{}, fmt.Errorf("task %d: assignment user payload: %w", task.ID, ErrMissingField)
		}
		assignees = append(assignees, types.AssigneeDoc{
			UserID:     t.mapper.UserID(a.User.ID),
			Name:       a.User.Name,
			Email:      a.User.Email,
			AssignedAt: t.timestamp(a.AssignedAt),
		})
	}

	labels := make([]types.TaskLabelDoc, 0, len(task.Labels))
	for _, tl := range task.Labels {
		if tl.Label == nil {
			t.log.Debug("skipping dangling task label", zap.Int64("task_id", task.ID))
			continue
		}
		labels = append(labels, types.TaskLabelDoc{
			LabelID: t.mapper.LabelID(tl.Label.ID),
			Name:    tl.Label.Name,
			Color:   tl.Label.Color,
		})
	}

	comments := make([]types.CommentDoc, 0, len(task.Comments))
	for _, c := range task.Comments {
		if c.User == nil {
			return types.TaskDoc{}, fmt.Errorf("comment %d: author payload: %w", c.ID, ErrMissingField)
		}
		comments = append(comments, types.CommentDoc{
			ID:         t.mapper.CommentID(c.ID),
			SrcID:      c.ID,
			UserID:     t.mapper.UserID(c.User.ID),
			AuthorName: c.User.Name,
			Content:    c.Content,
			CreatedAt:  t.timestamp(c.CreatedAt),
		})
	}
	sortComments(comments)

	return types.TaskDoc{
		ID:            t.mapper.TaskID(task.ID),
		SrcID:         task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Status:        task.Status,
		Priority:      task.Priority,
		DueDate:       t.timestamp(task.DueDate),
		CreatedAt:     t.timestamp(task.CreatedAt),
		UpdatedAt:     t.timestamp(task.UpdatedAt),
		Assignees:     assignees,
		Labels:        labels,
		Comments:      comments,
		CommentCount:  len(comments),
		AssigneeCount: len(assignees),
	}, nil
}

// sortComments orders comments ascending by creation time. A nil timestamp
// sorts as the earliest possible value; the sort is stable so equal keys
// keep source order.
func sortComments(comments []types.CommentDoc) {
	sort.SliceStable(comments, func(i, j int) bool {
		ci, cj := comments[i].CreatedAt, comments[j].CreatedAt
		switch {
		case ci == nil:
			return cj != nil
		case cj == nil:
			return false
		default:
			return ci.Before(*cj)
		}
	})
}

// Project produces a project document embedding every task whose source
// project_id matches, even when handed the complete cross-project task
// list. The stats block is a snapshot of the just-embedded tasks.
func (t *Transformer) Project(p types.SourceProject, tasks []types.SourceTask) (types.ProjectDoc, error) {
	orgName := ""
	if p.Org != nil {
		orgName = p.Org.Name
	}

	embedded := make([]types.TaskDoc, 0)
	for _, task := range tasks {
		if task.ProjectID != p.ID {
			continue
		}
		doc, err := t.Task(task)
		if err != nil {
			return types.ProjectDoc{}, fmt.Errorf("project %d: %w", p.ID, err)
		}
		embedded = append(embedded, doc)
	}

	stats := types.ProjectStats{TotalTasks: len(embedded)}
	for _, task := range embedded {
		switch task.Status {
		case types.StatusCompleted:
			stats.CompletedTasks++
		case types.StatusInProgress:
			stats.InProgressTasks++
		case types.StatusTodo:
			stats.TodoTasks++
		}
		stats.TotalComments += task.CommentCount
	}

	return types.ProjectDoc{
		ID:          t.mapper.ProjectID(p.ID),
		SrcID:       p.ID,
		OrgID:       t.mapper.OrganizationID(p.OrgID),
		OrgName:     orgName,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   t.timestamp(p.CreatedAt),
		Tasks:       embedded,
		Stats:       stats,
	}, nil
}

// All transforms a full extraction pass in dependency order: organizations,
// users, labels, then projects with their tasks embedded. The first record
// error aborts the pass; there is no partial transform output.
func (t *Transformer) All(src *types.SourceData) (*types.Dataset, error) {
	ds := &types.Dataset{
		Organizations: make([]types.OrganizationDoc, 0, len(src.Organizations)),
		Users:         make([]types.UserDoc, 0, len(src.Users)),
		Labels:        make([]types.LabelDoc, 0, len(src.Labels)),
		Projects:      make([]types.ProjectDoc, 0, len(src.Projects)),
	}

	for _, org := range src.Organizations {
		ds.Organizations = append(ds.Organizations, t.Organization(org))
	}
	t.log.Info("transformed organizations", zap.Int("count", len(ds.Organizations)))

	for _, u := range src.Users {
		doc, err := t.User(u)
		if err != nil {
			return nil, fmt.Errorf("transform users: %w", err)
		}
		ds.Users = append(ds.Users, doc)
	}
	t.log.Info("transformed users", zap.Int("count", len(ds.Users)))

	for _, l := range src.Labels {
		ds.Labels = append(ds.Labels, t.Label(l))
	}
	t.log.Info("transformed labels", zap.Int("count", len(ds.Labels)))

	for _, p := range src.Projects {
		doc, err := t.Project(p, src.Tasks)
		if err != nil {
			return nil, fmt.Errorf("transform projects: %w", err)
		}
		ds.Projects = append(ds.Projects, doc)
	}
	t.log.Info("transformed projects",
		zap.Int("count", len(ds.Projects)),
		zap.Int("embedded_tasks", ds.EmbeddedTasks()),
		zap.Int("embedded_comments", ds.EmbeddedComments()))

	for entity, n := range t.mapper.Counts() {
		t.log.Debug("id mappings", zap.String("entity", string(entity)), zap.Int("count", n))
	}

	return ds, nil
}
