package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

// Flat scan targets for joined queries. Joined payload columns are aliased
// and nullable: a LEFT JOIN miss leaves them nil, which the assembly step
// turns into a nil payload struct for the transformer to judge.

type membershipRow struct {
	UserID   int64   `db:"user_id"`
	OrgID    int64   `db:"org_id"`
	Role     string  `db:"role"`
	JoinedAt *string `db:"joined_at"`

	JoinOrgID   *int64  `db:"join_org_id"`
	JoinOrgName *string `db:"join_org_name"`
}

type projectRow struct {
	ID          int64   `db:"id"`
	OrgID       int64   `db:"org_id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	Status      string  `db:"status"`
	CreatedAt   *string `db:"created_at"`

	JoinOrgID   *int64  `db:"join_org_id"`
	JoinOrgName *string `db:"join_org_name"`
}

type assignmentRow struct {
	TaskID     int64   `db:"task_id"`
	AssignedAt *string `db:"assigned_at"`

	JoinUserID    *int64  `db:"join_user_id"`
	JoinUserName  *string `db:"join_user_name"`
	JoinUserEmail *string `db:"join_user_email"`
}

type taskLabelRow struct {
	TaskID int64 `db:"task_id"`

	JoinLabelID    *int64  `db:"join_label_id"`
	JoinLabelName  *string `db:"join_label_name"`
	JoinLabelColor *string `db:"join_label_color"`
}

type commentRow struct {
	ID        int64   `db:"id"`
	TaskID    int64   `db:"task_id"`
	Content   string  `db:"content"`
	CreatedAt *string `db:"created_at"`

	JoinUserID    *int64  `db:"join_user_id"`
	JoinUserName  *string `db:"join_user_name"`
	JoinUserEmail *string `db:"join_user_email"`
}

func orgRef(id *int64, name *string) *types.SourceOrgRef {
	if id == nil {
		return nil
	}
	ref := &types.SourceOrgRef{ID: *id}
	if name != nil {
		ref.Name = *name
	}
	return ref
}

func userRef(id *int64, name, email *string) *types.SourceUserRef {
	if id == nil {
		return nil
	}
	ref := &types.SourceUserRef{ID: *id}
	if name != nil {
		ref.Name = *name
	}
	if email != nil {
		ref.Email = *email
	}
	return ref
}

// Organizations reads all organizations with their membership rows expanded,
// so the transformer can compute member_count without another query.
func (c *Client) Organizations(ctx context.Context) ([]types.SourceOrganization, error) {
	orgs, err := pageAll[types.SourceOrganization](ctx, c.db, c.pageSize,
		"SELECT id, name, created_at, settings FROM organizations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("extracting organizations: %w", err)
	}

	var members []types.SourceMembership
	err = c.db.SelectContext(ctx, &members,
		"SELECT org_id, user_id, role, joined_at FROM org_members ORDER BY org_id, user_id")
	if err != nil {
		return nil, fmt.Errorf("extracting org members: %w", err)
	}

	byOrg := make(map[int64][]types.SourceMembership)
	for _, m := range members {
		byOrg[m.OrgID] = append(byOrg[m.OrgID], m)
	}
	for i := range orgs {
		orgs[i].Members = byOrg[orgs[i].ID]
	}

	c.log.Info("extracted organizations",
		zap.Int("count", len(orgs)), zap.Int("memberships", len(members)))
	return orgs, nil
}

// Users reads all users with organization memberships expanded, including
// the joined organization name needed for denormalization.
func (c *Client) Users(ctx context.Context) ([]types.SourceUser, error) {
	users, err := pageAll[types.SourceUser](ctx, c.db, c.pageSize,
		"SELECT id, email, name, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("extracting users: %w", err)
	}

	var rows []membershipRow
	err = c.db.SelectContext(ctx, &rows, `
		SELECT m.user_id, m.org_id, m.role, m.joined_at,
		       o.id AS join_org_id, o.name AS join_org_name
		FROM org_members m
		LEFT JOIN organizations o ON o.id = m.org_id
		ORDER BY m.user_id, m.org_id`)
	if err != nil {
		return nil, fmt.Errorf("extracting user memberships: %w", err)
	}

	byUser := make(map[int64][]types.SourceMembership)
	for _, r := range rows {
		byUser[r.UserID] = append(byUser[r.UserID], types.SourceMembership{
			OrgID:    r.OrgID,
			UserID:   r.UserID,
			Role:     r.Role,
			JoinedAt: r.JoinedAt,
			Org:      orgRef(r.JoinOrgID, r.JoinOrgName),
		})
	}
	for i := range users {
		users[i].Memberships = byUser[users[i].ID]
	}

	c.log.Info("extracted users",
		zap.Int("count", len(users)), zap.Int("memberships", len(rows)))
	return users, nil
}

// Labels reads the label master list.
func (c *Client) Labels(ctx context.Context) ([]types.SourceLabel, error) {
	labels, err := pageAll[types.SourceLabel](ctx, c.db, c.pageSize,
		"SELECT id, org_id, name, color, created_at FROM labels ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("extracting labels: %w", err)
	}
	c.log.Info("extracted labels", zap.Int("count", len(labels)))
	return labels, nil
}

// Projects reads all projects with the organization payload joined in for
// org_name denormalization.
func (c *Client) Projects(ctx context.Context) ([]types.SourceProject, error) {
	rows, err := pageAll[projectRow](ctx, c.db, c.pageSize, `
		SELECT p.id, p.org_id, p.name, p.description, p.status, p.created_at,
		       o.id AS join_org_id, o.name AS join_org_name
		FROM projects p
		LEFT JOIN organizations o ON o.id = p.org_id
		ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("extracting projects: %w", err)
	}

	projects := make([]types.SourceProject, 0, len(rows))
	for _, r := range rows {
		projects = append(projects, types.SourceProject{
			ID:          r.ID,
			OrgID:       r.OrgID,
			Name:        r.Name,
			Description: r.Description,
			Status:      r.Status,
			CreatedAt:   r.CreatedAt,
			Org:         orgRef(r.JoinOrgID, r.JoinOrgName),
		})
	}

	c.log.Info("extracted projects", zap.Int("count", len(projects)))
	return projects, nil
}

// Tasks reads all tasks with assignees, labels, and comments expanded.
// Junction rows are LEFT JOINed so a dangling reference surfaces as a nil
// payload instead of silently dropping the row here.
func (c *Client) Tasks(ctx context.Context) ([]types.SourceTask, error) {
	tasks, err := pageAll[types.SourceTask](ctx, c.db, c.pageSize, `
		SELECT id, project_id, title, description, status, priority,
		       due_date, created_at, updated_at
		FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("extracting tasks: %w", err)
	}

	var assignments []assignmentRow
	err = c.db.SelectContext(ctx, &assignments, `
		SELECT a.task_id, a.assigned_at,
		       u.id AS join_user_id, u.name AS join_user_name, u.email AS join_user_email
		FROM task_assignees a
		LEFT JOIN users u ON u.id = a.user_id
		ORDER BY a.task_id, a.user_id`)
	if err != nil {
		return nil, fmt.Errorf("extracting task assignees: %w", err)
	}

	var labelRows []taskLabelRow
	err = c.db.SelectContext(ctx, &labelRows, `
		SELECT tl.task_id,
		       l.id AS join_label_id, l.name AS join_label_name, l.color AS join_label_color
		FROM task_labels tl
		LEFT JOIN labels l ON l.id = tl.label_id
		ORDER BY tl.task_id, tl.label_id`)
	if err != nil {
		return nil, fmt.Errorf("extracting task labels: %w", err)
	}

	var commentRows []commentRow
	err = c.db.SelectContext(ctx, &commentRows, `
		SELECT c.id, c.task_id, c.content, c.created_at,
		       u.id AS join_user_id, u.name AS join_user_name, u.email AS join_user_email
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		ORDER BY c.task_id, c.id`)
	if err != nil {
		return nil, fmt.Errorf("extracting comments: %w", err)
	}

	assigneesByTask := make(map[int64][]types.SourceAssignment)
	for _, r := range assignments {
		assigneesByTask[r.TaskID] = append(assigneesByTask[r.TaskID], types.SourceAssignment{
			TaskID:     r.TaskID,
			AssignedAt: r.AssignedAt,
			User:       userRef(r.JoinUserID, r.JoinUserName, r.JoinUserEmail),
		})
	}

	labelsByTask := make(map[int64][]types.SourceTaskLabel)
	for _, r := range labelRows {
		var ref *types.SourceLabelRef
		if r.JoinLabelID != nil {
			ref = &types.SourceLabelRef{ID: *r.JoinLabelID}
			if r.JoinLabelName != nil {
				ref.Name = *r.JoinLabelName
			}
			if r.JoinLabelColor != nil {
				ref.Color = *r.JoinLabelColor
			}
		}
		labelsByTask[r.TaskID] = append(labelsByTask[r.TaskID], types.SourceTaskLabel{
			TaskID: r.TaskID,
			Label:  ref,
		})
	}

	commentsByTask := make(map[int64][]types.SourceComment)
	for _, r := range commentRows {
		commentsByTask[r.TaskID] = append(commentsByTask[r.TaskID], types.SourceComment{
			ID:        r.ID,
			TaskID:    r.TaskID,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
			User:      userRef(r.JoinUserID, r.JoinUserName, r.JoinUserEmail),
		})
	}

	for i := range tasks {
		tasks[i].Assignees = assigneesByTask[tasks[i].ID]
		tasks[i].Labels = labelsByTask[tasks[i].ID]
		tasks[i].Comments = commentsByTask[tasks[i].ID]
	}

	c.log.Info("extracted tasks",
		zap.Int("count", len(tasks)),
		zap.Int("assignments", len(assignments)),
		zap.Int("labels", len(labelRows)),
		zap.Int("comments", len(commentRows)))
	return tasks, nil
}

// ExtractAll reads every table in dependency order and bundles the result.
func (c *Client) ExtractAll(ctx context.Context) (*types.SourceData, error) {
	data := &types.SourceData{}
	var err error

	if data.Organizations, err = c.Organizations(ctx); err != nil {
		return nil, err
	}
	if data.Users, err = c.Users(ctx); err != nil {
		return nil, err
	}
	if data.Labels, err = c.Labels(ctx); err != nil {
		return nil, err
	}
	if data.Projects, err = c.Projects(ctx); err != nil {
		return nil, err
	}
	if data.Tasks, err = c.Tasks(ctx); err != nil {
		return nil, err
	}

	c.log.Info("extraction complete", zap.Int("total_records", data.TotalRecords()))
	return data, nil
}
