package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Target collection names. Tasks and comments have no standalone collection;
// they live embedded in project documents.
const (
	CollOrganizations = "organizations"
	CollUsers         = "users"
	CollLabels        = "labels"
	CollProjects      = "projects"
)

// Collections lists the target collections in load dependency order.
var Collections = []string{CollOrganizations, CollUsers, CollLabels, CollProjects}

// Task status values used by the project stats snapshot.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Every document keeps the original integer key in src_id so validation can
// join target documents back to source rows. Timestamp fields are pointers:
// nil marks a source value that was absent or unparseable.

type OrganizationDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	SrcID     int64              `bson:"src_id"`
	Name      string             `bson:"name"`
	CreatedAt *time.Time         `bson:"created_at"`
	// MemberCount is a copy taken at transform time.
	MemberCount int `bson:"member_count"`
	// ProjectCount is not backfilled yet; loads as zero.
	ProjectCount int    `bson:"project_count"`
	Settings     bson.M `bson:"settings,omitempty"`
}

// MembershipDoc is an organization membership embedded in a user document.
type MembershipDoc struct {
	OrgID    primitive.ObjectID `bson:"org_id"`
	OrgName  string             `bson:"org_name"`
	Role     string             `bson:"role"`
	JoinedAt *time.Time         `bson:"joined_at"`
}

// UserStats counters are not backfilled yet; they load as zeros.
type UserStats struct {
	AssignedTasks  int `bson:"assigned_tasks"`
	CompletedTasks int `bson:"completed_tasks"`
	CommentsMade   int `bson:"comments_made"`
}

type UserDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	SrcID         int64              `bson:"src_id"`
	Email         string             `bson:"email"`
	Name          string             `bson:"name"`
	CreatedAt     *time.Time         `bson:"created_at"`
	Organizations []MembershipDoc    `bson:"organizations"`
	Stats         UserStats          `bson:"stats"`
}

type LabelDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	SrcID     int64              `bson:"src_id"`
	OrgID     primitive.ObjectID `bson:"org_id"`
	Name      string             `bson:"name"`
	Color     string             `bson:"color"`
	CreatedAt *time.Time         `bson:"created_at"`
	// UsageCount is not backfilled yet; loads as zero.
	UsageCount int `bson:"usage_count"`
}

// AssigneeDoc is a task assignment embedded in a task, with the user's
// name and email denormalized at transform time.
type AssigneeDoc struct {
	UserID     primitive.ObjectID `bson:"user_id"`
	Name       string             `bson:"name"`
	Email      string             `bson:"email"`
	AssignedAt *time.Time         `bson:"assigned_at"`
}

// TaskLabelDoc is a label reference embedded in a task.
type TaskLabelDoc struct {
	LabelID primitive.ObjectID `bson:"label_id"`
	Name    string             `bson:"name"`
	Color   string             `bson:"color"`
}

type CommentDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	SrcID      int64              `bson:"src_id"`
	UserID     primitive.ObjectID `bson:"user_id"`
	AuthorName string             `bson:"author_name"`
	Content    string             `bson:"content"`
	CreatedAt  *time.Time         `bson:"created_at"`
}

type TaskDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	SrcID       int64              `bson:"src_id"`
	Title       string             `bson:"title"`
	Description *string            `bson:"description,omitempty"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	DueDate     *time.Time         `bson:"due_date,omitempty"`
	CreatedAt   *time.Time         `bson:"created_at"`
	UpdatedAt   *time.Time         `bson:"updated_at"`
	Assignees   []AssigneeDoc      `bson:"assignees"`
	Labels      []TaskLabelDoc     `bson:"labels"`
	// Comments are sorted ascending by created_at; nil timestamps first.
	Comments      []CommentDoc `bson:"comments"`
	CommentCount  int          `bson:"comment_count"`
	AssigneeCount int          `bson:"assignee_count"`
}

// ProjectStats is a one-time snapshot computed from the embedded tasks at
// transform time, not a live aggregate.
type ProjectStats struct {
	TotalTasks      int `bson:"total_tasks"`
	CompletedTasks  int `bson:"completed_tasks"`
	InProgressTasks int `bson:"in_progress_tasks"`
	TodoTasks       int `bson:"todo_tasks"`
	TotalComments   int `bson:"total_comments"`
}

type ProjectDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	SrcID       int64              `bson:"src_id"`
	OrgID       primitive.ObjectID `bson:"org_id"`
	OrgName     string             `bson:"org_name"`
	Name        string             `bson:"name"`
	Description *string            `bson:"description,omitempty"`
	Status      string             `bson:"status"`
	CreatedAt   *time.Time         `bson:"created_at"`
	Tasks       []TaskDoc          `bson:"tasks"`
	Stats       ProjectStats       `bson:"stats"`
}

// Dataset bundles one full transformation pass, ready for loading.
type Dataset struct {
	Organizations []OrganizationDoc
	Users         []UserDoc
	Labels        []LabelDoc
	Projects      []ProjectDoc
}

// Counts reports per-collection document counts for the run summary.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		CollOrganizations: len(d.Organizations),
		CollUsers:         len(d.Users),
		CollLabels:        len(d.Labels),
		CollProjects:      len(d.Projects),
	}
}

// TotalDocuments is the number of top-level documents to be loaded.
func (d *Dataset) TotalDocuments() int {
	return len(d.Organizations) + len(d.Users) + len(d.Labels) + len(d.Projects)
}

// EmbeddedTasks counts tasks across all project documents.
func (d *Dataset) EmbeddedTasks() int {
	n := 0
	for _, p := range d.Projects {
		n += len(p.Tasks)
	}
	return n
}

// EmbeddedComments counts comments across all embedded tasks.
func (d *Dataset) EmbeddedComments() int {
	n := 0
	for _, p := range d.Projects {
		for _, t := range p.Tasks {
			n += len(t.Comments)
		}
	}
	return n
}
