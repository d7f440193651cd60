package types

// Source records mirror the normalized relational schema. Nullable columns
// scan into pointers; joined payloads expanded by the extraction adapter are
// attached as nested structs and are nil when the join found no row.

// Source table names, in extraction dependency order.
const (
	TableOrganizations = "organizations"
	TableUsers         = "users"
	TableOrgMembers    = "org_members"
	TableLabels        = "labels"
	TableProjects      = "projects"
	TableTasks         = "tasks"
	TableTaskAssignees = "task_assignees"
	TableTaskLabels    = "task_labels"
	TableComments      = "comments"
)

// SourceOrgRef is the organization payload joined onto dependent rows.
type SourceOrgRef struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// SourceUserRef is the user payload joined onto assignments and comments.
type SourceUserRef struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

// SourceLabelRef is the label payload joined onto task_labels junction rows.
type SourceLabelRef struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Color string `db:"color"`
}

// SourceMembership is an org_members junction row, with the organization
// payload expanded for denormalization.
type SourceMembership struct {
	OrgID    int64   `db:"org_id"`
	UserID   int64   `db:"user_id"`
	Role     string  `db:"role"`
	JoinedAt *string `db:"joined_at"`

	Org *SourceOrgRef
}

type SourceOrganization struct {
	ID        int64   `db:"id"`
	Name      string  `db:"name"`
	CreatedAt *string `db:"created_at"`
	Settings  *string `db:"settings"`

	Members []SourceMembership
}

type SourceUser struct {
	ID        int64   `db:"id"`
	Email     string  `db:"email"`
	Name      string  `db:"name"`
	CreatedAt *string `db:"created_at"`

	Memberships []SourceMembership
}

type SourceLabel struct {
	ID        int64   `db:"id"`
	OrgID     int64   `db:"org_id"`
	Name      string  `db:"name"`
	Color     string  `db:"color"`
	CreatedAt *string `db:"created_at"`
}

type SourceProject struct {
	ID          int64   `db:"id"`
	OrgID       int64   `db:"org_id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	Status      string  `db:"status"`
	CreatedAt   *string `db:"created_at"`

	Org *SourceOrgRef
}

// SourceAssignment is a task_assignees junction row with the assigned user
// payload expanded.
type SourceAssignment struct {
	TaskID     int64   `db:"task_id"`
	AssignedAt *string `db:"assigned_at"`

	User *SourceUserRef
}

// SourceTaskLabel is a task_labels junction row. Label is nil when the
// junction points at a label that no longer exists.
type SourceTaskLabel struct {
	TaskID int64 `db:"task_id"`

	Label *SourceLabelRef
}

type SourceComment struct {
	ID        int64   `db:"id"`
	TaskID    int64   `db:"task_id"`
	Content   string  `db:"content"`
	CreatedAt *string `db:"created_at"`

	User *SourceUserRef
}

type SourceTask struct {
	ID          int64   `db:"id"`
	ProjectID   int64   `db:"project_id"`
	Title       string  `db:"title"`
	Description *string `db:"description"`
	Status      string  `db:"status"`
	Priority    string  `db:"priority"`
	DueDate     *string `db:"due_date"`
	CreatedAt   *string `db:"created_at"`
	UpdatedAt   *string `db:"updated_at"`

	Assignees []SourceAssignment
	Labels    []SourceTaskLabel
	Comments  []SourceComment
}

// SourceData bundles one full extraction pass.
type SourceData struct {
	Organizations []SourceOrganization
	Users         []SourceUser
	Labels        []SourceLabel
	Projects      []SourceProject
	Tasks         []SourceTask
}

// Counts reports per-table row counts for the run summary.
func (d *SourceData) Counts() map[string]int {
	return map[string]int{
		TableOrganizations: len(d.Organizations),
		TableUsers:         len(d.Users),
		TableLabels:        len(d.Labels),
		TableProjects:      len(d.Projects),
		TableTasks:         len(d.Tasks),
	}
}

// TotalRecords is the number of top-level rows extracted.
func (d *SourceData) TotalRecords() int {
	return len(d.Organizations) + len(d.Users) + len(d.Labels) +
		len(d.Projects) + len(d.Tasks)
}
