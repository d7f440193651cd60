package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

const testSchema = `
CREATE TABLE organizations (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT,
	settings TEXT
);
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	email TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at TEXT
);
CREATE TABLE org_members (
	org_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	role TEXT NOT NULL,
	joined_at TEXT
);
CREATE TABLE labels (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	color TEXT NOT NULL,
	created_at TEXT
);
CREATE TABLE projects (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	created_at TEXT
);
CREATE TABLE tasks (
	id INTEGER PRIMARY KEY,
	project_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	due_date TEXT,
	created_at TEXT,
	updated_at TEXT
);
CREATE TABLE task_assignees (
	task_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	assigned_at TEXT
);
CREATE TABLE task_labels (
	task_id INTEGER NOT NULL,
	label_id INTEGER NOT NULL
);
CREATE TABLE comments (
	id INTEGER PRIMARY KEY,
	task_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	created_at TEXT
);
`

const testFixtures = `
INSERT INTO organizations VALUES
	(1, 'Acme', '2024-01-01T00:00:00Z', '{"plan":"pro"}'),
	(2, 'Globex', '2024-01-05T00:00:00Z', NULL);
INSERT INTO users VALUES
	(10, 'ann@acme.test', 'Ann', '2024-01-02T00:00:00Z'),
	(11, 'bob@acme.test', 'Bob', '2024-01-03T00:00:00Z'),
	(12, 'cyd@globex.test', 'Cyd', '2024-01-06T00:00:00Z');
INSERT INTO org_members VALUES
	(1, 10, 'admin', '2024-01-02T00:00:00Z'),
	(1, 11, 'member', '2024-01-03T00:00:00Z'),
	(2, 12, 'admin', NULL);
INSERT INTO labels VALUES
	(5, 1, 'bug', '#ff0000', '2024-01-04T00:00:00Z');
INSERT INTO projects VALUES
	(50, 1, 'Launch', 'first launch', 'active', '2024-01-10T00:00:00Z'),
	(51, 2, 'Research', NULL, 'active', '2024-01-11T00:00:00Z');
INSERT INTO tasks VALUES
	(100, 50, 'Ship it', NULL, 'in_progress', 'high', NULL, '2024-02-01T00:00:00Z', '2024-02-01T00:00:00Z'),
	(101, 50, 'Test it', 'thoroughly', 'todo', 'medium', '2024-03-01T00:00:00Z', '2024-02-02T00:00:00Z', NULL),
	(102, 51, 'Read papers', NULL, 'completed', 'low', NULL, '2024-02-03T00:00:00Z', NULL);
INSERT INTO task_assignees VALUES
	(100, 10, '2024-02-02T00:00:00Z'),
	(100, 11, NULL),
	(102, 99, NULL);
INSERT INTO task_labels VALUES
	(100, 5),
	(101, 999);
INSERT INTO comments VALUES
	(1000, 100, 10, 'on it', '2024-02-03T00:00:00Z'),
	(1001, 100, 11, 'me too', '2024-02-02T00:00:00Z');
`

// newTestClient seeds a throwaway SQLite database and opens a read-only
// client over it.
func newTestClient(t *testing.T, pageSize int) *Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.db")
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	_, err = db.Exec(testFixtures)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c, err := Open(path, pageSize, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPing(t *testing.T) {
	c := newTestClient(t, 100)
	require.NoError(t, c.Ping(context.Background()))
}

func TestCount(t *testing.T) {
	c := newTestClient(t, 100)
	ctx := context.Background()

	n, err := c.Count(ctx, types.TableTasks)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = c.Count(ctx, "sqlite_master")
	require.Error(t, err, "non-whitelisted tables must be rejected")
}

func TestOrganizations(t *testing.T) {
	c := newTestClient(t, 100)

	orgs, err := c.Organizations(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 2)

	acme := orgs[0]
	assert.Equal(t, "Acme", acme.Name)
	require.NotNil(t, acme.Settings)
	assert.Len(t, acme.Members, 2)
	require.Len(t, orgs[1].Members, 1)
	assert.Nil(t, orgs[1].Members[0].JoinedAt)
	assert.Nil(t, orgs[1].Settings)
}

func TestUsers(t *testing.T) {
	c := newTestClient(t, 100)

	users, err := c.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)

	ann := users[0]
	assert.Equal(t, "ann@acme.test", ann.Email)
	require.Len(t, ann.Memberships, 1)
	require.NotNil(t, ann.Memberships[0].Org)
	assert.Equal(t, "Acme", ann.Memberships[0].Org.Name)
}

func TestTasks(t *testing.T) {
	c := newTestClient(t, 100)

	tasks, err := c.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	shipIt := tasks[0]
	require.Len(t, shipIt.Assignees, 2)
	require.NotNil(t, shipIt.Assignees[0].User)
	assert.Equal(t, "ann@acme.test", shipIt.Assignees[0].User.Email)
	require.Len(t, shipIt.Labels, 1)
	require.NotNil(t, shipIt.Labels[0].Label)
	require.Len(t, shipIt.Comments, 2)

	t.Run("dangling assignee surfaces as nil payload", func(t *testing.T) {
		readPapers := tasks[2]
		require.Len(t, readPapers.Assignees, 1)
		assert.Nil(t, readPapers.Assignees[0].User)
	})

	t.Run("dangling label surfaces as nil payload", func(t *testing.T) {
		testIt := tasks[1]
		require.Len(t, testIt.Labels, 1)
		assert.Nil(t, testIt.Labels[0].Label)
	})
}

func TestExtractAll(t *testing.T) {
	c := newTestClient(t, 100)

	data, err := c.ExtractAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, len(data.Organizations))
	assert.Equal(t, 3, len(data.Users))
	assert.Equal(t, 1, len(data.Labels))
	assert.Equal(t, 2, len(data.Projects))
	assert.Equal(t, 3, len(data.Tasks))
	assert.Equal(t, 11, data.TotalRecords())
}

func TestPagination(t *testing.T) {
	// Page size smaller than the row count forces multiple pages.
	c := newTestClient(t, 2)

	users, err := c.Users(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 3)

	tasks, err := c.Tasks(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}
