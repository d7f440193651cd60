// Package source reads the normalized relational snapshot out of a SQLite
// database, expanding junction-table relations inline so the transformer
// never issues follow-up queries. Tables are read in dependency order.
package source

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

// Client is a read-only extraction client over the source database.
type Client struct {
	db       *sqlx.DB
	log      *zap.Logger
	pageSize int
}

// Open opens the source database at path. The connection is put into
// query-only mode; extraction never writes to the source.
func Open(path string, pageSize int, log *zap.Logger) (*Client, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening source db: %w", err)
	}
	if _, err := db.Exec("PRAGMA query_only=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling query-only mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	return &Client{db: db, log: log, pageSize: pageSize}, nil
}

// Close closes the underlying database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies connectivity with a cheap count against the organizations
// table, which doubles as a schema sanity check.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging source db: %w", err)
	}
	var n int64
	if err := c.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM organizations"); err != nil {
		return fmt.Errorf("counting organizations: %w", err)
	}
	c.log.Debug("source reachable", zap.Int64("organizations", n))
	return nil
}

// countableTables whitelists the tables Count may be asked about.
var countableTables = map[string]bool{
	types.TableOrganizations: true,
	types.TableUsers:         true,
	types.TableOrgMembers:    true,
	types.TableLabels:        true,
	types.TableProjects:      true,
	types.TableTasks:         true,
	types.TableTaskAssignees: true,
	types.TableTaskLabels:    true,
	types.TableComments:      true,
}

// Count returns the row count of a source table. Used by the validation
// engine to compare against target document counts.
func (c *Client) Count(ctx context.Context, table string) (int64, error) {
	if !countableTables[table] {
		return 0, fmt.Errorf("unknown source table %q", table)
	}
	var n int64
	if err := c.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

// pageAll reads every row of a query in pageSize batches. The query must
// have a stable ORDER BY and no LIMIT of its own.
func pageAll[T any](ctx context.Context, db *sqlx.DB, pageSize int, query string) ([]T, error) {
	var all []T
	for offset := 0; ; offset += pageSize {
		var batch []T
		err := db.SelectContext(ctx, &batch, query+" LIMIT ? OFFSET ?", pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}
