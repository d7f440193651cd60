// Package idmap maintains the per-entity-type mapping from source integer
// keys to generated MongoDB ObjectIDs for the duration of one migration run.
package idmap

import "go.mongodb.org/mongo-driver/bson/primitive"

// Entity names the independent mapping tables. Tables are disjoint: the
// same integer key maps to different ObjectIDs under different entities.
type Entity string

const (
	EntityOrganization Entity = "organizations"
	EntityUser         Entity = "users"
	EntityLabel        Entity = "labels"
	EntityProject      Entity = "projects"
	EntityTask         Entity = "tasks"
	EntityComment      Entity = "comments"
)

// Entities lists all mapping tables in a stable reporting order.
var Entities = []Entity{
	EntityOrganization,
	EntityUser,
	EntityLabel,
	EntityProject,
	EntityTask,
	EntityComment,
}

// Mapper memoizes generated ObjectIDs per (entity, source id) pair. It keeps
// every mapping for the run's lifetime; there is no eviction and no
// persistence across runs. Not safe for concurrent use: the single
// transformation pass is the only writer.
type Mapper struct {
	tables map[Entity]map[int64]primitive.ObjectID
}

// New creates an empty Mapper with one table per entity.
func New() *Mapper {
	tables := make(map[Entity]map[int64]primitive.ObjectID, len(Entities))
	for _, e := range Entities {
		tables[e] = make(map[int64]primitive.ObjectID)
	}
	return &Mapper{tables: tables}
}

// ID returns the ObjectID for the given (entity, source id) pair, generating
// and recording a new one on first sight. Repeated calls for the same pair
// return the identical value.
func (m *Mapper) ID(entity Entity, sourceID int64) primitive.ObjectID {
	table := m.tables[entity]
	if id, ok := table[sourceID]; ok {
		return id
	}
	id := primitive.NewObjectID()
	table[sourceID] = id
	return id
}

func (m *Mapper) OrganizationID(sourceID int64) primitive.ObjectID {
	return m.ID(EntityOrganization, sourceID)
}

func (m *Mapper) UserID(sourceID int64) primitive.ObjectID {
	return m.ID(EntityUser, sourceID)
}

func (m *Mapper) LabelID(sourceID int64) primitive.ObjectID {
	return m.ID(EntityLabel, sourceID)
}

func (m *Mapper) ProjectID(sourceID int64) primitive.ObjectID {
	return m.ID(EntityProject, sourceID)
}

func (m *Mapper) TaskID(sourceID int64) primitive.ObjectID {
	return m.ID(EntityTask, sourceID)
}

func (m *Mapper) CommentID(sourceID int64) primitive.ObjectID {
	return m.ID(EntityComment, sourceID)
}

// Counts reports the number of distinct ids generated per entity. Used only
// for the run summary.
func (m *Mapper) Counts() map[Entity]int {
	counts := make(map[Entity]int, len(Entities))
	for _, e := range Entities {
		counts[e] = len(m.tables[e])
	}
	return counts
}
