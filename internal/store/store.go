package store

import (
	"context"
	"time"

	"recordhub/api/internal/predicate"
)

// Query is a paginated read. Take <= 0 means no limit.
type Query struct {
	Where predicate.Predicate
	Order predicate.Order
	Skip  int
	Take  int
}

// Table is the read surface the query engine needs for one entity.
type Table[T any] interface {
	FindMany(ctx context.Context, q Query) ([]T, error)
	Count(ctx context.Context, where predicate.Predicate) (int, error)
	GroupCount(ctx context.Context, where predicate.Predicate, field string) (map[string]int, error)
}

// Store is implemented by PostgresStore and MemoryStore. Lookups that find
// nothing return sql.ErrNoRows.
type Store interface {
	GetUserByID(ctx context.Context, userID string) (User, error)
	GetTeam(ctx context.Context, teamID string) (Team, error)
	GetTeamMember(ctx context.Context, teamID, userID string) (TeamMember, error)

	Documents() Table[Document]
	Tasks() Table[Task]
	Contracts() Table[Contract]
	Releases() Table[Release]
	Catalog() Table[CatalogRow]

	InsertCatalogBatch(ctx context.Context, rows []CatalogRow, timeout time.Duration) error
	Ping(ctx context.Context) error
}
