package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	"recordhub/api/internal/predicate"
)

// MemoryStore is an in-process Store used by tests and local runs without
// Postgres. Predicates are evaluated with predicate.Match.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]User
	teams     map[string]Team
	members   map[[2]string]TeamMember
	documents []Document
	tasks     []Task
	contracts []Contract
	releases  []Release
	catalog   []CatalogRow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]User),
		teams:   make(map[string]Team),
		members: make(map[[2]string]TeamMember),
	}
}

func (s *MemoryStore) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) AddTeam(t Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t
}

func (s *MemoryStore) AddTeamMember(m TeamMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[[2]string{m.TeamID, m.UserID}] = m
}

func (s *MemoryStore) AddDocument(d Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, d)
}

func (s *MemoryStore) AddTask(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
}

func (s *MemoryStore) AddContract(c Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts = append(s.contracts, c)
}

func (s *MemoryStore) AddRelease(r Release) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases = append(s.releases, r)
}

func (s *MemoryStore) GetUserByID(_ context.Context, userID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return User{}, fmt.Errorf("get user: %w", sql.ErrNoRows)
	}
	return user, nil
}

func (s *MemoryStore) GetTeam(_ context.Context, teamID string) (Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[teamID]
	if !ok {
		return Team{}, fmt.Errorf("get team: %w", sql.ErrNoRows)
	}
	return team, nil
}

func (s *MemoryStore) GetTeamMember(_ context.Context, teamID, userID string) (TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[[2]string{teamID, userID}]
	if !ok {
		return TeamMember{}, fmt.Errorf("get team member: %w", sql.ErrNoRows)
	}
	return member, nil
}

func (s *MemoryStore) Documents() Table[Document] {
	return memTable[Document]{mu: &s.mu, rows: func() []Document {
		out := make([]Document, 0, len(s.documents))
		for _, doc := range s.documents {
			doc.Sender = s.users[doc.UserID]
			doc.Recipients = slices.Clone(doc.Recipients)
			if doc.Recipients == nil {
				doc.Recipients = []Recipient{}
			}
			out = append(out, doc)
		}
		return out
	}}
}

func (s *MemoryStore) Tasks() Table[Task] {
	return memTable[Task]{mu: &s.mu, rows: func() []Task {
		out := make([]Task, 0, len(s.tasks))
		for _, task := range s.tasks {
			task.Assignees = slices.Clone(task.Assignees)
			if task.Assignees == nil {
				task.Assignees = []TaskAssignee{}
			}
			out = append(out, task)
		}
		return out
	}}
}

func (s *MemoryStore) Contracts() Table[Contract] {
	return memTable[Contract]{mu: &s.mu, rows: func() []Contract { return slices.Clone(s.contracts) }}
}

func (s *MemoryStore) Releases() Table[Release] {
	return memTable[Release]{mu: &s.mu, rows: func() []Release { return slices.Clone(s.releases) }}
}

func (s *MemoryStore) Catalog() Table[CatalogRow] {
	return memTable[CatalogRow]{mu: &s.mu, rows: func() []CatalogRow { return slices.Clone(s.catalog) }}
}

// InsertCatalogBatch appends rows atomically. The timeout only applies to
// Postgres and is ignored here.
func (s *MemoryStore) InsertCatalogBatch(ctx context.Context, rows []CatalogRow, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("insert catalog rows: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append(s.catalog, rows...)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

type memTable[T predicate.Row] struct {
	mu   *sync.RWMutex
	rows func() []T
}

func (t memTable[T]) filter(where predicate.Predicate) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	matched := make([]T, 0)
	for _, row := range t.rows() {
		if predicate.Match(where, row) {
			matched = append(matched, row)
		}
	}
	return matched
}

func (t memTable[T]) FindMany(ctx context.Context, q Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := t.filter(q.Where)
	field := q.Order.Field
	if field == "" {
		field = FieldID
	}
	slices.SortStableFunc(items, func(a, b T) int {
		c := predicate.Compare(a.Value(field), b.Value(field))
		if q.Order.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return predicate.Compare(a.Value(FieldID), b.Value(FieldID))
	})

	if q.Skip > 0 {
		if q.Skip >= len(items) {
			return []T{}, nil
		}
		items = items[q.Skip:]
	}
	if q.Take > 0 && q.Take < len(items) {
		items = items[:q.Take]
	}
	return items, nil
}

func (t memTable[T]) Count(ctx context.Context, where predicate.Predicate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(t.filter(where)), nil
}

func (t memTable[T]) GroupCount(ctx context.Context, where predicate.Predicate, field string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, row := range t.filter(where) {
		if v := row.Value(field); v != nil {
			counts[fmt.Sprint(v)]++
		}
	}
	return counts, nil
}
