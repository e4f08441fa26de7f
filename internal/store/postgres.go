package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"recordhub/api/internal/predicate"
)

type PostgresStore struct {
	db        *sql.DB
	documents *pgTable[Document]
	tasks     *pgTable[Task]
	contracts *pgTable[Contract]
	releases  *pgTable[Release]
	catalog   *pgTable[CatalogRow]
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	s := &PostgresStore{db: db}
	s.documents = &pgTable[Document]{
		db:     db,
		schema: DocumentSchema,
		fields: []string{FieldID, FieldTitle, FieldStatus, FieldVisibility, FieldUserID, FieldTeamID, FieldCreatedAt, FieldUpdatedAt, FieldCompletedAt, FieldDeletedAt},
		scan: func(row scanner) (Document, error) {
			var item Document
			err := row.Scan(&item.ID, &item.Title, &item.Status, &item.Visibility, &item.UserID, &item.TeamID, &item.CreatedAt, &item.UpdatedAt, &item.CompletedAt, &item.DeletedAt)
			return item, err
		},
		hydrate: s.hydrateDocuments,
	}
	s.tasks = &pgTable[Task]{
		db:     db,
		schema: TaskSchema,
		fields: []string{FieldID, FieldTitle, FieldDescription, FieldStatus, FieldPriority, FieldVisibility, FieldUserID, FieldTeamID, FieldDueDate, FieldCreatedAt, FieldUpdatedAt, FieldDeletedAt},
		scan: func(row scanner) (Task, error) {
			var item Task
			err := row.Scan(&item.ID, &item.Title, &item.Description, &item.Status, &item.Priority, &item.Visibility, &item.UserID, &item.TeamID, &item.DueDate, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
			return item, err
		},
		hydrate: s.hydrateTasks,
	}
	s.contracts = &pgTable[Contract]{
		db:     db,
		schema: ContractSchema,
		fields: []string{FieldID, FieldTitle, FieldFileName, FieldArtists, FieldStatus, FieldVisibility, FieldStartDate, FieldEndDate, FieldUserID, FieldTeamID, FieldCreatedAt, FieldDeletedAt},
		scan: func(row scanner) (Contract, error) {
			var item Contract
			err := row.Scan(&item.ID, &item.Title, &item.FileName, &item.Artists, &item.Status, &item.Visibility, &item.StartDate, &item.EndDate, &item.UserID, &item.TeamID, &item.CreatedAt, &item.DeletedAt)
			return item, err
		},
	}
	s.releases = &pgTable[Release]{
		db:     db,
		schema: ReleaseSchema,
		fields: []string{FieldID, FieldTitle, FieldArtist, FieldType, FieldUPC, FieldVisibility, FieldReleaseDate, FieldUserID, FieldTeamID, FieldCreatedAt},
		scan: func(row scanner) (Release, error) {
			var item Release
			err := row.Scan(&item.ID, &item.Title, &item.Artist, &item.Type, &item.UPC, &item.Visibility, &item.ReleaseDate, &item.UserID, &item.TeamID, &item.CreatedAt)
			return item, err
		},
	}
	s.catalog = &pgTable[CatalogRow]{
		db:     db,
		schema: CatalogSchema,
		fields: []string{FieldID, FieldTitle, FieldArtist, FieldISRC, FieldCatalogNumber, FieldType, FieldVisibility, FieldUserID, FieldTeamID, FieldCreatedAt},
		scan: func(row scanner) (CatalogRow, error) {
			var item CatalogRow
			err := row.Scan(&item.ID, &item.Title, &item.Artist, &item.ISRC, &item.CatalogNumber, &item.Type, &item.Visibility, &item.UserID, &item.TeamID, &item.CreatedAt)
			return item, err
		},
	}
	return s
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Documents() Table[Document] { return s.documents }
func (s *PostgresStore) Tasks() Table[Task] { return s.tasks }
func (s *PostgresStore) Contracts() Table[Contract] { return s.contracts }
func (s *PostgresStore) Releases() Table[Release] { return s.releases }
func (s *PostgresStore) Catalog() Table[CatalogRow] { return s.catalog }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email FROM users WHERE id=$1`, userID).Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetTeam(ctx context.Context, teamID string) (Team, error) {
	var team Team
	var email sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT id, name, url, email FROM teams WHERE id=$1`, teamID).Scan(&team.ID, &team.Name, &team.URL, &email)
	if err != nil {
		return Team{}, fmt.Errorf("get team: %w", err)
	}
	team.Email = email.String
	return team, nil
}

func (s *PostgresStore) GetTeamMember(ctx context.Context, teamID, userID string) (TeamMember, error) {
	var member TeamMember
	err := s.db.QueryRowContext(ctx, `
		SELECT team_id, user_id, role
		FROM team_members
		WHERE team_id=$1 AND user_id=$2
	`, teamID, userID).Scan(&member.TeamID, &member.UserID, &member.Role)
	if err != nil {
		return TeamMember{}, fmt.Errorf("get team member: %w", err)
	}
	return member, nil
}

// InsertCatalogBatch writes rows in a single transaction. A positive timeout
// is applied as the transaction-local statement_timeout.
func (s *PostgresStore) InsertCatalogBatch(ctx context.Context, rows []CatalogRow, timeout time.Duration) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog batch: %w", err)
	}
	if timeout > 0 {
		ms := strconv.FormatInt(timeout.Milliseconds(), 10)
		if _, err := tx.ExecContext(ctx, `SELECT set_config('statement_timeout', $1, true)`, ms); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("set statement timeout: %w", err)
		}
	}

	var b predicate.SQL
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, "("+strings.Join([]string{
			b.Bind(row.ID),
			b.Bind(row.Title),
			b.Bind(row.Artist),
			b.Bind(row.ISRC),
			b.Bind(row.CatalogNumber),
			b.Bind(string(row.Type)),
			b.Bind(row.Visibility),
			b.Bind(row.UserID),
			b.Bind(row.TeamID),
			b.Bind(row.CreatedAt),
		}, ", ")+")")
	}
	query := `INSERT INTO catalog_rows (id, title, artist, isrc, catalog_number, type, visibility, user_id, team_id, created_at) VALUES ` + strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, query, b.Args()...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert catalog rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog batch: %w", err)
	}
	return nil
}

// IsStatementTimeout reports whether err was caused by Postgres cancelling a
// statement after statement_timeout elapsed.
func IsStatementTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "57014"
}

func (s *PostgresStore) hydrateDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	docIDs := make([]any, 0, len(docs))
	userIDs := make([]any, 0, len(docs))
	for _, doc := range docs {
		docIDs = append(docIDs, doc.ID)
		userIDs = append(userIDs, doc.UserID)
	}

	recipients, err := s.listRecipients(ctx, docIDs)
	if err != nil {
		return err
	}
	senders, err := s.listUsers(ctx, userIDs)
	if err != nil {
		return err
	}
	for i := range docs {
		docs[i].Recipients = recipients[docs[i].ID]
		if docs[i].Recipients == nil {
			docs[i].Recipients = []Recipient{}
		}
		docs[i].Sender = senders[docs[i].UserID]
	}
	return nil
}

func (s *PostgresStore) listRecipients(ctx context.Context, docIDs []any) (map[string][]Recipient, error) {
	var b predicate.SQL
	where, err := b.Where(predicate.In(FieldDocumentID, docIDs...), RecipientSchema, "")
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, email, name, role, signing_status
		FROM recipients
		WHERE `+where+`
		ORDER BY id ASC
	`, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]Recipient)
	for rows.Next() {
		var item Recipient
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.Email, &item.Name, &item.Role, &item.SigningStatus); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		items[item.DocumentID] = append(items[item.DocumentID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipients: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) listUsers(ctx context.Context, userIDs []any) (map[string]User, error) {
	var b predicate.SQL
	where, err := b.Where(predicate.In(FieldID, userIDs...), UserSchema, "")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email FROM users WHERE `+where, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make(map[string]User)
	for rows.Next() {
		var item User
		if err := rows.Scan(&item.ID, &item.Name, &item.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) hydrateTasks(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	taskIDs := make([]any, 0, len(tasks))
	for _, task := range tasks {
		taskIDs = append(taskIDs, task.ID)
	}

	var b predicate.SQL
	where, err := b.Where(predicate.In(FieldTaskID, taskIDs...), TaskAssigneeSchema, "")
	if err != nil {
		return fmt.Errorf("list assignees: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, user_id, email
		FROM task_assignees
		WHERE `+where+`
		ORDER BY user_id ASC
	`, b.Args()...)
	if err != nil {
		return fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	byTask := make(map[string][]TaskAssignee)
	for rows.Next() {
		var item TaskAssignee
		if err := rows.Scan(&item.TaskID, &item.UserID, &item.Email); err != nil {
			return fmt.Errorf("scan assignee: %w", err)
		}
		byTask[item.TaskID] = append(byTask[item.TaskID], item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate assignees: %w", err)
	}
	for i := range tasks {
		tasks[i].Assignees = byTask[tasks[i].ID]
		if tasks[i].Assignees == nil {
			tasks[i].Assignees = []TaskAssignee{}
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// pgTable renders predicates against one schema. The root table is always
// aliased as t.
type pgTable[T any] struct {
	db      *sql.DB
	schema  *predicate.Schema
	fields  []string
	scan    func(scanner) (T, error)
	hydrate func(ctx context.Context, items []T) error
}

func (t *pgTable[T]) selectList() (string, error) {
	columns := make([]string, 0, len(t.fields))
	for _, field := range t.fields {
		column, err := t.schema.Column("t", field)
		if err != nil {
			return "", err
		}
		columns = append(columns, column)
	}
	return strings.Join(columns, ", "), nil
}

func (t *pgTable[T]) FindMany(ctx context.Context, q Query) ([]T, error) {
	var b predicate.SQL
	where, err := b.Where(q.Where, t.schema, "t")
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.schema.Table, err)
	}
	order := q.Order
	if order.Field == "" {
		order.Field = FieldID
	}
	orderBy, err := predicate.OrderBy(order, t.schema, "t")
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.schema.Table, err)
	}
	columns, err := t.selectList()
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.schema.Table, err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s t WHERE %s %s", columns, t.schema.Table, where, orderBy)
	if q.Take > 0 {
		query += " LIMIT " + b.Bind(q.Take)
	}
	if q.Skip > 0 {
		query += " OFFSET " + b.Bind(q.Skip)
	}

	rows, err := t.db.QueryContext(ctx, query, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.schema.Table, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.schema.Table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.schema.Table, err)
	}
	if t.hydrate != nil {
		if err := t.hydrate(ctx, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (t *pgTable[T]) Count(ctx context.Context, where predicate.Predicate) (int, error) {
	var b predicate.SQL
	clause, err := b.Where(where, t.schema, "t")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.schema.Table, err)
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s t WHERE %s", t.schema.Table, clause)
	if err := t.db.QueryRowContext(ctx, query, b.Args()...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.schema.Table, err)
	}
	return count, nil
}

func (t *pgTable[T]) GroupCount(ctx context.Context, where predicate.Predicate, field string) (map[string]int, error) {
	column, err := t.schema.Column("t", field)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", t.schema.Table, err)
	}
	var b predicate.SQL
	clause, err := b.Where(where, t.schema, "t")
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", t.schema.Table, err)
	}
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s t WHERE %s GROUP BY %s", column, t.schema.Table, clause, column)
	rows, err := t.db.QueryContext(ctx, query, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", t.schema.Table, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan %s group: %w", t.schema.Table, err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s groups: %w", t.schema.Table, err)
	}
	return counts, nil
}
