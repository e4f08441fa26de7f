package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"recordhub/api/internal/access"
	"recordhub/api/internal/auth"
	"recordhub/api/internal/config"
	"recordhub/api/internal/ingest"
	"recordhub/api/internal/predicate"
	"recordhub/api/internal/query"
	"recordhub/api/internal/rbac"
	"recordhub/api/internal/statscache"
	"recordhub/api/internal/store"
)

const maxImportRows = 10000

// InboxBucket is reported next to the document status buckets and is not
// part of ALL.
const InboxBucket = access.SelectInbox

type Session struct {
	UserID    string
	JTI       string
	ExpiresAt time.Time
}

// StatsCache is satisfied by statscache.RedisCache.
type StatsCache interface {
	Get(ctx context.Context, key string) (map[string]int, bool, error)
	Set(ctx context.Context, key string, counts map[string]int) error
	InvalidateTeam(ctx context.Context, teamID string) error
}

type Service struct {
	cfg   config.Config
	store store.Store
	cache StatsCache
	loc   *time.Location
	now   func() time.Time
}

func New(cfg config.Config, dataStore store.Store) *Service {
	return &Service{
		cfg:   cfg,
		store: dataStore,
		loc:   cfg.Location(),
		now:   time.Now,
	}
}

func NewWithStatsCache(cfg config.Config, dataStore store.Store, cache StatsCache) *Service {
	service := New(cfg, dataStore)
	service.cache = cache
	return service
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) SessionFromToken(_ context.Context, token string) (Session, error) {
	claims, err := auth.ParseTokenAt([]byte(s.cfg.JWTSecret), token, s.now())
	if err != nil {
		return Session{}, err
	}
	return Session{
		UserID:    claims.Sub,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) principal(ctx context.Context, session Session, teamID string) (access.Principal, error) {
	return access.ResolvePrincipal(ctx, s.store, session.UserID, teamID)
}

func (s *Service) periodFilter(token string) (predicate.Predicate, error) {
	filter, err := query.PeriodFilter(token, s.now(), s.loc)
	if err != nil {
		return predicate.False(), validationError(map[string]string{"period": err.Error()})
	}
	return filter, nil
}

func criteria(in ListInput) query.Criteria {
	return query.Criteria{
		Query:   in.Query,
		Period:  in.Period,
		Page:    in.Page,
		PerPage: in.PerPage,
		OrderBy: in.OrderBy,
	}
}

func senderFilter(ids []string) predicate.Predicate {
	if len(ids) == 0 {
		return predicate.True()
	}
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	return predicate.In(store.FieldUserID, values...)
}

// Documents

func (s *Service) documentWhere(p access.Principal, in ListInput, selector string) (predicate.Predicate, error) {
	periodFilter, err := s.periodFilter(in.Period)
	if err != nil {
		return predicate.False(), err
	}
	return query.Compose(
		query.SearchFilter(in.Query, store.FieldTitle),
		periodFilter,
		access.DocumentStatusFilter(p, orAll(selector)),
		senderFilter(in.SenderIDs),
		predicate.IsNull(store.FieldDeletedAt),
	), nil
}

func (s *Service) FindDocuments(ctx context.Context, session Session, in ListInput) (query.Page[store.Document], error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return query.Page[store.Document]{}, err
	}
	where, err := s.documentWhere(p, in, in.Selector)
	if err != nil {
		return query.Page[store.Document]{}, err
	}
	return query.Find(ctx, s.store.Documents(), where, criteria(in))
}

// DocumentStats groups every document the caller can list by status and
// adds the INBOX count. The status selector of in is ignored.
//
// Buckets count stored status, not selector membership. A PENDING document
// still awaiting the caller's signature counts under PENDING but is listed
// under INBOX.
func (s *Service) DocumentStats(ctx context.Context, session Session, in ListInput) (map[string]int, error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return nil, err
	}
	return s.cachedStats(ctx, p, "documents", in, func(ctx context.Context) (map[string]int, error) {
		all, err := s.documentWhere(p, in, access.SelectAll)
		if err != nil {
			return nil, err
		}
		inbox, err := s.documentWhere(p, in, access.SelectInbox)
		if err != nil {
			return nil, err
		}

		var (
			counts     map[string]int
			inboxCount int
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			counts, err = query.Stats(gctx, s.store.Documents(), all, store.FieldStatus, store.DocumentStatuses)
			return err
		})
		if !inbox.IsFalse() {
			g.Go(func() error {
				var err error
				inboxCount, err = s.store.Documents().Count(gctx, inbox)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		counts[InboxBucket] = inboxCount
		return counts, nil
	})
}

// DocumentOverview is one page of documents together with the stats
// sidebar, read concurrently.
type DocumentOverview struct {
	Documents query.Page[store.Document] `json:"documents"`
	Stats     map[string]int             `json:"stats"`
}

func (s *Service) DocumentOverview(ctx context.Context, session Session, in ListInput) (DocumentOverview, error) {
	var out DocumentOverview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Documents, err = s.FindDocuments(gctx, session, in)
		return err
	})
	g.Go(func() error {
		var err error
		out.Stats, err = s.DocumentStats(gctx, session, in)
		return err
	})
	if err := g.Wait(); err != nil {
		return DocumentOverview{}, err
	}
	return out, nil
}

// Tasks

func (s *Service) taskWhere(p access.Principal, in ListInput, priority string) (predicate.Predicate, error) {
	periodFilter, err := s.periodFilter(in.Period)
	if err != nil {
		return predicate.False(), err
	}
	return query.Compose(
		query.SearchFilter(in.Query, store.FieldTitle, store.FieldDescription),
		periodFilter,
		access.TaskStatusFilter(p, in.Selector),
		access.EnumFilter(store.FieldPriority, priority, store.TaskPriorities),
		predicate.IsNull(store.FieldDeletedAt),
	), nil
}

func (s *Service) FindTasks(ctx context.Context, session Session, in ListInput) (query.Page[store.Task], error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return query.Page[store.Task]{}, err
	}
	where, err := s.taskWhere(p, in, in.Priority)
	if err != nil {
		return query.Page[store.Task]{}, err
	}
	return query.Find(ctx, s.store.Tasks(), where, criteria(in))
}

// TaskStats groups by priority under the status selector of in.
func (s *Service) TaskStats(ctx context.Context, session Session, in ListInput) (map[string]int, error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return nil, err
	}
	return s.cachedStats(ctx, p, "tasks", in, func(ctx context.Context) (map[string]int, error) {
		where, err := s.taskWhere(p, in, access.SelectAll)
		if err != nil {
			return nil, err
		}
		return query.Stats(ctx, s.store.Tasks(), where, store.FieldPriority, store.TaskPriorities)
	})
}

// Contracts, releases and catalog rows are scoped to the caller's team and
// then to the visibility levels the caller's role allows. The record's owner
// always sees it.

func (s *Service) flatWhere(p access.Principal, in ListInput, selector predicate.Predicate, softDelete bool, search ...string) (predicate.Predicate, error) {
	periodFilter, err := s.periodFilter(in.Period)
	if err != nil {
		return predicate.False(), err
	}
	deleted := predicate.True()
	if softDelete {
		deleted = predicate.IsNull(store.FieldDeletedAt)
	}
	return query.Compose(
		query.SearchFilter(in.Query, search...),
		periodFilter,
		access.Ownership(p),
		access.VisibilityFilter(p, predicate.False()),
		selector,
		deleted,
	), nil
}

var (
	contractSearch = []string{store.FieldTitle, store.FieldArtists, store.FieldFileName}
	releaseSearch  = []string{store.FieldTitle, store.FieldArtist, store.FieldUPC}
	catalogSearch  = []string{store.FieldTitle, store.FieldArtist, store.FieldISRC, store.FieldCatalogNumber}
)

func (s *Service) FindContracts(ctx context.Context, session Session, in ListInput) (query.Page[store.Contract], error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return query.Page[store.Contract]{}, err
	}
	where, err := s.flatWhere(p, in, access.EnumFilter(store.FieldStatus, in.Selector, store.ContractStatuses), true, contractSearch...)
	if err != nil {
		return query.Page[store.Contract]{}, err
	}
	return query.Find(ctx, s.store.Contracts(), where, criteria(in))
}

func (s *Service) ContractStats(ctx context.Context, session Session, in ListInput) (map[string]int, error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return nil, err
	}
	return s.cachedStats(ctx, p, "contracts", in, func(ctx context.Context) (map[string]int, error) {
		where, err := s.flatWhere(p, in, predicate.True(), true, contractSearch...)
		if err != nil {
			return nil, err
		}
		return query.Stats(ctx, s.store.Contracts(), where, store.FieldStatus, store.ContractStatuses)
	})
}

func (s *Service) FindReleases(ctx context.Context, session Session, in ListInput) (query.Page[store.Release], error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return query.Page[store.Release]{}, err
	}
	where, err := s.flatWhere(p, in, access.EnumFilter(store.FieldType, in.Selector, store.ReleaseTypes), false, releaseSearch...)
	if err != nil {
		return query.Page[store.Release]{}, err
	}
	return query.Find(ctx, s.store.Releases(), where, criteria(in))
}

func (s *Service) ReleaseStats(ctx context.Context, session Session, in ListInput) (map[string]int, error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return nil, err
	}
	return s.cachedStats(ctx, p, "releases", in, func(ctx context.Context) (map[string]int, error) {
		where, err := s.flatWhere(p, in, predicate.True(), false, releaseSearch...)
		if err != nil {
			return nil, err
		}
		return query.Stats(ctx, s.store.Releases(), where, store.FieldType, store.ReleaseTypes)
	})
}

func (s *Service) FindCatalog(ctx context.Context, session Session, in ListInput) (query.Page[store.CatalogRow], error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return query.Page[store.CatalogRow]{}, err
	}
	where, err := s.flatWhere(p, in, access.EnumFilter(store.FieldType, in.Selector, store.CatalogTypes), false, catalogSearch...)
	if err != nil {
		return query.Page[store.CatalogRow]{}, err
	}
	return query.Find(ctx, s.store.Catalog(), where, criteria(in))
}

func (s *Service) CatalogStats(ctx context.Context, session Session, in ListInput) (map[string]int, error) {
	p, err := s.principal(ctx, session, in.TeamID)
	if err != nil {
		return nil, err
	}
	return s.cachedStats(ctx, p, "catalog", in, func(ctx context.Context) (map[string]int, error) {
		where, err := s.flatWhere(p, in, predicate.True(), false, catalogSearch...)
		if err != nil {
			return nil, err
		}
		return query.Stats(ctx, s.store.Catalog(), where, store.FieldType, store.CatalogTypes)
	})
}

// ImportCatalog writes rows into the team catalog in sequential batches.
// When a batch fails the rows from earlier batches stay committed and the
// returned error carries how many there were.
func (s *Service) ImportCatalog(ctx context.Context, session Session, teamID string, input []CatalogInput) (ingest.Result, error) {
	p, err := s.principal(ctx, session, teamID)
	if err != nil {
		return ingest.Result{}, err
	}
	if err := validateCatalogRows(input, maxImportRows); err != nil {
		return ingest.Result{}, err
	}

	createdAt := s.now().UTC()
	rows := make([]store.CatalogRow, 0, len(input))
	for _, row := range input {
		id := strings.TrimSpace(row.ID)
		if id == "" {
			id = uuid.NewString()
		}
		visibility := row.Visibility
		if visibility == "" {
			visibility = string(rbac.VisibilityEveryone)
		}
		rows = append(rows, store.CatalogRow{
			ID:            id,
			Title:         strings.TrimSpace(row.Title),
			Artist:        strings.TrimSpace(row.Artist),
			ISRC:          strings.TrimSpace(row.ISRC),
			CatalogNumber: strings.TrimSpace(row.CatalogNumber),
			Type:          store.CatalogType(row.Type),
			Visibility:    visibility,
			UserID:        p.UserID,
			TeamID:        p.TeamID,
			CreatedAt:     createdAt,
		})
	}

	result, err := ingest.Run(ctx, ingest.SinkFunc[store.CatalogRow](s.store.InsertCatalogBatch), rows, ingest.Options{
		BatchSize:    s.cfg.IngestBatchSize,
		BatchTimeout: s.cfg.IngestBatchTimeout,
		TimedOut:     store.IsStatementTimeout,
	})
	if result.Inserted > 0 {
		s.invalidateStats(ctx, p.TeamID)
	}
	var batchErr *ingest.BatchError
	if errors.As(err, &batchErr) {
		details := map[string]any{"inserted": batchErr.Committed, "failedBatch": batchErr.Batch}
		if batchErr.TimedOut {
			return result, domainError(http.StatusGatewayTimeout, "IMPORT_TIMEOUT", "Import batch timed out", details)
		}
		log.Printf("catalog import failed team=%s: %v", p.TeamID, err)
		return result, domainError(http.StatusInternalServerError, "IMPORT_FAILED", "Import failed", details)
	}
	return result, err
}

// cachedStats serves compute through the stats cache when one is
// configured. Cache failures are logged and the stats are computed anyway.
func (s *Service) cachedStats(ctx context.Context, p access.Principal, entity string, in ListInput, compute func(context.Context) (map[string]int, error)) (map[string]int, error) {
	if s.cache == nil {
		return compute(ctx)
	}
	key := statscache.Key(cacheScope(p), p.UserID, entity, in.Selector, in.Priority, in.Query, in.Period, strings.Join(in.SenderIDs, ","))
	if counts, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("WARNING: stats cache read failed: %v", err)
	} else if ok {
		return counts, nil
	}

	counts, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, counts); err != nil {
		log.Printf("WARNING: stats cache write failed: %v", err)
	}
	return counts, nil
}

func (s *Service) invalidateStats(ctx context.Context, teamID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTeam(ctx, teamID); err != nil {
		log.Printf("WARNING: stats cache invalidation failed: %v", err)
	}
}

// cacheScope leads every cache key so that InvalidateTeam can drop a team's
// entries by prefix.
func cacheScope(p access.Principal) string {
	if p.InTeam() {
		return p.TeamID
	}
	return "user:" + p.UserID
}

func orAll(selector string) string {
	if selector == "" {
		return access.SelectAll
	}
	return selector
}
