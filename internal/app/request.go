package app

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"recordhub/api/internal/access"
	"recordhub/api/internal/period"
	"recordhub/api/internal/predicate"
	"recordhub/api/internal/rbac"
	"recordhub/api/internal/store"
)

// ListInput is a validated list or stats request. Selector holds the value
// of the entity's status or type parameter.
type ListInput struct {
	TeamID    string
	Query     string
	Period    string
	Page      int
	PerPage   int
	Selector  string
	Priority  string
	OrderBy   predicate.Order
	SenderIDs []string
}

type CatalogInput struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	ISRC          string `json:"isrc"`
	CatalogNumber string `json:"catalogNumber"`
	Type          string `json:"type"`
	Visibility    string `json:"visibility"`
}

// listParams describes the query parameters one entity accepts.
type listParams struct {
	selectorParam string
	selectors     []string
	orderColumns  []string
	priorities    bool
	senders       bool
}

func selectorValues[S ~string](values []S, extra ...string) []string {
	out := append([]string{access.SelectAll}, extra...)
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

var (
	documentParams = listParams{
		selectorParam: "status",
		selectors:     selectorValues(store.DocumentStatuses, access.SelectInbox),
		orderColumns:  []string{store.FieldCreatedAt, store.FieldUpdatedAt, store.FieldTitle, store.FieldStatus},
		senders:       true,
	}
	taskParams = listParams{
		selectorParam: "status",
		selectors:     selectorValues(store.TaskStatuses),
		orderColumns:  []string{store.FieldCreatedAt, store.FieldDueDate, store.FieldPriority, store.FieldTitle, store.FieldStatus},
		priorities:    true,
	}
	contractParams = listParams{
		selectorParam: "status",
		selectors:     selectorValues(store.ContractStatuses),
		orderColumns:  []string{store.FieldCreatedAt, store.FieldTitle, store.FieldStartDate, store.FieldEndDate},
	}
	releaseParams = listParams{
		selectorParam: "type",
		selectors:     selectorValues(store.ReleaseTypes),
		orderColumns:  []string{store.FieldCreatedAt, store.FieldReleaseDate, store.FieldTitle, store.FieldArtist},
	}
	catalogParams = listParams{
		selectorParam: "type",
		selectors:     selectorValues(store.CatalogTypes),
		orderColumns:  []string{store.FieldCreatedAt, store.FieldTitle, store.FieldArtist, store.FieldISRC},
	}
)

// parseListInput validates query parameters against params. Every rejected
// field is reported at once.
func parseListInput(values url.Values, params listParams, defaultPerPage, maxPerPage int) (ListInput, error) {
	in := ListInput{
		Query:   strings.TrimSpace(values.Get("query")),
		Period:  values.Get("period"),
		Page:    1,
		PerPage: defaultPerPage,
		OrderBy: predicate.Order{Field: store.FieldCreatedAt, Desc: true},
	}
	invalid := map[string]string{}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			invalid["page"] = "must be an integer"
		} else if page > maxPage(maxPerPage) {
			invalid["page"] = "must be at most " + strconv.Itoa(maxPage(maxPerPage))
		}
		in.Page = page
	}
	if raw := values.Get("perPage"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 || perPage > maxPerPage {
			invalid["perPage"] = "must be between 1 and " + strconv.Itoa(maxPerPage)
		}
		in.PerPage = perPage
	}
	if in.Period != "" && !slices.Contains(period.Allowed, in.Period) {
		invalid["period"] = "must be one of " + strings.Join(period.Allowed, ", ")
	}

	in.Selector = values.Get(params.selectorParam)
	if in.Selector != "" && !slices.Contains(params.selectors, in.Selector) {
		invalid[params.selectorParam] = "must be one of " + strings.Join(params.selectors, ", ")
	}

	if params.priorities {
		in.Priority = values.Get("priority")
		allowed := selectorValues(store.TaskPriorities)
		if in.Priority != "" && !slices.Contains(allowed, in.Priority) {
			invalid["priority"] = "must be one of " + strings.Join(allowed, ", ")
		}
	}

	if column := values.Get("orderByColumn"); column != "" {
		if !slices.Contains(params.orderColumns, column) {
			invalid["orderByColumn"] = "must be one of " + strings.Join(params.orderColumns, ", ")
		}
		in.OrderBy.Field = column
	}
	switch values.Get("orderByDirection") {
	case "", "desc":
	case "asc":
		in.OrderBy.Desc = false
	default:
		invalid["orderByDirection"] = "must be asc or desc"
	}

	if params.senders {
		for _, raw := range values["senderIds"] {
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					in.SenderIDs = append(in.SenderIDs, id)
				}
			}
		}
	}

	if len(invalid) > 0 {
		return ListInput{}, validationError(invalid)
	}
	return in, nil
}

// maxPage is the largest page whose row offset fits in an int at the
// largest allowed page size.
func maxPage(maxPerPage int) int {
	return math.MaxInt/max(maxPerPage, 1) + 1
}

// validateCatalogRows checks an import payload. Keys in the returned map are
// row indexes.
func validateCatalogRows(rows []CatalogInput, maxRows int) error {
	if len(rows) == 0 {
		return validationError(map[string]string{"rows": "must not be empty"})
	}
	if len(rows) > maxRows {
		return validationError(map[string]string{"rows": "at most " + strconv.Itoa(maxRows) + " rows per import"})
	}
	invalid := map[string]string{}
	for i, row := range rows {
		switch {
		case strings.TrimSpace(row.Title) == "":
			invalid[strconv.Itoa(i)] = "title is required"
		case !slices.Contains(store.CatalogTypes, store.CatalogType(row.Type)):
			invalid[strconv.Itoa(i)] = "unknown type " + strconv.Quote(row.Type)
		case row.Visibility != "" && !rbac.ValidVisibility(row.Visibility):
			invalid[strconv.Itoa(i)] = "unknown visibility " + strconv.Quote(row.Visibility)
		}
	}
	if len(invalid) > 0 {
		return validationError(invalid)
	}
	return nil
}
