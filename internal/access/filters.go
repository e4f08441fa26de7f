package access

import (
	"recordhub/api/internal/predicate"
	"recordhub/api/internal/rbac"
	"recordhub/api/internal/store"
)

// Selectors accepted alongside concrete status and type values.
const (
	SelectAll   = "ALL"
	SelectInbox = "INBOX"
)

// DocumentRecipiency matches documents naming the caller as a recipient.
func DocumentRecipiency(p Principal) predicate.Predicate {
	if p.UserEmail == "" {
		return predicate.False()
	}
	return predicate.Some(store.RelRecipients, predicate.Eq(store.FieldEmail, p.UserEmail))
}

// TaskAssignment matches tasks assigned to the caller.
func TaskAssignment(p Principal) predicate.Predicate {
	return predicate.Some(store.RelAssignees, predicate.Eq(store.FieldUserID, p.UserID))
}

// VisibilityFilter restricts team records to those the caller's role may
// see. Ownership and recipiency bypass the role ladder. In personal scope
// the caller only ever sees their own records.
func VisibilityFilter(p Principal, recipiency predicate.Predicate) predicate.Predicate {
	owner := predicate.Eq(store.FieldUserID, p.UserID)
	if !p.InTeam() {
		return owner
	}
	levels := rbac.VisibleLevels(p.Role)
	allowed := make([]any, 0, len(levels))
	for _, level := range levels {
		allowed = append(allowed, level)
	}
	return predicate.OrAny(owner, recipiency, predicate.In(store.FieldVisibility, allowed...))
}

// Ownership scopes flat entities to the caller's team, or to the caller in
// personal scope.
func Ownership(p Principal) predicate.Predicate {
	if p.InTeam() {
		return predicate.Eq(store.FieldTeamID, p.TeamID)
	}
	return predicate.Eq(store.FieldUserID, p.UserID)
}

// EnumFilter matches field against selector. ALL and the empty selector
// impose no restriction; values outside allowed are unsatisfiable.
func EnumFilter[S ~string](field, selector string, allowed []S) predicate.Predicate {
	if selector == "" || selector == SelectAll {
		return predicate.True()
	}
	for _, value := range allowed {
		if string(value) == selector {
			return predicate.Eq(field, selector)
		}
	}
	return predicate.False()
}

// DocumentStatusFilter builds the ownership, visibility and status predicate
// for one document selector.
//
// In team scope, team-owned documents are subject to the visibility ladder,
// while documents reached through the team email alias (addressed to it, or
// sent by a user holding that address) are not. In personal scope the
// caller's own address plays the role of the alias and ownership means
// "created by the caller outside any team".
func DocumentStatusFilter(p Principal, selector string) predicate.Predicate {
	var owned predicate.Predicate
	alias := p.TeamEmail
	sentBy := predicate.False()
	if p.InTeam() {
		owned = predicate.AndAll(
			predicate.Eq(store.FieldTeamID, p.TeamID),
			VisibilityFilter(p, DocumentRecipiency(p)),
		)
		if alias != "" {
			sentBy = predicate.Some(store.RelSender, predicate.Eq(store.FieldEmail, alias))
		}
	} else {
		owned = predicate.AndAll(
			predicate.Eq(store.FieldUserID, p.UserID),
			predicate.IsNull(store.FieldTeamID),
		)
		alias = p.UserEmail
	}

	addressed := func(extra ...predicate.Predicate) predicate.Predicate {
		if alias == "" {
			return predicate.False()
		}
		where := append([]predicate.Predicate{predicate.Eq(store.FieldEmail, alias)}, extra...)
		return predicate.Some(store.RelRecipients, predicate.AndAll(where...))
	}
	notCC := predicate.Ne(store.FieldRole, store.RecipientCC)
	notDraft := predicate.Ne(store.FieldStatus, store.DocumentDraft)

	switch selector {
	case SelectAll:
		return predicate.OrAny(
			owned,
			predicate.AndAll(notDraft, addressed()),
			sentBy,
		)
	case SelectInbox:
		return predicate.AndAll(
			notDraft,
			addressed(predicate.Eq(store.FieldSigningStatus, store.NotSigned), notCC),
		)
	}

	status := store.DocumentStatus(selector)
	is := predicate.Eq(store.FieldStatus, status)
	switch status {
	case store.DocumentDraft, store.DocumentError:
		return predicate.OrAny(
			predicate.AndAll(owned, is),
			predicate.AndAll(is, sentBy),
		)
	case store.DocumentPending:
		return predicate.OrAny(
			predicate.AndAll(owned, is),
			predicate.AndAll(is, predicate.OrAny(
				addressed(predicate.Eq(store.FieldSigningStatus, store.Signed), notCC),
				sentBy,
			)),
		)
	case store.DocumentCompleted:
		return predicate.OrAny(
			predicate.AndAll(owned, is),
			predicate.AndAll(is, predicate.OrAny(addressed(), sentBy)),
		)
	case store.DocumentRejected:
		return predicate.OrAny(
			predicate.AndAll(owned, is),
			predicate.AndAll(is, predicate.OrAny(
				addressed(predicate.Eq(store.FieldSigningStatus, store.Rejected)),
				sentBy,
			)),
		)
	}
	return predicate.False()
}

// TaskStatusFilter scopes tasks to the caller's team under the visibility
// ladder, with assignees standing in for recipients.
func TaskStatusFilter(p Principal, selector string) predicate.Predicate {
	owned := predicate.AndAll(
		Ownership(p),
		VisibilityFilter(p, TaskAssignment(p)),
	)
	return predicate.AndAll(owned, EnumFilter(store.FieldStatus, selector, store.TaskStatuses))
}
