package access

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"recordhub/api/internal/predicate"
	"recordhub/api/internal/rbac"
	"recordhub/api/internal/store"
)

func ptr(s string) *string { return &s }

var (
	teamAlias = store.User{ID: "user-alias", Email: "team@x.com"}
	outsider  = store.User{ID: "user-9", Email: "someone@else.com"}
)

func recipient(email string, role store.RecipientRole, status store.SigningStatus) store.Recipient {
	return store.Recipient{Email: email, Role: role, SigningStatus: status}
}

// fixtureDocuments covers every branch of the status table for a caller
// user-1 (avery@x.com) in team-1 whose alias is team@x.com.
func fixtureDocuments() []store.Document {
	return []store.Document{
		{ID: "own-everyone", TeamID: ptr("team-1"), UserID: "user-2", Visibility: "EVERYONE", Status: store.DocumentPending, Sender: outsider},
		{ID: "own-manager", TeamID: ptr("team-1"), UserID: "user-2", Visibility: "MANAGER_AND_ABOVE", Status: store.DocumentCompleted, Sender: outsider},
		{ID: "own-admin", TeamID: ptr("team-1"), UserID: "user-2", Visibility: "ADMIN", Status: store.DocumentPending, Sender: outsider},
		{ID: "own-admin-mine", TeamID: ptr("team-1"), UserID: "user-1", Visibility: "ADMIN", Status: store.DocumentDraft, Sender: outsider},
		{ID: "own-admin-recipient", TeamID: ptr("team-1"), UserID: "user-2", Visibility: "ADMIN", Status: store.DocumentError, Sender: outsider,
			Recipients: []store.Recipient{recipient("avery@x.com", store.RecipientViewer, store.NotSigned)}},
		{ID: "inbox", TeamID: ptr("team-2"), UserID: "user-9", Visibility: "ADMIN", Status: store.DocumentPending, Sender: outsider,
			Recipients: []store.Recipient{recipient("team@x.com", store.RecipientSigner, store.NotSigned)}},
		{ID: "inbox-cc", TeamID: ptr("team-2"), UserID: "user-9", Visibility: "ADMIN", Status: store.DocumentPending, Sender: outsider,
			Recipients: []store.Recipient{recipient("team@x.com", store.RecipientCC, store.NotSigned)}},
		{ID: "alias-signed", TeamID: ptr("team-2"), UserID: "user-9", Visibility: "ADMIN", Status: store.DocumentPending, Sender: outsider,
			Recipients: []store.Recipient{recipient("team@x.com", store.RecipientSigner, store.Signed)}},
		{ID: "alias-signed-completed", TeamID: ptr("team-2"), UserID: "user-9", Visibility: "ADMIN", Status: store.DocumentCompleted, Sender: outsider,
			Recipients: []store.Recipient{recipient("team@x.com", store.RecipientCC, store.Signed)}},
		{ID: "alias-rejected", TeamID: ptr("team-2"), UserID: "user-9", Visibility: "ADMIN", Status: store.DocumentRejected, Sender: outsider,
			Recipients: []store.Recipient{recipient("team@x.com", store.RecipientSigner, store.Rejected)}},
		{ID: "draft-addressed", TeamID: ptr("team-2"), UserID: "user-9", Visibility: "ADMIN", Status: store.DocumentDraft, Sender: outsider,
			Recipients: []store.Recipient{recipient("team@x.com", store.RecipientSigner, store.NotSigned)}},
		{ID: "sent-draft", UserID: teamAlias.ID, Visibility: "ADMIN", Status: store.DocumentDraft, Sender: teamAlias},
		{ID: "sent-error", UserID: teamAlias.ID, Visibility: "ADMIN", Status: store.DocumentError, Sender: teamAlias},
		{ID: "unrelated", TeamID: ptr("team-2"), UserID: "user-9", Visibility: "EVERYONE", Status: store.DocumentPending, Sender: outsider},
	}
}

func matching(p predicate.Predicate, docs []store.Document) []string {
	ids := make([]string, 0)
	for _, doc := range docs {
		if predicate.Match(p, doc) {
			ids = append(ids, doc.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

func sorted(ids ...string) []string {
	slices.Sort(ids)
	return ids
}

func teamPrincipal(role rbac.Role, alias string) Principal {
	return Principal{UserID: "user-1", UserEmail: "avery@x.com", TeamID: "team-1", TeamEmail: alias, Role: role}
}

func TestDocumentStatusFilterTeamScope(t *testing.T) {
	docs := fixtureDocuments()
	member := teamPrincipal(rbac.RoleMember, "team@x.com")

	cases := []struct {
		selector string
		want     []string
	}{
		{selector: SelectAll, want: sorted(
			"own-everyone", "own-admin-mine", "own-admin-recipient",
			"inbox", "inbox-cc", "alias-signed", "alias-signed-completed", "alias-rejected",
			"sent-draft", "sent-error",
		)},
		{selector: SelectInbox, want: sorted("inbox")},
		{selector: "DRAFT", want: sorted("own-admin-mine", "sent-draft")},
		{selector: "ERROR", want: sorted("own-admin-recipient", "sent-error")},
		{selector: "PENDING", want: sorted("own-everyone", "alias-signed")},
		{selector: "COMPLETED", want: sorted("alias-signed-completed")},
		{selector: "REJECTED", want: sorted("alias-rejected")},
		{selector: "ARCHIVED", want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.selector, func(t *testing.T) {
			got := matching(DocumentStatusFilter(member, tc.selector), docs)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("DocumentStatusFilter(%s) mismatch (-want +got):\n%s", tc.selector, diff)
			}
		})
	}
}

func TestDocumentStatusFilterRoleLadder(t *testing.T) {
	docs := fixtureDocuments()
	cases := []struct {
		role rbac.Role
		want []string
	}{
		{role: rbac.RoleMember, want: sorted("own-everyone", "own-admin-mine", "own-admin-recipient")},
		{role: rbac.RoleManager, want: sorted("own-everyone", "own-manager", "own-admin-mine", "own-admin-recipient")},
		{role: rbac.RoleAdmin, want: sorted("own-everyone", "own-manager", "own-admin", "own-admin-mine", "own-admin-recipient")},
		{role: "", want: sorted("own-everyone", "own-admin-mine", "own-admin-recipient")},
	}

	var previous []string
	for _, tc := range cases[:3] {
		// Without an alias ALL is exactly the visible team-owned set.
		got := matching(DocumentStatusFilter(teamPrincipal(tc.role, ""), SelectAll), docs)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("role %s mismatch (-want +got):\n%s", tc.role, diff)
		}
		for _, id := range previous {
			if !slices.Contains(got, id) {
				t.Fatalf("role %s lost %s visible to a lower role", tc.role, id)
			}
		}
		previous = got
	}
	noRole := cases[3]
	if got := matching(DocumentStatusFilter(teamPrincipal(noRole.role, ""), SelectAll), docs); !slices.Equal(got, noRole.want) {
		t.Fatalf("no role = %v, want %v", got, noRole.want)
	}
}

func TestDocumentStatusFilterInboxWithoutAlias(t *testing.T) {
	if got := DocumentStatusFilter(teamPrincipal(rbac.RoleAdmin, ""), SelectInbox); !got.IsFalse() {
		t.Fatal("INBOX without a team alias must be unsatisfiable")
	}
}

func TestDocumentStatusFilterCoversEveryStatus(t *testing.T) {
	p := teamPrincipal(rbac.RoleMember, "team@x.com")
	for _, status := range store.DocumentStatuses {
		doc := store.Document{ID: "d", TeamID: ptr("team-1"), UserID: "user-2", Visibility: "EVERYONE", Status: status}
		filter := DocumentStatusFilter(p, string(status))
		if filter.IsFalse() {
			t.Fatalf("status %s has no branch", status)
		}
		if !predicate.Match(filter, doc) {
			t.Fatalf("status %s does not match a visible team-owned document in that status", status)
		}
		for _, other := range store.DocumentStatuses {
			if other != status && predicate.Match(DocumentStatusFilter(p, string(other)), doc) {
				t.Fatalf("team-owned %s document matched selector %s", status, other)
			}
		}
	}
}

func TestDocumentStatusFilterPersonalScope(t *testing.T) {
	p := Principal{UserID: "user-1", UserEmail: "avery@x.com"}
	me := store.User{ID: "user-1", Email: "avery@x.com"}
	docs := []store.Document{
		{ID: "mine-draft", UserID: "user-1", Status: store.DocumentDraft, Sender: me},
		{ID: "mine-in-team", UserID: "user-1", TeamID: ptr("team-1"), Status: store.DocumentDraft, Sender: me},
		{ID: "to-me", UserID: "user-9", TeamID: ptr("team-2"), Status: store.DocumentPending, Sender: outsider,
			Recipients: []store.Recipient{recipient("avery@x.com", store.RecipientSigner, store.NotSigned)}},
		{ID: "draft-to-me", UserID: "user-9", Status: store.DocumentDraft, Sender: outsider,
			Recipients: []store.Recipient{recipient("avery@x.com", store.RecipientSigner, store.NotSigned)}},
	}

	cases := []struct {
		selector string
		want     []string
	}{
		{selector: SelectAll, want: sorted("mine-draft", "to-me")},
		{selector: SelectInbox, want: sorted("to-me")},
		{selector: "DRAFT", want: sorted("mine-draft")},
		{selector: "PENDING", want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.selector, func(t *testing.T) {
			got := matching(DocumentStatusFilter(p, tc.selector), docs)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTaskStatusFilter(t *testing.T) {
	p := teamPrincipal(rbac.RoleMember, "")
	tasks := []store.Task{
		{ID: "open", TeamID: "team-1", UserID: "user-2", Visibility: "EVERYONE", Status: store.TaskPending},
		{ID: "hidden", TeamID: "team-1", UserID: "user-2", Visibility: "ADMIN", Status: store.TaskPending},
		{ID: "assigned", TeamID: "team-1", UserID: "user-2", Visibility: "ADMIN", Status: store.TaskInProgress,
			Assignees: []store.TaskAssignee{{TaskID: "assigned", UserID: "user-1"}}},
		{ID: "other-team", TeamID: "team-2", UserID: "user-1", Visibility: "EVERYONE", Status: store.TaskPending},
	}
	match := func(selector string) []string {
		ids := make([]string, 0)
		for _, task := range tasks {
			if predicate.Match(TaskStatusFilter(p, selector), task) {
				ids = append(ids, task.ID)
			}
		}
		return ids
	}

	if diff := cmp.Diff([]string{"open", "assigned"}, match(SelectAll)); diff != "" {
		t.Fatalf("ALL mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"assigned"}, match("IN_PROGRESS")); diff != "" {
		t.Fatalf("IN_PROGRESS mismatch (-want +got):\n%s", diff)
	}
	if !TaskStatusFilter(p, "BLOCKED").IsFalse() {
		t.Fatal("unknown task status must be unsatisfiable")
	}
}

func TestEnumFilter(t *testing.T) {
	cases := []struct {
		name      string
		selector  string
		wantTrue  bool
		wantFalse bool
	}{
		{name: "empty", selector: "", wantTrue: true},
		{name: "all", selector: SelectAll, wantTrue: true},
		{name: "known", selector: "EP"},
		{name: "unknown", selector: "MIXTAPE", wantFalse: true},
		{name: "wrong case", selector: "ep", wantFalse: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EnumFilter(store.FieldType, tc.selector, store.ReleaseTypes)
			if got.IsTrue() != tc.wantTrue || got.IsFalse() != tc.wantFalse {
				t.Fatalf("EnumFilter(%q) kind = %v", tc.selector, got.Kind())
			}
		})
	}
	release := store.Release{Type: store.ReleaseEP}
	if !predicate.Match(EnumFilter(store.FieldType, "EP", store.ReleaseTypes), release) {
		t.Fatal("EnumFilter(EP) does not match an EP release")
	}
}

func TestOwnership(t *testing.T) {
	team := Ownership(teamPrincipal(rbac.RoleMember, ""))
	personal := Ownership(Principal{UserID: "user-1"})
	row := store.Contract{TeamID: "team-1", UserID: "user-2"}
	if !predicate.Match(team, row) {
		t.Fatal("team ownership should match team contract")
	}
	if predicate.Match(personal, row) {
		t.Fatal("personal ownership should not match another user's contract")
	}
}
