package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"recordhub/api/internal/rbac"
	"recordhub/api/internal/store"
)

type fakeDirectory struct {
	getUserByIDFn   func(ctx context.Context, userID string) (store.User, error)
	getTeamFn       func(ctx context.Context, teamID string) (store.Team, error)
	getTeamMemberFn func(ctx context.Context, teamID, userID string) (store.TeamMember, error)
}

func (f *fakeDirectory) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	return f.getUserByIDFn(ctx, userID)
}

func (f *fakeDirectory) GetTeam(ctx context.Context, teamID string) (store.Team, error) {
	return f.getTeamFn(ctx, teamID)
}

func (f *fakeDirectory) GetTeamMember(ctx context.Context, teamID, userID string) (store.TeamMember, error) {
	return f.getTeamMemberFn(ctx, teamID, userID)
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		getUserByIDFn: func(_ context.Context, userID string) (store.User, error) {
			if userID != "user-1" {
				return store.User{}, fmt.Errorf("get user: %w", sql.ErrNoRows)
			}
			return store.User{ID: "user-1", Email: "avery@x.com"}, nil
		},
		getTeamFn: func(_ context.Context, teamID string) (store.Team, error) {
			if teamID != "team-1" {
				return store.Team{}, fmt.Errorf("get team: %w", sql.ErrNoRows)
			}
			return store.Team{ID: "team-1", Email: "team@x.com"}, nil
		},
		getTeamMemberFn: func(_ context.Context, teamID, userID string) (store.TeamMember, error) {
			return store.TeamMember{TeamID: teamID, UserID: userID, Role: "MANAGER"}, nil
		},
	}
}

func TestResolvePrincipal(t *testing.T) {
	ctx := context.Background()

	t.Run("personal scope", func(t *testing.T) {
		p, err := ResolvePrincipal(ctx, newFakeDirectory(), "user-1", "")
		if err != nil {
			t.Fatalf("ResolvePrincipal() error = %v", err)
		}
		if p.InTeam() || p.UserEmail != "avery@x.com" {
			t.Fatalf("unexpected principal: %+v", p)
		}
	})

	t.Run("team scope", func(t *testing.T) {
		p, err := ResolvePrincipal(ctx, newFakeDirectory(), "user-1", "team-1")
		if err != nil {
			t.Fatalf("ResolvePrincipal() error = %v", err)
		}
		want := Principal{UserID: "user-1", UserEmail: "avery@x.com", TeamID: "team-1", TeamEmail: "team@x.com", Role: rbac.RoleManager}
		if p != want {
			t.Fatalf("ResolvePrincipal() = %+v, want %+v", p, want)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := ResolvePrincipal(ctx, newFakeDirectory(), "ghost", "")
		if !errors.Is(err, ErrUnknownUser) {
			t.Fatalf("error = %v, want ErrUnknownUser", err)
		}
	})

	t.Run("unknown team", func(t *testing.T) {
		_, err := ResolvePrincipal(ctx, newFakeDirectory(), "user-1", "team-404")
		if !errors.Is(err, ErrTeamNotFound) {
			t.Fatalf("error = %v, want ErrTeamNotFound", err)
		}
	})

	t.Run("not a member", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.getTeamMemberFn = func(context.Context, string, string) (store.TeamMember, error) {
			return store.TeamMember{}, fmt.Errorf("get team member: %w", sql.ErrNoRows)
		}
		_, err := ResolvePrincipal(ctx, dir, "user-1", "team-1")
		if !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("error = %v, want ErrNotAuthorized", err)
		}
	})

	t.Run("membership lookup is scoped to team and user", func(t *testing.T) {
		dir := newFakeDirectory()
		var gotTeam, gotUser string
		dir.getTeamMemberFn = func(_ context.Context, teamID, userID string) (store.TeamMember, error) {
			gotTeam, gotUser = teamID, userID
			return store.TeamMember{Role: "ADMIN"}, nil
		}
		if _, err := ResolvePrincipal(ctx, dir, "user-1", "team-1"); err != nil {
			t.Fatalf("ResolvePrincipal() error = %v", err)
		}
		if gotTeam != "team-1" || gotUser != "user-1" {
			t.Fatalf("membership looked up for (%q, %q)", gotTeam, gotUser)
		}
	})

	t.Run("store failure propagates", func(t *testing.T) {
		dir := newFakeDirectory()
		boom := errors.New("connection reset")
		dir.getTeamFn = func(context.Context, string) (store.Team, error) { return store.Team{}, boom }
		_, err := ResolvePrincipal(ctx, dir, "user-1", "team-1")
		if !errors.Is(err, boom) || errors.Is(err, ErrTeamNotFound) {
			t.Fatalf("error = %v, want wrapped store failure", err)
		}
	})
}
