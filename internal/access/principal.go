// Package access resolves who is asking and turns that into row-level
// predicates. Everything here is a pure function of the Principal except
// ResolvePrincipal, which reads the directory.
package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recordhub/api/internal/rbac"
	"recordhub/api/internal/store"
)

var (
	ErrUnknownUser   = errors.New("unknown user")
	ErrTeamNotFound  = errors.New("team not found")
	ErrNotAuthorized = errors.New("not a member of team")
)

// Principal is the caller plus an optional team context. TeamID is empty for
// personal scope.
type Principal struct {
	UserID    string
	UserEmail string
	TeamID    string
	TeamEmail string
	Role      rbac.Role
}

func (p Principal) InTeam() bool {
	return p.TeamID != ""
}

type Directory interface {
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	GetTeam(ctx context.Context, teamID string) (store.Team, error)
	GetTeamMember(ctx context.Context, teamID, userID string) (store.TeamMember, error)
}

// ResolvePrincipal loads the caller and, when teamID is set, the team and the
// caller's membership in it.
func ResolvePrincipal(ctx context.Context, dir Directory, userID, teamID string) (Principal, error) {
	user, err := dir.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Principal{}, ErrUnknownUser
	}
	if err != nil {
		return Principal{}, fmt.Errorf("resolve principal: %w", err)
	}
	principal := Principal{UserID: user.ID, UserEmail: user.Email}
	if teamID == "" {
		return principal, nil
	}

	team, err := dir.GetTeam(ctx, teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return Principal{}, ErrTeamNotFound
	}
	if err != nil {
		return Principal{}, fmt.Errorf("resolve principal: %w", err)
	}
	member, err := dir.GetTeamMember(ctx, team.ID, user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return Principal{}, ErrNotAuthorized
	}
	if err != nil {
		return Principal{}, fmt.Errorf("resolve principal: %w", err)
	}

	principal.TeamID = team.ID
	principal.TeamEmail = team.Email
	principal.Role = rbac.Normalize(member.Role)
	return principal, nil
}
