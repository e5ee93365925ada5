package iam

import "context"

// TeamStore describes persistence operations for team documents.
type TeamStore interface {
	SaveTeam(ctx context.Context, t *Team) error
	GetTeam(ctx context.Context, id string) (*Team, error)
	ListTeams(ctx context.Context) ([]*Team, error)
	SearchTeams(ctx context.Context, query string) ([]*Team, error)
	TeamsForUser(ctx context.Context, userID string) ([]*Team, error)
	DeleteTeam(ctx context.Context, id string) error
}
