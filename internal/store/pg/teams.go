package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"legalthings.one/internal/audit"
	"legalthings.one/internal/iam"
)

const teamColumns = `id, name, type, organization, project, members, deleted`

// SaveTeam upserts a team document. The team type is immutable: an
// update never touches the type column. Members are persisted as the
// compact {id, role, leader, contact} projection, placeholders included.
func (s *Store) SaveTeam(ctx context.Context, t *iam.Team) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	if t == nil || t.ID == "" {
		return fmt.Errorf("%w: team id is required", iam.ErrInvalidInput)
	}
	if t.Organization == nil && t.Project == nil {
		return fmt.Errorf("%w: a team needs an organization or a project", iam.ErrInvalidInput)
	}

	orgJSON, err := marshalNullable(t.Organization)
	if err != nil {
		return err
	}
	projJSON, err := marshalNullable(t.Project)
	if err != nil {
		return err
	}
	membersJSON, err := json.Marshal(t.MemberRecords())
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		insert into teams (id, name, type, organization, project, members, deleted)
		values ($1, $2, $3, $4, $5, $6, $7)
		on conflict (id) do update
		set name = excluded.name,
		    organization = excluded.organization,
		    project = excluded.project,
		    members = excluded.members,
		    deleted = excluded.deleted,
		    updated_at = now()
	`, t.ID, t.Name, t.Type, orgJSON, projJSON, membersJSON, t.Deleted)
	if err != nil {
		return err
	}

	_ = audit.LogEvent(ctx, "team.save", map[string]any{"team_id": t.ID})
	return nil
}

// GetTeam loads a team by id; soft-deleted teams count as absent.
func (s *Store) GetTeam(ctx context.Context, id string) (*iam.Team, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `
		select `+teamColumns+`
		from teams
		where id = $1 and not deleted
	`, id)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, iam.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTeams returns all live teams ordered by name.
func (s *Store) ListTeams(ctx context.Context) ([]*iam.Team, error) {
	return s.queryTeams(ctx, `
		select `+teamColumns+`
		from teams
		where not deleted
		order by name
	`)
}

// SearchTeams finds live teams whose name contains the query,
// case-insensitively, ordered by name.
func (s *Store) SearchTeams(ctx context.Context, query string) ([]*iam.Team, error) {
	return s.queryTeams(ctx, `
		select `+teamColumns+`
		from teams
		where not deleted and name ilike '%' || $1 || '%'
		order by name
	`, query)
}

// TeamsForUser returns the live teams the given user is a member of.
func (s *Store) TeamsForUser(ctx context.Context, userID string) ([]*iam.Team, error) {
	// Containment on the id key alone; MemberRecord would also pin the
	// default role/leader/contact values.
	match, err := json.Marshal([]map[string]string{{"id": userID}})
	if err != nil {
		return nil, err
	}
	return s.queryTeams(ctx, `
		select `+teamColumns+`
		from teams
		where not deleted and members @> $1
		order by name
	`, match)
}

// DeleteTeam marks a team as deleted. The document stays in place.
func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `
		update teams set deleted = true, updated_at = now()
		where id = $1 and not deleted
	`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return iam.ErrNotFound
	}

	_ = audit.LogEvent(ctx, "team.delete", map[string]any{"team_id": id})
	return nil
}

func (s *Store) queryTeams(ctx context.Context, query string, args ...any) ([]*iam.Team, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*iam.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*iam.Team, error) {
	var (
		t          iam.Team
		orgRaw     []byte
		projRaw    []byte
		membersRaw []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Type, &orgRaw, &projRaw, &membersRaw, &t.Deleted); err != nil {
		return nil, err
	}
	if len(orgRaw) > 0 {
		t.Organization = &iam.Organization{}
		if err := json.Unmarshal(orgRaw, t.Organization); err != nil {
			return nil, fmt.Errorf("decode organization: %w", err)
		}
	}
	if len(projRaw) > 0 {
		t.Project = &iam.Project{}
		if err := json.Unmarshal(projRaw, t.Project); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
	}
	if len(membersRaw) > 0 {
		var records []iam.MemberRecord
		if err := json.Unmarshal(membersRaw, &records); err != nil {
			return nil, fmt.Errorf("decode members: %w", err)
		}
		t.RestoreMembers(records)
	}
	return &t, nil
}

// marshalNullable returns nil for a nil entity so the column ends up
// NULL rather than the JSON literal "null".
func marshalNullable(v any) (any, error) {
	switch e := v.(type) {
	case *iam.Organization:
		if e == nil {
			return nil, nil
		}
	case *iam.Project:
		if e == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
