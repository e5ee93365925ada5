package iam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"legalthings.one/internal/ids"
)

// Team types. Immutable after creation.
const (
	TeamPrimary   = "primary"
	TeamSecondary = "secondary"
)

// TeamParent is the entity a team hangs off: an organization or a
// project, never both.
type TeamParent interface {
	isTeamParent()
}

func (*Organization) isTeamParent() {}
func (*Project) isTeamParent()      {}

// Team is a group of users parented by exactly one organization or
// project.
type Team struct {
	ID           string        `json:"id,omitempty"`
	Name         string        `json:"name,omitempty"`
	Type         string        `json:"type,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
	Project      *Project      `json:"project,omitempty"`
	Members      []*Member     `json:"users,omitempty"`
	Deleted      bool          `json:"-"`
}

// NewTeam constructs a team of the default (primary) type under the
// given parent. Exactly one of organization/project ends up set.
func NewTeam(name string, parent TeamParent) (*Team, error) {
	t := &Team{ID: ids.New(), Name: name, Type: TeamPrimary}
	switch p := parent.(type) {
	case *Organization:
		if p != nil {
			t.Organization = p
		}
	case *Project:
		if p != nil {
			t.Project = p
		}
	}
	if t.Organization == nil && t.Project == nil {
		return nil, fmt.Errorf("%w: a team needs an organization or a project", ErrInvalidInput)
	}
	return t, nil
}

func (t *Team) String() string {
	return t.Name
}

// OwningOrganization resolves the organization the team ultimately
// belongs to, following the project back-reference when the team is
// project-parented. Returns nil when nothing resolves.
func (t *Team) OwningOrganization() *Organization {
	if t.Organization != nil {
		return t.Organization
	}
	if t.Project != nil {
		return t.Project.Organization
	}
	return nil
}

// Users returns the visible members in collection order. Placeholder
// members without a resolved last name are excluded.
func (t *Team) Users() []*Member {
	members := make([]*Member, 0, len(t.Members))
	for _, m := range t.Members {
		if m.placeholder() {
			continue
		}
		members = append(members, m)
	}
	return members
}

// GetUser finds a visible member by user id.
func (t *Team) GetUser(id string) *Member {
	for _, m := range t.Users() {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// AddUser adds a user to the team and returns the membership entry. If
// the user is already a member the existing entry is returned unchanged.
// The member holds a snapshot of the user, not a live reference.
func (t *Team) AddUser(u *User) *Member {
	if u == nil {
		return nil
	}
	for _, m := range t.Members {
		if m.ID == u.ID {
			return m
		}
	}
	member := &Member{User: *u}
	t.Members = append(t.Members, member)
	return member
}

// RemoveUser removes the first member with the given user id. No-op if
// the user is not a member.
func (t *Team) RemoveUser(id string) {
	for i, m := range t.Members {
		if m.ID == id {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return
		}
	}
}

// MemberRecords returns the compact membership projection that gets
// persisted. Placeholder members are included here even though they are
// hidden from listings and JSON.
func (t *Team) MemberRecords() []MemberRecord {
	records := make([]MemberRecord, 0, len(t.Members))
	for _, m := range t.Members {
		records = append(records, m.Record())
	}
	return records
}

// RestoreMembers rebuilds the member collection from persisted records.
// The entries are placeholders until hydrated against IAM.
func (t *Team) RestoreMembers(records []MemberRecord) {
	t.Members = make([]*Member, 0, len(records))
	for _, rec := range records {
		t.Members = append(t.Members, &Member{
			User:    User{ID: rec.ID},
			Role:    rec.Role,
			Leader:  rec.Leader,
			Contact: rec.Contact,
		})
	}
}

// UserSource resolves user ids into full users; the remote IAM client
// implements it.
type UserSource interface {
	GetUser(ctx context.Context, id string) (*User, error)
}

// HydrateMembers resolves placeholder members into full user snapshots.
// Members that IAM no longer knows stay placeholders.
func (t *Team) HydrateMembers(ctx context.Context, src UserSource) error {
	for _, m := range t.Members {
		if !m.placeholder() {
			continue
		}
		u, err := src.GetUser(ctx, m.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		m.User = *u
	}
	return nil
}

// ListItem returns the reduced projection used in listings.
func (t *Team) ListItem() *ListItem {
	item := &ListItem{ID: t.ID, Name: t.Name, Type: t.Type}
	if org := t.OwningOrganization(); org != nil {
		item.Organization = org.ListItem()
	}
	return item
}

// MarshalJSON omits the unset parent and any placeholder members.
func (t *Team) MarshalJSON() ([]byte, error) {
	type team Team
	out := team(*t)
	out.Members = t.Users()
	if len(out.Members) == 0 {
		out.Members = nil
	}
	return json.Marshal(out)
}
