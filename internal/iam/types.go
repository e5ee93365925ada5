package iam

import "encoding/json"

// Organization types. Primary organizations carry elevated standing in
// the access model; users of a primary organization act as admins.
const (
	OrgPrimary   = "primary"
	OrgSecondary = "secondary"
)

// RoleAdmin is the only derived authorization role. It is never stored;
// see User.Role.
const RoleAdmin = "admin"

// Organization represents an organization registered with IAM.
type Organization struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// IsZero reports whether the organization has a null identity, as is the
// case for the organization attached to an anonymous session user.
func (o *Organization) IsZero() bool {
	return o == nil || o.ID == ""
}

func (o *Organization) String() string {
	if o == nil {
		return ""
	}
	return o.Name
}

// ListItem returns the reduced projection used in listings.
func (o *Organization) ListItem() *ListItem {
	if o == nil {
		return nil
	}
	return &ListItem{ID: o.ID, Name: o.Name}
}

// Project represents a project owned by an organization. The
// organization is a back-reference, not ownership.
type Project struct {
	ID           string        `json:"id,omitempty"`
	Name         string        `json:"name,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
}

func (p *Project) String() string {
	if p == nil {
		return ""
	}
	return p.Name
}

// ListItem is a compact entity projection for list views.
type ListItem struct {
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name,omitempty"`
	Type         string    `json:"type,omitempty"`
	Organization *ListItem `json:"organization,omitempty"`
}

// MemberRecord is the compact membership projection persisted by the
// team store: the user id plus the membership annotations.
type MemberRecord struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Leader  bool   `json:"leader"`
	Contact bool   `json:"contact"`
}

// Member is a team membership entry: a snapshot copy of a user annotated
// with role, leader and contact flags. The annotations live on the copy,
// not on the canonical user.
type Member struct {
	User
	Role    string `json:"role,omitempty"`
	Leader  bool   `json:"leader,omitempty"`
	Contact bool   `json:"contact,omitempty"`
}

// Record returns the persisted projection of the member.
func (m *Member) Record() MemberRecord {
	return MemberRecord{ID: m.ID, Role: m.Role, Leader: m.Leader, Contact: m.Contact}
}

// placeholder members lack a resolved last name; they stay in the
// persisted collection but are hidden from listings and JSON.
func (m *Member) placeholder() bool {
	return m.LastName == ""
}

// MarshalJSON flattens the user snapshot and the membership annotations
// into a single object, including the computed full name.
func (m *Member) MarshalJSON() ([]byte, error) {
	type user User
	return json.Marshal(struct {
		user
		Name    string `json:"name,omitempty"`
		Role    string `json:"role,omitempty"`
		Leader  bool   `json:"leader,omitempty"`
		Contact bool   `json:"contact,omitempty"`
	}{user(m.User), m.FullName(), m.Role, m.Leader, m.Contact})
}
