package iam

import (
	"encoding/json"
	"strings"
)

// User represents an IAM user. The organization is the user's home
// organization; Teams lists the teams the user belongs to.
type User struct {
	ID           string        `json:"id,omitempty"`
	FirstName    string        `json:"first_name,omitempty"`
	LastName     string        `json:"last_name,omitempty"`
	Gender       string        `json:"gender,omitempty"`
	Email        string        `json:"email,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
	Teams        []*Team       `json:"team,omitempty"`
}

// Username returns the login name, which is the e-mail address.
func (u *User) Username() string {
	if u == nil {
		return ""
	}
	return u.Email
}

// IsAnonymous reports whether the user is the guest placeholder bound to
// a session without a party.
func (u *User) IsAnonymous() bool {
	return u == nil || u.ID == ""
}

// Role derives the authorization role on demand: a user is an admin if
// and only if their home organization is primary. The role is never
// stored, so it cannot go stale when organization data changes.
func (u *User) Role() string {
	if u == nil || u.Organization == nil {
		return ""
	}
	if u.Organization.Type == OrgPrimary {
		return RoleAdmin
	}
	return ""
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role string) bool {
	return role != "" && u.Role() == role
}

// MayAccess reports whether the user may read the entity.
func (u *User) MayAccess(entity AccessControl, scope string) bool {
	return entity.DetermineAccess(u, scope).CanRead()
}

// MayModify reports whether the user may write the entity.
func (u *User) MayModify(entity AccessControl, scope string) bool {
	return entity.DetermineAccess(u, scope).CanWrite()
}

// FullName returns "First Last", skipping missing parts.
func (u *User) FullName() string {
	var parts []string
	if u.FirstName != "" {
		parts = append(parts, u.FirstName)
	}
	if u.LastName != "" {
		parts = append(parts, u.LastName)
	}
	return strings.Join(parts, " ")
}

// String renders the user as "Last, First".
func (u *User) String() string {
	if u == nil {
		return ""
	}
	var parts []string
	if u.LastName != "" {
		parts = append(parts, u.LastName)
	}
	if u.FirstName != "" {
		parts = append(parts, u.FirstName)
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON adds the computed full name as a "name" field.
func (u *User) MarshalJSON() ([]byte, error) {
	type user User
	return json.Marshal(struct {
		user
		Name string `json:"name,omitempty"`
	}{user(*u), u.FullName()})
}
