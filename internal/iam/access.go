package iam

// AccessLevel is the outcome of an access decision.
type AccessLevel int

const (
	// NoAccess denies both reading and writing.
	NoAccess AccessLevel = iota

	// ReadAccess allows reading only.
	ReadAccess

	// ReadWriteAccess allows reading and writing.
	ReadWriteAccess
)

// String renders the level in the wire notation: "", "r" or "rw".
func (a AccessLevel) String() string {
	switch a {
	case ReadAccess:
		return "r"
	case ReadWriteAccess:
		return "rw"
	default:
		return ""
	}
}

// CanRead reports whether the level allows reading.
func (a AccessLevel) CanRead() bool {
	return a == ReadAccess || a == ReadWriteAccess
}

// CanWrite reports whether the level allows writing.
func (a AccessLevel) CanWrite() bool {
	return a == ReadWriteAccess
}

// ParseAccessLevel parses the wire notation; anything unknown maps to
// NoAccess.
func ParseAccessLevel(s string) AccessLevel {
	switch s {
	case "r":
		return ReadAccess
	case "rw":
		return ReadWriteAccess
	default:
		return NoAccess
	}
}

// AccessControl is implemented by protected entities that can decide
// what a requesting user may do with them. The scope optionally narrows
// the check to a sub-resource; it is not further structured here.
type AccessControl interface {
	DetermineAccess(user *User, scope string) AccessLevel
}

var _ AccessControl = (*Team)(nil)

// DetermineAccess computes the user's access to the team. First match
// wins: no user means no access; admins and members of the owning
// organization may read and write; everyone else may read teams of a
// primary organization and nothing else.
func (t *Team) DetermineAccess(user *User, scope string) AccessLevel {
	if user == nil {
		return NoAccess
	}
	if user.HasRole(RoleAdmin) {
		return ReadWriteAccess
	}
	org := t.OwningOrganization()
	if org == nil {
		return NoAccess
	}
	if user.Organization != nil && user.Organization.ID == org.ID {
		return ReadWriteAccess
	}
	if org.Type == OrgPrimary {
		return ReadAccess
	}
	return NoAccess
}
