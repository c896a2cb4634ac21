package domain

import "github.com/google/uuid"

// Session is the authenticated principal for one login. It carries no state
// beyond a read reference to the account's identity and role; it holds no
// lock and dies when the caller logs out. The ID is a correlation handle for
// log events.
type Session struct {
	ID        uuid.UUID
	AccountID string
	Role      Role
	Name      string
}

func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
