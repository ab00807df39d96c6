// Package domain holds typed identifiers shared across modules.
//
// Each identifier wraps a uuid.UUID so that a user ID cannot be passed where a
// verification session ID is expected. Parse functions are the trust boundary:
// they reject empty, malformed and nil UUIDs with CodeInvalidInput.
package domain

import (
	"github.com/google/uuid"

	dErrors "verimint/pkg/domain-errors"
)

type (
	// UserID identifies a dashboard member (profiles.id).
	UserID uuid.UUID
	// SessionID identifies one verification attempt.
	SessionID uuid.UUID
)

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session_id")
	return SessionID(u), err
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ShortUserID returns the first n characters of the canonical user ID string.
// Used for human-facing labels such as asset names.
func ShortUserID(id UserID, n int) string {
	s := id.String()
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}
