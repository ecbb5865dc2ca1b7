package uuid

import (
	"github.com/google/uuid"
)

// UUID is the domain identifier type, stored in its canonical string form.
type UUID string

// NewUUID generates a random (v4) identifier.
func NewUUID() UUID {
	return UUID(uuid.New().String())
}

// ParseUUID validates s and returns it in canonical lower-case form.
func ParseUUID(s string) (UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return UUID(parsed.String()), nil
}

// MustParseUUID is like ParseUUID but panics on invalid input.
// Intended for tests and constants.
func MustParseUUID(s string) UUID {
	id, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (u UUID) String() string {
	return string(u)
}

// IsZero reports whether the identifier is unset.
func (u UUID) IsZero() bool {
	return u == ""
}
