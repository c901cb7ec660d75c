package core

import (
	"time"

	"github.com/google/uuid"
)

// Revision identifies one published catalog snapshot. Revisions are UUIDv7,
// so their string order is load order.
type Revision string

// NewRevision mints a revision, falling back to a random UUID when the v7
// generator fails
func NewRevision() Revision {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return Revision(u.String())
}

// Time reports when a v7 revision was minted; zero for anything else
func (r Revision) Time() time.Time {
	u, err := uuid.Parse(string(r))
	if err != nil || u.Version() != 7 {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}

func (r Revision) String() string { return string(r) }

func (r Revision) IsEmpty() bool { return r == "" }
