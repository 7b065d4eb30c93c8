// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the privilege level of a member. There are exactly two.
type Role int

const (
	RoleMember Role = iota
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole is the inverse of String. It accepts the legacy upper-case
// spellings ("USER", "ADMIN") as well.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member", "user":
		return RoleMember, nil
	case "admin":
		return RoleAdmin, nil
	}
	return RoleMember, fmt.Errorf("model: unknown role %q", s)
}

// CanManageLeague reports whether the role may record or delete matches,
// approve members, and trigger a season archive.
func (r Role) CanManageLeague() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleMember:
		return false
	}
	return false
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Stats are the league accumulators of one member for the current season.
// They are only ever changed by the scoring engine (match create/delete) and
// zeroed by the season archive.
type Stats struct {
	RankPoint int `json:"rankPoint"`
	Wins      int `json:"wins"`
	Losses    int `json:"losses"`
	Draws     int `json:"draws"`
	GameDiff  int `json:"gameDiff"`
}

// Add returns s with every field of d added to it.
func (s Stats) Add(d Stats) Stats {
	return Stats{
		RankPoint: s.RankPoint + d.RankPoint,
		Wins:      s.Wins + d.Wins,
		Losses:    s.Losses + d.Losses,
		Draws:     s.Draws + d.Draws,
		GameDiff:  s.GameDiff + d.GameDiff,
	}
}

// Negate flips the sign of every field.
func (s Stats) Negate() Stats {
	return Stats{
		RankPoint: -s.RankPoint,
		Wins:      -s.Wins,
		Losses:    -s.Losses,
		Draws:     -s.Draws,
		GameDiff:  -s.GameDiff,
	}
}

// Played is the number of matches counted in the accumulators.
func (s Stats) Played() int {
	return s.Wins + s.Losses + s.Draws
}

// Member is a registered club participant.
//
// Phone is the normalized identity key used to log in (digits only, unique).
// PINHash is never serialized.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	BirthYear string    `json:"birthYear,omitempty"`
	PINHash   string    `json:"-"`
	Role      Role      `json:"role"`
	Approved  bool      `json:"approved"`
	Active    bool      `json:"active"`
	// Stats is flattened into the JSON object.
	Stats
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ranked reports whether the member appears in the league table.
func (m *Member) Ranked() bool {
	return m.Approved && m.Active
}
