package model

import (
	"fmt"
	"time"
)

// Period identifies one season: a calendar month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// PeriodOf returns the period containing t (in t's location).
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// HistorySnapshot is a member's accumulated stats at the end of a season.
// Immutable once written; at most one per (member, period).
//
// MemberID is empty when the member has since been permanently removed;
// MemberName keeps the row readable in that case.
type HistorySnapshot struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"memberId"`
	MemberName  string    `json:"memberName"`
	Period      Period    `json:"period"`
	TotalPoints int       `json:"totalPoints"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	GameDiff    int       `json:"gameDiff"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// PurgePolicy decides what happens to soft-deleted members during the
// season archive.
type PurgePolicy int

const (
	// PurgeWithoutArchive deletes inactive members and drops their
	// final-season stats.
	PurgeWithoutArchive PurgePolicy = iota
	// ArchiveThenPurge snapshots inactive members before deleting them.
	ArchiveThenPurge
)

func (p PurgePolicy) String() string {
	switch p {
	case PurgeWithoutArchive:
		return "delete"
	case ArchiveThenPurge:
		return "archive"
	}
	return fmt.Sprintf("purge(%d)", int(p))
}

// ParsePurgePolicy accepts the config spellings "delete" and "archive".
func ParsePurgePolicy(s string) (PurgePolicy, error) {
	switch s {
	case "", "delete":
		return PurgeWithoutArchive, nil
	case "archive":
		return ArchiveThenPurge, nil
	}
	return PurgeWithoutArchive, fmt.Errorf("model: unknown purge policy %q", s)
}

// ArchiveResult summarizes one season archive sweep.
type ArchiveResult struct {
	Period          Period `json:"period"`
	Snapshots       int    `json:"snapshots"`
	Reset           int    `json:"reset"`
	Purged          int    `json:"purged"`
	AlreadyArchived int    `json:"alreadyArchived"`
}

// PointsTotal is one member's history points summed over all seasons.
type PointsTotal struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
	Total      int    `json:"total"`
}

// Pairing is one quarter-final of the tournament bracket.
type Pairing struct {
	Round   string      `json:"round"`
	Seeds   [2]int      `json:"seeds"`
	Player1 PointsTotal `json:"player1"`
	Player2 PointsTotal `json:"player2"`
}

// Bracket is the four quarter-final pairings in bracket order.
type Bracket struct {
	Pairings [4]Pairing `json:"pairings"`
}
