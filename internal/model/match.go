package model

import "time"

// Match is one recorded doubles contest. The four member references must be
// distinct. A reference becomes empty once the member is permanently removed
// by the season archive.
type Match struct {
	ID           string    `json:"id"`
	TeamAPlayer1 string    `json:"teamAPlayer1"`
	TeamAPlayer2 string    `json:"teamAPlayer2"`
	TeamBPlayer1 string    `json:"teamBPlayer1"`
	TeamBPlayer2 string    `json:"teamBPlayer2"`
	ScoreA       int       `json:"scoreA"`
	ScoreB       int       `json:"scoreB"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TeamA returns the member ids of team A.
func (m *Match) TeamA() [2]string {
	return [2]string{m.TeamAPlayer1, m.TeamAPlayer2}
}

// TeamB returns the member ids of team B.
func (m *Match) TeamB() [2]string {
	return [2]string{m.TeamBPlayer1, m.TeamBPlayer2}
}

// Players returns all four member ids, team A first.
func (m *Match) Players() [4]string {
	return [4]string{m.TeamAPlayer1, m.TeamAPlayer2, m.TeamBPlayer1, m.TeamBPlayer2}
}

// MatchDelta is the per-player stat change for one match: both members of a
// team receive the same delta.
type MatchDelta struct {
	TeamA Stats
	TeamB Stats
}

// MatchSummary is a match with player names resolved for display.
// A removed member shows up with an empty name.
type MatchSummary struct {
	Match
	TeamANames [2]string `json:"teamANames"`
	TeamBNames [2]string `json:"teamBNames"`
}
