// Package league holds the pure league arithmetic: the per-match stat deltas,
// the ranking order, and the tournament seeding. Nothing in here touches
// storage; the repository applies the deltas inside its transactions.
package league

import "github.com/sakif/club-league/internal/model"

// Points awarded per match outcome.
const (
	WinPoints  = 3
	DrawPoints = 1
	LossPoints = 0
)

// Outcome is the branch a final score falls into.
type Outcome int

const (
	TeamAWins Outcome = iota
	TeamBWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case TeamAWins:
		return "team_a"
	case TeamBWins:
		return "team_b"
	case Draw:
		return "draw"
	}
	return "unknown"
}

// Decide classifies a final score.
func Decide(scoreA, scoreB int) Outcome {
	switch {
	case scoreA > scoreB:
		return TeamAWins
	case scoreA < scoreB:
		return TeamBWins
	default:
		return Draw
	}
}

// Score computes the stat change each player receives when a match with the
// given final score is recorded. Both members of a team get the same delta.
//
// The game differential always nets to zero across the four players: team A
// gets scoreA-scoreB, team B gets the negation.
func Score(scoreA, scoreB int) model.MatchDelta {
	diff := scoreA - scoreB
	d := model.MatchDelta{
		TeamA: model.Stats{GameDiff: diff},
		TeamB: model.Stats{GameDiff: -diff},
	}

	switch Decide(scoreA, scoreB) {
	case TeamAWins:
		d.TeamA.RankPoint += WinPoints
		d.TeamA.Wins++
		d.TeamB.RankPoint += LossPoints
		d.TeamB.Losses++
	case TeamBWins:
		d.TeamB.RankPoint += WinPoints
		d.TeamB.Wins++
		d.TeamA.RankPoint += LossPoints
		d.TeamA.Losses++
	case Draw:
		d.TeamA.RankPoint += DrawPoints
		d.TeamA.Draws++
		d.TeamB.RankPoint += DrawPoints
		d.TeamB.Draws++
	}
	return d
}

// Reverse is the exact inverse of Score for a stored match. It recomputes the
// branch from the persisted scores, so it undoes what Score applied as long as
// the scores were not edited in between (they never are).
func Reverse(m model.Match) model.MatchDelta {
	d := Score(m.ScoreA, m.ScoreB)
	return model.MatchDelta{
		TeamA: d.TeamA.Negate(),
		TeamB: d.TeamB.Negate(),
	}
}

// ForMatch is Score applied to a match value. It has the same shape as
// Reverse so either can be handed to the repository.
func ForMatch(m model.Match) model.MatchDelta {
	return Score(m.ScoreA, m.ScoreB)
}
