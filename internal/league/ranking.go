package league

import (
	"sort"

	"github.com/sakif/club-league/internal/model"
)

// Rank returns the league table: approved, active members ordered by
// rank points, then game differential, then wins, all descending.
//
// The sort is stable, so members tied on all three keys keep the order they
// arrived in. The repository lists members by id, which makes repeated calls
// agree with each other. The input slice is not modified.
func Rank(members []model.Member) []model.Member {
	table := make([]model.Member, 0, len(members))
	for _, m := range members {
		if m.Ranked() {
			table = append(table, m)
		}
	}

	sort.SliceStable(table, func(i, j int) bool {
		return Less(table[j].Stats, table[i].Stats)
	})
	return table
}

// Less reports whether a ranks strictly below b on the
// (rank points, game differential, wins) key.
func Less(a, b model.Stats) bool {
	if a.RankPoint != b.RankPoint {
		return a.RankPoint < b.RankPoint
	}
	if a.GameDiff != b.GameDiff {
		return a.GameDiff < b.GameDiff
	}
	return a.Wins < b.Wins
}
