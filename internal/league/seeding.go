package league

import (
	"sort"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/model"
)

// BracketSize is the number of seeded players in the tournament.
const BracketSize = 8

// pairingSeeds lists the quarter-finals by 1-indexed seed. Winners of the
// first two meet in one semi-final and winners of the last two in the other,
// which keeps seeds 1 and 2 apart until the final.
var pairingSeeds = [4][2]int{
	{1, 8},
	{4, 5},
	{3, 6},
	{2, 7},
}

// Seed orders the tournament field and builds the four quarter-final pairings.
//
// totals are members' summed history points; the highest totals take the top
// seeds, ties broken by ascending member id. If fewer than eight members have
// history, the remaining seeds go to fallback members (those without history)
// in ascending id order. Members in fallback that also appear in totals are
// skipped.
func Seed(totals []model.PointsTotal, fallback []model.PointsTotal) (*model.Bracket, error) {
	ranked := make([]model.PointsTotal, len(totals))
	copy(ranked, totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].MemberID < ranked[j].MemberID
	})

	field := make([]model.PointsTotal, 0, BracketSize)
	seen := make(map[string]struct{}, BracketSize)
	for _, t := range ranked {
		if len(field) == BracketSize {
			break
		}
		if _, dup := seen[t.MemberID]; dup {
			continue
		}
		seen[t.MemberID] = struct{}{}
		field = append(field, t)
	}

	if len(field) < BracketSize {
		rest := make([]model.PointsTotal, 0, len(fallback))
		for _, f := range fallback {
			if _, ok := seen[f.MemberID]; !ok {
				rest = append(rest, f)
			}
		}
		sort.SliceStable(rest, func(i, j int) bool {
			return rest[i].MemberID < rest[j].MemberID
		})
		for _, f := range rest {
			if len(field) == BracketSize {
				break
			}
			if _, dup := seen[f.MemberID]; dup {
				continue
			}
			seen[f.MemberID] = struct{}{}
			field = append(field, f)
		}
	}

	if len(field) < BracketSize {
		return nil, apperror.InsufficientParticipants(len(field), BracketSize)
	}

	var b model.Bracket
	for i, seeds := range pairingSeeds {
		b.Pairings[i] = model.Pairing{
			Round:   "quarterfinal",
			Seeds:   seeds,
			Player1: field[seeds[0]-1],
			Player2: field[seeds[1]-1],
		}
	}
	return &b, nil
}
