package league

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/model"
)

func total(id string, points int) model.PointsTotal {
	return model.PointsTotal{MemberID: id, MemberName: id, Total: points}
}

func pairs(b *model.Bracket) [][2]string {
	out := make([][2]string, 0, len(b.Pairings))
	for _, p := range b.Pairings {
		out = append(out, [2]string{p.Player1.MemberID, p.Player2.MemberID})
	}
	return out
}

func TestSeed_StandardBracket(t *testing.T) {
	totals := []model.PointsTotal{
		total("A", 300), total("B", 250), total("C", 250), total("D", 200),
		total("E", 180), total("F", 150), total("G", 100), total("H", 90),
	}

	b, err := Seed(totals, nil)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	want := [][2]string{{"A", "H"}, {"D", "E"}, {"C", "F"}, {"B", "G"}}
	if fmt.Sprint(pairs(b)) != fmt.Sprint(want) {
		t.Errorf("pairings = %v, want %v", pairs(b), want)
	}
	if b.Pairings[0].Seeds != [2]int{1, 8} || b.Pairings[3].Seeds != [2]int{2, 7} {
		t.Errorf("seeds = %v / %v", b.Pairings[0].Seeds, b.Pairings[3].Seeds)
	}
}

func TestSeed_InputOrderDoesNotMatter(t *testing.T) {
	totals := []model.PointsTotal{
		total("H", 90), total("C", 250), total("G", 100), total("A", 300),
		total("F", 150), total("B", 250), total("E", 180), total("D", 200),
	}

	b, err := Seed(totals, nil)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if got := fmt.Sprint(pairs(b)); got != "[[A H] [D E] [C F] [B G]]" {
		t.Errorf("pairings = %s", got)
	}
}

func TestSeed_TopEightOnly(t *testing.T) {
	var totals []model.PointsTotal
	for i := 0; i < 12; i++ {
		totals = append(totals, total(fmt.Sprintf("m%02d", i), 100-i))
	}

	b, err := Seed(totals, nil)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	for _, p := range b.Pairings {
		for _, id := range []string{p.Player1.MemberID, p.Player2.MemberID} {
			if id >= "m08" {
				t.Errorf("%s made the bracket but is seeded below 8", id)
			}
		}
	}
}

func TestSeed_FillsFromFallbackByID(t *testing.T) {
	totals := []model.PointsTotal{total("m5", 40), total("m9", 60)}
	fallback := []model.PointsTotal{
		total("m8", 0), total("m1", 0), total("m7", 0), total("m9", 0),
		total("m2", 0), total("m3", 0), total("m4", 0),
	}

	b, err := Seed(totals, fallback)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	// Seeds: m9, m5, then m1 m2 m3 m4 m7 m8.
	want := [][2]string{{"m9", "m8"}, {"m2", "m3"}, {"m1", "m4"}, {"m5", "m7"}}
	if fmt.Sprint(pairs(b)) != fmt.Sprint(want) {
		t.Errorf("pairings = %v, want %v", pairs(b), want)
	}
}

func TestSeed_InsufficientParticipants(t *testing.T) {
	totals := []model.PointsTotal{
		total("A", 50), total("B", 40), total("C", 30), total("D", 20), total("E", 10),
	}

	_, err := Seed(totals, nil)
	if !errors.Is(err, apperror.ErrInsufficientParticipants) {
		t.Fatalf("Seed() error = %v, want ErrInsufficientParticipants", err)
	}
}

// Every bracket has eight distinct players and seed 1 faces seed 8.
func TestSeedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(8, 20).Draw(rt, "n")
		totals := make([]model.PointsTotal, n)
		for i := range totals {
			totals[i] = total(fmt.Sprintf("m%02d", i), rapid.IntRange(0, 50).Draw(rt, "points"))
		}

		b, err := Seed(totals, nil)
		if err != nil {
			rt.Fatalf("Seed() error = %v", err)
		}

		seen := map[string]bool{}
		for _, p := range b.Pairings {
			for _, id := range []string{p.Player1.MemberID, p.Player2.MemberID} {
				if seen[id] {
					rt.Fatalf("%s appears twice", id)
				}
				seen[id] = true
			}
		}
		for _, tot := range totals {
			if !seen[tot.MemberID] && tot.Total > b.Pairings[0].Player2.Total {
				rt.Fatalf("%s (%d) left out while seed 8 has %d", tot.MemberID, tot.Total, b.Pairings[0].Player2.Total)
			}
		}

		again, _ := Seed(totals, nil)
		if fmt.Sprint(pairs(again)) != fmt.Sprint(pairs(b)) {
			rt.Fatalf("Seed() not deterministic")
		}
	})
}
