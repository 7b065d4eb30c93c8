package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/metrics"
	"github.com/sakif/club-league/internal/model"
)

func newTestSeasonService(t *testing.T, retries uint64) (*SeasonService, *fakeStore, *metrics.Mock) {
	t.Helper()
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatal(err)
	}
	store := newFakeStore()
	m := metrics.NewMock()
	svc := NewSeasonService(store, SeasonOptions{
		Location:   seoul,
		Policy:     model.PurgeWithoutArchive,
		MaxRetries: retries,
		RetryBase:  time.Millisecond,
	}, m, testLogger)
	// 2026-10-31 15:00 UTC is already November in Seoul.
	svc.now = func() time.Time { return time.Date(2026, time.October, 31, 15, 0, 0, 0, time.UTC) }
	return svc, store, m
}

func TestCurrentPeriod_UsesClubTimezone(t *testing.T) {
	svc, _, _ := newTestSeasonService(t, 0)

	if got, want := svc.CurrentPeriod(), (model.Period{Year: 2026, Month: 11}); got != want {
		t.Errorf("CurrentPeriod() = %v, want %v", got, want)
	}
}

func TestRunArchive_Success(t *testing.T) {
	svc, store, m := newTestSeasonService(t, 3)
	store.addMember("m1", "One", model.Stats{RankPoint: 150, Wins: 10, Losses: 2, GameDiff: 34})
	store.addMember("m2", "Two", model.Stats{})
	store.members["m2"].Active = false

	res, err := svc.RunArchive(context.Background())
	if err != nil {
		t.Fatalf("RunArchive() error = %v", err)
	}
	if res.Snapshots != 1 || res.Purged != 1 {
		t.Errorf("result = %+v, want 1 snapshot and 1 purge", res)
	}
	if got := store.stats("m1"); got != (model.Stats{}) {
		t.Errorf("stats not reset: %+v", got)
	}

	ok, failed := m.ArchiveRuns()
	if ok != 1 || failed != 0 {
		t.Errorf("ArchiveRuns = (%d, %d), want (1, 0)", ok, failed)
	}
	if m.ArchiveRetries() != 0 {
		t.Errorf("ArchiveRetries = %d, want 0", m.ArchiveRetries())
	}
}

func TestRunArchive_RetriesTransientFailure(t *testing.T) {
	svc, store, m := newTestSeasonService(t, 3)
	busy := apperror.Transient("archiving season", errors.New("database is locked"))
	store.archiveErrs = []error{busy, busy}

	if _, err := svc.RunArchive(context.Background()); err != nil {
		t.Fatalf("RunArchive() error = %v", err)
	}
	if store.archiveCalls != 3 {
		t.Errorf("archive attempts = %d, want 3", store.archiveCalls)
	}
	if m.ArchiveRetries() != 2 {
		t.Errorf("ArchiveRetries = %d, want 2", m.ArchiveRetries())
	}
}

func TestRunArchive_GivesUpAfterMaxRetries(t *testing.T) {
	svc, store, m := newTestSeasonService(t, 2)
	busy := apperror.Transient("archiving season", errors.New("database is locked"))
	store.archiveErrs = []error{busy, busy, busy, busy}

	_, err := svc.RunArchive(context.Background())
	if !apperror.IsTransient(err) {
		t.Fatalf("error = %v, want a transient failure", err)
	}
	if store.archiveCalls != 3 {
		t.Errorf("archive attempts = %d, want 3 (1 + 2 retries)", store.archiveCalls)
	}
	if _, failed := m.ArchiveRuns(); failed != 1 {
		t.Errorf("failed runs = %d, want 1", failed)
	}
}

func TestRunArchive_PermanentFailureNotRetried(t *testing.T) {
	svc, store, _ := newTestSeasonService(t, 5)
	store.archiveErrs = []error{fmt.Errorf("sqlite: archiving season: constraint failed")}

	_, err := svc.RunArchive(context.Background())
	if err == nil {
		t.Fatal("RunArchive() should fail")
	}
	if apperror.IsTransient(err) {
		t.Errorf("error = %v, should not be transient", err)
	}
	if store.archiveCalls != 1 {
		t.Errorf("archive attempts = %d, want 1", store.archiveCalls)
	}
}

func TestRunArchive_SecondRunSamePeriodIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestSeasonService(t, 0)
	store.addMember("m1", "One", model.Stats{})

	if _, err := svc.RunArchive(ctx); err != nil {
		t.Fatal(err)
	}
	res, err := svc.RunArchive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Snapshots != 0 || res.AlreadyArchived != 1 {
		t.Errorf("second run = %+v, want nothing written", res)
	}
}

func TestHistory_ValidatesPeriod(t *testing.T) {
	svc, _, _ := newTestSeasonService(t, 0)

	_, err := svc.History(context.Background(), model.Period{Year: 2026, Month: 13})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// TOURNAMENT
// =========================================================================

func TestGenerateBracket(t *testing.T) {
	store := newFakeStore()
	for i, pts := range []int{300, 250, 250, 200, 180, 150, 100, 90} {
		id := string(rune('A' + i))
		store.totals = append(store.totals, model.PointsTotal{MemberID: id, MemberName: id, Total: pts})
	}
	svc := NewTournamentService(store, testLogger)

	b, err := svc.GenerateBracket(context.Background())
	if err != nil {
		t.Fatalf("GenerateBracket() error = %v", err)
	}

	want := [4][2]string{{"A", "H"}, {"D", "E"}, {"C", "F"}, {"B", "G"}}
	for i, p := range b.Pairings {
		got := [2]string{p.Player1.MemberID, p.Player2.MemberID}
		if got != want[i] {
			t.Errorf("pairing %d = %v, want %v", i, got, want[i])
		}
	}
}

func TestGenerateBracket_InsufficientParticipants(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 5; i++ {
		id := string(rune('A' + i))
		store.totals = append(store.totals, model.PointsTotal{MemberID: id, Total: 10 * (5 - i)})
	}
	svc := NewTournamentService(store, testLogger)

	_, err := svc.GenerateBracket(context.Background())
	if !errors.Is(err, apperror.ErrInsufficientParticipants) {
		t.Errorf("error = %v, want ErrInsufficientParticipants", err)
	}
}

func TestGenerateBracket_FillsWithUnarchivedMembers(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 6; i++ {
		id := string(rune('A' + i))
		store.totals = append(store.totals, model.PointsTotal{MemberID: id, Total: 100 - i})
	}
	store.noHistory = []model.PointsTotal{{MemberID: "X"}, {MemberID: "Y"}, {MemberID: "Z"}}
	svc := NewTournamentService(store, testLogger)

	b, err := svc.GenerateBracket(context.Background())
	if err != nil {
		t.Fatalf("GenerateBracket() error = %v", err)
	}
	// Seeds 7 and 8 are X and Y; Z is left out.
	if b.Pairings[0].Player2.MemberID != "Y" || b.Pairings[3].Player2.MemberID != "X" {
		t.Errorf("pairings = %+v", b.Pairings)
	}
}
