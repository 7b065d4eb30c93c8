package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/league"
	"github.com/sakif/club-league/internal/metrics"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

// LeagueService records and removes matches and serves the league table.
// It is the only caller that hands scoring deltas to the repository.
type LeagueService struct {
	members repository.MemberRepository
	matches repository.MatchRepository
	metrics metrics.Metrics
	logger  *slog.Logger
}

func NewLeagueService(
	members repository.MemberRepository,
	matches repository.MatchRepository,
	m metrics.Metrics,
	logger *slog.Logger,
) *LeagueService {
	return &LeagueService{
		members: members,
		matches: matches,
		metrics: m,
		logger:  logger,
	}
}

// MatchInput is a doubles result as entered by an admin.
type MatchInput struct {
	TeamAPlayer1 string
	TeamAPlayer2 string
	TeamBPlayer1 string
	TeamBPlayer2 string
	ScoreA       int
	ScoreB       int
}

// CreateMatch records a match and applies its result to the four players
// in one transaction. An unknown or withdrawn player is a NotFound and
// nothing is written.
func (s *LeagueService) CreateMatch(ctx context.Context, p auth.Principal, in MatchInput) (*model.Match, error) {
	if err := requireAdmin(p, "record matches"); err != nil {
		return nil, err
	}

	m := &model.Match{
		TeamAPlayer1: strings.TrimSpace(in.TeamAPlayer1),
		TeamAPlayer2: strings.TrimSpace(in.TeamAPlayer2),
		TeamBPlayer1: strings.TrimSpace(in.TeamBPlayer1),
		TeamBPlayer2: strings.TrimSpace(in.TeamBPlayer2),
		ScoreA:       in.ScoreA,
		ScoreB:       in.ScoreB,
	}
	if err := validateMatch(m); err != nil {
		return nil, err
	}

	if err := s.matches.CreateMatch(ctx, m, league.ForMatch(*m)); err != nil {
		return nil, err
	}
	s.metrics.IncMatchesRecorded()

	s.logger.Info("match recorded",
		slog.String("id", m.ID),
		slog.Int("scoreA", m.ScoreA),
		slog.Int("scoreB", m.ScoreB),
		slog.String("outcome", league.Decide(m.ScoreA, m.ScoreB).String()),
	)
	return m, nil
}

func validateMatch(m *model.Match) error {
	fields := [4]string{"teamAPlayer1", "teamAPlayer2", "teamBPlayer1", "teamBPlayer2"}
	seen := make(map[string]bool, 4)
	for i, id := range m.Players() {
		if id == "" {
			return apperror.ValidationFailed(fields[i], "all four players are required")
		}
		if seen[id] {
			return apperror.ValidationFailed(fields[i], "a member may appear only once in a match")
		}
		seen[id] = true
	}
	if m.ScoreA < 0 {
		return apperror.ValidationFailed("scoreA", "score must not be negative")
	}
	if m.ScoreB < 0 {
		return apperror.ValidationFailed("scoreB", "score must not be negative")
	}
	return nil
}

// DeleteMatch removes a match and reverses its effect on the players that
// still exist. Permission is checked before the match is looked up, so a
// non-admin never learns whether an id exists.
func (s *LeagueService) DeleteMatch(ctx context.Context, p auth.Principal, id string) error {
	if err := requireAdmin(p, "delete matches"); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "match ID is required")
	}

	m, err := s.matches.DeleteMatch(ctx, id, league.Reverse)
	if err != nil {
		return err
	}
	s.metrics.IncMatchesDeleted()

	s.logger.Info("match deleted", slog.String("id", m.ID), slog.String("by", p.MemberID))
	return nil
}

// ListMatches returns matches newest first with player names resolved.
func (s *LeagueService) ListMatches(ctx context.Context, limit, offset int) ([]model.MatchSummary, error) {
	matches, err := s.matches.ListMatches(ctx, page(limit, offset))
	if err != nil {
		s.logger.Error("failed to list matches", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	return matches, nil
}

// Rankings is the current league table: approved, active members ordered
// by rank points, then game differential, then wins.
func (s *LeagueService) Rankings(ctx context.Context) ([]model.Member, error) {
	members, err := s.members.ListRankable(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rankable members: %w", err)
	}
	return league.Rank(members), nil
}
