package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/league"
	"github.com/sakif/club-league/internal/metrics"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

// SeasonOptions configures the month-end archive.
type SeasonOptions struct {
	// Location decides which calendar month "now" belongs to.
	Location   *time.Location
	Policy     model.PurgePolicy
	MaxRetries uint64
	RetryBase  time.Duration
}

// SeasonService closes a season: snapshot, reset and purge in one sweep.
type SeasonService struct {
	seasons repository.SeasonRepository
	opts    SeasonOptions
	metrics metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewSeasonService(seasons repository.SeasonRepository, opts SeasonOptions, m metrics.Metrics, logger *slog.Logger) *SeasonService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 200 * time.Millisecond
	}
	return &SeasonService{
		seasons: seasons,
		opts:    opts,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// CurrentPeriod is the calendar month of now in the club's timezone.
func (s *SeasonService) CurrentPeriod() model.Period {
	return model.PeriodOf(s.now().In(s.opts.Location))
}

// RunArchive archives the current period. The whole sweep is one
// transaction; when it fails with a transient storage error it is retried
// from the start with exponential backoff. Any other error, or running out
// of retries, leaves the database as it was.
func (s *SeasonService) RunArchive(ctx context.Context) (*model.ArchiveResult, error) {
	period := s.CurrentPeriod()
	start := time.Now()
	log := s.logger.With(slog.String("period", period.String()), slog.String("policy", s.opts.Policy.String()))

	backoff := retry.WithMaxRetries(s.opts.MaxRetries,
		retry.WithJitterPercent(20, retry.NewExponential(s.opts.RetryBase)))

	var (
		result   *model.ArchiveResult
		attempts int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			s.metrics.IncArchiveRetries()
		}

		r, err := s.seasons.ArchiveSeason(ctx, period, s.opts.Policy)
		if err != nil {
			if apperror.IsTransient(err) {
				log.Warn("season archive attempt failed, will retry",
					slog.Int("attempt", attempts),
					slog.String("error", err.Error()),
				)
				return retry.RetryableError(err)
			}
			return err
		}
		result = r
		return nil
	})
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObserveArchive(false, elapsed, 0, 0)
		log.Error("season archive failed",
			slog.Int("attempts", attempts),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("archiving season %s after %d attempt(s): %w", period, attempts, err)
	}

	s.metrics.ObserveArchive(true, elapsed, result.Snapshots, result.Purged)
	log.Info("season archived",
		slog.Int("snapshots", result.Snapshots),
		slog.Int("reset", result.Reset),
		slog.Int("purged", result.Purged),
		slog.Int("alreadyArchived", result.AlreadyArchived),
		slog.Duration("duration", elapsed),
	)
	return result, nil
}

// History returns the snapshots written for period.
func (s *SeasonService) History(ctx context.Context, period model.Period) ([]model.HistorySnapshot, error) {
	if period.Month < 1 || period.Month > 12 {
		return nil, apperror.ValidationFailed("month", "month must be between 1 and 12")
	}
	if period.Year < 2000 || period.Year > 9999 {
		return nil, apperror.ValidationFailed("year", "year out of range")
	}
	return s.seasons.ListHistory(ctx, period)
}

// TournamentService seeds the quarter-final bracket from season history.
type TournamentService struct {
	seasons repository.SeasonRepository
	logger  *slog.Logger
}

func NewTournamentService(seasons repository.SeasonRepository, logger *slog.Logger) *TournamentService {
	return &TournamentService{seasons: seasons, logger: logger}
}

// GenerateBracket seeds the top eight members by summed history points.
// When fewer than eight members have history, the field is completed with
// never-archived members in id order.
func (s *TournamentService) GenerateBracket(ctx context.Context) (*model.Bracket, error) {
	totals, err := s.seasons.PointsTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("summing history points: %w", err)
	}

	var fallback []model.PointsTotal
	if len(totals) < league.BracketSize {
		fallback, err = s.seasons.MembersWithoutHistory(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading members without history: %w", err)
		}
	}

	bracket, err := league.Seed(totals, fallback)
	if err != nil {
		s.logger.Warn("bracket not generated", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("bracket generated",
		slog.String("topSeed", bracket.Pairings[0].Player1.MemberName),
		slog.Int("topTotal", bracket.Pairings[0].Player1.Total),
	)
	return bracket, nil
}
