package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/config"
	"github.com/sakif/club-league/internal/metrics"
	sqliteRepo "github.com/sakif/club-league/internal/repository/sqlite"
	"github.com/sakif/club-league/internal/service"
)

// Services is the full service layer built over one database. The HTTP
// server and clubctl share it.
type Services struct {
	Tokens     *auth.TokenService
	Members    *service.MemberService
	League     *service.LeagueService
	Seasons    *service.SeasonService
	Tournament *service.TournamentService
	Schedules  *service.ScheduleService
	Community  *service.CommunityService
	Gallery    *service.GalleryService
}

// NewServices wires every service to db. The media directory is created if
// it does not exist.
func NewServices(cfg *config.Config, db *sqliteRepo.DB, m metrics.Metrics, logger *slog.Logger) (*Services, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password service: %w", err)
	}
	loc, err := cfg.Season.Location()
	if err != nil {
		return nil, fmt.Errorf("loading season timezone: %w", err)
	}
	policy, err := cfg.Season.Policy()
	if err != nil {
		return nil, fmt.Errorf("reading purge policy: %w", err)
	}
	if err := os.MkdirAll(cfg.Media.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}

	seasons := service.NewSeasonService(db, service.SeasonOptions{
		Location:   loc,
		Policy:     policy,
		MaxRetries: cfg.Season.MaxRetries,
		RetryBase:  cfg.Season.RetryBase,
	}, m, logger)

	return &Services{
		Tokens:     tokens,
		Members:    service.NewMemberService(db, tokens, passwords, m, logger),
		League:     service.NewLeagueService(db, db, m, logger),
		Seasons:    seasons,
		Tournament: service.NewTournamentService(db, logger),
		Schedules:  service.NewScheduleService(db, db, loc, logger),
		Community: service.NewCommunityService(db, passwords,
			time.Duration(cfg.Community.RetentionDays)*24*time.Hour, logger),
		Gallery: service.NewGalleryService(db, db, cfg.Media.Dir, cfg.Media.MaxUploadMB<<20, logger),
	}, nil
}

// OpenDB opens the configured database, creating its directory first.
func OpenDB(ctx context.Context, cfg *config.Config) (*sqliteRepo.DB, error) {
	dir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	db, err := sqliteRepo.New(ctx, sqliteRepo.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
