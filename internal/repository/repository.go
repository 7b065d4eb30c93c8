// Package repository declares the storage contracts the services depend on.
// The sqlite subpackage is the only implementation; services and their tests
// only ever see these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/sakif/club-league/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// MemberRepository stores members. It never writes the league accumulators;
// those change only through MatchRepository and SeasonRepository.
type MemberRepository interface {
	CreateMember(ctx context.Context, m *model.Member) error
	GetMember(ctx context.Context, id string) (*model.Member, error)
	GetMemberByPhone(ctx context.Context, phone string) (*model.Member, error)
	ListMembers(ctx context.Context, opts ListOptions) ([]model.Member, error)
	// ListRankable returns approved, active members ordered by id.
	ListRankable(ctx context.Context) ([]model.Member, error)
	ApproveMember(ctx context.Context, id string) error
	DeactivateMember(ctx context.Context, id string) error
}

// MatchRepository records and removes matches together with the stat change
// they cause. Each call is one transaction.
type MatchRepository interface {
	// CreateMatch inserts m and adds delta.TeamA to both team A players and
	// delta.TeamB to both team B players. Every referenced member must exist
	// and be active, otherwise nothing is written and a NotFound is returned.
	CreateMatch(ctx context.Context, m *model.Match, delta model.MatchDelta) error

	// DeleteMatch loads the match, applies rollback(match) to the players
	// that still exist, and deletes the match row. It returns the deleted
	// match.
	DeleteMatch(ctx context.Context, id string, rollback func(model.Match) model.MatchDelta) (*model.Match, error)

	// ListMatches returns matches newest first with player names resolved.
	ListMatches(ctx context.Context, opts ListOptions) ([]model.MatchSummary, error)
}

// SeasonRepository owns the monthly archive and the history it produces.
type SeasonRepository interface {
	// ArchiveSeason snapshots and resets every active member and purges
	// inactive ones, in a single transaction. Members that already have a
	// snapshot for period are left untouched.
	ArchiveSeason(ctx context.Context, period model.Period, policy model.PurgePolicy) (*model.ArchiveResult, error)

	ListHistory(ctx context.Context, period model.Period) ([]model.HistorySnapshot, error)

	// PointsTotals sums history points per approved, active member. Only
	// members with at least one snapshot are returned.
	PointsTotals(ctx context.Context) ([]model.PointsTotal, error)

	// MembersWithoutHistory lists approved, active members that have never
	// been archived, ordered by id, with a zero total.
	MembersWithoutHistory(ctx context.Context) ([]model.PointsTotal, error)
}

type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, s *model.Schedule) error
	GetSchedule(ctx context.Context, id string) (*model.Schedule, error)
	ListSchedulesByDate(ctx context.Context, date string) ([]model.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

type PostRepository interface {
	CreatePost(ctx context.Context, p *model.CommunityPost) error
	GetPost(ctx context.Context, id string) (*model.CommunityPost, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]model.CommunityPost, error)
	DeletePost(ctx context.Context, id string) error
	// PrunePostsBefore deletes posts created before cutoff and reports how
	// many were removed.
	PrunePostsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type GalleryRepository interface {
	CreateGalleryItem(ctx context.Context, g *model.GalleryItem) error
	GetGalleryItem(ctx context.Context, id string) (*model.GalleryItem, error)
	ListGallery(ctx context.Context, opts ListOptions) ([]model.GalleryItem, error)
	DeleteGalleryItem(ctx context.Context, id string) error
}
