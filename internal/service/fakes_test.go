package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/logging"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore is an in-memory stand-in for the SQLite repository. It
// implements every repository interface the services use, so one value can
// be handed to all of them and the test can inspect the shared state.

type fakeStore struct {
	mu        sync.Mutex
	nextID    int
	members   map[string]*model.Member
	matches   map[string]*model.Match
	schedules map[string]*model.Schedule
	posts     map[string]*model.CommunityPost
	gallery   map[string]*model.GalleryItem

	// archiveErrs are returned, in order, by successive ArchiveSeason calls
	// before it succeeds.
	archiveErrs  []error
	archiveCalls int
	archiveDone  map[model.Period]bool
	totals       []model.PointsTotal
	noHistory    []model.PointsTotal
	prunedBefore time.Time
}

var (
	_ repository.MemberRepository   = (*fakeStore)(nil)
	_ repository.MatchRepository    = (*fakeStore)(nil)
	_ repository.SeasonRepository   = (*fakeStore)(nil)
	_ repository.ScheduleRepository = (*fakeStore)(nil)
	_ repository.PostRepository     = (*fakeStore)(nil)
	_ repository.GalleryRepository  = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:     make(map[string]*model.Member),
		matches:     make(map[string]*model.Match),
		schedules:   make(map[string]*model.Schedule),
		posts:       make(map[string]*model.CommunityPost),
		gallery:     make(map[string]*model.GalleryItem),
		archiveDone: make(map[model.Period]bool),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%03d", prefix, f.nextID)
}

// --- members ---

func (f *fakeStore) CreateMember(_ context.Context, m *model.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.members {
		if existing.Phone == m.Phone {
			return apperror.Conflict("member", "phone "+m.Phone)
		}
	}
	m.ID = f.id("m")
	m.Stats = model.Stats{}
	m.CreatedAt = time.Now()
	stored := *m
	f.members[m.ID] = &stored
	return nil
}

func (f *fakeStore) GetMember(_ context.Context, id string) (*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return nil, apperror.NotFound("member", id)
	}
	out := *m
	return &out, nil
}

func (f *fakeStore) GetMemberByPhone(_ context.Context, phone string) (*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members {
		if m.Phone == phone {
			out := *m
			return &out, nil
		}
	}
	return nil, apperror.NotFound("member", phone)
}

func (f *fakeStore) sortedMembers(keep func(*model.Member) bool) []model.Member {
	var out []model.Member
	for _, m := range f.members {
		if keep(m) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeStore) ListMembers(_ context.Context, opts repository.ListOptions) ([]model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sortedMembers(func(m *model.Member) bool { return m.Active })
	return paginate(all, opts), nil
}

func (f *fakeStore) ListRankable(_ context.Context) ([]model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedMembers(func(m *model.Member) bool { return m.Ranked() }), nil
}

func (f *fakeStore) ApproveMember(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok || !m.Active {
		return apperror.NotFound("member", id)
	}
	m.Approved = true
	return nil
}

func (f *fakeStore) DeactivateMember(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok || !m.Active {
		return apperror.NotFound("member", id)
	}
	m.Active = false
	return nil
}

// --- matches ---

func (f *fakeStore) CreateMatch(_ context.Context, m *model.Match, delta model.MatchDelta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range m.Players() {
		if p, ok := f.members[id]; !ok || !p.Active {
			return apperror.NotFound("member", id)
		}
	}
	m.ID = f.id("match")
	m.CreatedAt = time.Now()
	f.applyLocked(*m, delta)
	stored := *m
	f.matches[m.ID] = &stored
	return nil
}

func (f *fakeStore) applyLocked(m model.Match, d model.MatchDelta) {
	for _, id := range m.TeamA() {
		if p, ok := f.members[id]; ok {
			p.Stats = p.Stats.Add(d.TeamA)
		}
	}
	for _, id := range m.TeamB() {
		if p, ok := f.members[id]; ok {
			p.Stats = p.Stats.Add(d.TeamB)
		}
	}
}

func (f *fakeStore) DeleteMatch(_ context.Context, id string, rollback func(model.Match) model.MatchDelta) (*model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, apperror.NotFound("match", id)
	}
	f.applyLocked(*m, rollback(*m))
	delete(f.matches, id)
	return m, nil
}

func (f *fakeStore) ListMatches(_ context.Context, opts repository.ListOptions) ([]model.MatchSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MatchSummary
	for _, m := range f.matches {
		out = append(out, model.MatchSummary{Match: *m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, opts), nil
}

// --- seasons ---

func (f *fakeStore) ArchiveSeason(_ context.Context, period model.Period, _ model.PurgePolicy) (*model.ArchiveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archiveCalls++
	if len(f.archiveErrs) > 0 {
		err := f.archiveErrs[0]
		f.archiveErrs = f.archiveErrs[1:]
		return nil, err
	}

	res := &model.ArchiveResult{Period: period}
	for id, m := range f.members {
		if !m.Active {
			delete(f.members, id)
			res.Purged++
			continue
		}
		if f.archiveDone[period] {
			res.AlreadyArchived++
			continue
		}
		m.Stats = model.Stats{}
		res.Snapshots++
		res.Reset++
	}
	f.archiveDone[period] = true
	return res, nil
}

func (f *fakeStore) ListHistory(context.Context, model.Period) ([]model.HistorySnapshot, error) {
	return []model.HistorySnapshot{}, nil
}

func (f *fakeStore) PointsTotals(context.Context) ([]model.PointsTotal, error) {
	return f.totals, nil
}

func (f *fakeStore) MembersWithoutHistory(context.Context) ([]model.PointsTotal, error) {
	return f.noHistory, nil
}

// --- schedules ---

func (f *fakeStore) CreateSchedule(_ context.Context, s *model.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.id("s")
	stored := *s
	f.schedules[s.ID] = &stored
	return nil
}

func (f *fakeStore) GetSchedule(_ context.Context, id string) (*model.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return nil, apperror.NotFound("schedule", id)
	}
	out := *s
	return &out, nil
}

func (f *fakeStore) ListSchedulesByDate(_ context.Context, date string) ([]model.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Schedule{}
	for _, s := range f.schedules {
		if s.Date == date {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (f *fakeStore) DeleteSchedule(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.schedules[id]; !ok {
		return apperror.NotFound("schedule", id)
	}
	delete(f.schedules, id)
	return nil
}

// --- community ---

func (f *fakeStore) CreatePost(_ context.Context, p *model.CommunityPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id("p")
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	stored := *p
	f.posts[p.ID] = &stored
	return nil
}

func (f *fakeStore) GetPost(_ context.Context, id string) (*model.CommunityPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	out := *p
	return &out, nil
}

func (f *fakeStore) ListPosts(_ context.Context, opts repository.ListOptions) ([]model.CommunityPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CommunityPost
	for _, p := range f.posts {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, opts), nil
}

func (f *fakeStore) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeStore) PrunePostsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunedBefore = cutoff
	var n int64
	for id, p := range f.posts {
		if p.CreatedAt.Before(cutoff) {
			delete(f.posts, id)
			n++
		}
	}
	return n, nil
}

// --- gallery ---

func (f *fakeStore) CreateGalleryItem(_ context.Context, g *model.GalleryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g.ID = f.id("g")
	stored := *g
	f.gallery[g.ID] = &stored
	return nil
}

func (f *fakeStore) GetGalleryItem(_ context.Context, id string) (*model.GalleryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gallery[id]
	if !ok {
		return nil, apperror.NotFound("gallery item", id)
	}
	out := *g
	return &out, nil
}

func (f *fakeStore) ListGallery(_ context.Context, opts repository.ListOptions) ([]model.GalleryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.GalleryItem
	for _, g := range f.gallery {
		out = append(out, *g)
	}
	return paginate(out, opts), nil
}

func (f *fakeStore) DeleteGalleryItem(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.gallery[id]; !ok {
		return apperror.NotFound("gallery item", id)
	}
	delete(f.gallery, id)
	return nil
}

func paginate[T any](all []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(all) {
		return []T{}
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all
}

// =========================================================================
// HELPERS
// =========================================================================

var (
	asAdmin  = auth.Principal{MemberID: "admin-1", Role: model.RoleAdmin}
	asMember = auth.Principal{MemberID: "member-1", Role: model.RoleMember}
)

func newTestPasswords(t *testing.T) *auth.PasswordService {
	t.Helper()
	p, err := auth.NewPasswordService(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordService() error = %v", err)
	}
	return p
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return tokens
}

// addMember puts an approved, active member with the given stats straight
// into the store.
func (f *fakeStore) addMember(id, name string, stats model.Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[id] = &model.Member{
		ID:       id,
		Name:     name,
		Phone:    "0100000" + id,
		Approved: true,
		Active:   true,
		Stats:    stats,
	}
}

func (f *fakeStore) stats(id string) model.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[id].Stats
}

var testLogger = logging.Discard()
