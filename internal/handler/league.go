package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/service"
)

type LeagueService interface {
	CreateMatch(ctx context.Context, p auth.Principal, in service.MatchInput) (*model.Match, error)
	DeleteMatch(ctx context.Context, p auth.Principal, id string) error
	ListMatches(ctx context.Context, limit, offset int) ([]model.MatchSummary, error)
	Rankings(ctx context.Context) ([]model.Member, error)
}

type SeasonService interface {
	RunArchive(ctx context.Context) (*model.ArchiveResult, error)
	History(ctx context.Context, period model.Period) ([]model.HistorySnapshot, error)
	CurrentPeriod() model.Period
}

type TournamentService interface {
	GenerateBracket(ctx context.Context) (*model.Bracket, error)
}

// LeagueHandler serves matches, the league table, the season archive and
// the tournament bracket.
type LeagueHandler struct {
	league     LeagueService
	seasons    SeasonService
	tournament TournamentService
	logger     *slog.Logger
}

func NewLeagueHandler(league LeagueService, seasons SeasonService, tournament TournamentService, logger *slog.Logger) *LeagueHandler {
	return &LeagueHandler{
		league:     league,
		seasons:    seasons,
		tournament: tournament,
		logger:     logger,
	}
}

type createMatchRequest struct {
	TeamAPlayer1 string `json:"teamAPlayer1"`
	TeamAPlayer2 string `json:"teamAPlayer2"`
	TeamBPlayer1 string `json:"teamBPlayer1"`
	TeamBPlayer2 string `json:"teamBPlayer2"`
	ScoreA       int    `json:"scoreA"`
	ScoreB       int    `json:"scoreB"`
}

// HandleCreateMatch records a match.
//
// HTTP: POST /api/matches (admin)
func (h *LeagueHandler) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	m, err := h.league.CreateMatch(r.Context(), principal(r), service.MatchInput(req))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleDeleteMatch removes a match and rolls back its stats.
//
// HTTP: DELETE /api/matches/{id} (admin)
func (h *LeagueHandler) HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.league.DeleteMatch(r.Context(), principal(r), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListMatches returns matches newest first.
//
// HTTP: GET /api/matches?offset=&limit=
func (h *LeagueHandler) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	matches, err := h.league.ListMatches(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if matches == nil {
		matches = []model.MatchSummary{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// HandleRankings returns the league table.
//
// HTTP: GET /api/league/rankings
func (h *LeagueHandler) HandleRankings(w http.ResponseWriter, r *http.Request) {
	members, err := h.league.Rankings(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// HandleArchive closes the current season on demand.
//
// HTTP: POST /api/league/archive (admin)
func (h *LeagueHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	res, err := h.seasons.RunArchive(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleHistory returns the snapshots of one season, the current one when
// year and month are omitted.
//
// HTTP: GET /api/league/history?year=&month=
func (h *LeagueHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	period := h.seasons.CurrentPeriod()
	q := r.URL.Query()
	if q.Has("year") || q.Has("month") {
		year, err := intParam(q.Get("year"), "year")
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		month, err := intParam(q.Get("month"), "month")
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		period = model.Period{Year: year, Month: month}
	}

	history, err := h.seasons.History(r.Context(), period)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if history == nil {
		history = []model.HistorySnapshot{}
	}
	writeJSON(w, http.StatusOK, history)
}

// HandleGenerateBracket seeds the quarter-finals.
//
// HTTP: POST /api/tournament/generate
func (h *LeagueHandler) HandleGenerateBracket(w http.ResponseWriter, r *http.Request) {
	b, err := h.tournament.GenerateBracket(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
