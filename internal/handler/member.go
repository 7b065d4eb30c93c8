package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/service"
)

// MemberService is what MemberHandler needs from service.MemberService.
type MemberService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.Member, error)
	Login(ctx context.Context, phone, pin string) (*service.AuthResult, error)
	Get(ctx context.Context, id string) (*model.Member, error)
	List(ctx context.Context, limit, offset int) ([]model.Member, error)
	Approve(ctx context.Context, p auth.Principal, id string) (*model.Member, error)
	Withdraw(ctx context.Context, p auth.Principal, id string) error
}

// CookieOptions control the access token cookie set at login.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

// MemberHandler serves registration, login and member management.
//
//	POST   /api/members              → register (public)
//	POST   /api/login                → login, sets the token cookie
//	POST   /api/logout               → clears the token cookie
//	GET    /api/me                   → current member
//	GET    /api/members              → list active members
//	PUT    /api/members/{id}/approve → approve (admin)
//	DELETE /api/members/{id}         → withdraw (self or admin)
type MemberHandler struct {
	members MemberService
	cookie  CookieOptions
	logger  *slog.Logger
}

func NewMemberHandler(members MemberService, cookie CookieOptions, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: members, cookie: cookie, logger: logger}
}

type registerRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	BirthYear string `json:"birthYear"`
	PIN       string `json:"pin"`
}

func (h *MemberHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	m, err := h.members.Register(r.Context(), service.RegisterInput{
		Name:      req.Name,
		Phone:     req.Phone,
		BirthYear: req.BirthYear,
		PIN:       req.PIN,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type loginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

type loginResponse struct {
	Token  string        `json:"token"`
	Member *model.Member `json:"member"`
}

// HandleLogin returns the token in the body for API clients and sets it as
// an HttpOnly cookie for the browser.
func (h *MemberHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.members.Login(r.Context(), req.Phone, req.PIN)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, Member: res.Member})
}

func (h *MemberHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *MemberHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	m, err := h.members.Get(r.Context(), principal(r).MemberID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	members, err := h.members.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	m, err := h.members.Approve(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	if err := h.members.Withdraw(r.Context(), principal(r), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
