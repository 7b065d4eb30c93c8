package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/service"
)

type ScheduleService interface {
	Create(ctx context.Context, p auth.Principal, in service.ScheduleInput) (*model.Schedule, error)
	List(ctx context.Context, date string) ([]model.Schedule, error)
	Delete(ctx context.Context, p auth.Principal, id string) error
}

type CommunityService interface {
	Create(ctx context.Context, in service.PostInput) (*model.CommunityPost, error)
	List(ctx context.Context, limit, offset int) ([]model.CommunityPost, error)
	Delete(ctx context.Context, p auth.Principal, id, password string) error
}

type GalleryService interface {
	Upload(ctx context.Context, p auth.Principal, up service.Upload) (*model.GalleryItem, error)
	List(ctx context.Context, limit, offset int) ([]model.GalleryItem, error)
	Delete(ctx context.Context, p auth.Principal, id string) error
}

// BoardHandler serves the club's shared boards: practice schedules, the
// community posts and the photo/video gallery.
type BoardHandler struct {
	schedules ScheduleService
	community CommunityService
	gallery   GalleryService
	maxUpload int64
	logger    *slog.Logger
}

func NewBoardHandler(
	schedules ScheduleService,
	community CommunityService,
	gallery GalleryService,
	maxUpload int64,
	logger *slog.Logger,
) *BoardHandler {
	return &BoardHandler{
		schedules: schedules,
		community: community,
		gallery:   gallery,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// --- schedules ---

type scheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (h *BoardHandler) HandleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	s, err := h.schedules.Create(r.Context(), principal(r), service.ScheduleInput(req))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *BoardHandler) HandleListSchedules(w http.ResponseWriter, r *http.Request) {
	list, err := h.schedules.List(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BoardHandler) HandleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.schedules.Delete(r.Context(), principal(r), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- community ---

type postRequest struct {
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
	Content    string `json:"content"`
	Password   string `json:"password"`
}

func (h *BoardHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.community.Create(r.Context(), service.PostInput(req))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *BoardHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	posts, err := h.community.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if posts == nil {
		posts = []model.CommunityPost{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleDeletePost expects the post password in ?password= unless the
// caller is an admin.
func (h *BoardHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	err := h.community.Delete(r.Context(), principal(r), r.PathValue("id"), r.URL.Query().Get("password"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- gallery ---

// HandleUpload accepts a multipart form with a single "file" part.
func (h *BoardHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart framing; the service enforces the exact
	// file size.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.logger, apperror.ValidationFailed("file", "file is too large"))
			return
		}
		writeError(w, h.logger, apperror.ValidationFailed("file", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	item, err := h.gallery.Upload(r.Context(), principal(r), service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *BoardHandler) HandleListGallery(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items, err := h.gallery.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []model.GalleryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BoardHandler) HandleDeleteGalleryItem(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.Delete(r.Context(), principal(r), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
