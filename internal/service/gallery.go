package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

// GalleryService stores uploaded photos and videos on disk under dir and
// their metadata in the repository.
type GalleryService struct {
	items    repository.GalleryRepository
	members  repository.MemberRepository
	dir      string
	maxBytes int64
	logger   *slog.Logger
}

func NewGalleryService(
	items repository.GalleryRepository,
	members repository.MemberRepository,
	dir string,
	maxBytes int64,
	logger *slog.Logger,
) *GalleryService {
	return &GalleryService{
		items:    items,
		members:  members,
		dir:      dir,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Upload is one file as received from the client.
type Upload struct {
	FileName    string // original name, only its extension is kept
	ContentType string
	Body        io.Reader
}

// Path returns where a stored item lives on disk.
func (s *GalleryService) Path(item *model.GalleryItem) string {
	return filepath.Join(s.dir, item.FileName)
}

func (s *GalleryService) Upload(ctx context.Context, p auth.Principal, up Upload) (*model.GalleryItem, error) {
	kind, _, _ := strings.Cut(strings.ToLower(up.ContentType), "/")
	if kind != "image" && kind != "video" {
		return nil, apperror.ValidationFailed("file", "only images and videos can be uploaded")
	}

	member, err := s.members.GetMember(ctx, p.MemberID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}

	name := uuid.NewString() + safeExt(up.FileName)
	path := filepath.Join(s.dir, name)
	if err := s.write(path, up.Body); err != nil {
		return nil, err
	}

	item := &model.GalleryItem{
		UploaderID:   member.ID,
		UploaderName: member.Name,
		FileType:     kind,
		FileName:     name,
	}
	if err := s.items.CreateGalleryItem(ctx, item); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	s.logger.Info("gallery item uploaded",
		slog.String("id", item.ID),
		slog.String("file", name),
		slog.String("uploader", member.ID),
	)
	return item, nil
}

// write copies body to path, removing the file again when it exceeds the
// size limit.
func (s *GalleryService) write(path string, body io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating media file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(path)
		return fmt.Errorf("writing media file: %w", err)
	case closeErr != nil:
		_ = os.Remove(path)
		return fmt.Errorf("closing media file: %w", closeErr)
	case n > s.maxBytes:
		_ = os.Remove(path)
		return apperror.ValidationFailed("file",
			fmt.Sprintf("file must be %d MB or smaller", s.maxBytes>>20))
	}
	return nil
}

// safeExt keeps a short alphanumeric extension of name, or nothing.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func (s *GalleryService) List(ctx context.Context, limit, offset int) ([]model.GalleryItem, error) {
	return s.items.ListGallery(ctx, page(limit, offset))
}

func (s *GalleryService) Delete(ctx context.Context, p auth.Principal, id string) error {
	item, err := s.items.GetGalleryItem(ctx, id)
	if err != nil {
		return err
	}
	if err := ownerOrAdmin(p, item.UploaderID, "delete other members' uploads"); err != nil {
		return err
	}
	if err := s.items.DeleteGalleryItem(ctx, id); err != nil {
		return err
	}

	if err := os.Remove(s.Path(item)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("gallery file not removed", slog.String("file", item.FileName), slog.String("error", err.Error()))
	}
	s.logger.Info("gallery item deleted", slog.String("id", id))
	return nil
}
