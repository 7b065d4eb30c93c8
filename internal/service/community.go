package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

const (
	MaxPostTitleLength   = 100
	MaxPostContentLength = 5000
	MinPostPassword      = 4
)

// CommunityService runs the anonymous bulletin board. Posts expire after
// the retention window and are deleted with the password set at creation.
type CommunityService struct {
	posts     repository.PostRepository
	passwords *auth.PasswordService
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewCommunityService keeps posts for retention. Zero keeps them forever.
func NewCommunityService(
	posts repository.PostRepository,
	passwords *auth.PasswordService,
	retention time.Duration,
	logger *slog.Logger,
) *CommunityService {
	return &CommunityService{
		posts:     posts,
		passwords: passwords,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

type PostInput struct {
	Title      string
	AuthorName string
	Content    string
	Password   string
}

func (s *CommunityService) Create(ctx context.Context, in PostInput) (*model.CommunityPost, error) {
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.AuthorName)
	content := strings.TrimSpace(in.Content)

	switch {
	case title == "":
		return nil, apperror.ValidationFailed("title", "title is required")
	case utf8.RuneCountInString(title) > MaxPostTitleLength:
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxPostTitleLength))
	case author == "":
		return nil, apperror.ValidationFailed("authorName", "author name is required")
	case utf8.RuneCountInString(author) > MaxNameLength:
		return nil, apperror.ValidationFailed("authorName",
			fmt.Sprintf("author name must be %d characters or less", MaxNameLength))
	case content == "":
		return nil, apperror.ValidationFailed("content", "content is required")
	case utf8.RuneCountInString(content) > MaxPostContentLength:
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxPostContentLength))
	case len(in.Password) < MinPostPassword:
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPostPassword))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password is too long")
	}

	post := &model.CommunityPost{
		Title:        title,
		AuthorName:   author,
		Content:      content,
		PasswordHash: hash,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created", slog.String("id", post.ID))
	return post, nil
}

// List prunes expired posts, then returns the rest newest first.
func (s *CommunityService) List(ctx context.Context, limit, offset int) ([]model.CommunityPost, error) {
	if s.retention > 0 {
		cutoff := s.now().Add(-s.retention)
		n, err := s.posts.PrunePostsBefore(ctx, cutoff)
		if err != nil {
			return nil, fmt.Errorf("pruning expired posts: %w", err)
		}
		if n > 0 {
			s.logger.Info("expired posts pruned", slog.Int64("count", n))
		}
	}
	return s.posts.ListPosts(ctx, page(limit, offset))
}

// Delete removes a post when password matches. Admins need no password.
func (s *CommunityService) Delete(ctx context.Context, p auth.Principal, id, password string) error {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return err
	}

	if !p.Role.CanManageLeague() {
		if err := s.passwords.Verify(post.PasswordHash, password); err != nil {
			if errors.Is(err, auth.ErrSecretMismatch) {
				return apperror.Forbidden("wrong password")
			}
			return fmt.Errorf("verifying post password: %w", err)
		}
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		return err
	}
	s.logger.Info("post deleted", slog.String("id", id))
	return nil
}
