package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

func (db *DB) CreatePost(ctx context.Context, p *model.CommunityPost) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO community_posts (id, title, author_name, content, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.AuthorName, p.Content, p.PasswordHash, p.CreatedAt,
	)
	if err != nil {
		return wrap("creating post", err)
	}
	return nil
}

func (db *DB) GetPost(ctx context.Context, id string) (*model.CommunityPost, error) {
	var p model.CommunityPost
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, author_name, content, password_hash, created_at
		 FROM community_posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.AuthorName, &p.Content, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, wrap("getting post "+id, err)
	}
	return &p, nil
}

func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.CommunityPost, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, author_name, content, password_hash, created_at
		 FROM community_posts
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, wrap("listing posts", err)
	}
	defer rows.Close()

	posts := make([]model.CommunityPost, 0, limit)
	for rows.Next() {
		var p model.CommunityPost
		if err := rows.Scan(&p.ID, &p.Title, &p.AuthorName, &p.Content, &p.PasswordHash, &p.CreatedAt); err != nil {
			return nil, wrap("scanning post row", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterating posts", err)
	}
	return posts, nil
}

func (db *DB) DeletePost(ctx context.Context, id string) error {
	return execOne(ctx, db.conn, "deleting post "+id, "post", id,
		`DELETE FROM community_posts WHERE id = ?`, id)
}

// PrunePostsBefore removes posts older than cutoff. Timestamps are stored in
// UTC, so the cutoff is converted before comparing.
func (db *DB) PrunePostsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM community_posts WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, wrap("pruning posts", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("pruning posts", err)
	}
	return n, nil
}
