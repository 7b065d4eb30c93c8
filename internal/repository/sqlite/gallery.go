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

var _ repository.GalleryRepository = (*DB)(nil)

const galleryColumns = `id, uploader_id, uploader_name, file_type, file_name, created_at`

func (db *DB) CreateGalleryItem(ctx context.Context, g *model.GalleryItem) error {
	g.ID = xid.New().String()
	g.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO gallery (`+galleryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, nullString(g.UploaderID), g.UploaderName, g.FileType, g.FileName, g.CreatedAt,
	)
	if err != nil {
		return wrap("creating gallery item", err)
	}
	return nil
}

func (db *DB) GetGalleryItem(ctx context.Context, id string) (*model.GalleryItem, error) {
	g, err := scanGalleryItem(db.conn.QueryRowContext(ctx,
		`SELECT `+galleryColumns+` FROM gallery WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("gallery item", id)
		}
		return nil, wrap("getting gallery item "+id, err)
	}
	return g, nil
}

func (db *DB) ListGallery(ctx context.Context, opts repository.ListOptions) ([]model.GalleryItem, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+galleryColumns+`
		 FROM gallery
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, wrap("listing gallery", err)
	}
	defer rows.Close()

	items := make([]model.GalleryItem, 0, limit)
	for rows.Next() {
		g, err := scanGalleryItem(rows)
		if err != nil {
			return nil, wrap("scanning gallery row", err)
		}
		items = append(items, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterating gallery", err)
	}
	return items, nil
}

func (db *DB) DeleteGalleryItem(ctx context.Context, id string) error {
	return execOne(ctx, db.conn, "deleting gallery item "+id, "gallery item", id,
		`DELETE FROM gallery WHERE id = ?`, id)
}

func scanGalleryItem(s rowScanner) (*model.GalleryItem, error) {
	var (
		g          model.GalleryItem
		uploaderID sql.NullString
	)
	if err := s.Scan(&g.ID, &uploaderID, &g.UploaderName, &g.FileType, &g.FileName, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.UploaderID = uploaderID.String
	return &g, nil
}
