package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

var _ repository.MemberRepository = (*DB)(nil)

const memberColumns = `id, name, phone, birth_year, pin_hash, role, approved, active,
	rank_point, wins, losses, draws, game_diff, created_at, updated_at`

// CreateMember inserts a new member with zeroed stats. The id and timestamps
// are filled in on m. A duplicate phone number is a Conflict.
func (db *DB) CreateMember(ctx context.Context, m *model.Member) error {
	m.ID = xid.New().String()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Stats = model.Stats{}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO members (id, name, phone, birth_year, pin_hash, role, approved, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.Name,
		m.Phone,
		m.BirthYear,
		m.PINHash,
		m.Role.String(),
		m.Approved,
		m.Active,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("member", "phone "+m.Phone)
		}
		return wrap("creating member", err)
	}
	return nil
}

func (db *DB) GetMember(ctx context.Context, id string) (*model.Member, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`, id)

	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("member", id)
		}
		return nil, wrap("getting member "+id, err)
	}
	return m, nil
}

// GetMemberByPhone looks a member up by the normalized phone number used as
// the login identity.
func (db *DB) GetMemberByPhone(ctx context.Context, phone string) (*model.Member, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE phone = ?`, phone)

	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("member", "phone "+phone)
		}
		return nil, wrap("getting member by phone", err)
	}
	return m, nil
}

// ListMembers returns active members by name, approved or not.
func (db *DB) ListMembers(ctx context.Context, opts repository.ListOptions) ([]model.Member, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+memberColumns+`
		 FROM members
		 WHERE active = 1
		 ORDER BY name, id
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, wrap("listing members", err)
	}
	return collectMembers(rows, limit)
}

func (db *DB) ListRankable(ctx context.Context) ([]model.Member, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+memberColumns+`
		 FROM members
		 WHERE approved = 1 AND active = 1
		 ORDER BY id`,
	)
	if err != nil {
		return nil, wrap("listing rankable members", err)
	}
	return collectMembers(rows, 0)
}

func (db *DB) ApproveMember(ctx context.Context, id string) error {
	return execOne(ctx, db.conn, "approving member", "member", id,
		`UPDATE members SET approved = 1, updated_at = ? WHERE id = ? AND active = 1`,
		time.Now().UTC(), id,
	)
}

// DeactivateMember soft-deletes a member. The row stays, with its stats,
// until the next season archive purges it.
func (db *DB) DeactivateMember(ctx context.Context, id string) error {
	return execOne(ctx, db.conn, "deactivating member", "member", id,
		`UPDATE members SET active = 0, updated_at = ? WHERE id = ? AND active = 1`,
		time.Now().UTC(), id,
	)
}

func scanMember(s rowScanner) (*model.Member, error) {
	var (
		m    model.Member
		role string
	)
	err := s.Scan(
		&m.ID,
		&m.Name,
		&m.Phone,
		&m.BirthYear,
		&m.PINHash,
		&role,
		&m.Approved,
		&m.Active,
		&m.RankPoint,
		&m.Wins,
		&m.Losses,
		&m.Draws,
		&m.GameDiff,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if m.Role, err = model.ParseRole(role); err != nil {
		return nil, fmt.Errorf("member %s: %w", m.ID, err)
	}
	return &m, nil
}

func collectMembers(rows *sql.Rows, sizeHint int) ([]model.Member, error) {
	defer rows.Close()

	members := make([]model.Member, 0, sizeHint)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, wrap("scanning member row", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterating members", err)
	}
	return members, nil
}
