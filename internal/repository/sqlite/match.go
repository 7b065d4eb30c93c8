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

var _ repository.MatchRepository = (*DB)(nil)

// CreateMatch records a match and applies its stat delta in one transaction.
//
// The member checks, the INSERT, and the four UPDATEs all run on the same tx:
// a reader sees either none of it or all of it.
func (db *DB) CreateMatch(ctx context.Context, m *model.Match, delta model.MatchDelta) error {
	m.ID = xid.New().String()
	m.CreatedAt = time.Now().UTC()

	return db.withTx(ctx, "creating match", func(tx *sql.Tx) error {
		for _, id := range m.Players() {
			if err := requireActiveMember(ctx, tx, id); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO matches (id, team_a_player1, team_a_player2, team_b_player1, team_b_player2, score_a, score_b, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID,
			m.TeamAPlayer1,
			m.TeamAPlayer2,
			m.TeamBPlayer1,
			m.TeamBPlayer2,
			m.ScoreA,
			m.ScoreB,
			m.CreatedAt,
		)
		if err != nil {
			return wrap("inserting match", err)
		}

		for _, id := range m.TeamA() {
			if _, err := applyStats(ctx, tx, id, delta.TeamA, m.CreatedAt); err != nil {
				return err
			}
		}
		for _, id := range m.TeamB() {
			if _, err := applyStats(ctx, tx, id, delta.TeamB, m.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteMatch reverses a match's stat effect and removes it, in one
// transaction. Players that were purged since the match was recorded have a
// NULL reference and are skipped; the rest are reverted.
func (db *DB) DeleteMatch(ctx context.Context, id string, rollback func(model.Match) model.MatchDelta) (*model.Match, error) {
	var deleted *model.Match

	err := db.withTx(ctx, "deleting match", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, team_a_player1, team_a_player2, team_b_player1, team_b_player2, score_a, score_b, created_at
			 FROM matches WHERE id = ?`, id)

		m, err := scanMatch(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("match", id)
			}
			return wrap("loading match "+id, err)
		}

		delta := rollback(*m)
		now := time.Now().UTC()
		for _, pid := range m.TeamA() {
			if pid == "" {
				continue
			}
			if _, err := applyStats(ctx, tx, pid, delta.TeamA, now); err != nil {
				return err
			}
		}
		for _, pid := range m.TeamB() {
			if pid == "" {
				continue
			}
			if _, err := applyStats(ctx, tx, pid, delta.TeamB, now); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id); err != nil {
			return wrap("deleting match "+id, err)
		}
		deleted = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// ListMatches returns matches newest first. Names of purged players come back
// empty.
func (db *DB) ListMatches(ctx context.Context, opts repository.ListOptions) ([]model.MatchSummary, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, m.team_a_player1, m.team_a_player2, m.team_b_player1, m.team_b_player2,
		        m.score_a, m.score_b, m.created_at,
		        COALESCE(a1.name, ''), COALESCE(a2.name, ''), COALESCE(b1.name, ''), COALESCE(b2.name, '')
		 FROM matches m
		 LEFT JOIN members a1 ON a1.id = m.team_a_player1
		 LEFT JOIN members a2 ON a2.id = m.team_a_player2
		 LEFT JOIN members b1 ON b1.id = m.team_b_player1
		 LEFT JOIN members b2 ON b2.id = m.team_b_player2
		 ORDER BY m.created_at DESC, m.id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, wrap("listing matches", err)
	}
	defer rows.Close()

	matches := make([]model.MatchSummary, 0, limit)
	for rows.Next() {
		var (
			s              model.MatchSummary
			a1, a2, b1, b2 sql.NullString
		)
		if err := rows.Scan(
			&s.ID, &a1, &a2, &b1, &b2,
			&s.ScoreA, &s.ScoreB, &s.CreatedAt,
			&s.TeamANames[0], &s.TeamANames[1], &s.TeamBNames[0], &s.TeamBNames[1],
		); err != nil {
			return nil, wrap("scanning match row", err)
		}
		s.TeamAPlayer1, s.TeamAPlayer2 = a1.String, a2.String
		s.TeamBPlayer1, s.TeamBPlayer2 = b1.String, b2.String
		matches = append(matches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterating matches", err)
	}
	return matches, nil
}

func scanMatch(s rowScanner) (*model.Match, error) {
	var (
		m              model.Match
		a1, a2, b1, b2 sql.NullString
	)
	if err := s.Scan(&m.ID, &a1, &a2, &b1, &b2, &m.ScoreA, &m.ScoreB, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.TeamAPlayer1, m.TeamAPlayer2 = a1.String, a2.String
	m.TeamBPlayer1, m.TeamBPlayer2 = b1.String, b2.String
	return &m, nil
}

// requireActiveMember returns NotFound unless id names an existing, active
// member. Soft-deleted members cannot play new matches.
func requireActiveMember(ctx context.Context, tx *sql.Tx, id string) error {
	var active bool
	err := tx.QueryRowContext(ctx, `SELECT active FROM members WHERE id = ?`, id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
		return apperror.NotFound("member", id)
	}
	if err != nil {
		return wrap("checking member "+id, err)
	}
	return nil
}

// applyStats adds d to one member's accumulators and reports whether the
// member row still existed.
func applyStats(ctx context.Context, tx *sql.Tx, id string, d model.Stats, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE members
		 SET rank_point = rank_point + ?,
		     wins       = wins + ?,
		     losses     = losses + ?,
		     draws      = draws + ?,
		     game_diff  = game_diff + ?,
		     updated_at = ?
		 WHERE id = ?`,
		d.RankPoint, d.Wins, d.Losses, d.Draws, d.GameDiff, at, id,
	)
	if err != nil {
		return false, wrap("updating stats for member "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("updating stats for member "+id, err)
	}
	return n > 0, nil
}
