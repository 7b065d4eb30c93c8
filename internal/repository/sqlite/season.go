package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

var _ repository.SeasonRepository = (*DB)(nil)

type archiveCandidate struct {
	id     string
	name   string
	active bool
	stats  model.Stats
}

// ArchiveSeason closes a season in a single transaction:
//
//  1. every active member (and, under ArchiveThenPurge, every inactive one)
//     gets a history row for period;
//  2. active members whose row was just written have their stats zeroed;
//  3. inactive members are deleted.
//
// The history insert is ON CONFLICT DO NOTHING against
// UNIQUE(member_id, year, month). A member that already has a row for period
// keeps its live stats, so running the sweep twice in one month snapshots
// nobody twice and zeroes nobody without a snapshot.
//
// Any error rolls the whole sweep back.
func (db *DB) ArchiveSeason(ctx context.Context, period model.Period, policy model.PurgePolicy) (*model.ArchiveResult, error) {
	result := &model.ArchiveResult{Period: period}

	err := db.withTx(ctx, "archiving season", func(tx *sql.Tx) error {
		candidates, err := archiveCandidates(ctx, tx, policy)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, c := range candidates {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO history (id, member_id, member_name, year, month, total_points, wins, losses, game_diff, recorded_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (member_id, year, month) DO NOTHING`,
				xid.New().String(),
				c.id,
				c.name,
				period.Year,
				period.Month,
				c.stats.RankPoint,
				c.stats.Wins,
				c.stats.Losses,
				c.stats.GameDiff,
				now,
			)
			if err != nil {
				return wrap("writing snapshot for member "+c.id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return wrap("writing snapshot for member "+c.id, err)
			}
			if n == 0 {
				result.AlreadyArchived++
				continue
			}
			result.Snapshots++

			if !c.active {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE members
				 SET rank_point = 0, wins = 0, losses = 0, draws = 0, game_diff = 0, updated_at = ?
				 WHERE id = ?`,
				now, c.id,
			); err != nil {
				return wrap("resetting member "+c.id, err)
			}
			result.Reset++
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM members WHERE active = 0`)
		if err != nil {
			return wrap("purging inactive members", err)
		}
		purged, err := res.RowsAffected()
		if err != nil {
			return wrap("purging inactive members", err)
		}
		result.Purged = int(purged)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func archiveCandidates(ctx context.Context, tx *sql.Tx, policy model.PurgePolicy) ([]archiveCandidate, error) {
	query := `SELECT id, name, active, rank_point, wins, losses, draws, game_diff
		 FROM members WHERE active = 1 ORDER BY id`
	if policy == model.ArchiveThenPurge {
		query = `SELECT id, name, active, rank_point, wins, losses, draws, game_diff
		 FROM members ORDER BY id`
	}

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, wrap("listing members to archive", err)
	}
	defer rows.Close()

	var out []archiveCandidate
	for rows.Next() {
		var c archiveCandidate
		if err := rows.Scan(&c.id, &c.name, &c.active,
			&c.stats.RankPoint, &c.stats.Wins, &c.stats.Losses, &c.stats.Draws, &c.stats.GameDiff,
		); err != nil {
			return nil, wrap("scanning member to archive", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterating members to archive", err)
	}
	return out, nil
}

// ListHistory returns the snapshots of one season, best first.
func (db *DB) ListHistory(ctx context.Context, period model.Period) ([]model.HistorySnapshot, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, member_id, member_name, year, month, total_points, wins, losses, game_diff, recorded_at
		 FROM history
		 WHERE year = ? AND month = ?
		 ORDER BY total_points DESC, game_diff DESC, member_name`,
		period.Year, period.Month,
	)
	if err != nil {
		return nil, wrap("listing history", err)
	}
	defer rows.Close()

	var snapshots []model.HistorySnapshot
	for rows.Next() {
		var (
			h        model.HistorySnapshot
			memberID sql.NullString
		)
		if err := rows.Scan(&h.ID, &memberID, &h.MemberName, &h.Period.Year, &h.Period.Month,
			&h.TotalPoints, &h.Wins, &h.Losses, &h.GameDiff, &h.RecordedAt,
		); err != nil {
			return nil, wrap("scanning history row", err)
		}
		h.MemberID = memberID.String
		snapshots = append(snapshots, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterating history", err)
	}
	return snapshots, nil
}

func (db *DB) PointsTotals(ctx context.Context) ([]model.PointsTotal, error) {
	return db.queryTotals(ctx, "summing history points",
		`SELECT m.id, m.name, SUM(h.total_points) AS total
		 FROM history h
		 JOIN members m ON m.id = h.member_id
		 WHERE m.approved = 1 AND m.active = 1
		 GROUP BY m.id, m.name
		 ORDER BY total DESC, m.id`,
	)
}

func (db *DB) MembersWithoutHistory(ctx context.Context) ([]model.PointsTotal, error) {
	return db.queryTotals(ctx, "listing members without history",
		`SELECT m.id, m.name, 0
		 FROM members m
		 WHERE m.approved = 1 AND m.active = 1
		   AND NOT EXISTS (SELECT 1 FROM history h WHERE h.member_id = m.id)
		 ORDER BY m.id`,
	)
}

func (db *DB) queryTotals(ctx context.Context, op, query string) ([]model.PointsTotal, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var totals []model.PointsTotal
	for rows.Next() {
		var t model.PointsTotal
		if err := rows.Scan(&t.MemberID, &t.MemberName, &t.Total); err != nil {
			return nil, wrap(op, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return totals, nil
}
