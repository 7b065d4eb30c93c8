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

var _ repository.ScheduleRepository = (*DB)(nil)

func (db *DB) CreateSchedule(ctx context.Context, s *model.Schedule) error {
	s.ID = xid.New().String()
	s.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO schedules (id, member_id, member_name, date, start_time, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.MemberID, s.MemberName, s.Date, s.StartTime, s.EndTime, s.CreatedAt,
	)
	if err != nil {
		return wrap("creating schedule", err)
	}
	return nil
}

func (db *DB) GetSchedule(ctx context.Context, id string) (*model.Schedule, error) {
	var s model.Schedule
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, member_id, member_name, date, start_time, end_time, created_at
		 FROM schedules WHERE id = ?`, id,
	).Scan(&s.ID, &s.MemberID, &s.MemberName, &s.Date, &s.StartTime, &s.EndTime, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("schedule", id)
		}
		return nil, wrap("getting schedule "+id, err)
	}
	return &s, nil
}

// ListSchedulesByDate returns one day's slots by start time. HH:MM strings
// sort correctly as text.
func (db *DB) ListSchedulesByDate(ctx context.Context, date string) ([]model.Schedule, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, member_id, member_name, date, start_time, end_time, created_at
		 FROM schedules
		 WHERE date = ?
		 ORDER BY start_time, end_time, id`, date,
	)
	if err != nil {
		return nil, wrap("listing schedules", err)
	}
	defer rows.Close()

	schedules := []model.Schedule{}
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.MemberID, &s.MemberName, &s.Date, &s.StartTime, &s.EndTime, &s.CreatedAt); err != nil {
			return nil, wrap("scanning schedule row", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterating schedules", err)
	}
	return schedules, nil
}

func (db *DB) DeleteSchedule(ctx context.Context, id string) error {
	return execOne(ctx, db.conn, "deleting schedule "+id, "schedule", id,
		`DELETE FROM schedules WHERE id = ?`, id)
}
