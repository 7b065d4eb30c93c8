package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ScheduleService manages the practice slots members post for a day.
type ScheduleService struct {
	schedules repository.ScheduleRepository
	members   repository.MemberRepository
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

func NewScheduleService(
	schedules repository.ScheduleRepository,
	members repository.MemberRepository,
	loc *time.Location,
	logger *slog.Logger,
) *ScheduleService {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleService{
		schedules: schedules,
		members:   members,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

type ScheduleInput struct {
	Date      string // YYYY-MM-DD, empty for today
	StartTime string // HH:MM
	EndTime   string // HH:MM
}

func (s *ScheduleService) today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

func (s *ScheduleService) date(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.today(), nil
	}
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", apperror.ValidationFailed("date", "date must be YYYY-MM-DD")
	}
	return raw, nil
}

// Create posts a slot for the calling member.
func (s *ScheduleService) Create(ctx context.Context, p auth.Principal, in ScheduleInput) (*model.Schedule, error) {
	date, err := s.date(in.Date)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(clockLayout, strings.TrimSpace(in.StartTime))
	if err != nil {
		return nil, apperror.ValidationFailed("startTime", "start time must be HH:MM")
	}
	end, err := time.Parse(clockLayout, strings.TrimSpace(in.EndTime))
	if err != nil {
		return nil, apperror.ValidationFailed("endTime", "end time must be HH:MM")
	}
	if !start.Before(end) {
		return nil, apperror.ValidationFailed("endTime", "end time must be after start time")
	}

	member, err := s.members.GetMember(ctx, p.MemberID)
	if err != nil {
		return nil, err
	}

	sched := &model.Schedule{
		MemberID:   member.ID,
		MemberName: member.Name,
		Date:       date,
		StartTime:  start.Format(clockLayout),
		EndTime:    end.Format(clockLayout),
	}
	if err := s.schedules.CreateSchedule(ctx, sched); err != nil {
		return nil, err
	}

	s.logger.Info("schedule created",
		slog.String("id", sched.ID),
		slog.String("member", member.ID),
		slog.String("date", date),
	)
	return sched, nil
}

// List returns the slots for date (today when empty) by start time.
func (s *ScheduleService) List(ctx context.Context, date string) ([]model.Schedule, error) {
	d, err := s.date(date)
	if err != nil {
		return nil, err
	}
	return s.schedules.ListSchedulesByDate(ctx, d)
}

func (s *ScheduleService) Delete(ctx context.Context, p auth.Principal, id string) error {
	sched, err := s.schedules.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	if err := ownerOrAdmin(p, sched.MemberID, "delete other members' schedules"); err != nil {
		return err
	}
	return s.schedules.DeleteSchedule(ctx, id)
}
