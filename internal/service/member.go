package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/metrics"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

const (
	MaxNameLength  = 50
	MinPhoneDigits = 9
	MaxPhoneDigits = 15
	PINLength      = 4
)

// MemberService handles registration, login and the member lifecycle
// (approval, withdrawal).
type MemberService struct {
	members   repository.MemberRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	metrics   metrics.Metrics
	logger    *slog.Logger
}

func NewMemberService(
	members repository.MemberRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	m metrics.Metrics,
	logger *slog.Logger,
) *MemberService {
	return &MemberService{
		members:   members,
		tokens:    tokens,
		passwords: passwords,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterInput is what a prospective member submits.
type RegisterInput struct {
	Name      string
	Phone     string
	BirthYear string
	PIN       string
}

// AuthResult bundles the member and the issued token so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	Member *model.Member
	Token  string
}

// Register creates an unapproved, active member. An admin has to approve
// the member before they can log in.
func (s *MemberService) Register(ctx context.Context, in RegisterInput) (*model.Member, error) {
	m, err := s.newMember(in)
	if err != nil {
		return nil, err
	}

	if err := s.members.CreateMember(ctx, m); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to register member", slog.String("error", err.Error()))
		}
		return nil, err
	}
	s.metrics.IncMembersRegistered()

	s.logger.Info("member registered", slog.String("id", m.ID), slog.String("name", m.Name))
	return m, nil
}

// CreateAdmin bootstraps an approved admin account. Only reachable from
// clubctl.
func (s *MemberService) CreateAdmin(ctx context.Context, in RegisterInput) (*model.Member, error) {
	m, err := s.newMember(in)
	if err != nil {
		return nil, err
	}
	m.Role = model.RoleAdmin
	m.Approved = true

	if err := s.members.CreateMember(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("admin created", slog.String("id", m.ID), slog.String("name", m.Name))
	return m, nil
}

func (s *MemberService) newMember(in RegisterInput) (*model.Member, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	birthYear := strings.TrimSpace(in.BirthYear)
	if birthYear != "" && !allDigits(birthYear, 4) {
		return nil, apperror.ValidationFailed("birthYear", "birth year must be four digits (YYYY)")
	}

	if !allDigits(in.PIN, PINLength) {
		return nil, apperror.ValidationFailed("pin", fmt.Sprintf("PIN must be exactly %d digits", PINLength))
	}
	hash, err := s.passwords.Hash(in.PIN)
	if err != nil {
		return nil, fmt.Errorf("hashing PIN: %w", err)
	}

	return &model.Member{
		Name:      name,
		Phone:     phone,
		BirthYear: birthYear,
		PINHash:   hash,
		Role:      model.RoleMember,
		Active:    true,
	}, nil
}

// NormalizePhone strips dashes and spaces and checks what remains is 9 to
// 15 digits.
func NormalizePhone(raw string) (string, error) {
	phone := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(raw))
	if len(phone) < MinPhoneDigits || len(phone) > MaxPhoneDigits || !allDigits(phone, len(phone)) {
		return "", apperror.ValidationFailed("phone",
			fmt.Sprintf("phone must be %d to %d digits", MinPhoneDigits, MaxPhoneDigits))
	}
	return phone, nil
}

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Login checks phone and PIN and issues a token. The PIN is verified before
// the account state so a wrong PIN never reveals whether the account is
// pending or withdrawn.
func (s *MemberService) Login(ctx context.Context, phone, pin string) (*AuthResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	m, err := s.members.GetMemberByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if err := s.passwords.Verify(m.PINHash, pin); err != nil {
		if errors.Is(err, auth.ErrSecretMismatch) {
			return nil, apperror.Unauthorized("wrong PIN")
		}
		return nil, fmt.Errorf("verifying PIN for member %s: %w", m.ID, err)
	}
	if !m.Active {
		return nil, apperror.Forbidden("membership has been withdrawn")
	}
	if !m.Approved {
		return nil, apperror.Forbidden("membership is awaiting admin approval")
	}

	token, err := s.tokens.Generate(auth.Principal{MemberID: m.ID, Role: m.Role})
	if err != nil {
		return nil, fmt.Errorf("generating token for member %s: %w", m.ID, err)
	}

	s.logger.Info("member logged in", slog.String("id", m.ID))
	return &AuthResult{Member: m, Token: token}, nil
}

func (s *MemberService) Get(ctx context.Context, id string) (*model.Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "member ID is required")
	}
	return s.members.GetMember(ctx, id)
}

// List returns active members by name.
func (s *MemberService) List(ctx context.Context, limit, offset int) ([]model.Member, error) {
	members, err := s.members.ListMembers(ctx, page(limit, offset))
	if err != nil {
		s.logger.Error("failed to list members", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

// Approve lets a pending member log in and enter the rankings.
func (s *MemberService) Approve(ctx context.Context, p auth.Principal, id string) (*model.Member, error) {
	if err := requireAdmin(p, "approve members"); err != nil {
		return nil, err
	}
	if err := s.members.ApproveMember(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("member approved", slog.String("id", id), slog.String("by", p.MemberID))
	return s.members.GetMember(ctx, id)
}

// Withdraw soft-deletes a member. The row stays, with its matches and
// history, until the next season archive purges it.
func (s *MemberService) Withdraw(ctx context.Context, p auth.Principal, id string) error {
	if err := ownerOrAdmin(p, id, "withdraw other members"); err != nil {
		return err
	}
	if err := s.members.DeactivateMember(ctx, id); err != nil {
		return err
	}

	s.logger.Info("member withdrawn", slog.String("id", id), slog.String("by", p.MemberID))
	return nil
}
