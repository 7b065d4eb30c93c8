// Package service holds the business rules of the club backend.
//
//	Handler (HTTP) → Service (rules, permissions) → Repository (SQLite)
//
// Services take primitives and small input structs, never *http.Request, so
// the same code serves the HTTP API, the clubctl CLI and the month-end
// scheduler. Every service depends on repository interfaces; tests pass
// in-memory fakes.
package service

import (
	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// page clamps caller-supplied pagination to sane bounds.
func page(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}

func requireAdmin(p auth.Principal, action string) error {
	if !p.Role.CanManageLeague() {
		return apperror.Forbidden("only an admin may " + action)
	}
	return nil
}

// ownerOrAdmin permits the action when the caller owns the resource or is an
// admin.
func ownerOrAdmin(p auth.Principal, ownerID, action string) error {
	if p.MemberID != "" && p.MemberID == ownerID {
		return nil
	}
	return requireAdmin(p, action)
}
