package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/club-league/internal/apperror"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/repository"
)

// =========================================================================
// CREATE / GET
// =========================================================================

func TestCreateMember(t *testing.T) {
	db := newTestDB(t)

	m := &model.Member{
		Name:      "Kim Minji",
		Phone:     "01012345678",
		BirthYear: "1994",
		PINHash:   "bcrypt-hash",
		Role:      model.RoleAdmin,
		Active:    true,
	}
	require.NoError(t, db.CreateMember(context.Background(), m))
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())

	found, err := db.GetMember(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kim Minji", found.Name)
	assert.Equal(t, "1994", found.BirthYear)
	assert.Equal(t, model.RoleAdmin, found.Role)
	assert.False(t, found.Approved)
	assert.True(t, found.Active)
	assert.Equal(t, model.Stats{}, found.Stats)
}

func TestCreateMember_DuplicatePhone(t *testing.T) {
	db := newTestDB(t)
	createTestMember(t, db, "first", "01011112222")

	err := db.CreateMember(context.Background(), &model.Member{Name: "second", Phone: "01011112222", PINHash: "x", Active: true})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestGetMember_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetMember(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}

func TestGetMemberByPhone(t *testing.T) {
	db := newTestDB(t)
	m := createTestMember(t, db, "phone owner", "01099998888")

	found, err := db.GetMemberByPhone(context.Background(), "01099998888")
	require.NoError(t, err)
	assert.Equal(t, m.ID, found.ID)

	_, err = db.GetMemberByPhone(context.Background(), "01000000000")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// LIST
// =========================================================================

func TestListMembers_SkipsInactive(t *testing.T) {
	db := newTestDB(t)
	createTestMember(t, db, "b", "01000000002")
	gone := createTestMember(t, db, "a", "01000000001")
	require.NoError(t, db.DeactivateMember(context.Background(), gone.ID))

	members, err := db.ListMembers(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "b", members[0].Name)
}

func TestListRankable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ok := createTestMember(t, db, "ok", "01000000001")
	pending := &model.Member{Name: "pending", Phone: "01000000002", PINHash: "x", Active: true}
	require.NoError(t, db.CreateMember(ctx, pending))
	gone := createTestMember(t, db, "gone", "01000000003")
	require.NoError(t, db.DeactivateMember(ctx, gone.ID))

	members, err := db.ListRankable(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, ok.ID, members[0].ID)
}

// =========================================================================
// APPROVE / DEACTIVATE
// =========================================================================

func TestApproveMember(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := &model.Member{Name: "new", Phone: "01000000001", PINHash: "x", Active: true}
	require.NoError(t, db.CreateMember(ctx, m))

	require.NoError(t, db.ApproveMember(ctx, m.ID))

	found, err := db.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, found.Approved)

	assert.True(t, errors.Is(db.ApproveMember(ctx, "missing"), apperror.ErrNotFound))
}

func TestDeactivateMember_KeepsRowAndStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := createTestMember(t, db, "leaving", "01000000001")
	setStats(t, db, m.ID, model.Stats{RankPoint: 9, Wins: 3})

	require.NoError(t, db.DeactivateMember(ctx, m.ID))

	found, err := db.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)
	assert.Equal(t, 9, found.RankPoint)

	err = db.DeactivateMember(ctx, m.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "deactivating twice should be NotFound")
}
