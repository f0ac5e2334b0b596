package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/detective-api/internal/domain/entity"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// MockTokenIssuer реализует TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(user *entity.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func newUserEnv(t *testing.T) (*UserService, *memStore, *MockTokenIssuer) {
	t.Helper()
	store := newMemStore()
	tokens := new(MockTokenIssuer)
	tokens.On("GenerateToken", mock.AnythingOfType("*entity.User")).Return("signed-token", nil)
	return NewUserService(fakeUserRepo{store}, fakeScoreLogRepo{store}, tokens), store, tokens
}

func TestUserService_Login_CreatesUser(t *testing.T) {
	svc, _, tokens := newUserEnv(t)

	resp, err := svc.Login(context.Background(), "  셜록  ", "탐정")

	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, "셜록", resp.Nickname)
	assert.Equal(t, "탐정", resp.Role)
	assert.Equal(t, "detective", resp.RoleCode)
	assert.Equal(t, "signed-token", resp.Token)
	assert.False(t, resp.RoleMismatch)
	tokens.AssertNumberOfCalls(t, "GenerateToken", 1)
}

func TestUserService_Login_IsIdempotent(t *testing.T) {
	svc, _, _ := newUserEnv(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, "watson", "detective")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "watson", "")
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, first.RoleCode, second.RoleCode)
	assert.False(t, second.Created)
	assert.False(t, second.RoleMismatch)
}

func TestUserService_Login_RoleMismatchKeepsOriginalRole(t *testing.T) {
	svc, _, _ := newUserEnv(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "moriarty", "culprit")
	require.NoError(t, err)

	resp, err := svc.Login(ctx, "moriarty", "police")
	require.NoError(t, err)
	assert.True(t, resp.RoleMismatch)
	assert.Equal(t, "culprit", resp.RoleCode)
	assert.Equal(t, "police", resp.RequestedRole)
}

func TestUserService_Login_Errors(t *testing.T) {
	svc, _, _ := newUserEnv(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "a", "client")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Login(ctx, "abcdefghijklmnopqrstuvwxyz012345", "client")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Login(ctx, "newcomer", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Login(ctx, "newcomer", "butler")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUserService_Login_TokenFailure(t *testing.T) {
	store := newMemStore()
	tokens := new(MockTokenIssuer)
	tokens.On("GenerateToken", mock.Anything).Return("", errors.New("signing failed"))
	svc := NewUserService(fakeUserRepo{store}, fakeScoreLogRepo{store}, tokens)

	_, err := svc.Login(context.Background(), "lestrade", "police")

	assert.Error(t, err)
}

func TestUserService_Login_ConcurrentFirstLogins(t *testing.T) {
	svc, store, _ := newUserEnv(t)

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.Login(context.Background(), "hastings", "client")
			if assert.NoError(t, err) {
				ids[i] = resp.UserID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	users, err := fakeUserRepo{store}.ListByRole(context.Background(), entity.RoleClient)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_ListDetectivesAndScoreLogs(t *testing.T) {
	svc, store, _ := newUserEnv(t)
	ctx := context.Background()
	store.addUser(1, "sherlock", entity.RoleDetective)
	store.addUser(2, "poirot", entity.RoleDetective)
	store.addUser(3, "lestrade", entity.RolePolice)
	require.NoError(t, fakeUserRepo{store}.AddScore(ctx, 2, 10))

	detectives, err := svc.ListDetectives(ctx)
	require.NoError(t, err)
	require.Len(t, detectives, 2)
	assert.Equal(t, "poirot", detectives[0].Nickname)

	logRepo := fakeScoreLogRepo{store}
	for i := 0; i < 3; i++ {
		require.NoError(t, logRepo.Create(ctx, &entity.ScoreLog{UserID: 1, ActiveID: uint(10 + i), Delta: int64(i + 1), Reason: ReasonCaseCleared}))
	}

	page, err := svc.ScoreLogs(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Logs, 2)
	assert.Equal(t, int64(3), page.Logs[0].ScoreChange)

	_, err = svc.ScoreLogs(ctx, 999, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	me, err := svc.GetMe(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "경찰", me.Role)
}
