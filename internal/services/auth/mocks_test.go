package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pharm-courses/auth-service/internal/models"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) SetEmailVerified(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserRepoMock) SetRole(ctx context.Context, id, role string) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *UserRepoMock) SetBan(ctx context.Context, id string, banned bool, reason string, expires *time.Time) error {
	return m.Called(ctx, id, banned, reason, expires).Error(0)
}

func (m *UserRepoMock) ListUsers(ctx context.Context, search string, limit, offset int) ([]*models.User, int, error) {
	args := m.Called(ctx, search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.User), args.Int(1), args.Error(2)
}

type SessionRepoMock struct {
	mock.Mock
}

func (m *SessionRepoMock) CreateSession(ctx context.Context, session models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *SessionRepoMock) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *SessionRepoMock) ListSessionsByTokens(ctx context.Context, tokens []string) ([]*models.Session, error) {
	args := m.Called(ctx, tokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *SessionRepoMock) ListUserSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *SessionRepoMock) UpdateSessionExpiry(ctx context.Context, token string, expiresAt, updatedAt time.Time) error {
	return m.Called(ctx, token, expiresAt, updatedAt).Error(0)
}

func (m *SessionRepoMock) DeleteSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *SessionRepoMock) DeleteUserSessions(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type SessionCacheMock struct {
	mock.Mock
}

func (m *SessionCacheMock) GetSession(ctx context.Context, token string) (*models.SessionWithUser, bool, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.SessionWithUser), args.Bool(1), args.Error(2)
}

func (m *SessionCacheMock) SetSession(ctx context.Context, snapshot *models.SessionWithUser) error {
	return m.Called(ctx, snapshot).Error(0)
}

func (m *SessionCacheMock) InvalidateSessions(ctx context.Context, tokens ...string) error {
	return m.Called(ctx, tokens).Error(0)
}
