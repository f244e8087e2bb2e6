package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmart/storefront/internal/model"
)

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Upsert(_ context.Context, user *model.User) error {
	if existing, ok := m.users[user.ID]; ok {
		existing.Email = user.Email
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.ProfileImageURL = user.ProfileImageURL
		existing.UpdatedAt = time.Now()
		*user = *existing
		return nil
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func newTestAuthService(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, nil, nil, "test-secret", time.Hour)
}

func parseSessionClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestAuthService_CompleteLogin_NewUser(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.completeLogin(context.Background(), &googleProfile{
		ID:         "sub-123",
		Email:      "ada@example.com",
		GivenName:  "Ada",
		FamilyName: "Lovelace",
		Picture:    "https://example.com/ada.png",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "sub-123", resp.User.ID)
	assert.Equal(t, "Ada Lovelace", resp.User.FullName)
	assert.False(t, resp.User.IsAdmin)

	claims := parseSessionClaims(t, resp.Token)
	assert.Equal(t, "sub-123", claims["sub"])
	assert.Equal(t, false, claims["admin"])
}

func TestAuthService_CompleteLogin_KeepsAdminFlag(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["sub-admin"] = &model.User{ID: "sub-admin", Email: "old@example.com", IsAdmin: true}
	svc := newTestAuthService(repo)

	resp, err := svc.completeLogin(context.Background(), &googleProfile{
		ID:    "sub-admin",
		Email: "new@example.com",
	})
	require.NoError(t, err)
	assert.True(t, resp.User.IsAdmin, "a login refresh must not clear the admin flag")
	assert.Equal(t, "new@example.com", repo.users["sub-admin"].Email)

	claims := parseSessionClaims(t, resp.Token)
	assert.Equal(t, true, claims["admin"])
}

func TestAuthService_CompleteLogin_NoSubject(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo())
	_, err := svc.completeLogin(context.Background(), &googleProfile{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, ErrNoSubject)
}
