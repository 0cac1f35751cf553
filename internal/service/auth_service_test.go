package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/model"
	"crop-irrigation-tracker/internal/repository"
)

func newTestAuthService(t *testing.T) AuthService {
	db := setupTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), "test-secret", time.Hour, zap.NewNop())
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"missing username", "", "a@example.com", "pw"},
		{"missing email", "alice", "", "pw"},
		{"missing password", "alice", "a@example.com", ""},
		{"email without domain", "alice", "alice@", "pw"},
		{"email without tld", "alice", "alice@example", "pw"},
		{"email with spaces", "alice", "al ice@example.com", "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t)
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegister_DuplicateUsernameOrEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "secret")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "secret", user.Password)

	_, err = svc.Register(ctx, "alice", "other@example.com", "secret")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(ctx, "bob", "alice@example.com", "secret")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestVerify(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice.b@farm-mail.co", "secret")
	require.NoError(t, err)

	user, err := svc.Verify(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Verify(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Verify(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokens(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "secret")
	require.NoError(t, err)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = svc.ParseToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	other := NewAuthService(nil, "another-secret", time.Hour, zap.NewNop())
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseToken_Expired(t *testing.T) {
	svc := NewAuthService(nil, "test-secret", time.Hour, zap.NewNop()).(*authService)
	svc.now = fixedClock(time.Now().Add(-2 * time.Hour))

	token, err := svc.IssueToken(&model.User{ID: 7, Username: "old"})
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
