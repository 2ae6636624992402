package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/luigy23/BackComandapp/internal/apperr"
)

type fakeCredentialStore struct {
	users   map[string]*User
	findErr error
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{users: make(map[string]*User)}
}

func (s *fakeCredentialStore) FindByEmail(_ context.Context, email string) (*User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	user, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *fakeCredentialStore) Create(_ context.Context, user User) (*User, error) {
	user.ID = "user-" + user.Email
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	s.users[user.Email] = &user
	copied := user
	return &copied, nil
}

func (s *fakeCredentialStore) seed(t *testing.T, email, password, roleID string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s.users[email] = &User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       roleID,
		IsActive:     true,
	}
}

func newTestService(store *fakeCredentialStore) *Service {
	return NewService(store, NewAttemptTracker(5, 15*time.Minute), "test-secret")
}

func TestServiceRegisterIssuesToken(t *testing.T) {
	store := newFakeCredentialStore()
	service := newTestService(store)

	token, err := service.Register(context.Background(), RegisterInput{
		Name:     "Ana",
		Email:    "a@x.com",
		Password: "Strong1!",
		RoleID:   "role-waiter",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	assert.Equal(t, "a@x.com", claims["email"])
	assert.Equal(t, "role-waiter", claims["role_id"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp.Time, time.Minute)

	stored := store.users["a@x.com"]
	require.NotNil(t, stored)
	assert.True(t, stored.IsActive)
	assert.NotEqual(t, "Strong1!", stored.PasswordHash)
}

func TestServiceRegisterRejectsWeakPassword(t *testing.T) {
	service := newTestService(newFakeCredentialStore())

	_, err := service.Register(context.Background(), RegisterInput{
		Name:     "Ana",
		Email:    "a@x.com",
		Password: "Weak1",
		RoleID:   "role-waiter",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details, "password must be at least 8 characters long")
	assert.Contains(t, appErr.Details, "password must contain at least one special character")
}

func TestServiceRegisterRejectsDuplicate(t *testing.T) {
	store := newFakeCredentialStore()
	service := newTestService(store)

	input := RegisterInput{Name: "Ana", Email: "a@x.com", Password: "Strong1!", RoleID: "role-waiter"}
	_, err := service.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = service.Register(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicate, apperr.KindOf(err))
}

func TestServiceRegisterRejectsDeactivatedEmail(t *testing.T) {
	store := newFakeCredentialStore()
	store.seed(t, "a@x.com", "Strong1!", "role-waiter")
	store.users["a@x.com"].IsActive = false
	service := newTestService(store)

	// The row survives deactivation, so the email stays taken.
	_, err := service.Register(context.Background(), RegisterInput{
		Name:     "Ana",
		Email:    "a@x.com",
		Password: "Strong1!",
		RoleID:   "role-waiter",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicate, apperr.KindOf(err))
}

func TestServiceLoginSuccess(t *testing.T) {
	store := newFakeCredentialStore()
	store.seed(t, "a@x.com", "Strong1!", "role-waiter")
	service := newTestService(store)

	token, err := service.Login(context.Background(), "a@x.com", "Strong1!")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestServiceLoginFailuresAreIndistinguishable(t *testing.T) {
	store := newFakeCredentialStore()
	store.seed(t, "known@x.com", "Strong1!", "role-waiter")
	service := newTestService(store)

	_, unknownErr := service.Login(context.Background(), "unknown@x.com", "whatever")
	_, wrongErr := service.Login(context.Background(), "known@x.com", "wrong-password")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(unknownErr))
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(wrongErr))

	// Both paths counted a failure for their identifier.
	assert.Equal(t, 1, service.attempts.entries["unknown@x.com"].count)
	assert.Equal(t, 1, service.attempts.entries["known@x.com"].count)
}

func TestServiceLoginLocksAfterFiveFailures(t *testing.T) {
	store := newFakeCredentialStore()
	store.seed(t, "a@x.com", "Strong1!", "role-waiter")
	service := newTestService(store)

	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = service.Login(context.Background(), "a@x.com", "wrong")
		require.Error(t, lastErr)
	}
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(lastErr))

	// The sixth attempt is rejected before credentials are checked, even
	// with the right password.
	_, err := service.Login(context.Background(), "a@x.com", "Strong1!")
	require.Error(t, err)
	assert.Equal(t, apperr.KindLocked, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "blocked")
}

func TestServiceLoginResetsAttemptsOnSuccess(t *testing.T) {
	store := newFakeCredentialStore()
	store.seed(t, "a@x.com", "Strong1!", "role-waiter")
	service := newTestService(store)

	for i := 0; i < 4; i++ {
		_, err := service.Login(context.Background(), "a@x.com", "wrong")
		require.Error(t, err)
	}

	_, err := service.Login(context.Background(), "a@x.com", "Strong1!")
	require.NoError(t, err)
	assert.Nil(t, service.attempts.entries["a@x.com"])

	// The counter starts over after the reset.
	_, err = service.Login(context.Background(), "a@x.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, 1, service.attempts.entries["a@x.com"].count)
}

func TestServiceLoginStoreFailurePropagates(t *testing.T) {
	store := newFakeCredentialStore()
	store.findErr = errors.New("connection refused")
	service := newTestService(store)

	_, err := service.Login(context.Background(), "a@x.com", "Strong1!")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
