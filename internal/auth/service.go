package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/luigy23/BackComandapp/internal/apperr"
)

const defaultTokenTTL = 24 * time.Hour

const invalidCredentialsMessage = "invalid credentials"

// CredentialStore is the persistence surface the service needs. FindByEmail
// returns nil without error when no record exists.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user User) (*User, error)
}

type Service struct {
	store     CredentialStore
	attempts  *AttemptTracker
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewService(store CredentialStore, attempts *AttemptTracker, jwtSecret string) *Service {
	return &Service{
		store:     store,
		attempts:  attempts,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  defaultTokenTTL,
	}
}

func (s *Service) WithTokenTTL(ttl time.Duration) {
	if ttl > 0 {
		s.tokenTTL = ttl
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	RoleID   string
}

// Register creates an account and returns a signed token for it. Emails are
// compared case-sensitively.
func (s *Service) Register(ctx context.Context, input RegisterInput) (string, error) {
	email := strings.TrimSpace(input.Email)

	// Any existing record conflicts, active or not: users.email is unique
	// and deactivated accounts keep their row.
	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindInternal, "look up account")
	}
	if existing != nil {
		return "", apperr.New(apperr.KindDuplicate, "an account with that email already exists")
	}

	if check := ValidatePassword(input.Password); !check.Valid {
		policyErr := apperr.New(apperr.KindValidation, "invalid password: "+strings.Join(check.Errors, ", "))
		policyErr.Details = check.Errors
		return "", policyErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindInternal, "hash password")
	}

	user, err := s.store.Create(ctx, User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       input.RoleID,
		IsActive:     true,
	})
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindInternal, "create account")
	}

	return s.issueToken(user)
}

// Login verifies credentials and returns a signed token. Unknown emails and
// wrong passwords fail identically so callers cannot enumerate accounts,
// and both paths count against the attempt tracker.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)

	if check := s.attempts.Check(email); !check.CanLogin {
		lockedErr := apperr.New(apperr.KindLocked, check.Message)
		lockedErr.RetryAfter = check.RetryAfter
		return "", lockedErr
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindInternal, "look up account")
	}
	if user == nil {
		s.attempts.RecordFailure(email)
		return "", apperr.New(apperr.KindAuth, invalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.attempts.RecordFailure(email)
		return "", apperr.New(apperr.KindAuth, invalidCredentialsMessage)
	}

	s.attempts.Reset(email)

	return s.issueToken(user)
}

func (s *Service) issueToken(user *User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"id":      user.ID,
		"email":   user.Email,
		"role_id": user.RoleID,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindInternal, "sign token")
	}

	return encoded, nil
}
