// Package authpw provides email/password authentication with verification.
package authpw

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kudos/api/internal/access"
	"kudos/api/internal/auth"
	"kudos/api/internal/store"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateUser(ctx context.Context, user store.User, verificationToken string, verificationExpiresAt time.Time) (int64, error)
	ConsumeVerificationToken(ctx context.Context, token string) (bool, error)
	SetVerificationToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
	CreatePasswordReset(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, tokenHash string) (int64, error)
}

// Service provides email/password authentication
type Service struct {
	store UserStore
}

// NewService creates a new auth service
func NewService(userStore UserStore) *Service {
	return &Service{store: userStore}
}

// RegisterRequest contains registration parameters
type RegisterRequest struct {
	Name       string
	Email      string
	Password   string
	Department string
	Role       string
}

// RegisterResponse contains registration result
type RegisterResponse struct {
	UserID            int64
	Email             string
	VerificationToken string
}

// Register creates a new user account. The role defaults to employee and
// anything outside the known set is rejected.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	department := strings.TrimSpace(req.Department)

	if name == "" || email == "" || req.Password == "" || department == "" {
		return nil, errors.New("name, email, password, and department are required")
	}
	if len(req.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	role := req.Role
	if role == "" {
		role = string(access.RoleEmployee)
	}
	if !access.Valid(role) {
		return nil, fmt.Errorf("invalid role %q", req.Role)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	verificationToken, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	userID, err := s.store.CreateUser(ctx, store.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Department:   department,
		Role:         role,
	}, verificationToken, time.Now().Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &RegisterResponse{
		UserID:            userID,
		Email:             email,
		VerificationToken: verificationToken,
	}, nil
}

// SignIn authenticates a user by email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.User, error) {
	if email == "" || password == "" {
		return store.User{}, errors.New("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return store.User{}, ErrAccountDeactivated
	}
	return user, nil
}

// VerifyEmail marks the account matching the token as verified. A token that
// was already consumed still succeeds as long as it has not expired.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("verification token required")
	}
	ok, err := s.store.ConsumeVerificationToken(ctx, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if !ok {
		return ErrInvalidToken
	}
	return nil
}

// RequestPasswordReset creates a reset token for the account, if it exists,
// and returns the account so the caller can address the email. The empty
// return for an unknown email keeps account existence private.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, store.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", store.User{}, nil
	}

	token, err := generateToken()
	if err != nil {
		return "", store.User{}, err
	}
	if err := s.store.CreatePasswordReset(ctx, auth.HashToken(token), user.ID, time.Now().Add(1*time.Hour)); err != nil {
		return "", store.User{}, err
	}
	return token, user, nil
}

// ResendVerification issues a fresh verification token for an unverified
// account. Unknown emails and already-verified accounts yield an empty token
// without error so the endpoint reveals nothing about account state.
func (s *Service) ResendVerification(ctx context.Context, email string) (string, store.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", store.User{}, nil
	}
	if user.IsEmailVerified {
		return "", store.User{}, nil
	}

	token, err := generateToken()
	if err != nil {
		return "", store.User{}, err
	}
	if err := s.store.SetVerificationToken(ctx, user.ID, token, time.Now().Add(24*time.Hour)); err != nil {
		return "", store.User{}, err
	}
	return token, user, nil
}

// ResetPassword sets a new password using a single-use reset token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return errors.New("token and new password are required")
	}
	if len(newPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	userID, err := s.store.ConsumePasswordReset(ctx, auth.HashToken(token))
	if err != nil {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// generateToken creates a secure random token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
