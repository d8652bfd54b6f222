package authpw

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kudos/api/internal/auth"
	"kudos/api/internal/store"
)

type fakeUserStore struct {
	getUserByEmailFn       func(ctx context.Context, email string) (store.User, error)
	createUserFn           func(ctx context.Context, user store.User, verificationToken string, verificationExpiresAt time.Time) (int64, error)
	consumeVerificationFn  func(ctx context.Context, token string) (bool, error)
	setVerificationFn      func(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	updateUserPasswordFn   func(ctx context.Context, userID int64, passwordHash string) error
	createPasswordResetFn  func(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error
	consumePasswordResetFn func(ctx context.Context, tokenHash string) (int64, error)
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user store.User, verificationToken string, verificationExpiresAt time.Time) (int64, error) {
	if f.createUserFn != nil {
		return f.createUserFn(ctx, user, verificationToken, verificationExpiresAt)
	}
	return 1, nil
}

func (f *fakeUserStore) ConsumeVerificationToken(ctx context.Context, token string) (bool, error) {
	if f.consumeVerificationFn != nil {
		return f.consumeVerificationFn(ctx, token)
	}
	return false, nil
}

func (f *fakeUserStore) SetVerificationToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if f.setVerificationFn != nil {
		return f.setVerificationFn(ctx, userID, token, expiresAt)
	}
	return nil
}

func (f *fakeUserStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	if f.updateUserPasswordFn != nil {
		return f.updateUserPasswordFn(ctx, userID, passwordHash)
	}
	return nil
}

func (f *fakeUserStore) CreatePasswordReset(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
	if f.createPasswordResetFn != nil {
		return f.createPasswordResetFn(ctx, tokenHash, userID, expiresAt)
	}
	return nil
}

func (f *fakeUserStore) ConsumePasswordReset(ctx context.Context, tokenHash string) (int64, error) {
	if f.consumePasswordResetFn != nil {
		return f.consumePasswordResetFn(ctx, tokenHash)
	}
	return 0, sql.ErrNoRows
}

func TestRegister(t *testing.T) {
	var created store.User
	fs := &fakeUserStore{
		createUserFn: func(ctx context.Context, user store.User, verificationToken string, verificationExpiresAt time.Time) (int64, error) {
			created = user
			if verificationToken == "" {
				t.Error("expected a verification token to be generated")
			}
			if !verificationExpiresAt.After(time.Now()) {
				t.Error("expected verification expiry in the future")
			}
			return 7, nil
		},
	}
	svc := NewService(fs)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:       "Avery",
		Email:      "  Avery@Example.COM ",
		Password:   "hunter2hunter2",
		Department: "engineering",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if resp.UserID != 7 {
		t.Errorf("expected user id 7, got %d", resp.UserID)
	}
	if resp.VerificationToken == "" {
		t.Error("expected verification token in response")
	}
	if created.Email != "avery@example.com" {
		t.Errorf("expected email to be lowercased and trimmed, got %q", created.Email)
	}
	if created.Role != "employee" {
		t.Errorf("expected default role employee, got %q", created.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("hunter2hunter2")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(&fakeUserStore{})

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing name", RegisterRequest{Email: "a@b.co", Password: "longenough", Department: "sales"}},
		{"missing email", RegisterRequest{Name: "A", Password: "longenough", Department: "sales"}},
		{"missing department", RegisterRequest{Name: "A", Email: "a@b.co", Password: "longenough"}},
		{"short password", RegisterRequest{Name: "A", Email: "a@b.co", Password: "short", Department: "sales"}},
		{"unknown role", RegisterRequest{Name: "A", Email: "a@b.co", Password: "longenough", Department: "sales", Role: "superuser"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.req); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	fs := &fakeUserStore{
		getUserByEmailFn: func(ctx context.Context, email string) (store.User, error) {
			return store.User{ID: 1, Email: email}, nil
		},
	}
	svc := NewService(fs)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:       "Avery",
		Email:      "avery@example.com",
		Password:   "hunter2hunter2",
		Department: "engineering",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	fs := &fakeUserStore{
		getUserByEmailFn: func(ctx context.Context, email string) (store.User, error) {
			if email != "avery@example.com" {
				return store.User{}, sql.ErrNoRows
			}
			return store.User{ID: 3, Email: email, PasswordHash: string(hash), IsActive: true}, nil
		},
	}
	svc := NewService(fs)

	user, err := svc.SignIn(context.Background(), "avery@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if user.ID != 3 {
		t.Errorf("expected user 3, got %d", user.ID)
	}

	if _, err := svc.SignIn(context.Background(), "avery@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.SignIn(context.Background(), "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSignInDeactivated(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	fs := &fakeUserStore{
		getUserByEmailFn: func(ctx context.Context, email string) (store.User, error) {
			return store.User{ID: 3, Email: email, PasswordHash: string(hash), IsActive: false}, nil
		},
	}
	svc := NewService(fs)

	if _, err := svc.SignIn(context.Background(), "avery@example.com", "correct-horse"); !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	fs := &fakeUserStore{
		consumeVerificationFn: func(ctx context.Context, token string) (bool, error) {
			return token == "good-token", nil
		},
	}
	svc := NewService(fs)

	if err := svc.VerifyEmail(context.Background(), "good-token"); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if err := svc.VerifyEmail(context.Background(), "bad-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := svc.VerifyEmail(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestResendVerificationIssuesFreshToken(t *testing.T) {
	var storedToken string
	fs := &fakeUserStore{
		getUserByEmailFn: func(ctx context.Context, email string) (store.User, error) {
			return store.User{ID: 5, Name: "Avery", Email: email, IsActive: true}, nil
		},
		setVerificationFn: func(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
			if userID != 5 {
				t.Errorf("expected user 5, got %d", userID)
			}
			if !expiresAt.After(time.Now()) {
				t.Error("expected expiry in the future")
			}
			storedToken = token
			return nil
		},
	}
	svc := NewService(fs)

	token, user, err := svc.ResendVerification(context.Background(), "avery@example.com")
	if err != nil {
		t.Fatalf("ResendVerification() error = %v", err)
	}
	if token == "" || token != storedToken {
		t.Fatalf("expected the stored token back, got %q (stored %q)", token, storedToken)
	}
	if user.ID != 5 {
		t.Errorf("expected the account back for email delivery, got %+v", user)
	}
}

func TestResendVerificationSilentCases(t *testing.T) {
	// Unknown email: no error, no token.
	svc := NewService(&fakeUserStore{})
	token, _, err := svc.ResendVerification(context.Background(), "nobody@example.com")
	if err != nil || token != "" {
		t.Fatalf("expected silent empty result for unknown email, got %q, %v", token, err)
	}

	// Already verified: no new token issued.
	svc = NewService(&fakeUserStore{
		getUserByEmailFn: func(ctx context.Context, email string) (store.User, error) {
			return store.User{ID: 5, Email: email, IsActive: true, IsEmailVerified: true}, nil
		},
		setVerificationFn: func(context.Context, int64, string, time.Time) error {
			t.Error("no token should be stored for a verified account")
			return nil
		},
	})
	token, _, err = svc.ResendVerification(context.Background(), "avery@example.com")
	if err != nil || token != "" {
		t.Fatalf("expected silent empty result for verified account, got %q, %v", token, err)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc := NewService(&fakeUserStore{})

	token, _, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token for unknown email, got %q", token)
	}
}

func TestRequestPasswordResetStoresHash(t *testing.T) {
	var storedHash string
	fs := &fakeUserStore{
		getUserByEmailFn: func(ctx context.Context, email string) (store.User, error) {
			return store.User{ID: 5, Email: email, IsActive: true}, nil
		},
		createPasswordResetFn: func(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
			storedHash = tokenHash
			if userID != 5 {
				t.Errorf("expected user 5, got %d", userID)
			}
			return nil
		},
	}
	svc := NewService(fs)

	token, user, err := svc.RequestPasswordReset(context.Background(), "avery@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}
	if user.ID != 5 {
		t.Errorf("expected the account back for email delivery, got %+v", user)
	}
	if storedHash != auth.HashToken(token) {
		t.Error("expected the stored value to be the hash of the issued token")
	}
	if storedHash == token {
		t.Error("raw token must not be stored")
	}
}

func TestResetPassword(t *testing.T) {
	var newHash string
	fs := &fakeUserStore{
		consumePasswordResetFn: func(ctx context.Context, tokenHash string) (int64, error) {
			if tokenHash == auth.HashToken("good-token") {
				return 5, nil
			}
			return 0, sql.ErrNoRows
		},
		updateUserPasswordFn: func(ctx context.Context, userID int64, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}
	svc := NewService(fs)

	if err := svc.ResetPassword(context.Background(), "good-token", "new-password-1"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(newHash), []byte("new-password-1")); err != nil {
		t.Errorf("updated hash does not match new password: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), "stale-token", "new-password-1"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for unknown token, got %v", err)
	}
	if err := svc.ResetPassword(context.Background(), "good-token", "short"); err == nil {
		t.Error("expected error for short password")
	}
}
