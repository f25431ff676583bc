package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Password policy.
const (
	MinPasswordLength = 8
	// bcrypt only uses the first 72 bytes of its input.
	MaxPasswordBytes = 72
)

type registerForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// PasswordService registers and authenticates email and password accounts.
type PasswordService struct {
	store     CredentialStore
	cost      int
	validate  *validator.Validate
	dummyHash []byte
}

// NewPasswordService creates the service. cost is the bcrypt work factor.
func NewPasswordService(store CredentialStore, cost int) (*PasswordService, error) {
	// Compared against when the email is unknown so that both failure paths
	// spend the same bcrypt time.
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("streamlink-timing-equalizer"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}

	return &PasswordService{
		store:     store,
		cost:      cost,
		validate:  validator.New(),
		dummyHash: dummyHash,
	}, nil
}

// Register creates a password account.
//
// Errors:
//   - *models.ValidationError: malformed email, or a password outside the
//     policy (also matches models.ErrWeakPassword)
//   - models.ErrDuplicateEmail: the email is taken
//   - models.ErrStoreUnavailable: the credential store failed
func (s *PasswordService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	if err := s.validateForm(registerForm{Email: email, Password: password}); err != nil {
		return nil, err
	}
	if len(password) > MaxPasswordBytes {
		return nil, &models.ValidationError{Field: "password", Message: "Password must be at most 72 bytes"}
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The store re-checks uniqueness; a concurrent registration can still
	// surface here as ErrDuplicateEmail.
	user, err := s.store.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Msg("User registered")

	return user, nil
}

// Login verifies an email and password.
//
// Errors:
//   - *models.ValidationError: malformed email or empty password
//   - models.ErrInvalidCredentials: unknown email or wrong password
//   - models.ErrGoogleOnlyAccount: the account has no password
//   - models.ErrStoreUnavailable: the credential store failed
func (s *PasswordService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	if err := s.validateForm(loginForm{Email: email, Password: password}); err != nil {
		return nil, err
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, models.ErrInvalidCredentials
	}

	if !user.HasPassword() {
		return nil, models.ErrGoogleOnlyAccount
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return user, nil
}

// validateForm converts the first validator failure into a ValidationError.
func (s *PasswordService) validateForm(form interface{}) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return &models.ValidationError{Field: "email", Message: "Email is required"}
		}
		return &models.ValidationError{Field: "email", Message: "Invalid email address"}
	default:
		switch fe.Tag() {
		case "required":
			return &models.ValidationError{Field: "password", Message: "Password is required"}
		case "min":
			return &models.ValidationError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}
		default:
			return &models.ValidationError{Field: "password", Message: "Password must be at most 72 characters"}
		}
	}
}
