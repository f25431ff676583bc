package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
)

// SessionCookieName is the cookie that carries the signed session.
const SessionCookieName = utils.SessionCookieName

// SessionVault stores the server-side half of a session. RedisDB implements it.
type SessionVault interface {
	SaveSessionRecord(ctx context.Context, sessionID string, record *models.SessionRecord, ttl time.Duration) error
	GetSessionRecord(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	DeleteSessionRecord(ctx context.Context, sessionID string) error
}

// sessionClaims is the payload of the session cookie.
//
// JSON example:
//
//	{
//	  "sid": "6f1c2a9e-3b7d-4c1e-9a55-0d2f7b8e4a10",
//	  "user_id": "550e8400-e29b-41d4-a716-446655440000",
//	  "email": "user@example.com",
//	  "picture": "https://lh3.googleusercontent.com/...",
//	  "iat": 1715365800,
//	  "exp": 1715970600
//	}
type sessionClaims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Picture   string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// SessionInput describes a session to issue after a successful sign-in.
// Tokens is nil for password sign-ins.
type SessionInput struct {
	User      *models.User
	Tokens    *models.TokenBundle
	Device    string
	IPAddress string
}

// SessionService issues and reads StreamLink sessions.
//
// The cookie is an HS256-signed JWT with the user's identity and a session
// ID; the OAuth tokens stay in the vault under that ID. A cookie that fails
// signature or expiry checks is treated as absent.
type SessionService struct {
	secret []byte
	ttl    time.Duration
	vault  SessionVault
	now    func() time.Time
}

// NewSessionService creates a session issuer.
//
// Example:
//
//	sessionSvc := services.NewSessionService(cfg.Session.Secret, config.SessionTTL, redisDB)
func NewSessionService(secret []byte, ttl time.Duration, vault SessionVault) *SessionService {
	return &SessionService{
		secret: secret,
		ttl:    ttl,
		vault:  vault,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating sessions.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// TTL returns the session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a session and returns the signed cookie value. If the vault
// write fails no cookie value is returned.
func (s *SessionService) Issue(ctx context.Context, in SessionInput) (string, *models.Session, error) {
	if in.User == nil {
		return "", nil, errors.New("session requires a user")
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)
	sessionID := uuid.NewString()
	userID := in.User.ID.String()

	record := &models.SessionRecord{
		UserID:    userID,
		Tokens:    in.Tokens,
		Device:    in.Device,
		IPAddress: in.IPAddress,
		CreatedAt: issuedAt,
	}
	if err := s.vault.SaveSessionRecord(ctx, sessionID, record, s.ttl); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	claims := sessionClaims{
		SessionID: sessionID,
		UserID:    userID,
		Email:     in.User.Email,
		Picture:   in.User.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Bool("youtube", in.Tokens != nil).
		Msg("Session issued")

	return value, &models.Session{
		ID:        sessionID,
		UserID:    userID,
		Email:     in.User.Email,
		Picture:   in.User.Picture,
		Tokens:    in.Tokens,
		Device:    in.Device,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Read decodes a session cookie value. Malformed, tampered, expired and
// revoked values all yield nil. Issue always writes a vault record, so a
// missing record means the session was revoked. When the vault itself fails
// the session keeps its identity but carries no tokens.
func (s *SessionService) Read(ctx context.Context, value string) *models.Session {
	claims, err := s.parse(value, true)
	if err != nil {
		if value != "" {
			log.Debug().Err(err).Msg("Rejected session cookie")
		}
		return nil
	}

	session := &models.Session{
		ID:        claims.SessionID,
		UserID:    claims.UserID,
		Email:     claims.Email,
		Picture:   claims.Picture,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}

	record, err := s.vault.GetSessionRecord(ctx, claims.SessionID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to load session record")
		return session
	}
	if record == nil || record.UserID != claims.UserID {
		log.Debug().Str("user_id", claims.UserID).Msg("Session revoked or unknown")
		return nil
	}

	session.Tokens = record.Tokens
	session.Device = record.Device
	return session
}

// Revoke deletes the server-side record of a session. The cookie is no
// longer accepted by Read and its OAuth tokens are gone. Expired cookies are
// still revoked.
func (s *SessionService) Revoke(ctx context.Context, value string) error {
	claims, err := s.parse(value, false)
	if err != nil {
		return nil
	}

	if err := s.vault.DeleteSessionRecord(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	log.Info().Str("user_id", claims.UserID).Msg("Session revoked")
	return nil
}

func (s *SessionService) parse(value string, validate bool) (*sessionClaims, error) {
	if value == "" {
		return nil, errors.New("empty session")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if validate {
		opts = append(opts, jwt.WithExpirationRequired(), jwt.WithIssuedAt())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if claims.SessionID == "" || claims.UserID == "" {
		return nil, errors.New("session claims incomplete")
	}

	return claims, nil
}

// maxRawUserAgent caps an unparseable User-Agent kept as the device string.
const maxRawUserAgent = 100

// ExtractDeviceInfo turns a User-Agent header into a short description
// stored with the session, e.g. "Chrome 120.0.0.0 · Windows 10 · Desktop".
func ExtractDeviceInfo(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	ua := useragent.Parse(userAgent)

	var parts []string

	if ua.Name != "" {
		browser := ua.Name
		if ua.Version != "" {
			browser += " " + ua.Version
		}
		parts = append(parts, browser)
	}

	if ua.OS != "" {
		os := ua.OS
		if ua.OSVersion != "" {
			os += " " + ua.OSVersion
		}
		parts = append(parts, os)
	}

	switch {
	case ua.Mobile:
		parts = append(parts, "Mobile")
	case ua.Tablet:
		parts = append(parts, "Tablet")
	case ua.Desktop:
		parts = append(parts, "Desktop")
	}

	if len(parts) == 0 {
		return truncateRunes(userAgent, maxRawUserAgent)
	}

	return strings.Join(parts, " · ")
}

// truncateRunes cuts s to at most n runes, never inside a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
