// Package auth implements the session manager: signup, login, session
// restore and logout over the persistent credential store.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sahana-ai/assistant-platform/internal/model"
	"github.com/sahana-ai/assistant-platform/internal/store"
	"github.com/sahana-ai/assistant-platform/pkg/logger"
)

// Service validates credentials and tracks session markers.
type Service struct {
	store     *store.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *logger.Logger
}

// NewService creates a new auth service.
func NewService(st *store.Store, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		store:     st,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    log,
	}
}

// SignUp registers a new user. Credentials are stored as bcrypt hashes,
// never plaintext. On success a session marker is persisted and a bearer
// token issued.
func (s *Service) SignUp(username, password string) (*model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, ErrValidation
	}

	exists, err := s.store.HasCredential(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check credential: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.PutCredential(username, string(hash)); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	s.logger.Info("user registered", zap.String("username", username))

	return s.openSession(username)
}

// LogIn authenticates an existing user and opens a session.
func (s *Service) LogIn(username, password string) (*model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, ErrValidation
	}

	hash, found, err := s.store.GetCredential(username)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	if !found {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(username)
}

// Restore rebuilds the session identified by a bearer token. It returns nil
// without error when no session marker survives: an expired token, a logout
// on another tab, or a corrupted marker all fail open to the logged-out
// state.
func (s *Service) Restore(token string) (*model.User, error) {
	username, err := s.ParseToken(token)
	if err != nil {
		return nil, nil
	}

	rec, err := s.store.GetSession(username)
	if err != nil {
		return nil, fmt.Errorf("failed to read session marker: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	return &model.User{Username: rec.Username}, nil
}

// LogOut removes the persisted session marker. The stored credential is
// untouched.
func (s *Service) LogOut(username string) error {
	if err := s.store.DeleteSession(username); err != nil {
		return fmt.Errorf("failed to delete session marker: %w", err)
	}
	s.logger.Info("user logged out", zap.String("username", username))
	return nil
}

// ParseToken validates a bearer token and returns its subject username.
func (s *Service) ParseToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *Service) openSession(username string) (*model.Session, error) {
	now := time.Now()

	if err := s.store.PutSession(&model.SessionRecord{
		Username: username,
		IssuedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist session marker: %w", err)
	}

	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &model.Session{
		User:  model.User{Username: username},
		Token: token,
	}, nil
}
