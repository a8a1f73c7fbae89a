package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ideogrid/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrForbidden    = errors.New("token does not grant access to this session")
)

// AuthService issues and validates respondent tokens. A token is scoped to
// exactly one quiz session.
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// GenerateRespondentToken creates a session-scoped token
func (s *AuthService) GenerateRespondentToken(sessionID string) (string, error) {
	now := s.now()
	claims := &model.RespondentClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateRespondentToken validates a respondent JWT and returns claims
func (s *AuthService) ValidateRespondentToken(tokenString string) (*model.RespondentClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.RespondentClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.RespondentClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authorize checks that a token grants access to sessionID
func (s *AuthService) Authorize(tokenString, sessionID string) error {
	claims, err := s.ValidateRespondentToken(tokenString)
	if err != nil {
		return err
	}
	if claims.SessionID != sessionID {
		return ErrForbidden
	}
	return nil
}
