package auth

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aidetectsai/detector-api/logger"
)

// Classified token validation failures. Callers distinguish them with
// errors.Is; all of them collapse to a 401 at the transport boundary but
// are logged under their own class.
var (
	// ErrTokenEmpty is returned for an empty token string.
	ErrTokenEmpty = errors.New("auth: token is empty")
	// ErrTokenExpired is returned when the token is past its expiry.
	ErrTokenExpired = errors.New("auth: token is expired")
	// ErrTokenMalformed is returned when the token is not a well-formed JWT.
	ErrTokenMalformed = errors.New("auth: token is malformed")
	// ErrTokenSignatureInvalid is returned when the signature does not verify.
	ErrTokenSignatureInvalid = errors.New("auth: token signature is invalid")
)

// TokenConfig configures the session token service.
type TokenConfig struct {
	// Secret is the HMAC signing key.
	Secret string `yaml:"secret" mapstructure:"secret"`

	// TTL is the lifetime of issued tokens (default: 1h).
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ApplyDefaults fills in zero-value fields.
func (c *TokenConfig) ApplyDefaults() {
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
}

// Validate checks required fields.
func (c *TokenConfig) Validate() error {
	if c.Secret == "" {
		return errors.New("auth: jwt secret is required")
	}
	return nil
}

// TokenService issues and validates HS256 session tokens carrying the
// subject login. The signing secret sits behind an atomic pointer so Rekey
// swaps it without a lock; concurrent Issue/Valid calls see either the old
// or the new secret, never a torn one.
type TokenService struct {
	secret atomic.Pointer[[]byte]
	ttl    time.Duration
	log    *logger.Logger
}

// NewTokenService creates a token service from configuration.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &TokenService{
		ttl: cfg.TTL,
		log: logger.WithComponent("token"),
	}
	key := []byte(cfg.Secret)
	s.secret.Store(&key)
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for the given subject. The subject is
// embedded as-is, including when empty; validating the login belongs to
// the caller.
func (s *TokenService) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(*s.secret.Load())
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}

	s.log.Debug("issued session token", map[string]interface{}{"subject": subject})
	return signed, nil
}

// ParseSubject verifies signature and expiry and returns the embedded
// subject. Failures are classified: ErrTokenEmpty, ErrTokenExpired,
// ErrTokenMalformed or ErrTokenSignatureInvalid.
func (s *TokenService) ParseSubject(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrTokenEmpty
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", classify(err)
	}

	return claims.Subject, nil
}

// Valid reports whether the token verifies and is not expired. The failure
// class is logged; Valid itself never propagates an error.
func (s *TokenService) Valid(tokenString string) bool {
	if _, err := s.ParseSubject(tokenString); err != nil {
		s.log.Debug("token rejected", map[string]interface{}{"reason": err.Error()})
		return false
	}
	return true
}

// Rekey atomically replaces the signing secret. Every previously issued
// token fails signature verification afterwards.
func (s *TokenService) Rekey(secret string) error {
	if secret == "" {
		return errors.New("auth: new jwt secret must not be empty")
	}
	key := []byte(secret)
	s.secret.Store(&key)
	s.log.Warn("signing secret replaced; all outstanding tokens invalidated")
	return nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unexpected signing method: %s", token.Method.Alg())
	}
	return *s.secret.Load(), nil
}

// classify maps golang-jwt parse failures onto the service's error classes.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
