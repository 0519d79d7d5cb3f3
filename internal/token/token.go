package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jattu8602/presentsirweb-sub001/internal/models"
)

const DefaultTTL = 24 * time.Hour

// Kind separates tokens minted for accounts from those minted for the
// config-backed administrator.
type Kind string

const (
	KindAccount Kind = "account"
	KindAdmin   Kind = "admin"
)

var (
	ErrMissingSecret    = errors.New("token: signing secret is not configured")
	ErrMalformed        = errors.New("token: malformed")
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrExpired          = errors.New("token: expired")
)

type Claims struct {
	AccountID uint        `json:"account_id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Kind      Kind        `json:"kind"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() *models.Identity {
	return &models.Identity{
		ID:    c.AccountID,
		Email: c.Email,
		Role:  c.Role,
	}
}

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) Issue(accountID uint, email string, role models.Role) (string, error) {
	return s.sign(&Claims{
		AccountID: accountID,
		Email:     email,
		Role:      role,
		Kind:      KindAccount,
	}, strconv.FormatUint(uint64(accountID), 10))
}

// IssueAdmin mints a token for the administrator configured in the
// environment. It has no account row, so AccountID stays zero.
func (s *Service) IssueAdmin(username string) (string, error) {
	return s.sign(&Claims{
		Email: username,
		Role:  models.RoleAdmin,
		Kind:  KindAdmin,
	}, "admin:"+username)
}

func (s *Service) sign(claims *Claims, subject string) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

func (s *Service) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSignature
	default:
		return nil, ErrMalformed
	}

	if !claims.Role.Valid() {
		return nil, ErrMalformed
	}
	return claims, nil
}
