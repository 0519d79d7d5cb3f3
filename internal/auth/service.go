package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/logger"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/token"
)

// AdminCredentials is the administrator pair read from configuration.
// The administrator has no row in the accounts table.
type AdminCredentials struct {
	Username string
	Password string
}

type LoginResult struct {
	Token string           `json:"token"`
	User  *models.Identity `json:"user"`
}

// Service authenticates presented credentials against stored accounts and
// the configured administrator.
type Service struct {
	db     *gorm.DB
	tokens *token.Service
	admin  AdminCredentials
	google GoogleVerifier

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(db *gorm.DB, tokens *token.Service, admin AdminCredentials, google GoogleVerifier) *Service {
	return &Service{
		db:     db,
		tokens: tokens,
		admin:  admin,
		google: google,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks an email/password pair. Unknown email and wrong password
// return the same error. A correct password for an institution that is not
// approved yet returns a pending-approval error carrying the status.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	acc, err := s.findByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.burnCompare(password)
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}

	if acc.PasswordHash == nil {
		s.burnCompare(password)
		return nil, apperr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*acc.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	return s.grant(acc)
}

// LoginGoogle signs in an existing account by a verified Google ID token.
func (s *Service) LoginGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	if s.google == nil {
		return nil, apperr.Configuration(errors.New("GOOGLE_CLIENT_ID is not set"))
	}

	email, err := s.google.Verify(ctx, idToken)
	if err != nil {
		logger.With("provider", "google").Debug("id token rejected", "error", err.Error())
		return nil, apperr.ErrInvalidCredentials
	}

	acc, err := s.findByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	return s.grant(acc)
}

// LoginAdmin checks the configured administrator pair in constant time.
func (s *Service) LoginAdmin(username, password string) (*LoginResult, error) {
	if s.admin.Username == "" || s.admin.Password == "" {
		return nil, apperr.Configuration(errors.New("admin credentials are not configured"))
	}

	userOK := constantTimeEqual(username, s.admin.Username)
	passOK := constantTimeEqual(password, s.admin.Password)
	if !userOK || !passOK {
		return nil, apperr.ErrInvalidCredentials
	}

	tok, err := s.tokens.IssueAdmin(s.admin.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, User: AdminIdentity(s.admin.Username)}, nil
}

// Verify resolves a token to the identity it proves. Any failure, including
// an account that no longer exists, yields nil.
func (s *Service) Verify(ctx context.Context, raw string) *models.Identity {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil
	}

	if claims.Kind == token.KindAdmin {
		return AdminIdentity(claims.Email)
	}

	var acc models.Account
	if err := s.db.WithContext(ctx).First(&acc, claims.AccountID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithError(err).Warn("verify: account lookup failed", "account_id", claims.AccountID)
		}
		return nil
	}
	return acc.Identity()
}

func AdminIdentity(username string) *models.Identity {
	return &models.Identity{
		Email:  username,
		Handle: username,
		Name:   "Administrator",
		Role:   models.RoleAdmin,
	}
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	err := s.db.WithContext(ctx).
		Preload("Institution").
		Where("email = ?", email).
		First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("auth: find account: %w", err)
	}
	return &acc, nil
}

func (s *Service) grant(acc *models.Account) (*LoginResult, error) {
	if inst := acc.Institution; inst != nil && inst.Status != models.StatusApproved {
		return nil, apperr.PendingApproval(inst.Status, inst.StatusReason)
	}

	tok, err := s.tokens.Issue(acc.ID, acc.Email, acc.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, User: acc.Identity()}, nil
}

// burnCompare spends the same bcrypt work as a real comparison so response
// timing does not reveal whether the email exists.
func (s *Service) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("presentsir-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func constantTimeEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}

// HashPassword hashes a password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
