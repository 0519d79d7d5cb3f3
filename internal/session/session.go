// Package session holds the signed-in identity on the client side. The
// identity is derived from a persisted token and is re-verified against the
// server at start-up.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/guard"
	"github.com/jattu8602/presentsirweb-sub001/internal/logger"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/school"
)

var ErrInvalidCredentials = errors.New("session: invalid credentials")

// PendingError is returned by Login while the account's institution has not
// been approved. No token is stored in that case.
type PendingError struct {
	Status models.ApprovalStatus
	Reason string
}

func (e *PendingError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("session: institution %s: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("session: institution %s", e.Status)
}

func (e *PendingError) Is(target error) bool {
	return target == apperr.ErrPendingApproval
}

// Result tells the caller where to go next. Credentials is only set after a
// registration and is not kept anywhere else.
type Result struct {
	Identity    *models.Identity
	Next        string
	Credentials *school.Credentials
}

type Context struct {
	api   API
	store TokenStore

	mu       sync.RWMutex
	loading  bool
	identity *models.Identity
}

// New returns a Context in the loading state. Call Init before consulting
// the guard.
func New(api API, store TokenStore) *Context {
	return &Context{api: api, store: store, loading: true}
}

// Init verifies the stored token, if any. A token the server does not
// accept is discarded.
func (s *Context) Init(ctx context.Context) error {
	defer s.setLoading(false)

	tok, err := s.store.Load()
	if err != nil {
		return err
	}
	if tok == "" {
		return nil
	}

	id, err := s.api.Verify(ctx, tok)
	if err != nil || id == nil {
		if err != nil {
			logger.Debug("stored session rejected", "error", err.Error())
		}
		s.setIdentity(nil)
		return s.store.Clear()
	}
	s.setIdentity(id)
	return nil
}

func (s *Context) Login(ctx context.Context, email, password string) (*Result, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, loginError(err)
	}
	return s.establish(res.Token, res.User)
}

func (s *Context) AdminLogin(ctx context.Context, username, password string) (*Result, error) {
	res, err := s.api.AdminLogin(ctx, username, password)
	if err != nil {
		return nil, loginError(err)
	}
	return s.establish(res.Token, res.User)
}

// Register submits a completed registration. The new institution is
// pending, so no session is established; the chosen credentials are
// handed back once.
func (s *Context) Register(ctx context.Context, req *school.RegisterRequest) (*Result, error) {
	res, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	creds := res.Credentials
	return &Result{Identity: res.User, Next: guard.PendingRoute, Credentials: &creds}, nil
}

// Logout always ends the local session, whatever the server says.
func (s *Context) Logout(ctx context.Context) *Result {
	var role models.Role
	if id := s.Identity(); id != nil {
		role = id.Role
	}

	if tok, _ := s.store.Load(); tok != "" {
		if err := s.api.Logout(ctx, tok); err != nil {
			logger.Warn("logout request failed", "error", err.Error())
		}
	}
	s.clear()
	return &Result{Next: guard.LoginRouteFor(role)}
}

// HandleStatus reacts to the status code of any authenticated call. On 401
// or 403 the session is dropped and the login route returned.
func (s *Context) HandleStatus(code int) (string, bool) {
	if code != fiber.StatusUnauthorized && code != fiber.StatusForbidden {
		return "", false
	}
	var role models.Role
	if id := s.Identity(); id != nil {
		role = id.Role
	}
	s.clear()
	return guard.LoginRouteFor(role), true
}

func (s *Context) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Context) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Context) State() guard.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return guard.State{Loading: s.loading, Identity: s.identity}
}

// Token returns the persisted token for authenticated calls.
func (s *Context) Token() string {
	tok, _ := s.store.Load()
	return tok
}

// establish persists the token before publishing the identity.
func (s *Context) establish(tok string, id *models.Identity) (*Result, error) {
	if tok == "" || id == nil {
		return nil, errors.New("session: login response missing token or user")
	}
	if err := s.store.Save(tok); err != nil {
		return nil, err
	}
	s.setIdentity(id)
	return &Result{Identity: id, Next: guard.LandingRoute(id.Role)}, nil
}

func (s *Context) clear() {
	if err := s.store.Clear(); err != nil {
		logger.Warn("clear session token", "error", err.Error())
	}
	s.setIdentity(nil)
}

func (s *Context) setIdentity(id *models.Identity) {
	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
}

func (s *Context) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func loginError(err error) error {
	if e, ok := apperr.As(err); ok {
		switch e.Code {
		case apperr.CodePendingApproval:
			pe := &PendingError{}
			if st, ok := e.Extra["status"]; ok {
				pe.Status = models.ApprovalStatus(fmt.Sprint(st))
			}
			if r, ok := e.Extra["reason"]; ok {
				pe.Reason = fmt.Sprint(r)
			}
			return pe
		case apperr.CodeInvalidCredentials:
			return ErrInvalidCredentials
		}
	}
	return err
}
