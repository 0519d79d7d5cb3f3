package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/auth"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/school"
)

const DefaultTimeout = 10 * time.Second

// API is the server surface the session needs.
type API interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	AdminLogin(ctx context.Context, username, password string) (*auth.LoginResult, error)
	Verify(ctx context.Context, token string) (*models.Identity, error)
	Register(ctx context.Context, req *school.RegisterRequest) (*school.RegisterResult, error)
	Logout(ctx context.Context, token string) error
}

// Client talks to the HTTP API with the fiber client agent. Every call is
// bounded by Timeout. Error responses come back as *apperr.Error so callers
// can match them with errors.Is against the apperr sentinels.
type Client struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Timeout: timeout}
}

func (c *Client) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	var out auth.LoginResult
	body := auth.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminLogin(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	var out auth.LoginResult
	body := auth.AdminLoginRequest{Username: username, Password: password}
	if err := c.do(ctx, fiber.MethodPost, "/api/admin/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify resolves account and administrator tokens alike.
func (c *Client) Verify(ctx context.Context, token string) (*models.Identity, error) {
	var out struct {
		User *models.Identity `json:"user"`
	}
	if err := c.do(ctx, fiber.MethodGet, "/api/auth/verify", token, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, apperr.ErrUnauthorized
	}
	return out.User, nil
}

func (c *Client) Register(ctx context.Context, req *school.RegisterRequest) (*school.RegisterResult, error) {
	var out school.RegisterResult
	if err := c.do(ctx, fiber.MethodPost, "/api/schools/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, fiber.MethodPost, "/api/auth/logout", token, nil, nil)
}

type errorBody struct {
	Error  string            `json:"error"`
	Code   apperr.Code       `json:"code"`
	Fields map[string]string `json:"fields"`
	Status string            `json:"status"`
	Reason string            `json:"reason"`
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var a *fiber.Agent
	url := c.BaseURL + path
	switch method {
	case fiber.MethodGet:
		a = fiber.Get(url)
	case fiber.MethodPost:
		a = fiber.Post(url)
	default:
		return fmt.Errorf("session: unsupported method %s", method)
	}

	timeout := c.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	a.Timeout(timeout)

	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		a.JSON(body)
	}
	if err := a.Parse(); err != nil {
		return fmt.Errorf("session: %s %s: %w", method, path, err)
	}

	code, resp, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("session: %s %s: %w", method, path, errors.Join(errs...))
	}
	if code >= fiber.StatusBadRequest {
		return decodeError(code, resp)
	}
	if out == nil || len(resp) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("session: decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(status int, resp []byte) error {
	var b errorBody
	if err := json.Unmarshal(resp, &b); err != nil || b.Code == "" {
		code := apperr.CodeInternal
		switch status {
		case fiber.StatusUnauthorized:
			code = apperr.CodeUnauthorized
		case fiber.StatusForbidden:
			code = apperr.CodeForbidden
		}
		msg := b.Error
		if msg == "" {
			msg = fiber.ErrInternalServerError.Message
		}
		return apperr.New(code, msg, status)
	}

	if b.Code == apperr.CodePendingApproval {
		e := apperr.PendingApproval(models.ApprovalStatus(b.Status), b.Reason)
		e.Message = b.Error
		return e
	}
	e := apperr.New(b.Code, b.Error, status)
	e.Fields = b.Fields
	return e
}
