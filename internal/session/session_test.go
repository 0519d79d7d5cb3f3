package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/auth"
	"github.com/jattu8602/presentsirweb-sub001/internal/guard"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/school"
)

type fakeAPI struct {
	login     func(email, password string) (*auth.LoginResult, error)
	verify    func(token string) (*models.Identity, error)
	register  func(req *school.RegisterRequest) (*school.RegisterResult, error)
	logoutErr error
	loggedOut []string
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*auth.LoginResult, error) {
	return f.login(email, password)
}

func (f *fakeAPI) AdminLogin(_ context.Context, username, password string) (*auth.LoginResult, error) {
	if username == "root" && password == "toor" {
		return &auth.LoginResult{Token: "admin-token", User: auth.AdminIdentity("root")}, nil
	}
	return nil, apperr.ErrInvalidCredentials
}

func (f *fakeAPI) Verify(_ context.Context, token string) (*models.Identity, error) {
	return f.verify(token)
}

func (f *fakeAPI) Register(_ context.Context, req *school.RegisterRequest) (*school.RegisterResult, error) {
	return f.register(req)
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return f.logoutErr
}

var schoolUser = &models.Identity{ID: 3, Email: "head@school.edu", Handle: "head", Role: models.RoleSchool}

func TestInitWithoutToken(t *testing.T) {
	s := New(&fakeAPI{}, NewMemoryStore())
	assert.True(t, s.Loading())
	assert.Equal(t, guard.Checking, guard.Evaluate(s.State(), guard.Route{Path: "/dashboard"}).Kind)

	require.NoError(t, s.Init(context.Background()))
	assert.False(t, s.Loading())
	assert.Nil(t, s.Identity())
}

func TestInitRestoresIdentity(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save("good"))
	api := &fakeAPI{verify: func(tok string) (*models.Identity, error) {
		if tok == "good" {
			return schoolUser, nil
		}
		return nil, apperr.ErrUnauthorized
	}}

	s := New(api, store)
	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, schoolUser, s.Identity())
	assert.Equal(t, "good", s.Token())
}

func TestInitDiscardsRejectedToken(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save("stale"))
	api := &fakeAPI{verify: func(string) (*models.Identity, error) {
		return nil, apperr.ErrUnauthorized
	}}

	s := New(api, store)
	require.NoError(t, s.Init(context.Background()))
	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Token())
	assert.False(t, s.Loading())
}

func TestLoginPersistsTokenAndRoutes(t *testing.T) {
	store := NewMemoryStore()
	api := &fakeAPI{login: func(email, password string) (*auth.LoginResult, error) {
		return &auth.LoginResult{Token: "tok", User: schoolUser}, nil
	}}

	s := New(api, store)
	res, err := s.Login(context.Background(), "head@school.edu", "pw")
	require.NoError(t, err)
	assert.Equal(t, guard.DashboardRoute, res.Next)
	assert.Equal(t, schoolUser, res.Identity)

	tok, _ := store.Load()
	assert.Equal(t, "tok", tok)
}

func TestAdminLoginRoutesToAdmin(t *testing.T) {
	s := New(&fakeAPI{}, NewMemoryStore())
	res, err := s.AdminLogin(context.Background(), "root", "toor")
	require.NoError(t, err)
	assert.Equal(t, guard.AdminRoute, res.Next)
	assert.Equal(t, models.RoleAdmin, s.Identity().Role)

	_, err = s.AdminLogin(context.Background(), "root", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginPending(t *testing.T) {
	store := NewMemoryStore()
	api := &fakeAPI{login: func(string, string) (*auth.LoginResult, error) {
		return nil, apperr.PendingApproval(models.StatusRejected, "documents unreadable")
	}}

	s := New(api, store)
	_, err := s.Login(context.Background(), "head@school.edu", "pw")

	var pe *PendingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.StatusRejected, pe.Status)
	assert.Equal(t, "documents unreadable", pe.Reason)
	assert.ErrorIs(t, err, apperr.ErrPendingApproval)
	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Token())
}

func TestLoginInvalidCredentials(t *testing.T) {
	api := &fakeAPI{login: func(string, string) (*auth.LoginResult, error) {
		return nil, apperr.ErrInvalidCredentials
	}}
	_, err := New(api, NewMemoryStore()).Login(context.Background(), "x@y.z", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSaveFailureKeepsSignedOut(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the file makes the rename fail.
	path := filepath.Join(dir, "token.json")
	require.NoError(t, NewFileStore(filepath.Join(path, "x")).Save("seed"))

	api := &fakeAPI{login: func(string, string) (*auth.LoginResult, error) {
		return &auth.LoginResult{Token: "tok", User: schoolUser}, nil
	}}
	s := New(api, NewFileStore(path))
	_, err := s.Login(context.Background(), "head@school.edu", "pw")
	assert.Error(t, err)
	assert.Nil(t, s.Identity())
}

func TestLogoutAlwaysClears(t *testing.T) {
	store := NewMemoryStore()
	api := &fakeAPI{
		login: func(string, string) (*auth.LoginResult, error) {
			return &auth.LoginResult{Token: "tok", User: schoolUser}, nil
		},
		logoutErr: errors.New("connection refused"),
	}

	s := New(api, store)
	_, err := s.Login(context.Background(), "head@school.edu", "pw")
	require.NoError(t, err)

	res := s.Logout(context.Background())
	assert.Equal(t, guard.LoginRoute, res.Next)
	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Token())
	assert.Equal(t, []string{"tok"}, api.loggedOut)
}

func TestLogoutAdminRoute(t *testing.T) {
	s := New(&fakeAPI{}, NewMemoryStore())
	_, err := s.AdminLogin(context.Background(), "root", "toor")
	require.NoError(t, err)

	assert.Equal(t, guard.AdminLoginRoute, s.Logout(context.Background()).Next)
}

func TestHandleStatus(t *testing.T) {
	s := New(&fakeAPI{}, NewMemoryStore())
	_, err := s.AdminLogin(context.Background(), "root", "toor")
	require.NoError(t, err)

	next, cleared := s.HandleStatus(200)
	assert.False(t, cleared)
	assert.Empty(t, next)
	assert.NotNil(t, s.Identity())

	next, cleared = s.HandleStatus(403)
	assert.True(t, cleared)
	assert.Equal(t, guard.AdminLoginRoute, next)
	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Token())
}

func TestRegisterSurfacesCredentials(t *testing.T) {
	api := &fakeAPI{register: func(req *school.RegisterRequest) (*school.RegisterResult, error) {
		return &school.RegisterResult{
			User:        &models.Identity{ID: 9, Email: req.Email, Handle: "new", Role: models.RoleSchool},
			Credentials: school.Credentials{Email: req.Email, Handle: "new", Password: req.Password},
		}, nil
	}}

	s := New(api, NewMemoryStore())
	res, err := s.Register(context.Background(), &school.RegisterRequest{Email: "new@school.edu", Password: "Secret123!"})
	require.NoError(t, err)
	assert.Equal(t, guard.PendingRoute, res.Next)
	require.NotNil(t, res.Credentials)
	assert.Equal(t, "new", res.Credentials.Handle)
	assert.Equal(t, "Secret123!", res.Credentials.Password)
	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Token())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStore(path)

	tok, err := fs.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, fs.Save("abc"))
	tok, err = NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	tok, err = fs.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestDecodeError(t *testing.T) {
	err := decodeError(403, []byte(`{"error":"Institution registration was rejected","code":"PENDING_APPROVAL","status":"REJECTED","reason":"bad"}`))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodePendingApproval, e.Code)
	assert.Equal(t, "bad", e.Extra["reason"])

	err = decodeError(401, []byte(`not json`))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	err = decodeError(409, []byte(`{"error":"Email already registered","code":"EMAIL_ALREADY_EXISTS","fields":{"email":"taken"}}`))
	assert.ErrorIs(t, err, apperr.ErrEmailExists)
	e, _ = apperr.As(err)
	assert.Equal(t, "taken", e.Fields["email"])
}
