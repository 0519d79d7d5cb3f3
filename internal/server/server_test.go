package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jattu8602/presentsirweb-sub001/internal/admin"
	"github.com/jattu8602/presentsirweb-sub001/internal/auth"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/notify"
	"github.com/jattu8602/presentsirweb-sub001/internal/school"
	"github.com/jattu8602/presentsirweb-sub001/internal/testutil"
	"github.com/jattu8602/presentsirweb-sub001/internal/token"
	"github.com/jattu8602/presentsirweb-sub001/internal/validator"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	app    *fiber.App
	db     *gorm.DB
	deps   Deps
	mailer *notify.LogMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	tokens, err := token.NewService(testSecret, 0)
	require.NoError(t, err)

	v := validator.New()
	mailer := &notify.LogMailer{From: "noreply@presentsir.in"}
	deps := Deps{
		DB:          db,
		Tokens:      tokens,
		Auth:        auth.NewService(db, tokens, auth.AdminCredentials{Username: "root", Password: "toor"}, nil),
		Schools:     school.NewService(db, v, bcrypt.MinCost),
		Admin:       admin.NewService(db, mailer, "http://localhost:3000/login"),
		Validator:   v,
		CORSOrigins: []string{"http://localhost:3000"},
	}
	return &fixture{app: New(deps), db: db, deps: deps, mailer: mailer}
}

func registration() fiber.Map {
	return fiber.Map{
		"institutionType":    "SCHOOL",
		"registeredName":     "Delhi Model School",
		"registrationNumber": "DL-2019-0042",
		"planType":           "STANDARD",
		"planDuration":       "YEARLY",
		"email":              "new@school.edu",
		"password":           "Secret123!",
		"phone":              "9876543210",
		"addressLine":        "14 Ring Road, Lajpat Nagar",
		"city":               "New Delhi",
		"state":              "Delhi",
		"postalCode":         "110024",
		"principalName":      "Anita Sharma",
		"principalEmail":     "principal@school.edu",
		"principalPhone":     "9876543211",
	}
}

func newRequest(method, path, token string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	resp, err := f.app.Test(newRequest(method, path, token, body), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (f *fixture) adminToken(t *testing.T) string {
	t.Helper()
	code, body := f.do(t, fiber.MethodPost, "/api/admin/login", "", fiber.Map{"username": "root", "password": "toor"})
	require.Equal(t, fiber.StatusOK, code, body)
	return body["token"].(string)
}

func TestRegisterApproveLoginFlow(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, fiber.MethodPost, "/api/schools/register", "", registration())
	require.Equal(t, fiber.StatusCreated, code, body)
	inst := body["institution"].(map[string]any)
	assert.Equal(t, "PENDING", inst["status"])
	creds := body["credentials"].(map[string]any)
	assert.Equal(t, "new", creds["handle"])
	assert.Equal(t, "Secret123!", creds["password"])
	id := uint(inst["id"].(float64))

	login := fiber.Map{"email": "new@school.edu", "password": "Secret123!"}
	code, body = f.do(t, fiber.MethodPost, "/api/auth/login", "", login)
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "PENDING_APPROVAL", body["code"])
	assert.Equal(t, "PENDING", body["status"])
	assert.NotContains(t, body, "token")

	adminTok := f.adminToken(t)
	code, body = f.do(t, fiber.MethodPost, "/api/admin/schools/"+itoa(id)+"/approve", adminTok, fiber.Map{"status": "APPROVED"})
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, true, body["changed"])
	assert.Len(t, f.mailer.Sent(), 1)

	code, body = f.do(t, fiber.MethodPost, "/api/auth/login", "", login)
	require.Equal(t, fiber.StatusOK, code, body)
	user := body["user"].(map[string]any)
	assert.Equal(t, "SCHOOL", user["role"])
	tok := body["token"].(string)

	code, body = f.do(t, fiber.MethodGet, "/api/auth/verify", tok, nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "new@school.edu", body["user"].(map[string]any)["email"])

	var logs []map[string]any
	resp, err := f.app.Test(newRequest(fiber.MethodGet, "/api/admin/audit-logs", adminTok, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "APPROVE", logs[0]["action"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, fiber.MethodPost, "/api/schools/register", "", registration())
	require.Equal(t, fiber.StatusCreated, code)

	again := registration()
	again["registrationNumber"] = "DL-2019-0043"
	code, body := f.do(t, fiber.MethodPost, "/api/schools/register", "", again)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "EMAIL_ALREADY_EXISTS", body["code"])
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	f := newFixture(t)

	body := registration()
	body["role"] = "ADMIN"
	code, _ := f.do(t, fiber.MethodPost, "/api/schools/register", "", body)
	assert.Equal(t, fiber.StatusBadRequest, code)

	var n int64
	f.db.Model(&models.Account{}).Count(&n)
	assert.Zero(t, n)
}

func TestValidateStep(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, fiber.MethodPost, "/api/schools/register/validate?step=basic", "", fiber.Map{
		"institutionType":    "COLLEGE",
		"registeredName":     "Pune Arts College",
		"registrationNumber": "MH-77",
		"planType":           "BASIC",
		"planDuration":       "MONTHLY",
	})
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, "contact", body["next"])

	code, body = f.do(t, fiber.MethodPost, "/api/schools/register/validate?step=contact", "", fiber.Map{
		"email":      "bad",
		"postalCode": "12345",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "postalCode")

	code, _ = f.do(t, fiber.MethodPost, "/api/schools/register/validate?step=payment", "", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	testutil.CreateAccount(t, f.db, "head@school.edu", "right-password", models.RoleSchool, models.StatusApproved)

	code, wrong := f.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "head@school.edu", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, unknown := f.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "nobody@school.edu", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, wrong, unknown)
}

func TestLoginAcceptsPaddedMixedCaseEmail(t *testing.T) {
	f := newFixture(t)
	testutil.CreateAccount(t, f.db, "head@school.edu", "right-password", models.RoleSchool, models.StatusApproved)

	code, body := f.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "  HEAD@School.edu ", "password": "right-password"})
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, "head@school.edu", body["user"].(map[string]any)["email"])

	reg := registration()
	reg["email"] = "  Padded@School.edu "
	code, body = f.do(t, fiber.MethodPost, "/api/schools/register", "", reg)
	require.Equal(t, fiber.StatusCreated, code, body)
	assert.Equal(t, "padded", body["credentials"].(map[string]any)["handle"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	f := newFixture(t)
	acc := testutil.CreateAccount(t, f.db, "head@school.edu", "right-password", models.RoleSchool, models.StatusApproved)

	schoolTok, err := f.deps.Tokens.Issue(acc.ID, acc.Email, acc.Role)
	require.NoError(t, err)

	code, _ := f.do(t, fiber.MethodGet, "/api/admin/auth", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = f.do(t, fiber.MethodGet, "/api/admin/auth", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, body := f.do(t, fiber.MethodGet, "/api/admin/auth", schoolTok, nil)
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	code, _ = f.do(t, fiber.MethodPost, "/api/admin/schools/"+itoa(acc.Institution.ID)+"/approve", schoolTok, fiber.Map{"status": "APPROVED"})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body = f.do(t, fiber.MethodGet, "/api/admin/auth", f.adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ADMIN", body["user"].(map[string]any)["role"])
}

func TestRejectionRequiresReason(t *testing.T) {
	f := newFixture(t)
	acc := testutil.CreateAccount(t, f.db, "head@school.edu", "right-password", models.RoleSchool, models.StatusPending)
	adminTok := f.adminToken(t)
	path := "/api/admin/schools/" + itoa(acc.Institution.ID) + "/approve"

	code, body := f.do(t, fiber.MethodPost, path, adminTok, fiber.Map{"status": "REJECTED"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	code, _ = f.do(t, fiber.MethodPost, path, adminTok, fiber.Map{"status": "REJECTED", "message": "Registration certificate missing"})
	require.Equal(t, fiber.StatusOK, code)

	code, body = f.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "head@school.edu", "password": "right-password"})
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "REJECTED", body["status"])
	assert.Equal(t, "Registration certificate missing", body["reason"])

	code, _ = f.do(t, fiber.MethodPost, "/api/admin/schools/999/approve", adminTok, fiber.Map{"status": "APPROVED"})
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestAdminLoginUnconfigured(t *testing.T) {
	f := newFixture(t)
	f.deps.Auth = auth.NewService(f.db, f.deps.Tokens, auth.AdminCredentials{}, nil)
	f.app = New(f.deps)

	code, body := f.do(t, fiber.MethodPost, "/api/admin/login", "", fiber.Map{"username": "root", "password": "toor"})
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

func TestExportAndHealth(t *testing.T) {
	f := newFixture(t)
	testutil.CreateAccount(t, f.db, "head@school.edu", "pw-pw-pw-pw", models.RoleSchool, models.StatusApproved)

	resp, err := f.app.Test(newRequest(fiber.MethodGet, "/api/admin/schools/export", f.adminToken(t), nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".xlsx")

	code, body := f.do(t, fiber.MethodGet, "/healthz", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = f.do(t, fiber.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, fiber.StatusNoContent, code)
}
