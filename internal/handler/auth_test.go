package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/rootsarchive/heritage-archive/internal/config"
	"github.com/rootsarchive/heritage-archive/internal/httperr"
	"github.com/rootsarchive/heritage-archive/internal/middleware"
	"github.com/rootsarchive/heritage-archive/internal/model"
	"github.com/rootsarchive/heritage-archive/internal/queue"
	"github.com/rootsarchive/heritage-archive/internal/utils"
)

const (
	testSecret       = "handler-test-secret"
	testSignupRoleID = uint8(3)
)

type testEnv struct {
	e      *echo.Echo
	users  *fakeUsers
	tokens *fakeTokens
	resets *fakeResets
	rec    *eventRecorder
	cfg    config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:  newFakeUsers(),
		tokens: newFakeTokens(),
		resets: newFakeResets(),
		rec:    &eventRecorder{},
		cfg: config.Config{
			JWTSecret:      testSecret,
			AccessTTLMin:   15,
			RefreshTTLDays: 30,
			ResetTTLMin:    15,
			BcryptCost:     4, // min cost keeps bcrypt fast in tests
		},
	}
	h := NewAuthHandler(env.cfg, env.users, env.tokens, env.resets, env.rec.publish, testSignupRoleID)

	e := echo.New()
	e.HTTPErrorHandler = httperr.Handler
	e.POST("/auth/signup", h.Signup)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.POST("/auth/reset", h.RequestReset)
	e.POST("/auth/reset/verify", h.VerifyReset)
	e.GET("/auth/me", h.Me, middleware.JWTAuth(testSecret))
	e.POST("/auth/logout", h.Logout, middleware.JWTAuth(testSecret))
	env.e = e
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeAuthResp(t *testing.T, rec *httptest.ResponseRecorder) authResp {
	t.Helper()
	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode auth response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func (env *testEnv) signup(t *testing.T, fullName, email, password string) authResp {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/auth/signup",
		map[string]string{"fullName": fullName, "email": email, "password": password}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeAuthResp(t, rec)
}

func (env *testEnv) login(t *testing.T, email, password string) authResp {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeAuthResp(t, rec)
}

func TestSignupThenLogin(t *testing.T) {
	env := newTestEnv(t)

	created := env.signup(t, "Ada Archivist", "Ada@Example.com", "long-enough-pw")
	if created.User == nil {
		t.Fatal("signup response missing user")
	}
	if created.User.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized lowercase", created.User.Email)
	}
	if created.User.RoleID != testSignupRoleID {
		t.Errorf("roleId = %d, want %d", created.User.RoleID, testSignupRoleID)
	}
	if created.AccessToken == "" || created.RefreshToken == "" {
		t.Fatal("signup must return a token pair")
	}

	// The same credentials log in and yield a verifiable access token.
	pair := env.login(t, "ada@example.com", "long-enough-pw")
	p, err := utils.VerifyAccessToken(testSecret, pair.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not verify: %v", err)
	}
	if p.UserID != created.User.ID {
		t.Errorf("token subject = %d, want %d", p.UserID, created.User.ID)
	}

	if _, ok := env.rec.lastOfType(queue.EventUserLogin); !ok {
		t.Error("login event was not published")
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "First User", "taken@example.com", "long-enough-pw")

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{"missing name", map[string]string{"email": "x@example.com", "password": "long-enough-pw"}, http.StatusBadRequest},
		{"invalid email", map[string]string{"fullName": "X", "email": "not-an-email", "password": "long-enough-pw"}, http.StatusBadRequest},
		{"short password", map[string]string{"fullName": "X", "email": "x@example.com", "password": "short"}, http.StatusBadRequest},
		{"duplicate email", map[string]string{"fullName": "X", "email": "Taken@example.com", "password": "long-enough-pw"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/signup", tt.body, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	created := env.signup(t, "A B", "a@b.com", "correct-password")

	if err := env.users.SetStatus(context.Background(), created.User.ID, model.StatusDisabled); err != nil {
		t.Fatalf("disable user: %v", err)
	}
	disabledRec := env.do(t, http.MethodPost, "/auth/login",
		map[string]string{"email": "a@b.com", "password": "correct-password"}, "")
	if err := env.users.SetStatus(context.Background(), created.User.ID, model.StatusActive); err != nil {
		t.Fatalf("re-enable user: %v", err)
	}

	wrongRec := env.do(t, http.MethodPost, "/auth/login",
		map[string]string{"email": "a@b.com", "password": "wrong"}, "")
	unknownRec := env.do(t, http.MethodPost, "/auth/login",
		map[string]string{"email": "nobody@b.com", "password": "whatever"}, "")

	for name, rec := range map[string]*httptest.ResponseRecorder{
		"wrong password": wrongRec, "unknown email": unknownRec, "disabled account": disabledRec,
	} {
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
		if bytes.Contains(rec.Body.Bytes(), []byte("accessToken")) {
			t.Errorf("%s: a token leaked into the failure response", name)
		}
	}
	// Bad password and disabled account must be indistinguishable.
	if wrongRec.Body.String() != disabledRec.Body.String() {
		t.Error("failure bodies differ between wrong password and disabled account")
	}
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "A B", "rot@example.com", "long-enough-pw")
	pair := env.login(t, "rot@example.com", "long-enough-pw")

	first := env.do(t, http.MethodPost, "/auth/refresh",
		map[string]string{"refreshToken": pair.RefreshToken}, "")
	if first.Code != http.StatusOK {
		t.Fatalf("first refresh status = %d, body %s", first.Code, first.Body.String())
	}
	rotated := decodeAuthResp(t, first)
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate the refresh token")
	}

	// Replaying the consumed token must fail.
	second := env.do(t, http.MethodPost, "/auth/refresh",
		map[string]string{"refreshToken": pair.RefreshToken}, "")
	if second.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh status = %d, want 401", second.Code)
	}

	// The rotated token is live.
	third := env.do(t, http.MethodPost, "/auth/refresh",
		map[string]string{"refreshToken": rotated.RefreshToken}, "")
	if third.Code != http.StatusOK {
		t.Errorf("rotated refresh status = %d, want 200", third.Code)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "A B", "out@example.com", "long-enough-pw")
	pair := env.login(t, "out@example.com", "long-enough-pw")

	rec := env.do(t, http.MethodPost, "/auth/logout",
		map[string]string{"refreshToken": pair.RefreshToken}, pair.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, body %s", rec.Code, rec.Body.String())
	}

	refreshRec := env.do(t, http.MethodPost, "/auth/refresh",
		map[string]string{"refreshToken": pair.RefreshToken}, "")
	if refreshRec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", refreshRec.Code)
	}

	// Revoking an already-absent token is not an error.
	again := env.do(t, http.MethodPost, "/auth/logout",
		map[string]string{"refreshToken": pair.RefreshToken}, pair.AccessToken)
	if again.Code != http.StatusOK {
		t.Errorf("repeated logout status = %d, want 200", again.Code)
	}
}

func TestLogoutAllSessions(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "A B", "multi@example.com", "long-enough-pw")
	phone := env.login(t, "multi@example.com", "long-enough-pw")
	laptop := env.login(t, "multi@example.com", "long-enough-pw")

	// No body: every session for the caller dies.
	rec := env.do(t, http.MethodPost, "/auth/logout", nil, laptop.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, body %s", rec.Code, rec.Body.String())
	}
	for name, token := range map[string]string{"phone": phone.RefreshToken, "laptop": laptop.RefreshToken} {
		r := env.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": token}, "")
		if r.Code != http.StatusUnauthorized {
			t.Errorf("%s session survived logout-all (status %d)", name, r.Code)
		}
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	created := env.signup(t, "Mel Archivist", "me@example.com", "long-enough-pw")

	rec := env.do(t, http.MethodGet, "/auth/me", nil, created.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", rec.Code, rec.Body.String())
	}
	var profile userPart
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Email != "me@example.com" || profile.FullName != "Mel Archivist" {
		t.Errorf("profile = %+v, want the signed-up account", profile)
	}

	if rec := env.do(t, http.MethodGet, "/auth/me", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("me without bearer status = %d, want 401", rec.Code)
	}

	expired, err := utils.NewAccessToken(testSecret, created.User.ID, testSignupRoleID, -1)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if rec := env.do(t, http.MethodGet, "/auth/me", nil, expired.Token); rec.Code != http.StatusUnauthorized {
		t.Errorf("me with expired bearer status = %d, want 401", rec.Code)
	}
}

func TestResetRequestDoesNotRevealAccounts(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "A B", "known@example.com", "long-enough-pw")

	known := env.do(t, http.MethodPost, "/auth/reset", map[string]string{"email": "known@example.com"}, "")
	unknown := env.do(t, http.MethodPost, "/auth/reset", map[string]string{"email": "ghost@example.com"}, "")

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200/200", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Errorf("bodies differ:\n known: %s\n unknown: %s", known.Body.String(), unknown.Body.String())
	}
	// Only the real account produced a code for the mailer.
	if _, ok := env.rec.lastOfType(queue.EventPasswordResetRequest); !ok {
		t.Error("no reset event published for the existing account")
	}
}

func TestResetVerifyFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "A B", "reset@example.com", "old-password-1")
	pair := env.login(t, "reset@example.com", "old-password-1")

	if rec := env.do(t, http.MethodPost, "/auth/reset", map[string]string{"email": "reset@example.com"}, ""); rec.Code != http.StatusOK {
		t.Fatalf("reset request status = %d", rec.Code)
	}
	ev, ok := env.rec.lastOfType(queue.EventPasswordResetRequest)
	if !ok || ev.Code == "" {
		t.Fatal("reset event with code was not published")
	}

	wrong := env.do(t, http.MethodPost, "/auth/reset/verify",
		map[string]string{"email": "reset@example.com", "code": "000000", "newPassword": "new-password-2"}, "")
	if wrong.Code != http.StatusBadRequest && ev.Code != "000000" {
		t.Errorf("wrong code status = %d, want 400", wrong.Code)
	}

	good := env.do(t, http.MethodPost, "/auth/reset/verify",
		map[string]string{"email": "reset@example.com", "code": ev.Code, "newPassword": "new-password-2"}, "")
	if good.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", good.Code, good.Body.String())
	}

	// The code burns on use.
	replay := env.do(t, http.MethodPost, "/auth/reset/verify",
		map[string]string{"email": "reset@example.com", "code": ev.Code, "newPassword": "new-password-3"}, "")
	if replay.Code != http.StatusBadRequest {
		t.Errorf("replayed verify status = %d, want 400", replay.Code)
	}

	// Every pre-reset session is dead.
	if rec := env.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken}, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("old session survived password reset (status %d)", rec.Code)
	}
	if env.tokens.count() != 0 {
		t.Errorf("%d refresh tokens survived the reset", env.tokens.count())
	}

	// Old password out, new password in.
	if rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "reset@example.com", "password": "old-password-1"}, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("old password still accepted (status %d)", rec.Code)
	}
	env.login(t, "reset@example.com", "new-password-2")
}
