package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rootsarchive/heritage-archive/internal/config"
	"github.com/rootsarchive/heritage-archive/internal/httperr"
	"github.com/rootsarchive/heritage-archive/internal/middleware"
	"github.com/rootsarchive/heritage-archive/internal/model"
	"github.com/rootsarchive/heritage-archive/internal/queue"
	"github.com/rootsarchive/heritage-archive/internal/repository"
	"github.com/rootsarchive/heritage-archive/internal/utils"
)

const dbTimeout = 5 * time.Second

// genericResetMsg is returned by the reset-request endpoint no matter what.
// The body must not depend on whether the account exists.
const genericResetMsg = "If an account exists for that email, a reset code has been sent."

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg          config.Config
	Users        UserStore
	Tokens       TokenStore
	Resets       ResetStore
	Publish      EventPublisher
	SignupRoleID uint8 // role assigned to self-registered accounts
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, r ResetStore, pub EventPublisher, signupRole uint8) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Resets: r, Publish: pub, SignupRoleID: signupRole}
}

// ----- DTOs -----

type signupReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type resetReq struct {
	Email string `json:"email"`
}
type resetVerifyReq struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type userPart struct {
	ID        uint64     `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	RoleID    uint8      `json:"roleId"`
	Status    string     `json:"status"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

type authResp struct {
	User         *userPart `json:"user,omitempty"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
}

func toUserPart(u model.User) *userPart {
	return &userPart{
		ID: u.ID, FullName: u.FullName, Email: u.Email,
		RoleID: u.RoleID, Status: u.Status, LastLogin: u.LastLogin,
	}
}

// Signup: create an account and return a token pair immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid body")
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = normalizeEmail(req.Email)
	if req.FullName == "" {
		return httperr.Validation("fullName is required")
	}
	if !validEmail(req.Email) {
		return httperr.Validation("a valid email is required")
	}
	if len(req.Password) < 8 {
		return httperr.Validation("password must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return httperr.Internal("create user failed")
	}
	uid, err := h.Users.Create(ctx, req.FullName, req.Email, hash, h.SignupRoleID)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httperr.Conflict("email already registered")
		}
		return httperr.Internal("create user failed")
	}

	access, refresh, err := h.issuePair(ctx, uid, h.SignupRoleID)
	if err != nil {
		return httperr.Internal("issue tokens failed")
	}

	h.emit(ctx, queue.AuthEvent{
		Type: queue.EventUserRegistered, UserID: uid, Email: req.Email,
		Detail: req.FullName, OccurredAt: nowRFC3339(),
	})

	return c.JSON(http.StatusCreated, authResp{
		User: &userPart{ID: uid, FullName: req.FullName, Email: req.Email,
			RoleID: h.SignupRoleID, Status: model.StatusActive},
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// Login: verify credentials and return a new pair. Bad email, bad password
// and a disabled account all answer with the same 401 body.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid body")
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return httperr.Validation("email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httperr.Unauthorized("invalid credentials")
		}
		return httperr.Internal("query failed")
	}
	if u.Status != model.StatusActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return httperr.Unauthorized("invalid credentials")
	}

	access, refresh, err := h.issuePair(ctx, u.ID, u.RoleID)
	if err != nil {
		return httperr.Internal("issue tokens failed")
	}
	_ = h.Users.TouchLastLogin(ctx, u.ID)

	h.emit(ctx, queue.AuthEvent{
		Type: queue.EventUserLogin, UserID: u.ID, Email: u.Email, OccurredAt: nowRFC3339(),
	})

	return c.JSON(http.StatusOK, authResp{AccessToken: access, RefreshToken: refresh})
}

// Refresh: rotate a refresh token for a new pair. The old token is claimed
// atomically, so of two concurrent calls with the same token exactly one
// succeeds; the replayed one gets 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return httperr.Validation("refreshToken is required")
	}
	hash := utils.HashToken(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	userID, err := h.Tokens.Consume(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidRefresh) {
			return httperr.Unauthorized("invalid token")
		}
		return httperr.Internal("refresh failed")
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || u.Status != model.StatusActive {
		return httperr.Unauthorized("invalid token")
	}

	access, refresh, err := h.issuePair(ctx, u.ID, u.RoleID)
	if err != nil {
		return httperr.Internal("issue tokens failed")
	}
	return c.JSON(http.StatusOK, authResp{AccessToken: access, RefreshToken: refresh})
}

// Logout: with a refreshToken in the body, revoke that single session;
// without one, revoke every session for the caller. Revocation is
// idempotent — logging out an already-dead token still answers 200.
func (h *AuthHandler) Logout(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	var req refreshReq
	_ = c.Bind(&req) // an empty or invalid body just means "all sessions"
	token := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if token != "" {
		if err := h.Tokens.Revoke(ctx, utils.HashToken(token)); err != nil {
			return httperr.Internal("logout failed")
		}
	} else {
		if err := h.Tokens.RevokeAllForUser(ctx, p.UserID); err != nil {
			return httperr.Internal("logout failed")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httperr.Unauthorized("invalid or expired token")
		}
		return httperr.Internal("query failed")
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// RequestReset issues a one-time reset code. The response is identical
// whether or not the account exists; even internal failures on the
// account-exists path are logged and swallowed so timing aside, nothing
// distinguishes the two.
func (h *AuthHandler) RequestReset(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid body")
	}
	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		return httperr.Validation("a valid email is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err == nil && u.Status == model.StatusActive {
		code, err := utils.NewResetCode()
		if err != nil {
			log.Printf("reset-request: code generation failed: %v", err)
			return c.JSON(http.StatusOK, echo.Map{"message": genericResetMsg})
		}
		exp := time.Now().UTC().Add(time.Duration(h.Cfg.ResetTTLMin) * time.Minute)
		if err := h.Resets.Upsert(ctx, email, utils.HashToken(code), exp); err != nil {
			log.Printf("reset-request: store code failed: %v", err)
			return c.JSON(http.StatusOK, echo.Map{"message": genericResetMsg})
		}
		// The mailer downstream of the queue owns delivery of the code.
		h.emit(ctx, queue.AuthEvent{
			Type: queue.EventPasswordResetRequest, UserID: u.ID, Email: email,
			Code: code, OccurredAt: nowRFC3339(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": genericResetMsg})
}

// VerifyReset consumes a reset code, rewrites the password and ends every
// existing session for the account. A code verifies exactly once.
func (h *AuthHandler) VerifyReset(c echo.Context) error {
	var req resetVerifyReq
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid body")
	}
	email := normalizeEmail(req.Email)
	if !validEmail(email) || strings.TrimSpace(req.Code) == "" {
		return httperr.Validation("email and code are required")
	}
	if len(req.NewPassword) < 8 {
		return httperr.Validation("newPassword must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Resets.Consume(ctx, email, utils.HashToken(strings.TrimSpace(req.Code))); err != nil {
		if errors.Is(err, repository.ErrInvalidResetCode) {
			return httperr.Validation("invalid or expired code")
		}
		return httperr.Internal("reset failed")
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return httperr.Internal("reset failed")
	}
	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return httperr.Internal("reset failed")
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return httperr.Internal("reset failed")
	}
	// Force re-login everywhere: a stolen session must not survive a reset.
	if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return httperr.Internal("reset failed")
	}

	h.emit(ctx, queue.AuthEvent{
		Type: queue.EventPasswordChanged, UserID: u.ID, Email: email, OccurredAt: nowRFC3339(),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// ----- helpers -----

// issuePair signs an access token and persists a fresh refresh token,
// returning the raw strings handed to the client.
func (h *AuthHandler) issuePair(ctx context.Context, userID uint64, roleID uint8) (string, string, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, roleID, h.Cfg.AccessTTLMin)
	if err != nil {
		return "", "", err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return "", "", err
	}
	if err := h.Tokens.Store(ctx, userID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return "", "", err
	}
	return access.Token, refresh.Raw, nil
}

func (h *AuthHandler) emit(ctx context.Context, ev queue.AuthEvent) {
	if h.Publish != nil {
		_ = h.Publish(ctx, ev)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && len(email) <= 254
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
