package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL sentinel errors
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/ticket-registry/internal/config"     // app configuration
	"github.com/iliyamo/ticket-registry/internal/repository" // DB repositories
	"github.com/iliyamo/ticket-registry/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for the identity gateway.  Operators
// exchange their identity string plus secret for a JWT whose subject is the
// identity; every registry call is then attributed to that subject.
type AuthHandler struct {
	Cfg       config.Config
	Operators *repository.OperatorRepo
	Tokens    *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, o *repository.OperatorRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Operators: o, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}
type loginReq struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	Identity string    `json:"identity"`
	Access   tokenPart `json:"access"`
	Refresh  tokenPart `json:"refresh"`
}

// Register: create an operator and return tokens immediately.  Registering
// grants no ticket capabilities; those come from the registry's admin sets.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Identity = strings.TrimSpace(req.Identity)
	if req.Identity == "" || req.Secret == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identity/secret required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Operators.Create(ctx, req.Identity, req.Secret, h.Cfg.BcryptCost); err != nil {
		if err == repository.ErrIdentityExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "identity already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create operator failed"})
	}

	return h.issuePair(c, ctx, req.Identity, http.StatusCreated)
}

// Login: verify the secret and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Identity = strings.TrimSpace(req.Identity)
	if req.Identity == "" || req.Secret == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identity/secret required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Operators.GetByIdentity(ctx, req.Identity)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !o.IsActive || !utils.VerifySecret(o.SecretHash, req.Secret) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issuePair(c, ctx, o.Identity, http.StatusOK)
}

// Refresh: validate by hash, revoke the old token, issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	identity, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	return h.issuePair(c, ctx, identity, http.StatusOK)
}

// Logout: revoke every refresh token held by the authenticated identity.
func (h *AuthHandler) Logout(c echo.Context) error {
	identity := string(caller(c))
	if identity == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeAllForIdentity(ctx, identity); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "logged out"})
}

// Me returns the identity the presented access token belongs to.  Clients
// use it to confirm which subject their registry calls will run as.
func (h *AuthHandler) Me(c echo.Context) error {
	identity := string(caller(c))
	if identity == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"identity": identity})
}

// issuePair signs an access token, mints and stores a refresh token, and
// writes the standard auth response.
func (h *AuthHandler) issuePair(c echo.Context, ctx context.Context, identity string, status int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, identity, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, identity, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(status, authResp{
		Identity: identity,
		Access:   tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:  tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}
