package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tracks-login/internal/service"
)

// LoginHandler expone login, logout y el usuario actual.
type LoginHandler struct {
	logger  *zap.Logger
	login   *service.LoginService
	cookies CookieSettings
}

// NewLoginHandler crea una instancia de LoginHandler con dependencias necesarias.
func NewLoginHandler(logger *zap.Logger, login *service.LoginService, cookies CookieSettings) *LoginHandler {
	return &LoginHandler{
		logger:  logger,
		login:   login,
		cookies: cookies,
	}
}

// ShowLogin maneja GET /login. Una cookie de remember token valida ya dejo
// al usuario logueado en IdentityMiddleware.
func (h *LoginHandler) ShowLogin(c *gin.Context) {
	signup, required, err := h.login.SignupRedirect(c.Request.Context())
	if err != nil {
		h.respondError(c, "signup check failed", err)
		return
	}
	if required {
		c.Redirect(http.StatusSeeOther, signup)
		return
	}

	identity, _ := GetIdentity(c)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": identity.IsAuthenticated(),
		"user":          identity.CurrentUser(),
	})
}

// Login maneja POST /login (form o JSON).
func (h *LoginHandler) Login(c *gin.Context) {
	var req struct {
		Login    string `form:"user_login" json:"user_login"`
		Password string `form:"user_password" json:"user_password"`
		NoExpiry string `form:"user_noexpiry" json:"user_noexpiry"`
	}
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sessionID := h.cookies.sessionID(c)
	if identity, ok := GetIdentity(c); ok && identity.HasSession {
		sessionID = identity.Session.ID
	}

	result, err := h.login.Login(c.Request.Context(), service.LoginInput{
		Login:     req.Login,
		Password:  req.Password,
		NoExpiry:  strings.EqualFold(strings.TrimSpace(req.NoExpiry), "on"),
		SessionID: sessionID,
	})
	if err != nil {
		h.respondError(c, "login failed", err)
		return
	}

	switch result.Outcome {
	case service.LoginSignupRequired:
		c.Redirect(http.StatusSeeOther, result.RedirectTo)
	case service.LoginFailed:
		c.JSON(http.StatusUnauthorized, gin.H{"warning": result.Warning})
	default:
		h.cookies.setSession(c, result.Session.ID)
		if result.RememberToken != "" {
			h.cookies.setRemember(c, result.RememberToken, result.RememberTokenExpiresAt)
		}
		c.JSON(http.StatusOK, gin.H{
			"notice":      result.Notice,
			"redirect_to": result.RedirectTo,
			"user":        result.User,
		})
	}
}

// Logout maneja GET|POST /logout.
func (h *LoginHandler) Logout(c *gin.Context) {
	identity, _ := GetIdentity(c)
	sessionID := h.cookies.sessionID(c)
	if identity.HasSession {
		sessionID = identity.Session.ID
	}

	redirect, err := h.login.Logout(c.Request.Context(), sessionID, identity.CurrentUser())
	if err != nil {
		h.respondError(c, "logout failed", err)
		return
	}
	h.cookies.clear(c)
	c.JSON(http.StatusOK, gin.H{"redirect_to": redirect})
}

// Me maneja GET /me. Requiere RequireLogin antes.
func (h *LoginHandler) Me(c *gin.Context) {
	identity, _ := GetIdentity(c)
	c.JSON(http.StatusOK, gin.H{
		"user":        identity.CurrentUser(),
		"preferences": identity.CurrentPreferences(),
	})
}

func (h *LoginHandler) respondError(c *gin.Context, msg string, err error) {
	if errors.Is(err, service.ErrStoreUnavailable) {
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
