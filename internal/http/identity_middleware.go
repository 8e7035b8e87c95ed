package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tracks-login/internal/service"
)

const identityKey = "auth_identity"

// IdentityMiddleware resuelve la identidad del request una sola vez y la deja
// en el contexto. No rechaza requests anonimos.
func IdentityMiddleware(logger *zap.Logger, identities *service.IdentityService, cookies CookieSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := identities.Resolve(c.Request.Context(), service.RequestState{
			SessionID:     cookies.sessionID(c),
			RememberToken: cookies.rememberToken(c),
		})
		if err != nil {
			logger.Error("resolve identity failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		if identity.SessionEstablished {
			cookies.setSession(c, identity.Session.ID)
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireLogin corta el request si no hay usuario y recuerda la URL pedida
// para volver a ella despues del login.
func RequireLogin(logger *zap.Logger, sessions *service.SessionService, cookies CookieSettings, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := GetIdentity(c)
		if identity.IsAuthenticated() {
			c.Next()
			return
		}

		sessionID := cookies.sessionID(c)
		if identity.HasSession {
			sessionID = identity.Session.ID
		}
		session, err := sessions.CaptureReturnTarget(c.Request.Context(), sessionID, c.Request.URL.RequestURI())
		if err != nil {
			logger.Error("capture return target failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		if session.ID != sessionID {
			cookies.setSession(c, session.ID)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"redirect_to": loginPath})
	}
}

// GetIdentity obtiene la identidad resuelta desde el contexto.
func GetIdentity(c *gin.Context) (service.Identity, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return service.Identity{}, false
	}
	identity, ok := val.(service.Identity)
	return identity, ok
}
