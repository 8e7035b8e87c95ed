package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieSettings agrupa nombres y flags de las cookies de autenticacion.
type CookieSettings struct {
	SessionName  string
	RememberName string
	Secure       bool
}

func (s CookieSettings) sessionID(c *gin.Context) string {
	value, err := c.Cookie(s.SessionName)
	if err != nil {
		return ""
	}
	return value
}

func (s CookieSettings) rememberToken(c *gin.Context) string {
	value, err := c.Cookie(s.RememberName)
	if err != nil {
		return ""
	}
	return value
}

// setSession escribe la cookie de sesion sin Max-Age: la vida de la sesion
// la decide el store del servidor.
func (s CookieSettings) setSession(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.SessionName, id, 0, "/", "", s.Secure, true)
}

func (s CookieSettings) setRemember(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.RememberName, token, maxAge, "/", "", s.Secure, true)
}

func (s CookieSettings) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.SessionName, "", -1, "/", "", s.Secure, true)
	c.SetCookie(s.RememberName, "", -1, "/", "", s.Secure, true)
}
