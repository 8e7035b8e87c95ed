package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Etiquetas de resultado usadas por los contadores.
const (
	LoginSucceeded      = "succeeded"
	LoginFailed         = "failed"
	LoginSignupRequired = "signup_required"
	LoginError          = "error"

	TokenValid   = "valid"
	TokenInvalid = "invalid"
	TokenExpired = "expired"
	TokenError   = "error"

	SourcePassword      = "password"
	SourceRememberToken = "remember_token"
)

// AuthMetrics agrupa los contadores del core de autenticacion.
// Un *AuthMetrics nil es valido y no registra nada.
type AuthMetrics struct {
	loginAttempts       *prometheus.CounterVec
	tokenValidations    *prometheus.CounterVec
	sessionsEstablished *prometheus.CounterVec
	tokensIssued        prometheus.Counter
	tokensRevoked       prometheus.Counter
}

// NewAuthMetrics crea y registra los contadores en reg.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracks",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		tokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracks",
			Subsystem: "auth",
			Name:      "remember_token_validations_total",
			Help:      "Remember token validations by result.",
		}, []string{"result"}),
		sessionsEstablished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracks",
			Subsystem: "auth",
			Name:      "sessions_established_total",
			Help:      "Authenticated sessions established by source.",
		}, []string{"source"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracks",
			Subsystem: "auth",
			Name:      "remember_tokens_issued_total",
			Help:      "Remember tokens issued.",
		}),
		tokensRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracks",
			Subsystem: "auth",
			Name:      "remember_tokens_revoked_total",
			Help:      "Remember tokens revoked.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.loginAttempts, m.tokenValidations, m.sessionsEstablished, m.tokensIssued, m.tokensRevoked)
	}
	return m
}

func (m *AuthMetrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *AuthMetrics) TokenValidation(result string) {
	if m == nil {
		return
	}
	m.tokenValidations.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) SessionEstablished(source string) {
	if m == nil {
		return
	}
	m.sessionsEstablished.WithLabelValues(source).Inc()
}

func (m *AuthMetrics) TokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

func (m *AuthMetrics) TokenRevoked() {
	if m == nil {
		return
	}
	m.tokensRevoked.Inc()
}
