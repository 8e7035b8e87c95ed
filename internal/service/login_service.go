package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"tracks-login/internal/domain"
	"tracks-login/internal/metrics"
)

type LoginOutcome int

const (
	LoginSucceeded LoginOutcome = iota + 1
	LoginFailed
	LoginSignupRequired
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginSucceeded:
		return metrics.LoginSucceeded
	case LoginFailed:
		return metrics.LoginFailed
	case LoginSignupRequired:
		return metrics.LoginSignupRequired
	default:
		return "unknown"
	}
}

// LoginPaths son los destinos de redireccion que conoce el flujo de login.
type LoginPaths struct {
	Landing string
	Login   string
	Signup  string
}

type LoginInput struct {
	Login    string
	Password string
	// NoExpiry pide sesion sin expiracion y remember token.
	NoExpiry bool
	// SessionID es la sesion previa del request (puede traer return-to).
	SessionID string
}

type LoginResult struct {
	Outcome    LoginOutcome
	User       domain.User
	Session    domain.Session
	Notice     string
	Warning    string
	RedirectTo string

	RememberToken          string
	RememberTokenExpiresAt time.Time
}

// LoginService coordina verificacion, sesion y remember token.
type LoginService struct {
	logger      *zap.Logger
	credentials *CredentialService
	sessions    *SessionService
	tokens      *RememberTokenService
	metrics     *metrics.AuthMetrics
	paths       LoginPaths
}

func NewLoginService(
	logger *zap.Logger,
	credentials *CredentialService,
	sessions *SessionService,
	tokens *RememberTokenService,
	authMetrics *metrics.AuthMetrics,
	paths LoginPaths,
) *LoginService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if paths.Landing == "" {
		paths.Landing = "/"
	}
	if paths.Login == "" {
		paths.Login = "/login"
	}
	if paths.Signup == "" {
		paths.Signup = "/users/new"
	}
	return &LoginService{
		logger:      logger,
		credentials: credentials,
		sessions:    sessions,
		tokens:      tokens,
		metrics:     authMetrics,
		paths:       paths,
	}
}

// SignupRedirect devuelve la ruta de alta cuando todavia no hay usuarios.
func (s *LoginService) SignupRedirect(ctx context.Context) (string, bool, error) {
	err := s.credentials.EnsureUsersExist(ctx)
	if errors.Is(err, ErrNoUsersExist) {
		return s.paths.Signup, true, nil
	}
	if err != nil {
		return "", false, err
	}
	return "", false, nil
}

// Login solo devuelve error ante fallas de store o de firma; las fallas de
// credenciales vuelven como LoginFailed con el aviso generico.
func (s *LoginService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	result, err := s.login(ctx, in)
	if err != nil {
		s.metrics.LoginAttempt(metrics.LoginError)
		return LoginResult{}, err
	}
	s.metrics.LoginAttempt(result.Outcome.String())
	return result, nil
}

func (s *LoginService) login(ctx context.Context, in LoginInput) (LoginResult, error) {
	signup, required, err := s.SignupRedirect(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	if required {
		return LoginResult{Outcome: LoginSignupRequired, RedirectTo: signup}, nil
	}

	user, err := s.credentials.Verify(ctx, in.Login, in.Password)
	if err != nil {
		if errors.Is(err, ErrCredentialMismatch) {
			s.logger.Info("login unsuccessful", zap.String("login", strings.TrimSpace(in.Login)))
			return LoginResult{Outcome: LoginFailed, Warning: WarningLoginUnsuccessful}, nil
		}
		return LoginResult{}, err
	}

	returnTo, err := s.sessions.ConsumeReturnTarget(ctx, in.SessionID)
	if err != nil {
		return LoginResult{}, err
	}
	// La sesion previa no sobrevive al login.
	if err := s.sessions.Destroy(ctx, in.SessionID); err != nil {
		return LoginResult{}, err
	}

	session, err := s.sessions.Establish(ctx, user, in.NoExpiry)
	if err != nil {
		return LoginResult{}, err
	}
	s.metrics.SessionEstablished(metrics.SourcePassword)

	result := LoginResult{
		Outcome:    LoginSucceeded,
		User:       user,
		Session:    session,
		Notice:     s.sessions.ExpiryNotice(session),
		RedirectTo: s.paths.Landing,
	}
	if isLocalPath(returnTo) {
		result.RedirectTo = returnTo
	}

	if in.NoExpiry {
		token, expiresAt, err := s.tokens.Issue(ctx, user)
		if err != nil {
			// La sesion nunca llega al cliente; sin TTL quedaria para siempre.
			if derr := s.sessions.Destroy(ctx, session.ID); derr != nil {
				s.logger.Warn("drop session after token failure", zap.Error(derr))
			}
			return LoginResult{}, err
		}
		result.RememberToken = token
		result.RememberTokenExpiresAt = expiresAt
	}

	s.logger.Info("login successful",
		zap.String("user_id", user.ID),
		zap.Bool("no_expiry", session.NoExpiry),
		zap.Bool("remember_token", result.RememberToken != ""),
	)
	return result, nil
}

// Logout revoca el remember token del usuario y destruye la sesion.
// Devuelve la ruta de login para redirigir.
func (s *LoginService) Logout(ctx context.Context, sessionID string, user *domain.User) (string, error) {
	if user != nil {
		if err := s.tokens.Revoke(ctx, *user); err != nil {
			return "", err
		}
	}
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return "", err
	}
	return s.paths.Login, nil
}
