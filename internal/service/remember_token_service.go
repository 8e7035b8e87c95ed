package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tracks-login/internal/domain"
	"tracks-login/internal/metrics"
	"tracks-login/internal/repository"
)

const (
	rememberTokenIssuer = "tracks-login"
	rememberTokenType   = "remember"
)

type rememberClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// RememberTokenService emite, valida y revoca tokens "remember me".
// Hay un solo token vivo por usuario, guardado en el registro del usuario.
// Dos logins simultaneos del mismo usuario compiten por ese campo y gana
// la ultima escritura; el token anterior deja de validar.
type RememberTokenService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	sessions *SessionService
	metrics  *metrics.AuthMetrics
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewRememberTokenService(
	logger *zap.Logger,
	users repository.UserRepository,
	sessions *SessionService,
	authMetrics *metrics.AuthMetrics,
	secret string,
	ttl time.Duration,
) *RememberTokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &RememberTokenService{
		logger:   logger,
		users:    users,
		sessions: sessions,
		metrics:  authMetrics,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue genera un token nuevo, lo guarda con su expiracion absoluta y lo devuelve.
func (s *RememberTokenService) Issue(ctx context.Context, user domain.User) (string, time.Time, error) {
	if len(s.secret) == 0 || strings.TrimSpace(user.ID) == "" {
		return "", time.Time{}, ErrTokenSigning
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := rememberClaims{
		TokenType: rememberTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    rememberTokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Join(ErrTokenSigning, err)
	}

	user.SetRememberToken(token, expiresAt)
	if err := s.users.Save(ctx, user); err != nil {
		return "", time.Time{}, storeUnavailable("save remember token", err)
	}
	s.metrics.TokenIssued()
	return token, expiresAt, nil
}

// Validate devuelve el usuario dueño del token.
// ErrTokenInvalid si nadie guarda ese valor, ErrTokenExpired si la expiracion
// guardada ya paso. La expiracion guardada es la que manda.
func (s *RememberTokenService) Validate(ctx context.Context, token string) (domain.User, error) {
	user, err := s.validate(ctx, token)
	switch {
	case err == nil:
		s.metrics.TokenValidation(metrics.TokenValid)
	case errors.Is(err, ErrTokenExpired):
		s.metrics.TokenValidation(metrics.TokenExpired)
	case errors.Is(err, ErrTokenInvalid):
		s.metrics.TokenValidation(metrics.TokenInvalid)
	default:
		s.metrics.TokenValidation(metrics.TokenError)
	}
	return user, err
}

// Authenticate valida el token y, si es valido, abre una sesion para el usuario.
func (s *RememberTokenService) Authenticate(ctx context.Context, token string) (domain.User, domain.Session, error) {
	user, err := s.Validate(ctx, token)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	session, err := s.sessions.Establish(ctx, user, false)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	s.metrics.SessionEstablished(metrics.SourceRememberToken)
	return user, session, nil
}

// Revoke borra token y expiracion del usuario; el valor viejo ya no valida.
func (s *RememberTokenService) Revoke(ctx context.Context, user domain.User) error {
	user.ClearRememberToken()
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return storeUnavailable("clear remember token", err)
	}
	s.metrics.TokenRevoked()
	return nil
}

func (s *RememberTokenService) validate(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(s.secret) == 0 {
		return domain.User{}, ErrTokenInvalid
	}
	claims, err := s.parse(token)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.users.GetByRememberToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrTokenInvalid
		}
		return domain.User{}, storeUnavailable("find user by remember token", err)
	}
	if !user.HasRememberToken() ||
		subtle.ConstantTimeCompare([]byte(*user.RememberToken), []byte(token)) != 1 ||
		user.ID != claims.Subject {
		return domain.User{}, ErrTokenInvalid
	}
	if !user.RememberTokenExpiresAt.After(s.now().UTC()) {
		return domain.User{}, ErrTokenExpired
	}
	return user, nil
}

// parse solo comprueba firma, emisor y tipo. La expiracion se decide con el
// valor guardado en el usuario, no con el claim.
func (s *RememberTokenService) parse(token string) (rememberClaims, error) {
	var claims rememberClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return rememberClaims{}, ErrTokenInvalid
	}
	if claims.TokenType != rememberTokenType ||
		claims.Issuer != rememberTokenIssuer ||
		strings.TrimSpace(claims.Subject) == "" {
		return rememberClaims{}, ErrTokenInvalid
	}
	return claims, nil
}
