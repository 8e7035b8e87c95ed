package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tracks-login/internal/domain"
	"tracks-login/internal/repository"
)

// RequestState es lo que el request trae para resolver la identidad:
// el id de sesion y el valor de la cookie de remember token, si existen.
type RequestState struct {
	SessionID     string
	RememberToken string
}

// Identity es el resultado de una resolucion. Usuario y preferencias salen
// del mismo paso, nunca de lecturas separadas.
type Identity struct {
	user        *domain.User
	preferences *domain.Preferences

	// Session es la sesion vigente del request, autenticada o anonima.
	Session    domain.Session
	HasSession bool
	// SessionEstablished indica que la sesion se creo en esta resolucion
	// a partir del remember token.
	SessionEstablished bool
}

func (i Identity) CurrentUser() *domain.User {
	return i.user
}

func (i Identity) CurrentPreferences() *domain.Preferences {
	if i.user == nil {
		return nil
	}
	return i.preferences
}

func (i Identity) IsAuthenticated() bool {
	return i.CurrentUser() != nil
}

// IdentityService resuelve el usuario autenticado del request actual.
type IdentityService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	prefs    repository.PreferencesRepository
	sessions *SessionService
	tokens   *RememberTokenService
}

func NewIdentityService(
	logger *zap.Logger,
	users repository.UserRepository,
	prefs repository.PreferencesRepository,
	sessions *SessionService,
	tokens *RememberTokenService,
) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{
		logger:   logger,
		users:    users,
		prefs:    prefs,
		sessions: sessions,
		tokens:   tokens,
	}
}

// Resolve prueba primero la sesion y despues el remember token.
// Token invalido o expirado resuelve a anonimo; fallas del store se propagan.
func (s *IdentityService) Resolve(ctx context.Context, state RequestState) (Identity, error) {
	var identity Identity

	session, ok, err := s.sessions.Load(ctx, state.SessionID)
	if err != nil {
		return Identity{}, err
	}
	if ok {
		identity.Session = session
		identity.HasSession = true
	}

	if ok && session.Authenticated() {
		user, err := s.users.GetByID(ctx, session.UserID)
		switch {
		case err == nil:
			return s.withUser(ctx, identity, user)
		case errors.Is(err, pgx.ErrNoRows):
			// La cuenta se borro con la sesion abierta.
			s.logger.Info("session user no longer exists", zap.String("user_id", session.UserID))
			if err := s.sessions.Destroy(ctx, session.ID); err != nil {
				return Identity{}, err
			}
			identity.Session = domain.Session{}
			identity.HasSession = false
		default:
			return Identity{}, storeUnavailable("find session user", err)
		}
	}

	if state.RememberToken == "" || s.tokens == nil {
		return identity, nil
	}

	user, tokenSession, err := s.tokens.Authenticate(ctx, state.RememberToken)
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) || errors.Is(err, ErrTokenExpired) {
			s.logger.Info("remember token rejected", zap.Error(err))
			return identity, nil
		}
		return Identity{}, err
	}
	if identity.HasSession {
		// El destino pendiente de la sesion anonima pasa a la sesion nueva.
		if identity.Session.ReturnTo != "" {
			carried, err := s.sessions.CaptureReturnTarget(ctx, tokenSession.ID, identity.Session.ReturnTo)
			if err != nil {
				return Identity{}, err
			}
			tokenSession = carried
		}
		if err := s.sessions.Destroy(ctx, identity.Session.ID); err != nil {
			s.logger.Warn("drop anonymous session failed", zap.Error(err))
		}
	}
	identity.Session = tokenSession
	identity.HasSession = true
	identity.SessionEstablished = true
	return s.withUser(ctx, identity, user)
}

// CurrentUser, CurrentPreferences e IsAuthenticated resuelven sobre state y,
// si el token abrio una sesion, escriben su id en state. Asi las llamadas
// siguientes del mismo request usan la sesion y no vuelven a usar el token.
func (s *IdentityService) CurrentUser(ctx context.Context, state *RequestState) (*domain.User, error) {
	identity, err := s.resolveInto(ctx, state)
	if err != nil {
		return nil, err
	}
	return identity.CurrentUser(), nil
}

func (s *IdentityService) CurrentPreferences(ctx context.Context, state *RequestState) (*domain.Preferences, error) {
	identity, err := s.resolveInto(ctx, state)
	if err != nil {
		return nil, err
	}
	return identity.CurrentPreferences(), nil
}

func (s *IdentityService) IsAuthenticated(ctx context.Context, state *RequestState) (bool, error) {
	identity, err := s.resolveInto(ctx, state)
	if err != nil {
		return false, err
	}
	return identity.IsAuthenticated(), nil
}

func (s *IdentityService) resolveInto(ctx context.Context, state *RequestState) (Identity, error) {
	if state == nil {
		state = &RequestState{}
	}
	identity, err := s.Resolve(ctx, *state)
	if err != nil {
		return Identity{}, err
	}
	if identity.HasSession {
		state.SessionID = identity.Session.ID
	}
	return identity, nil
}

func (s *IdentityService) withUser(ctx context.Context, identity Identity, user domain.User) (Identity, error) {
	identity.user = &user
	if s.prefs == nil {
		return identity, nil
	}
	prefs, err := s.prefs.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity, nil
		}
		return Identity{}, storeUnavailable("find preferences", err)
	}
	identity.preferences = &prefs
	return identity, nil
}
