package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tracks-login/internal/domain"
)

const (
	NoticeSessionNoExpiry    = "Login successful: session will not expire."
	WarningLoginUnsuccessful = "Login unsuccessful"
)

// SessionService crea, carga y destruye sesiones autenticadas.
type SessionService struct {
	logger           *zap.Logger
	store            SessionStore
	idleTimeout      time.Duration
	adminNeverExpire bool
	now              func() time.Time
}

func NewSessionService(logger *zap.Logger, store SessionStore, idleTimeout time.Duration, adminNeverExpire bool) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemorySessionStore()
	}
	if idleTimeout <= 0 {
		idleTimeout = time.Hour
	}
	return &SessionService{
		logger:           logger,
		store:            store,
		idleTimeout:      idleTimeout,
		adminNeverExpire: adminNeverExpire,
		now:              time.Now,
	}
}

// Establish crea una sesion nueva ligada al usuario. Siempre usa un id nuevo.
func (s *SessionService) Establish(ctx context.Context, user domain.User, noExpiry bool) (domain.Session, error) {
	if strings.TrimSpace(user.ID) == "" {
		return domain.Session{}, errors.New("establish session: user id is required")
	}
	if s.adminNeverExpire && user.IsAdmin {
		noExpiry = true
	}
	now := s.now().UTC()
	session := domain.Session{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		NoExpiry:   noExpiry,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.store.Save(ctx, session, s.ttlFor(session)); err != nil {
		return domain.Session{}, storeUnavailable("save session", err)
	}
	return session, nil
}

// Load devuelve la sesion y renueva su ventana de inactividad.
func (s *SessionService) Load(ctx context.Context, sessionID string) (domain.Session, bool, error) {
	session, ok, err := s.get(ctx, sessionID)
	if err != nil || !ok {
		return domain.Session{}, false, err
	}
	if !session.NoExpiry {
		session.LastSeenAt = s.now().UTC()
		if err := s.store.Save(ctx, session, s.ttlFor(session)); err != nil {
			s.logger.Warn("touch session failed", zap.Error(err))
		}
	}
	return session, true, nil
}

// CaptureReturnTarget recuerda la URL protegida que se intento abrir.
// Crea una sesion anonima si hace falta; el primer target gana hasta consumirse.
func (s *SessionService) CaptureReturnTarget(ctx context.Context, sessionID, target string) (domain.Session, error) {
	session, ok, err := s.get(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if !ok {
		now := s.now().UTC()
		session = domain.Session{
			ID:         uuid.NewString(),
			CreatedAt:  now,
			LastSeenAt: now,
		}
	}
	if session.ReturnTo == "" && isLocalPath(target) {
		session.ReturnTo = target
	}
	if err := s.store.Save(ctx, session, s.ttlFor(session)); err != nil {
		return domain.Session{}, storeUnavailable("save session", err)
	}
	return session, nil
}

// ConsumeReturnTarget devuelve el target pendiente y lo limpia.
func (s *SessionService) ConsumeReturnTarget(ctx context.Context, sessionID string) (string, error) {
	session, ok, err := s.get(ctx, sessionID)
	if err != nil || !ok || session.ReturnTo == "" {
		return "", err
	}
	target := session.ReturnTo
	session.ReturnTo = ""
	if err := s.store.Save(ctx, session, s.ttlFor(session)); err != nil {
		return "", storeUnavailable("save session", err)
	}
	return target, nil
}

// Destroy borra todo el estado de la sesion.
func (s *SessionService) Destroy(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return storeUnavailable("delete session", err)
	}
	return nil
}

// ExpiryNotice arma el aviso de login segun la sesion expire o no.
func (s *SessionService) ExpiryNotice(session domain.Session) string {
	if session.NoExpiry {
		return NoticeSessionNoExpiry
	}
	return fmt.Sprintf("Login successful: session will expire after %s of inactivity.", humanizeDuration(s.idleTimeout))
}

func (s *SessionService) get(ctx context.Context, sessionID string) (domain.Session, bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.Session{}, false, nil
	}
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, storeUnavailable("load session", err)
	}
	return session, true, nil
}

func (s *SessionService) ttlFor(session domain.Session) time.Duration {
	if session.NoExpiry {
		return 0
	}
	return s.idleTimeout
}

// humanizeDuration redondea hacia arriba al minuto; nunca devuelve "0 minutes".
func humanizeDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int(d/time.Hour), "hour")
	}
	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// isLocalPath acepta solo rutas del mismo host, para no redirigir afuera.
func isLocalPath(target string) bool {
	if !strings.HasPrefix(target, "/") {
		return false
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	return !strings.ContainsAny(target, "\r\n")
}
