package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tracks-login/internal/domain"
	"tracks-login/internal/repository"
)

// dummyPassword alimenta el hash que se compara cuando el login no existe,
// asi ambos caminos de falla hacen el mismo trabajo.
const dummyPassword = "tracks-login-dummy-password"

// CredentialService verifica login y password contra el hash guardado.
type CredentialService struct {
	logger    *zap.Logger
	users     repository.UserRepository
	hasher    PasswordHasher
	dummyHash string
}

func NewCredentialService(logger *zap.Logger, users repository.UserRepository, hasher PasswordHasher) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		logger.Warn("dummy password hash failed", zap.Error(err))
	}
	return &CredentialService{
		logger:    logger,
		users:     users,
		hasher:    hasher,
		dummyHash: dummyHash,
	}
}

// Verify devuelve el usuario si login y password coinciden.
// Login desconocido y password incorrecto devuelven ErrCredentialMismatch.
func (s *CredentialService) Verify(ctx context.Context, login, password string) (domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return domain.User{}, ErrCredentialMismatch
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.hasher.Verify(password, s.dummyHash)
			return domain.User{}, ErrCredentialMismatch
		}
		return domain.User{}, storeUnavailable("find user by login", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return domain.User{}, ErrCredentialMismatch
	}
	return user, nil
}

// EnsureUsersExist devuelve ErrNoUsersExist cuando no hay ninguna cuenta creada.
func (s *CredentialService) EnsureUsersExist(ctx context.Context) error {
	n, err := s.users.Count(ctx)
	if err != nil {
		return storeUnavailable("count users", err)
	}
	if n == 0 {
		return ErrNoUsersExist
	}
	return nil
}
