package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tracks-login/internal/config"
	"tracks-login/internal/db"
	"tracks-login/internal/domain"
	"tracks-login/internal/repository"
	"tracks-login/internal/service"
)

// seed_user crea una cuenta con el mismo hasher que usa el login.
func main() {
	login := flag.String("login", "", "login of the new user")
	password := flag.String("password", "", "password of the new user")
	admin := flag.Bool("admin", false, "create the user as administrator")
	flag.Parse()

	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	hasher := service.NewBcryptHasher(cfg.AuthSalt, cfg.BcryptCost)
	user, err := newSeedUser(hasher, *login, *password, *admin)
	if err != nil {
		logger.Fatal("invalid user", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	if err := repository.NewPgUserRepository(pool).Create(ctx, user); err != nil {
		logger.Fatal("create user", zap.Error(err))
	}
	logger.Info("user created", zap.String("id", user.ID), zap.String("login", user.Login), zap.Bool("admin", user.IsAdmin))
}

var errMissingCredentials = errors.New("login and password are required")

// newSeedUser arma la cuenta con el hash que despues valida el login.
func newSeedUser(hasher service.PasswordHasher, login, password string, admin bool) (domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return domain.User{}, errMissingCredentials
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: hash,
		IsAdmin:      admin,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
