package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"tracks-login/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByLogin(ctx context.Context, login string) (domain.User, error)
	GetByRememberToken(ctx context.Context, token string) (domain.User, error)
	Count(ctx context.Context) (int64, error)
	Save(ctx context.Context, user domain.User) error
}

// PgUserRepository implementa UserRepository usando pgx.
type PgUserRepository struct {
	db DBTX
}

func NewPgUserRepository(db DBTX) *PgUserRepository {
	return &PgUserRepository{db: db}
}

const userColumns = `id, login, password_hash, is_admin, remember_token, remember_token_expires_at, created_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, login, password_hash, is_admin, remember_token, remember_token_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Login,
		user.PasswordHash,
		user.IsAdmin,
		user.RememberToken,
		user.RememberTokenExpiresAt,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PgUserRepository) GetByLogin(ctx context.Context, login string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE login = $1`, login)
}

// GetByRememberToken busca al usuario cuyo token guardado es exactamente token.
func (r *PgUserRepository) GetByRememberToken(ctx context.Context, token string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE remember_token = $1`, token)
}

func (r *PgUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// Save actualiza los campos mutables del usuario. Token y expiracion
// se escriben en la misma sentencia.
func (r *PgUserRepository) Save(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users
		SET password_hash = $2,
		    is_admin = $3,
		    remember_token = $4,
		    remember_token_expires_at = $5
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		user.ID,
		user.PasswordHash,
		user.IsAdmin,
		user.RememberToken,
		user.RememberTokenExpiresAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, arg string) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Login,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.RememberToken,
		&u.RememberTokenExpiresAt,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if !u.HasRememberToken() {
		u.ClearRememberToken()
	}
	return u, nil
}
