package repository

import (
	"context"

	"tracks-login/internal/domain"
)

type PreferencesRepository interface {
	GetByUserID(ctx context.Context, userID string) (domain.Preferences, error)
}

type PgPreferencesRepository struct {
	db DBTX
}

func NewPgPreferencesRepository(db DBTX) *PgPreferencesRepository {
	return &PgPreferencesRepository{db: db}
}

func (r *PgPreferencesRepository) GetByUserID(ctx context.Context, userID string) (domain.Preferences, error) {
	const query = `SELECT id, user_id, date_format, time_zone, week_starts, updated_at FROM preferences WHERE user_id = $1`
	var p domain.Preferences
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.DateFormat,
		&p.TimeZone,
		&p.WeekStarts,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Preferences{}, err
	}
	return p, nil
}
