package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	qb "github.com/chapterpoints/chapter-scoring/internal/platform/querybuilder"
)

// settingsRowID is the fixed primary key of the single global settings row.
const settingsRowID = 1

type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (settings.Settings, bool, error) {
	query, args, err := qb.Select("*").From("settings").
		Where(qb.Eq("id", settingsRowID)).
		ToSQL()
	if err != nil {
		return settings.Settings{}, false, fmt.Errorf("build get settings query: %w", err)
	}

	var row settingsTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return settings.Settings{}, false, nil
		}
		return settings.Settings{}, false, fmt.Errorf("get settings: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return settings.Settings{}, false, err
	}

	return item, true, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, item settings.Settings) error {
	pointValues, err := encodeIntTable(item.PointValues)
	if err != nil {
		return fmt.Errorf("encode point values: %w", err)
	}
	bonusValues, err := encodeIntTable(item.BonusValues)
	if err != nil {
		return fmt.Errorf("encode bonus values: %w", err)
	}

	insertModel := struct {
		ID          int    `db:"id"`
		PointValues []byte `db:"point_values"`
		BonusValues []byte `db:"bonus_values"`
	}{
		ID:          settingsRowID,
		PointValues: pointValues,
		BonusValues: bonusValues,
	}
	suffix := `ON CONFLICT (id) DO UPDATE SET
    point_values = EXCLUDED.point_values,
    bonus_values = EXCLUDED.bonus_values,
    updated_at = NOW()`
	query, args, err := qb.InsertModel("settings", insertModel, suffix)
	if err != nil {
		return fmt.Errorf("build upsert settings query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	return nil
}
