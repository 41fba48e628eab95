package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	qb "github.com/chapterpoints/chapter-scoring/internal/platform/querybuilder"
)

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	query, args, err := qb.Select("*").From("seasons").
		OrderBy("created_at DESC", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select seasons query: %w", err)
	}

	var rows []seasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select seasons: %w", err)
	}

	out := make([]season.Season, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	return out, nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	return r.getOne(ctx, qb.Eq("id", seasonID))
}

func (r *SeasonRepository) GetActive(ctx context.Context) (season.Season, bool, error) {
	return r.getOne(ctx, qb.Eq("is_active", true))
}

func (r *SeasonRepository) getOne(ctx context.Context, condition qb.Condition) (season.Season, bool, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(condition).
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("get season: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return season.Season{}, false, err
	}

	return item, true, nil
}

func (r *SeasonRepository) Create(ctx context.Context, item season.Season) error {
	pointValues, err := encodeIntTable(item.PointValues)
	if err != nil {
		return fmt.Errorf("encode season point values: %w", err)
	}
	bonusValues, err := encodeIntTable(item.BonusValues)
	if err != nil {
		return fmt.Errorf("encode season bonus values: %w", err)
	}

	insertModel := struct {
		ID          string `db:"id"`
		Name        string `db:"name"`
		WeekCount   int    `db:"week_count"`
		CurrentWeek int    `db:"current_week"`
		IsActive    bool   `db:"is_active"`
		PointValues []byte `db:"point_values"`
		BonusValues []byte `db:"bonus_values"`
	}{
		ID:          item.ID,
		Name:        item.Name,
		WeekCount:   item.WeekCount,
		CurrentWeek: item.CurrentWeek,
		IsActive:    item.IsActive,
		PointValues: pointValues,
		BonusValues: bonusValues,
	}
	query, args, err := qb.InsertModel("seasons", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert season query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert season: %w", err)
	}

	return nil
}

func (r *SeasonRepository) Update(ctx context.Context, item season.Season) error {
	pointValues, err := encodeIntTable(item.PointValues)
	if err != nil {
		return fmt.Errorf("encode season point values: %w", err)
	}
	bonusValues, err := encodeIntTable(item.BonusValues)
	if err != nil {
		return fmt.Errorf("encode season bonus values: %w", err)
	}

	query, args, err := qb.Update("seasons").
		Set("name", item.Name).
		Set("week_count", item.WeekCount).
		Set("current_week", item.CurrentWeek).
		Set("point_values", pointValues).
		Set("bonus_values", bonusValues).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update season query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update season: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("season %s not found", item.ID)
	}

	return nil
}

// Activate flips every season inactive and the requested one active inside a
// single transaction so readers never observe zero or two active seasons
// mid-switch.
func (r *SeasonRepository) Activate(ctx context.Context, seasonID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for season activate: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE seasons SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
		return fmt.Errorf("deactivate seasons: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE seasons SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, seasonID)
	if err != nil {
		return fmt.Errorf("activate season: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected activate season: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("season %s not found", seasonID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit season activate: %w", err)
	}

	return nil
}
