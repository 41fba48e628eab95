package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/chapterpoints/chapter-scoring/internal/domain/draft"
	qb "github.com/chapterpoints/chapter-scoring/internal/platform/querybuilder"
)

type DraftRepository struct {
	db *sqlx.DB
}

func NewDraftRepository(db *sqlx.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) GetByID(ctx context.Context, draftID string) (draft.Draft, bool, error) {
	return r.getOne(ctx, qb.Eq("id", draftID))
}

func (r *DraftRepository) GetBySeason(ctx context.Context, seasonID string) (draft.Draft, bool, error) {
	return r.getOne(ctx, qb.Eq("season_id", seasonID))
}

func (r *DraftRepository) getOne(ctx context.Context, condition qb.Condition) (draft.Draft, bool, error) {
	query, args, err := qb.Select("*").From("drafts").
		Where(condition).
		Limit(1).
		ToSQL()
	if err != nil {
		return draft.Draft{}, false, fmt.Errorf("build get draft query: %w", err)
	}

	var row draftTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return draft.Draft{}, false, nil
		}
		return draft.Draft{}, false, fmt.Errorf("get draft: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return draft.Draft{}, false, err
	}

	picks, err := r.loadPicks(ctx, item.ID)
	if err != nil {
		return draft.Draft{}, false, err
	}
	item.Picks = picks

	return item, true, nil
}

func (r *DraftRepository) Create(ctx context.Context, item draft.Draft) error {
	leaders, err := sonic.Marshal(item.TeamLeaders)
	if err != nil {
		return fmt.Errorf("encode draft team leaders: %w", err)
	}

	insertModel := struct {
		ID                string `db:"id"`
		SeasonID          string `db:"season_id"`
		TeamLeaders       []byte `db:"team_leaders"`
		CurrentPickNumber int    `db:"current_pick_number"`
		Status            string `db:"status"`
	}{
		ID:                item.ID,
		SeasonID:          item.SeasonID,
		TeamLeaders:       leaders,
		CurrentPickNumber: item.CurrentPickNumber,
		Status:            string(item.Status),
	}
	query, args, err := qb.InsertModel("drafts", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert draft query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return crerr.Wrapf(draft.ErrDraftExists, "insert draft: %v", err)
		}
		return fmt.Errorf("insert draft: %w", err)
	}

	return nil
}

// AppendPick advances the pick counter with a guarded UPDATE before inserting
// the pick row. The WHERE on current_pick_number is the compare-and-swap: a
// concurrent pick that already advanced the counter makes the UPDATE touch
// zero rows and the loser gets ErrPickConflict.
func (r *DraftRepository) AppendPick(ctx context.Context, draftID string, expectedPickNumber int, pick draft.Pick) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for draft pick: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE drafts SET
    current_pick_number = current_pick_number + 1,
    updated_at = NOW()
WHERE id = $1 AND current_pick_number = $2 AND status = $3`,
		draftID, expectedPickNumber, string(draft.StatusInProgress))
	if err != nil {
		return fmt.Errorf("advance draft pick counter: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected advance draft pick counter: %w", err)
	}
	if affected == 0 {
		return draft.ErrPickConflict
	}

	insertModel := draftPickInsertModel{
		DraftID:    draftID,
		UserID:     pick.UserID,
		TeamID:     pick.TeamID,
		Round:      pick.Round,
		PickNumber: pick.PickNumber,
		PickedBy:   pick.PickedBy,
		PickedAt:   pick.PickedAt,
	}
	query, args, err := qb.InsertModel("draft_picks", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert draft pick query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return crerr.Wrapf(draft.ErrPickConflict, "insert draft pick: %v", err)
		}
		return fmt.Errorf("insert draft pick: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit draft pick: %w", err)
	}

	return nil
}

func (r *DraftRepository) UpdateTeamLeaders(ctx context.Context, draftID string, leaders []draft.TeamLeaderSlot) error {
	encoded, err := sonic.Marshal(leaders)
	if err != nil {
		return fmt.Errorf("encode draft team leaders: %w", err)
	}

	query, args, err := qb.Update("drafts").
		Set("team_leaders", encoded).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", draftID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update draft team leaders query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update draft team leaders: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("draft %s not found", draftID)
	}

	return nil
}

// Finalize marks the draft completed and moves every drafted user onto the
// team that picked them in one transaction.
func (r *DraftRepository) Finalize(ctx context.Context, draftID string, assignments map[string]string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for draft finalize: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE drafts SET
    status = $1,
    updated_at = NOW()
WHERE id = $2 AND status <> $1`,
		string(draft.StatusCompleted), draftID)
	if err != nil {
		return fmt.Errorf("complete draft: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected complete draft: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("draft %s not found or already completed", draftID)
	}

	for userID, teamID := range assignments {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET team_id = $1, updated_at = NOW() WHERE id = $2`, teamID, userID); err != nil {
			return fmt.Errorf("assign user %s to team: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit draft finalize: %w", err)
	}

	return nil
}

func (r *DraftRepository) loadPicks(ctx context.Context, draftID string) ([]draft.Pick, error) {
	query, args, err := qb.Select("*").From("draft_picks").
		Where(qb.Eq("draft_id", draftID)).
		OrderBy("pick_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select draft picks query: %w", err)
	}

	var rows []draftPickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select draft picks: %w", err)
	}

	picks := make([]draft.Pick, 0, len(rows))
	for _, row := range rows {
		picks = append(picks, row.toDomain())
	}

	return picks, nil
}
