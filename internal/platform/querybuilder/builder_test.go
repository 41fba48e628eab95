package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelectNumbersPlaceholdersInArgOrder(t *testing.T) {
	query, args, err := Select("id", "user_id", "total_points").
		From("scores").
		Where(Eq("session_id", "sess-1"), Eq("published", true)).
		OrderBy("total_points DESC").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}

	want := "SELECT id, user_id, total_points FROM scores WHERE session_id = $1 AND published = $2 ORDER BY total_points DESC LIMIT 10"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{"sess-1", true}) {
		t.Errorf("args = %v", args)
	}
}

func TestSelectRequiresTable(t *testing.T) {
	if _, _, err := Select("id").ToSQL(); err == nil {
		t.Error("expected error for missing table")
	}
	if _, _, err := Select().From("sessions").ToSQL(); err == nil {
		t.Error("expected error for missing columns")
	}
}

func TestInWithEmptyValuesMatchesNothing(t *testing.T) {
	query, args, err := Select("id").
		From("scores").
		Where(In("user_id", nil)).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}

	want := "SELECT id FROM scores WHERE 1=0"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestInNumbersEachValue(t *testing.T) {
	query, args, err := Select("id").
		From("scores").
		Where(Eq("session_id", "sess-1"), In("user_id", []any{"u1", "u2"})).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}

	want := "SELECT id FROM scores WHERE session_id = $1 AND user_id IN ($2, $3)"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{"sess-1", "u1", "u2"}) {
		t.Errorf("args = %v", args)
	}
}

func TestUpdateMixesValueAndRawAssignments(t *testing.T) {
	query, args, err := Update("sessions").
		Set("status", "published").
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "sess-1")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}

	want := "UPDATE sessions SET status = $1, updated_at = NOW() WHERE id = $2"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{"published", "sess-1"}) {
		t.Errorf("args = %v", args)
	}
}

func TestUpdateRequiresAssignments(t *testing.T) {
	if _, _, err := Update("sessions").Where(Eq("id", "sess-1")).ToSQL(); err == nil {
		t.Error("expected error for update without assignments")
	}
}

func TestExprCarriesArgs(t *testing.T) {
	query, args, err := Select("id").
		From("users").
		Where(Expr("team_id <> ''"), Expr("created_at >= ?", "2026-01-01")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}

	want := "SELECT id FROM users WHERE team_id <> '' AND created_at >= $1"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{"2026-01-01"}) {
		t.Errorf("args = %v", args)
	}
}

func TestInsertModelUsesDBTags(t *testing.T) {
	type scoreRow struct {
		ID        string `db:"id"`
		UserID    string `db:"user_id"`
		Total     int    `db:"total_points"`
		Published bool   `db:"published"`
		ignored   string //nolint:unused
		Skipped   string `db:"-"`
	}

	row := scoreRow{ID: "score-1", UserID: "u1", Total: 250, Published: true}
	query, args, err := InsertModel("scores", &row, "ON CONFLICT (id) DO NOTHING")
	if err != nil {
		t.Fatalf("InsertModel: %v", err)
	}

	want := "INSERT INTO scores (id, user_id, total_points, published) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{"score-1", "u1", 250, true}) {
		t.Errorf("args = %v", args)
	}
}

func TestInsertModelRejectsNonStruct(t *testing.T) {
	if _, _, err := InsertModel("scores", "not a struct", ""); err == nil {
		t.Error("expected error for non-struct model")
	}
	var nilRow *struct {
		ID string `db:"id"`
	}
	if _, _, err := InsertModel("scores", nilRow, ""); err == nil {
		t.Error("expected error for nil model")
	}
}
