package draft

import (
	"context"

	crerr "github.com/cockroachdb/errors"
)

// ErrPickConflict is returned by AppendPick when the expected pick number no
// longer matches the stored counter, i.e. a concurrent pick won the race.
var ErrPickConflict = crerr.New("draft pick number conflict")

// ErrDraftExists is returned by Create when the season already has a draft.
var ErrDraftExists = crerr.New("draft already exists for season")

// Repository describes draft persistence needs from use cases.
//
// AppendPick must atomically compare the stored CurrentPickNumber against
// expectedPickNumber, append the pick and advance the counter; losing racers
// get ErrPickConflict. Finalize must apply the user→team assignments and mark
// the draft completed in one atomic write.
type Repository interface {
	GetByID(ctx context.Context, draftID string) (Draft, bool, error)
	GetBySeason(ctx context.Context, seasonID string) (Draft, bool, error)
	Create(ctx context.Context, item Draft) error
	AppendPick(ctx context.Context, draftID string, expectedPickNumber int, pick Pick) error
	UpdateTeamLeaders(ctx context.Context, draftID string, leaders []TeamLeaderSlot) error
	Finalize(ctx context.Context, draftID string, assignments map[string]string) error
}
