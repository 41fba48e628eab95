package usecase

import (
	"errors"

	"github.com/chapterpoints/chapter-scoring/internal/domain/draft"
)

func isPickConflict(err error) bool {
	return errors.Is(err, draft.ErrPickConflict)
}

func isDraftExists(err error) bool {
	return errors.Is(err, draft.ErrDraftExists)
}
