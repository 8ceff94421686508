package history

import (
	"context"
	"errors"

	"github.com/park285/cheese-arena/pkg/arenadto"
)

var ErrDuplicateGame = errors.New("arena game already archived")

const DefaultLimit = 20

// Repository archives finished sessions.
type Repository interface {
	SaveGame(ctx context.Context, rec arenadto.GameRecord) error
	RecentGames(ctx context.Context, limit int) ([]arenadto.GameRecord, error)
	GetGame(ctx context.Context, id string) (*arenadto.GameRecord, error)
	Close() error
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > 500 {
		return 500
	}
	return limit
}
