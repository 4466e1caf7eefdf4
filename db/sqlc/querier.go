package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

type Querier interface {
	GetBoardsCreatedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error)
	GetShotsFiredCount(ctx context.Context, serverIp pqtype.Inet) (int64, error)
	IncrementBoardsCreatedCount(ctx context.Context, serverIp pqtype.Inet) error
	IncrementShotsFiredCount(ctx context.Context, serverIp pqtype.Inet) error
}

var _ Querier = (*Queries)(nil)
