// source: analytics.sql

package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

const getBoardsCreatedCount = `-- name: GetBoardsCreatedCount :one
SELECT boards_created FROM board_server_analytics WHERE server_ip = $1
`

func (q *Queries) GetBoardsCreatedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	row := q.db.QueryRowContext(ctx, getBoardsCreatedCount, serverIp)
	var boards_created int64
	err := row.Scan(&boards_created)
	return boards_created, err
}

const getShotsFiredCount = `-- name: GetShotsFiredCount :one
SELECT shots_fired FROM board_server_analytics WHERE server_ip = $1
`

func (q *Queries) GetShotsFiredCount(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	row := q.db.QueryRowContext(ctx, getShotsFiredCount, serverIp)
	var shots_fired int64
	err := row.Scan(&shots_fired)
	return shots_fired, err
}

const incrementBoardsCreatedCount = `-- name: IncrementBoardsCreatedCount :exec
INSERT INTO board_server_analytics (server_ip, boards_created)
VALUES ($1, 1)
ON CONFLICT (server_ip) DO UPDATE
SET boards_created = board_server_analytics.boards_created + 1
`

func (q *Queries) IncrementBoardsCreatedCount(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, incrementBoardsCreatedCount, serverIp)
	return err
}

const incrementShotsFiredCount = `-- name: IncrementShotsFiredCount :exec
INSERT INTO board_server_analytics (server_ip, shots_fired)
VALUES ($1, 1)
ON CONFLICT (server_ip) DO UPDATE
SET shots_fired = board_server_analytics.shots_fired + 1
`

func (q *Queries) IncrementShotsFiredCount(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, incrementShotsFiredCount, serverIp)
	return err
}
