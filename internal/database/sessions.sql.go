package database

import (
	"context"

	"github.com/google/uuid"
)

const getSessionStatus = `-- name: GetSessionStatus :one
SELECT status FROM sessions
WHERE id=$1
`

func (q *Queries) GetSessionStatus(ctx context.Context, id uuid.UUID) (string, error) {
	row := q.db.QueryRowContext(ctx, getSessionStatus, id)
	var status string
	err := row.Scan(&status)
	return status, err
}

const updateSessionStatus = `-- name: UpdateSessionStatus :exec
UPDATE sessions
SET status=$1
WHERE id=$2
`

type UpdateSessionStatusParams struct {
	Status string
	ID     uuid.UUID
}

func (q *Queries) UpdateSessionStatus(ctx context.Context, arg UpdateSessionStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateSessionStatus, arg.Status, arg.ID)
	return err
}
