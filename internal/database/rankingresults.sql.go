package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const createOrUpdateRankingResults = `-- name: CreateOrUpdateRankingResults :exec
INSERT INTO ranking_results (
results, failures, session_id)
VALUES ( $1, $2, $3)
ON CONFLICT (session_id)
DO UPDATE SET
    results = EXCLUDED.results,
    failures = EXCLUDED.failures,
    updated_at = CURRENT_TIMESTAMP
`

type CreateOrUpdateRankingResultsParams struct {
	Results   json.RawMessage
	Failures  json.RawMessage
	SessionID uuid.UUID
}

func (q *Queries) CreateOrUpdateRankingResults(ctx context.Context, arg CreateOrUpdateRankingResultsParams) error {
	_, err := q.db.ExecContext(ctx, createOrUpdateRankingResults, arg.Results, arg.Failures, arg.SessionID)
	return err
}

const getRankingResultsBySession = `-- name: GetRankingResultsBySession :one
SELECT id, results, failures, created_at, updated_at, session_id FROM ranking_results
WHERE session_id=$1
`

func (q *Queries) GetRankingResultsBySession(ctx context.Context, sessionID uuid.UUID) (RankingResult, error) {
	row := q.db.QueryRowContext(ctx, getRankingResultsBySession, sessionID)
	var i RankingResult
	err := row.Scan(
		&i.ID,
		&i.Results,
		&i.Failures,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.SessionID,
	)
	return i, err
}
