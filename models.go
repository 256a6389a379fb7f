package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muhammadolammi/jobrank/internal/database"
	"github.com/muhammadolammi/jobrank/internal/report"
	"github.com/muhammadolammi/jobrank/internal/screening"
)

// Store is the part of database.Queries the worker uses.
type Store interface {
	GetResumesBySession(ctx context.Context, sessionID uuid.UUID) ([]database.Resume, error)
	GetSessionStatus(ctx context.Context, id uuid.UUID) (string, error)
	UpdateSessionStatus(ctx context.Context, arg database.UpdateSessionStatusParams) error
	CreateOrUpdateRankingResults(ctx context.Context, arg database.CreateOrUpdateRankingResultsParams) error
}

// ObjectFetcher downloads uploaded resume files.
type ObjectFetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// UpdatePublisher announces session status changes.
type UpdatePublisher interface {
	Publish(sessionID string, update map[string]any) error
}

type WorkerConfig struct {
	DB             Store
	Objects        ObjectFetcher
	Updates        UpdatePublisher
	Screener       *screening.Screener
	SkipUnreadable bool
	RABBITMQUrl    string
	RetryWait      time.Duration
	Logger         *zap.Logger
}

type Session struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Name           string    `json:"name"`
	UserID         uuid.UUID `json:"user_id"`
	Status         string    `json:"status"`
	JobTitle       string    `json:"job_title"`
	JobDescription string    `json:"job_description"`
}

type RankingResults struct {
	SessionID uuid.UUID           `json:"session_id"`
	Results   []report.Entry      `json:"results"`
	Failures  []screening.Failure `json:"failures"`
}

const (
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)
