package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Resume struct {
	ID               uuid.UUID
	OriginalFilename string
	Mime             string
	SizeBytes        int64
	StorageProvider  string
	ObjectKey        string
	StorageUrl       string
	UploadStatus     string
	CreatedAt        time.Time
	SessionID        uuid.UUID
}

type RankingResult struct {
	ID        uuid.UUID
	Results   json.RawMessage
	Failures  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
	SessionID uuid.UUID
}
