package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
)

// OutboxStore is the slice of the outbox repository the processor needs.
type OutboxStore interface {
	ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// Pruner deletes rows that are no longer needed.
type Pruner interface {
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
