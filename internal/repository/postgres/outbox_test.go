package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/model"
)

func TestOutboxRepository_Create(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewOutboxRepository(base)

	payload := json.RawMessage(`{"to":"ana@example.com"}`)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
		WithArgs(sqlmock.AnyArg(), model.EventEmailSend, []byte(payload), model.OutboxStatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	evt := &model.OutboxEvent{EventType: model.EventEmailSend, Payload: payload}
	require.NoError(t, repo.Create(context.Background(), nil, evt))
	assert.Equal(t, model.OutboxStatusPending, evt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_CreateRejectsEmptyPayload(t *testing.T) {
	base, _ := newMockBase(t)
	repo := NewOutboxRepository(base)
	assert.Error(t, repo.Create(context.Background(), nil, &model.OutboxEvent{EventType: model.EventEmailSend}))
}

func TestOutboxRepository_ClaimPendingSkipsLocked(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewOutboxRepository(base)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WithArgs(25, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "payload", "status", "attempts", "created_at"}).
			AddRow(id, model.EventEmailSend, []byte(`{}`), "processing", 1, time.Now()))

	events, err := repo.ClaimPending(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, 1, events[0].Attempts)
}
