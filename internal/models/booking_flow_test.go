package models

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDraftRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := RedisNewRepo(client)
	ctx := context.Background()

	draft := &BookingDraft{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		EventID:   uuid.New(),
		Step:      StepEnterInfo,
		Quantity:  2,
		UnitPrice: decimal.NewFromInt(125),
	}
	data, err := json.Marshal(draft)
	require.NoError(t, err)

	key := "booking_draft:" + draft.ID.String()
	mock.ExpectSet(key, data, 30*time.Minute).SetVal("OK")
	mock.ExpectGet(key).SetVal(string(data))

	require.NoError(t, repo.SaveDraft(ctx, draft, 30*time.Minute))

	loaded, err := repo.GetDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, StepEnterInfo, loaded.Step)
	assert.Equal(t, 2, loaded.Quantity)
	assert.True(t, loaded.UnitPrice.Equal(decimal.NewFromInt(125)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisDraftMissing(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := RedisNewRepo(client)
	id := uuid.New()

	mock.ExpectGet("booking_draft:" + id.String()).RedisNil()

	_, err := repo.GetDraft(context.Background(), id)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisDraftErrorsAreWrapped(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := RedisNewRepo(client)
	id := uuid.New()

	mock.ExpectGet("booking_draft:" + id.String()).SetErr(errors.New("connection refused"))
	mock.ExpectDel("booking_draft:" + id.String()).SetVal(1)

	_, err := repo.GetDraft(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDraftNotFound)
	assert.Contains(t, err.Error(), "connection refused")

	assert.NoError(t, repo.DeleteDraft(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
