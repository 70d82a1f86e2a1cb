package session_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go-fieldpay/internal/order"
	"go-fieldpay/internal/session"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleReview() session.Review {
	return session.Review{
		PeriodLabel: "16-30.11.25",
		Records: []order.Record{{
			Worker:         "Иванов Иван",
			RawText:        "Заказ клиента КАУТ-1",
			OrderCode:      "КАУТ-1",
			ServicePayment: 3000,
		}},
		NameMap:   map[string]string{"Иванов И": "Иванов Иван"},
		CreatedAt: time.Date(2025, 11, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_SaveGetDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := session.NewStore(db, zap.NewNop())
	ctx := context.Background()

	rev := sampleReview()
	payload, err := json.Marshal(rev)
	require.NoError(t, err)

	mock.ExpectSet("payrun:review:sess-1", payload, 2*time.Hour).SetVal("OK")
	require.NoError(t, store.Save(ctx, "sess-1", rev))

	mock.ExpectGet("payrun:review:sess-1").SetVal(string(payload))
	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, rev.PeriodLabel, got.PeriodLabel)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "КАУТ-1", got.Records[0].OrderCode)
	assert.Equal(t, rev.NameMap, got.NameMap)

	mock.ExpectDel("payrun:review:sess-1").SetVal(1)
	require.NoError(t, store.Delete(ctx, "sess-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get_Expired(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := session.NewStore(db, zap.NewNop())

	mock.ExpectGet("payrun:review:gone").RedisNil()
	_, err := store.Get(context.Background(), "gone")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
