package payrun_test

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"go-fieldpay/internal/order"
	"go-fieldpay/internal/payrun"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepoTest(t *testing.T) (payrun.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return payrun.NewRepository(gdb), mock
}

func TestRepository_FindPeriodByLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, mock := setupRepoTest(t)
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "periods" WHERE label = $1`)).
			WithArgs("16-30.11.25", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "label", "created_at"}).
				AddRow(id.String(), "16-30.11.25", time.Now()))

		p, err := repo.FindPeriodByLabel(ctx, "16-30.11.25")
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, "16-30.11.25", p.Label)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupRepoTest(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "periods" WHERE label = $1`)).
			WithArgs("01-15.12.25", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "label", "created_at"}))

		_, err := repo.FindPeriodByLabel(ctx, "01-15.12.25")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestRepository_LatestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("no uploads yet returns nil without error", func(t *testing.T) {
		repo, mock := setupRepoTest(t)
		periodID := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "uploads" WHERE period_id = $1`)).
			WithArgs(periodID.String(), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "period_id", "version"}))

		up, err := repo.LatestUpload(ctx, periodID)
		require.NoError(t, err)
		assert.Nil(t, up)
	})

	t.Run("highest version wins", func(t *testing.T) {
		repo, mock := setupRepoTest(t)
		periodID := uuid.New()
		uploadID := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "uploads" WHERE period_id = $1`)).
			WithArgs(periodID.String(), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "period_id", "version"}).
				AddRow(uploadID.String(), periodID.String(), 3))

		up, err := repo.LatestUpload(ctx, periodID)
		require.NoError(t, err)
		require.NotNil(t, up)
		assert.Equal(t, 3, up.Version)
		assert.Equal(t, uploadID, up.ID)
	})
}

func TestRepository_OrdersWithCalc(t *testing.T) {
	ctx := context.Background()
	repo, mock := setupRepoTest(t)

	uploadID := uuid.New()
	rowID := uuid.New()
	mc, err := json.Marshal(order.ManagerComment{Type: order.CommentFixed, Value: 2500})
	require.NoError(t, err)

	orderCols := []string{
		"id", "upload_id", "worker", "raw_text", "order_code",
		"service_payment", "is_client_billed", "manager_comment_json",
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_rows" WHERE upload_id = $1`)).
		WithArgs(uploadID.String()).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(rowID.String(), uploadID.String(), "Иванов Иван",
				"Заказ клиента КАУТ-1", "КАУТ-1", 3000, true, string(mc)))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "calculations" WHERE upload_id = $1`)).
		WithArgs(uploadID.String()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_row_id", "upload_id", "fuel_payment", "transport", "diagnostic50", "total",
		}).AddRow(uuid.New().String(), rowID.String(), uploadID.String(), 700, 1000, 0, 4700))

	rows, err := repo.OrdersWithCalc(ctx, uploadID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "КАУТ-1", row.OrderCode)
	assert.True(t, row.IsClientBilled)
	require.NotNil(t, row.ManagerComment)
	assert.InDelta(t, 2500, row.ManagerComment.Value, 0.001)
	assert.InDelta(t, 700, row.FuelPayment, 0.001)
	assert.InDelta(t, 4700, row.Total, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveOrderRows_EmptyBatch(t *testing.T) {
	repo, mock := setupRepoTest(t)

	// No INSERT must be issued for an empty slice.
	require.NoError(t, repo.SaveOrderRows(context.Background(), nil))
	require.NoError(t, repo.SaveCalculations(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
