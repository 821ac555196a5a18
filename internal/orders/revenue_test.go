package orders_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/acedatacloud/dashsnap/internal/config"
	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/orders"
	"github.com/acedatacloud/dashsnap/internal/utils"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const revenueQuery = `SELECT SUM(price) FROM app_order WHERE state = $1 AND created_at >= $2 AND created_at <= $3`

func TestRevenueReporter_Run(t *testing.T) {
	db, mock := newMockDB(t)
	for _, total := range []float64{10.5, 100.25, 500, 1200.75} {
		mock.ExpectQuery(regexp.QuoteMeta(revenueQuery)).
			WithArgs("Finished", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(total))
	}

	outPath := filepath.Join(t.TempDir(), "revenue.json")
	out := &bytes.Buffer{}
	snap, err := orders.NewRevenueReporter(orders.RevenueReporterOptions{
		Config: config.RevenueConfig{OutputPath: outPath, Table: "app_order"},
		DB:     db,
		Out:    out,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "USD", snap.Currency)
	assert.Equal(t, 10.5, snap.Today)
	assert.Equal(t, 100.25, snap.Last7d)
	assert.Equal(t, 500.0, snap.Last30d)
	assert.Equal(t, 1200.75, snap.Last90d)
	assert.WithinDuration(t, time.Now().UTC(), snap.AsOf, 5*time.Second)

	var written domain.RevenueSnapshot
	require.NoError(t, utils.ReadJSONFile(outPath, &written))
	assert.Equal(t, *snap, written)

	assert.Contains(t, out.String(), "Revenue (USD): today 10.50, 7d 100.25, 30d 500.00, 90d 1200.75")
	assert.Contains(t, out.String(), "Wrote snapshot to "+outPath)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevenueReporter_Run_NullSumsAreZero(t *testing.T) {
	db, mock := newMockDB(t)
	for i := 0; i < 4; i++ {
		mock.ExpectQuery(regexp.QuoteMeta(revenueQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))
	}

	outPath := filepath.Join(t.TempDir(), "revenue.json")
	snap, err := orders.NewRevenueReporter(orders.RevenueReporterOptions{
		Config: config.RevenueConfig{OutputPath: outPath},
		DB:     db,
		Out:    &bytes.Buffer{},
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.Today)
	assert.Zero(t, snap.Last7d)
	assert.Zero(t, snap.Last30d)
	assert.Zero(t, snap.Last90d)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevenueReporter_Run_Filters(t *testing.T) {
	db, mock := newMockDB(t)
	filtered := `SELECT SUM(price) FROM app_order WHERE state = $1 AND user_id = $2 AND pay_way = ANY($3) AND created_at >= $4 AND created_at <= $5`
	for i := 0; i < 4; i++ {
		mock.ExpectQuery(regexp.QuoteMeta(filtered)).
			WithArgs("Finished", "u-42", pq.Array([]string{"Stripe", "PayPal"}), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(7.5))
	}

	outPath := filepath.Join(t.TempDir(), "revenue.json")
	snap, err := orders.NewRevenueReporter(orders.RevenueReporterOptions{
		Config: config.RevenueConfig{
			OutputPath: outPath,
			UserID:     "u-42",
			PayWays:    []string{" Stripe ", "", "PayPal"},
		},
		DB:  db,
		Out: &bytes.Buffer{},
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7.5, snap.Today)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevenueReporter_Run_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(revenueQuery)).
		WillReturnError(errors.New("connection reset"))

	outPath := filepath.Join(t.TempDir(), "revenue.json")
	_, err := orders.NewRevenueReporter(orders.RevenueReporterOptions{
		Config: config.RevenueConfig{OutputPath: outPath},
		DB:     db,
		Out:    &bytes.Buffer{},
	}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum revenue since")

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "no snapshot file on failure")
}

func TestRevenueReporter_Run_NoOutputPath(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := orders.NewRevenueReporter(orders.RevenueReporterOptions{
		Config: config.RevenueConfig{},
		DB:     db,
		Out:    &bytes.Buffer{},
	}).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
