package orders_test

import (
	"bytes"
	"context"
	"database/sql"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recentOrdersQuery = `SELECT id, created_at, pay_way, price, description FROM app_order WHERE state = $1 AND price IS NOT NULL AND price > 0 ORDER BY created_at DESC LIMIT $2`

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestMaskOrderID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"short id unchanged", "ord-123", "ord-123"},
		{"twenty chars unchanged", "12345678901234567890", "12345678901234567890"},
		{"uuid masked", "123e4567-e89b-12d3-a456-426614174000", "123e4567-e****6614174000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orders.MaskOrderID(tt.id))
		})
	}
}

func TestSnapshotter_Run(t *testing.T) {
	db, mock := newMockDB(t)
	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(recentOrdersQuery)).
		WithArgs("Finished", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "pay_way", "price", "description"}).
			AddRow("123e4567-e89b-12d3-a456-426614174000", created, "Stripe", 12.25, "API credits").
			AddRow("ord-2", nil, nil, 5.567, nil))

	outPath := filepath.Join(t.TempDir(), "recent_orders.json")
	out := &bytes.Buffer{}
	snap, err := orders.NewSnapshotter(orders.SnapshotterOptions{
		Config: config.OrdersConfig{OutputPath: outPath, Limit: 2, Table: "app_order"},
		DB:     db,
		Out:    out,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Total)
	require.Len(t, snap.Orders, 2)

	first := snap.Orders[0]
	assert.Equal(t, "123e4567-e****6614174000", first.ID)
	require.NotNil(t, first.CreatedAt)
	assert.Equal(t, created, *first.CreatedAt)
	assert.Equal(t, "Stripe", first.PayWay)
	assert.Equal(t, 12.25, first.Price)
	assert.Equal(t, "API credits", first.Description)

	second := snap.Orders[1]
	assert.Equal(t, "ord-2", second.ID)
	assert.Nil(t, second.CreatedAt)
	assert.Equal(t, "Unknown", second.PayWay)
	assert.Equal(t, 5.57, second.Price)
	assert.Empty(t, second.Description)

	var written domain.OrdersSnapshot
	require.NoError(t, utils.ReadJSONFile(outPath, &written))
	assert.Equal(t, *snap, written)

	assert.Contains(t, out.String(), "Recent orders: 2 finished orders")
	assert.Contains(t, out.String(), "Wrote snapshot to "+outPath)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotter_Run_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(recentOrdersQuery)).
		WithArgs("Finished", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "pay_way", "price", "description"}))

	outPath := filepath.Join(t.TempDir(), "recent_orders.json")
	snap, err := orders.NewSnapshotter(orders.SnapshotterOptions{
		Config: config.OrdersConfig{OutputPath: outPath},
		DB:     db,
		Out:    &bytes.Buffer{},
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.Total)
	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"orders": []`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotter_Run_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(recentOrdersQuery)).
		WillReturnError(errors.New("connection reset"))

	outPath := filepath.Join(t.TempDir(), "recent_orders.json")
	_, err := orders.NewSnapshotter(orders.SnapshotterOptions{
		Config: config.OrdersConfig{OutputPath: outPath},
		DB:     db,
		Out:    &bytes.Buffer{},
	}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query recent orders")

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "no snapshot file on failure")
}

func TestSnapshotter_Run_NoOutputPath(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := orders.NewSnapshotter(orders.SnapshotterOptions{
		Config: config.OrdersConfig{},
		DB:     db,
		Out:    &bytes.Buffer{},
	}).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
