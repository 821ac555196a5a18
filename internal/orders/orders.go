package orders

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/acedatacloud/dashsnap/internal/config"
	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

// orderStateFinished is the terminal order state counted by both the
// recent-orders and revenue snapshots.
const orderStateFinished = "Finished"

// MaskOrderID keeps the first and last 10 characters of an order id and
// masks the middle. Short ids pass through unchanged.
func MaskOrderID(id string) string {
	if len(id) <= 20 {
		return id
	}
	return id[:10] + "****" + id[len(id)-10:]
}

// Snapshotter builds the recent-orders dashboard snapshot: the newest
// finished orders with paid prices, ids masked for display.
type Snapshotter struct {
	cfg    config.OrdersConfig
	db     *sql.DB
	logger *utils.Logger
	out    io.Writer
}

// SnapshotterOptions wires a Snapshotter.
type SnapshotterOptions struct {
	Config config.OrdersConfig
	DB     *sql.DB
	Logger *utils.Logger

	// Out receives the run summary. Defaults to stdout.
	Out io.Writer
}

// NewSnapshotter creates a Snapshotter.
func NewSnapshotter(opts SnapshotterOptions) *Snapshotter {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Snapshotter{
		cfg:    opts.Config,
		db:     opts.DB,
		logger: opts.Logger,
		out:    out,
	}
}

// Run queries the newest finished orders and writes the snapshot.
func (s *Snapshotter) Run(ctx context.Context) (*domain.OrdersSnapshot, error) {
	if s.cfg.OutputPath == "" {
		return nil, fmt.Errorf("%w: orders output path is empty", domain.ErrInvalidConfig)
	}
	table := s.cfg.Table
	if table == "" {
		table = config.DefaultOrdersTable
	}
	limit := s.cfg.Limit
	if limit <= 0 {
		limit = config.DefaultOrdersLimit
	}

	if s.logger != nil {
		s.logger.Info().Str("table", table).Int("limit", limit).Msg("Querying recent orders")
	}

	// The table name comes from config, which restricts it to a bare
	// SQL identifier.
	query := fmt.Sprintf(
		`SELECT id, created_at, pay_way, price, description FROM %s WHERE state = $1 AND price IS NOT NULL AND price > 0 ORDER BY created_at DESC LIMIT $2`,
		table,
	)
	rows, err := s.db.QueryContext(ctx, query, orderStateFinished, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent orders: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.OrderEntry, 0, limit)
	for rows.Next() {
		var (
			id          string
			createdAt   sql.NullTime
			payWay      sql.NullString
			price       sql.NullFloat64
			description sql.NullString
		)
		if err := rows.Scan(&id, &createdAt, &payWay, &price, &description); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		entry := domain.OrderEntry{
			ID:     MaskOrderID(id),
			PayWay: "Unknown",
		}
		if createdAt.Valid {
			t := createdAt.Time.UTC()
			entry.CreatedAt = &t
		}
		if payWay.Valid && payWay.String != "" {
			entry.PayWay = payWay.String
		}
		if price.Valid {
			entry.Price = round2(price.Float64)
		}
		if description.Valid {
			entry.Description = description.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	snap := &domain.OrdersSnapshot{
		AsOf:   time.Now().UTC().Truncate(time.Second),
		Total:  len(entries),
		Orders: entries,
	}

	path := utils.ExpandPath(s.cfg.OutputPath)
	if err := utils.WriteJSONAtomic(path, snap); err != nil {
		return nil, fmt.Errorf("write orders snapshot: %w", err)
	}

	fmt.Fprintf(s.out, "Recent orders: %d finished orders\n", snap.Total)
	fmt.Fprintf(s.out, "Wrote snapshot to %s\n", path)
	return snap, nil
}

func round2(x float64) float64 {
	return math.Round(x*1e2) / 1e2
}
