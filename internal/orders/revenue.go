package orders

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/acedatacloud/dashsnap/internal/config"
	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

// RevenueReporter builds the revenue rollup snapshot: finished-order
// totals over the dashboard windows, optionally filtered by user or
// payment channel.
type RevenueReporter struct {
	cfg    config.RevenueConfig
	db     *sql.DB
	logger *utils.Logger
	out    io.Writer
}

// RevenueReporterOptions wires a RevenueReporter.
type RevenueReporterOptions struct {
	Config config.RevenueConfig
	DB     *sql.DB
	Logger *utils.Logger

	// Out receives the run summary. Defaults to stdout.
	Out io.Writer
}

// NewRevenueReporter creates a RevenueReporter.
func NewRevenueReporter(opts RevenueReporterOptions) *RevenueReporter {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &RevenueReporter{
		cfg:    opts.Config,
		db:     opts.DB,
		logger: opts.Logger,
		out:    out,
	}
}

// Run sums finished-order revenue over the today/7d/30d/90d windows and
// writes the snapshot. Sums are reported unrounded; a window with no
// orders contributes zero.
func (r *RevenueReporter) Run(ctx context.Context) (*domain.RevenueSnapshot, error) {
	if r.cfg.OutputPath == "" {
		return nil, fmt.Errorf("%w: revenue output path is empty", domain.ErrInvalidConfig)
	}
	table := r.cfg.Table
	if table == "" {
		table = config.DefaultOrdersTable
	}
	currency := r.cfg.Currency
	if currency == "" {
		currency = config.DefaultRevenueCurrency
	}

	conds := []string{"state = $1"}
	args := []any{orderStateFinished}
	if r.cfg.UserID != "" {
		args = append(args, r.cfg.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	payWays := make([]string, 0, len(r.cfg.PayWays))
	for _, p := range r.cfg.PayWays {
		if t := strings.TrimSpace(p); t != "" {
			payWays = append(payWays, t)
		}
	}
	if len(payWays) > 0 {
		args = append(args, pq.Array(payWays))
		conds = append(conds, fmt.Sprintf("pay_way = ANY($%d)", len(args)))
	}

	// The table name comes from config, which restricts it to a bare
	// SQL identifier.
	query := fmt.Sprintf(
		`SELECT SUM(price) FROM %s WHERE %s AND created_at >= $%d AND created_at <= $%d`,
		table, strings.Join(conds, " AND "), len(args)+1, len(args)+2,
	)

	if r.logger != nil {
		r.logger.Info().
			Str("table", table).
			Str("user_id", r.cfg.UserID).
			Int("pay_ways", len(payWays)).
			Msg("Summing finished-order revenue")
	}

	now := time.Now().UTC()
	startToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	sumSince := func(start time.Time) (float64, error) {
		sumArgs := append(append([]any{}, args...), start, now)
		var total sql.NullFloat64
		if err := r.db.QueryRowContext(ctx, query, sumArgs...).Scan(&total); err != nil {
			return 0, fmt.Errorf("sum revenue since %s: %w", start.Format("2006-01-02"), err)
		}
		return total.Float64, nil
	}

	today, err := sumSince(startToday)
	if err != nil {
		return nil, err
	}
	last7d, err := sumSince(now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	last30d, err := sumSince(now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	last90d, err := sumSince(now.AddDate(0, 0, -90))
	if err != nil {
		return nil, err
	}

	snap := &domain.RevenueSnapshot{
		AsOf:     now.Truncate(time.Second),
		Currency: currency,
		Today:    today,
		Last7d:   last7d,
		Last30d:  last30d,
		Last90d:  last90d,
	}

	path := utils.ExpandPath(r.cfg.OutputPath)
	if err := utils.WriteJSONAtomic(path, snap); err != nil {
		return nil, fmt.Errorf("write revenue snapshot: %w", err)
	}

	fmt.Fprintf(r.out, "Revenue (%s): today %.2f, 7d %.2f, 30d %.2f, 90d %.2f\n",
		currency, snap.Today, snap.Last7d, snap.Last30d, snap.Last90d)
	fmt.Fprintf(r.out, "Wrote snapshot to %s\n", path)
	return snap, nil
}
