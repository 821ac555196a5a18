package market

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/acedatacloud/dashsnap/internal/config"
	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

// PeriodTotals aggregates a creator's fees over the dashboard windows.
type PeriodTotals struct {
	Last1dSOL  float64
	Last7dSOL  float64
	Last30dSOL float64
	TotalSOL   float64
	Trades1d   int
	Trades7d   int
	Trades30d  int
}

// CalculatePeriods sums fees over the 24h/7d/30d windows ending at now.
// The fine series drives the short windows; the daily series covers the
// 30d window. The all-time total is the newest cumulative value, taken
// from the fine series when present.
func CalculatePeriods(now time.Time, fine, daily []FeeBucket) PeriodTotals {
	var t PeriodTotals

	if n := len(fine); n > 0 {
		t.TotalSOL = fine[n-1].CumulativeSOL
	} else if n := len(daily); n > 0 {
		t.TotalSOL = daily[n-1].CumulativeSOL
	}

	fees1d, trades1d := sumSince(fine, now.Add(-24*time.Hour))
	fees7d, trades7d := sumSince(fine, now.Add(-7*24*time.Hour))
	fees30d, trades30d := sumSince(daily, now.Add(-30*24*time.Hour))

	t.Last1dSOL = round4(math.Max(0, fees1d))
	t.Last7dSOL = round4(math.Max(0, fees7d))
	t.Last30dSOL = round4(math.Max(0, fees30d))
	t.TotalSOL = round4(t.TotalSOL)
	t.Trades1d = trades1d
	t.Trades7d = trades7d
	t.Trades30d = trades30d
	return t
}

// MergeTotals sums per-address totals into one, re-rounding the SOL
// amounts. Multiple addresses exist after wallet migrations.
func MergeTotals(all []PeriodTotals) PeriodTotals {
	var merged PeriodTotals
	for _, t := range all {
		merged.Last1dSOL += t.Last1dSOL
		merged.Last7dSOL += t.Last7dSOL
		merged.Last30dSOL += t.Last30dSOL
		merged.TotalSOL += t.TotalSOL
		merged.Trades1d += t.Trades1d
		merged.Trades7d += t.Trades7d
		merged.Trades30d += t.Trades30d
	}
	merged.Last1dSOL = round4(merged.Last1dSOL)
	merged.Last7dSOL = round4(merged.Last7dSOL)
	merged.Last30dSOL = round4(merged.Last30dSOL)
	merged.TotalSOL = round4(merged.TotalSOL)
	return merged
}

func sumSince(buckets []FeeBucket, since time.Time) (float64, int) {
	var fees float64
	var trades int
	for _, b := range buckets {
		if !b.Time.Before(since) {
			fees += b.FeeSOL
			trades += b.Trades
		}
	}
	return fees, trades
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

func round2(x float64) float64 {
	return math.Round(x*1e2) / 1e2
}

// feeFetchWorkers bounds concurrent per-address fetches. Wallet lists
// stay short and pump.fun throttles unauthenticated clients.
const feeFetchWorkers = 3

// Snapshotter builds the creator-fees dashboard snapshot: per-address fee
// series from pump.fun, merged across addresses, priced via CoinGecko.
type Snapshotter struct {
	cfg    config.FeesConfig
	client *Client
	logger *utils.Logger
	out    io.Writer
}

// SnapshotterOptions wires a Snapshotter.
type SnapshotterOptions struct {
	Config config.FeesConfig
	Client *Client
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
		client: opts.Client,
		logger: opts.Logger,
		out:    out,
	}
}

// Run fetches, aggregates and writes the snapshot. A fee-series fetch
// failure aborts the run; a price fetch failure falls back to the
// configured price.
func (s *Snapshotter) Run(ctx context.Context) (*domain.FeesSnapshot, error) {
	if len(s.cfg.Addresses) == 0 {
		return nil, fmt.Errorf("%w: no creator addresses configured", domain.ErrInvalidConfig)
	}
	if s.cfg.OutputPath == "" {
		return nil, fmt.Errorf("%w: fees output path is empty", domain.ErrInvalidConfig)
	}

	if s.logger != nil {
		s.logger.Info().Int("addresses", len(s.cfg.Addresses)).Msg("Fetching creator fees")
	}

	// Addresses are fetched concurrently; each one needs two series
	// calls and the retrier can stretch a single address for a while.
	totals := make([]PeriodTotals, len(s.cfg.Addresses))
	errs := utils.ParallelForEach(ctx, s.cfg.Addresses, feeFetchWorkers, func(ctx context.Context, i int, addr string) error {
		fine, err := s.client.FineFeeBuckets(ctx, addr)
		if err != nil {
			return fmt.Errorf("fee series for %s: %w", shortAddr(addr), err)
		}
		daily, err := s.client.DailyFeeBuckets(ctx, addr)
		if err != nil {
			return fmt.Errorf("daily fee series for %s: %w", shortAddr(addr), err)
		}

		t := CalculatePeriods(time.Now().UTC(), fine, daily)
		if s.logger != nil {
			s.logger.Debug().
				Str("address", shortAddr(addr)).
				Float64("last_1d_sol", t.Last1dSOL).
				Float64("last_7d_sol", t.Last7dSOL).
				Float64("last_30d_sol", t.Last30dSOL).
				Float64("total_sol", t.TotalSOL).
				Msg("Creator fees aggregated")
		}
		totals[i] = t
		return nil
	})
	if err := utils.FirstError(errs); err != nil {
		return nil, err
	}
	merged := MergeTotals(totals)

	price, err := s.client.SolPriceUSD(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn().
				Err(err).
				Float64("fallback", s.cfg.FallbackSOLPrice).
				Msg("Failed to fetch SOL price, using fallback")
		}
		price = s.cfg.FallbackSOLPrice
	}

	snap := &domain.FeesSnapshot{
		AsOf:             time.Now().UTC().Truncate(time.Second),
		CreatorAddresses: s.cfg.Addresses,
		SolPriceUSD:      round2(price),
		Last1dSOL:        merged.Last1dSOL,
		Last7dSOL:        merged.Last7dSOL,
		Last30dSOL:       merged.Last30dSOL,
		TotalSOL:         merged.TotalSOL,
		Last1dUSD:        round2(merged.Last1dSOL * price),
		Last7dUSD:        round2(merged.Last7dSOL * price),
		Last30dUSD:       round2(merged.Last30dSOL * price),
		TotalUSD:         round2(merged.TotalSOL * price),
		Trades1d:         merged.Trades1d,
		Trades7d:         merged.Trades7d,
		Trades30d:        merged.Trades30d,
	}

	path := utils.ExpandPath(s.cfg.OutputPath)
	if err := utils.WriteJSONAtomic(path, snap); err != nil {
		return nil, fmt.Errorf("write fees snapshot: %w", err)
	}

	fmt.Fprintf(s.out, "Creator fees: 1d %.4f SOL, 7d %.4f SOL, 30d %.4f SOL, total %.4f SOL at $%.2f/SOL\n",
		snap.Last1dSOL, snap.Last7dSOL, snap.Last30dSOL, snap.TotalSOL, snap.SolPriceUSD)
	fmt.Fprintf(s.out, "Wrote snapshot to %s\n", path)
	return snap, nil
}
