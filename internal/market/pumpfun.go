package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/acedatacloud/dashsnap/internal/cache"
)

// Bucket intervals requested from pump.fun. The fine series covers roughly
// a week and drives the 24h/7d windows; the daily series reaches back far
// enough for the 30d window.
const (
	fineInterval  = "6h"
	dailyInterval = "24h"
	dailyLimit    = 365
)

// FeeBucket is one time bucket of a creator's fee series, in ascending
// time order after parsing.
type FeeBucket struct {
	Time          time.Time
	FeeSOL        float64
	CumulativeSOL float64
	Trades        int
}

// apiNumber decodes pump.fun numeric fields, which arrive either as JSON
// numbers or as decimal strings. Null and the empty string mean zero.
type apiNumber float64

func (n *apiNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric value %q", raw)
		}
		*n = apiNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = apiNumber(v)
	return nil
}

type feeBucketDoc struct {
	Bucket                  string    `json:"bucket"`
	CreatorFeeSOL           apiNumber `json:"creatorFeeSOL"`
	CumulativeCreatorFeeSOL apiNumber `json:"cumulativeCreatorFeeSOL"`
	NumTrades               apiNumber `json:"numTrades"`
}

// FineFeeBuckets returns the 6h-interval fee series for a creator address.
func (c *Client) FineFeeBuckets(ctx context.Context, address string) ([]FeeBucket, error) {
	return c.feeBuckets(ctx, address, fineInterval, 0)
}

// DailyFeeBuckets returns the 24h-interval fee series for a creator
// address, up to a year back.
func (c *Client) DailyFeeBuckets(ctx context.Context, address string) ([]FeeBucket, error) {
	return c.feeBuckets(ctx, address, dailyInterval, dailyLimit)
}

func (c *Client) feeBuckets(ctx context.Context, address, interval string, limit int) ([]FeeBucket, error) {
	u := fmt.Sprintf("%s/v1/creators/%s/fees?interval=%s", c.pumpFunURL, url.PathEscape(address), interval)
	if limit > 0 {
		u += fmt.Sprintf("&limit=%d", limit)
	}

	body, err := c.fetchJSON(ctx, servicePumpFun, u, cache.FeesKey(address, interval))
	if err != nil {
		return nil, err
	}

	var docs []feeBucketDoc
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("parse fee buckets from %s: %w", u, err)
	}

	buckets := make([]FeeBucket, 0, len(docs))
	for _, doc := range docs {
		raw := strings.TrimSpace(doc.Bucket)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			if c.logger != nil {
				c.logger.Debug().Str("bucket", raw).Str("interval", interval).Msg("Skipping bucket with invalid timestamp")
			}
			continue
		}
		buckets = append(buckets, FeeBucket{
			Time:          t.UTC(),
			FeeSOL:        float64(doc.CreatorFeeSOL),
			CumulativeSOL: float64(doc.CumulativeCreatorFeeSOL),
			Trades:        int(doc.NumTrades),
		})
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Time.Before(buckets[j].Time) })

	if c.logger != nil {
		c.logger.Debug().
			Str("address", shortAddr(address)).
			Str("interval", interval).
			Int("buckets", len(buckets)).
			Msg("Fee series fetched")
	}
	return buckets, nil
}

// shortAddr abbreviates a wallet address for logs
func shortAddr(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:8] + "..." + address[len(address)-4:]
}
