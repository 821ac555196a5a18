package market

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/acedatacloud/dashsnap/internal/cache"
)

// SolPriceUSD returns the current SOL spot price in USD from CoinGecko.
func (c *Client) SolPriceUSD(ctx context.Context) (float64, error) {
	u := c.geckoURL + "/api/v3/simple/price?ids=solana&vs_currencies=usd"

	body, err := c.fetchJSON(ctx, serviceCoinGecko, u, cache.PriceKey("solana", "usd"))
	if err != nil {
		return 0, err
	}

	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("parse price from %s: %w", u, err)
	}
	price, ok := payload["solana"]["usd"]
	if !ok {
		return 0, fmt.Errorf("price response from %s is missing solana.usd", u)
	}
	return price, nil
}
