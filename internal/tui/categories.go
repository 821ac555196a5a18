package tui

// Category is one section of the configuration menu. Every category
// maps to a form via GetFormForCategory.
type Category struct {
	ID          string
	Name        string
	Description string
}

var Categories = []Category{
	{ID: "sync", Name: "Changelog Sync", Description: "Organization, cursors, and author filtering"},
	{ID: "github", Name: "GitHub API", Description: "Endpoint, paging, and request rate"},
	{ID: "openai", Name: "Enrichment", Description: "OpenAI-compatible summarizer settings"},
	{ID: "fees", Name: "Creator Fees", Description: "Tracked wallets and snapshot output"},
	{ID: "market", Name: "Market Data", Description: "pump.fun and CoinGecko endpoints"},
	{ID: "orders", Name: "Recent Orders", Description: "Order snapshot size and output"},
	{ID: "revenue", Name: "Revenue", Description: "Rollup filters and output"},
	{ID: "database", Name: "Database", Description: "Postgres connection settings"},
	{ID: "runtime", Name: "Runtime", Description: "Cache, run lock, and logging"},
}

func GetCategoryByID(id string) *Category {
	for i := range Categories {
		if Categories[i].ID == id {
			return &Categories[i]
		}
	}
	return nil
}

func GetCategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}
