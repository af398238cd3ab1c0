package models

type Stats struct {
	TotalTokens    int     `json:"totalTokens"`
	TotalMarketCap float64 `json:"totalMarketCap"`
	TrendingCount  int     `json:"trendingCount"`
	ActiveAgents   int     `json:"activeAgents"`
}
