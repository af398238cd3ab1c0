package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SeedTokens returns the reference token set. Each call returns a fresh slice.
func SeedTokens() []Token {
	return []Token{
		{
			ID: "1", Name: "NEURAL", Symbol: "NRL",
			Agent: "GPT-Trader", AgentType: "Trading Bot",
			LaunchDate: NewDate(2024, time.January, 15),
			MarketCap:  2450000, Price: 0.0234, Change24h: 12.5,
			Holders: 1893, Status: StatusActive, Chain: "Solana",
		},
		{
			ID: "2", Name: "SYNTHEX", Symbol: "SYN",
			Agent: "Claude-Finance", AgentType: "DeFi Agent",
			LaunchDate: NewDate(2024, time.January, 18),
			MarketCap:  890000, Price: 0.0089, Change24h: -5.2,
			Holders: 654, Status: StatusActive, Chain: "Base",
		},
		{
			ID: "3", Name: "AXIOM", Symbol: "AXM",
			Agent: "AutoGPT-Alpha", AgentType: "Autonomous Agent",
			LaunchDate: NewDate(2024, time.January, 20),
			MarketCap:  5670000, Price: 0.0567, Change24h: 34.8,
			Holders: 3421, Status: StatusTrending, Chain: "Ethereum",
		},
		{
			ID: "4", Name: "COGNET", Symbol: "COG",
			Agent: "Gemini-Swarm", AgentType: "Multi-Agent",
			LaunchDate: NewDate(2024, time.January, 12),
			MarketCap:  120000, Price: 0.0012, Change24h: -18.3,
			Holders: 234, Status: StatusInactive, Chain: "Arbitrum",
		},
		{
			ID: "5", Name: "PULSENET", Symbol: "PLS",
			Agent: "Mistral-Miner", AgentType: "Data Agent",
			LaunchDate: NewDate(2024, time.January, 22),
			MarketCap:  3200000, Price: 0.032, Change24h: 8.7,
			Holders: 2103, Status: StatusActive, Chain: "Solana",
		},
		{
			ID: "6", Name: "VECTRA", Symbol: "VCT",
			Agent: "LLaMA-Liquidity", AgentType: "Market Maker",
			LaunchDate: NewDate(2024, time.January, 25),
			MarketCap:  780000, Price: 0.0078, Change24h: 2.1,
			Holders: 512, Status: StatusNew, Chain: "Base",
		},
		{
			ID: "7", Name: "DAEMON", Symbol: "DMN",
			Agent: "Anthropic-Yield", AgentType: "Yield Optimizer",
			LaunchDate: NewDate(2024, time.January, 28),
			MarketCap:  4100000, Price: 0.041, Change24h: 22.4,
			Holders: 2876, Status: StatusTrending, Chain: "Ethereum",
		},
		{
			ID: "8", Name: "NEXUS-AI", Symbol: "NXA",
			Agent: "OpenAI-Oracle", AgentType: "Oracle Agent",
			LaunchDate: NewDate(2024, time.January, 30),
			MarketCap:  1560000, Price: 0.0156, Change24h: -3.8,
			Holders: 987, Status: StatusActive, Chain: "Arbitrum",
		},
	}
}

// LoadSeedFile reads a JSON array of tokens. Statuses are validated here;
// id uniqueness is the store's job.
func LoadSeedFile(path string) ([]Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var tokens []Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}

	for i, t := range tokens {
		if !t.Status.Valid() {
			return nil, fmt.Errorf("seed entry %d (%s): %w: %q", i, t.ID, ErrInvalidStatus, t.Status)
		}
	}
	return tokens, nil
}
