package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"token_radar/config"
	"token_radar/middleware"
	"token_radar/parser"
	"token_radar/utils"
	"token_radar/view"
	"token_radar/ws"

	"github.com/cenkalti/backoff/v4"
)

// runWatch follows a remote live view and prints every frame to out.
// Disconnects are retried with exponential backoff.
func runWatch(ctx context.Context, cfg *config.Config, out io.Writer) error {
	// Fail fast on bad parameters instead of retrying them forever
	if _, err := view.ParseParams(cfg.Watch.Filter, cfg.Watch.SearchQuery, cfg.Watch.SortBy); err != nil {
		return err
	}

	client := ws.NewClient(cfg.Watch.URL, nil)
	client.OnFrame = func(env parser.Envelope) {
		renderFrame(out, env)
	}
	breaker := middleware.NewBreaker("live-view-dial")
	retry := utils.NewExponentialBackoff(cfg.Watch.MaxRetry)

	operation := func() error {
		err := middleware.WithCircuitBreaker(ctx, breaker, func() error {
			return client.Connect(ctx)
		})
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer client.Close()

		// a session that got this far starts the retry schedule over
		retry.Reset()
		utils.Logger.Infow("Connected to live view", "url", cfg.Watch.URL)

		if err := sendInitialParams(client, cfg); err != nil {
			return err
		}
		return client.Listen(ctx)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(retry, ctx),
		func(err error, duration time.Duration) {
			utils.Logger.Warnw("Live view connection lost",
				"error", err,
				"retry_in", duration.String())
		})
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func sendInitialParams(client *ws.Client, cfg *config.Config) error {
	if cfg.Watch.Filter != "" {
		if err := client.Send(parser.SetFilter, cfg.Watch.Filter); err != nil {
			return err
		}
	}
	if cfg.Watch.SearchQuery != "" {
		if err := client.Send(parser.SetSearchQuery, cfg.Watch.SearchQuery); err != nil {
			return err
		}
	}
	if cfg.Watch.SortBy != "" {
		if err := client.Send(parser.SetSortBy, cfg.Watch.SortBy); err != nil {
			return err
		}
	}
	return nil
}

func renderFrame(out io.Writer, env parser.Envelope) {
	if env.Type == parser.ErrorFrame {
		utils.Logger.Warnw("Live view rejected command", "error", env.Error)
		fmt.Fprintf(out, "! %s\n", env.Error)
		return
	}

	f := env.View
	fmt.Fprintf(out, "\n[%s] v%d  TOKENS TRACKED %d | TOTAL MCAP %s | TRENDING %d | ACTIVE AGENTS %d\n",
		f.GeneratedAt.Local().Format("15:04:05"),
		f.Version,
		f.Stats.TotalTokens,
		utils.FormatUSD(f.Stats.TotalMarketCap),
		f.Stats.TrendingCount,
		f.Stats.ActiveAgents)
	fmt.Fprintf(out, "filter=%s search=%q sort=%s\n", f.Params.Filter, f.Params.SearchQuery, f.Params.SortBy)

	if len(f.Tokens) == 0 {
		fmt.Fprintln(out, "NO TOKENS FOUND. Adjust filters or search query")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSYMBOL\tAGENT\tSTATUS\tCHAIN\tPRICE\t24H\tMCAP\tHOLDERS\tLAUNCHED")
	for i, t := range f.Tokens {
		fmt.Fprintf(tw, "%d\t%s\t$%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			t.Name,
			t.Symbol,
			t.Agent,
			t.Status,
			t.Chain,
			utils.FormatPrice(t.Price),
			utils.FormatChange(t.Change24h),
			utils.FormatUSD(t.MarketCap),
			strconv.FormatInt(t.Holders, 10),
			t.LaunchDate.String())
	}
	tw.Flush()
}
