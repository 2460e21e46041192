package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wealthtrack-dev/wealthtrack/internal/config"
	"github.com/wealthtrack-dev/wealthtrack/internal/ledger"
	"github.com/wealthtrack-dev/wealthtrack/internal/pricing"
	"github.com/wealthtrack-dev/wealthtrack/internal/report"
)

func newHoldingsCommand(dataDir *string) *cobra.Command {
	var withPrices bool

	cmd := &cobra.Command{
		Use:   "holdings",
		Short: "Show the current ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, cfg, err := loadConfig(*dataDir)
			if err != nil {
				return err
			}

			l, err := ledger.NewStore(dir).Load()
			if err != nil {
				return err
			}

			var quoter pricing.Quoter
			if withPrices {
				quoter = newQuoter(cfg)
			}
			return printHoldings(cmd, l, quoter)
		},
	}

	cmd.Flags().BoolVar(&withPrices, "prices", false, "look up current prices and show market value")

	return cmd
}

func printHoldings(cmd *cobra.Command, l ledger.Ledger, quoter pricing.Quoter) error {
	if l.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Ledger is empty.")
		return nil
	}

	v := report.Valuate(cmd.Context(), l, quoter)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if quoter == nil {
		fmt.Fprintln(tw, "SYMBOL\tSHARES\tCOST BASIS\tAVG COST\tSOURCE")
		for _, line := range v.Lines {
			p := line.Position
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				p.Symbol, p.Shares.String(), p.CostBasis.StringFixed(2), p.AvgCost().StringFixed(2), p.Source)
		}
		return tw.Flush()
	}

	fmt.Fprintln(tw, "SYMBOL\tSHARES\tCOST BASIS\tPRICE\tMARKET VALUE\tGAIN/LOSS")
	for _, line := range v.Lines {
		p := line.Position
		price, mv, gl := "n/a", "n/a", "n/a"
		if line.PriceKnown {
			price = line.Price.StringFixed(2)
			mv = line.MarketValue.StringFixed(2)
			gl = line.GainLoss.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Symbol, p.Shares.String(), p.CostBasis.StringFixed(2), price, mv, gl)
	}
	fmt.Fprintf(tw, "TOTAL\t\t%s\t\t%s\t%s\n",
		v.TotalCost.StringFixed(2), v.TotalValue.StringFixed(2), v.TotalGain.StringFixed(2))
	return tw.Flush()
}

// newQuoter builds the configured quote source, nil when no endpoint is
// configured. Quotes always go through the short-lived cache so a single
// report does not hammer the endpoint.
func newQuoter(cfg *config.Config) pricing.Quoter {
	if cfg.Pricing.BaseURL == "" {
		return nil
	}
	ttl := time.Duration(cfg.Pricing.CacheTTLSeconds) * time.Second
	return pricing.NewCache(pricing.NewHTTPQuoter(cfg.Pricing.BaseURL), ttl)
}
