package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wealthtrack-dev/wealthtrack/internal/ledger"
	"github.com/wealthtrack-dev/wealthtrack/internal/report"
)

func newExportCommand(dataDir *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export holdings with current prices as CSV",
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

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			return report.WriteHoldings(cmd.Context(), w, l, newQuoter(cfg))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}
