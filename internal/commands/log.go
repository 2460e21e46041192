package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wealthtrack-dev/wealthtrack/internal/auditlog"
)

func newLogCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the import history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _, err := loadConfig(*dataDir)
			if err != nil {
				return err
			}

			entries, err := auditlog.Read(dir)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No imports yet.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BATCH\tDATE\tFILE\tPROFILE\tSTRATEGY\tACCEPTED\tREJECTED\tCOMMIT")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					e.BatchID, e.Timestamp.Format("2006-01-02 15:04"), e.File, e.Profile,
					e.Strategy, e.Accepted, e.Rejected, e.CommitHash)
			}
			return tw.Flush()
		},
	}
}
