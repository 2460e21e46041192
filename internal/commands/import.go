package commands

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wealthtrack-dev/wealthtrack/internal/auditlog"
	"github.com/wealthtrack-dev/wealthtrack/internal/config"
	"github.com/wealthtrack-dev/wealthtrack/internal/gitops"
	"github.com/wealthtrack-dev/wealthtrack/internal/ingest"
	"github.com/wealthtrack-dev/wealthtrack/internal/ledger"
	"github.com/wealthtrack-dev/wealthtrack/internal/model"
	"github.com/wealthtrack-dev/wealthtrack/internal/normalize"
	"github.com/wealthtrack-dev/wealthtrack/internal/schema"
)

func newImportCommand(dataDir *string) *cobra.Command {
	var strategyName string
	var source string
	var assumeHeuristics bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a broker CSV into the ledger",
		Long: `Import a broker CSV export into the holdings ledger.

With a file argument, imports that file. Without one, imports every file
waiting in the import/ directory and moves each to import/processed/ on
success.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := model.ParseStrategy(strategyName)
			if err != nil {
				return err
			}

			dir, cfg, err := loadConfig(*dataDir)
			if err != nil {
				return err
			}

			imp := &importer{
				cmd:      cmd,
				dir:      dir,
				cfg:      cfg,
				svc:      ingest.NewService(),
				assume:   assumeHeuristics || cfg.Import.AssumeHeuristics,
				source:   source,
				strategy: strategy,
			}

			if len(args) == 1 {
				return imp.importFile(args[0], false)
			}
			return imp.importPending()
		},
	}

	cmd.Flags().StringVar(&strategyName, "strategy", "append", "merge strategy: append, replace, or update")
	cmd.Flags().StringVar(&source, "source", "", "override the broker label stamped on imported positions")
	cmd.Flags().BoolVar(&assumeHeuristics, "assume-heuristics", false, "accept fuzzy column matches without confirming")

	return cmd
}

// importer carries the state shared by every file in one import run.
type importer struct {
	cmd      *cobra.Command
	dir      string
	cfg      *config.Config
	svc      *ingest.Service
	assume   bool
	source   string
	strategy model.MergeStrategy
}

func (imp *importer) options() ingest.Options {
	policy := normalize.DefaultPolicy()
	if imp.cfg.Import.PerShareRatio != nil {
		policy.PerShareRatio = decimal.NewFromFloat(*imp.cfg.Import.PerShareRatio)
	}
	return ingest.Options{
		Source:       imp.source,
		Policy:       policy,
		MaxRows:      imp.cfg.Import.MaxRows,
		MaxFileBytes: imp.cfg.Import.MaxFileBytes,
	}
}

// importPending processes every file waiting in import/.
func (imp *importer) importPending() error {
	files, err := ingest.Scan(imp.dir)
	if err != nil {
		return fmt.Errorf("scanning import dir: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(imp.cmd.OutOrStdout(), "Nothing to import.")
		return nil
	}

	for _, f := range files {
		if err := imp.importFile(f.Path, true); err != nil {
			return fmt.Errorf("importing %s: %w", f.Name, err)
		}
	}
	return nil
}

func (imp *importer) importFile(path string, fromInbox bool) error {
	out := imp.cmd.OutOrStdout()
	name := filepath.Base(path)

	res, err := imp.svc.ImportFile(path, imp.options())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: detected %s layout\n", name, res.Profile)

	if fields := res.Mapping.Heuristics(); len(fields) > 0 && !imp.assume {
		ok, err := imp.confirmHeuristics(res, fields)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Import cancelled.")
			return nil
		}
	}

	// Rejected rows are reported but never block the batch.
	for _, re := range res.RowErrors {
		label := "rejected"
		if re.Warning {
			label = "warning"
		}
		fmt.Fprintf(out, "  %s row %d: %s\n", label, re.Row, re.Reason)
	}

	merged, err := ledger.NewStore(imp.dir).Update(func(l ledger.Ledger) (ledger.Ledger, error) {
		return ledger.Merge(l, res.Positions, imp.strategy)
	})
	if err != nil {
		return err
	}

	// A merge that changes nothing (every row rejected, or an identical
	// re-import) leaves a clean tree; committing then would fail with
	// nothing staged, and the import itself is still a success.
	hash := ""
	var commitErr error
	if imp.cfg.Git.AutoCommit && gitops.IsRepo(imp.dir) {
		var changed bool
		changed, commitErr = gitops.HasChanges(imp.dir)
		if commitErr == nil && changed {
			msg := fmt.Sprintf("import: %d positions from %s (%s)", len(res.Positions), name, imp.strategy)
			hash, commitErr = gitops.CommitAll(imp.dir, msg, imp.cfg.Git.AuthorName, imp.cfg.Git.AuthorEmail)
		}
	}

	// The audit log records every import attempt, whether or not the git
	// snapshot succeeded.
	entry, err := auditlog.Record(imp.dir, auditlog.Entry{
		Timestamp:  time.Now().UTC(),
		File:       name,
		Profile:    res.Profile,
		Strategy:   imp.strategy.String(),
		Accepted:   len(res.Positions),
		Rejected:   res.Rejected(),
		CommitHash: hash,
	}, time.Now())
	if err != nil {
		return fmt.Errorf("writing import log: %w", err)
	}
	if commitErr != nil {
		return fmt.Errorf("committing import: %w", commitErr)
	}

	if fromInbox {
		if err := ingest.MarkProcessed(imp.dir, name); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%s: imported %d of %d rows (%s), ledger now holds %d positions\n",
		entry.BatchID, len(res.Positions), res.Rows, imp.strategy, merged.Len())
	return nil
}

// confirmHeuristics shows fuzzy column matches and asks before proceeding.
func (imp *importer) confirmHeuristics(res *ingest.Result, fields []schema.Field) (bool, error) {
	out := imp.cmd.OutOrStdout()
	fmt.Fprintln(out, "Some columns were matched heuristically:")
	for _, f := range fields {
		m, _ := res.Mapping.Lookup(f)
		fmt.Fprintf(out, "  %-12s <- column %q\n", f, m.Column)
	}
	fmt.Fprint(out, "Proceed? [y/N] ")

	line, err := bufio.NewReader(imp.cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
