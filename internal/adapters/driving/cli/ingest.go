package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragsync/internal/connectors/filesystem"
	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/core/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Index every supported file under a directory once",
	Long: `Walks the directory tree once and indexes every supported file.
Hidden files and directories are skipped. Each file is reported as
[SKIP], [OK] or [FAIL], followed by a summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestWorkers int

func init() {
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "Files processed concurrently (default from ingest.workers, else 1)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}

	wc, err := a.watcherConfig()
	if err != nil {
		return err
	}
	extractor, indexer, err := a.pipeline(ctx, wc)
	if err != nil {
		return err
	}

	workers := ingestWorkers
	if workers <= 0 {
		workers = a.settings.Get().IngestWorkers
	}

	open := func(dir string) (driven.Connector, error) {
		return filesystem.New(sourceID(domain.SourceLocal, dir), dir), nil
	}
	batch := services.NewBatchIngester(open, extractor, indexer, wc,
		services.WithWorkers(workers),
		services.WithOutput(cmd.OutOrStdout()),
	)

	report, err := batch.Ingest(ctx, root)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", root, err)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", report.Failed, report.Total())
	}
	return nil
}
