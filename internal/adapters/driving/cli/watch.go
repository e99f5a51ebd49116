package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragsync/internal/connectors/filesystem"
	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/core/services"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index in sync with a source",
	Long: `Polls a source for changes and re-indexes changed files until
interrupted. Deleted and trashed files are removed from the index.

A new watcher starts from the epoch, so its first cycle indexes every
existing file. Later runs resume from the check time in the watcher file.`,
}

var watchLocalCmd = &cobra.Command{
	Use:   "local [dir]",
	Short: "Watch a local directory",
	Long: `Watches a local directory. File system notifications wake the
watcher early; polling still runs every interval.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatchLocal,
}

var watchDriveCmd = &cobra.Command{
	Use:   "drive [folder-id]",
	Short: "Watch a Google Drive folder",
	Long: `Watches a Google Drive folder and its subfolders. Without a
folder id the whole drive is watched.

Credentials come from GOOGLE_APPLICATION_CREDENTIALS, from
GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN, or from
GOOGLE_ACCESS_TOKEN.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatchDrive,
}

var watchAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Watch the configured local directory and Drive folder together",
	Long: `Runs the local and Drive watchers concurrently. Targets come from
watch.local.path and watch.drive.folder_id in the config file, or from
--dir and --folder. If either watcher fails, both stop.`,
	Args: cobra.NoArgs,
	RunE: runWatchAll,
}

// Flags for the watch commands.
var (
	watchInterval time.Duration
	watchAllDir   string
	watchAllDrive string
)

func init() {
	watchCmd.PersistentFlags().DurationVarP(&watchInterval, "interval", "i", 0,
		"Time between checks (default from watch.interval, else the watcher file)")
	watchAllCmd.Flags().StringVar(&watchAllDir, "dir", "", "Local directory to watch")
	watchAllCmd.Flags().StringVar(&watchAllDrive, "folder", "", "Drive folder id to watch")

	watchCmd.AddCommand(watchLocalCmd)
	watchCmd.AddCommand(watchDriveCmd)
	watchCmd.AddCommand(watchAllCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatchLocal(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	return runWatchers(cmd, watchTarget{kind: domain.SourceLocal, target: dir})
}

func runWatchDrive(cmd *cobra.Command, args []string) error {
	folder := ""
	if len(args) > 0 {
		folder = args[0]
	}
	return runWatchers(cmd, watchTarget{kind: domain.SourceGoogleDrive, target: folder})
}

func runWatchAll(cmd *cobra.Command, _ []string) error {
	if watcherPath != "" {
		return errors.New("--watcher names a single watcher file and cannot be used with watch all")
	}
	return runWatchers(cmd,
		watchTarget{kind: domain.SourceLocal, target: watchAllDir, fromConfig: true},
		watchTarget{kind: domain.SourceGoogleDrive, target: watchAllDrive, fromConfig: true},
	)
}

// watchTarget is one source to watch. fromConfig fills an empty target
// from the config file.
type watchTarget struct {
	kind       domain.SourceType
	target     string
	fromConfig bool
}

// runWatchers runs one tracker per target until a signal arrives or one
// of them fails.
func runWatchers(cmd *cobra.Command, targets ...watchTarget) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	type job struct {
		tracker  *services.Tracker
		interval time.Duration
	}
	status := newStatusLine(cmd.OutOrStdout())
	jobs := make([]job, 0, len(targets))
	for _, t := range targets {
		tracker, interval, err := a.tracker(ctx, t, status)
		if err != nil {
			return err
		}
		jobs = append(jobs, job{tracker: tracker, interval: interval})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			return j.tracker.Run(gctx, j.interval)
		})
	}

	err = g.Wait()
	status.done()
	return err
}

// tracker builds the tracker for one target.
func (a *app) tracker(ctx context.Context, t watchTarget, status *statusLine) (*services.Tracker, time.Duration, error) {
	cur := a.settings.Get()
	target := t.target
	if target == "" && t.fromConfig {
		if t.kind == domain.SourceLocal {
			target = cur.LocalPath
		} else {
			target = cur.DriveFolderID
		}
	}
	if t.kind == domain.SourceLocal && target != "" {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, 0, fmt.Errorf("resolve %s: %w", target, err)
		}
		target = abs
	}

	wf, err := a.openWatcher(t.kind, target)
	if err != nil {
		return nil, 0, err
	}
	wc := wf.Config()
	target = wc.WatchTarget
	id := sourceID(t.kind, target)

	var conn driven.Connector
	switch t.kind {
	case domain.SourceGoogleDrive:
		conn, err = a.newDrive(ctx, id, target, wc)
		if err != nil {
			return nil, 0, err
		}
	default:
		if target == "" {
			return nil, 0, errors.New("no directory to watch: pass one or set watch.local.path")
		}
		conn = filesystem.New(id, target)
	}
	a.closers = append(a.closers, conn.Close)

	if err := conn.Validate(ctx); err != nil {
		return nil, 0, err
	}

	states, err := a.stateStore(wf)
	if err != nil {
		return nil, 0, err
	}
	extractor, indexer, err := a.pipeline(ctx, wc)
	if err != nil {
		return nil, 0, err
	}

	interval := watchInterval
	if interval <= 0 {
		interval = cur.WatchInterval
	}
	if interval <= 0 {
		interval = wc.PollInterval
	}

	tracker := services.NewTracker(conn, states, extractor, indexer, wc,
		services.WithCycleHook(status.cycle),
	)
	return tracker, interval, nil
}
