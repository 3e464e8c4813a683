package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/picopack/internal/build"
	"github.com/conneroisu/picopack/internal/errors"
	"github.com/conneroisu/picopack/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [output.p8]",
	Short: "Build, then rebuild whenever a fragment changes",
	Long: `Build the cartridge once, then watch the source directory and rebuild
after every change. Rebuilds never overlap; a failed rebuild is reported and
watching continues.

Press Ctrl-C to stop. A rebuild in progress is allowed to finish so the
cartridge is never left half written.

Examples:
  picopack watch                  Same as picopack -w
  picopack watch --debounce 250ms Wait longer for editors to settle`,
	Aliases: []string{"w"},
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := prepare(cmd, args)
		if err != nil {
			return errors.Enhance(err)
		}
		return errors.Enhance(runWatchSession(cmd, s))
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// runWatchSession performs the initial build and then runs the watch
// controller until SIGINT or SIGTERM.
func runWatchSession(cmd *cobra.Command, s *session) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := s.buildOnce(ctx); err != nil {
		return err
	}

	return watch(ctx, s)
}

func watch(ctx context.Context, s *session) error {
	fw, err := watcher.NewFileWatcher(s.cfg.Watch.Debounce, s.logger)
	if err != nil {
		return err
	}
	fw.AddFilter(watcher.FragmentFilter(s.builder.Scanner()))
	fw.AddFilter(watcher.NoEditorNoiseFilter)
	if err := fw.AddPath(s.builder.SourceDir()); err != nil {
		_ = fw.Stop()
		return err
	}

	controller, err := watcher.NewController(watcher.ControllerConfig{
		Builder:  s.builder,
		Source:   fw,
		State:    watcher.NewState(s.initial),
		Logger:   s.logger,
		Reporter: &consoleReporter{out: s.out, dryRun: s.cfg.DryRun, metrics: s.builder.Metrics()},
	})
	if err != nil {
		_ = fw.Stop()
		return err
	}

	fmt.Fprintln(s.out, TitleStyle.Render("Watching ")+CmdStyle.Render(s.builder.SourceDir()))
	return controller.Run(ctx)
}

// consoleReporter prints watch progress to the terminal:
// one line per rebuild start and result, and a drain notice and build
// summary on shutdown.
type consoleReporter struct {
	out     io.Writer
	dryRun  bool
	metrics *build.BuildMetrics
}

func (r *consoleReporter) RebuildStarted(events []watcher.ChangeEvent) {
	names := make([]string, 0, len(events))
	for _, event := range events {
		names = append(names, fmt.Sprintf("%s %s", event.Type, filepath.Base(event.Path)))
	}
	fmt.Fprintf(r.out, "%s %s\n", WarningStyle.Render("Recompiling.."), VerboseStyle.Render(strings.Join(names, ", ")))
}

func (r *consoleReporter) RebuildFinished(result build.BuildResult) {
	fmt.Fprintln(r.out, formatResult(result, r.dryRun))
}

func (r *consoleReporter) Draining(waiting bool) {
	if waiting {
		fmt.Fprint(r.out, WarningStyle.Render("Waiting for any builds to finish.. "))
	}
}

func (r *consoleReporter) Stopped() {
	fmt.Fprintln(r.out, SuccessStyle.Render("Done."))
	if r.metrics == nil {
		return
	}
	snapshot := r.metrics.Snapshot()
	fmt.Fprintln(r.out, VerboseStyle.Render(fmt.Sprintf("%d builds, %d failed, %s average",
		snapshot.Builds, snapshot.Failed, snapshot.AverageDuration.Round(time.Microsecond))))
}
