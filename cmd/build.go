package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/picopack/internal/build"
	"github.com/conneroisu/picopack/internal/cart"
	"github.com/conneroisu/picopack/internal/config"
	"github.com/conneroisu/picopack/internal/logging"
	"github.com/conneroisu/picopack/internal/scanner"
)

// session holds everything one invocation needs to build or watch.
type session struct {
	cfg      *config.Config
	logger   logging.Logger
	out      io.Writer
	builder  *build.Builder
	location cart.Location
	initial  scanner.FragmentSet
}

// prepare loads the configuration, resolves the fragment set and locates
// the output cartridge. The source directory is checked before any
// cartridge is created.
func prepare(cmd *cobra.Command, args []string) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		cfg.Output.Path = args[0]
	}
	cfg.DryRun, _ = cmd.Flags().GetBool(flagDryRun)

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	fragments, err := scanner.NewFragmentScanner(cfg.Source.Extension, cfg.Source.Exclude...)
	if err != nil {
		return nil, err
	}
	set, err := fragments.Resolve(cfg.Source.Dir)
	if err != nil {
		return nil, err
	}

	location, err := cart.Locate(".", cfg.Output.Path)
	if err != nil {
		return nil, err
	}

	builder, err := build.NewBuilder(build.Options{
		SourceDir: cfg.Source.Dir,
		CartPath:  location.Path,
		Scanner:   fragments,
		Format:    cart.NewFormat(cfg.Cart.Version),
		Logger:    logger,
		DryRun:    cfg.DryRun,
	})
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:      cfg,
		logger:   logger,
		out:      cmd.OutOrStdout(),
		builder:  builder,
		location: location,
		initial:  set,
	}
	if location.Created {
		fmt.Fprintln(s.out, SubtitleStyle.Render("Created empty cartridge "+location.Path))
	}
	return s, nil
}

// buildOnce runs the initial build with the fragment set from prepare.
func (s *session) buildOnce(ctx context.Context) (build.BuildResult, error) {
	fmt.Fprintf(s.out, "%s %s into %s\n",
		TitleStyle.Render("Compiling"),
		strings.Join(s.initial.Names(), ", "),
		CmdStyle.Render(s.builder.CartPath()))

	result, err := s.builder.Rebuild(ctx, s.initial)
	if err != nil {
		return result, err
	}
	fmt.Fprintln(s.out, formatResult(result, s.cfg.DryRun))
	return result, nil
}

func formatResult(result build.BuildResult, dryRun bool) string {
	if result.Error != nil {
		return ErrorStyle.Render("✗ ") + result.Error.Error()
	}
	verb := "Wrote"
	if dryRun {
		verb = "Would write"
	}
	return SuccessStyle.Render("✓ ") + fmt.Sprintf("%s %d bytes from %d fragments", verb, result.Bytes, result.Fragments) +
		VerboseStyle.Render(fmt.Sprintf(" (%s)", result.Duration.Round(time.Microsecond)))
}

func newLogger(cfg *config.Config, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: out,
	}), nil
}
