// Package build turns a fragment directory into a spliced cartridge.
//
// A rebuild always runs the full sequence: resolve the fragment set,
// concatenate it, read the current cartridge, splice the new code section in
// and write the result back. The cartridge file is only opened for writing
// once the complete new content exists in memory, so a failure at any step
// leaves the previous cartridge intact.
package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/conneroisu/picopack/internal/cart"
	"github.com/conneroisu/picopack/internal/errors"
	"github.com/conneroisu/picopack/internal/logging"
	"github.com/conneroisu/picopack/internal/scanner"
)

// BuildResult describes one rebuild attempt.
type BuildResult struct {
	Fragments int
	Bytes     int
	Duration  time.Duration
	Written   bool
	Error     error
}

// Options configures a Builder.
type Options struct {
	SourceDir string
	CartPath  string
	Scanner   *scanner.FragmentScanner
	Format    cart.Format
	Logger    logging.Logger
	// DryRun computes the new cartridge without writing it.
	DryRun bool
}

// Builder runs rebuilds for one source directory and one cartridge.
type Builder struct {
	sourceDir string
	cartPath  string
	scanner   *scanner.FragmentScanner
	format    cart.Format
	logger    logging.Logger
	dryRun    bool
	metrics   *BuildMetrics
}

// NewBuilder validates opts and creates a Builder.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.SourceDir == "" {
		return nil, fmt.Errorf("source directory is required")
	}
	if opts.CartPath == "" {
		return nil, fmt.Errorf("cartridge path is required")
	}
	if opts.Scanner == nil {
		s, err := scanner.NewFragmentScanner(scanner.DefaultExtension)
		if err != nil {
			return nil, err
		}
		opts.Scanner = s
	}
	if opts.Format == (cart.Format{}) {
		opts.Format = cart.PICO8
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Builder{
		sourceDir: opts.SourceDir,
		cartPath:  opts.CartPath,
		scanner:   opts.Scanner,
		format:    opts.Format,
		logger:    opts.Logger.WithComponent("builder"),
		dryRun:    opts.DryRun,
		metrics:   NewBuildMetrics(),
	}, nil
}

// SourceDir returns the fragment directory.
func (b *Builder) SourceDir() string { return b.sourceDir }

// CartPath returns the cartridge path.
func (b *Builder) CartPath() string { return b.cartPath }

// Scanner returns the fragment scanner.
func (b *Builder) Scanner() *scanner.FragmentScanner { return b.scanner }

// Metrics returns the builder's metrics.
func (b *Builder) Metrics() *BuildMetrics { return b.metrics }

// Resolve lists the current fragment set.
func (b *Builder) Resolve() (scanner.FragmentSet, error) {
	return b.scanner.Resolve(b.sourceDir)
}

// Build resolves the fragment set and rebuilds from it.
func (b *Builder) Build(ctx context.Context) (BuildResult, error) {
	set, err := b.Resolve()
	if err != nil {
		result := BuildResult{Error: err}
		b.metrics.Record(result)
		return result, err
	}
	return b.Rebuild(ctx, set)
}

// Rebuild bundles set into the cartridge. Running it twice with unchanged
// fragments yields byte-identical cartridges.
func (b *Builder) Rebuild(ctx context.Context, set scanner.FragmentSet) (BuildResult, error) {
	op := logging.StartOperation(b.logger, "rebuild")

	result, err := b.rebuild(ctx, set)
	if err != nil {
		result.Duration = op.EndWithError(ctx, err)
		result.Error = err
	} else {
		result.Duration = op.End(ctx, "fragments", result.Fragments, "bytes", result.Bytes)
	}

	b.metrics.Record(result)
	return result, err
}

func (b *Builder) rebuild(ctx context.Context, set scanner.FragmentSet) (BuildResult, error) {
	result := BuildResult{Fragments: len(set)}

	code, err := Concatenate(set)
	if err != nil {
		return result, err
	}

	existing, err := os.ReadFile(b.cartPath)
	if err != nil {
		return result, errors.NewReadFailure(b.cartPath, err)
	}

	content, err := b.format.Splice(existing, code)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) && e.Path == "" {
			e.Path = b.cartPath
		}
		return result, err
	}
	result.Bytes = len(content)

	if b.dryRun {
		b.logger.Debug(ctx, "Dry run, cartridge not written", "cart", b.cartPath)
		return result, nil
	}

	if err := writeCart(b.cartPath, content); err != nil {
		return result, err
	}
	result.Written = true
	return result, nil
}

// writeCart truncates path and writes content, flushing it to stable
// storage before returning.
func writeCart(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return errors.NewWriteFailure(path, err)
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return errors.NewWriteFailure(path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.NewWriteFailure(path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewWriteFailure(path, err)
	}
	return nil
}
