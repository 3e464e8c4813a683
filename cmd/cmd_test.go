package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/picopack/internal/cart"
	"github.com/conneroisu/picopack/internal/errors"
)

const gameCart = "pico-8 cartridge // http://www.pico-8.com\n" +
	"version 41\n" +
	"__lua__\n" +
	"old()\n" +
	"__gfx__\n" +
	"0123\n" +
	"__sfx__\n" +
	"00\n"

// syncBuffer lets a running command write while the test polls.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func prepareRun(args ...string) *syncBuffer {
	viper.Reset()
	resetFlags(rootCmd)

	out := &syncBuffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	return out
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := prepareRun(args...)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// project creates a working directory with the given files and changes
// into it.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuildIntoDiscoveredCart(t *testing.T) {
	project(t, map[string]string{
		"game.p8":   gameCart,
		"src/b.lua": "b()\n",
		"src/a.lua": "a()\n",
		"src/x.txt": "ignored\n",
	})

	out, err := execute(t)
	require.NoError(t, err)

	assert.Equal(t, strings.Replace(gameCart, "old()\n", "a()\nb()\n", 1), readFile(t, "game.p8"))
	assert.Contains(t, out, "Compiling")
	assert.Contains(t, out, "a.lua, b.lua")
	assert.Contains(t, out, "Wrote")
}

func TestBuildCreatesExplicitCart(t *testing.T) {
	project(t, map[string]string{"lua/main.lua": "x"})

	out, err := execute(t, "out.p8", "-i", "lua")
	require.NoError(t, err)

	assert.Equal(t, cart.PICO8.Header+"__lua__\nx__gfx__\n", readFile(t, "out.p8"))
	assert.Contains(t, out, "Created empty cartridge out.p8")
}

func TestBuildCreatesCartNamedAfterDirectory(t *testing.T) {
	dir := project(t, map[string]string{"src/main.lua": "x"})

	_, err := execute(t)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Base(dir)+".p8")
}

func TestBuildMissingInputCreatesNothing(t *testing.T) {
	project(t, nil)

	_, err := execute(t, "-i", "nope")

	require.ErrorIs(t, err, errors.InvalidInput)
	candidates, cerr := cart.Candidates(".")
	require.NoError(t, cerr)
	assert.Empty(t, candidates)
}

func TestBuildEmptySourceSet(t *testing.T) {
	project(t, map[string]string{"game.p8": gameCart, "src/readme.md": "hi"})

	_, err := execute(t)

	require.ErrorIs(t, err, errors.NoSourcesFound)
	assert.Equal(t, gameCart, readFile(t, "game.p8"))
}

func TestBuildAmbiguousOutput(t *testing.T) {
	project(t, map[string]string{"a.p8": gameCart, "b.p8": gameCart, "src/a.lua": "a()"})

	_, err := execute(t)

	require.ErrorIs(t, err, errors.AmbiguousOutput)
	assert.Contains(t, err.Error(), "a.p8, b.p8")
	assert.Contains(t, err.Error(), "Suggestions:")
}

func TestBuildMalformedCart(t *testing.T) {
	malformed := "pico-8 cartridge\n__lua__\nno gfx\n"
	project(t, map[string]string{"game.p8": malformed, "src/a.lua": "a()"})

	_, err := execute(t)

	require.ErrorIs(t, err, errors.MalformedContainer)
	assert.Equal(t, malformed, readFile(t, "game.p8"))
}

func TestBuildDryRun(t *testing.T) {
	project(t, map[string]string{"game.p8": gameCart, "src/a.lua": "a()\n"})

	out, err := execute(t, "--dry-run")
	require.NoError(t, err)

	assert.Equal(t, gameCart, readFile(t, "game.p8"))
	assert.Contains(t, out, "Would write")
}

func TestBuildExcludeFlag(t *testing.T) {
	project(t, map[string]string{
		"game.p8":        gameCart,
		"src/a.lua":      "a()\n",
		"src/a_test.lua": "test()\n",
	})

	_, err := execute(t, "--exclude", "*_test.lua")
	require.NoError(t, err)

	assert.NotContains(t, readFile(t, "game.p8"), "test()")
}

func TestBuildReadsConfigFile(t *testing.T) {
	project(t, map[string]string{
		".picopack.yml": "source:\n  dir: code\noutput:\n  path: cart.p8\n",
		"cart.p8":       gameCart,
		"code/a.lua":    "fromfile()\n",
	})

	_, err := execute(t)
	require.NoError(t, err)

	assert.Contains(t, readFile(t, "cart.p8"), "fromfile()")
}

func TestBuildFlagOverridesConfigFile(t *testing.T) {
	project(t, map[string]string{
		".picopack.yml": "source:\n  dir: code\n",
		"game.p8":       gameCart,
		"code/a.lua":    "fromfile()\n",
		"other/a.lua":   "fromflag()\n",
	})

	_, err := execute(t, "-i", "other")
	require.NoError(t, err)

	assert.Contains(t, readFile(t, "game.p8"), "fromflag()")
}

func TestBuildReadsEnvironment(t *testing.T) {
	project(t, map[string]string{"game.p8": gameCart, "env/a.lua": "fromenv()\n"})
	t.Setenv("PICOPACK_SOURCE_DIR", "env")

	_, err := execute(t)
	require.NoError(t, err)

	assert.Contains(t, readFile(t, "game.p8"), "fromenv()")
}

func TestBuildInvalidConfig(t *testing.T) {
	project(t, map[string]string{"src/a.lua": "a()"})

	_, err := execute(t, "--log-format", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestBuildTooManyArgs(t *testing.T) {
	project(t, nil)

	_, err := execute(t, "a.p8", "b.p8")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	project(t, map[string]string{"game.p8": gameCart})

	out, err := execute(t, "inspect")
	require.NoError(t, err)

	assert.Contains(t, out, "game.p8")
	assert.Contains(t, out, "version 41")
	for _, name := range []string{"lua", "gfx", "sfx"} {
		assert.Contains(t, out, name)
	}
}

func TestInspectNoCart(t *testing.T) {
	project(t, nil)

	_, err := execute(t, "inspect")
	require.ErrorIs(t, err, errors.InvalidInput)
}

func TestInspectShowsSuggestions(t *testing.T) {
	t.Run("ambiguous", func(t *testing.T) {
		project(t, map[string]string{"a.p8": gameCart, "b.p8": gameCart})

		_, err := execute(t, "inspect")

		require.ErrorIs(t, err, errors.AmbiguousOutput)
		assert.Contains(t, err.Error(), "Suggestions:")
		assert.Contains(t, err.Error(), "picopack game.p8")
	})

	t.Run("unreadable", func(t *testing.T) {
		project(t, nil)

		_, err := execute(t, "inspect", "missing.p8")

		require.ErrorIs(t, err, errors.ReadFailure)
		assert.Contains(t, err.Error(), "Suggestions:")
		assert.Contains(t, err.Error(), "ls -l missing.p8")
	})
}

func TestConfigShow(t *testing.T) {
	project(t, nil)

	out, err := execute(t, "config", "show", "-i", "lua", "--debounce", "250ms")
	require.NoError(t, err)

	assert.Contains(t, out, "dir: lua")
	assert.Contains(t, out, "debounce: 250ms")
	assert.Contains(t, out, "version: 16")
}

func TestConfigInit(t *testing.T) {
	project(t, nil)

	_, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, ".picopack.yml")

	_, err = execute(t, "config", "init")
	require.Error(t, err)

	_, err = execute(t, "config", "init", "--force")
	require.NoError(t, err)

	// the written file loads back
	_, err = execute(t, "config", "show")
	require.NoError(t, err)
}

func TestVersionJSON(t *testing.T) {
	project(t, nil)

	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")
}

func TestVersionUnknownFormat(t *testing.T) {
	project(t, nil)

	_, err := execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestWatchRebuildsAndStopsCleanly(t *testing.T) {
	project(t, map[string]string{"game.p8": gameCart, "src/a.lua": "first()\n"})

	out := prepareRun("watch", "--debounce", "20ms")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- rootCmd.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, readFile(t, "game.p8"), "first()")

	require.NoError(t, os.WriteFile(filepath.Join("src", "b.lua"), []byte("second()\n"), 0o644))
	require.Eventually(t, func() bool {
		data, err := os.ReadFile("game.p8")
		return err == nil && strings.Contains(string(data), "first()\nsecond()\n")
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}

	assert.Contains(t, out.String(), "Recompiling..")
	assert.Contains(t, out.String(), "Done.")
	assert.Regexp(t, `\b([2-9]|\d{2,}) builds, 0 failed`, out.String())
	assert.Contains(t, readFile(t, "game.p8"), "__gfx__\n0123\n__sfx__\n00\n")
}
