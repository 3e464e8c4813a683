// Package cmd provides the command-line interface for picopack with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--input, --watch, etc.) - highest priority
//	2. Individual environment variables (PICOPACK_SOURCE_DIR, etc.)
//	3. Configuration file (.picopack.yml, --config or PICOPACK_CONFIG_FILE)
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	PICOPACK_CONFIG_FILE: Path to custom configuration file
//	PICOPACK_SOURCE_DIR: Override the fragment directory
//	PICOPACK_WATCH_DEBOUNCE: Override the watch debounce
//	And the rest following the PICOPACK_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/picopack/internal/config"
	"github.com/conneroisu/picopack/internal/errors"
	"github.com/conneroisu/picopack/internal/version"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "picopack [output.p8]",
	Short: "Bundle Lua fragments into a PICO-8 cartridge",
	Long: `picopack concatenates the Lua files of a source directory, in name order,
and splices the result into the code section of a PICO-8 cartridge. Graphics,
map, sound and music sections of the cartridge are left untouched.

Without an output argument the single .p8 file in the working directory is
used; when there is none, an empty cartridge named after the directory is
created and bootstrapped.

Examples:
  picopack                        Build src/*.lua into the .p8 file here
  picopack game.p8 -i lua/        Build lua/*.lua into game.p8
  picopack -w                     Build, then rebuild on every change
  picopack --dry-run              Show what would be written`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command through fang.
func Execute(ctx context.Context) error {
	return fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.Get().Short()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

func init() {
	cobra.OnInitialize(initConfig)

	addGlobalFlags(rootCmd.PersistentFlags())
	rootCmd.Flags().BoolP(flagWatch, "w", false, "rebuild whenever a fragment changes")
}

func runRoot(cmd *cobra.Command, args []string) error {
	s, err := prepare(cmd, args)
	if err != nil {
		return errors.Enhance(err)
	}

	if s.cfg.Watch.Enabled {
		return errors.Enhance(runWatchSession(cmd, s))
	}
	_, err = s.buildOnce(cmd.Context())
	return errors.Enhance(err)
}

// initConfig initializes the configuration system with support for multiple config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. PICOPACK_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .picopack.yml in current directory
func initConfig() {
	configErr = nil
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("PICOPACK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".picopack")
	}

	config.SetDefaults(viper.GetViper())
	config.SetupEnv(viper.GetViper())
	bindFlags(viper.GetViper(), rootCmd)

	// A missing default file is fine; an explicit one that fails to parse is
	// reported once the command loads its configuration.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
		configErr = err
	}
}

// configErr holds a config file read error surfaced by loadConfig.
var configErr error

func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, fmt.Errorf("read config file: %w", configErr)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
