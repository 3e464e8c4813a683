package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/picopack/internal/config"
	"github.com/conneroisu/picopack/internal/watcher"
)

const (
	flagConfig    = "config"
	flagInput     = "input"
	flagExclude   = "exclude"
	flagExtension = "ext"
	flagDryRun    = "dry-run"
	flagDebounce  = "debounce"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagWatch     = "watch"
)

// flagKeys maps flag names to the viper keys they override.
var flagKeys = map[string]string{
	flagInput:     config.KeySourceDir,
	flagExclude:   config.KeySourceExclude,
	flagExtension: config.KeySourceExtension,
	flagDebounce:  config.KeyWatchDebounce,
	flagLogLevel:  config.KeyLogLevel,
	flagLogFormat: config.KeyLogFormat,
	flagWatch:     config.KeyWatchEnabled,
}

// addGlobalFlags registers the flags shared by every command.
func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfgFile, flagConfig, "", "config file (default is .picopack.yml, can also use PICOPACK_CONFIG_FILE env var)")
	fs.StringP(flagInput, "i", "src/", "directory holding the Lua fragments")
	fs.StringSlice(flagExclude, nil, "glob of fragment names to skip (repeatable)")
	fs.String(flagExtension, ".lua", "fragment file extension")
	fs.Bool(flagDryRun, false, "compute the cartridge without writing it")
	fs.Duration(flagDebounce, watcher.DefaultDebounce, "quiet period before a watch rebuild")
	fs.StringP(flagLogLevel, "l", "info", "log level (debug, info, warn, error)")
	fs.String(flagLogFormat, "text", "log format (text, json)")
}

// bindFlags binds every known flag of cmd and its persistent parents to v.
// Unset flags only act as defaults, so file and environment values win.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	visit := func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
		}
	}
	cmd.PersistentFlags().VisitAll(visit)
	cmd.LocalNonPersistentFlags().VisitAll(visit)
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() == "stringSlice" {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			}
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}
