package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/picopack/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage picopack configuration",
	Long: `Manage picopack configuration files and settings.

Examples:
  picopack config show            # Show the resolved configuration
  picopack config init            # Write a default .picopack.yml
  picopack config init --force    # Overwrite an existing one`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Print the configuration after merging defaults, the config file,
PICOPACK_* environment variables and flags, as YAML.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + config.FileName,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configInitForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.FileName
	}
	if err := config.WriteDefault(path, configInitForce); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ ")+"Wrote "+CmdStyle.Render(path))
	return nil
}
