package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/conneroisu/picopack/internal/cart"
	"github.com/conneroisu/picopack/internal/errors"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [cart.p8]",
	Short: "List the sections of a cartridge",
	Long: `Print the header version and every __name__ section of a cartridge with
its offset and size. Without an argument the cartridge is located the same
way the build does, except that none is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return errors.Enhance(runInspect(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Output.Path
	}
	if path == "" {
		found, err := findCart(".")
		if err != nil {
			return err
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewReadFailure(path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, TitleStyle.Render(path))
	if v := cart.HeaderVersion(data); v != "" {
		fmt.Fprintln(out, SubtitleStyle.Render("version "+v))
	}

	sections := cart.Sections(data)
	if len(sections) == 0 {
		fmt.Fprintln(out, WarningStyle.Render("no sections found"))
		return nil
	}

	name := lipgloss.NewStyle().Width(10)
	num := lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
	fmt.Fprintln(out, SubtitleStyle.Render(name.Render("SECTION")+num.Render("OFFSET")+num.Render("SIZE")))
	for _, section := range sections {
		fmt.Fprintln(out, CmdStyle.Render(name.Render(section.Name))+
			num.Render(strconv.Itoa(section.Offset))+
			num.Render(strconv.Itoa(section.Size)))
	}
	return nil
}

// findCart searches dir for a single cartridge without creating one.
func findCart(dir string) (string, error) {
	candidates, err := cart.Candidates(dir)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 0:
		return "", errors.NewInvalidInput(dir, "no .p8 cartridge found")
	case 1:
		return filepath.Join(dir, candidates[0]), nil
	default:
		return "", errors.NewAmbiguousOutput(dir, candidates)
	}
}
