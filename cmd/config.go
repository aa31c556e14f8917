package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pixelate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or display the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Answer a few questions and write the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Prompt(appConfig)
		if err != nil {
			return err
		}
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s %s\n", inspectCategoryStyle.Render("Wrote"), inspectValueStyle.Render(configPath))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(appConfig)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "# %s\n%s", configPath, out)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
