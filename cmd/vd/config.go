package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/jcadam/verdict/pkg/config"
	"github.com/jcadam/verdict/pkg/configure"
)

var defaultsFlag bool

func init() {
	configInitCmd.Flags().BoolVar(&defaultsFlag, "defaults", false, "write the default configuration without prompting")
	configCmd.AddCommand(configShowCmd, configInitCmd, configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the verdict configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		verdictDir, err := config.VerdictDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(verdictDir)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", filepath.Join(verdictDir, "config.yaml"), data)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the verdict configuration",
	Long:  "Writes config.yaml to $VERDICT_DIR (default ~/.verdict). Prompts for each setting unless --defaults is given or stdin is not a terminal.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		verdictDir, err := config.VerdictDir()
		if err != nil {
			return err
		}

		configPath := filepath.Join(verdictDir, "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration already exists at", configPath)
			fmt.Fprintln(cmd.OutOrStdout(), "Use 'vd config edit' to modify it.")
			return nil
		}

		cfg := config.Default()
		if !defaultsFlag && term.IsTerminal(int(os.Stdin.Fd())) {
			wiz := configure.NewWizard(os.Stdin, cmd.OutOrStdout())
			cfg, err = wiz.RunInit()
			if err != nil {
				return fmt.Errorf("configuration wizard: %w", err)
			}
		}

		return saveConfig(cmd, verdictDir, cfg)
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Modify the verdict configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		verdictDir, err := config.VerdictDir()
		if err != nil {
			return err
		}

		// Loaded without env expansion so ${VAR} references survive the save.
		cfg, err := config.Load(verdictDir)
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "No configuration found. Run 'vd config init' first.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		wiz := configure.NewWizard(os.Stdin, cmd.OutOrStdout())
		if err := wiz.RunModify(cfg); err != nil {
			return fmt.Errorf("configuration wizard: %w", err)
		}
		return saveConfig(cmd, verdictDir, cfg)
	},
}

func saveConfig(cmd *cobra.Command, verdictDir string, cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.Save(verdictDir, cfg); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n  Configuration saved to %s\n", filepath.Join(verdictDir, "config.yaml"))
	return nil
}
