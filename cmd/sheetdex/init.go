package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planscope/sheetdex/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the sheetdex home directory",
	Long: `Initialize the sheetdex home directory and write a default config.

Creates ~/.sheetdex (or the directory given with --home) and writes
config.yaml with documented defaults. Existing config is left alone
unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}

		if h.ConfigExists() && !initForce {
			fmt.Printf("Config already exists at %s (use --force to overwrite)\n", h.ConfigPath())
			return nil
		}

		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("Initialized %s\n", h.Path())
		fmt.Printf("Config written to %s\n", h.ConfigPath())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config")
	rootCmd.AddCommand(initCmd)
}
