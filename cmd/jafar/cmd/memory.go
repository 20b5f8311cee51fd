package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jafar/internal/config"
	"jafar/internal/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and export the assistant's long-term memory",
}

var memoryLevelsCmd = &cobra.Command{
	Use:   "levels <symbol>",
	Short: "List remembered key price levels for an instrument",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.Summary(args[0])
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}

var memoryExportCmd = &cobra.Command{
	Use:   "export <symbol>...",
	Short: "Export memory to markdown files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := memory.Open(cfg.Memory.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		paths, err := store.ExportMarkdown(cfg.Memory.ExportDir, args)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Println(path)
		}
		return nil
	},
}

func init() {
	memoryCmd.AddCommand(memoryLevelsCmd)
	memoryCmd.AddCommand(memoryExportCmd)
	rootCmd.AddCommand(memoryCmd)
}

func openStore() (*memory.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return memory.Open(cfg.Memory.DBPath)
}
