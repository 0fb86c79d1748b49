package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery/config"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the object store",
	Long: `Reset the configured index and repopulate it from every object in
the store. This is useful when:
  - Switching to a persistent index (sqlite, postgres, redis)
  - Recovering after the index was lost or edited by hand

With the memory index this only checks that every object can be read.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	service, _, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := service.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	slog.Info("rebuild complete", "indexed", result.Indexed, "skipped", result.Skipped)
	cmd.Printf("%d indexed, %d skipped\n", result.Indexed, result.Skipped)

	if result.Skipped > 0 {
		return fmt.Errorf("%d object(s) could not be indexed", result.Skipped)
	}
	return nil
}
