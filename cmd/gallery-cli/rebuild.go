package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the server index from the object store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		formatter := getFormatter()

		result, err := client.Rebuild(cmd.Context())
		if err != nil {
			_ = formatter.FormatError(os.Stderr, err)
			return &exitError{code: 1}
		}

		return formatter.FormatRebuild(os.Stdout, result)
	},
}
