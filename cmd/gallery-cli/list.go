package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all images, newest first",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search titles, descriptions and tags",
	Long: `Search titles, descriptions and tags, case-insensitively.

Multiple arguments are joined with spaces. An empty query lists everything.

Examples:
  gallery-cli search beach
  gallery-cli search "new york" --json`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()

	images, err := client.List(cmd.Context())
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return &exitError{code: 1}
	}

	return formatter.FormatImages(os.Stdout, images)
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()

	images, err := client.Search(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return &exitError{code: 1}
	}

	return formatter.FormatImages(os.Stdout, images)
}
