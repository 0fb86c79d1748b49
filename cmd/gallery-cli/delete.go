package main

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery/clientcli"
)

var assumeYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <file-name> [file-name...]",
	Aliases: []string{"rm"},
	Short:   "Delete images",
	Long: `Delete one or more images from the object store and the index.

You are asked to confirm unless --yes is given.

Examples:
  gallery-cli delete 1714566600123_beach.jpg
  gallery-cli list -q | xargs gallery-cli delete --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	if !assumeYes {
		label := fmt.Sprintf("Delete %q", args[0])
		if len(args) > 1 {
			label = fmt.Sprintf("Delete %d images", len(args))
		}

		prompt := promptui.Prompt{Label: label, IsConfirm: true}
		if _, err := prompt.Run(); err != nil {
			return handlePromptError(err)
		}
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{FileNames: args})
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	if err := formatter.FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	// Return error if any deletes failed
	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
