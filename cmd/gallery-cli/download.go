package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery/clientcli"
)

var downloadCmd = &cobra.Command{
	Use:   "download <file-name> [dest]",
	Short: "Download an image",
	Long: `Download the stored bytes of an image.

dest may be a file or an existing directory. Use "-" to write to stdout.

Examples:
  gallery-cli download 1714566600123_beach.jpg
  gallery-cli download 1714566600123_beach.jpg ./backup/
  gallery-cli download 1714566600123_beach.jpg - > beach.jpg`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.DownloadOptions{FileName: args[0]}
	if len(args) > 1 {
		opts.LocalPath = args[1]
	}

	formatter := getFormatter()

	result, body, err := client.Download(cmd.Context(), opts)
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return &exitError{code: 1}
	}

	if body != nil {
		defer func() { _ = body.Close() }()
		written, copyErr := io.Copy(os.Stdout, body)
		if copyErr != nil {
			return fmt.Errorf("write to stdout: %w", copyErr)
		}
		result.Size = written
		// stdout carries the content, so the summary goes to stderr
		return formatter.FormatDownload(os.Stderr, result)
	}

	return formatter.FormatDownload(os.Stdout, result)
}
