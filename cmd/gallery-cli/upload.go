package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery/clientcli"
)

var uploadOpts clientcli.UploadOptions

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image",
	Long: `Upload an image with optional descriptive fields.

The server stores the file as <unix-millis>_<name> with whitespace runs
replaced by underscores. The content type is detected from the file
unless --content-type is given.

Examples:
  gallery-cli upload beach.jpg --title "Beach" --tags summer,sea
  gallery-cli upload -q ./photos/cat.png`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadOpts.Title, "title", "t", "", "image title (default: stored file name)")
	uploadCmd.Flags().StringVarP(&uploadOpts.Description, "description", "d", "", "image description")
	uploadCmd.Flags().StringVar(&uploadOpts.Tags, "tags", "", "comma separated tags")
	uploadCmd.Flags().StringVarP(&uploadOpts.Location, "location", "l", "", "where the photo was taken")
	uploadCmd.Flags().StringVar(&uploadOpts.ContentType, "content-type", "", "override the detected content type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	opts := uploadOpts
	opts.LocalPath = args[0]

	formatter := getFormatter()

	img, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return &exitError{code: 1}
	}

	return formatter.FormatUpload(os.Stdout, img)
}
