package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "gallery",
	Short:   "Photo gallery server",
	Long: `Gallery stores images with their descriptive metadata in an object
store (MinIO or a local directory) and serves listing and search from a
rebuildable index.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}

		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)

		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	// Skip config loading
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSlice("config", nil, "config file path, repeatable, later files override (default: ./config.yaml)")
	flags.String("storage-type", "", "object store: minio, filesystem (default: minio, env: GALLERY_STORAGE_TYPE)")
	flags.String("storage-path", "", "directory for the filesystem store (default: ./data, env: GALLERY_STORAGE_PATH)")
	flags.String("minio-address", "", "MinIO host:port (default: minio:9000, env: GALLERY_STORAGE_MINIO_ENDPOINT)")
	flags.String("minio-bucket", "", "MinIO bucket (default: photo-storage, env: GALLERY_STORAGE_MINIO_BUCKET)")
	flags.String("public-url", "", "base URL for image links, empty serves through /files (env: GALLERY_STORAGE_PUBLIC_URL)")
	flags.String("index-type", "", "index backend: memory, sqlite, postgres, redis (default: memory, env: GALLERY_INDEX_TYPE)")
	flags.String("index-dsn", "", "index connection string (env: GALLERY_INDEX_DSN)")
	flags.String("index-table", "", "index table name (default: gallery_images, env: GALLERY_INDEX_TABLE)")
	flags.String("log-level", "", "log level: debug, info, warn, error (default: info, env: GALLERY_LOG_LEVEL)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
