package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ochronus/fileapictl/internal/app"
	"github.com/ochronus/fileapictl/internal/config"
	"github.com/ochronus/fileapictl/internal/operations"
	"github.com/ochronus/fileapictl/internal/utils"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	configPath   string
	token        string
	skipExisting bool
)

func main() {
	// Get default config path
	defaultConfigPath, err := config.DefaultConfigPath()
	if err != nil {
		defaultConfigPath = "./config.toml"
	}

	// Root command
	rootCmd := &cobra.Command{
		Use:           "fileapictl",
		Short:         "Client for the course file storage API",
		Long:          "Upload, list, download, delete and back up files stored on the course file API, and report storage quota usage.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to config file")

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Check health, list files and show quota",
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			return r.Demo(ctx)
		}),
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check API health",
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			return r.CheckHealth(ctx)
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded files",
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			_, err := r.ListFiles(ctx)
			return err
		}),
	}

	quotaCmd := &cobra.Command{
		Use:   "quota",
		Short: "Show storage quota usage",
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			_, err := r.QuotaInfo(ctx)
			return err
		}),
	}

	uploadCmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			return r.UploadFile(ctx, args[0])
		}),
	}

	safeUploadCmd := &cobra.Command{
		Use:   "safe-upload FILE",
		Short: "Upload a file, warning if the name already exists",
		Args:  cobra.ExactArgs(1),
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			return r.SafeUpload(ctx, args[0], operations.SafeUploadOptions{SkipExisting: skipExisting})
		}),
	}
	safeUploadCmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Do not upload when the name already exists")

	downloadCmd := &cobra.Command{
		Use:   "download NAME [SAVE_PATH]",
		Short: "Download a file, optionally saving it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			savePath := ""
			if len(args) == 2 {
				savePath = args[1]
			}
			return r.DownloadFile(ctx, args[0], savePath)
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a remote file",
		Args:  cobra.ExactArgs(1),
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			return r.DeleteFile(ctx, args[0])
		}),
	}

	batchUploadCmd := &cobra.Command{
		Use:   "batch-upload DIR",
		Short: "Upload every regular file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			result, err := r.BatchUpload(ctx, args[0])
			if err != nil {
				return err
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", result.Failed, result.Total())
			}
			return nil
		}),
	}

	backupCmd := &cobra.Command{
		Use:   "backup DIR",
		Short: "Download every remote file into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: withRunner(func(ctx context.Context, r *operations.Runner, args []string) error {
			result, err := r.BackupAllFiles(ctx, args[0])
			if err != nil {
				return err
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d downloads failed", result.Failed, result.Total())
			}
			return nil
		}),
	}

	// Generate-config command
	generateConfigCmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.GenerateConfig(cmd.OutOrStdout(), configPath, token)
		},
	}
	generateConfigCmd.Flags().StringVar(&token, "token", "", "API token to write into the config")

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fileapictl version %s\n", version)
		},
	}

	rootCmd.AddCommand(
		runCmd,
		healthCmd,
		listCmd,
		quotaCmd,
		uploadCmd,
		safeUploadCmd,
		downloadCmd,
		deleteCmd,
		batchUploadCmd,
		backupCmd,
		generateConfigCmd,
		versionCmd,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withRunner loads and validates configuration, builds the container and
// hands a Runner to fn.
func withRunner(fn func(ctx context.Context, r *operations.Runner, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			if errors.Is(err, config.ErrTokenNotConfigured) {
				fmt.Fprintln(os.Stderr, "WARNING: Please set your API token!")
				fmt.Fprintf(os.Stderr, "Edit %s and replace '%s' with your actual token, or set %s_TOKEN.\n\n",
					configPath, config.PlaceholderToken, config.EnvPrefix)
			}
			return fmt.Errorf("invalid configuration: %w", err)
		}

		container, err := app.NewContainer(cfg, app.WithOutput(cmd.OutOrStdout()))
		if err != nil {
			return fmt.Errorf("failed to build container: %w", err)
		}

		container.Logger.Debugf("fileapictl %s using %s", version, cfg.BaseURL)
		return fn(cmd.Context(), operations.NewRunner(container), args)
	}
}
