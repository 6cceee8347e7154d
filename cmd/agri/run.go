package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agri4/agri-server/internal/app"
	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agri server",
	RunE:  runApp,
}

func init() {
	flags := runCmd.Flags()

	flags.Int("port", 8000, "Port to run the server on")
	flags.String("host", "0.0.0.0", "Host to run the server on")
	flags.String("environment", "dev", "Environment configuration")
	flags.StringSlice("warmup-models", []string{}, "Models to be loaded and warmed up on startup")
	flags.String("filesystem-type", "local", "Filesystem type: 'local' or 's3'")
	flags.String("public-dir", "", "Path where static files should be served from. Relative paths are relative to the current working directory.")
	flags.String("onnxruntime-lib", "", "Path to the onnxruntime shared library")

	flags.String("db-driver", "sqlite", "Database driver: 'sqlite' or 'pg'")
	flags.String("db-dsn", "", "Database DSN (Connection URL or Path)")

	flags.String("s3-access-key", "", "S3 access key")
	flags.String("s3-secret-key", "", "S3 secret key")
	flags.String("s3-region-name", "", "S3 region name")
	flags.String("s3-bucket-name", "", "S3 bucket name")
	flags.String("s3-folder", "", "S3 folder")
	flags.String("s3-public-url", "", "Public URL for S3 files")
	flags.String("s3-endpoint-url", "", "S3 endpoint URL")

	bindFlags(flags.Lookup, map[string]string{
		"port":            "port",
		"host":            "host",
		"environment":     "environment",
		"warmup_models":   "warmup-models",
		"filesystem_type": "filesystem-type",
		"public_dir":      "public-dir",
		"onnxruntime_lib": "onnxruntime-lib",
		"db.driver":       "db-driver",
		"db.dsn":          "db-dsn",
		"s3.access_key":   "s3-access-key",
		"s3.secret_key":   "s3-secret-key",
		"s3.region_name":  "s3-region-name",
		"s3.bucket_name":  "s3-bucket-name",
		"s3.folder":       "s3-folder",
		"s3.public_url":   "s3-public-url",
		"s3.endpoint_url": "s3-endpoint-url",
	})
}

func runApp(cmd *cobra.Command, _ []string) error {
	cfg := config.GetConfig()

	app, err := app.NewApp(cfg,
		app.WithSentry(),
		app.WithDBInitialization(),
		app.WithFileUploader(),
		app.WithModels(),
		app.WithLLM(),
		app.WithModeration(),
	)
	if err != nil {
		return err
	}
	defer app.Close()

	server, err := server.NewServer(cfg, app.Logger)
	if err != nil {
		return err
	}

	// Setup the server routes
	server.SetupRoutes(app)

	errc := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	if err := server.Stop(context.Background()); err != nil {
		app.Logger.Error("Failed to stop server", zap.Error(err))
		return err
	}
	app.Logger.Info("Server stopped successfully")
	return nil
}
