package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/model"
	"github.com/agri4/agri-server/internal/services/modelfetch"
	"github.com/agri4/agri-server/pkg/logger"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage classifier artifacts",
}

func init() {
	fetchCmd := &cobra.Command{
		Use:   "fetch <source>",
		Short: "Download a model artifact into the models directory",
		Long: `Download a model artifact into the models directory.

Sources are an http(s) URL, a local path prefixed with file:, or a Hugging
Face file written as hf:<owner>/<repo>/<path>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			log, err := logger.InitLogger(cfg)
			if err != nil {
				return err
			}

			name, _ := cmd.Flags().GetString("name")
			fetcher := modelfetch.NewFetcher(cfg.ModelsDir,
				modelfetch.WithOutput(os.Stderr),
				modelfetch.WithHuggingface("", cfg.HFToken),
				modelfetch.WithLogger(log),
			)

			path, err := fetcher.Fetch(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}

			fmt.Printf("saved %s\n", path)
			return nil
		},
	}
	fetchCmd.Flags().String("name", "", "Filename to store the artifact under, e.g. crop_model.onnx")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Load every classifier and print its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			log, err := logger.InitLogger(cfg)
			if err != nil {
				return err
			}

			loader := &model.ONNXLoader{LibraryPath: cfg.OnnxRuntimeLib}
			registry := model.NewRegistry(cfg.ModelsDir, model.DefaultSpecs(), loader, log)
			defer registry.Close()

			if err := registry.Warmup(); err != nil {
				fmt.Fprintf(os.Stderr, "some models failed to load: %v\n", err)
			}

			encoded, err := json.MarshalIndent(registry.Statuses(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}

	modelsCmd.AddCommand(fetchCmd, statusCmd)
}
