package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/model"
	"github.com/agri4/agri-server/pkg/logger"

	"github.com/spf13/cobra"
)

type predictOutput struct {
	Model         string             `json:"model"`
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}

var predictCmd = &cobra.Command{
	Use:   "predict <model> <image>",
	Short: "Classify an image with one of the pest, crop or multispectral models",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		log, err := logger.InitLogger(cfg)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}

		loader := &model.ONNXLoader{LibraryPath: cfg.OnnxRuntimeLib}
		registry := model.NewRegistry(cfg.ModelsDir, model.DefaultSpecs(), loader, log)
		defer registry.Close()

		classifier, err := registry.Get(args[0])
		if err != nil {
			return err
		}

		prediction, err := classifier.Predict(data)
		if err != nil {
			return err
		}

		handle, err := classifier.Initialize()
		if err != nil {
			return err
		}

		out := predictOutput{
			Model:         args[0],
			Label:         prediction.Label,
			Confidence:    prediction.Confidence,
			Probabilities: make(map[string]float64, len(prediction.Distribution)),
		}
		for i, label := range handle.Labels() {
			if i < len(prediction.Distribution) {
				out.Probabilities[label] = prediction.Distribution[i]
			}
		}

		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	},
}
