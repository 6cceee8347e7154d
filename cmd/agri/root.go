package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/agri4/agri-server/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Cmd = &cobra.Command{
	Use:   "agri",
	Short: "Agri 4.0 server CLI",
	Long:  "Crop, pest and multispectral image classification with an AI farming assistant, a marketplace and a community board",

	SilenceUsage: true,

	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config and env files
		return config.InitConfig()
	},
}

func Execute() {
	if err := Cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Subcommands define their own pre-run hooks; the root one must still run.
	cobra.EnableTraverseRunHooks = true

	pflags := Cmd.PersistentFlags()

	pflags.String("agri-home", "", "Path to the agri home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")

	// Bind flags to viper
	viper.BindPFlag("agri_home", pflags.Lookup("agri-home"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))

	// Add subcommands
	Cmd.AddCommand(runCmd, dbCmd, apiKeyCmd, predictCmd, modelsCmd)
	Cmd.CompletionOptions.HiddenDefaultCmd = true
}
