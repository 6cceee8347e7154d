package cmd

import (
	"errors"
	"fmt"

	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/db"
	"github.com/agri4/agri-server/internal/db/drivers"
	"github.com/agri4/agri-server/internal/db/models"
	"github.com/agri4/agri-server/internal/db/repository"
	"github.com/agri4/agri-server/internal/utils/hashutil"
	"github.com/agri4/agri-server/internal/utils/randutil"

	"github.com/spf13/cobra"
)

const apiKeyPrefix = "agri"

var (
	apiKeyDriver drivers.Driver
	apiKeyRepo   repository.IAPIKeyRepository
)

var apiKeyCmd = &cobra.Command{
	Use:   "api-key",
	Short: "Manage agri API keys",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		driver, err := db.NewConnection(cmd.Context(), config.GetConfig())
		if err != nil {
			return err
		}

		apiKeyDriver = driver
		apiKeyRepo = repository.NewAPIKeyRepository(driver.GetDB())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if apiKeyDriver == nil {
			return nil
		}
		return apiKeyDriver.Close()
	},
}

func init() {
	newAPIKeyCmd := &cobra.Command{
		Use:   "new",
		Short: "Creates a new API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := randutil.PrefixedKey(apiKeyPrefix, 32)
			if err != nil {
				return err
			}

			apiKey := models.NewAPIKey(hashutil.Sha3256Hash([]byte(key)), randutil.MaskString(key, 8, 4))
			if _, err := apiKeyRepo.Create(cmd.Context(), apiKey); err != nil {
				return err
			}

			fmt.Printf("API key created: %s\n", key)
			fmt.Println("Store it now, it cannot be shown again.")
			return nil
		},
	}

	revokeAPIKeyCmd := &cobra.Command{
		Use:   "revoke <key>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			err := apiKeyRepo.RevokeAPIKeyWithHash(cmd.Context(), hashutil.Sha3256Hash([]byte(key)))
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("no API key matches %s", randutil.MaskString(key, 8, 4))
			}
			if err != nil {
				return err
			}

			fmt.Printf("API key revoked: %s\n", randutil.MaskString(key, 8, 4))
			return nil
		},
	}

	listAPIKeysCmd := &cobra.Command{
		Use:   "list",
		Short: "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKeys, err := apiKeyRepo.ListAPIKeys(cmd.Context())
			if err != nil {
				return err
			}

			if len(apiKeys) == 0 {
				fmt.Println("No API keys found")
				return nil
			}

			fmt.Println("API keys:")
			for _, apiKey := range apiKeys {
				fmt.Printf("%s (Revoked: %t, Created: %s)\n", apiKey.KeyMask, apiKey.IsRevoked, apiKey.CreatedAt.Format("2006-01-02"))
			}

			return nil
		},
	}

	apiKeyCmd.AddCommand(newAPIKeyCmd, revokeAPIKeyCmd, listAPIKeysCmd)
}
