package cmd

import (
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/datagen/internal/config"
	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/service"
	"github.com/Lumos-Labs-HQ/datagen/internal/store"
	"github.com/Lumos-Labs-HQ/datagen/internal/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tierCmd = &cobra.Command{
	Use:   "tier <email> <free|pro|enterprise>",
	Short: "Change a user's subscription tier",
	Long: `
Set the subscription tier of an account in the configured store. Billing lives
outside datagen; this is the operator hook for applying its result.

Examples:
  datagen tier jane@example.com pro`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage.Provider == config.ProviderMemory {
			return fmt.Errorf("the memory store does not persist; configure bolt or mongodb storage")
		}

		ctx := cmd.Context()
		st, err := store.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer st.Close()

		u, err := st.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(args[0])))
		if err != nil {
			return fmt.Errorf("failed to find user %s: %w", args[0], err)
		}

		svc := service.New(st, generator.NewDefault(), cfg)
		u, err = svc.Users.SetTier(ctx, u.ID, types.Tier(strings.ToLower(args[1])))
		if err != nil {
			return err
		}

		color.Green("✅ %s is now on the %s plan", u.Email, u.Tier)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tierCmd)
}
