package cmd

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/datagen/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a datagen.config.json in the current directory",
	Long: `
Write a default configuration file using the embedded bolt store and create the
export and storage directories it points at.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitializeProject(); err != nil {
			return err
		}

		cfg := config.Default()
		color.Green("✅ Created %s", config.FileName)
		fmt.Println()
		fmt.Println("📁 Directories:")
		fmt.Printf("   %s/\n", cfg.Export.Path)
		fmt.Println()
		fmt.Printf("🚀 Next steps:\n")
		fmt.Printf("   datagen generate --schema users.json   # Generate a dataset\n")
		fmt.Printf("   datagen serve                          # Run the API\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
