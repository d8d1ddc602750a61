package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/service"
	"github.com/Lumos-Labs-HQ/datagen/internal/sink"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill a database table with generated rows",
	Long: `
Generate records from a schema file and insert them into a PostgreSQL, MySQL
or SQLite table using batched multi-row INSERT statements.

The connection URL is read from the environment variable named by
seed.url_env (DATABASE_URL by default) or by --url-env.

Examples:
  datagen seed --schema users.json --table users --count 50000
  datagen seed --schema users.yaml --table users --create --provider sqlite
  datagen seed --schema users.json --table users --url-env TEST_DATABASE_URL --batch 1000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		schemaPath, _ := cmd.Flags().GetString("schema")
		table, _ := cmd.Flags().GetString("table")
		count, _ := cmd.Flags().GetInt("count")
		create, _ := cmd.Flags().GetBool("create")
		if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
			cfg.Seed.Provider = provider
		}
		if urlEnv, _ := cmd.Flags().GetString("url-env"); urlEnv != "" {
			cfg.Seed.URLEnv = urlEnv
		}
		if batch, _ := cmd.Flags().GetInt("batch"); batch > 0 {
			cfg.Seed.BatchSize = batch
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		sf, err := generator.ReadSchemaFile(schemaPath)
		if err != nil {
			return err
		}
		if err := service.ValidateFields(sf.Fields); err != nil {
			return err
		}
		if count <= 0 {
			return fmt.Errorf("count must be positive")
		}

		dbURL, err := cfg.GetSeedURL()
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		db, err := sink.Open(ctx, cfg.Seed.Provider, dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if create {
			if err := db.CreateTable(ctx, table, sf.Fields); err != nil {
				return err
			}
			color.Cyan("📋 Table %s ready", table)
		}

		start := time.Now()
		records, err := generator.NewDefault().GenerateParallel(ctx, sf.Fields, count, cfg.Generator.Workers)
		if err != nil {
			return fmt.Errorf("failed to generate records: %w", err)
		}

		bar := progressbar.NewOptions(len(records),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(fmt.Sprintf("🌱 Seeding %s", table)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		)

		err = db.Insert(ctx, table, sf.Fields, records, cfg.Seed.BatchSize, func(done int) {
			bar.Set(done)
		})
		if err != nil {
			return err
		}
		bar.Finish()

		total, err := db.Count(ctx, table)
		if err != nil {
			return err
		}

		color.Green("✅ Inserted %s rows into %s (%s) in %s",
			humanize.Comma(int64(len(records))), table, db.Provider(),
			time.Since(start).Round(time.Millisecond))
		fmt.Printf("📊 Table now holds %s rows\n", humanize.Comma(total))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringP("schema", "s", "", "Schema file (.json, .yaml or .yml)")
	seedCmd.Flags().StringP("table", "t", "", "Target table name")
	seedCmd.Flags().IntP("count", "n", 1000, "Number of rows to insert")
	seedCmd.Flags().String("provider", "", "Database provider: postgresql, mysql or sqlite (overrides seed.provider)")
	seedCmd.Flags().String("url-env", "", "Environment variable holding the database URL (overrides seed.url_env)")
	seedCmd.Flags().Bool("create", false, "Create the table if it does not exist")
	seedCmd.Flags().Int("batch", 0, "Rows per INSERT statement (overrides seed.batch_size)")
	seedCmd.MarkFlagRequired("schema")
	seedCmd.MarkFlagRequired("table")
}
