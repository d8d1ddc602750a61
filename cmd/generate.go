package cmd

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/export"
	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/service"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generate a dataset from a schema file",
	Long: `
Generate records locally from a JSON or YAML schema file.

Without --out the records are written to stdout. With --out they are written
to <out>/<name>_<timestamp>.<ext>; the sqlite format always needs --out.

Examples:
  datagen generate --schema users.json
  datagen generate --schema users.yaml --count 10000 --format csv --out exports
  datagen generate --schema users.json --seed 42 --workers 8`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		schemaPath, _ := cmd.Flags().GetString("schema")
		count, _ := cmd.Flags().GetInt("count")
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		workers, _ := cmd.Flags().GetInt("workers")
		indent, _ := cmd.Flags().GetBool("pretty")

		sf, err := generator.ReadSchemaFile(schemaPath)
		if err != nil {
			return err
		}
		if err := service.ValidateFields(sf.Fields); err != nil {
			return err
		}
		if count < 0 {
			return fmt.Errorf("count cannot be negative")
		}
		if format == export.FormatSQLite && out == "" {
			return fmt.Errorf("the sqlite format requires --out")
		}
		if !cmd.Flags().Changed("workers") {
			workers = cfg.Generator.Workers
		}

		gen := generator.NewDefault()
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetInt64("seed")
			gen = generator.NewSeeded(seed)
			// Seeded output depends on the worker count; pin it so runs match
			// across machines.
			if !cmd.Flags().Changed("workers") {
				workers = 1
			}
		}

		ctx := cmd.Context()

		start := time.Now()
		records, err := gen.GenerateParallel(ctx, sf.Fields, count, workers)
		if err != nil {
			return fmt.Errorf("failed to generate records: %w", err)
		}

		if out == "" {
			return writeStdout(format, records, indent)
		}

		path, err := export.ToFile(ctx, out, sf.Name, format, sf.Fields, records)
		if err != nil {
			return err
		}

		color.Green("✅ Generated %s records in %s", humanize.Comma(int64(len(records))), time.Since(start).Round(time.Millisecond))
		if info, err := os.Stat(path); err == nil {
			fmt.Printf("📁 %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
		} else {
			fmt.Printf("📁 %s\n", path)
		}
		return nil
	},
}

func writeStdout(format string, records []generator.Record, indent bool) error {
	w := bufio.NewWriter(os.Stdout)
	var err error
	switch format {
	case export.FormatJSON, "":
		err = export.WriteJSON(w, records, indent)
		if err == nil && !indent {
			err = w.WriteByte('\n')
		}
	case export.FormatCSV:
		err = export.WriteCSV(w, records)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("schema", "s", "", "Schema file (.json, .yaml or .yml)")
	generateCmd.Flags().IntP("count", "n", 100, "Number of records to generate")
	generateCmd.Flags().StringP("format", "f", export.FormatJSON, "Output format: json, csv or sqlite")
	generateCmd.Flags().StringP("out", "o", "", "Output directory (default stdout)")
	generateCmd.Flags().Int64("seed", 0, "Seed for reproducible output")
	generateCmd.Flags().IntP("workers", "w", 0, "Parallel workers (default generator.workers)")
	generateCmd.Flags().Bool("pretty", false, "Indent JSON written to stdout")
	generateCmd.MarkFlagRequired("schema")
}
