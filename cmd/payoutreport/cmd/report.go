package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"payout-reporting-service/cmd/payoutreport/config"
	"payout-reporting-service/internal/aggregator"
	"payout-reporting-service/internal/models"
	"payout-reporting-service/internal/normalizer"
	"payout-reporting-service/internal/parsers"
	"payout-reporting-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the report command
var (
	inputDir         string
	inputFiles       []string
	outputFormat     string
	outputFile       string
	strict           bool
	showUnclassified bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build per-payout reconciliation reports from export files",
	Long: `Report reads payout transactions exports, reconstructs the accounting
categories hidden in the description and metadata strings, and prints one
aggregated report per payout arrival date.

Input is either a directory (every .csv file in it is read, in filename
order) or an explicit list of export files.

Examples:
  # All exports in a directory
  payoutreport report --input-dir inputs/

  # Specific files, JSON output to a file
  payoutreport report --input-files jan.csv,feb.csv \
    --output-format json --output-file reports.json

  # Fail the batch on unclassified rows or malformed references
  payoutreport report --input-dir inputs/ --strict

  # Surface the unclassified row count in each payout summary
  payoutreport report --input-dir inputs/ --show-unclassified`,

	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&inputDir, "input-dir", "i", "", "directory containing payout export .csv files")
	reportCmd.Flags().StringSliceVar(&inputFiles, "input-files", []string{}, "comma-separated paths to payout export CSV files")

	reportCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reportCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	reportCmd.Flags().BoolVar(&strict, "strict", false, "fail on unclassified rows or malformed references")
	reportCmd.Flags().BoolVar(&showUnclassified, "show-unclassified", false, "include unclassified row counts in payout summaries")

	viper.BindPFlag("input-dir", reportCmd.Flags().Lookup("input-dir"))
	viper.BindPFlag("input-files", reportCmd.Flags().Lookup("input-files"))
	viper.BindPFlag("output-format", reportCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reportCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("strict", reportCmd.Flags().Lookup("strict"))
	viper.BindPFlag("show-unclassified", reportCmd.Flags().Lookup("show-unclassified"))
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	// Viper values allow config-file and env overrides
	inputDir = viper.GetString("input-dir")
	inputFiles = viper.GetStringSlice("input-files")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	strict = viper.GetBool("strict")
	showUnclassified = viper.GetBool("show-unclassified")

	if inputDir == "" && len(inputFiles) == 0 {
		return fmt.Errorf("either input-dir or input-files is required")
	}
	if inputDir != "" && len(inputFiles) > 0 {
		return fmt.Errorf("input-dir and input-files are mutually exclusive")
	}

	if inputDir != "" {
		info, err := os.Stat(inputDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("input directory does not exist: %s", inputDir)
		}
		if err != nil {
			return fmt.Errorf("error accessing input directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("input-dir is not a directory: %s", inputDir)
		}
	}

	for i, file := range inputFiles {
		if err := validateFileExists(file, fmt.Sprintf("input file %d", i+1)); err != nil {
			return err
		}
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	errorHandler := NewCLIErrorHandler()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Building payout reports...\n")
		if inputDir != "" {
			fmt.Fprintf(os.Stderr, "Input directory: %s\n", inputDir)
		} else {
			fmt.Fprintf(os.Stderr, "Input files: %s\n", strings.Join(inputFiles, ", "))
		}
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
	}

	parser, err := parsers.NewPayoutExportParser(config.CreatePayoutParserConfig())
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	raw, stats, err := loadRawTransactions(ctx, parser)
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	if viper.GetBool("verbose") && stats != nil {
		fmt.Fprintf(os.Stderr, "Parsed %d of %d records (%d row errors)\n",
			stats.RecordsValid, stats.RecordsParsed, len(stats.Errors))
	}

	normalized, err := normalizer.NewNormalizer(config.CreateNormalizerConfig(strict)).Normalize(raw)
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	reports, err := aggregator.NewAggregator(config.CreateAggregatorConfig(showUnclassified)).
		Aggregate(normalized.Records, normalized.Unclassified)
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	if err := writeReports(reports); err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	return nil
}

// loadRawTransactions reads the export rows from the configured source
func loadRawTransactions(ctx context.Context, parser *parsers.PayoutExportParser) ([]models.RawTransaction, *parsers.ParseStats, error) {
	if inputDir != "" {
		return parser.ParseDirectory(ctx, inputDir)
	}

	var rows []models.RawTransaction
	stats := parsers.NewParseStats()
	for _, file := range inputFiles {
		fileRows, fileStats, err := parser.ParseFileWithContext(ctx, file)
		if err != nil {
			return nil, stats, err
		}
		rows = append(rows, fileRows...)
		stats.Merge(fileStats)
	}
	return rows, stats, nil
}

// writeReports renders the reports to stdout or the configured output file
func writeReports(reports []*aggregator.PayoutReport) error {
	generator, err := reporter.NewReportGenerator(config.CreateReportConfig(outputFormat))
	if err != nil {
		return err
	}

	var writer io.Writer = os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	return generator.GenerateReport(reports, writer)
}
