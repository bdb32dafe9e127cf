// Package reporter renders payout group reports for display or export.
//
// Supported output formats:
//   - Console: summary block plus aligned table per payout
//   - JSON: structured document for programmatic consumption
//   - CSV: flat rows in the canonical column order for spreadsheets
//
// The reporter is the presentation collaborator of the aggregation core: the
// aggregator returns report values, this package owns all printing.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"payout-reporting-service/internal/aggregator"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:       FormatConsole,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders payout reports in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified
// configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the payout reports to the writer in the configured
// format
func (rg *ReportGenerator) GenerateReport(reports []*aggregator.PayoutReport, writer io.Writer) error {
	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(reports, writer)
	case FormatJSON:
		return rg.generateJSONReport(reports, writer)
	case FormatCSV:
		return rg.generateCSVReport(reports, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport renders each payout as its summary block followed by
// the aggregated table
func (rg *ReportGenerator) generateConsoleReport(reports []*aggregator.PayoutReport, writer io.Writer) error {
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(writer)
		}

		fmt.Fprintln(writer, strings.Repeat("=", 72))
		fmt.Fprint(writer, report.Summary.Text)
		fmt.Fprintln(writer, strings.Repeat("-", 72))

		fmt.Fprintf(writer, "%-14s %-11s %-28s %10s %8s %10s\n",
			"Schedule", "Section", "Payment", "Gross", "Fees", "Net")
		for _, row := range report.Rows {
			fmt.Fprintf(writer, "%-14s %-11s %-28s %10s %8s %10s\n",
				row.Schedule,
				row.Section,
				truncate(row.PaymentName, 28),
				row.GrossAmount.StringFixed(2),
				row.TotalFees.StringFixed(2),
				row.NetAmount.StringFixed(2))
		}
	}

	return nil
}

// generateJSONReport renders the full report sequence as one JSON document
func (rg *ReportGenerator) generateJSONReport(reports []*aggregator.PayoutReport, writer io.Writer) error {
	document := struct {
		PayoutCount int                        `json:"payout_count"`
		Payouts     []*aggregator.PayoutReport `json:"payouts"`
	}{
		PayoutCount: len(reports),
		Payouts:     reports,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(document)
}

// generateCSVReport flattens every payout's rows into one CSV table
func (rg *ReportGenerator) generateCSVReport(reports []*aggregator.PayoutReport, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		header := []string{
			"payout_id", "arrival_date",
			"schedule", "section", "payment_name",
			"gross_amount", "total_fees", "net_amount",
		}
		if err := csvWriter.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, report := range reports {
		for _, row := range report.Rows {
			record := []string{
				fmt.Sprintf("%d", report.Summary.ID),
				report.ArrivalDate.Format("2006-01-02"),
				row.Schedule.String(),
				row.Section.String(),
				row.PaymentName,
				row.GrossAmount.StringFixed(2),
				row.TotalFees.StringFixed(2),
				row.NetAmount.StringFixed(2),
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	return csvWriter.Error()
}

// truncate shortens a value for fixed-width console display
func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}
