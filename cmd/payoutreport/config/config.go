// Package config assembles component configurations for the CLI.
package config

import (
	"payout-reporting-service/internal/aggregator"
	"payout-reporting-service/internal/normalizer"
	"payout-reporting-service/internal/parsers"
	"payout-reporting-service/internal/reporter"
)

// CreatePayoutParserConfig creates the payout export parser configuration
func CreatePayoutParserConfig() *parsers.PayoutParserConfig {
	config := parsers.DefaultPayoutParserConfig()

	// Extra aliases seen in hand-edited exports
	config.ColumnAliases["Description"] = "resources.description"
	config.ColumnAliases["Gross Amount"] = "gross_amount"
	config.ColumnAliases["Net Amount"] = "net_amount"
	config.ColumnAliases["Arrival Date"] = "payouts.arrival_date"
	config.ColumnAliases["Member"] = "payments.metadata.Member"
	config.ColumnAliases["References"] = "payments.metadata.References"

	return config
}

// CreateNormalizerConfig creates a normalizer configuration from CLI flags
func CreateNormalizerConfig(strict bool) *normalizer.Config {
	config := normalizer.DefaultConfig()
	config.Strict = strict
	return config
}

// CreateAggregatorConfig creates an aggregator configuration from CLI flags
func CreateAggregatorConfig(showUnclassified bool) *aggregator.Config {
	config := aggregator.DefaultConfig()
	config.ShowUnclassified = showUnclassified
	return config
}

// CreateReportConfig creates a reporter configuration for the chosen format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(format)
	return config
}
