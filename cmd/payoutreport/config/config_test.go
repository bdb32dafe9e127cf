package config

import (
	"testing"

	"payout-reporting-service/internal/reporter"
)

func TestCreatePayoutParserConfig(t *testing.T) {
	config := CreatePayoutParserConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("parser config should validate, got %v", err)
	}
	if config.DescriptionColumn != "resources.description" {
		t.Errorf("description column = %q", config.DescriptionColumn)
	}
	if got := config.ColumnAliases["Gross Amount"]; got != "gross_amount" {
		t.Errorf("alias for 'Gross Amount' = %q, want gross_amount", got)
	}
}

func TestCreateNormalizerConfig(t *testing.T) {
	if config := CreateNormalizerConfig(true); !config.Strict {
		t.Error("strict flag not carried into normalizer config")
	}
	if config := CreateNormalizerConfig(false); config.Strict {
		t.Error("strict should default to false")
	}
}

func TestCreateAggregatorConfig(t *testing.T) {
	if config := CreateAggregatorConfig(true); !config.ShowUnclassified {
		t.Error("show-unclassified flag not carried into aggregator config")
	}
}

func TestCreateReportConfig(t *testing.T) {
	config := CreateReportConfig("json")
	if config.Format != reporter.FormatJSON {
		t.Errorf("format = %q, want json", config.Format)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("json config should validate, got %v", err)
	}

	if err := CreateReportConfig("xml").Validate(); err == nil {
		t.Error("Validate() expected error for unsupported format")
	}
}
