// Package normalizer orchestrates field extraction across the full row set.
//
// The normalizer classifies every raw export row by payment schedule, runs
// the schedule-specific field extractor over each partition, splits the
// reference metadata, derives the total fee amount and emits normalized
// records in the canonical column layout. Rows matching no known schedule
// are collected on an explicit reporting path rather than silently dropped;
// strict mode turns them, and malformed references, into batch failures.
package normalizer

import (
	"payout-reporting-service/internal/extract"
	"payout-reporting-service/internal/models"
	"payout-reporting-service/pkg/errors"
	"payout-reporting-service/pkg/logger"
)

// Config holds configuration options for the normalizer
type Config struct {
	// Strict fails the batch on unclassified rows or malformed references
	// instead of degrading to empty fields.
	Strict bool `json:"strict"`
}

// DefaultConfig returns the default normalizer configuration. The default
// policy is permissive: partial accounting data is more useful than none.
func DefaultConfig() *Config {
	return &Config{
		Strict: false,
	}
}

// Result holds the normalized records plus the degradation counters that the
// permissive policy accumulates instead of failing.
type Result struct {
	Records       []models.NormalizedTransaction
	Unclassified  []models.RawTransaction
	MalformedRefs int
	MissingYears  int
}

// Normalizer converts raw export rows into normalized transactions.
type Normalizer struct {
	config *Config
	logger logger.Logger
}

// NewNormalizer creates a new Normalizer with the given configuration
func NewNormalizer(config *Config) *Normalizer {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("normalizer")
	log.WithField("strict", config.Strict).Debug("Created normalizer")

	return &Normalizer{
		config: config,
		logger: log,
	}
}

// Normalize classifies, extracts and derives fields for every raw row.
//
// Rows are partitioned by schedule, each partition is run through the
// schedule-specific extractor, and the partitions are concatenated back in
// schedule order. Reference codes that do not split cleanly leave the row
// with empty sub-codes; in strict mode they fail the batch instead.
func (n *Normalizer) Normalize(raw []models.RawTransaction) (*Result, error) {
	n.logger.WithField("row_count", len(raw)).Info("Starting normalization")

	partitions := make(map[models.Schedule][]models.RawTransaction)
	result := &Result{}

	for _, row := range raw {
		schedule := models.ClassifySchedule(row.Description)
		if !schedule.IsValid() {
			if n.config.Strict {
				return nil, errors.NormalizationError(
					errors.CodeUnclassifiedRow,
					row.Description,
					nil,
				)
			}
			n.logger.WithField("description", row.Description).
				Warn("Row matches no known payment schedule, excluding from reports")
			result.Unclassified = append(result.Unclassified, row)
			continue
		}
		partitions[schedule] = append(partitions[schedule], row)
	}

	for _, schedule := range models.KnownSchedules {
		for _, row := range partitions[schedule] {
			record, err := n.normalizeRow(row, schedule, result)
			if err != nil {
				return nil, err
			}
			result.Records = append(result.Records, record)
		}
	}

	n.logger.WithFields(logger.Fields{
		"records":        len(result.Records),
		"unclassified":   len(result.Unclassified),
		"malformed_refs": result.MalformedRefs,
		"missing_years":  result.MissingYears,
	}).Info("Normalization complete")

	return result, nil
}

// normalizeRow builds one normalized record from a classified raw row.
func (n *Normalizer) normalizeRow(row models.RawTransaction, schedule models.Schedule, result *Result) (models.NormalizedTransaction, error) {
	fields := extract.ExtractFields(row.Description, schedule)
	if fields.Year == 0 {
		result.MissingYears++
	}

	codes, err := extract.SplitReference(row.References)
	if err != nil {
		if n.config.Strict {
			return models.NormalizedTransaction{}, err
		}
		n.logger.WithField("references", row.References).
			Warn("Malformed reference code, accepting row with empty sub-codes")
		result.MalformedRefs++
	}

	return models.NormalizedTransaction{
		Section:      fields.Section,
		Schedule:     schedule,
		Year:         fields.Year,
		PaymentName:  fields.PaymentName,
		GrossAmount:  row.GrossAmount,
		TotalFees:    row.ProviderFees.Add(row.AppFees),
		NetAmount:    row.NetAmount,
		Member:       extract.CleanMemberName(row.Member),
		ArrivalDate:  row.ArrivalDate,
		SectionCode:  codes.SectionCode,
		ScheduleCode: codes.ScheduleCode,
		PaymentCode:  codes.PaymentCode,
	}, nil
}
