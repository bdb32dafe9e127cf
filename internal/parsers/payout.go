package parsers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"payout-reporting-service/internal/models"
	"payout-reporting-service/pkg/errors"
	"payout-reporting-service/pkg/logger"
)

// PayoutParserConfig holds configuration for parsing payout transactions
// export CSV files. Column defaults follow the provider's export headers.
type PayoutParserConfig struct {
	DescriptionColumn  string            `json:"description_column"`
	GrossAmountColumn  string            `json:"gross_amount_column"`
	ProviderFeesColumn string            `json:"provider_fees_column"`
	AppFeesColumn      string            `json:"app_fees_column"`
	NetAmountColumn    string            `json:"net_amount_column"`
	ArrivalDateColumn  string            `json:"arrival_date_column"`
	MemberColumn       string            `json:"member_column"`
	ReferencesColumn   string            `json:"references_column"`
	HasHeader          bool              `json:"has_header"`
	Delimiter          rune              `json:"delimiter"`
	ColumnAliases      map[string]string `json:"column_aliases,omitempty"`
}

// DefaultPayoutParserConfig returns a configuration matching the GoCardless
// payout transactions export layout.
func DefaultPayoutParserConfig() *PayoutParserConfig {
	return &PayoutParserConfig{
		DescriptionColumn:  "resources.description",
		GrossAmountColumn:  "gross_amount",
		ProviderFeesColumn: "gocardless_fees",
		AppFeesColumn:      "app_fees",
		NetAmountColumn:    "net_amount",
		ArrivalDateColumn:  "payouts.arrival_date",
		MemberColumn:       "payments.metadata.Member",
		ReferencesColumn:   "payments.metadata.References",
		HasHeader:          true,
		Delimiter:          ',',
		ColumnAliases: map[string]string{
			"description":  "resources.description",
			"gross":        "gross_amount",
			"fees":         "gocardless_fees",
			"arrival_date": "payouts.arrival_date",
			"member":       "payments.metadata.Member",
			"references":   "payments.metadata.References",
		},
	}
}

// Validate checks if the payout parser configuration is valid
func (c *PayoutParserConfig) Validate() error {
	columns := map[string]string{
		"description column":   c.DescriptionColumn,
		"gross amount column":  c.GrossAmountColumn,
		"provider fees column": c.ProviderFeesColumn,
		"app fees column":      c.AppFeesColumn,
		"net amount column":    c.NetAmountColumn,
		"arrival date column":  c.ArrivalDateColumn,
		"member column":        c.MemberColumn,
		"references column":    c.ReferencesColumn,
	}
	for name, value := range columns {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}
	return nil
}

// PayoutExportParser parses payout transactions export CSV files.
type PayoutExportParser struct {
	*BaseParser
	config *PayoutParserConfig
	logger logger.Logger
}

// NewPayoutExportParser creates a new PayoutExportParser with the given
// configuration.
func NewPayoutExportParser(config *PayoutParserConfig) (*PayoutExportParser, error) {
	if config == nil {
		config = DefaultPayoutParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"payout_parser_config",
			config,
			err,
		)
	}

	parseConfig := &ParseConfig{
		HasHeader:        config.HasHeader,
		Delimiter:        config.Delimiter,
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}

	log := logger.GetGlobalLogger().WithComponent("payout_parser")
	log.WithFields(logger.Fields{
		"has_header": config.HasHeader,
		"delimiter":  string(config.Delimiter),
	}).Debug("Created payout export parser")

	return &PayoutExportParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     log,
	}, nil
}

// ParseFile parses a single payout transactions export CSV file
func (pp *PayoutExportParser) ParseFile(filePath string) ([]models.RawTransaction, *ParseStats, error) {
	return pp.ParseFileWithContext(context.Background(), filePath)
}

// ParseFileWithContext parses one export file with cancellation support.
// Rows that fail to parse are recorded on the stats and skipped; only file
// and header level problems fail the call.
func (pp *PayoutExportParser) ParseFileWithContext(ctx context.Context, filePath string) ([]models.RawTransaction, *ParseStats, error) {
	pp.logger.WithField("file_path", filePath).Info("Parsing payout export")

	file, reader, err := pp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	if err := pp.ReadHeaders(reader, parseCtx, pp.requiredHeaders(), pp.config.ColumnAliases); err != nil {
		pp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to read or validate headers")
		return nil, stats, err
	}

	var rows []models.RawTransaction
	for {
		record, err := pp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if errors.IsCategory(err, errors.CategoryInternal) {
				return rows, stats, err
			}
			stats.AddError(&ParseError{Line: parseCtx.LineNumber, Message: "unreadable record", Err: err})
			continue
		}

		stats.RecordsParsed++

		row, parseErr := pp.parseRow(record, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		rows = append(rows, row)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	pp.logger.WithFields(logger.Fields{
		"file_path":      filePath,
		"total_lines":    stats.TotalLines,
		"records_parsed": stats.RecordsParsed,
		"records_valid":  stats.RecordsValid,
		"error_count":    len(stats.Errors),
	}).Info("Payout export parsing completed")

	return rows, stats, nil
}

// ParseDirectory reads every .csv file in the directory, in filename order,
// and concatenates the rows into a single table.
func (pp *PayoutExportParser) ParseDirectory(ctx context.Context, dir string) ([]models.RawTransaction, *ParseStats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeDirectoryError, dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, nil, errors.FileError(errors.CodeFileNotFound, dir, nil).
			WithSuggestion("place at least one payout transactions export .csv in the input directory")
	}

	pp.logger.WithFields(logger.Fields{
		"directory":  dir,
		"file_count": len(files),
	}).Info("Parsing payout export directory")

	var rows []models.RawTransaction
	stats := NewParseStats()
	for _, file := range files {
		fileRows, fileStats, err := pp.ParseFileWithContext(ctx, file)
		if err != nil {
			return nil, stats, err
		}
		rows = append(rows, fileRows...)
		stats.Merge(fileStats)
	}

	return rows, stats, nil
}

// requiredHeaders returns the list of required header names
func (pp *PayoutExportParser) requiredHeaders() []string {
	return []string{
		pp.config.DescriptionColumn,
		pp.config.GrossAmountColumn,
		pp.config.ProviderFeesColumn,
		pp.config.AppFeesColumn,
		pp.config.NetAmountColumn,
		pp.config.ArrivalDateColumn,
		pp.config.MemberColumn,
		pp.config.ReferencesColumn,
	}
}

// columnName resolves a configured column through the alias table
func (pp *PayoutExportParser) columnName(parseCtx *ParseContext, configured string) string {
	if parseCtx.GetColumnIndex(configured) != -1 {
		return configured
	}
	for alias, target := range pp.config.ColumnAliases {
		if target == configured && parseCtx.GetColumnIndex(alias) != -1 {
			return alias
		}
	}
	return configured
}

// parseRow creates a RawTransaction from one CSV record
func (pp *PayoutExportParser) parseRow(record []string, parseCtx *ParseContext) (models.RawTransaction, *ParseError) {
	fieldValue := func(configured string) (string, *ParseError) {
		value, err := pp.GetFieldValue(record, parseCtx, pp.columnName(parseCtx, configured))
		if err != nil {
			return "", &ParseError{
				Line:    parseCtx.LineNumber,
				Field:   configured,
				Message: "missing field",
				Err:     err,
			}
		}
		return value, nil
	}

	description, perr := fieldValue(pp.config.DescriptionColumn)
	if perr != nil {
		return models.RawTransaction{}, perr
	}
	member, perr := fieldValue(pp.config.MemberColumn)
	if perr != nil {
		return models.RawTransaction{}, perr
	}
	references, perr := fieldValue(pp.config.ReferencesColumn)
	if perr != nil {
		return models.RawTransaction{}, perr
	}

	amounts := make(map[string]string, 4)
	for _, column := range []string{
		pp.config.GrossAmountColumn,
		pp.config.ProviderFeesColumn,
		pp.config.AppFeesColumn,
		pp.config.NetAmountColumn,
	} {
		value, perr := fieldValue(column)
		if perr != nil {
			return models.RawTransaction{}, perr
		}
		amounts[column] = value
	}

	row := models.RawTransaction{
		Description: description,
		Member:      member,
		References:  references,
	}

	var err error
	if row.GrossAmount, err = models.ParseDecimalFromString(amounts[pp.config.GrossAmountColumn]); err != nil {
		return models.RawTransaction{}, pp.amountError(parseCtx, pp.config.GrossAmountColumn, amounts[pp.config.GrossAmountColumn], err)
	}
	if row.ProviderFees, err = models.ParseDecimalFromString(amounts[pp.config.ProviderFeesColumn]); err != nil {
		return models.RawTransaction{}, pp.amountError(parseCtx, pp.config.ProviderFeesColumn, amounts[pp.config.ProviderFeesColumn], err)
	}
	if row.AppFees, err = models.ParseDecimalFromString(amounts[pp.config.AppFeesColumn]); err != nil {
		return models.RawTransaction{}, pp.amountError(parseCtx, pp.config.AppFeesColumn, amounts[pp.config.AppFeesColumn], err)
	}
	if row.NetAmount, err = models.ParseDecimalFromString(amounts[pp.config.NetAmountColumn]); err != nil {
		return models.RawTransaction{}, pp.amountError(parseCtx, pp.config.NetAmountColumn, amounts[pp.config.NetAmountColumn], err)
	}

	dateStr, perr := fieldValue(pp.config.ArrivalDateColumn)
	if perr != nil {
		return models.RawTransaction{}, perr
	}
	if row.ArrivalDate, err = models.ParseDateWithFormats(dateStr); err != nil {
		return models.RawTransaction{}, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   pp.config.ArrivalDateColumn,
			Value:   dateStr,
			Message: "invalid arrival date",
			Err:     errors.ValidationError(errors.CodeInvalidDate, pp.config.ArrivalDateColumn, dateStr, err),
		}
	}

	if err := row.Validate(); err != nil {
		return models.RawTransaction{}, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   "record",
			Message: "record validation failed",
			Err:     errors.ValidationError(errors.CodeInvalidData, "record", description, err),
		}
	}

	return row, nil
}

// amountError builds the row-level error for an unparseable amount field
func (pp *PayoutExportParser) amountError(parseCtx *ParseContext, field, value string, err error) *ParseError {
	pp.logger.WithError(err).WithFields(logger.Fields{
		"line_number": parseCtx.LineNumber,
		"field":       field,
		"value":       value,
	}).Warn("Invalid amount value")

	return &ParseError{
		Line:    parseCtx.LineNumber,
		Field:   field,
		Value:   value,
		Message: "invalid amount",
		Err:     errors.ValidationError(errors.CodeInvalidAmount, field, value, err),
	}
}
