// Package aggregator turns normalized transactions into per-payout reports.
//
// Records are partitioned by payout arrival date in first-seen input order.
// Within one payout, Subscriptions are subtotalled per (section, schedule)
// and Activities per (section, schedule, payment name), then both blocks are
// ordered by schedule rank (Activities first), section rank (Squirrels,
// Beavers, Cubs, Scouts, then unknown sections) and payment name.
//
// Aggregation is a pure batch transform: the summary text is returned on the
// report, never printed, so presentation stays with the caller.
package aggregator

import (
	"sort"
	"time"

	"payout-reporting-service/internal/models"
	"payout-reporting-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Config holds configuration options for the aggregator
type Config struct {
	// ShowUnclassified adds a count of unclassified rows to each payout
	// summary block.
	ShowUnclassified bool `json:"show_unclassified"`
}

// DefaultConfig returns the default aggregator configuration
func DefaultConfig() *Config {
	return &Config{
		ShowUnclassified: false,
	}
}

// AggregateKey is the compound key of one aggregated report row. Uniqueness
// within a report is expected by construction but not enforced.
type AggregateKey struct {
	Schedule    models.Schedule
	Section     models.Section
	PaymentName string
}

// AggregateRow is one subtotal line of a payout report.
type AggregateRow struct {
	Schedule    models.Schedule `json:"schedule"`
	Section     models.Section  `json:"section"`
	PaymentName string          `json:"payment_name"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	TotalFees   decimal.Decimal `json:"total_fees"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

// Key returns the compound key of the row
func (r *AggregateRow) Key() AggregateKey {
	return AggregateKey{
		Schedule:    r.Schedule,
		Section:     r.Section,
		PaymentName: r.PaymentName,
	}
}

// PayoutReport is the aggregated view of one payout settlement event.
type PayoutReport struct {
	ArrivalDate time.Time      `json:"arrival_date"`
	Summary     Summary        `json:"summary"`
	Rows        []AggregateRow `json:"rows"`
}

// RowsByKey indexes the report rows by their compound key. Duplicate keys
// map to multiple rows.
func (pr *PayoutReport) RowsByKey() map[AggregateKey][]AggregateRow {
	index := make(map[AggregateKey][]AggregateRow, len(pr.Rows))
	for _, row := range pr.Rows {
		index[row.Key()] = append(index[row.Key()], row)
	}
	return index
}

// Aggregator produces payout group reports from normalized transactions.
type Aggregator struct {
	config *Config
	logger logger.Logger
}

// NewAggregator creates a new Aggregator with the given configuration
func NewAggregator(config *Config) *Aggregator {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("aggregator")
	log.WithField("show_unclassified", config.ShowUnclassified).Debug("Created aggregator")

	return &Aggregator{
		config: config,
		logger: log,
	}
}

// Aggregate produces one PayoutReport per distinct arrival date, in
// first-seen order of the input records. Unclassified raw rows are only
// consulted for the per-payout unclassified count in the summary.
func (a *Aggregator) Aggregate(records []models.NormalizedTransaction, unclassified []models.RawTransaction) ([]*PayoutReport, error) {
	a.logger.WithField("record_count", len(records)).Info("Starting aggregation")

	var dates []time.Time
	partitions := make(map[string][]models.NormalizedTransaction)
	for _, record := range records {
		key := dateKey(record.ArrivalDate)
		if _, seen := partitions[key]; !seen {
			dates = append(dates, dayOf(record.ArrivalDate))
		}
		partitions[key] = append(partitions[key], record)
	}

	reports := make([]*PayoutReport, 0, len(dates))
	for idx, date := range dates {
		partition := partitions[dateKey(date)]
		report := a.buildReport(idx, date, partition, countUnclassified(unclassified, date))
		reports = append(reports, report)

		a.logger.WithFields(logger.Fields{
			"arrival_date": date.Format("2006-01-02"),
			"payments":     len(partition),
			"rows":         len(report.Rows),
		}).Debug("Built payout report")
	}

	a.logger.WithField("report_count", len(reports)).Info("Aggregation complete")
	return reports, nil
}

// buildReport aggregates one arrival-date partition.
func (a *Aggregator) buildReport(idx int, date time.Time, partition []models.NormalizedTransaction, unclassifiedCount int) *PayoutReport {
	groups := make(map[AggregateKey]*AggregateRow)
	var order []AggregateKey

	for _, record := range partition {
		key := AggregateKey{
			Schedule: record.Schedule,
			Section:  record.Section,
		}
		// Subscriptions subtotal per (section, schedule); Activities keep
		// the payment name as part of the grouping key.
		if record.Schedule == models.ScheduleActivities {
			key.PaymentName = record.PaymentName
		}

		row, ok := groups[key]
		if !ok {
			row = &AggregateRow{
				Schedule:    key.Schedule,
				Section:     key.Section,
				PaymentName: key.PaymentName,
			}
			groups[key] = row
			order = append(order, key)
		}
		row.GrossAmount = row.GrossAmount.Add(record.GrossAmount)
		row.TotalFees = row.TotalFees.Add(record.TotalFees)
		row.NetAmount = row.NetAmount.Add(record.NetAmount)
	}

	rows := make([]AggregateRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, *groups[key])
	}
	sortRows(rows)

	return &PayoutReport{
		ArrivalDate: date,
		Summary:     buildSummary(idx, date, partition, unclassifiedCount, a.config.ShowUnclassified),
		Rows:        rows,
	}
}

// sortRows applies the fixed presentation order: Activities before
// Subscriptions by schedule rank, then section rank ascending with unknown
// sections last, then payment name alphabetically.
func sortRows(rows []AggregateRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Schedule.Rank() != rows[j].Schedule.Rank() {
			return rows[i].Schedule.Rank() < rows[j].Schedule.Rank()
		}
		if rows[i].Section.Rank() != rows[j].Section.Rank() {
			return rows[i].Section.Rank() < rows[j].Section.Rank()
		}
		if rows[i].PaymentName != rows[j].PaymentName {
			return rows[i].PaymentName < rows[j].PaymentName
		}
		// Distinct unknown sections share a rank; order them by name so
		// repeated runs emit identical reports.
		return rows[i].Section < rows[j].Section
	})
}

// dateKey normalises an arrival date to its calendar day for partitioning.
func dateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

// dayOf truncates an arrival timestamp to its calendar day, so the report
// date matches the partition it describes even when an export carries
// intra-day timestamps.
func dayOf(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// countUnclassified counts unclassified raw rows arriving on the given date.
func countUnclassified(unclassified []models.RawTransaction, date time.Time) int {
	count := 0
	for _, row := range unclassified {
		if dateKey(row.ArrivalDate) == dateKey(date) {
			count++
		}
	}
	return count
}
