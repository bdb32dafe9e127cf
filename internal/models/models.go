// Package models defines the record types flowing through the payout
// reporting pipeline.
//
// The pipeline works on two record shapes:
//   - RawTransaction: one row of a payout transactions export, read as-is
//   - NormalizedTransaction: the cleaned record with categorical fields
//     reconstructed from the description and metadata strings
//
// Monetary values use shopspring/decimal throughout so that fee and gross
// sums reconcile exactly.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Schedule represents the payment schedule type a transaction belongs to.
type Schedule string

const (
	// ScheduleActivities covers one-off event payments
	ScheduleActivities Schedule = "Activities"
	// ScheduleSubscriptions covers recurring membership payments
	ScheduleSubscriptions Schedule = "Subscriptions"
	// ScheduleUnclassified marks rows whose description matched no known schedule
	ScheduleUnclassified Schedule = "Unclassified"
)

// KnownSchedules lists the recognised schedule types in classification order.
var KnownSchedules = []Schedule{ScheduleSubscriptions, ScheduleActivities}

// String returns the string representation of Schedule
func (s Schedule) String() string {
	return string(s)
}

// IsValid checks if the schedule is a recognised type
func (s Schedule) IsValid() bool {
	return s == ScheduleActivities || s == ScheduleSubscriptions
}

// Rank returns the presentation rank of the schedule. Activities precede
// Subscriptions in report output.
func (s Schedule) Rank() int {
	switch s {
	case ScheduleActivities:
		return 0
	case ScheduleSubscriptions:
		return 1
	default:
		return 2
	}
}

// ClassifySchedule determines the schedule type of a raw description by
// matching the schedule keyword. Rows matching no keyword are explicitly
// tagged ScheduleUnclassified rather than dropped, so callers can route them
// to a reporting path.
func ClassifySchedule(description string) Schedule {
	for _, schedule := range KnownSchedules {
		if strings.Contains(description, schedule.String()) {
			return schedule
		}
	}
	return ScheduleUnclassified
}

// Section represents an organisational sub-group a transaction is attributed
// to. The value is preserved as extracted from the description; rank lookups
// treat anything outside the four known tiers as an unknown bucket that sorts
// after them.
type Section string

const (
	SectionSquirrels Section = "Squirrels"
	SectionBeavers   Section = "Beavers"
	SectionCubs      Section = "Cubs"
	SectionScouts    Section = "Scouts"
)

// sectionRanks is the fixed presentation order of the known sections.
var sectionRanks = map[Section]int{
	SectionSquirrels: 1,
	SectionBeavers:   2,
	SectionCubs:      3,
	SectionScouts:    4,
}

// unknownSectionRank sorts unknown sections after all known tiers.
const unknownSectionRank = 5

// String returns the string representation of Section
func (s Section) String() string {
	return string(s)
}

// IsKnown checks if the section is one of the four known tiers
func (s Section) IsKnown() bool {
	_, ok := sectionRanks[s]
	return ok
}

// Rank returns the fixed presentation rank of the section, with unknown
// sections ranked last.
func (s Section) Rank() int {
	if rank, ok := sectionRanks[s]; ok {
		return rank
	}
	return unknownSectionRank
}

// RawTransaction represents one payment line from the provider's payout
// transactions export. It is immutable input: the pipeline only reads it.
type RawTransaction struct {
	Description  string          `json:"description" csv:"resources.description"`
	GrossAmount  decimal.Decimal `json:"gross_amount" csv:"gross_amount"`
	ProviderFees decimal.Decimal `json:"provider_fees" csv:"gocardless_fees"`
	AppFees      decimal.Decimal `json:"app_fees" csv:"app_fees"`
	NetAmount    decimal.Decimal `json:"net_amount" csv:"net_amount"`
	ArrivalDate  time.Time       `json:"arrival_date" csv:"payouts.arrival_date"`
	Member       string          `json:"member" csv:"payments.metadata.Member"`
	References   string          `json:"references" csv:"payments.metadata.References"`
}

// Validate performs basic validation on the RawTransaction
func (rt *RawTransaction) Validate() error {
	if strings.TrimSpace(rt.Description) == "" {
		return fmt.Errorf("transaction description cannot be empty")
	}

	if rt.ArrivalDate.IsZero() {
		return fmt.Errorf("payout arrival date cannot be zero")
	}

	return nil
}

// String returns a string representation of the RawTransaction
func (rt *RawTransaction) String() string {
	return fmt.Sprintf("RawTransaction{Description: %s, Gross: %s, Net: %s, Arrival: %s}",
		rt.Description, rt.GrossAmount.String(), rt.NetAmount.String(), rt.ArrivalDate.Format("2006-01-02"))
}

// NormalizedTransaction is the cleaned record derived from a RawTransaction.
// Created once per run and immutable afterwards; consumed by the aggregator.
type NormalizedTransaction struct {
	Section      Section         `json:"section"`
	Schedule     Schedule        `json:"schedule"`
	Year         int             `json:"year"`
	PaymentName  string          `json:"payment_name"`
	GrossAmount  decimal.Decimal `json:"gross_amount"`
	TotalFees    decimal.Decimal `json:"total_fees"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	Member       string          `json:"member"`
	ArrivalDate  time.Time       `json:"arrival_date"`
	SectionCode  string          `json:"section_code"`
	ScheduleCode string          `json:"schedule_code"`
	PaymentCode  string          `json:"payment_code"`
}

// NormalizedColumns is the canonical output column order for normalized
// records.
var NormalizedColumns = []string{
	"section", "schedule", "year", "payment_name",
	"gross_amount", "total_fees", "net_amount",
	"member", "arrival_date",
	"section_code", "schedule_code", "payment_code",
}

// String returns a string representation of the NormalizedTransaction
func (nt *NormalizedTransaction) String() string {
	return fmt.Sprintf("NormalizedTransaction{Section: %s, Schedule: %s, Year: %d, Payment: %s, Gross: %s}",
		nt.Section, nt.Schedule, nt.Year, nt.PaymentName, nt.GrossAmount.String())
}

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove currency symbols and thousand separators
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDateWithFormats attempts to parse a date from string using the formats
// seen in payout exports.
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",          // ISO, the export default
		"02/01/2006",          // UK short
		"02-Jan-2006",         // report display form
		"2006-01-02 15:04:05", // ISO with time
		time.RFC3339,
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}
