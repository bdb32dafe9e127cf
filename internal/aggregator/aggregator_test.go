package aggregator

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"payout-reporting-service/internal/models"

	"github.com/shopspring/decimal"
)

var (
	march5 = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	april2 = time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
)

func ntx(date time.Time, schedule models.Schedule, section models.Section, payment string, gross, fees, net float64) models.NormalizedTransaction {
	return models.NormalizedTransaction{
		Section:     section,
		Schedule:    schedule,
		Year:        2024,
		PaymentName: payment,
		GrossAmount: decimal.NewFromFloat(gross),
		TotalFees:   decimal.NewFromFloat(fees),
		NetAmount:   decimal.NewFromFloat(net),
		Member:      "Jane Doe",
		ArrivalDate: date,
	}
}

func TestAggregate_GroupSums(t *testing.T) {
	records := []models.NormalizedTransaction{
		ntx(march5, models.ScheduleSubscriptions, models.SectionCubs, "January", 10.00, 1.00, 9.00),
		ntx(march5, models.ScheduleSubscriptions, models.SectionCubs, "February", 20.00, 2.00, 18.00),
	}

	reports, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	if len(reports[0].Rows) != 1 {
		t.Fatalf("rows = %d, want 1 subscription subtotal", len(reports[0].Rows))
	}

	row := reports[0].Rows[0]
	if !row.GrossAmount.Equal(decimal.NewFromFloat(30.00)) {
		t.Errorf("gross = %s, want 30", row.GrossAmount)
	}
	if !row.TotalFees.Equal(decimal.NewFromFloat(3.00)) {
		t.Errorf("fees = %s, want 3", row.TotalFees)
	}
	if !row.NetAmount.Equal(decimal.NewFromFloat(27.00)) {
		t.Errorf("net = %s, want 27", row.NetAmount)
	}
	if row.PaymentName != "" {
		t.Errorf("subscription subtotal should not carry a payment name, got %q", row.PaymentName)
	}
}

func TestAggregate_ActivitiesKeepPaymentName(t *testing.T) {
	records := []models.NormalizedTransaction{
		ntx(march5, models.ScheduleActivities, models.SectionCubs, "Camping Trip", 25.00, 0.50, 24.50),
		ntx(march5, models.ScheduleActivities, models.SectionCubs, "Camping Trip", 25.00, 0.50, 24.50),
		ntx(march5, models.ScheduleActivities, models.SectionCubs, "Night Hike", 5.00, 0.10, 4.90),
	}

	reports, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}
	if len(reports[0].Rows) != 2 {
		t.Fatalf("rows = %d, want one row per activity", len(reports[0].Rows))
	}

	camping := reports[0].Rows[0]
	if camping.PaymentName != "Camping Trip" {
		t.Errorf("first row = %q, want Camping Trip", camping.PaymentName)
	}
	if !camping.GrossAmount.Equal(decimal.NewFromFloat(50.00)) {
		t.Errorf("camping gross = %s, want 50", camping.GrossAmount)
	}
}

func TestAggregate_SortOrder(t *testing.T) {
	records := []models.NormalizedTransaction{
		ntx(march5, models.ScheduleSubscriptions, models.SectionScouts, "March", 10, 1, 9),
		ntx(march5, models.ScheduleActivities, models.SectionScouts, "Abseiling", 10, 1, 9),
		ntx(march5, models.ScheduleSubscriptions, models.SectionSquirrels, "March", 10, 1, 9),
		ntx(march5, models.ScheduleActivities, models.SectionCubs, "Night Hike", 10, 1, 9),
		ntx(march5, models.ScheduleActivities, models.SectionCubs, "Camping Trip", 10, 1, 9),
		ntx(march5, models.ScheduleSubscriptions, models.Section("Explorers"), "March", 10, 1, 9),
	}

	reports, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}

	rows := reports[0].Rows
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}

	// All Activities rows precede all Subscriptions rows
	sawSubscriptions := false
	for i, row := range rows {
		if row.Schedule == models.ScheduleSubscriptions {
			sawSubscriptions = true
		} else if sawSubscriptions {
			t.Fatalf("row %d: Activities row after Subscriptions block", i)
		}
	}

	// Within each schedule block section rank is non-decreasing, and payment
	// names are sorted within equal rank
	for i := 1; i < len(rows); i++ {
		if rows[i].Schedule != rows[i-1].Schedule {
			continue
		}
		if rows[i].Section.Rank() < rows[i-1].Section.Rank() {
			t.Errorf("row %d: section rank %d after %d", i, rows[i].Section.Rank(), rows[i-1].Section.Rank())
		}
		if rows[i].Section.Rank() == rows[i-1].Section.Rank() && rows[i].PaymentName < rows[i-1].PaymentName {
			t.Errorf("row %d: payment name %q after %q", i, rows[i].PaymentName, rows[i-1].PaymentName)
		}
	}

	// Unknown section ranks last in the Subscriptions block
	last := rows[len(rows)-1]
	if last.Section != models.Section("Explorers") {
		t.Errorf("last row section = %q, want the unknown section", last.Section)
	}

	// Cubs activities sorted by payment name
	if rows[0].PaymentName != "Camping Trip" || rows[1].PaymentName != "Night Hike" {
		t.Errorf("Cubs activities order = %q, %q; want Camping Trip then Night Hike",
			rows[0].PaymentName, rows[1].PaymentName)
	}
}

func TestAggregate_FirstSeenDateOrder(t *testing.T) {
	records := []models.NormalizedTransaction{
		ntx(april2, models.ScheduleSubscriptions, models.SectionCubs, "April", 10, 1, 9),
		ntx(march5, models.ScheduleSubscriptions, models.SectionCubs, "March", 10, 1, 9),
		ntx(april2, models.ScheduleSubscriptions, models.SectionScouts, "April", 10, 1, 9),
	}

	reports, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}

	if !reports[0].ArrivalDate.Equal(april2) {
		t.Errorf("first report date = %v, want first-seen date %v", reports[0].ArrivalDate, april2)
	}
	if reports[0].Summary.ID != 1 || reports[1].Summary.ID != 2 {
		t.Errorf("summary IDs = %d, %d; want 1, 2", reports[0].Summary.ID, reports[1].Summary.ID)
	}
}

func TestAggregate_SummaryText(t *testing.T) {
	records := []models.NormalizedTransaction{
		ntx(march5, models.ScheduleSubscriptions, models.SectionCubs, "January", 10.00, 1.00, 9.00),
		ntx(march5, models.ScheduleSubscriptions, models.SectionCubs, "February", 20.00, 2.00, 18.00),
	}

	reports, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}

	expected := "ID: 1\n" +
		"Number of Payments: 2\n" +
		"Date of Payout: 05-Mar-2024\n" +
		"Payout Amount: £30.00\n" +
		"Fees Paid: £3.00\n" +
		"Net Amount: £27.00\n"

	if reports[0].Summary.Text != expected {
		t.Errorf("summary text =\n%q\nwant\n%q", reports[0].Summary.Text, expected)
	}
}

func TestAggregate_SummaryReconciliation(t *testing.T) {
	records := []models.NormalizedTransaction{
		ntx(march5, models.ScheduleActivities, models.SectionCubs, "Camping Trip", 33.33, 1.11, 32.22),
		ntx(march5, models.ScheduleSubscriptions, models.SectionBeavers, "March", 10.10, 0.17, 9.93),
		ntx(march5, models.ScheduleSubscriptions, models.SectionScouts, "March", 12.05, 0.29, 11.76),
	}

	reports, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}

	summary := reports[0].Summary
	diff := summary.GrossTotal.Sub(summary.FeeTotal).Sub(summary.NetTotal).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(0.01)) {
		t.Errorf("gross %s - fees %s != net %s (diff %s)",
			summary.GrossTotal, summary.FeeTotal, summary.NetTotal, diff)
	}
	if summary.PaymentCount != 3 {
		t.Errorf("payment count = %d, want 3", summary.PaymentCount)
	}
}

func TestAggregate_CompoundKeysUnique(t *testing.T) {
	records := []models.NormalizedTransaction{
		ntx(march5, models.ScheduleActivities, models.SectionCubs, "Camping Trip", 25, 0.5, 24.5),
		ntx(march5, models.ScheduleActivities, models.SectionCubs, "Camping Trip", 25, 0.5, 24.5),
		ntx(march5, models.ScheduleActivities, models.SectionScouts, "Camping Trip", 25, 0.5, 24.5),
		ntx(march5, models.ScheduleSubscriptions, models.SectionCubs, "March", 10, 1, 9),
	}

	reports, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}

	for key, rows := range reports[0].RowsByKey() {
		if len(rows) != 1 {
			t.Errorf("key %+v appears %d times, want 1", key, len(rows))
		}
	}
}

func TestAggregate_Idempotence(t *testing.T) {
	records := []models.NormalizedTransaction{
		ntx(march5, models.ScheduleActivities, models.Section("Otters"), "Swim", 10, 1, 9),
		ntx(march5, models.ScheduleActivities, models.Section("Explorers"), "Swim", 10, 1, 9),
		ntx(march5, models.ScheduleSubscriptions, models.SectionCubs, "March", 10, 1, 9),
		ntx(april2, models.ScheduleActivities, models.SectionBeavers, "Zoo Visit", 15, 0.3, 14.7),
	}

	first, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}
	second, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		t.Error("repeated aggregation of the same input should yield identical reports")
	}
	if first[0].Summary.Text != second[0].Summary.Text {
		t.Error("repeated aggregation should yield identical summary text")
	}
}

func TestAggregate_UnclassifiedCount(t *testing.T) {
	records := []models.NormalizedTransaction{
		ntx(march5, models.ScheduleSubscriptions, models.SectionCubs, "March", 10, 1, 9),
	}
	unclassified := []models.RawTransaction{
		{Description: "Donations: general fund", ArrivalDate: march5},
		{Description: "Donations: general fund", ArrivalDate: april2},
	}

	reports, err := NewAggregator(&Config{ShowUnclassified: true}).Aggregate(records, unclassified)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}

	if reports[0].Summary.UnclassifiedCount != 1 {
		t.Errorf("unclassified count = %d, want 1 (same-date rows only)", reports[0].Summary.UnclassifiedCount)
	}
	if !strings.Contains(reports[0].Summary.Text, "Unclassified Payments: 1") {
		t.Errorf("summary text should include the unclassified count, got\n%s", reports[0].Summary.Text)
	}

	// Default configuration omits the line
	defaultReports, err := NewAggregator(nil).Aggregate(records, unclassified)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}
	if strings.Contains(defaultReports[0].Summary.Text, "Unclassified") {
		t.Errorf("default summary should omit the unclassified line, got\n%s", defaultReports[0].Summary.Text)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	reports, err := NewAggregator(nil).Aggregate(nil, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("reports = %d, want 0 for empty input", len(reports))
	}
}

func TestAggregate_UnknownSectionOrdering(t *testing.T) {
	// Unknown sections share one rank; payment name stays the primary
	// comparison within it, section name only breaks exact name ties.
	records := []models.NormalizedTransaction{
		ntx(march5, models.ScheduleActivities, models.Section("Otters"), "Abseiling", 10.00, 1.00, 9.00),
		ntx(march5, models.ScheduleActivities, models.Section("Explorers"), "Kayaking", 10.00, 1.00, 9.00),
		ntx(march5, models.ScheduleActivities, models.Section("Otters"), "Camp", 10.00, 1.00, 9.00),
		ntx(march5, models.ScheduleActivities, models.Section("Explorers"), "Camp", 10.00, 1.00, 9.00),
	}

	reports, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}

	rows := reports[0].Rows
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}

	for i := 1; i < len(rows); i++ {
		if rows[i-1].PaymentName > rows[i].PaymentName {
			t.Errorf("payment names out of order at %d: %q > %q", i, rows[i-1].PaymentName, rows[i].PaymentName)
		}
	}

	// "Camp" ties on name: Explorers sorts before Otters
	if rows[1].PaymentName != "Camp" || rows[1].Section != models.Section("Explorers") {
		t.Errorf("rows[1] = %s/%s, want Explorers/Camp", rows[1].Section, rows[1].PaymentName)
	}
	if rows[2].PaymentName != "Camp" || rows[2].Section != models.Section("Otters") {
		t.Errorf("rows[2] = %s/%s, want Otters/Camp", rows[2].Section, rows[2].PaymentName)
	}
}

func TestAggregate_ArrivalDateNormalized(t *testing.T) {
	morning := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 5, 21, 15, 0, 0, time.UTC)
	records := []models.NormalizedTransaction{
		ntx(morning, models.ScheduleSubscriptions, models.SectionCubs, "January", 10.00, 1.00, 9.00),
		ntx(evening, models.ScheduleSubscriptions, models.SectionCubs, "February", 20.00, 2.00, 18.00),
	}

	reports, err := NewAggregator(nil).Aggregate(records, nil)
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want one report for one calendar day", len(reports))
	}

	if !reports[0].ArrivalDate.Equal(march5) {
		t.Errorf("report date = %v, want timestamp truncated to %v", reports[0].ArrivalDate, march5)
	}
	if !reports[0].Summary.ArrivalDate.Equal(march5) {
		t.Errorf("summary date = %v, want %v", reports[0].Summary.ArrivalDate, march5)
	}
}
