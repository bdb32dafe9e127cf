package aggregator

import (
	"fmt"
	"strings"
	"time"

	"payout-reporting-service/internal/models"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Summary describes one payout settlement event: how many payments it
// bundles and how gross, fees and net reconcile.
type Summary struct {
	ID                int             `json:"id"`
	PaymentCount      int             `json:"payment_count"`
	ArrivalDate       time.Time       `json:"arrival_date"`
	GrossTotal        decimal.Decimal `json:"gross_total"`
	FeeTotal          decimal.Decimal `json:"fee_total"`
	NetTotal          decimal.Decimal `json:"net_total"`
	UnclassifiedCount int             `json:"unclassified_count,omitempty"`

	// Text is the rendered fixed-layout summary block.
	Text string `json:"-"`
}

// buildSummary computes the reconciliation totals for one arrival-date
// partition and renders the summary block. Totals are rounded to 2 decimal
// places; the net total is derived as gross minus fees after rounding.
func buildSummary(idx int, date time.Time, partition []models.NormalizedTransaction, unclassifiedCount int, showUnclassified bool) Summary {
	gross := decimal.Zero
	fees := decimal.Zero
	for _, record := range partition {
		gross = gross.Add(record.GrossAmount)
		fees = fees.Add(record.TotalFees)
	}
	gross = gross.Round(2)
	fees = fees.Round(2)
	net := gross.Sub(fees).Round(2)

	summary := Summary{
		ID:                idx + 1,
		PaymentCount:      len(partition),
		ArrivalDate:       date,
		GrossTotal:        gross,
		FeeTotal:          fees,
		NetTotal:          net,
		UnclassifiedCount: unclassifiedCount,
	}
	summary.Text = summary.render(showUnclassified)
	return summary
}

// render produces the fixed-layout multi-line summary block.
func (s *Summary) render(showUnclassified bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %d\n", s.ID)
	fmt.Fprintf(&b, "Number of Payments: %d\n", s.PaymentCount)
	fmt.Fprintf(&b, "Date of Payout: %s\n", s.ArrivalDate.Format("02-Jan-2006"))
	fmt.Fprintf(&b, "Payout Amount: %s\n", FormatGBP(s.GrossTotal))
	fmt.Fprintf(&b, "Fees Paid: %s\n", FormatGBP(s.FeeTotal))
	fmt.Fprintf(&b, "Net Amount: %s\n", FormatGBP(s.NetTotal))
	if showUnclassified {
		fmt.Fprintf(&b, "Unclassified Payments: %d\n", s.UnclassifiedCount)
	}
	return b.String()
}

// FormatGBP renders a decimal amount as a pound sterling display string.
func FormatGBP(amount decimal.Decimal) string {
	minor := amount.Round(2).Shift(2).IntPart()
	return money.New(minor, money.GBP).Display()
}
