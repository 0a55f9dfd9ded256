package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingStatus represents the overall settlement status of a stay
type BillingStatus string

const (
	BillingStatusPending BillingStatus = "PENDING" // Nothing collected yet
	BillingStatusPartial BillingStatus = "PARTIAL" // Some money collected, balance outstanding
	BillingStatusPaid    BillingStatus = "PAID"    // No outstanding balance
)

// String returns the string representation of BillingStatus
func (s BillingStatus) String() string {
	return string(s)
}

// LineSnapshot is a read-model row for one bill item, as loaded by the
// aggregator at summary time
type LineSnapshot struct {
	Category        ChargeCategory
	NetAmount       decimal.Decimal
	PaidAmount      decimal.Decimal
	Cancelled       bool
	SettledAtSource bool
}

// PaymentSnapshot is a read-model row for one ledger transaction
type PaymentSnapshot struct {
	Method PaymentMethod
	Amount decimal.Decimal
}

// SummaryInput is the complete snapshot a billing summary is derived from.
// ComputeSummary reads nothing else, so the same input always yields the
// same summary.
type SummaryInput struct {
	AdmissionID      uuid.UUID
	BedDailyRate     decimal.Decimal
	ConsultationFee  decimal.Decimal
	StayDays         int64
	Discount         decimal.Decimal // Stay-level discount
	Lines            []LineSnapshot
	Payments         []PaymentSnapshot
	AdvanceApplied   decimal.Decimal // Sum of used amounts across the stay's advances
	FailedCategories []ChargeCategory
	GeneratedAt      time.Time // Snapshot time, stamped onto the summary unchanged
}

// CategorySubtotal is one category row of a billing summary
type CategorySubtotal struct {
	Category ChargeCategory  `json:"category"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Degraded bool            `json:"degraded"` // Source read failed; subtotal reported as zero
}

// BillingSummary is the derived financial position of a stay. It is computed
// on every read and never stored.
type BillingSummary struct {
	AdmissionID        uuid.UUID          `json:"admission_id"`
	Categories         []CategorySubtotal `json:"categories"`
	GrossTotal         decimal.Decimal    `json:"gross_total"`
	Discount           decimal.Decimal    `json:"discount"`
	AdvanceApplied     decimal.Decimal    `json:"advance_applied"`
	PaidTotal          decimal.Decimal    `json:"paid_total"`
	NetPayable         decimal.Decimal    `json:"net_payable"`     // gross - advance - discount
	PendingAmount      decimal.Decimal    `json:"pending_amount"`  // max(0, gross - discount - paid)
	Status             BillingStatus      `json:"status"`
	DegradedCategories []ChargeCategory   `json:"degraded_categories,omitempty"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

// IsDegraded returns true if any category source failed during aggregation
func (s *BillingSummary) IsDegraded() bool {
	return len(s.DegradedCategories) > 0
}

// ComputeSummary derives the billing summary from a snapshot of the stay.
//
// Bed and consultation subtotals are always recomputed from the admission
// scalars (rate x stay days); the other categories sum the net amounts of
// their non-cancelled lines. A category listed in FailedCategories reports a
// zero subtotal and is flagged as degraded instead of failing the whole
// summary.
//
// Paid total = advance applied + non-advance ledger transactions + amounts
// collected at the point of service. Advance-method transactions are audit
// duplicates of the advance draws and are excluded to avoid double counting.
func ComputeSummary(input SummaryInput) *BillingSummary {
	failed := make(map[ChargeCategory]bool, len(input.FailedCategories))
	for _, c := range input.FailedCategories {
		failed[c] = true
	}

	lineTotals := make(map[ChargeCategory]decimal.Decimal)
	sourceSettledPaid := decimal.Zero
	for _, line := range input.Lines {
		if failed[line.Category] {
			continue
		}
		if line.SettledAtSource {
			sourceSettledPaid = sourceSettledPaid.Add(line.PaidAmount)
		}
		if line.Cancelled {
			continue
		}
		if !line.Category.IsStayDerived() {
			lineTotals[line.Category] = lineTotals[line.Category].Add(line.NetAmount)
		}
	}

	days := decimal.NewFromInt(input.StayDays)
	gross := decimal.Zero
	categories := make([]CategorySubtotal, 0, len(AllCategories()))
	degraded := make([]ChargeCategory, 0)

	for _, cat := range AllCategories() {
		var subtotal decimal.Decimal
		switch {
		case failed[cat]:
			subtotal = decimal.Zero
			degraded = append(degraded, cat)
		case cat == CategoryBedCharges:
			subtotal = input.BedDailyRate.Mul(days).Round(2)
		case cat == CategoryDoctorConsultation:
			subtotal = input.ConsultationFee.Mul(days).Round(2)
		default:
			subtotal = lineTotals[cat].Round(2)
		}
		gross = gross.Add(subtotal)
		categories = append(categories, CategorySubtotal{
			Category: cat,
			Subtotal: subtotal,
			Degraded: failed[cat],
		})
	}

	paidTotal := input.AdvanceApplied.Add(sourceSettledPaid)
	for _, p := range input.Payments {
		if p.Method == PaymentMethodAdvance {
			continue
		}
		paidTotal = paidTotal.Add(p.Amount)
	}
	paidTotal = paidTotal.Round(2)

	netPayable := gross.Sub(input.AdvanceApplied).Sub(input.Discount).Round(2)
	pending := gross.Sub(input.Discount).Sub(paidTotal).Round(2)
	if pending.IsNegative() {
		pending = decimal.Zero
	}

	status := BillingStatusPending
	switch {
	case !pending.IsPositive():
		status = BillingStatusPaid
	case paidTotal.IsPositive():
		status = BillingStatusPartial
	}

	summary := &BillingSummary{
		AdmissionID:        input.AdmissionID,
		Categories:         categories,
		GrossTotal:         gross.Round(2),
		Discount:           input.Discount.Round(2),
		AdvanceApplied:     input.AdvanceApplied.Round(2),
		PaidTotal:          paidTotal,
		NetPayable:         netPayable,
		PendingAmount:      pending,
		Status:             status,
		GeneratedAt:        input.GeneratedAt,
	}
	if len(degraded) > 0 {
		summary.DegradedCategories = degraded
	}
	return summary
}
