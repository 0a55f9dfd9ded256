package billing

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// PaymentSelection is one caller-chosen target of a payment: a bill item and
// the amount to apply to it. Selections keep the caller's order.
type PaymentSelection struct {
	BillItemID uuid.UUID       `json:"bill_item_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// SelectionSplit is a selection split into its advance-funded and directly
// paid portions
type SelectionSplit struct {
	BillItemID       uuid.UUID       `json:"bill_item_id"`
	Category         ChargeCategory  `json:"category"`
	Amount           decimal.Decimal `json:"amount"`
	AdvancePortion   decimal.Decimal `json:"advance_portion"`
	RemainderPortion decimal.Decimal `json:"remainder_portion"`
}

// AdvanceDraw is a planned consumption from one advance deposit
type AdvanceDraw struct {
	AdvanceID     uuid.UUID       `json:"advance_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// AllocationPlan is the fully validated outcome of planning a payment: how
// each selection splits between advance and fresh money, and which advances
// are drawn, oldest first. The plan mutates nothing; applying it is the
// caller's job.
type AllocationPlan struct {
	AdmissionID    uuid.UUID        `json:"admission_id"`
	Splits         []SelectionSplit `json:"splits"`
	Draws          []AdvanceDraw    `json:"draws"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	AdvanceTotal   decimal.Decimal  `json:"advance_total"`
	RemainderTotal decimal.Decimal  `json:"remainder_total"`
}

// AdvanceAllocations returns the per-item allocations of the advance-funded
// portion, skipping zero portions
func (p *AllocationPlan) AdvanceAllocations() PaymentAllocations {
	allocs := make(PaymentAllocations, 0, len(p.Splits))
	for _, s := range p.Splits {
		if s.AdvancePortion.IsPositive() {
			allocs = append(allocs, PaymentAllocation{
				BillItemID: s.BillItemID,
				Category:   s.Category,
				Amount:     s.AdvancePortion,
			})
		}
	}
	return allocs
}

// RemainderAllocations returns the per-item allocations of the directly paid
// portion, skipping zero portions
func (p *AllocationPlan) RemainderAllocations() PaymentAllocations {
	allocs := make(PaymentAllocations, 0, len(p.Splits))
	for _, s := range p.Splits {
		if s.RemainderPortion.IsPositive() {
			allocs = append(allocs, PaymentAllocation{
				BillItemID: s.BillItemID,
				Category:   s.Category,
				Amount:     s.RemainderPortion,
			})
		}
	}
	return allocs
}

// AllocationService plans how a payment spreads across bill items and advance
// deposits. All validation happens here, before anything is written.
type AllocationService struct{}

// NewAllocationService creates a new allocation domain service
func NewAllocationService() *AllocationService {
	return &AllocationService{}
}

// PlanAllocation validates the selections against the live bill items and
// advances and produces an AllocationPlan.
//
// The advance portion of each selection is proportional to the selection's
// share of the total (selection x advance / total), rounded to two decimal
// places with the residue settled on the last selections so the portions sum
// exactly to the advance amount. Advances are consumed oldest first by
// creation time.
func (s *AllocationService) PlanAllocation(
	items []*BillItem,
	advances []*Advance,
	selections []PaymentSelection,
	totalAmount valueobject.Money,
	advanceAmount valueobject.Money,
) (*AllocationPlan, error) {
	if len(selections) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "At least one payment selection is required")
	}
	if !totalAmount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Total payment amount must be positive")
	}
	if advanceAmount.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Advance amount cannot be negative")
	}
	if advanceAmount.Amount().GreaterThan(totalAmount.Amount()) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Advance amount cannot exceed the total payment amount")
	}

	itemsByID := make(map[uuid.UUID]*BillItem, len(items))
	var admissionID uuid.UUID
	for _, item := range items {
		itemsByID[item.ID] = item
		if admissionID == uuid.Nil {
			admissionID = item.AdmissionID
		} else if item.AdmissionID != admissionID {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Bill items belong to different admissions")
		}
	}

	// Cumulative amounts per item must stay within the pending balance even
	// when the caller selects the same item more than once.
	remainingPending := make(map[uuid.UUID]decimal.Decimal, len(selections))
	selectionTotal := decimal.Zero
	for _, sel := range selections {
		if !sel.Amount.IsPositive() {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Selection amount must be positive")
		}
		item, ok := itemsByID[sel.BillItemID]
		if !ok {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Bill item %s not found on this admission", sel.BillItemID))
		}
		if !item.Status.CanApplyPayment() {
			return nil, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Bill item %s is in %s status and cannot accept payments", sel.BillItemID, item.Status))
		}
		pending, ok := remainingPending[sel.BillItemID]
		if !ok {
			pending = item.PendingAmount
		}
		if sel.Amount.Sub(pending).GreaterThan(valueobject.SettlementTolerance) {
			return nil, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Selection amount %s exceeds pending balance %s on bill item %s",
					sel.Amount.StringFixed(2), pending.StringFixed(2), sel.BillItemID))
		}
		remainingPending[sel.BillItemID] = pending.Sub(sel.Amount)
		selectionTotal = selectionTotal.Add(sel.Amount)
	}

	if selectionTotal.Sub(totalAmount.Amount()).Abs().GreaterThan(valueobject.SettlementTolerance) {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Selections total %s does not match payment amount %s",
				selectionTotal.StringFixed(2), totalAmount.Amount().StringFixed(2)))
	}

	splits := splitSelections(selections, itemsByID, totalAmount.Amount(), advanceAmount.Amount())

	draws, err := planDraws(advances, advanceAmount.Amount())
	if err != nil {
		return nil, err
	}

	return &AllocationPlan{
		AdmissionID:    admissionID,
		Splits:         splits,
		Draws:          draws,
		TotalAmount:    totalAmount.Amount().Round(2),
		AdvanceTotal:   advanceAmount.Amount().Round(2),
		RemainderTotal: totalAmount.Amount().Sub(advanceAmount.Amount()).Round(2),
	}, nil
}

// splitSelections apportions the advance amount across selections in
// proportion to their share of the total. Rounding residue is settled walking
// back from the last selection, each portion capped at its selection amount.
func splitSelections(
	selections []PaymentSelection,
	itemsByID map[uuid.UUID]*BillItem,
	total decimal.Decimal,
	advance decimal.Decimal,
) []SelectionSplit {
	splits := make([]SelectionSplit, len(selections))
	ratio := decimal.Zero
	if total.IsPositive() {
		ratio = advance.Div(total)
	}

	allocated := decimal.Zero
	for i, sel := range selections {
		portion := sel.Amount.Mul(ratio).Round(2)
		if portion.GreaterThan(sel.Amount) {
			portion = sel.Amount
		}
		splits[i] = SelectionSplit{
			BillItemID:     sel.BillItemID,
			Category:       itemsByID[sel.BillItemID].Category,
			Amount:         sel.Amount,
			AdvancePortion: portion,
		}
		allocated = allocated.Add(portion)
	}

	// Settle the rounding residue so the portions sum exactly to the advance
	residue := advance.Sub(allocated)
	for i := len(splits) - 1; i >= 0 && !residue.IsZero(); i-- {
		headroom := splits[i].Amount.Sub(splits[i].AdvancePortion)
		adjust := residue
		if residue.IsPositive() && adjust.GreaterThan(headroom) {
			adjust = headroom
		}
		if residue.IsNegative() && adjust.Neg().GreaterThan(splits[i].AdvancePortion) {
			adjust = splits[i].AdvancePortion.Neg()
		}
		splits[i].AdvancePortion = splits[i].AdvancePortion.Add(adjust)
		residue = residue.Sub(adjust)
	}

	for i := range splits {
		splits[i].RemainderPortion = splits[i].Amount.Sub(splits[i].AdvancePortion)
	}
	return splits
}

// planDraws consumes the requested advance amount from the given advances in
// FIFO order by creation time
func planDraws(advances []*Advance, amount decimal.Decimal) ([]AdvanceDraw, error) {
	if !amount.IsPositive() {
		return []AdvanceDraw{}, nil
	}

	ordered := make([]*Advance, len(advances))
	copy(ordered, advances)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	draws := make([]AdvanceDraw, 0, len(ordered))
	remaining := amount
	for _, adv := range ordered {
		if !remaining.IsPositive() {
			break
		}
		if !adv.IsActive() {
			continue
		}
		available := adv.AvailableAmount()
		if !available.IsPositive() {
			continue
		}
		draw := decimal.Min(remaining, available)
		draws = append(draws, AdvanceDraw{
			AdvanceID:     adv.ID,
			ReceiptNumber: adv.ReceiptNumber,
			Amount:        draw,
		})
		remaining = remaining.Sub(draw)
	}

	if remaining.IsPositive() {
		return nil, shared.NewDomainError("INSUFFICIENT_ADVANCE",
			fmt.Sprintf("Requested advance %s exceeds available balance %s",
				amount.StringFixed(2), amount.Sub(remaining).StringFixed(2)))
	}
	return draws, nil
}
