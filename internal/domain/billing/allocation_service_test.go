package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/domain/shared/valueobject"
)

func planItem(t *testing.T, admissionID uuid.UUID, category ChargeCategory, amount float64) *BillItem {
	t.Helper()
	quantity, err := valueobject.NewQuantityFromInt(1, "UNIT")
	require.NoError(t, err)
	item, err := NewBillItem(
		admissionID,
		category,
		"Test charge",
		quantity,
		valueobject.NewMoneyINRFromFloat(amount),
		valueobject.ZeroINR(),
		time.Now(),
	)
	require.NoError(t, err)
	item.ClearDomainEvents()
	return item
}

func planAdvance(t *testing.T, admissionID uuid.UUID, receipt string, amount float64, createdAt time.Time) *Advance {
	t.Helper()
	adv, err := NewAdvance(admissionID, receipt, valueobject.NewMoneyINRFromFloat(amount), PaymentMethodCash, "")
	require.NoError(t, err)
	adv.CreatedAt = createdAt
	adv.ClearDomainEvents()
	return adv
}

func money(v float64) valueobject.Money { return valueobject.NewMoneyINRFromFloat(v) }

func TestAllocationServicePlanAllocation(t *testing.T) {
	service := NewAllocationService()
	admissionID := uuid.New()
	now := time.Now()

	t.Run("splits selections proportionally between advance and remainder", func(t *testing.T) {
		pharmacy := planItem(t, admissionID, CategoryPharmacy, 400)
		lab := planItem(t, admissionID, CategoryLab, 500)
		advance := planAdvance(t, admissionID, "ADV-2026-0001", 1000, now)

		plan, err := service.PlanAllocation(
			[]*BillItem{pharmacy, lab},
			[]*Advance{advance},
			[]PaymentSelection{
				{BillItemID: pharmacy.ID, Amount: d(400)},
				{BillItemID: lab.ID, Amount: d(500)},
			},
			money(900),
			money(300),
		)

		require.NoError(t, err)
		require.Len(t, plan.Splits, 2)
		// 400/900 and 500/900 of the 300 advance
		assert.Equal(t, "133.33", plan.Splits[0].AdvancePortion.StringFixed(2))
		assert.Equal(t, "166.67", plan.Splits[1].AdvancePortion.StringFixed(2))
		assert.Equal(t, "266.67", plan.Splits[0].RemainderPortion.StringFixed(2))
		assert.Equal(t, "333.33", plan.Splits[1].RemainderPortion.StringFixed(2))
		assert.Equal(t, "300", plan.AdvanceTotal.String())
		assert.Equal(t, "600", plan.RemainderTotal.String())

		require.Len(t, plan.Draws, 1)
		assert.Equal(t, advance.ID, plan.Draws[0].AdvanceID)
		assert.Equal(t, "300", plan.Draws[0].Amount.String())
	})

	t.Run("advance portions always sum exactly to the advance amount", func(t *testing.T) {
		items := []*BillItem{
			planItem(t, admissionID, CategoryPharmacy, 100),
			planItem(t, admissionID, CategoryLab, 100),
			planItem(t, admissionID, CategoryRadiology, 100),
		}
		advance := planAdvance(t, admissionID, "ADV-2026-0002", 500, now)
		selections := make([]PaymentSelection, len(items))
		for i, item := range items {
			selections[i] = PaymentSelection{BillItemID: item.ID, Amount: d(100)}
		}

		// 100/300 of 100 rounds to 33.33 per selection; the residue lands on
		// the last one.
		plan, err := service.PlanAllocation(items, []*Advance{advance}, selections, money(300), money(100))

		require.NoError(t, err)
		sum := decimal.Zero
		for _, split := range plan.Splits {
			sum = sum.Add(split.AdvancePortion)
			assert.False(t, split.AdvancePortion.GreaterThan(split.Amount))
		}
		assert.Equal(t, "100", sum.String())
		assert.Equal(t, "33.34", plan.Splits[2].AdvancePortion.StringFixed(2))
	})

	t.Run("consumes advances oldest first", func(t *testing.T) {
		item := planItem(t, admissionID, CategorySurgery, 800)
		older := planAdvance(t, admissionID, "ADV-2026-0003", 500, now.Add(-2*time.Hour))
		newer := planAdvance(t, admissionID, "ADV-2026-0004", 300, now.Add(-time.Hour))

		// Pass them newest first to prove ordering comes from creation time
		plan, err := service.PlanAllocation(
			[]*BillItem{item},
			[]*Advance{newer, older},
			[]PaymentSelection{{BillItemID: item.ID, Amount: d(600)}},
			money(600),
			money(600),
		)

		require.NoError(t, err)
		require.Len(t, plan.Draws, 2)
		assert.Equal(t, older.ID, plan.Draws[0].AdvanceID)
		assert.Equal(t, "500", plan.Draws[0].Amount.String())
		assert.Equal(t, newer.ID, plan.Draws[1].AdvanceID)
		assert.Equal(t, "100", plan.Draws[1].Amount.String())
	})

	t.Run("skips fully used advances", func(t *testing.T) {
		item := planItem(t, admissionID, CategorySurgery, 400)
		drained := planAdvance(t, admissionID, "ADV-2026-0005", 200, now.Add(-2*time.Hour))
		require.NoError(t, drained.Draw(money(200)))
		active := planAdvance(t, admissionID, "ADV-2026-0006", 300, now.Add(-time.Hour))

		plan, err := service.PlanAllocation(
			[]*BillItem{item},
			[]*Advance{drained, active},
			[]PaymentSelection{{BillItemID: item.ID, Amount: d(250)}},
			money(250),
			money(250),
		)

		require.NoError(t, err)
		require.Len(t, plan.Draws, 1)
		assert.Equal(t, active.ID, plan.Draws[0].AdvanceID)
	})

	t.Run("rejects draw beyond the available advance balance", func(t *testing.T) {
		item := planItem(t, admissionID, CategorySurgery, 1000)
		advance := planAdvance(t, admissionID, "ADV-2026-0007", 300, now)

		_, err := service.PlanAllocation(
			[]*BillItem{item},
			[]*Advance{advance},
			[]PaymentSelection{{BillItemID: item.ID, Amount: d(500)}},
			money(500),
			money(500),
		)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "INSUFFICIENT_ADVANCE")
	})

	t.Run("rejects selection exceeding the pending balance", func(t *testing.T) {
		item := planItem(t, admissionID, CategoryLab, 200)

		_, err := service.PlanAllocation(
			[]*BillItem{item},
			nil,
			[]PaymentSelection{{BillItemID: item.ID, Amount: d(250)}},
			money(250),
			money(0),
		)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds pending balance")
	})

	t.Run("duplicate selections count against the pending balance cumulatively", func(t *testing.T) {
		item := planItem(t, admissionID, CategoryLab, 200)

		_, err := service.PlanAllocation(
			[]*BillItem{item},
			nil,
			[]PaymentSelection{
				{BillItemID: item.ID, Amount: d(150)},
				{BillItemID: item.ID, Amount: d(100)},
			},
			money(250),
			money(0),
		)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds pending balance")
	})

	t.Run("rejects selections that do not sum to the payment amount", func(t *testing.T) {
		item := planItem(t, admissionID, CategoryLab, 500)

		_, err := service.PlanAllocation(
			[]*BillItem{item},
			nil,
			[]PaymentSelection{{BillItemID: item.ID, Amount: d(300)}},
			money(400),
			money(0),
		)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match payment amount")
	})

	t.Run("accepts selections within the settlement tolerance", func(t *testing.T) {
		item := planItem(t, admissionID, CategoryLab, 500)

		plan, err := service.PlanAllocation(
			[]*BillItem{item},
			nil,
			[]PaymentSelection{{BillItemID: item.ID, Amount: d(300.01)}},
			money(300),
			money(0),
		)

		require.NoError(t, err)
		assert.Empty(t, plan.Draws)
	})

	t.Run("rejects items from different admissions", func(t *testing.T) {
		first := planItem(t, admissionID, CategoryLab, 200)
		second := planItem(t, uuid.New(), CategoryPharmacy, 200)

		_, err := service.PlanAllocation(
			[]*BillItem{first, second},
			nil,
			[]PaymentSelection{
				{BillItemID: first.ID, Amount: d(200)},
				{BillItemID: second.ID, Amount: d(200)},
			},
			money(400),
			money(0),
		)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "different admissions")
	})

	t.Run("rejects payments to cancelled items", func(t *testing.T) {
		item := planItem(t, admissionID, CategoryLab, 200)
		require.NoError(t, item.Cancel("Duplicate entry"))

		_, err := service.PlanAllocation(
			[]*BillItem{item},
			nil,
			[]PaymentSelection{{BillItemID: item.ID, Amount: d(200)}},
			money(200),
			money(0),
		)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "CANCELLED")
	})

	t.Run("rejects unknown bill item", func(t *testing.T) {
		item := planItem(t, admissionID, CategoryLab, 200)

		_, err := service.PlanAllocation(
			[]*BillItem{item},
			nil,
			[]PaymentSelection{{BillItemID: uuid.New(), Amount: d(200)}},
			money(200),
			money(0),
		)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "NOT_FOUND")
	})

	t.Run("rejects advance larger than total and empty selections", func(t *testing.T) {
		item := planItem(t, admissionID, CategoryLab, 200)

		_, err := service.PlanAllocation(
			[]*BillItem{item},
			nil,
			[]PaymentSelection{{BillItemID: item.ID, Amount: d(100)}},
			money(100),
			money(150),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")

		_, err = service.PlanAllocation([]*BillItem{item}, nil, nil, money(100), money(0))
		require.Error(t, err)
	})

	t.Run("allocation views skip zero portions", func(t *testing.T) {
		pharmacy := planItem(t, admissionID, CategoryPharmacy, 400)
		lab := planItem(t, admissionID, CategoryLab, 500)
		advance := planAdvance(t, admissionID, "ADV-2026-0008", 400, now)

		plan, err := service.PlanAllocation(
			[]*BillItem{pharmacy, lab},
			[]*Advance{advance},
			[]PaymentSelection{
				{BillItemID: pharmacy.ID, Amount: d(400)},
				{BillItemID: lab.ID, Amount: d(500)},
			},
			money(900),
			money(900),
		)

		require.Error(t, err) // only 400 available
		assert.Contains(t, err.Error(), "INSUFFICIENT_ADVANCE")

		plan, err = service.PlanAllocation(
			[]*BillItem{pharmacy, lab},
			[]*Advance{advance},
			[]PaymentSelection{
				{BillItemID: pharmacy.ID, Amount: d(400)},
				{BillItemID: lab.ID, Amount: d(500)},
			},
			money(900),
			money(0),
		)

		require.NoError(t, err)
		assert.Empty(t, plan.AdvanceAllocations())
		remainder := plan.RemainderAllocations()
		require.Len(t, remainder, 2)
		assert.True(t, remainder.Total().Equal(d(900)))
	})
}
