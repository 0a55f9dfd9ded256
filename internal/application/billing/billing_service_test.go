package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

func newTestBillingService() (*BillingService, *MockAdmissionRepository, *MockBillItemRepository, *MockAdvanceRepository, *MockPaymentTransactionRepository) {
	admissionRepo := new(MockAdmissionRepository)
	itemRepo := new(MockBillItemRepository)
	advanceRepo := new(MockAdvanceRepository)
	txnRepo := new(MockPaymentTransactionRepository)
	svc := NewBillingService(admissionRepo, itemRepo, advanceRepo, txnRepo, zap.NewNop())
	return svc, admissionRepo, itemRepo, advanceRepo, txnRepo
}

// testAdmission creates a stay admitted 49 hours ago: three billable days at
// bed rate 150 and consultation fee 100.
func testAdmission(t *testing.T) *patient.Admission {
	t.Helper()
	admission, err := patient.NewAdmission(
		uuid.New(), uuid.New(),
		"GENERAL", "G-12",
		valueobject.NewMoneyINRFromFloat(150),
		valueobject.NewMoneyINRFromFloat(100),
		time.Now().Add(-49*time.Hour),
	)
	require.NoError(t, err)
	admission.ClearDomainEvents()
	return admission
}

func testItem(t *testing.T, admissionID uuid.UUID, category billing.ChargeCategory, amount float64) *billing.BillItem {
	t.Helper()
	qty, err := valueobject.NewQuantityFromInt(1, "UNIT")
	require.NoError(t, err)
	item, err := billing.NewBillItem(
		admissionID, category, "Test charge", qty,
		valueobject.NewMoneyINRFromFloat(amount),
		valueobject.ZeroINR(),
		time.Now(),
	)
	require.NoError(t, err)
	item.ClearDomainEvents()
	return item
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

func TestBillingServiceComputeSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates stay charges, lines, advances and payments", func(t *testing.T) {
		svc, admissionRepo, itemRepo, advanceRepo, txnRepo := newTestBillingService()
		admission := testAdmission(t)
		require.NoError(t, admission.SetDiscount(valueobject.NewMoneyINRFromFloat(50)))

		pharmacy := testItem(t, admission.ID, billing.CategoryPharmacy, 400)
		lab := testItem(t, admission.ID, billing.CategoryLab, 500)

		cashTxn, err := billing.NewPaymentTransaction(
			admission.ID, "TXN-2026-0001", billing.PaymentMethodCash,
			valueobject.NewMoneyINRFromFloat(400), "", "",
			billing.PaymentAllocations{{BillItemID: pharmacy.ID, Category: pharmacy.Category, Amount: decimal.NewFromInt(400)}},
		)
		require.NoError(t, err)
		advanceTxn, err := billing.NewPaymentTransaction(
			admission.ID, "TXN-2026-0002", billing.PaymentMethodAdvance,
			valueobject.NewMoneyINRFromFloat(300), "", "",
			billing.PaymentAllocations{{BillItemID: lab.ID, Category: lab.Category, Amount: decimal.NewFromInt(300)}},
		)
		require.NoError(t, err)

		admissionRepo.On("FindByID", mock.Anything, admission.ID).Return(admission, nil)
		itemRepo.On("FindByAdmissionAndCategory", mock.Anything, admission.ID, billing.CategoryPharmacy).
			Return([]billing.BillItem{*pharmacy}, nil)
		itemRepo.On("FindByAdmissionAndCategory", mock.Anything, admission.ID, billing.CategoryLab).
			Return([]billing.BillItem{*lab}, nil)
		itemRepo.On("FindByAdmissionAndCategory", mock.Anything, admission.ID, mock.Anything).
			Return([]billing.BillItem{}, nil)
		advanceRepo.On("SumUsedByAdmission", mock.Anything, admission.ID).Return(decimal.NewFromInt(300), nil)
		txnRepo.On("FindByAdmission", mock.Anything, admission.ID).
			Return([]billing.PaymentTransaction{*cashTxn, *advanceTxn}, nil)

		summary, err := svc.ComputeSummary(ctx, admission.ID)
		require.NoError(t, err)

		// bed 150x3 + consultation 100x3 + pharmacy 400 + lab 500
		assert.Equal(t, "1650", summary.GrossTotal.String())
		assert.Equal(t, "300", summary.AdvanceApplied.String())
		assert.Equal(t, "50", summary.Discount.String())
		assert.Equal(t, "1300", summary.NetPayable.String())
		// advance 300 + cash 400; the ADVANCE ledger row is excluded
		assert.Equal(t, "700", summary.PaidTotal.String())
		assert.Equal(t, "900", summary.PendingAmount.String())
		assert.Equal(t, billing.BillingStatusPartial, summary.Status)
		assert.False(t, summary.IsDegraded())
	})

	t.Run("degrades a failed category to zero instead of failing", func(t *testing.T) {
		svc, admissionRepo, itemRepo, advanceRepo, txnRepo := newTestBillingService()
		admission := testAdmission(t)

		admissionRepo.On("FindByID", mock.Anything, admission.ID).Return(admission, nil)
		itemRepo.On("FindByAdmissionAndCategory", mock.Anything, admission.ID, billing.CategoryLab).
			Return(nil, errors.New("connection reset"))
		itemRepo.On("FindByAdmissionAndCategory", mock.Anything, admission.ID, mock.Anything).
			Return([]billing.BillItem{}, nil)
		advanceRepo.On("SumUsedByAdmission", mock.Anything, admission.ID).Return(decimal.Zero, nil)
		txnRepo.On("FindByAdmission", mock.Anything, admission.ID).Return([]billing.PaymentTransaction{}, nil)

		summary, err := svc.ComputeSummary(ctx, admission.ID)
		require.NoError(t, err)

		assert.True(t, summary.IsDegraded())
		assert.Contains(t, summary.DegradedCategories, billing.CategoryLab)
		// stay-derived charges still counted
		assert.Equal(t, "750", summary.GrossTotal.String())
	})

	t.Run("admission not found", func(t *testing.T) {
		svc, admissionRepo, _, _, _ := newTestBillingService()
		admissionRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := svc.ComputeSummary(ctx, uuid.New())
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})

	t.Run("advance read failure fails the whole summary", func(t *testing.T) {
		svc, admissionRepo, itemRepo, advanceRepo, _ := newTestBillingService()
		admission := testAdmission(t)

		admissionRepo.On("FindByID", mock.Anything, admission.ID).Return(admission, nil)
		itemRepo.On("FindByAdmissionAndCategory", mock.Anything, admission.ID, mock.Anything).
			Return([]billing.BillItem{}, nil)
		advanceRepo.On("SumUsedByAdmission", mock.Anything, admission.ID).
			Return(decimal.Zero, errors.New("connection reset"))

		_, err := svc.ComputeSummary(ctx, admission.ID)
		assert.Equal(t, "PERSISTENCE_FAILURE", domainCode(t, err))
	})
}

func TestBillingServicePostBillItem(t *testing.T) {
	ctx := context.Background()

	t.Run("posts a charge line", func(t *testing.T) {
		svc, admissionRepo, itemRepo, _, _ := newTestBillingService()
		admission := testAdmission(t)

		admissionRepo.On("FindByID", mock.Anything, admission.ID).Return(admission, nil)
		itemRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.BillItem")).Return(nil)

		resp, err := svc.PostBillItem(ctx, PostBillItemRequest{
			AdmissionID: admission.ID,
			Category:    string(billing.CategoryPharmacy),
			Description: "Amoxicillin 500mg",
			Quantity:    decimal.NewFromInt(10),
			Unit:        "TABLET",
			UnitPrice:   decimal.NewFromFloat(12.50),
		})
		require.NoError(t, err)

		assert.Equal(t, "PHARMACY", resp.Category)
		assert.Equal(t, "125", resp.GrossAmount.String())
		assert.Equal(t, "125", resp.PendingAmount.String())
		assert.Equal(t, "PENDING", resp.Status)
		itemRepo.AssertCalled(t, "Save", mock.Anything, mock.AnythingOfType("*billing.BillItem"))
	})

	t.Run("counter sale posts fully settled", func(t *testing.T) {
		svc, admissionRepo, itemRepo, _, _ := newTestBillingService()
		admission := testAdmission(t)

		admissionRepo.On("FindByID", mock.Anything, admission.ID).Return(admission, nil)
		itemRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.PostBillItem(ctx, PostBillItemRequest{
			AdmissionID:     admission.ID,
			Category:        string(billing.CategoryPharmacy),
			Description:     "Counter sale",
			Quantity:        decimal.NewFromInt(1),
			UnitPrice:       decimal.NewFromInt(80),
			SettledAtSource: true,
		})
		require.NoError(t, err)

		assert.True(t, resp.SettledAtSource)
		assert.Equal(t, "PAID", resp.Status)
		assert.Equal(t, "0", resp.PendingAmount.String())
	})

	t.Run("rejects stay-derived categories", func(t *testing.T) {
		svc, admissionRepo, itemRepo, _, _ := newTestBillingService()
		admission := testAdmission(t)
		admissionRepo.On("FindByID", mock.Anything, admission.ID).Return(admission, nil)

		for _, category := range []billing.ChargeCategory{billing.CategoryBedCharges, billing.CategoryDoctorConsultation} {
			_, err := svc.PostBillItem(ctx, PostBillItemRequest{
				AdmissionID: admission.ID,
				Category:    string(category),
				Description: "Manual bed charge",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(150),
			})
			assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
		}
		itemRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("admission not found", func(t *testing.T) {
		svc, admissionRepo, _, _, _ := newTestBillingService()
		admissionRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := svc.PostBillItem(ctx, PostBillItemRequest{
			AdmissionID: uuid.New(),
			Category:    string(billing.CategoryLab),
			Description: "Blood panel",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(500),
		})
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})
}

func TestBillingServiceUpdateBillItem(t *testing.T) {
	ctx := context.Background()

	t.Run("recomputes amounts from the new quantity and rate", func(t *testing.T) {
		svc, _, itemRepo, _, _ := newTestBillingService()
		item := testItem(t, uuid.New(), billing.CategoryLab, 500)

		itemRepo.On("FindByID", mock.Anything, item.ID).Return(item, nil)
		itemRepo.On("SaveWithLock", mock.Anything, item).Return(nil)

		resp, err := svc.UpdateBillItem(ctx, item.ID, UpdateBillItemRequest{
			Quantity:  decimal.NewFromInt(2),
			UnitPrice: decimal.NewFromInt(450),
		})
		require.NoError(t, err)

		assert.Equal(t, "900", resp.GrossAmount.String())
		assert.Equal(t, "900", resp.PendingAmount.String())
	})

	t.Run("rejects edits to derived stay charges", func(t *testing.T) {
		svc, _, itemRepo, _, _ := newTestBillingService()
		item := testStayLine(t, uuid.New(), billing.CategoryBedCharges, 150, 3)

		itemRepo.On("FindByID", mock.Anything, item.ID).Return(item, nil)

		_, err := svc.UpdateBillItem(ctx, item.ID, UpdateBillItemRequest{
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(100),
		})
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
		itemRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("optimistic lock conflict surfaces", func(t *testing.T) {
		svc, _, itemRepo, _, _ := newTestBillingService()
		item := testItem(t, uuid.New(), billing.CategoryLab, 500)

		itemRepo.On("FindByID", mock.Anything, item.ID).Return(item, nil)
		itemRepo.On("SaveWithLock", mock.Anything, item).Return(shared.ErrConcurrencyConflict)

		_, err := svc.UpdateBillItem(ctx, item.ID, UpdateBillItemRequest{
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(450),
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestBillingServiceCancelBillItem(t *testing.T) {
	ctx := context.Background()

	t.Run("voids the pending balance", func(t *testing.T) {
		svc, _, itemRepo, _, _ := newTestBillingService()
		item := testItem(t, uuid.New(), billing.CategorySurgery, 5000)

		itemRepo.On("FindByID", mock.Anything, item.ID).Return(item, nil)
		itemRepo.On("SaveWithLock", mock.Anything, item).Return(nil)

		resp, err := svc.CancelBillItem(ctx, item.ID, "Procedure not performed")
		require.NoError(t, err)

		assert.Equal(t, "CANCELLED", resp.Status)
		assert.Equal(t, "0", resp.PendingAmount.String())
		assert.Equal(t, "Procedure not performed", resp.CancelReason)
	})

	t.Run("rejects cancelling derived stay charges", func(t *testing.T) {
		svc, _, itemRepo, _, _ := newTestBillingService()
		item := testStayLine(t, uuid.New(), billing.CategoryDoctorConsultation, 100, 3)

		itemRepo.On("FindByID", mock.Anything, item.ID).Return(item, nil)

		_, err := svc.CancelBillItem(ctx, item.ID, "entered twice")
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
		itemRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _, itemRepo, _, _ := newTestBillingService()
		itemRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := svc.CancelBillItem(ctx, uuid.New(), "typo")
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})
}

func TestBillingServiceListBillItems(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes the derived lines before listing", func(t *testing.T) {
		svc, admissionRepo, itemRepo, _, _ := newTestBillingService()
		admission := testAdmission(t)

		admissionRepo.On("FindByID", mock.Anything, admission.ID).Return(admission, nil)
		itemRepo.On("FindByAdmissionAndCategory", mock.Anything, admission.ID, mock.Anything).
			Return([]billing.BillItem{}, nil)

		var created []*billing.BillItem
		itemRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.BillItem")).
			Run(func(args mock.Arguments) {
				created = append(created, args.Get(1).(*billing.BillItem))
			}).Return(nil)
		itemRepo.On("FindByAdmission", mock.Anything, admission.ID).
			Return([]billing.BillItem{}, nil)

		_, err := svc.ListBillItems(ctx, admission.ID)
		require.NoError(t, err)

		// bed and consultation lines materialized by the listing read
		require.Len(t, created, 2)
		assert.Equal(t, billing.CategoryBedCharges, created[0].Category)
		assert.Equal(t, billing.CategoryDoctorConsultation, created[1].Category)
	})

	t.Run("a failed refresh degrades to the stored lines", func(t *testing.T) {
		svc, admissionRepo, itemRepo, _, _ := newTestBillingService()
		admission := testAdmission(t)
		pharmacy := testItem(t, admission.ID, billing.CategoryPharmacy, 400)

		admissionRepo.On("FindByID", mock.Anything, admission.ID).Return(admission, nil)
		itemRepo.On("FindByAdmissionAndCategory", mock.Anything, admission.ID, mock.Anything).
			Return(nil, errors.New("connection reset"))
		itemRepo.On("FindByAdmission", mock.Anything, admission.ID).
			Return([]billing.BillItem{*pharmacy}, nil)

		responses, err := svc.ListBillItems(ctx, admission.ID)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, "PHARMACY", responses[0].Category)
	})
}
