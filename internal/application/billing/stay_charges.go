package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
	"github.com/hms/backend/internal/infrastructure/telemetry"
)

// SyncStayCharges reconciles the bed and consultation charge lines of a stay
// with the admission scalars. The summary derives those subtotals from
// rate x stay days; this keeps a matching payable line per category so the
// payment allocator has something to apply money against. Runs after admit,
// rate edits and discharge, and on every bill item listing because the day
// count grows while the stay is open.
func (s *BillingService) SyncStayCharges(ctx context.Context, admissionID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "sync_stay_charges")
	defer span.End()
	telemetry.SetAttribute(span, "admission_id", admissionID.String())

	admission, err := s.admissionRepo.FindByID(ctx, admissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to load admission: %w", err)
	}
	if admission == nil {
		return shared.NewDomainError("NOT_FOUND", "Admission not found")
	}

	if err := s.syncStayCharges(ctx, admission); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

func (s *BillingService) syncStayCharges(ctx context.Context, admission *patient.Admission) error {
	days := admission.StayDays()
	charges := []struct {
		category    billing.ChargeCategory
		rate        decimal.Decimal
		description string
	}{
		{billing.CategoryBedCharges, admission.BedDailyRate, "Bed charges"},
		{billing.CategoryDoctorConsultation, admission.ConsultationFee, "Doctor consultation"},
	}
	for _, c := range charges {
		if err := s.syncStayCategory(ctx, admission, c.category, c.rate, c.description, days); err != nil {
			return err
		}
	}
	return nil
}

// syncStayCategory brings one derived category up to rate x days. Fully paid
// lines keep their money; at most one open line carries the unsettled
// remainder, created or resized as needed. A line that is already current is
// not written.
func (s *BillingService) syncStayCategory(
	ctx context.Context,
	admission *patient.Admission,
	category billing.ChargeCategory,
	rate decimal.Decimal,
	description string,
	days int64,
) error {
	total := rate.Mul(decimal.NewFromInt(days)).Round(2)

	items, err := s.itemRepo.FindByAdmissionAndCategory(ctx, admission.ID, category)
	if err != nil {
		return shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to read stay charge lines")
	}

	settled := decimal.Zero
	var open *billing.BillItem
	for i := range items {
		item := &items[i]
		switch {
		case item.IsCancelled():
		case item.Status == billing.BillItemStatusPaid:
			settled = settled.Add(item.NetAmount)
		default:
			open = item
		}
	}

	target := total.Sub(settled)

	if open == nil {
		if !target.IsPositive() {
			return nil
		}
		return s.createStayChargeLine(ctx, admission, category, rate, description, days, settled, target)
	}

	// The open line never shrinks below the money already applied to it
	desired := target
	if desired.LessThan(open.PaidAmount) {
		desired = open.PaidAmount
	}
	if open.NetAmount.Equal(desired) {
		return nil
	}

	if !desired.IsPositive() {
		if err := open.Cancel("Derived stay charge no longer due"); err != nil {
			return err
		}
	} else {
		quantity, unitPrice, err := stayChargeShape(rate, days, settled, desired)
		if err != nil {
			return err
		}
		if err := open.UpdateQuantityAndRate(quantity, unitPrice); err != nil {
			return err
		}
	}

	if err := s.itemRepo.SaveWithLock(ctx, open); err != nil {
		return shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to save stay charge line")
	}
	s.publishDomainEvents(ctx, open)

	s.logger.Info("stay charge line synced",
		zap.String("admission_id", admission.ID.String()),
		zap.String("category", string(category)),
		zap.String("net_amount", open.NetAmount.String()))
	return nil
}

func (s *BillingService) createStayChargeLine(
	ctx context.Context,
	admission *patient.Admission,
	category billing.ChargeCategory,
	rate decimal.Decimal,
	description string,
	days int64,
	settled decimal.Decimal,
	amount decimal.Decimal,
) error {
	quantity, unitPrice, err := stayChargeShape(rate, days, settled, amount)
	if err != nil {
		return err
	}
	item, err := billing.NewBillItem(
		admission.ID, category, description,
		quantity, unitPrice, valueobject.ZeroINR(),
		admission.AdmittedAt,
	)
	if err != nil {
		return err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to save stay charge line")
	}
	s.publishDomainEvents(ctx, item)

	s.logger.Info("stay charge line created",
		zap.String("admission_id", admission.ID.String()),
		zap.String("bill_item_id", item.ID.String()),
		zap.String("category", string(category)),
		zap.String("net_amount", item.NetAmount.String()))
	return nil
}

// stayChargeShape picks the quantity and unit price presentation for a
// derived charge line. A line covering the whole stay reads as days x daily
// rate; a remainder left over after earlier settled lines collapses to one
// unit.
func stayChargeShape(rate decimal.Decimal, days int64, settled, amount decimal.Decimal) (valueobject.Quantity, valueobject.Money, error) {
	if settled.IsZero() && amount.Equal(rate.Mul(decimal.NewFromInt(days)).Round(2)) {
		quantity, err := valueobject.NewQuantityFromInt(days, "DAY")
		if err != nil {
			return valueobject.Quantity{}, valueobject.Money{}, err
		}
		return quantity, valueobject.NewMoneyINR(rate), nil
	}
	quantity, err := valueobject.NewQuantityFromInt(1, "STAY")
	if err != nil {
		return valueobject.Quantity{}, valueobject.Money{}, err
	}
	return quantity, valueobject.NewMoneyINR(amount), nil
}
