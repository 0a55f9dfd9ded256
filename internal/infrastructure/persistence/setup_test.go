package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&patient.Patient{},
		&patient.Doctor{},
		&patient.Admission{},
		&patient.Appointment{},
		&billing.BillItem{},
		&billing.Advance{},
		&billing.PaymentTransaction{},
	)
	require.NoError(t, err)

	return db
}

func newStoredAdmission(t *testing.T, db *gorm.DB) *patient.Admission {
	t.Helper()

	admission, err := patient.NewAdmission(
		uuid.New(), uuid.New(),
		"GENERAL", "G-12",
		valueobject.NewMoneyINRFromFloat(150),
		valueobject.NewMoneyINRFromFloat(100),
		time.Now().Add(-48*time.Hour),
	)
	require.NoError(t, err)
	admission.ClearDomainEvents()
	require.NoError(t, db.Save(admission).Error)
	return admission
}

func newStoredBillItem(t *testing.T, db *gorm.DB, admissionID uuid.UUID, category billing.ChargeCategory, amount float64) *billing.BillItem {
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
	require.NoError(t, db.Save(item).Error)
	return item
}

func newStoredAdvance(t *testing.T, db *gorm.DB, admissionID uuid.UUID, receiptNumber string, amount float64) *billing.Advance {
	t.Helper()

	advance, err := billing.NewAdvance(
		admissionID, receiptNumber,
		valueobject.NewMoneyINRFromFloat(amount),
		billing.PaymentMethodCash, "",
	)
	require.NoError(t, err)
	advance.ClearDomainEvents()
	require.NoError(t, db.Save(advance).Error)
	return advance
}
