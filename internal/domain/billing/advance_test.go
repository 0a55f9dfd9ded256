package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/domain/shared/valueobject"
)

func createTestAdvance(t *testing.T, amount float64) *Advance {
	t.Helper()
	adv, err := NewAdvance(
		uuid.New(),
		"ADV-2026-0001",
		valueobject.NewMoneyINRFromFloat(amount),
		PaymentMethodCash,
		"",
	)
	require.NoError(t, err)
	return adv
}

func TestNewAdvance(t *testing.T) {
	t.Run("creates active advance", func(t *testing.T) {
		adv := createTestAdvance(t, 500)

		assert.Equal(t, AdvanceStatusActive, adv.Status)
		assert.Equal(t, "500", adv.Amount.String())
		assert.True(t, adv.UsedAmount.IsZero())
		assert.Equal(t, "500", adv.AvailableAmount().String())
		assert.True(t, adv.BalancesConsistent())

		events := adv.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "AdvanceRecorded", events[0].EventType())
	})

	tests := []struct {
		name          string
		admissionID   uuid.UUID
		receiptNumber string
		amount        float64
		method        PaymentMethod
		wantErr       string
	}{
		{"empty admission", uuid.Nil, "ADV-1", 100, PaymentMethodCash, "Admission ID cannot be empty"},
		{"empty receipt number", uuid.New(), "", 100, PaymentMethodCash, "Receipt number cannot be empty"},
		{"zero amount", uuid.New(), "ADV-1", 0, PaymentMethodCash, "must be positive"},
		{"negative amount", uuid.New(), "ADV-1", -50, PaymentMethodCash, "must be positive"},
		{"invalid method", uuid.New(), "ADV-1", 100, PaymentMethod("BARTER"), "Unknown payment method"},
		{"advance funded by advance", uuid.New(), "ADV-1", 100, PaymentMethodAdvance, "cannot be funded by another advance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdvance(tt.admissionID, tt.receiptNumber, valueobject.NewMoneyINRFromFloat(tt.amount), tt.method, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAdvanceDraw(t *testing.T) {
	t.Run("partial draw keeps advance active", func(t *testing.T) {
		adv := createTestAdvance(t, 500)
		err := adv.Draw(valueobject.NewMoneyINRFromFloat(200))
		require.NoError(t, err)

		assert.Equal(t, "200", adv.UsedAmount.String())
		assert.Equal(t, "300", adv.AvailableAmount().String())
		assert.Equal(t, AdvanceStatusActive, adv.Status)
		assert.True(t, adv.BalancesConsistent())
	})

	t.Run("full draw flips status to fully used", func(t *testing.T) {
		adv := createTestAdvance(t, 500)
		err := adv.Draw(valueobject.NewMoneyINRFromFloat(500))
		require.NoError(t, err)

		assert.Equal(t, AdvanceStatusFullyUsed, adv.Status)
		assert.True(t, adv.AvailableAmount().IsZero())
		assert.True(t, adv.BalancesConsistent())
	})

	t.Run("rejects draw exceeding available balance", func(t *testing.T) {
		adv := createTestAdvance(t, 500)
		require.NoError(t, adv.Draw(valueobject.NewMoneyINRFromFloat(400)))

		err := adv.Draw(valueobject.NewMoneyINRFromFloat(200))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds available balance")
		assert.Equal(t, "400", adv.UsedAmount.String())
	})

	t.Run("rejects draw on fully used advance", func(t *testing.T) {
		adv := createTestAdvance(t, 100)
		require.NoError(t, adv.Draw(valueobject.NewMoneyINRFromFloat(100)))

		err := adv.Draw(valueobject.NewMoneyINRFromFloat(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FULLY_USED")
	})

	t.Run("rejects non-positive draw", func(t *testing.T) {
		adv := createTestAdvance(t, 100)
		err := adv.Draw(valueobject.ZeroINR())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("successive draws accumulate", func(t *testing.T) {
		adv := createTestAdvance(t, 300)
		require.NoError(t, adv.Draw(valueobject.NewMoneyINRFromFloat(100)))
		require.NoError(t, adv.Draw(valueobject.NewMoneyINRFromFloat(150)))

		assert.Equal(t, "250", adv.UsedAmount.String())
		assert.Equal(t, "50", adv.AvailableAmount().String())
		assert.Equal(t, AdvanceStatusActive, adv.Status)
	})
}
