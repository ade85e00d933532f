package entity_test

import (
	"testing"

	"tours/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_Apply(t *testing.T) {
	t.Run("happy path through processing", func(t *testing.T) {
		p := entity.Payment{Status: entity.PaymentPending}

		changed, err := p.Apply(entity.PaymentProcessing)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = p.Apply(entity.PaymentCompleted)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = p.Apply(entity.PaymentRefunded)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, entity.PaymentRefunded, p.Status)
	})

	t.Run("repeated callback is a no-op", func(t *testing.T) {
		p := entity.Payment{Status: entity.PaymentCompleted}

		changed, err := p.Apply(entity.PaymentCompleted)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("terminal statuses do not move", func(t *testing.T) {
		for _, from := range []entity.PaymentStatus{entity.PaymentFailed, entity.PaymentCancelled, entity.PaymentRefunded} {
			p := entity.Payment{Status: from}
			_, err := p.Apply(entity.PaymentCompleted)

			var transitionErr entity.InvalidTransitionError
			require.ErrorAs(t, err, &transitionErr, "from %s", from)
		}
	})

	t.Run("pending payment cannot be refunded", func(t *testing.T) {
		p := entity.Payment{Status: entity.PaymentPending}
		_, err := p.Apply(entity.PaymentRefunded)
		require.Error(t, err)
	})
}

func TestPaymentStatus_Open(t *testing.T) {
	assert.True(t, entity.PaymentPending.Open())
	assert.True(t, entity.PaymentProcessing.Open())
	assert.False(t, entity.PaymentCompleted.Open())
	assert.False(t, entity.PaymentFailed.Open())
}
