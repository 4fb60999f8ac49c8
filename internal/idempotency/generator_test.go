package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	g := NewGenerator()

	t.Run("same params produce the same key", func(t *testing.T) {
		params := map[string]interface{}{
			"subscription_id": "sub_123",
			"charge_id":       "chg_456",
			"period_start":    "2025-06-01",
		}
		assert.Equal(t, g.GenerateKey(ScopeFee, params), g.GenerateKey(ScopeFee, params))
	})

	t.Run("key is independent of param insertion order", func(t *testing.T) {
		a := map[string]interface{}{"a": 1, "b": 2, "c": 3}
		b := map[string]interface{}{"c": 3, "a": 1, "b": 2}
		assert.Equal(t, g.GenerateKey(ScopeFee, a), g.GenerateKey(ScopeFee, b))
	})

	t.Run("different params produce different keys", func(t *testing.T) {
		a := g.GenerateKey(ScopeFee, map[string]interface{}{"subscription_id": "sub_123"})
		b := g.GenerateKey(ScopeFee, map[string]interface{}{"subscription_id": "sub_456"})
		assert.NotEqual(t, a, b)
	})

	t.Run("scope is part of the key", func(t *testing.T) {
		params := map[string]interface{}{"subscription_id": "sub_123"}
		feeKey := g.GenerateKey(ScopeFee, params)
		invKey := g.GenerateKey(ScopeSubscriptionInvoice, params)
		assert.NotEqual(t, feeKey, invKey)
		assert.True(t, strings.HasPrefix(feeKey, "fee-"))
		assert.True(t, strings.HasPrefix(invKey, "subscription_invoice-"))
	})
}

func TestValidateKey(t *testing.T) {
	g := NewGenerator()
	params := map[string]interface{}{"subscription_id": "sub_123", "period": "2025-06"}

	key := g.GenerateKey(ScopeFee, params)
	assert.True(t, g.ValidateKey(ScopeFee, params, key))
	assert.False(t, g.ValidateKey(ScopeOneOffInvoice, params, key))
	assert.False(t, g.ValidateKey(ScopeFee, map[string]interface{}{"subscription_id": "sub_999"}, key))
}
