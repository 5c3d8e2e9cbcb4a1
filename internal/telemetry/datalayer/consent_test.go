package datalayer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawty/internal/consent/models"
)

func TestConsentPropagator(t *testing.T) {
	q := NewQueue()
	p := NewConsentPropagator(q)

	require.NoError(t, p.Apply(context.Background(), models.EssentialOnly()))

	records := q.Records()
	require.Len(t, records, 1)
	assert.Equal(t, map[string]any{
		"event":                   "consent_update",
		"ad_storage":              "denied",
		"ad_user_data":            "denied",
		"ad_personalization":      "denied",
		"analytics_storage":       "granted",
		"personalization_storage": "denied",
	}, records[0])
}

func TestConsentPropagatorQueueFull(t *testing.T) {
	q := NewQueue(WithCapacity(1))
	p := NewConsentPropagator(q)

	require.NoError(t, p.Apply(context.Background(), models.AcceptAll()))
	assert.ErrorIs(t, p.Apply(context.Background(), models.RejectAll()), ErrQueueFull)
}
