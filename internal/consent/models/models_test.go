package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pawty/pkg/domain-errors"
)

func TestCanonicalProfiles(t *testing.T) {
	fields := func(p Profile) map[string]string { return p.Fields() }

	t.Run("accept all grants every field", func(t *testing.T) {
		for k, v := range fields(AcceptAll()) {
			assert.Equal(t, "granted", v, k)
		}
	})

	t.Run("reject all denies every field", func(t *testing.T) {
		for k, v := range fields(RejectAll()) {
			assert.Equal(t, "denied", v, k)
		}
	})

	t.Run("essential only keeps analytics storage", func(t *testing.T) {
		assert.Equal(t, map[string]string{
			"ad_storage":              "denied",
			"ad_user_data":            "denied",
			"ad_personalization":      "denied",
			"analytics_storage":       "granted",
			"personalization_storage": "denied",
		}, fields(EssentialOnly()))
	})

	t.Run("profile for each action", func(t *testing.T) {
		for action, want := range map[Action]Profile{
			ActionAcceptAll:     AcceptAll(),
			ActionRejectAll:     RejectAll(),
			ActionEssentialOnly: EssentialOnly(),
		} {
			got, err := ProfileFor(action)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.True(t, got.IsValid())
		}

		_, err := ProfileFor("maybe")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("partial profile is invalid", func(t *testing.T) {
		p := AcceptAll()
		p.AdUserData = ""
		assert.False(t, p.IsValid())
	})
}

// TestIsExpired pins the 365-day boundary to the millisecond.
func TestIsExpired(t *testing.T) {
	decided := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	r := *NewRecord(AcceptAll(), decided)
	boundary := decided.Add(365 * 24 * time.Hour)

	assert.False(t, IsExpired(r, decided, DefaultTTL))
	assert.False(t, IsExpired(r, boundary.Add(-time.Millisecond), DefaultTTL))
	assert.False(t, IsExpired(r, boundary, DefaultTTL))
	assert.True(t, IsExpired(r, boundary.Add(time.Millisecond), DefaultTTL))
	assert.True(t, IsExpired(r, decided.Add(400*24*time.Hour), DefaultTTL))
	assert.Equal(t, boundary, r.ExpiresAt(DefaultTTL))
}

func TestDecisionEvent(t *testing.T) {
	name, kind := DecisionEvent(ActionAcceptAll)
	assert.Equal(t, "consent_granted", name)
	assert.Equal(t, "all", kind)

	name, kind = DecisionEvent(ActionEssentialOnly)
	assert.Equal(t, "consent_granted", name)
	assert.Equal(t, "essential_only", kind)

	name, kind = DecisionEvent(ActionRejectAll)
	assert.Equal(t, "consent_denied", name)
	assert.Equal(t, "all", kind)
}
