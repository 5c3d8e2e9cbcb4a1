package models

import (
	"time"

	dErrors "pawty/pkg/domain-errors"
)

// DefaultTTL is how long a stored decision stays valid.
const DefaultTTL = 365 * 24 * time.Hour

// Profile is the five-field consent vector applied to the host's ad and
// analytics stack. Field names match the host's consent mode keys.
type Profile struct {
	AdStorage              Decision `json:"ad_storage"`
	AdUserData             Decision `json:"ad_user_data"`
	AdPersonalization      Decision `json:"ad_personalization"`
	AnalyticsStorage       Decision `json:"analytics_storage"`
	PersonalizationStorage Decision `json:"personalization_storage"`
}

// AcceptAll grants every field.
func AcceptAll() Profile {
	return uniform(Granted)
}

// RejectAll denies every field.
func RejectAll() Profile {
	return uniform(Denied)
}

// EssentialOnly keeps basic analytics and denies the rest.
func EssentialOnly() Profile {
	p := uniform(Denied)
	p.AnalyticsStorage = Granted
	return p
}

func uniform(d Decision) Profile {
	return Profile{
		AdStorage:              d,
		AdUserData:             d,
		AdPersonalization:      d,
		AnalyticsStorage:       d,
		PersonalizationStorage: d,
	}
}

// ProfileFor maps an action to its canonical profile.
func ProfileFor(action Action) (Profile, error) {
	switch action {
	case ActionAcceptAll:
		return AcceptAll(), nil
	case ActionRejectAll:
		return RejectAll(), nil
	case ActionEssentialOnly:
		return EssentialOnly(), nil
	default:
		return Profile{}, dErrors.New(dErrors.CodeBadRequest, "invalid consent action: "+string(action))
	}
}

// IsValid reports whether every field holds a known decision. Stored
// profiles failing this check are treated as absent.
func (p Profile) IsValid() bool {
	return p.AdStorage.IsValid() &&
		p.AdUserData.IsValid() &&
		p.AdPersonalization.IsValid() &&
		p.AnalyticsStorage.IsValid() &&
		p.PersonalizationStorage.IsValid()
}

// Fields returns the profile as a flat key/value map.
func (p Profile) Fields() map[string]string {
	return map[string]string{
		"ad_storage":              string(p.AdStorage),
		"ad_user_data":            string(p.AdUserData),
		"ad_personalization":      string(p.AdPersonalization),
		"analytics_storage":       string(p.AnalyticsStorage),
		"personalization_storage": string(p.PersonalizationStorage),
	}
}

// Record is a persisted decision. Writes always replace the whole record.
type Record struct {
	Profile   Profile   `json:"profile"`
	DecidedAt time.Time `json:"decided_at"`
}

// NewRecord stamps profile with the decision time, truncated to the
// millisecond precision the store keeps.
func NewRecord(profile Profile, decidedAt time.Time) *Record {
	return &Record{Profile: profile, DecidedAt: time.UnixMilli(decidedAt.UnixMilli())}
}

// IsExpired is true once more than ttl has passed since the decision. A
// record exactly ttl old is still valid.
func IsExpired(r Record, now time.Time, ttl time.Duration) bool {
	return now.Sub(r.DecidedAt) > ttl
}

// ExpiresAt is the last instant at which the record is still valid.
func (r Record) ExpiresAt(ttl time.Duration) time.Time {
	return r.DecidedAt.Add(ttl)
}
