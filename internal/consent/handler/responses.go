package handler

import (
	"time"

	"pawty/internal/consent/models"
	"pawty/internal/consent/service"
)

// StatusResponse describes the consent state of a page session.
type StatusResponse struct {
	State     models.State    `json:"state"`
	Profile   *models.Profile `json:"profile,omitempty"`
	DecidedAt *time.Time      `json:"decided_at,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Expired   bool            `json:"expired"`
}

func toStatusResponse(st service.Status) StatusResponse {
	res := StatusResponse{State: st.State, Expired: st.Expired}
	if st.Record != nil {
		profile := st.Record.Profile
		decided := st.Record.DecidedAt.UTC()
		expires := st.ExpiresAt.UTC()
		res.Profile = &profile
		res.DecidedAt = &decided
		res.ExpiresAt = &expires
	}
	return res
}
