package datalayer

import (
	"context"

	"pawty/internal/consent/models"
)

// ConsentUpdateEvent is the record name the host's tag manager listens for
// to switch its consent mode.
const ConsentUpdateEvent = "consent_update"

// ConsentPropagator applies consent by queueing a consent_update record with
// the five profile fields, ahead of any event recorded under the new profile.
type ConsentPropagator struct {
	queue *Queue
}

// NewConsentPropagator pushes onto q.
func NewConsentPropagator(q *Queue) *ConsentPropagator {
	return &ConsentPropagator{queue: q}
}

func (p *ConsentPropagator) Apply(_ context.Context, profile models.Profile) error {
	fields := profile.Fields()
	record := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		record[k] = v
	}
	record["event"] = ConsentUpdateEvent
	return p.queue.Append(record)
}
