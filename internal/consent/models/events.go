package models

// Consent decision events emitted through the gateway.
const (
	EventConsentGranted = "consent_granted"
	EventConsentDenied  = "consent_denied"
)

// consent_type values carried on decision events.
const (
	ConsentTypeAll           = "all"
	ConsentTypeEssentialOnly = "essential_only"
)

// How the decision was made.
const (
	MethodButton  = "button"
	MethodDismiss = "dismiss"
)

// DecisionEvent names the event and consent_type emitted for action.
func DecisionEvent(action Action) (name, consentType string) {
	switch action {
	case ActionAcceptAll:
		return EventConsentGranted, ConsentTypeAll
	case ActionEssentialOnly:
		return EventConsentGranted, ConsentTypeEssentialOnly
	default:
		return EventConsentDenied, ConsentTypeAll
	}
}
