package models

// Decision is the value of one consent field.
type Decision string

const (
	Granted Decision = "granted"
	Denied  Decision = "denied"
)

// IsValid checks if the decision is one of the two supported values.
func (d Decision) IsValid() bool {
	return d == Granted || d == Denied
}

// Action is one of the three choices a visitor can make on the prompt.
type Action string

const (
	ActionAcceptAll     Action = "accept_all"
	ActionRejectAll     Action = "reject_all"
	ActionEssentialOnly Action = "essential_only"
)

// ValidActions is the single source of truth for accepted actions.
var ValidActions = map[Action]bool{
	ActionAcceptAll:     true,
	ActionRejectAll:     true,
	ActionEssentialOnly: true,
}

// IsValid checks if the action is one of the canonical choices.
func (a Action) IsValid() bool {
	return ValidActions[a]
}

// State is the consent lifecycle within one page lifetime.
type State string

const (
	// StateUnresolved is the boot state before the persisted record is read.
	StateUnresolved State = "unresolved"
	// StatePrompted means the choice prompt is on screen.
	StatePrompted State = "prompted"
	// StateResolved is terminal for the page lifetime.
	StateResolved State = "resolved"
)
