package handler

import (
	"fmt"
	"strings"

	"pawty/internal/consent/models"
	dErrors "pawty/pkg/domain-errors"
)

// ResolveRequest carries the visitor's choice on the prompt.
type ResolveRequest struct {
	Choice string `json:"action"`
}

// Normalize accepts any casing and surrounding whitespace.
func (r *ResolveRequest) Normalize() {
	if r == nil {
		return
	}
	r.Choice = strings.ToLower(strings.TrimSpace(r.Choice))
}

// Validate checks that the request is well-formed.
func (r *ResolveRequest) Validate() error {
	if r == nil || r.Choice == "" {
		return dErrors.New(dErrors.CodeBadRequest, "action is required")
	}
	if !models.Action(r.Choice).IsValid() {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("invalid action %q: must be one of accept_all, reject_all, essential_only", r.Choice))
	}
	return nil
}

// Action returns the validated choice.
func (r *ResolveRequest) Action() models.Action {
	return models.Action(r.Choice)
}
