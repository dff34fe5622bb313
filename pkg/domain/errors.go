package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEntityNotFound        = errors.New("entity not found")
	ErrSessionNotFound       = errors.New("session not found")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrNotAnEvent            = errors.New("entity is not an event")
	ErrMutationPending       = errors.New("mutation already in flight")
	ErrMutationFailed        = errors.New("mutation failed")
	ErrEnrichmentFailed      = errors.New("detail enrichment failed")
	ErrInvalidTicketQuantity = errors.New("invalid ticket quantity")
	ErrTicketingDisabled     = errors.New("ticketing is not enabled")
	ErrExternalAPIFailure    = errors.New("external API failure")
	ErrRateLimitExceeded     = errors.New("rate limit exceeded")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}
