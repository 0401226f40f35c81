package sale

import "errors"

// Mint admission errors.
var (
	ErrPhaseNotOpen        = errors.New("presale not open yet")
	ErrNotAllowlisted      = errors.New("caller not in the allowlist")
	ErrCapExceeded         = errors.New("cap exceeded")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInvalidAmount       = errors.New("invalid mint amount")
)

// Privilege and lookup errors.
var (
	ErrUnauthorized = errors.New("unauthorized operation")
	ErrNotFound     = errors.New("avatar not found")
)

// ErrUpstream wraps a failure of the randomizer, the ownership ledger or the
// payment sink. The triggering request aborts with no state change.
var ErrUpstream = errors.New("upstream collaborator failure")
