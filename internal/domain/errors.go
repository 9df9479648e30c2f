package domain

import "errors"

// Authorization errors are rejected before any state mutation
var (
	// ErrAlreadyRegistered is returned when registering an address that already has an identity
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrNotRegistered is returned when an operation references a patient with no identity
	ErrNotRegistered = errors.New("not registered")

	// ErrNotAuthorized is returned when a caller lacks the role an operation requires
	ErrNotAuthorized = errors.New("not authorized")

	// ErrAccessorNotAuthorized is returned when the accessor is not an authorized institution
	ErrAccessorNotAuthorized = errors.New("accessor not authorized")

	// ErrAccessDenied is returned when no live permission covers the attempted operation
	ErrAccessDenied = errors.New("access denied")
)

// Workflow errors guard the one-way access request state machine
var (
	// ErrRequestAlreadyPending is returned when the (patient, institution) pair already has a pending request
	ErrRequestAlreadyPending = errors.New("request already pending")

	// ErrRequestNotPending is returned when the referenced request is not in pending state
	ErrRequestNotPending = errors.New("request not pending")

	// ErrInvalidRequestIndex is returned when the request index is out of range
	ErrInvalidRequestIndex = errors.New("invalid request index")

	// ErrRecordNotFound is returned when a record index is out of range
	ErrRecordNotFound = errors.New("record not found")
)

// Relay errors are relay-local and never reach the ledger components
var (
	// ErrInvalidSignature is returned when the signature does not recover to the claimed signer
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNonceMismatch is returned when the envelope nonce does not match the stored nonce
	ErrNonceMismatch = errors.New("nonce mismatch")

	// ErrDeadlineExpired is returned when the envelope deadline has lapsed
	ErrDeadlineExpired = errors.New("deadline expired")

	// ErrGasLimitExceeded is returned when the envelope gas exceeds the per-call budget
	ErrGasLimitExceeded = errors.New("gas limit exceeded")

	// ErrInsufficientRelayerFunds is returned when the sponsor pool cannot cover the worst-case cost
	ErrInsufficientRelayerFunds = errors.New("insufficient relayer funds")

	// ErrRateLimited is returned when a signer exceeds the sponsored submission rate
	ErrRateLimited = errors.New("rate limited")
)
