package models

import "errors"

// Error taxonomy. Handlers and the session controller distinguish these
// classes so a reviewer can tell "nothing to show" apart from "your vote
// didn't save".
var (
	// ErrListingUnavailable means the dataset is unknown or its record
	// listing could not be obtained. Session-scoped: blocks navigation
	// until a dataset reselect succeeds.
	ErrListingUnavailable = errors.New("dataset listing unavailable")

	// ErrRecordNotFound means the record key does not exist in the dataset.
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordUnreadable means the record exists but its content could
	// not be read or parsed. Fatal to that record load only.
	ErrRecordUnreadable = errors.New("record unreadable")

	// ErrLedgerUnavailable means vote history could not be read. Non-fatal:
	// the controller degrades to an empty entry set.
	ErrLedgerUnavailable = errors.New("vote ledger unavailable")

	// ErrLedgerWrite means a vote append failed. No local state is mutated.
	ErrLedgerWrite = errors.New("vote ledger write failed")

	// ErrValidation covers local input failures (e.g. no reviewer
	// selected). Never reaches the network.
	ErrValidation = errors.New("validation failed")
)
