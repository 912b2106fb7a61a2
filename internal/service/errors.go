package service

import "errors"

// Typed errors so the delivery layer can map them onto HTTP codes.
var (
	// Validation errors.
	ErrInvalidTestID = errors.New("invalid test_id")
	ErrTestNotFound  = errors.New("test not found")

	// External prediction service errors. Either one aborts the run with
	// nothing persisted.
	ErrClassifierUnavailable = errors.New("prediction service unavailable")
	ErrClassifierBadResponse = errors.New("invalid response from prediction service")

	ErrResultNotFound = errors.New("no evaluation result for this test")
)
