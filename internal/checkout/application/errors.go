package application

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidMethod       = errors.New("invalid payment method")
	ErrInsufficientCash    = errors.New("tendered amount below total")
	ErrCheckoutInProgress  = errors.New("checkout already in progress")
	ErrDuplicateSubmission = errors.New("checkout already submitted")
	ErrNoActiveSession     = errors.New("no active payment session")
	ErrRetryUnavailable    = errors.New("no failed gateway payment to retry")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrPollDeadline        = errors.New("payment not settled before deadline")
)
