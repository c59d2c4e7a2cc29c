package ratings

import "errors"

// Business-rule failures surfaced to the HTTP layer. Each maps to a stable
// error code there; none are retried.
var (
	ErrSelfRating      = errors.New("cannot rate yourself")
	ErrSellerNotFound  = errors.New("seller not found")
	ErrNotEligible     = errors.New("message exchange required")
	ErrDuplicate       = errors.New("you have already rated this seller")
	ErrRatingNotFound  = errors.New("rating not found")
	ErrNotOwner        = errors.New("you can only modify your own ratings")
	ErrListingNotFound = errors.New("listing not found")
)

// ValidationError reports a bad score or comment on a rating payload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(msg string) error {
	return &ValidationError{Message: msg}
}
