package leave

import "errors"

var (
	ErrNotFound       = errors.New("leave request not found")
	ErrTypeNotFound   = errors.New("leave type not found")
	ErrForbidden      = errors.New("not allowed to act on this leave request")
	ErrInvalidRange   = errors.New("end date must not be before start date")
	ErrNotPending     = errors.New("leave request is not pending")
	ErrNotCancellable = errors.New("leave request not found or cannot be cancelled")
	ErrReasonRequired = errors.New("rejection reason is required")
	ErrNotApproved    = errors.New("certificates can only be attached to approved requests")
	ErrNoCertificate  = errors.New("leave request has no certificate")
	ErrNoEmployee     = errors.New("no employee record for this user")
)
