package basicpdf

import "errors"

var (
	ErrInvalidDocument   = errors.New("invalid or unreadable PDF document")
	ErrMissingDocument   = errors.New("no document loaded")
	ErrMissingStamp      = errors.New("no stamp captured")
	ErrEmptySignature    = errors.New("signature image is empty")
	ErrCertificateAuth   = errors.New("wrong password or invalid certificate container")
	ErrNoCertificate     = errors.New("no certificate found in container")
	ErrPageOutOfRange    = errors.New("page index out of range")
	ErrDuplicatePage     = errors.New("page index listed more than once")
	ErrNoTargets         = errors.New("no target pages")
	ErrEmptySelection    = errors.New("no pages selected")
	ErrPageNotSelected   = errors.New("page is not selected")
	ErrPageNotDisplayed  = errors.New("page has no preview yet")
	ErrPlacementTooSmall = errors.New("placement is smaller than the minimum size")
	ErrInvalidTransition = errors.New("transition not allowed from current step")
	ErrWrongStep         = errors.New("operation not available in current step")
	ErrBusy              = errors.New("another operation is in progress")
	// Returned when the session was reset while the operation was running.
	// Callers drop it silently.
	ErrStaleResult = errors.New("result belongs to a reset session")
	ErrTooFewFiles = errors.New("at least two files are required")
)
