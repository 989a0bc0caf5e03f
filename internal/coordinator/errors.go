package coordinator

import "errors"

// Error kinds reported to the request-handling layer. All are terminal for
// the current attempt; the caller decides whether and how to retry.
var (
	// ErrGateDenied means the subscription requirement is unmet. Recoverable
	// after the user subscribes and re-verifies.
	ErrGateDenied = errors.New("subscription required")

	// ErrTokenNotFound means a quality selection referenced an unknown or
	// expired token. Recoverable by resubmitting the URL.
	ErrTokenNotFound = errors.New("token not found")

	// ErrQuotaExceeded means the daily per-user limit is reached.
	// Recoverable after day rollover.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrSystemBusy means admission was denied because all download slots
	// are taken. Never consumes quota; recoverable by retrying later.
	ErrSystemBusy = errors.New("all download slots are busy")

	// ErrFetchFailed wraps an external engine failure or timeout.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrOversize means the fetch produced a file above the size ceiling;
	// the file has been deleted and is never delivered.
	ErrOversize = errors.New("file exceeds size limit")
)
