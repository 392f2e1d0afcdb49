package types

import "errors"

var (
	// ErrNotAuthenticated means no identity is available. Prompt for login, do not retry.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrHistoryUnavailable covers transport and server failures while listing.
	ErrHistoryUnavailable = errors.New("history unavailable")
	// ErrSaveFailed is logged only and never shown to the user.
	ErrSaveFailed = errors.New("history save failed")
	// ErrDeleteFailed leaves the local list unchanged.
	ErrDeleteFailed = errors.New("history delete failed")
)
